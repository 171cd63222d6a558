package middleware

import (
	"github.com/gin-gonic/gin"
)

// OwnerKey is the gin context key holding the owner flag for this request.
const OwnerKey = "owner"

// OwnerMiddleware decides owner mode once per request from the query
// parameter param ("owner=true"). Handlers read the result with IsOwner and
// never look at the query themselves.
func OwnerMiddleware(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(OwnerKey, c.Query(param) == "true")
		c.Next()
	}
}

// IsOwner returns the flag set by OwnerMiddleware.
func IsOwner(c *gin.Context) bool {
	return c.GetBool(OwnerKey)
}
