package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingMiddleware returns a middleware that traces HTTP requests using OpenTelemetry
// It wraps the official otelgin middleware and adds menu-specific span attributes
func TracingMiddleware(serviceName string) gin.HandlerFunc {
	base := otelgin.Middleware(serviceName)

	return func(c *gin.Context) {
		base(c)

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}

		if owner, ok := c.Get(OwnerKey); ok {
			span.SetAttributes(attribute.Bool("menu.owner", owner.(bool)))
		}
		if id := c.Param("id"); id != "" {
			span.SetAttributes(attribute.String("menu.item_id", id))
		}
		if id := RequestID(c); id != "" {
			span.SetAttributes(attribute.String("request.id", id))
		}
		for _, ginErr := range c.Errors {
			span.RecordError(ginErr.Err)
			span.SetStatus(codes.Error, ginErr.Error())
		}
	}
}
