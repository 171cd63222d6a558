// Package fakeapi is an in-memory stand-in for the upstream menu resource.
// It speaks the same wire contract as the real backend and records every
// request it receives so tests can assert on (the absence of) network calls.
package fakeapi

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"

	"github.com/zfogg/menuboard/pkg/menu"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// BasePath is where the resource is mounted, matching the real backend.
const BasePath = "/api/menu"

// Request is one recorded call.
type Request struct {
	Method string
	Path   string
	Body   []byte
	Form   map[string]string
	File   string
}

type failure struct {
	method  string
	status  int
	message string
}

// Server implements the menu resource in memory.
type Server struct {
	mu       sync.Mutex
	secret   string
	items    []menu.Item
	nextID   int
	requests []Request
	failures []failure
	engine   *gin.Engine
}

// New returns an empty Server accepting secret on mutations.
func New(secret string) *Server {
	gin.SetMode(gin.TestMode)

	s := &Server{secret: secret, nextID: 1, engine: gin.New()}
	s.engine.Use(s.record, s.injectFailure)

	g := s.engine.Group(BasePath)
	g.GET("", s.list)
	g.POST("", s.create)
	g.GET("/:id", s.get)
	g.PUT("/:id", s.update)
	g.DELETE("/:id", s.delete)
	return s
}

// Start serves s on a loopback listener and returns the resource base URL.
// The listener is closed through the returned httptest.Server.
func (s *Server) Start() (*httptest.Server, string) {
	ts := httptest.NewServer(s)
	return ts, ts.URL + BasePath
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.engine.ServeHTTP(w, r)
}

// Seed appends n generated items and returns them.
func (s *Server) Seed(n int, seed uint64) []menu.Item {
	f := gofakeit.New(seed)

	out := make([]menu.Item, 0, n)
	for i := 0; i < n; i++ {
		words := make([]string, f.Number(8, 90))
		for j := range words {
			if j%2 == 0 {
				words[j] = f.Adjective()
			} else {
				words[j] = f.Noun()
			}
		}
		out = append(out, menu.Item{
			Title:       f.Dinner(),
			ImageURL:    f.URL(),
			Price:       decimal.NewFromFloat(f.Price(4, 40)).Round(2),
			Description: strings.Join(words, " "),
		})
	}
	return s.Add(out...)
}

// Add appends items, assigning ids to those that have none.
func (s *Server) Add(items ...menu.Item) []menu.Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := make([]menu.Item, 0, len(items))
	for _, it := range items {
		if it.ID == "" {
			it.ID = menu.ItemID(strconv.Itoa(s.nextID))
		}
		s.nextID++
		s.items = append(s.items, it)
		added = append(added, it)
	}
	return added
}

// Items returns a copy of the stored menu.
func (s *Server) Items() []menu.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]menu.Item(nil), s.items...)
}

// FailNext makes the next request with the given method answer status with
// message. An empty method matches any request.
func (s *Server) FailNext(method string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, failure{method: method, status: status, message: message})
}

// Requests returns everything recorded so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Count returns how many requests used method.
func (s *Server) Count(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, r := range s.requests {
		if r.Method == method {
			n++
		}
	}
	return n
}

// Reset forgets recorded requests.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

func (s *Server) record(c *gin.Context) {
	rec := Request{Method: c.Request.Method, Path: c.Request.URL.Path}

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if form, err := c.MultipartForm(); err == nil {
			rec.Form = make(map[string]string, len(form.Value))
			for k, v := range form.Value {
				if len(v) > 0 {
					rec.Form[k] = v[0]
				}
			}
			if files := form.File["img"]; len(files) > 0 {
				rec.File = files[0].Filename
			}
		}
	} else if c.Request.Body != nil {
		body, _ := io.ReadAll(c.Request.Body)
		rec.Body = body
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
	}

	s.mu.Lock()
	s.requests = append(s.requests, rec)
	s.mu.Unlock()
	c.Next()
}

func (s *Server) injectFailure(c *gin.Context) {
	s.mu.Lock()
	for i, f := range s.failures {
		if f.method == "" || f.method == c.Request.Method {
			s.failures = append(s.failures[:i], s.failures[i+1:]...)
			s.mu.Unlock()
			c.AbortWithStatusJSON(f.status, gin.H{"message": f.message})
			return
		}
	}
	s.mu.Unlock()
	c.Next()
}

func (s *Server) list(c *gin.Context) {
	s.mu.Lock()
	out := make([]wireItem, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, toWire(it))
	}
	s.mu.Unlock()
	writeJSON(c, http.StatusOK, out)
}

func (s *Server) get(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(c.Param("id"))
	if i < 0 {
		writeJSON(c, http.StatusNotFound, gin.H{"message": "Menu item not found"})
		return
	}
	writeJSON(c, http.StatusOK, toWire(s.items[i]))
}

func (s *Server) create(c *gin.Context) {
	if c.PostForm("secret") != s.secret {
		writeJSON(c, http.StatusForbidden, gin.H{"message": "Invalid secret key"})
		return
	}

	title := strings.TrimSpace(c.PostForm("title"))
	price, err := decimal.NewFromString(c.PostForm("price"))
	if title == "" || err != nil {
		writeJSON(c, http.StatusBadRequest, gin.H{"message": "Title and price are required"})
		return
	}

	img := c.PostForm("img")
	if fh, err := c.FormFile("img"); err == nil {
		img = "/uploads/" + fh.Filename
	}

	added := s.Add(menu.Item{
		Title:       title,
		ImageURL:    img,
		Price:       price,
		Description: c.PostForm("description"),
	})
	writeJSON(c, http.StatusCreated, toWire(added[0]))
}

func (s *Server) update(c *gin.Context) {
	var body struct {
		Price  *decimal.Decimal `json:"price"`
		Secret string           `json:"secret"`
	}
	raw, _ := io.ReadAll(c.Request.Body)
	if err := json.Unmarshal(raw, &body); err != nil {
		writeJSON(c, http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	if body.Secret != s.secret {
		writeJSON(c, http.StatusForbidden, gin.H{"message": "Invalid secret key"})
		return
	}
	if body.Price == nil {
		writeJSON(c, http.StatusBadRequest, gin.H{"message": "Price is required"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(c.Param("id"))
	if i < 0 {
		writeJSON(c, http.StatusNotFound, gin.H{"message": "Menu item not found"})
		return
	}
	s.items[i].Price = *body.Price
	writeJSON(c, http.StatusOK, toWire(s.items[i]))
}

func (s *Server) delete(c *gin.Context) {
	var body struct {
		Secret string `json:"secret"`
	}
	raw, _ := io.ReadAll(c.Request.Body)
	_ = json.Unmarshal(raw, &body)
	if body.Secret != s.secret {
		writeJSON(c, http.StatusForbidden, gin.H{"message": "Invalid secret key"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(c.Param("id"))
	if i < 0 {
		writeJSON(c, http.StatusNotFound, gin.H{"message": "Menu item not found"})
		return
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	writeJSON(c, http.StatusOK, gin.H{"message": "Menu item deleted"})
}

func (s *Server) indexOf(id string) int {
	for i, it := range s.items {
		if string(it.ID) == id {
			return i
		}
	}
	return -1
}

// wireItem mirrors the backend's encoding: numeric ids and prices are bare
// JSON numbers.
type wireItem struct {
	ID          jsoniter.RawMessage `json:"id"`
	Title       string              `json:"title"`
	Img         string              `json:"img"`
	Price       jsoniter.RawMessage `json:"price"`
	Description string              `json:"description"`
}

func toWire(it menu.Item) wireItem {
	id := jsoniter.RawMessage(strconv.Quote(string(it.ID)))
	if _, err := strconv.Atoi(string(it.ID)); err == nil {
		id = jsoniter.RawMessage(it.ID)
	}
	return wireItem{
		ID:          id,
		Title:       it.Title,
		Img:         it.ImageURL,
		Price:       jsoniter.RawMessage(it.Price.String()),
		Description: it.Description,
	}
}

func writeJSON(c *gin.Context, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Data(status, "application/json; charset=utf-8", b)
}
