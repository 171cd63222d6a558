package web

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/zfogg/menuboard/internal/apperr"
	"github.com/zfogg/menuboard/internal/fakeapi"
	"github.com/zfogg/menuboard/internal/live"
	"github.com/zfogg/menuboard/internal/owner"
	"github.com/zfogg/menuboard/pkg/menu"
)

const testSecret = "open-sesame"

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []*live.Message
}

func (p *recordingPublisher) Publish(_ context.Context, msg *live.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *recordingPublisher) Messages() []*live.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*live.Message(nil), p.msgs...)
}

// WebTestSuite drives the web surface against an in-memory menu API.
type WebTestSuite struct {
	suite.Suite
	api      *fakeapi.Server
	upstream *httptest.Server
	events   *recordingPublisher
	srv      *Server
}

func (s *WebTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
}

func (s *WebTestSuite) SetupTest() {
	s.api = fakeapi.New(testSecret)
	var base string
	s.upstream, base = s.api.Start()

	s.api.Add(
		menu.Item{Title: "Kitfo", ImageURL: "http://x/1.jpg", Price: decimal.RequireFromString("25.99"), Description: strings.Repeat("A", 400)},
		menu.Item{Title: "Doro Wat", ImageURL: "http://x/2.jpg", Price: decimal.RequireFromString("18.5"), Description: "Chicken stew."},
		menu.Item{Title: "Injera", Price: decimal.Zero, Description: "Bread."},
	)

	s.events = &recordingPublisher{}
	srv, err := NewServer(Config{
		Addr:   ":0",
		Footer: "Contact us\nPhone: 555",
	}, menu.New(menu.Options{BaseURL: base}), nil, s.events)
	require.NoError(s.T(), err)
	s.srv = srv
}

func (s *WebTestSuite) TearDownTest() {
	s.upstream.Close()
}

func (s *WebTestSuite) get(target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	s.srv.Handler().ServeHTTP(w, req)
	return w
}

func (s *WebTestSuite) postForm(target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	s.srv.Handler().ServeHTTP(w, req)
	return w
}

func (s *WebTestSuite) postMultipart(target string, fields map[string]string, fileName string, file []byte) *httptest.ResponseRecorder {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(s.T(), mw.WriteField(k, v))
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("img", fileName)
		require.NoError(s.T(), err)
		_, err = fw.Write(file)
		require.NoError(s.T(), err)
	}
	require.NoError(s.T(), mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.srv.Handler().ServeHTTP(w, req)
	return w
}

func (s *WebTestSuite) TestList_RendersCardsInServerOrder() {
	w := s.get("/")
	s.Equal(http.StatusOK, w.Code)

	body := w.Body.String()
	s.Equal(3, strings.Count(body, `data-testid="card"`))

	kitfo := strings.Index(body, "Kitfo")
	doro := strings.Index(body, "Doro Wat")
	injera := strings.Index(body, "Injera")
	s.True(kitfo >= 0 && kitfo < doro && doro < injera, "cards out of order")
	s.Equal(1, s.api.Count(http.MethodGet))
}

func (s *WebTestSuite) TestList_TruncatesLongDescription() {
	body := s.get("/").Body.String()

	s.Contains(body, strings.Repeat("A", 290)+"...")
	s.NotContains(body, strings.Repeat("A", 291))
	s.Contains(body, "$25.99")
	s.Equal(1, strings.Count(body, `data-testid="toggle"`))
	s.Contains(body, "Read more")
}

func (s *WebTestSuite) TestList_ExpandShowsFullText() {
	body := s.get("/?expand=1").Body.String()

	s.Contains(body, strings.Repeat("A", 400))
	s.NotContains(body, strings.Repeat("A", 290)+"...")
	s.Contains(body, "Show less")
}

func (s *WebTestSuite) TestList_HidesNonPositivePrice() {
	body := s.get("/").Body.String()
	s.Contains(body, "$18.50")
	s.NotContains(body, "$0.00")
}

func (s *WebTestSuite) TestList_FetchFailureShowsRetry() {
	s.api.FailNext(http.MethodGet, http.StatusInternalServerError, "boom")

	w := s.get("/")
	body := w.Body.String()
	s.Contains(body, apperr.MsgFetchFailed)
	s.Contains(body, `data-testid="retry"`)
	s.NotContains(body, `data-testid="card"`)
	s.Equal(1, s.api.Count(http.MethodGet))

	s.api.Reset()
	body = s.get("/").Body.String()
	s.Equal(3, strings.Count(body, `data-testid="card"`))
	s.Equal(1, s.api.Count(http.MethodGet))
}

func (s *WebTestSuite) TestOwnerControls() {
	plain := s.get("/").Body.String()
	s.NotContains(plain, `data-testid="owner-controls"`)
	s.NotContains(plain, `data-testid="add-form"`)
	s.NotContains(plain, `data-testid="edit-link"`)

	for _, target := range []string{"/?owner=1", "/?owner=TRUE", "/?owner=false"} {
		s.NotContains(s.get(target).Body.String(), `data-testid="owner-controls"`, target)
	}

	body := s.get("/?owner=true").Body.String()
	s.Equal(3, strings.Count(body, `data-testid="edit-link"`))
	s.Equal(3, strings.Count(body, `data-testid="delete-button"`))
	s.Contains(body, `data-testid="add-form"`)
	s.Contains(body, `href="/edit/1?owner=true"`)
	s.Contains(body, `action="/items?owner=true"`)
}

func (s *WebTestSuite) TestPreview() {
	body := s.get("/?preview=2").Body.String()
	s.Contains(body, `data-testid="preview"`)
	s.Contains(body, `<img src="http://x/2.jpg" alt="Preview">`)

	s.NotContains(s.get("/?preview=404").Body.String(), `data-testid="preview"`)
}

func (s *WebTestSuite) TestFooter() {
	body := s.get("/").Body.String()
	s.Contains(body, "<p>Contact us</p>")
	s.Contains(body, "<p>Phone: 555</p>")
}

func (s *WebTestSuite) TestEdit_PrefillsPrice() {
	w := s.get("/edit/1?owner=true")
	s.Equal(http.StatusOK, w.Code)

	body := w.Body.String()
	s.Contains(body, `value="25.99"`)
	s.Contains(body, "Kitfo")
	s.Contains(body, `action="/edit/1?owner=true"`)
}

func (s *WebTestSuite) TestEdit_MissingItem() {
	w := s.get("/edit/99")
	s.Equal(http.StatusNotFound, w.Code)
	s.Contains(w.Body.String(), apperr.MsgItemFailed)
	s.NotContains(w.Body.String(), `data-testid="edit-form"`)
}

func (s *WebTestSuite) TestEditSubmit_InvalidPriceMakesNoRequest() {
	for _, price := range []string{"abc", "0", "-4", "", "1e99999999", "1e3"} {
		s.api.Reset()
		w := s.postForm("/edit/1?owner=true", url.Values{"title": {"Kitfo"}, "price": {price}, "secret": {testSecret}})

		s.Equal(http.StatusUnprocessableEntity, w.Code, price)
		s.Contains(w.Body.String(), owner.MsgInvalidPrice, price)
		s.Zero(s.api.Count(http.MethodPut), price)
	}
	s.Equal("25.99", s.api.Items()[0].Price.String())
}

func (s *WebTestSuite) TestEditSubmit_EmptySecretMakesNoRequest() {
	w := s.postForm("/edit/1?owner=true", url.Values{"title": {"Kitfo"}, "price": {"30"}, "secret": {""}})

	s.Equal(http.StatusUnprocessableEntity, w.Code)
	s.Contains(w.Body.String(), apperr.MsgSecretNeeded)
	s.Zero(s.api.Count(http.MethodPut))
	s.Contains(w.Body.String(), `value="30"`)
}

func (s *WebTestSuite) TestEditSubmit_Success() {
	w := s.postForm("/edit/1?owner=true", url.Values{"title": {"Kitfo"}, "price": {"27.50"}, "secret": {testSecret}})

	s.Equal(http.StatusSeeOther, w.Code)
	s.Equal("/?notice=update&owner=true", w.Header().Get("Location"))
	s.True(decimal.RequireFromString("27.5").Equal(s.api.Items()[0].Price))

	msgs := s.events.Messages()
	s.Require().Len(msgs, 1)
	s.Equal(live.MessageTypeMenuChanged, msgs[0].Type)
	s.Equal(live.MenuChangedPayload{Op: menu.OpUpdate, ItemID: "1"}, msgs[0].Payload)

	s.Contains(s.get("/?notice=update&owner=true").Body.String(), apperr.MsgUpdated)
}

func (s *WebTestSuite) TestEditSubmit_WrongSecretShowsServerMessage() {
	w := s.postForm("/edit/1?owner=true", url.Values{"title": {"Kitfo"}, "price": {"27"}, "secret": {"nope"}})

	s.Equal(http.StatusForbidden, w.Code)
	s.Contains(w.Body.String(), "Invalid secret key")
	s.Contains(w.Body.String(), `data-testid="alert"`)
	s.Empty(s.events.Messages())
}

func (s *WebTestSuite) TestDelete() {
	w := s.postForm("/items/2/delete?owner=true", url.Values{"secret": {testSecret}})

	s.Equal(http.StatusSeeOther, w.Code)
	s.Equal("/?notice=delete&owner=true", w.Header().Get("Location"))
	s.Len(s.api.Items(), 2)
	s.Require().Len(s.events.Messages(), 1)
}

func (s *WebTestSuite) TestDelete_Failure() {
	w := s.postForm("/items/2/delete?owner=true", url.Values{"secret": {"nope"}})

	s.Equal(http.StatusForbidden, w.Code)
	body := w.Body.String()
	s.Contains(body, "Invalid secret key")
	s.Contains(body, `data-testid="alert"`)
	s.Equal(3, strings.Count(body, `data-testid="card"`))
	s.Len(s.api.Items(), 3)
}

func (s *WebTestSuite) TestDelete_NoSecret() {
	w := s.postForm("/items/2/delete?owner=true", url.Values{})

	s.Equal(http.StatusUnprocessableEntity, w.Code)
	s.Contains(w.Body.String(), apperr.MsgSecretNeeded)
	s.Zero(s.api.Count(http.MethodDelete))
}

func (s *WebTestSuite) TestAdd_WithUpload() {
	w := s.postMultipart("/items?owner=true", map[string]string{
		"title":       "Tibs",
		"price":       "21",
		"description": "Sauteed beef.",
		"secret":      testSecret,
	}, "tibs.png", []byte("\x89PNG"))

	s.Equal(http.StatusSeeOther, w.Code)
	s.Equal("/?notice=create&owner=true", w.Header().Get("Location"))

	items := s.api.Items()
	s.Require().Len(items, 4)
	s.Equal("Tibs", items[3].Title)
	s.Equal("/uploads/tibs.png", items[3].ImageURL)
}

func (s *WebTestSuite) TestAdd_ValidationKeepsInput() {
	w := s.postMultipart("/items?owner=true", map[string]string{
		"title":       "",
		"price":       "21",
		"description": "Sauteed beef.",
		"secret":      testSecret,
	}, "", nil)

	s.Equal(http.StatusUnprocessableEntity, w.Code)
	body := w.Body.String()
	s.Contains(body, owner.MsgTitleMissing)
	s.Contains(body, `value="21"`)
	s.Contains(body, "Sauteed beef.")
	s.Zero(s.api.Count(http.MethodPost))
}

func (s *WebTestSuite) TestAdd_OversizedImage() {
	w := s.postMultipart("/items?owner=true", map[string]string{
		"title":  "Shiro",
		"price":  "9",
		"secret": testSecret,
	}, "shiro.png", bytes.Repeat([]byte{0xff}, 9<<20))

	s.Equal(http.StatusUnprocessableEntity, w.Code)
	body := w.Body.String()
	s.Contains(body, owner.MsgImageTooLarge)
	s.NotContains(body, owner.MsgTitleMissing)
	s.Zero(s.api.Count(http.MethodPost))
}

func (s *WebTestSuite) TestHealthAndStatic() {
	w := s.get("/health")
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"status":"ok"`)

	w = s.get("/static/app.js")
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "IntersectionObserver")
}

func TestWebTestSuite(t *testing.T) {
	suite.Run(t, new(WebTestSuite))
}

func TestNewServer_RequiresAddrAndClient(t *testing.T) {
	_, err := NewServer(Config{}, menu.New(menu.Options{}), nil, nil)
	assert.Error(t, err)

	_, err = NewServer(Config{Addr: ":0"}, nil, nil, nil)
	assert.Error(t, err)
}

func TestExpandQuery(t *testing.T) {
	q := expandQuery(map[string]bool{"1": true}, "2")
	assert.ElementsMatch(t, []string{"1", "2"}, q["expand"])

	q = expandQuery(map[string]bool{"1": true, "2": true}, "2")
	assert.Equal(t, []string{"1"}, q["expand"])

	assert.Empty(t, expandQuery(nil, ""))
}

func TestLinks(t *testing.T) {
	assert.Equal(t, "/", links{param: "owner"}.to("/", nil))
	assert.Equal(t, "/?owner=true", links{param: "owner", owner: true}.to("/", nil))
	assert.Equal(t, "/?admin=true&notice=create", links{param: "admin", owner: true}.to("/", url.Values{"notice": {"create"}}))
}
