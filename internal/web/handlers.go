package web

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/zfogg/menuboard/internal/apperr"
	"github.com/zfogg/menuboard/internal/authz"
	"github.com/zfogg/menuboard/internal/logger"
	"github.com/zfogg/menuboard/internal/middleware"
	"github.com/zfogg/menuboard/internal/owner"
	"github.com/zfogg/menuboard/internal/view"
	"github.com/zfogg/menuboard/pkg/menu"
)

// maxUpload bounds the multipart body held in memory for an added image.
const maxUpload = 8 << 20

type alertVM struct {
	Kind    string // success|error
	Message string
	Hint    string
}

type pageVM struct {
	Title     string
	IsOwner   bool
	HomeURL   string
	Alert     *alertVM
	Footer    string
	Threshold float64
	LiveURL   string
}

type cardVM struct {
	ID          string
	Title       string
	ImageURL    string
	PriceLabel  string
	Description string
	Truncated   bool
	Expanded    bool
	ToggleURL   string
	PreviewURL  string
	EditURL     string
	DeleteURL   string
}

type addFormVM struct {
	Action      string
	Title       string
	Price       string
	Description string
	ImageURL    string
}

type listVM struct {
	pageVM
	Loading      bool
	Failed       bool
	ErrorMessage string
	RetryURL     string
	Cards        []cardVM
	Preview      string
	CloseURL     string
	Add          addFormVM
}

type editVM struct {
	pageVM
	Action       string
	ItemID       string
	ItemTitle    string
	Price        string
	Loaded       bool
	ErrorMessage string
	RetryURL     string
}

// links builds URLs that keep owner mode alive across navigation.
type links struct {
	param string
	owner bool
}

func (s *Server) links(c *gin.Context) links {
	return links{param: s.cfg.OwnerParam, owner: middleware.IsOwner(c)}
}

func (l links) to(path string, q url.Values) string {
	if q == nil {
		q = url.Values{}
	}
	if l.owner {
		q.Set(l.param, "true")
	}
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

func (s *Server) page(c *gin.Context, title string) pageVM {
	p := pageVM{
		Title:     title,
		IsOwner:   middleware.IsOwner(c),
		HomeURL:   s.links(c).to("/", nil),
		Footer:    s.cfg.Footer,
		Threshold: s.cfg.VisibilityThreshold,
	}
	if s.hub != nil {
		p.LiveURL = "/live"
	}
	return p
}

// handleList is one mount of the list: exactly one fetch, then render.
// Query parameters replay in-page interaction without client state:
// expand (repeatable) opens descriptions, preview opens an image, notice
// shows the confirmation of a completed change.
func (s *Server) handleList(c *gin.Context) {
	lv := view.NewListView(s.client, view.Options{
		Owner:      middleware.IsOwner(c),
		TruncateAt: s.cfg.TruncateAt,
		Surface:    "web",
	})
	if err := lv.Load(c.Request.Context()); err != nil {
		logger.Log.Warn("Menu fetch failed",
			logger.WithRequestID(middleware.RequestID(c)),
			zap.Error(err))
	}

	var alert *alertVM
	if op := c.Query("notice"); op != "" {
		switch op {
		case menu.OpCreate, menu.OpUpdate, menu.OpDelete:
			alert = &alertVM{Kind: "success", Message: owner.SuccessMessage(op)}
		}
	}
	s.renderList(c, http.StatusOK, lv, alert, addFormVM{})
}

// renderList replays the expand and preview parameters onto lv and renders.
func (s *Server) renderList(c *gin.Context, status int, lv *view.ListView, alert *alertVM, add addFormVM) {
	expanded := map[string]bool{}
	for _, id := range c.QueryArray("expand") {
		if !expanded[id] && lv.Toggle(menu.ItemID(id)) {
			expanded[id] = true
		}
	}
	if id := c.Query("preview"); id != "" {
		if card := lv.Card(menu.ItemID(id)); card != nil {
			lv.OpenPreview(card.ImageURL())
		}
	}

	l := s.links(c)
	vm := listVM{
		pageVM:       s.page(c, "Menu"),
		Loading:      lv.Loading(),
		Failed:       lv.Failed(),
		ErrorMessage: lv.ErrorMessage(),
		RetryURL:     l.to("/", nil),
		Preview:      lv.Preview(),
		CloseURL:     l.to("/", expandQuery(expanded, "")),
		Add:          add,
	}
	vm.Alert = alert
	vm.Add.Action = l.to("/items", nil)

	for _, card := range lv.Cards() {
		id := string(card.ID())
		vm.Cards = append(vm.Cards, cardVM{
			ID:          id,
			Title:       card.Title(),
			ImageURL:    card.ImageURL(),
			PriceLabel:  card.PriceLabel(),
			Description: card.Description(),
			Truncated:   card.Truncated(),
			Expanded:    card.Expanded(),
			ToggleURL:   l.to("/", expandQuery(expanded, id)) + "#item-" + url.PathEscape(id),
			PreviewURL:  l.to("/", withPreview(expandQuery(expanded, ""), id)),
			EditURL:     l.to("/edit/"+url.PathEscape(id), nil),
			DeleteURL:   l.to("/items/"+url.PathEscape(id)+"/delete", nil),
		})
	}
	s.render(c, status, "list.html", vm)
}

// expandQuery returns the expand set with toggle flipped.
func expandQuery(expanded map[string]bool, toggle string) url.Values {
	q := url.Values{}
	for id := range expanded {
		if id != toggle {
			q.Add("expand", id)
		}
	}
	if toggle != "" && !expanded[toggle] {
		q.Add("expand", toggle)
	}
	return q
}

func withPreview(q url.Values, id string) url.Values {
	q.Set("preview", id)
	return q
}

func (s *Server) handleAdd(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUpload)
	// Fields read back empty once the body overflows, so the size has to be
	// checked before any of them.
	if _, err := c.MultipartForm(); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || c.Request.ContentLength > maxUpload {
			s.listWithFailure(c, apperr.Validation("img", owner.MsgImageTooLarge), owner.AddForm{})
			return
		}
	}
	form := owner.AddForm{
		Title:       c.PostForm("title"),
		Price:       c.PostForm("price"),
		Description: c.PostForm("description"),
		ImageURL:    strings.TrimSpace(c.PostForm("img_url")),
		Secret:      c.PostForm("secret"),
	}
	if fh, err := c.FormFile("img"); err == nil && fh.Size > 0 {
		f, err := fh.Open()
		if err != nil {
			s.listWithFailure(c, apperr.Validation("img", "Could not read the uploaded image."), form)
			return
		}
		defer f.Close()
		form.Image = f
		form.ImageName = fh.Filename
	}

	if err := s.flow.Add(c.Request.Context(), form, authz.Static(form.Secret)); err != nil {
		s.listWithFailure(c, err, form)
		return
	}
	s.redirectToList(c, menu.OpCreate)
}

func (s *Server) handleDelete(c *gin.Context) {
	id := menu.ItemID(c.Param("id"))
	if err := s.flow.Delete(c.Request.Context(), id, authz.Static(c.PostForm("secret"))); err != nil {
		s.listWithFailure(c, err, owner.AddForm{})
		return
	}
	s.redirectToList(c, menu.OpDelete)
}

// listWithFailure re-mounts the list with a blocking alert. The add form
// keeps what was typed, except the secret.
func (s *Server) listWithFailure(c *gin.Context, err error, form owner.AddForm) {
	e := apperr.Categorize(err)
	logger.Log.Warn("Menu change failed",
		logger.WithRequestID(middleware.RequestID(c)),
		zap.String("kind", string(e.Kind)),
		zap.Error(err))

	lv := view.NewListView(s.client, view.Options{
		Owner:      middleware.IsOwner(c),
		TruncateAt: s.cfg.TruncateAt,
		Surface:    "web",
	})
	_ = lv.Load(c.Request.Context())

	s.renderList(c, statusFor(e), lv, &alertVM{Kind: "error", Message: e.Message, Hint: e.Suggestion}, addFormVM{
		Title:       form.Title,
		Price:       form.Price,
		Description: form.Description,
		ImageURL:    form.ImageURL,
	})
}

func (s *Server) redirectToList(c *gin.Context, op string) {
	c.Redirect(http.StatusSeeOther, s.links(c).to("/", url.Values{"notice": {op}}))
}

func (s *Server) handleEdit(c *gin.Context) {
	id := menu.ItemID(c.Param("id"))
	form, err := s.flow.LoadEdit(c.Request.Context(), id)
	vm := s.editPage(c, form)
	if err != nil {
		e := apperr.Categorize(err)
		vm.Loaded = false
		vm.ErrorMessage = e.Message
		vm.RetryURL = s.links(c).to("/edit/"+url.PathEscape(string(id)), nil)
		s.render(c, statusFor(e), "edit.html", vm)
		return
	}
	s.render(c, http.StatusOK, "edit.html", vm)
}

// handleEditSubmit validates locally first; an invalid price re-renders the
// form and never reaches the upstream.
func (s *Server) handleEditSubmit(c *gin.Context) {
	form := owner.EditForm{
		ItemID: menu.ItemID(c.Param("id")),
		Title:  c.PostForm("title"),
		Price:  c.PostForm("price"),
		Secret: c.PostForm("secret"),
	}
	if err := s.flow.SubmitEdit(c.Request.Context(), form, authz.Static(form.Secret)); err != nil {
		e := apperr.Categorize(err)
		logger.Log.Info("Edit rejected",
			logger.WithItemID(string(form.ItemID)),
			zap.String("kind", string(e.Kind)),
			zap.Error(err))
		vm := s.editPage(c, form)
		vm.Alert = &alertVM{Kind: "error", Message: e.Message, Hint: e.Suggestion}
		s.render(c, statusFor(e), "edit.html", vm)
		return
	}
	s.redirectToList(c, menu.OpUpdate)
}

func (s *Server) editPage(c *gin.Context, form owner.EditForm) editVM {
	return editVM{
		pageVM:    s.page(c, "Edit menu item"),
		Action:    s.links(c).to("/edit/"+url.PathEscape(string(form.ItemID)), nil),
		ItemID:    string(form.ItemID),
		ItemTitle: form.Title,
		Price:     form.Price,
		Loaded:    true,
	}
}

// statusFor maps a classified failure to the page status.
func statusFor(e *apperr.Error) int {
	switch e.Kind {
	case apperr.KindValidation, apperr.KindDeclined:
		return http.StatusUnprocessableEntity
	case apperr.KindNotFound:
		return http.StatusNotFound
	}
	if e.StatusCode >= 400 && e.StatusCode < 500 {
		return e.StatusCode
	}
	return http.StatusBadGateway
}
