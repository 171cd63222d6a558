// Package tui is the terminal menu browser. The bubbletea update loop owns
// the view.ListView; fetches and mutations run as commands whose results
// come back as messages and are applied in Update.
package tui

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zfogg/menuboard/internal/apperr"
	"github.com/zfogg/menuboard/internal/authz"
	"github.com/zfogg/menuboard/internal/owner"
	"github.com/zfogg/menuboard/internal/termlog"
	"github.com/zfogg/menuboard/internal/view"
	"github.com/zfogg/menuboard/pkg/menu"
)

// Client is everything the browser asks of the menu API.
type Client interface {
	view.Lister
	owner.Client
}

type Options struct {
	// Owner enables edit and delete. Fixed for the whole session.
	Owner               bool
	TruncateAt          int
	VisibilityThreshold float64
}

type mode int

const (
	modeBrowse mode = iota
	modePreview
	modeEditPrice
	modeSecret
	modeBusy
	modeAlert
)

type fetchedMsg struct {
	items []menu.Item
	err   error
}

type editLoadedMsg struct {
	form owner.EditForm
	err  error
}

type mutatedMsg struct {
	op  string
	err error
}

// Model is the browser state.
type Model struct {
	ctx    context.Context
	list   *view.ListView
	anim   *view.Animator
	flow   *owner.Flow
	styles Styles

	spinner     spinner.Model
	priceInput  textinput.Model
	secretInput textinput.Model

	width  int
	height int
	cursor int
	offset int

	mode       mode
	afterAlert mode
	form       owner.EditForm
	formErr    string
	pendingOp  string
	pendingID  menu.ItemID
	alert      string
	alertOK    bool
	status     string
	quitting   bool
}

// New mounts the browser. Nothing is fetched until Init runs.
func New(ctx context.Context, c Client, opts Options) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	price := textinput.New()
	price.Prompt = "$ "
	price.Placeholder = "0.00"
	price.CharLimit = 16

	secret := textinput.New()
	secret.Prompt = "Secret key: "
	secret.EchoMode = textinput.EchoPassword
	secret.EchoCharacter = '•'

	return &Model{
		ctx: ctx,
		list: view.NewListView(c, view.Options{
			Owner:      opts.Owner,
			TruncateAt: opts.TruncateAt,
			Surface:    "tui",
		}),
		anim:        view.NewAnimator(opts.VisibilityThreshold),
		flow:        owner.NewFlow(c, nil),
		styles:      DefaultStyles(),
		spinner:     sp,
		priceInput:  price,
		secretInput: secret,
		width:       80,
		height:      24,
	}
}

// Run starts a full-screen program on the terminal.
func Run(ctx context.Context, c Client, opts Options) error {
	p := tea.NewProgram(New(ctx, c, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	return m.refresh()
}

// refresh enters Loading and issues exactly one fetch.
func (m *Model) refresh() tea.Cmd {
	m.list.BeginLoad()
	fetch := m.list.Fetch()
	ctx := m.ctx
	termlog.Debug("fetching menu", "attempt", m.list.Fetches())
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		items, err := fetch(ctx)
		return fetchedMsg{items: items, err: err}
	})
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case spinner.TickMsg:
		if !m.list.Loading() && m.mode != modeBusy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case fetchedMsg:
		m.list.Apply(msg.items, msg.err)
		if msg.err != nil {
			termlog.Warn("menu fetch failed", "err", msg.err)
		}
		m.cursor = min(m.cursor, max(len(m.list.Cards())-1, 0))
		m.layout()
		return m, nil

	case editLoadedMsg:
		if msg.err != nil {
			m.showAlert(apperr.Message(msg.err), false, modeBrowse)
			return m, nil
		}
		m.form = msg.form
		m.formErr = ""
		m.priceInput.SetValue(msg.form.Price)
		m.priceInput.CursorEnd()
		m.mode = modeEditPrice
		m.priceInput.Focus()
		return m, nil

	case mutatedMsg:
		if msg.err != nil {
			termlog.Warn("menu change failed", "op", msg.op, "err", msg.err)
			next := modeBrowse
			if msg.op == menu.OpUpdate {
				next = modeEditPrice
			}
			m.showAlert(apperr.Message(msg.err), false, next)
			return m, nil
		}
		termlog.Info("menu changed", "op", msg.op)
		m.showAlert(owner.SuccessMessage(msg.op), true, modeBrowse)
		return m, m.refresh()

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.quit()
		}
		switch m.mode {
		case modeAlert:
			return m.updateAlert(msg)
		case modePreview:
			return m.updatePreview(msg)
		case modeEditPrice:
			return m.updateEditPrice(msg)
		case modeSecret:
			return m.updateSecret(msg)
		case modeBusy:
			return m, nil
		default:
			return m.updateBrowse(msg)
		}
	}
	return m, nil
}

func (m *Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.anim.Close()
	return m, tea.Quit
}

func (m *Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m.quit()
	case "up", "k":
		m.move(-1)
	case "down", "j":
		m.move(1)
	case "enter", " ":
		if c := m.current(); c != nil {
			c.Toggle()
			m.layout()
		}
	case "p":
		if c := m.current(); c != nil {
			m.list.OpenPreview(c.ImageURL())
			if m.list.Preview() != "" {
				m.mode = modePreview
			}
		}
	case "r":
		if !m.list.Loading() {
			return m, m.refresh()
		}
	case "e":
		if c := m.current(); c != nil && m.list.IsOwner() {
			id := c.ID()
			m.mode = modeBusy
			m.status = "Loading item..."
			flow, ctx := m.flow, m.ctx
			return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
				form, err := flow.LoadEdit(ctx, id)
				return editLoadedMsg{form: form, err: err}
			})
		}
	case "d":
		if c := m.current(); c != nil && m.list.IsOwner() {
			m.pendingOp = menu.OpDelete
			m.pendingID = c.ID()
			return m, m.askSecret()
		}
	}
	return m, nil
}

func (m *Model) updateAlert(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc", " ", "q":
		m.alert = ""
		m.mode = m.afterAlert
		if m.mode == modeEditPrice {
			m.priceInput.Focus()
		}
	}
	return m, nil
}

func (m *Model) updatePreview(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc", " ", "p", "q":
		m.list.ClosePreview()
		m.mode = modeBrowse
	}
	return m, nil
}

// updateEditPrice validates locally before the secret is ever asked for.
func (m *Model) updateEditPrice(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.priceInput.Blur()
		m.mode = modeBrowse
		return m, nil
	case "enter":
		form := m.form
		form.Price = m.priceInput.Value()
		if _, err := form.Validate(); err != nil {
			m.formErr = apperr.Message(err)
			return m, nil
		}
		m.form = form
		m.formErr = ""
		m.priceInput.Blur()
		m.pendingOp = menu.OpUpdate
		m.pendingID = form.ItemID
		return m, m.askSecret()
	}

	var cmd tea.Cmd
	m.priceInput, cmd = m.priceInput.Update(msg)
	m.formErr = ""
	return m, cmd
}

func (m *Model) askSecret() tea.Cmd {
	m.secretInput.SetValue("")
	m.mode = modeSecret
	m.secretInput.Focus()
	return nil
}

func (m *Model) updateSecret(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, m.submit(authz.SourceFunc(func(context.Context) (string, error) {
			return "", io.EOF
		}))
	case "enter":
		return m, m.submit(authz.Static(m.secretInput.Value()))
	}

	var cmd tea.Cmd
	m.secretInput, cmd = m.secretInput.Update(msg)
	return m, cmd
}

// submit runs the pending mutation through the secret challenge.
func (m *Model) submit(src authz.Source) tea.Cmd {
	m.secretInput.SetValue("")
	m.secretInput.Blur()
	m.mode = modeBusy
	m.status = "Saving..."

	op, id, form := m.pendingOp, m.pendingID, m.form
	flow, ctx := m.flow, m.ctx
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		var err error
		switch op {
		case menu.OpUpdate:
			err = flow.SubmitEdit(ctx, form, src)
		case menu.OpDelete:
			err = flow.Delete(ctx, id, src)
		}
		return mutatedMsg{op: op, err: err}
	})
}

func (m *Model) showAlert(text string, ok bool, next mode) {
	m.alert = text
	m.alertOK = ok
	m.afterAlert = next
	m.mode = modeAlert
	m.status = ""
}

func (m *Model) current() *view.Card {
	cards := m.list.Cards()
	if m.cursor < 0 || m.cursor >= len(cards) {
		return nil
	}
	return cards[m.cursor]
}

func (m *Model) move(delta int) {
	n := len(m.list.Cards())
	if n == 0 {
		return
	}
	m.cursor = min(max(m.cursor+delta, 0), n-1)
	m.layout()
}

func (m *Model) bodyHeight() int {
	// header (2 lines) and help (2 lines)
	return max(m.height-4, 3)
}

func (m *Model) cardWidth() int {
	return max(m.width-2, 20)
}

// layout scrolls the selected card into view and reports every card's
// on-screen share to the animator.
func (m *Model) layout() {
	cards := m.list.Cards()
	if len(cards) == 0 {
		m.offset = 0
		return
	}

	tops := make([]int, len(cards))
	heights := make([]int, len(cards))
	line := 0
	for i, c := range cards {
		tops[i] = line
		heights[i] = lipgloss.Height(m.renderCard(c, i == m.cursor))
		line += heights[i]
	}

	rows := m.bodyHeight()
	sel := min(m.cursor, len(cards)-1)
	if tops[sel] < m.offset {
		m.offset = tops[sel]
	}
	if bottom := tops[sel] + heights[sel]; bottom > m.offset+rows {
		// Tall cards keep their top on screen.
		m.offset = min(bottom-rows, tops[sel])
	}
	m.offset = max(min(m.offset, line-rows), 0)

	for i, c := range cards {
		key := string(c.ID())
		m.anim.Observe(key)
		m.anim.Intersect(key, view.Ratio(tops[i], heights[i], m.offset, rows))
	}
}

func (m *Model) renderCard(c *view.Card, selected bool) string {
	s := m.styles

	title := s.Title.Render(c.Title())
	if label := c.PriceLabel(); label != "" {
		title += "  " + s.Price.Render(label)
	}
	lines := []string{title}
	if d := c.Description(); d != "" {
		lines = append(lines, s.Description.Render(d))
	}

	var hints []string
	if c.Truncated() {
		if c.Expanded() {
			hints = append(hints, "enter: show less")
		} else {
			hints = append(hints, "enter: read more")
		}
	}
	if c.ImageURL() != "" {
		hints = append(hints, "p: view image")
	}
	if len(hints) > 0 {
		lines = append(lines, s.Muted.Render(strings.Join(hints, " • ")))
	}

	style := s.Card
	switch {
	case selected:
		style = s.Selected
	case !m.anim.Visible(string(c.ID())):
		style = s.Hidden
	}
	return style.Width(m.cardWidth()).Render(strings.Join(lines, "\n"))
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	s := m.styles

	header := s.Header.Render("Menu")
	if m.list.IsOwner() {
		header += " " + s.Badge.Render("Owner")
	}

	var body string
	switch {
	case m.list.Loading():
		body = m.spinner.View() + " Loading menu..."
	case m.list.Failed():
		body = s.Error.Render(m.list.ErrorMessage()) + "\n" + s.Muted.Render("Press r to retry.")
	case len(m.list.Cards()) == 0:
		body = s.Muted.Render("No menu items yet.")
	default:
		body = m.cardsView()
	}

	if modal := m.modalView(); modal != "" {
		body = lipgloss.Place(m.width, m.bodyHeight(), lipgloss.Center, lipgloss.Center, modal)
	}

	return header + "\n" + body + "\n" + s.Help.Render(m.helpView())
}

func (m *Model) cardsView() string {
	cards := m.list.Cards()
	blocks := make([]string, len(cards))
	for i, c := range cards {
		blocks[i] = m.renderCard(c, i == m.cursor)
	}
	lines := strings.Split(strings.Join(blocks, "\n"), "\n")
	start := min(m.offset, len(lines))
	end := min(start+m.bodyHeight(), len(lines))
	return strings.Join(lines[start:end], "\n")
}

func (m *Model) modalView() string {
	s := m.styles
	switch m.mode {
	case modeAlert:
		text := s.Error.Render(m.alert)
		if m.alertOK {
			text = s.Success.Render(m.alert)
		}
		return s.Modal.Render(text + "\n\n" + s.Muted.Render("enter: OK"))
	case modePreview:
		return s.Modal.Render(s.Title.Render("Image") + "\n\n" + m.list.Preview() + "\n\n" + s.Muted.Render("esc: close"))
	case modeEditPrice:
		out := s.Title.Render("Edit "+m.form.Title) + "\n\n" + m.priceInput.View()
		if m.formErr != "" {
			out += "\n" + s.Error.Render(m.formErr)
		}
		return s.Modal.Render(out + "\n\n" + s.Muted.Render("enter: continue • esc: cancel"))
	case modeSecret:
		label := "Delete this item?"
		if m.pendingOp == menu.OpUpdate {
			label = "Save new price " + m.form.Price + "?"
		}
		return s.Modal.Render(s.Title.Render(label) + "\n\n" + m.secretInput.View() + "\n\n" + s.Muted.Render("enter: confirm • esc: cancel"))
	case modeBusy:
		return s.Modal.Render(m.spinner.View() + " " + m.status)
	}
	return ""
}

func (m *Model) helpView() string {
	help := "↑/↓ move • enter expand • p image • r refresh"
	if m.list.IsOwner() {
		help += " • e edit • d delete"
	}
	return help + " • q quit"
}
