// Package output renders menu data for the menu commands in text, JSON or
// table form.
package output

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	jsoniter "github.com/json-iterator/go"

	"github.com/zfogg/menuboard/internal/apperr"
	"github.com/zfogg/menuboard/internal/view"
	"github.com/zfogg/menuboard/pkg/menu"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Format represents the output format type
type Format string

const (
	FormatJSON  Format = "json"
	FormatTable Format = "table"
	FormatText  Format = "text"
)

// ParseFormat maps a flag or config value to a Format; unknown values are
// reported so the command can fail early.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatTable, FormatText:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("invalid output format %q (expected text, json or table)", s)
	}
}

// Printer writes results to Out and notices to Err.
type Printer struct {
	Format     Format
	Out        io.Writer
	Err        io.Writer
	TruncateAt int
	// Full disables description truncation in text output.
	Full bool
}

// New returns a Printer on color.Output and color.Error.
func New(format Format, truncateAt int) *Printer {
	if truncateAt <= 0 {
		truncateAt = view.DefaultTruncateAt
	}
	return &Printer{Format: format, Out: color.Output, Err: color.Error, TruncateAt: truncateAt}
}

// Items prints the menu in server order.
func (p *Printer) Items(items []menu.Item) error {
	if items == nil {
		items = []menu.Item{}
	}
	switch p.Format {
	case FormatJSON:
		return p.json(items)
	case FormatTable:
		return p.table(items)
	default:
		if len(items) == 0 {
			fmt.Fprintln(p.Out, "No menu items yet.")
			return nil
		}
		for i, it := range items {
			if i > 0 {
				fmt.Fprintln(p.Out)
			}
			p.text(it)
		}
		return nil
	}
}

// Item prints one menu item.
func (p *Printer) Item(it menu.Item) error {
	switch p.Format {
	case FormatJSON:
		return p.json(it)
	case FormatTable:
		return p.table([]menu.Item{it})
	default:
		p.text(it)
		return nil
	}
}

func (p *Printer) text(it menu.Item) {
	card := view.NewCard(it, p.TruncateAt)
	if p.Full {
		card.SetExpanded(true)
	}

	bold := color.New(color.Bold)
	faint := color.New(color.Faint)

	bold.Fprint(p.Out, card.Title())
	faint.Fprintf(p.Out, " #%s", card.ID())
	if label := card.PriceLabel(); label != "" {
		color.New(color.FgGreen).Fprintf(p.Out, "  %s", label)
	}
	fmt.Fprintln(p.Out)

	if card.ImageURL() != "" {
		faint.Fprintln(p.Out, card.ImageURL())
	}
	if d := card.Description(); d != "" {
		fmt.Fprintln(p.Out, d)
	}
}

func (p *Printer) table(items []menu.Item) error {
	w := tabwriter.NewWriter(p.Out, 0, 0, 2, ' ', 0)
	bold := color.New(color.Bold)

	bold.Fprint(w, "ID\tTITLE\tPRICE\tIMAGE")
	fmt.Fprintln(w)
	for _, it := range items {
		card := view.NewCard(it, p.TruncateAt)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", card.ID(), card.Title(), card.PriceLabel(), card.ImageURL())
	}
	return w.Flush()
}

func (p *Printer) json(v any) error {
	encoder := json.NewEncoder(p.Out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// Success prints a confirmation. JSON output gets an object so scripts can
// parse every line they read.
func (p *Printer) Success(msg string, args ...any) {
	text := fmt.Sprintf(msg, args...)
	if p.Format == FormatJSON {
		_ = p.json(map[string]any{"ok": true, "message": text})
		return
	}
	color.New(color.FgGreen).Fprintln(p.Out, text)
}

// Error prints err the way a person should read it.
func (p *Printer) Error(err error) {
	if err == nil {
		return
	}
	if p.Format == FormatJSON {
		e := apperr.Categorize(err)
		body := map[string]any{"ok": false, "kind": string(e.Kind), "message": e.Message}
		if e.Suggestion != "" {
			body["suggestion"] = e.Suggestion
		}
		encoder := json.NewEncoder(p.Err)
		encoder.SetIndent("", "  ")
		_ = encoder.Encode(body)
		return
	}
	color.New(color.FgRed).Fprint(p.Err, apperr.Format(err))
}

// Info prints an info message
func (p *Printer) Info(msg string, args ...any) {
	color.New(color.FgCyan).Fprintf(p.Err, msg+"\n", args...)
}
