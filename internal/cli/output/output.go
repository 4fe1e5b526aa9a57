// Package output renders search results for the command line.
//
// Results are printed as a table on a terminal and as JSON otherwise, so
// the same command works interactively and in a pipeline.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/term"

	"github.com/leapstack-labs/leishu/internal/highlight"
	"github.com/leapstack-labs/leishu/internal/search"
	"github.com/leapstack-labs/leishu/pkg/core"
)

// Mode selects the output format.
type Mode string

// Output modes.
const (
	ModeAuto  Mode = "auto"
	ModeTable Mode = "table"
	ModeJSON  Mode = "json"
)

// Modes lists the accepted mode names.
var Modes = []string{string(ModeAuto), string(ModeTable), string(ModeJSON)}

// ParseMode parses a mode name. The empty string selects ModeAuto.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeAuto, nil
	case ModeAuto, ModeTable, ModeJSON:
		return m, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want one of %s)", s, strings.Join(Modes, ", "))
	}
}

// Plain-text markers used in place of highlight spans off a terminal.
const (
	plainOpen  = "【"
	plainClose = "】"
)

var spanRe = regexp.MustCompile(regexp.QuoteMeta(highlight.DefaultOpen) + `(.*?)` + regexp.QuoteMeta(highlight.DefaultClose))

// Renderer writes command output.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
	styled bool
	styles *Styles
}

// NewRenderer creates a renderer. ModeAuto resolves to a table when out is
// a terminal and to JSON otherwise. Styling is only applied on a terminal.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	tty := isTerminal(out)
	if mode == ModeAuto || mode == "" {
		mode = ModeJSON
		if tty {
			mode = ModeTable
		}
	}
	return &Renderer{
		out:    out,
		errOut: errOut,
		mode:   mode,
		styled: tty,
		styles: DefaultStyles(),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Mode returns the resolved output mode.
func (r *Renderer) Mode() Mode { return r.mode }

// Styles returns the renderer's styles.
func (r *Renderer) Styles() *Styles { return r.styles }

// Out returns the main output writer.
func (r *Renderer) Out() io.Writer { return r.out }

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Println writes a line of plain text.
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.out, a...)
}

// Errorf writes a styled message to the error writer.
func (r *Renderer) Errorf(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if r.styled {
		msg = r.styles.Error.Render(msg)
	}
	_, _ = fmt.Fprintln(r.errOut, msg)
}

// Results writes a search response.
func (r *Renderer) Results(resp *search.Response) error {
	if r.mode == ModeJSON {
		return r.JSON(resp)
	}
	if len(resp.Results) == 0 {
		r.Println(r.muted("(0 results)"))
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "doc", "title", "dynasty", "author", "section", "text", "page", "source"})
	for i, res := range resp.Results {
		t.AppendRow(table.Row{
			i + 1,
			res.DocID,
			r.Marked(res.DocTitle.OrZero()),
			r.Marked(res.Dynasty.OrZero()),
			r.Marked(res.AuthorName.OrZero()),
			r.Marked(res.TitleName.OrZero()),
			r.Marked(res.FullText.OrZero()),
			page(res),
			string(res.Source),
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "", "", "total", resp.Total})
	t.Render()
	r.Println(r.muted("search " + resp.SearchID))
	return nil
}

// Explained writes the compiled statements of a search.
func (r *Renderer) Explained(items []search.Explained) error {
	if r.mode == ModeJSON {
		return r.JSON(items)
	}
	for i, e := range items {
		if i > 0 {
			r.Println()
		}
		r.Println(r.header("-- " + e.Name))
		if len(e.Joins) > 0 {
			r.Println(r.muted("-- joins: " + strings.Join(e.Joins, ", ")))
		}
		for _, c := range e.Dropped {
			r.Println(r.muted(fmt.Sprintf("-- dropped: %s %q", c.Field, c.Keyword)))
		}
		r.Println(e.SQL)
		if len(e.Args) > 0 {
			args := make([]string, len(e.Args))
			for j, a := range e.Args {
				args[j] = fmt.Sprintf("%v", a)
			}
			r.Println(r.muted("-- args: " + strings.Join(args, ", ")))
		}
	}
	return nil
}

// Marked replaces highlight spans in s with terminal styling, or with
// bracket markers when output is not styled.
func (r *Renderer) Marked(s string) string {
	return spanRe.ReplaceAllStringFunc(s, func(m string) string {
		inner := spanRe.FindStringSubmatch(m)[1]
		if r.styled {
			return r.styles.Highlight.Render(inner)
		}
		return plainOpen + inner + plainClose
	})
}

func (r *Renderer) muted(s string) string {
	if r.styled {
		return r.styles.Muted.Render(s)
	}
	return s
}

func (r *Renderer) header(s string) string {
	if r.styled {
		return r.styles.Header.Render(s)
	}
	return s
}

func page(res core.Result) string {
	n, ok := res.PageNumber.Get()
	if !ok {
		return ""
	}
	return strconv.FormatInt(n, 10) + res.PageSide.OrZero()
}
