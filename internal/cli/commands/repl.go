package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leishu/internal/cli/output"
	"github.com/leapstack-labs/leishu/internal/search"
	"github.com/leapstack-labs/leishu/pkg/core"
)

const replPrompt = "leishu> "

// NewREPLCommand creates the repl command.
func NewREPLCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Interactive search shell",
		Long: `Start an interactive shell. Each line is searched as a keyword against the
current field; dot-commands change the field, match mode and filters.

Type .help inside the shell for the list of commands.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runREPL(cmd)
		},
	}
}

func runREPL(cmd *cobra.Command) error {
	ctx := cmd.Context()

	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     historyFile(),
		AutoComplete:    newREPLCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "leishu search shell (%s)\n", cc.Cfg.Target.Type)
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	sess := newREPLSession(cc.Search, cc.Renderer, cmd.OutOrStdout(), cmd.ErrOrStderr())
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if sess.handle(ctx, line) {
			break
		}
	}
	return nil
}

// historyFile returns the REPL history path, or "" to disable history.
func historyFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	dir = filepath.Join(dir, "leishu")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return ""
	}
	return filepath.Join(dir, "repl_history")
}

// replSession holds the shell state between lines.
type replSession struct {
	svc     *search.Service
	r       *output.Renderer
	out     io.Writer
	errOut  io.Writer
	field   string
	mode    string
	filters map[string]string
	explain bool
}

func newREPLSession(svc *search.Service, r *output.Renderer, out, errOut io.Writer) *replSession {
	return &replSession{
		svc:     svc,
		r:       r,
		out:     out,
		errOut:  errOut,
		field:   string(core.FieldAll),
		mode:    core.MatchExact.String(),
		filters: make(map[string]string),
	}
}

// handle processes one input line and reports whether the shell should
// exit. Errors are printed and never end the session.
func (s *replSession) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if strings.HasPrefix(line, ".") {
		return s.dot(line)
	}

	if err := s.run(ctx, line); err != nil {
		_, _ = fmt.Fprintf(s.errOut, "Error: %v\n", err)
	}
	_, _ = fmt.Fprintln(s.out)
	return false
}

func (s *replSession) request(keyword string) search.Request {
	req := search.Request{Conditions: []search.ConditionRequest{{
		Field:     s.field,
		Keyword:   keyword,
		MatchMode: s.mode,
	}}}
	if len(s.filters) > 0 {
		req.Filters = make(map[string]any, len(s.filters))
		for k, v := range s.filters {
			req.Filters[k] = v
		}
	}
	return req
}

func (s *replSession) run(ctx context.Context, keyword string) error {
	req := s.request(keyword)
	if s.explain {
		q, err := s.svc.Parse(req)
		if err != nil {
			return err
		}
		explained, err := s.svc.Explain(q)
		if err != nil {
			return err
		}
		return s.r.Explained(explained)
	}
	resp, err := s.svc.Search(ctx, req)
	if err != nil {
		return err
	}
	return s.r.Results(resp)
}

func (s *replSession) dot(line string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(s.out)

	case ".field":
		if len(args) != 1 {
			s.usage(".field <name>")
			break
		}
		f, ok := core.ParseField(args[0])
		if !ok {
			_, _ = fmt.Fprintf(s.errOut, "Unknown field: %s\n", args[0])
			break
		}
		s.field = string(f)

	case ".mode":
		if len(args) != 1 {
			s.usage(".mode <exact|fuzzy>")
			break
		}
		m, err := core.ParseMatchMode(args[0])
		if err != nil {
			_, _ = fmt.Fprintf(s.errOut, "Error: %v\n", err)
			break
		}
		s.mode = m.String()

	case ".filter":
		if len(args) == 0 {
			s.filters = make(map[string]string)
			break
		}
		for _, kv := range args {
			k, v, ok := strings.Cut(kv, "=")
			if !ok || k == "" {
				s.usage(".filter <field>=<value> ...")
				return false
			}
			if v == "" {
				delete(s.filters, k)
				continue
			}
			s.filters[k] = v
		}

	case ".explain":
		s.explain = !s.explain
		_, _ = fmt.Fprintf(s.out, "explain %s\n", onOff(s.explain))

	case ".status":
		s.status()

	default:
		_, _ = fmt.Fprintf(s.errOut, "Unknown command: %s (type .help for commands)\n", command)
	}
	return false
}

func (s *replSession) usage(u string) {
	_, _ = fmt.Fprintf(s.errOut, "Usage: %s\n", u)
}

func (s *replSession) status() {
	_, _ = fmt.Fprintf(s.out, "field:   %s\n", s.field)
	_, _ = fmt.Fprintf(s.out, "mode:    %s\n", s.mode)
	_, _ = fmt.Fprintf(s.out, "explain: %s\n", onOff(s.explain))

	keys := make([]string, 0, len(s.filters))
	for k := range s.filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		_, _ = fmt.Fprintf(s.out, "filter:  %s=%s\n", k, s.filters[k])
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help                  Show this help message
  .field <name>          Search this field (default all_fields)
  .mode <exact|fuzzy>    Set the match mode
  .filter k=v ...        Add tag filters; k= removes one, no args clears all
  .explain               Toggle printing SQL instead of searching
  .status                Show the current settings
  .quit / .exit          Exit the shell

Tips:
  - Any other line is searched as a keyword: 永乐 AND (大典 OR 类书)
  - Use arrow keys to navigate history
`
	_, _ = fmt.Fprintln(w, help)
}

func newREPLCompleter() *readline.PrefixCompleter {
	fields := make([]readline.PrefixCompleterInterface, 0)
	for _, name := range core.FieldNames() {
		fields = append(fields, readline.PcItem(name))
	}
	return readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".field", fields...),
		readline.PcItem(".mode", readline.PcItem("exact"), readline.PcItem("fuzzy")),
		readline.PcItem(".filter"),
		readline.PcItem(".explain"),
		readline.PcItem(".status"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}
