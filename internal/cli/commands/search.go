package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leishu/internal/cli/output"
	"github.com/leapstack-labs/leishu/internal/search"
	"github.com/leapstack-labs/leishu/pkg/core"
)

// QueryOptions holds the flags shared by search and explain.
type QueryOptions struct {
	Field   string
	Mode    string
	Filters map[string]string
	Input   string
	Format  string
}

func (o *QueryOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.Field, "field", "f", string(core.FieldAll), "Field to search (all_fields, title, author_name, title_name, full_text, ...)")
	cmd.Flags().StringVarP(&o.Mode, "mode", "m", "exact", "Match mode (exact|fuzzy)")
	cmd.Flags().StringToStringVar(&o.Filters, "filter", nil, "Equality filter on a tag field, e.g. --filter dynasty=宋")
	cmd.Flags().StringVarP(&o.Input, "input", "i", "", "Read a full JSON search request from a file (- for stdin)")
	cmd.Flags().StringVar(&o.Format, "format", "", "Output format (auto|table|json), overrides --output")
	cmd.Flags().Int("limit", 0, "Maximum rows per statement (default from search.result_limit)")

	_ = cmd.RegisterFlagCompletionFunc("field", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return core.FieldNames(), cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("mode", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"exact", "fuzzy"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return output.Modes, cobra.ShellCompDirectiveNoFileComp
	})
}

// request builds the search request from the flags and positional
// keyword arguments.
func (o *QueryOptions) request(stdin io.Reader, args []string) (search.Request, error) {
	if o.Input != "" {
		if len(args) > 0 {
			return search.Request{}, fmt.Errorf("keyword arguments cannot be combined with --input")
		}
		return readRequest(stdin, o.Input)
	}
	if len(args) == 0 {
		return search.Request{}, fmt.Errorf("a keyword or --input is required")
	}

	req := search.Request{
		Conditions: []search.ConditionRequest{{
			Field:     o.Field,
			Keyword:   strings.Join(args, " "),
			MatchMode: o.Mode,
		}},
	}
	if len(o.Filters) > 0 {
		req.Filters = make(map[string]any, len(o.Filters))
		for k, v := range o.Filters {
			req.Filters[k] = v
		}
	}
	return req, nil
}

func readRequest(stdin io.Reader, path string) (search.Request, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path) //nolint:gosec // user-supplied request file
	}
	if err != nil {
		return search.Request{}, fmt.Errorf("failed to read request: %w", err)
	}
	var req search.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return search.Request{}, fmt.Errorf("failed to parse request %s: %w", path, err)
	}
	return req, nil
}

// renderer returns the context renderer, or a new one when --format
// overrides the global output mode.
func (o *QueryOptions) renderer(cmd *cobra.Command) (*output.Renderer, error) {
	if o.Format == "" {
		return GetRenderer(cmd.Context()), nil
	}
	mode, err := output.ParseMode(o.Format)
	if err != nil {
		return nil, err
	}
	return output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode), nil
}

// NewSearchCommand creates the search command.
func NewSearchCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "search <keyword>...",
		Short: "Search the corpus",
		Long: `Search the corpus and print enriched, highlighted results.

Keywords use the boolean syntax of the search API: space or AND,
OR and NOT. Terms are matched literally. Parentheses are ignored, so
operators never nest, and double quotes are stripped, so a quoted run of
words is searched as separate terms. Multiple arguments are joined with
spaces.

Output adapts to environment:
  - Terminal: table with highlighted characters
  - Piped/Scripted: JSON, the same shape the HTTP API returns`,
		Example: `  # Search every field
  leishu search 永乐大典

  # Search section titles of Song dynasty documents
  leishu search --field title_name --filter dynasty=宋 天部

  # Run a full request from a file
  leishu search --input request.json --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, opts, args)
		},
	}
	opts.bind(cmd)

	return cmd
}

func runSearch(cmd *cobra.Command, opts *QueryOptions, args []string) error {
	req, err := opts.request(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}
	r, err := opts.renderer(cmd)
	if err != nil {
		return err
	}

	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	resp, err := cc.Search.Search(cmd.Context(), req)
	if err != nil {
		return err
	}
	return r.Results(resp)
}

// NewExplainCommand creates the explain command.
func NewExplainCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "explain <keyword>...",
		Short: "Print the SQL a search would run",
		Long: `Compile a search into SQL for the configured target dialect and print the
statements with their bound arguments. Nothing is executed and no database
connection is opened.

An all_fields search prints two statements, the metadata query and the
full-text query.`,
		Example: `  leishu explain --field title 永乐 AND 大典
  leishu explain --target-type mysql --mode fuzzy --field full_text 元气`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(cmd, opts, args)
		},
	}
	opts.bind(cmd)

	return cmd
}

func runExplain(cmd *cobra.Command, opts *QueryOptions, args []string) error {
	req, err := opts.request(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}
	r, err := opts.renderer(cmd)
	if err != nil {
		return err
	}

	cc, err := NewCommandContextWithoutStore(cmd)
	if err != nil {
		return err
	}

	q, err := cc.Search.Parse(req)
	if err != nil {
		return err
	}
	explained, err := cc.Search.Explain(q)
	if err != nil {
		return err
	}
	return r.Explained(explained)
}
