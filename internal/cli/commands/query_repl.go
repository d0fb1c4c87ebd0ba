package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/canvasql/internal/adhoc"
)

const (
	replPrompt     = "canvasql> "
	replContPrompt = "     ...> "
)

// replSession tracks the last statement so .next can page through it.
type replSession struct {
	format string
	limit  int
	last   string
	offset int
}

func runQueryREPL(cmd *cobra.Command, cc *CommandContext, exec *adhoc.Executor, opts *QueryOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	historyFile := filepath.Join(filepath.Dir(cc.Cfg.StatePath), "query_history")

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    newDotCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintln(out, "canvasql query REPL")
	_, _ = fmt.Fprintln(out, "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(out)

	sess := &replSession{format: opts.Format, limit: opts.Limit}
	var buf strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			buf.Reset()
			rl.SetPrompt(replPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if buf.Len() == 0 && strings.HasPrefix(line, ".") {
			if quit := sess.handleDotCommand(ctx, cmd, exec, line); quit {
				break
			}
			continue
		}

		// Accumulate multi-line SQL until semicolon
		buf.WriteString(line)
		if !strings.HasSuffix(line, ";") {
			buf.WriteString(" ")
			rl.SetPrompt(replContPrompt)
			continue
		}
		rl.SetPrompt(replPrompt)

		sess.last = strings.TrimSuffix(buf.String(), ";")
		sess.offset = 0
		buf.Reset()

		sess.run(ctx, cmd, exec)
	}
	return nil
}

func (s *replSession) run(ctx context.Context, cmd *cobra.Command, exec *adhoc.Executor) {
	req := adhoc.Request{Query: s.last, Limit: s.limit, Offset: s.offset}
	if err := executeAndRender(ctx, cmd.OutOrStdout(), exec, req, s.format); err != nil {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout())
}

// handleDotCommand runs a REPL command and reports whether to quit.
func (s *replSession) handleDotCommand(ctx context.Context, cmd *cobra.Command, exec *adhoc.Executor, line string) bool {
	parts := strings.Fields(line)
	errOut := cmd.ErrOrStderr()

	switch strings.ToLower(parts[0]) {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(cmd.OutOrStdout())

	case ".next":
		if s.last == "" {
			_, _ = fmt.Fprintln(errOut, "No previous query")
			return false
		}
		limit := s.limit
		if limit == 0 {
			limit = adhoc.DefaultLimit
		}
		s.offset += limit
		s.run(ctx, cmd, exec)

	case ".limit":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(errOut, "Usage: .limit <rows>")
			return false
		}
		n, err := strconv.Atoi(parts[1])
		if err != nil || n < 1 {
			_, _ = fmt.Fprintln(errOut, "limit must be a positive integer")
			return false
		}
		s.limit = n

	case ".format":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(errOut, "Usage: .format table|json|csv|md")
			return false
		}
		s.format = parts[1]

	default:
		_, _ = fmt.Fprintf(errOut, "Unknown command: %s (type .help for commands)\n", parts[0])
	}
	return false
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help             Show this help message
  .next             Show the next page of the last query
  .limit <rows>     Set the page size
  .format <format>  Set the output format (table, json, csv, md)
  .quit / .exit     Exit the REPL

Tips:
  - SQL statements must end with a semicolon (;)
  - Only read-only statements are accepted
  - Use arrow keys to navigate history
`
	_, _ = fmt.Fprintln(w, help)
}

func newDotCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".next"),
		readline.PcItem(".limit"),
		readline.PcItem(".format",
			readline.PcItem(FormatTable),
			readline.PcItem(FormatJSON),
			readline.PcItem(FormatCSV),
			readline.PcItem(FormatMarkdown),
		),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}
