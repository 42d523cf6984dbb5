package picker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/chzyer/readline"
)

// Line is a readline prompt accepting comma or space separated names, with
// tab completion over the candidates. Used when no full-screen terminal is
// available or when requested explicitly.
type Line struct {
	// Stdin and Stdout default to the process streams when nil.
	Stdin  io.ReadCloser
	Stdout io.Writer
}

// Pick prompts until the input names only known candidates. An empty line
// confirms an empty selection; Ctrl+C or Ctrl+D cancels.
func (l *Line) Pick(ctx context.Context, candidates []string, placeholder string) ([]string, error) {
	config := &readline.Config{
		Prompt:          "objects> ",
		AutoComplete:    &nameCompleter{candidates: candidates},
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",

		FuncFilterInputRune: filterInput,
	}
	if l.Stdin != nil {
		config.Stdin = l.Stdin
	}
	if l.Stdout != nil {
		config.Stdout = l.Stdout
		config.Stderr = l.Stdout
	}

	rl, err := readline.NewEx(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create readline instance: %w", err)
	}
	var closeOnce sync.Once
	closeRL := func() { closeOnce.Do(func() { _ = rl.Close() }) }
	defer closeRL()

	// Readline blocks until input arrives; closing it is the only way to
	// interrupt a read from a non-terminal stdin.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			closeRL()
		case <-done:
		}
	}()

	out := rl.Stdout()
	fmt.Fprintf(out, "%s (%d available). Separate names with commas, TAB completes, '? <prefix>' lists.\n", placeholder, len(candidates))

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		line, err := rl.Readline()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return nil, ErrCancelled
		} else if err != nil {
			return nil, fmt.Errorf("readline error: %w", err)
		}

		input := strings.TrimSpace(line)
		if strings.HasPrefix(input, "?") {
			listCandidates(out, candidates, strings.TrimSpace(strings.TrimPrefix(input, "?")))
			continue
		}

		selected, unknown := ParseSelection(input, candidates)
		if len(unknown) > 0 {
			fmt.Fprintf(out, "Unknown object(s): %s\n", strings.Join(unknown, ", "))
			continue
		}
		return selected, nil
	}
}

func listCandidates(w io.Writer, candidates []string, filter string) {
	n := 0
	for _, c := range candidates {
		if matchFilter(c, filter) {
			fmt.Fprintf(w, "  %s\n", c)
			n++
		}
	}
	if n == 0 {
		fmt.Fprintln(w, "  no matching objects")
	}
}

// filterInput filters input characters for readline
func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

// nameCompleter completes the token under the cursor against candidate names.
// It implements readline.AutoCompleter.
type nameCompleter struct {
	candidates []string
}

func (c *nameCompleter) Do(line []rune, pos int) ([][]rune, int) {
	start := pos
	for start > 0 && !isSeparator(line[start-1]) {
		start--
	}
	typed := line[start:pos]
	prefix := strings.ToLower(string(typed))

	var out [][]rune
	for _, cand := range c.candidates {
		if strings.HasPrefix(strings.ToLower(cand), prefix) {
			out = append(out, []rune(cand)[len(typed):])
		}
	}
	return out, len(typed)
}

func isSeparator(r rune) bool {
	return r == ',' || r == ';' || r == ' ' || r == '\t'
}
