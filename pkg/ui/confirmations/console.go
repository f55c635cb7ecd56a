// Package confirmations provides the approval gate: the blocking
// human-confirmation checkpoint installer phases and the reversal engine
// consult before proceeding.
package confirmations

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/settle-sh/settle/pkg/logging"
	"github.com/settle-sh/settle/pkg/types"
)

// Gate blocks forward progress on explicit human confirmation.
type Gate interface {
	// Confirm presents a yes/no question and reports approval.
	Confirm(req types.ConfirmationRequest) bool

	// ConfirmPhrase demands the literal confirmation phrase be typed.
	// Anything else, typos included, declines.
	ConfirmPhrase(prompt, phrase string) bool
}

// ConsoleGate implements Gate over an input/output stream pair. Under
// dry-run every gate short-circuits to approved without prompting, so
// dry-run plans can be previewed non-interactively.
type ConsoleGate struct {
	ctx    types.RunContext
	in     io.Reader
	out    io.Writer
	reader *bufio.Reader
}

// NewConsoleGate creates a gate reading stdin and writing stdout.
func NewConsoleGate(ctx types.RunContext) *ConsoleGate {
	return NewConsoleGateIO(ctx, os.Stdin, os.Stdout)
}

// NewConsoleGateIO creates a gate over explicit streams, used by tests.
func NewConsoleGateIO(ctx types.RunContext, in io.Reader, out io.Writer) *ConsoleGate {
	return &ConsoleGate{ctx: ctx, in: in, out: out, reader: bufio.NewReader(in)}
}

// Confirm presents the request and reads a yes/no answer. An empty answer
// takes the request's default; a non-interactive stdin declines rather
// than blocking forever.
func (g *ConsoleGate) Confirm(req types.ConfirmationRequest) bool {
	logger := logging.GetLogger("confirmations")

	if g.ctx.DryRun {
		logger.Info().Str("title", req.Title).Msg("Dry-run, auto-approving confirmation")
		return true
	}

	if !g.interactive() {
		logger.Warn().Str("title", req.Title).Msg("No terminal to confirm on, declining")
		return false
	}

	fmt.Fprintf(g.out, "\n%s\n", req.Title)
	if req.Description != "" {
		fmt.Fprintf(g.out, "%s\n", req.Description)
	}
	for _, item := range req.Items {
		fmt.Fprintf(g.out, "  - %s\n", item)
	}

	marker := "[y/N]"
	if req.Default {
		marker = "[Y/n]"
	}
	fmt.Fprintf(g.out, "Continue? %s: ", marker)

	answer, err := g.readLine()
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to read confirmation, declining")
		return false
	}

	answer = strings.ToLower(strings.TrimSpace(answer))
	if answer == "" {
		return req.Default
	}
	approved := answer == "y" || answer == "yes"

	logger.Info().
		Str("title", req.Title).
		Bool("approved", approved).
		Msg("Confirmation answered")

	return approved
}

// ConfirmPhrase is the second, typo-resistant gate used before
// destructive reversal: only the exact phrase approves.
func (g *ConsoleGate) ConfirmPhrase(prompt, phrase string) bool {
	logger := logging.GetLogger("confirmations")

	if g.ctx.DryRun {
		logger.Info().Msg("Dry-run, auto-approving phrase confirmation")
		return true
	}

	if !g.interactive() {
		logger.Warn().Msg("No terminal to confirm on, declining")
		return false
	}

	fmt.Fprintf(g.out, "%s: ", prompt)

	answer, err := g.readLine()
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to read confirmation phrase, declining")
		return false
	}

	approved := strings.TrimSpace(answer) == phrase
	logger.Info().Bool("approved", approved).Msg("Phrase confirmation answered")

	return approved
}

// interactive reports whether the gate can actually prompt. Only a real
// stdin is subject to the TTY check; test streams always prompt.
func (g *ConsoleGate) interactive() bool {
	f, ok := g.in.(*os.File)
	if !ok {
		return true
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (g *ConsoleGate) readLine() (string, error) {
	line, err := g.reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return line, nil
}
