package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// ErrInputClosed is returned when the input stream ends while a prompt is
// waiting for an answer.
var ErrInputClosed = errors.New("input closed")

type readResult struct {
	line string
	err  error
}

// Prompter asks questions on a line-oriented input. Every prompt returns
// early with ctx.Err() when ctx is cancelled.
type Prompter struct {
	*Printer
	in       *bufio.Reader
	fd       int
	terminal bool
	// pending holds a read still in flight after a cancelled prompt.
	pending chan readResult
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	p := &Prompter{Printer: NewPrinter(out), in: bufio.NewReader(in), fd: -1}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.fd = int(f.Fd())
		p.terminal = true
	}
	return p
}

func (p *Prompter) readLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if p.pending == nil {
		ch := make(chan readResult, 1)
		go func() {
			line, err := p.in.ReadString('\n')
			if errors.Is(err, io.EOF) && line != "" {
				err = nil
			}
			ch <- readResult{line: line, err: err}
		}()
		p.pending = ch
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-p.pending:
		p.pending = nil
		if errors.Is(r.err, io.EOF) {
			return "", ErrInputClosed
		}
		if r.err != nil {
			return "", fmt.Errorf("failed to read input: %w", r.err)
		}
		return strings.TrimRight(r.line, "\r\n"), nil
	}
}

// Ask prints prompt and returns the trimmed answer.
func (p *Prompter) Ask(ctx context.Context, prompt string) (string, error) {
	fmt.Fprint(p.w, prompt)
	line, err := p.readLine(ctx)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// AskSecretNonEmpty repeats AskSecret until the answer is not blank,
// printing retry after each blank answer.
func (p *Prompter) AskSecretNonEmpty(ctx context.Context, prompt, retry string) (string, error) {
	for {
		answer, err := p.AskSecret(ctx, prompt)
		if err != nil {
			return "", err
		}
		if answer != "" {
			return answer, nil
		}
		p.Error(retry)
	}
}

// AskSecret reads a value without echo when the input is a terminal.
func (p *Prompter) AskSecret(ctx context.Context, prompt string) (string, error) {
	if !p.terminal || p.pending != nil || p.in.Buffered() > 0 {
		return p.Ask(ctx, prompt)
	}

	fmt.Fprint(p.w, prompt)
	state, err := term.GetState(p.fd)
	if err != nil {
		return "", fmt.Errorf("failed to read terminal state: %w", err)
	}

	ch := make(chan readResult, 1)
	go func() {
		b, err := term.ReadPassword(p.fd)
		ch <- readResult{line: string(b), err: err}
	}()

	select {
	case <-ctx.Done():
		_ = term.Restore(p.fd, state)
		fmt.Fprintln(p.w)
		return "", ctx.Err()
	case r := <-ch:
		fmt.Fprintln(p.w)
		if errors.Is(r.err, io.EOF) {
			return "", ErrInputClosed
		}
		if r.err != nil {
			return "", fmt.Errorf("failed to read input: %w", r.err)
		}
		return strings.TrimSpace(r.line), nil
	}
}

// Confirm asks a yes/no question until it gets yes, y, no or n.
func (p *Prompter) Confirm(ctx context.Context, prompt string) (bool, error) {
	for {
		answer, err := p.Ask(ctx, prompt+" (yes/no): ")
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "yes", "y":
			return true, nil
		case "no", "n":
			return false, nil
		}
		p.Println("Please answer 'yes' or 'no'")
	}
}

// Choose asks for a number between 1 and n and returns its zero-based index.
func (p *Prompter) Choose(ctx context.Context, n int) (int, error) {
	if n <= 0 {
		return 0, errors.New("nothing to choose from")
	}
	for {
		answer, err := p.Ask(ctx, fmt.Sprintf("Enter number (1-%d): ", n))
		if err != nil {
			return 0, err
		}
		choice, err := strconv.Atoi(answer)
		if err != nil {
			p.Error("Please enter a valid number")
			continue
		}
		if choice < 1 || choice > n {
			p.Error("Invalid selection")
			continue
		}
		return choice - 1, nil
	}
}
