// Package input abstracts the operator-supplied text boundary so the manual
// adapters can be driven interactively, from a queue file, or from tests.
package input

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
)

// Provider supplies operator text in response to a prompt. An empty string
// means the operator declined to provide input.
type Provider interface {
	Prompt(ctx context.Context, instructions string) (string, error)
}

// StdinProvider reads operator input from a terminal: the prompt is printed,
// then lines are read until a blank line or EOF. The wait is unbounded by
// design; cancellation comes from the context owner, not a timeout.
type StdinProvider struct {
	In  io.Reader
	Out io.Writer
}

// NewStdinProvider creates a provider over os.Stdin/os.Stderr.
func NewStdinProvider() *StdinProvider {
	return &StdinProvider{In: os.Stdin, Out: os.Stderr}
}

func (p *StdinProvider) Prompt(ctx context.Context, instructions string) (string, error) {
	fmt.Fprintln(p.Out, instructions)
	fmt.Fprintln(p.Out, "(finish with a blank line; press Enter to skip)")

	type result struct {
		text string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		scanner := bufio.NewScanner(p.In)
		var lines []string
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				break
			}
			lines = append(lines, line)
		}
		ch <- result{text: strings.Join(lines, "\n"), err: scanner.Err()}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return "", eris.Wrap(r.err, "input: read stdin")
		}
		return r.text, nil
	}
}

// FileProvider drains a queue file: each Prompt consumes one paragraph
// (blank-line separated). A missing or exhausted file yields empty input,
// which the manual adapters treat as "operator skipped".
type FileProvider struct {
	mu     sync.Mutex
	path   string
	loaded bool
	queue  []string
}

// NewFileProvider creates a FileProvider over the given path.
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{path: path}
}

func (p *FileProvider) Prompt(_ context.Context, _ string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.loaded {
		p.loaded = true
		data, err := os.ReadFile(p.path)
		if err != nil {
			if os.IsNotExist(err) {
				return "", nil
			}
			return "", eris.Wrapf(err, "input: read %s", p.path)
		}
		for _, block := range strings.Split(string(data), "\n\n") {
			block = strings.TrimSpace(block)
			if block != "" {
				p.queue = append(p.queue, block)
			}
		}
	}

	if len(p.queue) == 0 {
		return "", nil
	}
	next := p.queue[0]
	p.queue = p.queue[1:]
	return next, nil
}

// Static is a fixed-response provider for tests.
type Static struct {
	Responses []string
	calls     int
}

func (s *Static) Prompt(_ context.Context, _ string) (string, error) {
	if s.calls >= len(s.Responses) {
		return "", nil
	}
	r := s.Responses[s.calls]
	s.calls++
	return r, nil
}
