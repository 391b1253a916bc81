// Package command runs external tools with streamed output so callers can
// parse progress while the process is still running.
package command

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onOutput func(string)) error
}

// ExitError reports a non-zero exit together with the tail of the tool's
// output.
type ExitError struct {
	Binary string
	Code   int
	Output string
	Err    error
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Binary, e.Code)
	if e.Output != "" {
		msg += ": " + e.Output
	}
	return msg
}

func (e *ExitError) Unwrap() error { return e.Err }

// Runner executes real processes.
type Runner struct{}

const tailLines = 5

// Run starts binary and forwards every stdout and stderr line to onOutput.
// Lines from the two streams are delivered one at a time.
func (Runner) Run(ctx context.Context, binary string, args []string, onOutput func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", binary, err)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		scanErr error
		once    sync.Once
		tail    []string
	)
	forward := func(line string) {
		mu.Lock()
		defer mu.Unlock()
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			tail = append(tail, trimmed)
			if len(tail) > tailLines {
				tail = tail[1:]
			}
		}
		if onOutput != nil {
			onOutput(line)
		}
	}
	scan := func(r io.Reader) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		scanner.Split(scanLinesOrReturns)
		for scanner.Scan() {
			forward(scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			once.Do(func() { scanErr = err })
		}
	}

	wg.Add(2)
	go scan(stdout)
	go scan(stderr)
	wg.Wait()

	if scanErr != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return fmt.Errorf("scan %s output: %w", binary, scanErr)
	}

	if err := cmd.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{
				Binary: binary,
				Code:   exitErr.ExitCode(),
				Output: strings.Join(tail, " | "),
				Err:    err,
			}
		}
		return fmt.Errorf("wait %s: %w", binary, err)
	}
	return nil
}

// scanLinesOrReturns splits on \n and on bare \r, which progress meters use
// to redraw a single line.
func scanLinesOrReturns(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		advance = i + 1
		if data[i] == '\r' && i+1 < len(data) && data[i+1] == '\n' {
			advance++
		}
		return advance, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
