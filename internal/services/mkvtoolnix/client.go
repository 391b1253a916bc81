package mkvtoolnix

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"autotagger/internal/services"
	"autotagger/internal/services/command"
)

// ProgressUpdate captures mkvextract progress output.
type ProgressUpdate struct {
	Percent float64
	Message string
}

// Extractor defines the behaviour required by the extraction workflow.
type Extractor interface {
	ExtractTrack(ctx context.Context, source string, trackID int, dest string, progress func(ProgressUpdate)) error
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec command.Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps mkvextract CLI interactions.
type Client struct {
	binary string
	exec   command.Executor
}

// New constructs an mkvextract client.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("mkvextract binary required")
	}
	client := &Client{
		binary: binary,
		exec:   command.Runner{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// ExtractTrack writes track trackID of source to dest. For VobSub tracks dest
// should end in .idx; mkvextract writes the matching .sub alongside it.
func (c *Client) ExtractTrack(ctx context.Context, source string, trackID int, dest string, progress func(ProgressUpdate)) error {
	if strings.TrimSpace(source) == "" {
		return services.Wrap(services.ErrValidation, "mkvextract", "extract", "source file required", nil)
	}
	if strings.TrimSpace(dest) == "" {
		return services.Wrap(services.ErrValidation, "mkvextract", "extract", "destination required", nil)
	}
	if trackID < 0 {
		return services.Wrap(services.ErrValidation, "mkvextract", "extract", fmt.Sprintf("invalid track id %d", trackID), nil)
	}

	args := []string{"tracks", source, fmt.Sprintf("%d:%s", trackID, dest)}
	err := c.exec.Run(ctx, c.binary, args, func(line string) {
		if progress == nil {
			return
		}
		if update, ok := parseProgress(line); ok {
			progress(update)
		}
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return services.Wrap(services.ErrCancelled, "mkvextract", "extract", "extraction interrupted", ctxErr)
		}
		return services.Wrap(services.ErrExternalTool, "mkvextract", "extract", "failed to extract subtitles", err)
	}
	return nil
}

var progressPattern = regexp.MustCompile(`(?i)progress:\s*(\d{1,3})%`)

func parseProgress(line string) (ProgressUpdate, bool) {
	line = strings.TrimSpace(line)
	match := progressPattern.FindStringSubmatch(line)
	if match == nil {
		return ProgressUpdate{}, false
	}
	percent, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return ProgressUpdate{}, false
	}
	if percent > 100 {
		percent = 100
	}
	return ProgressUpdate{Percent: percent, Message: line}, true
}
