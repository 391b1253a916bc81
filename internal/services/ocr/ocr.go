// Package ocr converts bitmap subtitles into text with vobsubocr, converting
// Blu-ray PGS streams to VobSub with BDSup2Sub first when needed.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"autotagger/internal/services"
	"autotagger/internal/services/command"
)

// Config describes the OCR tool locations and tesseract settings.
type Config struct {
	VobsubocrBinary string
	Language        string
	CharBlacklist   string
	JavaBinary      string
	BDSup2SubPath   string
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

// Client runs the OCR toolchain.
type Client struct {
	cfg  Config
	exec command.Executor

	mu      sync.RWMutex
	jarPath string
}

// New constructs an OCR client.
func New(cfg Config, opts ...Option) *Client {
	if strings.TrimSpace(cfg.VobsubocrBinary) == "" {
		cfg.VobsubocrBinary = "vobsubocr"
	}
	if strings.TrimSpace(cfg.Language) == "" {
		cfg.Language = "eng"
	}
	if strings.TrimSpace(cfg.JavaBinary) == "" {
		cfg.JavaBinary = "java"
	}
	client := &Client{cfg: cfg, exec: command.Runner{}, jarPath: strings.TrimSpace(cfg.BDSup2SubPath)}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// BDSup2SubPath returns the configured BDSup2Sub jar location.
func (c *Client) BDSup2SubPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.jarPath
}

// SetBDSup2SubPath records a jar location supplied after construction, for
// example by prompting the user.
func (c *Client) SetBDSup2SubPath(path string) {
	c.mu.Lock()
	c.jarPath = strings.TrimSpace(path)
	c.mu.Unlock()
}

// VobSubToSRT runs vobsubocr on idxPath and writes srtPath.
func (c *Client) VobSubToSRT(ctx context.Context, idxPath, srtPath string) error {
	args := make([]string, 0, 7)
	if bl := c.cfg.CharBlacklist; bl != "" {
		args = append(args, "-c", "tessedit_char_blacklist="+bl)
	}
	args = append(args, "-l", c.cfg.Language, "-o", srtPath, idxPath)
	if err := c.exec.Run(ctx, c.cfg.VobsubocrBinary, args, nil); err != nil {
		return services.Wrap(services.ErrExternalTool, "vobsubocr", "ocr", fmt.Sprintf("failed to read text from %s", idxPath), err)
	}
	return nil
}

// PGSToVobSub converts a PGS .sup stream into an .idx/.sub pair.
func (c *Client) PGSToVobSub(ctx context.Context, supPath, idxPath string) error {
	jar := c.BDSup2SubPath()
	if jar == "" {
		return services.Wrap(services.ErrConfiguration, "bdsup2sub", "convert", "BDSup2Sub location unknown; set BDSUP2SUB_PATH or ocr.bdsup2sub_path", nil)
	}
	if _, err := os.Stat(jar); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return services.Wrap(services.ErrConfiguration, "bdsup2sub", "convert", fmt.Sprintf("BDSup2Sub not found at %s", jar), err)
		}
		return services.Wrap(services.ErrConfiguration, "bdsup2sub", "convert", "stat BDSup2Sub", err)
	}
	args := []string{"-jar", jar, "-o", idxPath, supPath}
	if err := c.exec.Run(ctx, c.cfg.JavaBinary, args, nil); err != nil {
		return services.Wrap(services.ErrExternalTool, "bdsup2sub", "convert", fmt.Sprintf("failed to convert %s", supPath), err)
	}
	return nil
}
