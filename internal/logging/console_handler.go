package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// prettyHandler renders one line per record for a terminal that is shared
// with interactive prompts:
//
//	15:04:05 INFO extraction/ocr [Title 01.mkv]: converted subtitles cues=412
//
// The component, stage, and file attributes move into the prefix; everything
// else follows the message as key=value pairs.
type prettyHandler struct {
	mu        *sync.Mutex
	writer    io.Writer
	level     slog.Leveler
	attrs     []kv
	groups    []string
	addSource bool
}

func newPrettyHandler(w io.Writer, level slog.Leveler, addSource bool) slog.Handler {
	return &prettyHandler{mu: &sync.Mutex{}, writer: w, level: level, addSource: addSource}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *prettyHandler) Handle(_ context.Context, record slog.Record) error {
	if !h.Enabled(context.Background(), record.Level) {
		return nil
	}

	kvs := make([]kv, len(h.attrs), len(h.attrs)+record.NumAttrs())
	copy(kvs, h.attrs)
	record.Attrs(func(attr slog.Attr) bool {
		flattenAttr(&kvs, h.groups, attr)
		return true
	})
	prefix, kvs := splitPrefix(kvs)

	var buf bytes.Buffer
	buf.Grow(96 + len(kvs)*24)

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	buf.WriteString(ts.Local().Format(time.TimeOnly))
	buf.WriteByte(' ')
	buf.WriteString(levelLabel(record.Level))
	prefix.writeTo(&buf)

	msg := strings.TrimSpace(record.Message)
	if msg == "" {
		msg = "(no message)"
	}
	buf.WriteString(msg)

	if h.addSource {
		if src := record.Source(); src != nil {
			buf.WriteString(" [")
			buf.WriteString(filepath.Base(src.File))
			buf.WriteByte(':')
			buf.WriteString(strconv.Itoa(src.Line))
			buf.WriteByte(']')
		}
	}

	for _, kv := range kvs {
		buf.WriteByte(' ')
		buf.WriteString(kv.key)
		buf.WriteByte('=')
		if isSecretKey(kv.key) {
			buf.WriteString(redacted)
		} else {
			buf.WriteString(formatValue(kv.value))
		}
	}
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.writer.Write(buf.Bytes())
	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append([]kv(nil), h.attrs...)
	for _, attr := range attrs {
		flattenAttr(&next.attrs, h.groups, attr)
	}
	return &next
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.groups = append(append([]string(nil), h.groups...), name)
	return &next
}

type linePrefix struct {
	component string
	stage     string
	file      string
}

// splitPrefix pulls the first component, stage, and file values out of kvs.
// Later duplicates are dropped.
func splitPrefix(kvs []kv) (linePrefix, []kv) {
	var p linePrefix
	rest := kvs[:0]
	for _, item := range kvs {
		var slot *string
		switch item.key {
		case FieldComponent:
			slot = &p.component
		case FieldStage:
			slot = &p.stage
		case FieldFile:
			slot = &p.file
		case "":
			continue
		default:
			rest = append(rest, item)
			continue
		}
		if *slot == "" {
			*slot = attrString(item.value)
		}
	}
	return p, rest
}

func (p linePrefix) writeTo(buf *bytes.Buffer) {
	buf.WriteByte(' ')
	name := p.component
	if p.stage != "" {
		if name != "" {
			name += "/"
		}
		name += p.stage
	}
	parts := make([]string, 0, 2)
	if name != "" {
		parts = append(parts, name)
	}
	if p.file != "" {
		parts = append(parts, "["+filepath.Base(p.file)+"]")
	}
	if len(parts) > 0 {
		buf.WriteString(strings.Join(parts, " "))
		buf.WriteString(": ")
	}
}

type kv struct {
	key   string
	value slog.Value
}

func flattenAttr(dst *[]kv, prefix []string, attr slog.Attr) {
	if attr.Equal(slog.Attr{}) {
		return
	}
	attr.Value = attr.Value.Resolve()
	if attr.Value.Kind() == slog.KindGroup {
		next := prefix
		if attr.Key != "" {
			next = append(append([]string(nil), prefix...), attr.Key)
		}
		for _, member := range attr.Value.Group() {
			flattenAttr(dst, next, member)
		}
		return
	}
	key := attr.Key
	if len(prefix) > 0 {
		key = strings.Join(prefix, ".") + "." + key
	}
	*dst = append(*dst, kv{key: key, value: attr.Value})
}
