package repo

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	perr "ghloader/internal/platform/errors"
	"ghloader/internal/services/ingest/domain"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

var nulSet = runes.Predicate(func(r rune) bool { return r == 0 })

// InProcessSanitizer strips NUL bytes by streaming the file through a rune filter into a sibling temp file
type InProcessSanitizer struct{}

// StripNUL rewrites path without NUL bytes, replacing it atomically
func (InProcessSanitizer) StripNUL(ctx context.Context, path string) error {
	in, err := os.Open(path)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeLoad, "sanitize open %s", path)
	}
	defer func() { _ = in.Close() }()

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeLoad, "sanitize temp for %s", path)
	}
	tr := transform.NewReader(in, runes.Remove(nulSet))
	_, cerr := io.Copy(tmp, ctxReader{ctx: ctx, r: tr})
	if err := tmp.Close(); cerr == nil {
		cerr = err
	}
	if cerr != nil {
		_ = os.Remove(tmp.Name())
		return perr.Wrapf(cerr, perr.ErrorCodeLoad, "sanitize %s", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return perr.Wrapf(err, perr.ErrorCodeLoad, "sanitize rename %s", path)
	}
	return nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// ToolSanitizer runs an external sed compatible tool: <tool> -i s/\x00//g <path>
type ToolSanitizer struct {
	Tool string
}

var runTool = func(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// StripNUL edits path in place with the configured tool
func (s ToolSanitizer) StripNUL(ctx context.Context, path string) error {
	out, err := runTool(ctx, s.Tool, "-i", `s/\x00//g`, path)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeLoad, "%s on %s: %s", s.Tool, path, string(out))
	}
	return nil
}

// NewSanitizer picks the external tool when one is named, the in-process filter otherwise
func NewSanitizer(tool string) domain.Sanitizer {
	if tool != "" {
		return ToolSanitizer{Tool: tool}
	}
	return InProcessSanitizer{}
}
