package gharchive

import (
	"compress/gzip"
	"context"
	"io"
	"os"

	perr "ghloader/internal/platform/errors"
	"ghloader/internal/platform/logger"
)

// Expander turns fetched .json.gz buckets into raw line files
type Expander struct {
	dir string
	log *logger.Logger
}

// NewExpander builds an expander working inside dir
func NewExpander(dir string) *Expander {
	return &Expander{dir: dir, log: logger.Named("expand")}
}

// Expand decompresses the bucket into its .json file and returns the path
// No-op when the .json already exists. The .json.gz is removed only after the
// .json is fully written and renamed into place.
func (e *Expander) Expand(ctx context.Context, hour HourRef) (string, error) {
	dst := hour.JSONPath(e.dir)
	if isFile(dst) {
		return dst, nil
	}
	src := hour.GzPath(e.dir)

	e.log.Info().Str("bucket", hour.String()).Msg("decompressing")

	in, err := os.Open(src)
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeExpand, "open %s", src)
	}
	defer func() { _ = in.Close() }()

	zr, err := gzip.NewReader(in)
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeExpand, "gzip header %s", src)
	}
	defer func() { _ = zr.Close() }()

	if _, err := writeAtomic(dst, ctxReader{ctx: ctx, r: zr}); err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeExpand, "decompress %s", hour)
	}
	if err := os.Remove(src); err != nil {
		e.log.Warn().Err(err).Str("path", src).Msg("could not remove compressed artifact")
	}
	return dst, nil
}

// ctxReader aborts a long copy once ctx is done
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
