package repo

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"

	perr "ghloader/internal/platform/errors"
	"ghloader/internal/platform/logger"
	pstrings "ghloader/internal/platform/strings"
	"ghloader/internal/services/ingest/domain"
	"ghloader/internal/services/ingest/sink"
)

// DefaultRowBatch is the number of rows handed to an appender at once
const DefaultRowBatch = 5000

// RowsLoader is the slower load path: it reads each CSV back, types every field
// by its catalogue column and appends batches to an Appender, one unit of work per table
// NUL bytes are dropped from text while decoding, so no retry cycle is needed
type RowsLoader struct {
	app   domain.Appender
	batch int
	pol   Policy
	log   *logger.Logger
}

// NewRowsLoader builds a row loader over app
func NewRowsLoader(app domain.Appender, batch int, pol Policy) *RowsLoader {
	if batch <= 0 {
		batch = DefaultRowBatch
	}
	return &RowsLoader{app: app, batch: batch, pol: pol, log: logger.Named("load")}
}

// Load implements domain.Loader
func (l *RowsLoader) Load(ctx context.Context, batch domain.DayBatch) (domain.DayLoad, error) {
	return loadDay(ctx, l.log, l.pol, batch, l.loadTable)
}

func (l *RowsLoader) loadTable(ctx context.Context, t domain.Table, path string, res *domain.TableLoad) error {
	res.Attempts = 1
	f, err := os.Open(path)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeLoad, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	var added int64
	err = l.app.Table(ctx, t.Name, func(add domain.AddRows) error {
		return l.stream(f, t, path, add, &added)
	})
	if err != nil {
		if !l.app.Atomic() && added > 0 {
			res.Rows, res.Partial = added, true
		}
		return err
	}
	res.Rows = added
	return nil
}

// stream decodes the CSV at f and hands it to add in batches of l.batch rows
func (l *RowsLoader) stream(f io.Reader, t domain.Table, path string, add domain.AddRows, added *int64) error {
	cols := t.ColumnNames()
	r := csv.NewReader(f)
	r.FieldsPerRecord = len(t.Columns)
	r.ReuseRecord = true

	buf := make([][]any, 0, l.batch)
	flush := func() error {
		if len(buf) == 0 {
			return nil
		}
		n, err := add(cols, buf)
		*added += n
		buf = buf[:0]
		if err != nil {
			return perr.Wrapf(err, perr.ErrorCodeLoad, "append %s", t.Name)
		}
		return nil
	}

	line := 0
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return perr.Wrapf(err, perr.ErrorCodeLoad, "read %s", path)
		}
		line++
		vals := make([]any, len(rec))
		for i, field := range rec {
			c := t.Columns[i]
			if (c.Type == domain.Text || c.Type == domain.TextArray) && pstrings.HasNUL(field) {
				field = pstrings.StripNUL(field)
			}
			v, err := sink.Decode(field, c.Type)
			if err != nil {
				return perr.WithField(perr.Wrapf(err, perr.ErrorCodeLoad, "%s line %d", path, line), c.Name)
			}
			vals[i] = v
		}
		buf = append(buf, vals)
		if len(buf) >= l.batch {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}
