// Package sink owns the per table CSV files of the day being normalized
package sink

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	perr "ghloader/internal/platform/errors"
	"ghloader/internal/platform/logger"
	"ghloader/internal/services/ingest/domain"
)

// FileName is the CSV name of table for day
func FileName(table, day string) string { return table + "-" + day + ".csv" }

type tableFile struct {
	path  string
	f     *os.File
	bw    *bufio.Writer
	cw    *csv.Writer
	width int
	rows  int64
}

// Rotator holds one open CSV writer per catalogue table for the active day
// It is not safe for concurrent use; the normalize stage owns it
type Rotator struct {
	dir    string
	day    string
	files  map[string]*tableFile
	log    *logger.Logger
	record []string
}

// NewRotator writes day files under dir
func NewRotator(dir string) *Rotator {
	return &Rotator{dir: dir, log: logger.Named("sink")}
}

// Active returns the open day, if any
func (r *Rotator) Active() (string, bool) { return r.day, r.files != nil }

// Open creates a fresh file per table for day, truncating leftovers of an interrupted run
func (r *Rotator) Open(day string) error {
	if r.files != nil {
		return perr.Newf(perr.ErrorCodeUnknown, "sink: day %s still open while opening %s", r.day, day)
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "sink: create %s", r.dir)
	}
	files := make(map[string]*tableFile, len(domain.Tables))
	for _, t := range domain.Tables {
		p := filepath.Join(r.dir, FileName(t.Name, day))
		f, err := os.Create(p)
		if err != nil {
			for _, tf := range files {
				_ = tf.f.Close()
				_ = os.Remove(tf.path)
			}
			return perr.Wrapf(err, perr.ErrorCodeUnknown, "sink: create %s", p)
		}
		bw := bufio.NewWriterSize(f, 256<<10)
		files[t.Name] = &tableFile{path: p, f: f, bw: bw, cw: csv.NewWriter(bw), width: len(t.Columns)}
	}
	r.day, r.files = day, files
	r.log.Debug().Str("day", day).Msg("day opened")
	return nil
}

// WriteRow appends one row to table's file
func (r *Rotator) WriteRow(table string, row domain.Row) error {
	if r.files == nil {
		return perr.Newf(perr.ErrorCodeUnknown, "sink: write to %s with no open day", table)
	}
	tf, ok := r.files[table]
	if !ok {
		return perr.Newf(perr.ErrorCodeUnknown, "sink: unknown table %s", table)
	}
	if len(row) != tf.width {
		return perr.Newf(perr.ErrorCodeUnknown, "sink: %s row has %d values, want %d", table, len(row), tf.width)
	}
	r.record = r.record[:0]
	for i, v := range row {
		s, err := Encode(v)
		if err != nil {
			return perr.WithField(perr.Wrap(err, perr.ErrorCodeUnknown, "sink: encode"), fmt.Sprintf("%s[%d]", table, i))
		}
		r.record = append(r.record, s)
	}
	if err := tf.cw.Write(r.record); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "sink: write %s", tf.path)
	}
	tf.rows++
	return nil
}

// Close flushes and closes every file of the active day and returns the finalized batch
// The rotator accepts no writes until the next Open
func (r *Rotator) Close() (domain.DayBatch, error) {
	if r.files == nil {
		return domain.DayBatch{}, perr.Newf(perr.ErrorCodeUnknown, "sink: close with no open day")
	}
	b := domain.DayBatch{
		Day:   r.day,
		Files: make(map[string]string, len(r.files)),
		Rows:  make(map[string]int64, len(r.files)),
	}
	var first error
	for name, tf := range r.files {
		tf.cw.Flush()
		err := tf.cw.Error()
		if err == nil {
			err = tf.bw.Flush()
		}
		if cerr := tf.f.Close(); err == nil {
			err = cerr
		}
		if err != nil && first == nil {
			first = perr.Wrapf(err, perr.ErrorCodeUnknown, "sink: finalize %s", tf.path)
		}
		b.Files[name] = tf.path
		b.Rows[name] = tf.rows
	}
	r.files = nil
	r.log.Debug().Str("day", b.Day).Msg("day closed")
	return b, first
}

// Abort closes and removes the files of the active day
func (r *Rotator) Abort() {
	for _, tf := range r.files {
		_ = tf.f.Close()
		_ = os.Remove(tf.path)
	}
	r.files = nil
}
