package repo

import (
	"context"
	"os"
	"time"

	perr "ghloader/internal/platform/errors"
	"ghloader/internal/platform/logger"
	"ghloader/internal/services/ingest/domain"
)

// Policy is the cleanup and failure behavior shared by every load strategy
type Policy struct {
	// KeepCSV keeps a day's CSV files after a successful load
	KeepCSV bool
	// FailOnTableError turns a per table failure into a run-aborting LoadError
	FailOnTableError bool
}

type tableLoadFn func(ctx context.Context, t domain.Table, path string, res *domain.TableLoad) error

// loadDay drives fn over the catalogue tables present in batch
// A failed table is logged and kept on disk; other tables still load
func loadDay(ctx context.Context, log *logger.Logger, pol Policy, batch domain.DayBatch, fn tableLoadFn) (domain.DayLoad, error) {
	out := domain.DayLoad{Day: batch.Day}
	for _, t := range domain.Tables {
		path, ok := batch.Files[t.Name]
		if !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return out, err
		}
		res := domain.TableLoad{Table: t.Name}
		if batch.Rows[t.Name] == 0 {
			out.Tables = append(out.Tables, res)
			removeCSV(log, pol, path)
			continue
		}

		start := time.Now()
		err := fn(ctx, t, path, &res)
		res.Elapsed = time.Since(start)
		if err != nil {
			res.Err = err.Error()
			out.Tables = append(out.Tables, res)
			log.Error().Err(err).Str("day", batch.Day).Str("table", t.Name).Str("path", path).
				Int("attempts", res.Attempts).Msg("table load failed")
			if pol.FailOnTableError {
				return out, perr.Wrapf(err, perr.ErrorCodeLoad, "load %s for %s", t.Name, batch.Day)
			}
			continue
		}
		out.Tables = append(out.Tables, res)
		log.Info().Str("day", batch.Day).Str("table", t.Name).Int64("rows", res.Rows).
			Bool("recovered", res.Recovered).Dur("elapsed", res.Elapsed).Msg("table loaded")
		removeCSV(log, pol, path)
	}
	return out, nil
}

func removeCSV(log *logger.Logger, pol Policy, path string) {
	if pol.KeepCSV {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("path", path).Msg("could not remove csv")
	}
}
