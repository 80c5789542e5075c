package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"ghloader/internal/services/ingest/domain"

	"github.com/olekukonko/tablewriter"
)

// printSummary renders the run counters and every table load result
func printSummary(w io.Writer, rep domain.RunReport) {
	c := rep.Counters
	fmt.Fprintf(w, "\nRun %s: %d buckets in %s\n", rep.RunID, rep.Buckets, rep.Elapsed.Round(time.Millisecond))

	totals := tablewriter.NewWriter(w)
	totals.SetHeader([]string{"Lines", "Emitted", "Duplicates", "Malformed", "Unknown"})
	totals.Append([]string{itoa(c.Lines), itoa(c.Emitted), itoa(c.Duplicates), itoa(c.Malformed), itoa(c.Unknown)})
	totals.Render()

	if len(rep.Days) == 0 {
		return
	}
	loads := tablewriter.NewWriter(w)
	loads.SetHeader([]string{"Day", "Table", "Rows", "Attempts", "Recovered", "Partial", "Error"})
	for _, d := range rep.Days {
		if d.LeaseHeld {
			loads.Append([]string{d.Day, "*", "0", "0", "false", "false", "lease held by another run"})
			continue
		}
		for _, t := range d.Tables {
			loads.Append([]string{d.Day, t.Table, itoa(t.Rows), strconv.Itoa(t.Attempts), strconv.FormatBool(t.Recovered), strconv.FormatBool(t.Partial), t.Err})
		}
	}
	loads.Render()
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
