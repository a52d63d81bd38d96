// mkfixture samples a small representative reimbursement Parquet fixture
// from a full claims export: a quota of rows per location code, rows that
// carry an employer, then whatever else fits.
// Usage: go run ./cmd/mkfixture --in testdata/rates.parquet --out testdata/rates-small.parquet --rows 200
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	goparquet "github.com/parquet-go/parquet-go"

	"github.com/gyeh/vobstats/internal/model"
	"github.com/gyeh/vobstats/internal/parquetread"
)

func main() {
	in := flag.String("in", "testdata/rates.parquet", "input parquet")
	out := flag.String("out", "testdata/rates-small.parquet", "output parquet")
	maxRows := flag.Int("rows", 200, "max rows to output")
	perLoc := flag.Int("per-loc", 30, "rows to keep per location code")
	checkOnly := flag.Bool("check", false, "only print stats, don't write")
	flag.Parse()

	reader, err := parquetread.Open(*in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer reader.Close()

	if err := parquetread.ValidateSchema(reader.Schema()); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	byLoc := make(map[string][]*model.ReimbursementRow)
	var withEmployer, general []*model.ReimbursementRow
	locTotals := make(map[string]int)

	total, err := reader.Each(func(_ int64, row *model.ReimbursementRow) error {
		locTotals[row.Loc]++
		if *checkOnly {
			return nil
		}
		switch {
		case len(byLoc[row.Loc]) < *perLoc:
			byLoc[row.Loc] = append(byLoc[row.Loc], row)
		case row.EmployerName != nil && *row.EmployerName != "" && len(withEmployer) < *maxRows/4:
			withEmployer = append(withEmployer, row)
		case len(general) < *maxRows:
			general = append(general, row)
		}
		return nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "read: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Scanned %d rows\n", total)

	if *checkOnly {
		printLocs(locTotals)
		return
	}

	locs := make([]string, 0, len(byLoc))
	for loc := range byLoc {
		locs = append(locs, loc)
	}
	sort.Strings(locs)

	var selected []model.ReimbursementRow
	take := func(rows []*model.ReimbursementRow) {
		for _, r := range rows {
			if len(selected) >= *maxRows {
				return
			}
			selected = append(selected, *r)
		}
	}
	for _, loc := range locs {
		take(byLoc[loc])
	}
	take(withEmployer)
	take(general)

	outFile, err := os.Create(*out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create output: %v\n", err)
		os.Exit(1)
	}
	defer outFile.Close()

	writer := goparquet.NewGenericWriter[model.ReimbursementRow](outFile)
	if _, err := writer.Write(selected); err != nil {
		fmt.Fprintf(os.Stderr, "write: %v\n", err)
		os.Exit(1)
	}
	if err := writer.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "close writer: %v\n", err)
		os.Exit(1)
	}

	written := make(map[string]int)
	for _, r := range selected {
		written[r.Loc]++
	}
	fmt.Printf("Wrote %d rows to %s\n", len(selected), *out)
	printLocs(written)
}

func printLocs(counts map[string]int) {
	locs := make([]string, 0, len(counts))
	for loc := range counts {
		locs = append(locs, loc)
	}
	sort.Strings(locs)
	fmt.Println("Location distribution:")
	for _, loc := range locs {
		fmt.Printf("  %-6s %d\n", loc, counts[loc])
	}
}
