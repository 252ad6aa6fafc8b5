package main

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/goccy/go-json"

	"github.com/JonMunkholm/scorelog/internal/core"
	"github.com/JonMunkholm/scorelog/internal/entry"
	"github.com/JonMunkholm/scorelog/internal/errlog"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printEntries(w io.Writer, entries []entry.LogEntry) {
	fmt.Fprintf(w, "%-36s  %-10s  %-8s  %6s  %s\n", "ID", "DATE", "DOMAIN", "SCORE", "NOTE")
	for _, e := range entries {
		fmt.Fprintf(w, "%-36s  %-10s  %-8s  %6s  %s\n",
			e.ID, e.Date, e.DomainKey, entry.FormatScore(e.Score), truncate(e.Note, 50))
	}
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func printImportResult(w io.Writer, res core.ImportResult) {
	fmt.Fprintf(w, "Imported %d of %d rows from %s (%d skipped)\n",
		res.Imported, res.TotalRows, res.FileName, res.Skipped)
	if res.Truncated {
		fmt.Fprintln(w, "Row limit reached; remaining rows were not read")
	}
	for _, f := range res.Failed {
		fmt.Fprintf(w, "  line %d: %s\n", f.LineNumber, f.Reason)
	}
}

type statsReport struct {
	Entries          int            `json:"entries"`
	ByDomain         map[string]int `json:"byDomain"`
	Language         string         `json:"language"`
	StorageAvailable bool           `json:"storageAvailable"`
	Errors           errlog.Stats   `json:"errors"`
}

func collectStats(svc *core.Service) statsReport {
	report := statsReport{
		ByDomain:         map[string]int{},
		Language:         svc.Language(),
		StorageAvailable: svc.StorageAvailable(),
		Errors:           svc.ErrorStats(),
	}
	for _, e := range svc.Entries(entry.DefaultSort) {
		report.Entries++
		report.ByDomain[e.DomainKey]++
	}
	return report
}

func printStats(w io.Writer, s statsReport) {
	fmt.Fprintf(w, "Entries:  %d\n", s.Entries)
	for _, k := range sortedKeys(s.ByDomain) {
		fmt.Fprintf(w, "  %-8s %d\n", k, s.ByDomain[k])
	}
	fmt.Fprintf(w, "Language: %s\n", s.Language)
	if s.StorageAvailable {
		fmt.Fprintln(w, "Storage:  ok")
	} else {
		fmt.Fprintln(w, "Storage:  unavailable, changes are not saved")
	}
	fmt.Fprintf(w, "Errors:   %d recorded this run\n", s.Errors.TotalSeen)
	for _, r := range s.Errors.Recent {
		fmt.Fprintf(w, "  %s [%s] %s\n", r.Timestamp.Format("15:04:05"), r.Category, r.Message)
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
