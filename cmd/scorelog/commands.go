package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/scorelog/internal/core"
	"github.com/JonMunkholm/scorelog/internal/entry"
	"github.com/JonMunkholm/scorelog/internal/validation"
)

func addCmd(a *app) *cobra.Command {
	var date, domain, score, note string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a score",
		Example: `  scorelog add --domain phq-9 --score 12 --note "felt tired, but ok"
  scorelog add --domain gad-7 --score 5 --date 2024-01-15`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.svc.AddEntry(cmd.Context(), core.Draft{
				Date:      date,
				DomainKey: domain,
				Score:     score,
				Note:      note,
			})
			if err != nil {
				return userError(err)
			}
			warnUnsaved(cmd, a)
			if a.jsonOut {
				return writeJSON(cmd.OutOrStdout(), e)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added entry %s\n", e.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", time.Now().Format(entry.DateLayout), "assessment date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&domain, "domain", "d", "", "assessment key, see 'scorelog domains'")
	cmd.Flags().StringVarP(&score, "score", "s", "", "score")
	cmd.Flags().StringVarP(&note, "note", "n", "", "optional note")
	cmd.MarkFlagRequired("domain")
	cmd.MarkFlagRequired("score")
	return cmd
}

func deleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.svc.DeleteEntry(cmd.Context(), args[0]); err != nil {
				return userError(err)
			}
			warnUnsaved(cmd, a)
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted entry %s\n", args[0])
			return nil
		},
	}
}

func listCmd(a *app) *cobra.Command {
	var (
		sortBy string
		asc    bool
		domain string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			column, ok := entry.ParseField(sortBy)
			if !ok {
				return fmt.Errorf("unknown sort column %q (one of: %s)", sortBy, fieldNames())
			}
			cfg := entry.SortConfig{Column: column, Direction: entry.Desc}
			if asc {
				cfg.Direction = entry.Asc
			}

			entries := a.svc.Entries(cfg)
			if domain != "" {
				filtered := entries[:0]
				for _, e := range entries {
					if e.DomainKey == domain {
						filtered = append(filtered, e)
					}
				}
				entries = filtered
			}
			if limit > 0 && len(entries) > limit {
				entries = entries[:limit]
			}

			if a.jsonOut {
				return writeJSON(cmd.OutOrStdout(), entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No entries yet. Use 'scorelog add' to create one.")
				return nil
			}
			printEntries(cmd.OutOrStdout(), entries)
			return nil
		},
	}

	cmd.Flags().StringVar(&sortBy, "sort", string(entry.DefaultSort.Column), "sort column")
	cmd.Flags().BoolVar(&asc, "asc", false, "sort ascending")
	cmd.Flags().StringVarP(&domain, "domain", "d", "", "only show this assessment")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "number of entries to show (0 for all)")
	return cmd
}

func exportCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all entries as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.OpenFile(output, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			if err := a.svc.ExportCSV(cmd.Context(), w); err != nil {
				return userError(err)
			}
			if output != "" && output != "-" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d entries to %s\n", a.svc.Count(), output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func importCmd(a *app) *cobra.Command {
	var failedOut string

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Merge entries from a CSV file",
		Long: `Merge entries from a CSV file written by 'scorelog export'.

Rows whose id already exists are skipped, as are rows that fail validation.
Use "-" to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var src core.Source = core.FileSource{Path: args[0]}
			if args[0] == "-" {
				src = core.NewReaderSource("stdin", cmd.InOrStdin(), -1)
			}

			res, err := a.svc.ImportCSV(cmd.Context(), src)
			if err != nil {
				return userError(err)
			}

			if res.Imported > 0 {
				warnUnsaved(cmd, a)
			}
			if failedOut != "" && len(res.Failed) > 0 {
				if err := writeFailedRows(failedOut, res.Failed); err != nil {
					return err
				}
			}

			if a.jsonOut {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			printImportResult(cmd.OutOrStdout(), res)
			return nil
		},
	}

	cmd.Flags().StringVar(&failedOut, "failed-out", "", "write skipped rows and reasons to this CSV file")
	return cmd
}

func writeFailedRows(path string, rows []core.FailedRow) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if err := core.EncodeFailedRows(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func validateCmd(a *app) *cobra.Command {
	var id, date, domain, score, note string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check entry values without saving them",
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == "" {
				id = entry.NewID()
			}
			res := a.svc.Validate(validation.Record{
				string(entry.FieldID):        id,
				string(entry.FieldDate):      core.NormalizeDate(date),
				string(entry.FieldDomainKey): domain,
				string(entry.FieldScore):     scoreValue(score),
				string(entry.FieldNote):      note,
			})

			if a.jsonOut {
				if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
					return err
				}
			} else if res.Valid {
				fmt.Fprintln(cmd.OutOrStdout(), "Valid")
			}
			if !res.Valid {
				return userError(&core.InvalidEntryError{Result: res})
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "entry id (default: a new id)")
	cmd.Flags().StringVar(&date, "date", "", "assessment date")
	cmd.Flags().StringVarP(&domain, "domain", "d", "", "assessment key")
	cmd.Flags().StringVarP(&score, "score", "s", "", "score")
	cmd.Flags().StringVarP(&note, "note", "n", "", "note")
	return cmd
}

// scoreValue parses s the way imports do, keeping unparseable text for the
// numeric rule to report.
func scoreValue(s string) any {
	if f, ok := core.ParseScore(s); ok {
		return f
	}
	return s
}

func domainsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "domains",
		Short: "List known assessments",
		RunE: func(cmd *cobra.Command, args []string) error {
			provider := a.svc.Catalog()
			keys := provider.Keys()

			if a.jsonOut {
				domains := make([]any, 0, len(keys))
				for _, k := range keys {
					d, _ := provider.Lookup(k)
					domains = append(domains, d)
				}
				return writeJSON(cmd.OutOrStdout(), domains)
			}

			w := cmd.OutOrStdout()
			for _, k := range keys {
				d, _ := provider.Lookup(k)
				fmt.Fprintf(w, "%-8s %-40s %g-%g\n", d.Key, d.Name, d.MinScore, d.MaxScore)
			}
			return nil
		},
	}
}

func langCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "lang [code]",
		Short: "Show or set the display language",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if err := a.svc.SetLanguage(cmd.Context(), strings.ToLower(args[0])); err != nil {
					if errors.Is(err, core.ErrUnsupportedLanguage) {
						return fmt.Errorf("%w (one of: %s)", err, strings.Join(core.SupportedLanguages, ", "))
					}
					return userError(err)
				}
				warnUnsaved(cmd, a)
			}
			if a.jsonOut {
				return writeJSON(cmd.OutOrStdout(), map[string]string{"language": a.svc.Language()})
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.svc.Language())
			return nil
		},
	}
}

func clearCmd(a *app) *cobra.Command {
	var yes, all bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every entry",
		Long: `Delete every entry. With --all, every stored scorelog key is removed,
including the display language.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to clear without --yes")
			}
			if all {
				if err := a.svc.Reset(cmd.Context()); err != nil {
					return userError(err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "All stored data removed")
				return nil
			}

			n, err := a.svc.ClearEntries(cmd.Context())
			if err != nil {
				return userError(err)
			}
			warnUnsaved(cmd, a)
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d entries\n", n)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm deletion")
	cmd.Flags().BoolVar(&all, "all", false, "also remove settings")
	return cmd
}

func statsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show entry counts and recent errors",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats := collectStats(a.svc)
			if a.jsonOut {
				return writeJSON(cmd.OutOrStdout(), stats)
			}
			printStats(cmd.OutOrStdout(), stats)
			return nil
		},
	}
}

const unsavedNotice = "Warning: storage is unavailable, this change was not saved"

// warnUnsaved tells the user a change only exists in memory. With --json
// the notice goes to stderr so stdout stays parseable.
func warnUnsaved(cmd *cobra.Command, a *app) {
	if a.svc.StorageAvailable() {
		return
	}
	w := cmd.OutOrStdout()
	if a.jsonOut {
		w = cmd.ErrOrStderr()
	}
	fmt.Fprintln(w, unsavedNotice)
}

func fieldNames() string {
	names := make([]string, len(entry.Fields))
	for i, f := range entry.Fields {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}
