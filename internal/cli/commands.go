package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/av-estimator/engine/internal/estimate"
)

type options struct {
	file       string
	precedence string
	json       bool
}

// NewRootCmd builds the estimatectl command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "estimatectl",
		Short:         "Price and maintain an exported A/V project file",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.file, "file", "f", "", "project file (.json, .yaml or .yml)")
	root.PersistentFlags().StringVar(&opts.precedence, "precedence", "catalog", "scope preferred when a package name matches in both scopes (catalog|project)")
	root.PersistentFlags().BoolVar(&opts.json, "json", false, "print machine-readable JSON")
	_ = root.MarkPersistentFlagRequired("file")

	root.AddCommand(newEstimateCmd(opts), newWhereUsedCmd(opts), newSyncCmd(opts))
	return root
}

func (o *options) load() (*ProjectFile, estimate.Definitions, error) {
	if o.precedence != "catalog" && o.precedence != "project" {
		return nil, estimate.Definitions{}, fmt.Errorf("--precedence must be catalog or project, got %q", o.precedence)
	}
	pf, err := LoadProjectFile(o.file)
	if err != nil {
		return nil, estimate.Definitions{}, err
	}
	return pf, pf.Definitions(estimate.ParsePrecedence(o.precedence)), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newEstimateCmd(opts *options) *cobra.Command {
	var query string
	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Print cost, labor and item count per location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pf, defs, err := opts.load()
			if err != nil {
				return err
			}
			f := pf.Forest()
			title := "Estimate"
			if q := strings.TrimSpace(query); q != "" {
				f = estimate.FilterForest(f, q, estimate.DefaultMatcher)
				title = fmt.Sprintf("Estimate matching %q", q)
			}

			locs := make([]estimate.LocationSummary, 0, len(f.Roots))
			for _, root := range f.Roots {
				locs = append(locs, estimate.Breakdown(root, defs))
			}
			total := estimate.AggregateForest(f, defs)

			if opts.json {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"total": total, "locations": locs})
			}
			renderEstimate(cmd.OutOrStdout(), title, total, locs)
			return nil
		},
	}
	cmd.Flags().StringVarP(&query, "q", "q", "", "only count items matching this text")
	return cmd
}

// instanceRow is one where-used hit prepared for display.
type instanceRow struct {
	estimate.InstanceLocation
	Path  string  `json:"path"`
	Qty   float64 `json:"qty"`
	Stale bool    `json:"stale"`
}

func newWhereUsedCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "where-used <package-id>",
		Short: "List the locations holding instances of a package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pf, defs, err := opts.load()
			if err != nil {
				return err
			}
			def, ok := defs.ByID(args[0])
			if !ok {
				return fmt.Errorf("package %q not found", args[0])
			}

			f := pf.Forest()
			idx := f.Index()
			paths := locationPaths(f.Roots)
			found := estimate.FindInstances(f, def.ID, defs)
			rows := make([]instanceRow, 0, len(found))
			for _, hit := range found {
				it := idx[hit.LocationID].Items[hit.ItemIndex]
				rows = append(rows, instanceRow{
					InstanceLocation: hit,
					Path:             paths[hit.LocationID],
					Qty:              it.Qty.Float(),
					Stale:            it.StoredVersion != nil && *it.StoredVersion != def.Version,
				})
			}

			if opts.json {
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"packageId":      def.ID,
					"currentVersion": def.Version,
					"locationCount":  estimate.UsageCount(found),
					"instances":      rows,
				})
			}
			renderUsage(cmd.OutOrStdout(), def, rows)
			return nil
		},
	}
}

func newSyncCmd(opts *options) *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "sync <package-id>",
		Short: "Bring every instance of a package to its current version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				report  estimate.SyncReport
				written bool
			)
			apply := func() error {
				pf, defs, err := opts.load()
				if err != nil {
					return err
				}
				def, ok := defs.ByID(args[0])
				if !ok {
					return fmt.Errorf("package %q not found", args[0])
				}
				synced, rep, err := estimate.SyncInstances(def.ID, def.Version, pf.Forest(), defs)
				if err != nil {
					return err
				}
				report = rep
				if write && report.Changed() {
					pf.Locations = synced.Roots
					if err := writeProjectFile(opts.file, pf); err != nil {
						return err
					}
					written = true
				}
				return nil
			}

			// With --write the file is read, synced and replaced under one lock
			// so that no other writer lands between the read and the rename.
			var err error
			if write {
				err = WithLockedFile(cmd.Context(), opts.file, apply)
			} else {
				err = apply()
			}
			if err != nil {
				return err
			}

			if opts.json {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"report": report, "written": written})
			}
			renderSync(cmd.OutOrStdout(), report, written)
			return nil
		},
	}
	cmd.Flags().BoolVar(&write, "write", false, "save the synced locations back to the file")
	return cmd
}

// locationPaths maps every location id to its display path. A stored path
// wins over the one built from ancestor names.
func locationPaths(roots []estimate.Location) map[string]string {
	out := map[string]string{}
	var walk func(locs []estimate.Location, prefix string)
	walk = func(locs []estimate.Location, prefix string) {
		for _, loc := range locs {
			p := loc.Name
			if prefix != "" {
				p = prefix + " / " + loc.Name
			}
			if loc.Path != "" {
				p = loc.Path
			}
			out[loc.ID] = p
			walk(loc.Children, p)
		}
	}
	walk(roots, "")
	return out
}
