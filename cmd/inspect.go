package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/reelmatch/reelmatch/internal/catalog"
	"github.com/reelmatch/reelmatch/internal/similarity"
)

func newInspectCmd(opts *rootOptions) *cobra.Command {
	var (
		dir   string
		title string
		k     int
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Validate a built catalog and print its manifest",
		Long: `Loads the catalog artifacts without falling back to the sample catalog,
so a shape or checksum problem is reported as an error. Prints the manifest
and similarity statistics recomputed from the matrix.`,
		Example: `  # Inspect the configured catalog directory
  reelmatch inspect

  # Show the raw neighbor rows for one title
  reelmatch inspect --title Avatar -k 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				dir = opts.cfg.Data.CatalogDir
			}
			c, err := catalog.Load(dir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Catalog %s: %d movies, matrix %dx%d\n", dir, c.Len(), c.Matrix.Rows(), c.Matrix.Cols())
			fmt.Fprintln(out, strings.Repeat("=", 80))

			if c.Manifest != nil {
				data, err := yaml.Marshal(c.Manifest)
				if err != nil {
					return fmt.Errorf("failed to marshal manifest: %w", err)
				}
				fmt.Fprint(out, string(data))
				fmt.Fprintln(out, strings.Repeat("-", 80))
			}

			summary := similarity.Summarize(c.Matrix)
			data, err := yaml.Marshal(summary)
			if err != nil {
				return fmt.Errorf("failed to marshal summary: %w", err)
			}
			fmt.Fprint(out, string(data))

			if title == "" {
				return nil
			}
			row := -1
			for i, r := range c.Records {
				if r.Title == title {
					row = i
					break
				}
			}
			if row < 0 {
				return fmt.Errorf("title %q not in catalog", title)
			}
			fmt.Fprintln(out, strings.Repeat("-", 80))
			fmt.Fprintf(out, "Row %d: %s (id %d)\n", row, title, c.Records[row].ExternalID)
			for _, n := range c.Index().Neighbors(row, k) {
				fmt.Fprintf(out, "  %5d  %.4f  %s\n", n.Index, n.Score, c.Records[n.Index].Title)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Catalog directory (default: data.catalog_dir)")
	cmd.Flags().StringVar(&title, "title", "", "Print nearest neighbors of this title")
	cmd.Flags().IntVarP(&k, "k", "k", 10, "Neighbors to print with --title")

	return cmd
}
