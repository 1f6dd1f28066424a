package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/reelmatch/reelmatch/internal/recommend"
)

func newRecommendCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "recommend <title>",
		Short: "Print the movies most similar to a title",
		Example: `  reelmatch recommend "The Dark Knight"
  reelmatch recommend Inception --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService(opts.cfg)
			if err != nil {
				return err
			}
			movies, err := svc.Recommend(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), movies)
			}
			if len(movies) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No movie titled %q in the catalog\n", args[0])
				return nil
			}
			printMovies(cmd.OutOrStdout(), movies, true)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newDetailsCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "details <tmdb-id>",
		Short:   "Print TMDb details for a movie",
		Example: `  reelmatch details 27205`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid movie id %q: %w", args[0], err)
			}
			svc, err := newService(opts.cfg)
			if err != nil {
				return err
			}
			d := svc.GetDetails(cmd.Context(), id)
			if asJSON {
				return printJSON(cmd.OutOrStdout(), d)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Title:        %s\n", d.Title)
			fmt.Fprintf(out, "Year:         %s\n", d.Year)
			fmt.Fprintf(out, "Rating:       %s\n", d.Rating)
			fmt.Fprintf(out, "Poster:       %s\n", d.Poster)
			fmt.Fprintf(out, "Cast:         %s\n", strings.Join(d.Cast, ", "))
			fmt.Fprintf(out, "Status:       %s\n", d.Status)
			fmt.Fprintf(out, "\n%s\n", d.Description)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "search <query>",
		Short:   "Find catalog titles containing a substring (case-insensitive)",
		Example: `  reelmatch search knight`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService(opts.cfg)
			if err != nil {
				return err
			}
			movies, err := svc.Search(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), movies)
			}
			printMovies(cmd.OutOrStdout(), movies, false)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newBrowseCmd(opts *rootOptions) *cobra.Command {
	var (
		n      int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:     "browse",
		Short:   "Print a random sample of catalog movies",
		Example: `  reelmatch browse -n 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("n") {
				n = opts.cfg.Recommend.BrowseSize
			}
			svc, err := newService(opts.cfg)
			if err != nil {
				return err
			}
			movies, err := svc.Browse(cmd.Context(), n)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), movies)
			}
			printMovies(cmd.OutOrStdout(), movies, false)
			return nil
		},
	}
	cmd.Flags().IntVarP(&n, "n", "n", recommend.DefaultBrowseSize, "Number of movies")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func printMovies(w io.Writer, movies []recommend.EnrichedMovie, withScore bool) {
	for i, m := range movies {
		year := recommend.NotAvailable
		if m.Year != nil {
			year = strconv.Itoa(*m.Year)
		}
		line := fmt.Sprintf("%2d. %s (%s)", i+1, m.Title, year)
		if withScore {
			line += fmt.Sprintf("  score=%.3f", m.Score)
		}
		fmt.Fprintf(w, "%s\n    %s\n", line, m.Poster)
	}
}

func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
