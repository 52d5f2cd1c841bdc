// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/kortsvar/internal/archive"
	"github.com/pdiddy/kortsvar/pkg/types"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Index converted datasets for search and export",
	Long: `Archive keeps converted datasets in a local SQLite database with full-text
search over prompts and answers. Use subcommands to ingest datasets, query
them, or export a filtered subset.`,
}

// --- ingest subcommand ---

var archiveIngestCmd = &cobra.Command{
	Use:   "ingest [dataset...]",
	Short: "Load converted datasets into the archive",
	Long: `Ingest reads JSON or YAML datasets written by convert and stores their
questions. A dataset unchanged since its last ingest is skipped; a changed
one replaces its earlier questions. Without arguments the configured
convert output is ingested.`,
	RunE: runArchiveIngest,
}

func runArchiveIngest(cmd *cobra.Command, args []string) error {
	paths := args
	if len(paths) == 0 {
		paths = []string{viper.GetString("convert.output")}
	}

	store, err := archive.NewStore(archiveConfig())
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Ingest(context.Background(), paths, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d dataset(s) failed ingest", summary.Failed)
	}
	return nil
}

// --- retrieve subcommand ---

var archiveRetrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Search the archive with full-text queries and filters",
	Long: `Retrieve searches archived questions using FTS5 full-text search over
prompts and answers, structured filters (year, category, opgave, label),
or both.`,
	RunE: runArchiveRetrieve,
}

func runArchiveRetrieve(cmd *cobra.Command, args []string) error {
	opts := queryOptsFromFlags(cmd, args)
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide a search query, --year, --category, --opgave, or --label")
	}

	store, err := archive.NewStore(archiveConfig())
	if err != nil {
		return err
	}
	defer store.Close()

	results, err := store.Retrieve(context.Background(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatRetrieveOutput(cmd.OutOrStdout(), results, jsonOutput)
}

func formatRetrieveOutput(w io.Writer, results []archive.QueryResult, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}

	fmt.Fprintf(w, "%-12s  %-4s  %-6s  %-24s  %s\n", "ID", "Year", "Opgave", "Category", "Prompt")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	for _, r := range results {
		fmt.Fprintf(w, "%-12s  %-4d  %-6s  %-24s  %s\n",
			r.ID, r.Year, fmt.Sprintf("%d%s", r.Opgave, r.LabelString()),
			truncate(r.Category, 24), truncate(r.Prompt, 46))
	}

	fmt.Fprintf(w, "\n%d results\n", len(results))
	return nil
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// --- export subcommand ---

var archiveExportCmd = &cobra.Command{
	Use:   "export [query]",
	Short: "Export archived questions to YAML or JSON",
	Long: `Export writes all archived questions (or a filtered subset) to
export.yaml or export.json in the archive directory. It accepts the same
filter flags as retrieve.`,
	RunE: runArchiveExport,
}

func runArchiveExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	store, err := archive.NewStore(archiveConfig())
	if err != nil {
		return err
	}
	defer store.Close()

	opts := queryOptsFromFlags(cmd, args)

	var path string
	switch types.OutputFormat(format) {
	case types.FormatYAML, "":
		path, err = store.ExportYAML(context.Background(), opts)
	case types.FormatJSON:
		path, err = store.ExportJSON(context.Background(), opts)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", path)
	return nil
}

// --- shared helpers ---

func archiveConfig() types.ArchiveConfig {
	return types.ArchiveConfig{
		ArchiveDir: viper.GetString("archive.dir"),
		MaxResults: viper.GetInt("archive.max_results"),
	}
}

func queryOptsFromFlags(cmd *cobra.Command, args []string) archive.QueryOptions {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}

	year, _ := cmd.Flags().GetInt("year")
	cat, _ := cmd.Flags().GetString("category")
	opgave, _ := cmd.Flags().GetInt("opgave")
	label, _ := cmd.Flags().GetString("label")
	limit, _ := cmd.Flags().GetInt("limit")

	return archive.QueryOptions{
		Query:      queryText,
		Year:       year,
		Category:   cat,
		Opgave:     opgave,
		Label:      label,
		MaxResults: limit,
	}
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("query", "", "full-text search query")
	cmd.Flags().Int("year", 0, "filter by exam year")
	cmd.Flags().String("category", "", "filter by canonical category")
	cmd.Flags().Int("opgave", 0, "filter by opgave number")
	cmd.Flags().String("label", "", "filter by sub-question letter")
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	archiveCmd.PersistentFlags().String("archive-dir", "archive", "directory holding kortsvar.db and exports")
	archiveCmd.PersistentFlags().Int("max-results", 20, "default maximum number of query results")
	if err := viper.BindPFlag("archive.dir", archiveCmd.PersistentFlags().Lookup("archive-dir")); err != nil {
		panic(err)
	}
	if err := viper.BindPFlag("archive.max_results", archiveCmd.PersistentFlags().Lookup("max-results")); err != nil {
		panic(err)
	}

	addFilterFlags(archiveRetrieveCmd)
	archiveRetrieveCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	archiveRetrieveCmd.Flags().Bool("json", false, "output results as JSON")

	addFilterFlags(archiveExportCmd)
	archiveExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	archiveCmd.AddCommand(archiveIngestCmd)
	archiveCmd.AddCommand(archiveRetrieveCmd)
	archiveCmd.AddCommand(archiveExportCmd)

	rootCmd.AddCommand(archiveCmd)
}
