// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/kortsvar/internal/convert"
	"github.com/pdiddy/kortsvar/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert the kortsvar transcript into the question dataset",
	Long: `Convert parses the raw transcript, copies answers between sibling
sub-questions where exactly one is answered, matches figure images by file
name, normalizes each opgave title to a category and writes the dataset.

Questions that mention a figure without a matched image, and images no
question used, are listed for review. With --report the same information
is written to an XLSX workbook. With --watch the conversion reruns whenever
the transcript or the image directory changes.`,
	RunE: runConvert,
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := convertConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if viper.GetBool("convert.watch") {
		return convert.Watch(ctx, cfg, cmd.OutOrStdout(), convert.DefaultDebounce, nil)
	}

	_, err = convert.Run(ctx, cfg, cmd.OutOrStdout())
	return err
}

func convertConfig() (types.ConvertConfig, error) {
	cfg := types.ConvertConfig{
		InputPath:   viper.GetString("convert.input"),
		ImagesDir:   viper.GetString("convert.images"),
		RootDir:     viper.GetString("convert.root"),
		OutputPath:  viper.GetString("convert.output"),
		Format:      types.OutputFormat(viper.GetString("convert.format")),
		AliasesPath: viper.GetString("convert.aliases"),
		ReportPath:  viper.GetString("convert.report"),
		MaxListed:   viper.GetInt("convert.max_listed"),
	}
	switch cfg.Format {
	case "", types.FormatJSON, types.FormatYAML:
	default:
		return cfg, fmt.Errorf("unsupported format %q: use json or yaml", cfg.Format)
	}
	return cfg, nil
}

func init() {
	convertCmd.Flags().String("input", "rawdata-kortsvar", "path to the raw kortsvar transcript")
	convertCmd.Flags().String("images", "billeder/opgaver", "directory with figure images")
	convertCmd.Flags().String("root", ".", "record image paths relative to this directory (empty keeps --images as given)")
	convertCmd.Flags().String("output", "data/kortsvar.json", "destination for the dataset")
	convertCmd.Flags().String("format", "", "dataset format: json or yaml (default: from --output extension)")
	convertCmd.Flags().String("aliases", "", "YAML file with extra categories and aliases")
	convertCmd.Flags().String("report", "", "also write an XLSX review workbook to this path")
	convertCmd.Flags().Int("max-listed", 20, "entries printed per diagnostic list")
	convertCmd.Flags().Bool("watch", false, "rerun on changes to the transcript or images")

	for key, flag := range map[string]string{
		"convert.input":      "input",
		"convert.images":     "images",
		"convert.root":       "root",
		"convert.output":     "output",
		"convert.format":     "format",
		"convert.aliases":    "aliases",
		"convert.report":     "report",
		"convert.max_listed": "max-listed",
		"convert.watch":      "watch",
	} {
		bindFlag(convertCmd, key, flag)
	}

	rootCmd.AddCommand(convertCmd)
}
