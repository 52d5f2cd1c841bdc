// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the kortsvar CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the kortsvar CLI.
var rootCmd = &cobra.Command{
	Use:   "kortsvar",
	Short: "Convert short-answer exam transcripts into a structured dataset",
	Long: `kortsvar turns the plain-text transcript of past short-answer exams into
structured questions: year, session, opgave, sub-question label, prompt,
answer, sources, matched figure images and a normalized category.

Use convert to build the dataset, categories to inspect the category table,
and archive to index datasets for search and export.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./kortsvar.yaml or ~/.config/kortsvar/kortsvar.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("kortsvar")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "kortsvar"))
		}
	}

	viper.SetEnvPrefix("KORTSVAR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// bindFlag ties a flag to a viper key so the value can also come from the
// config file or a KORTSVAR_* environment variable.
func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("binding flag %s: %v", flag, err))
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
