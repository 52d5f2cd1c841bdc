// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/kortsvar/internal/category"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories [title...]",
	Short: "List the category table or normalize titles",
	Long: `Categories prints the canonical categories and their aliases, including
any added by --aliases. Given titles as arguments, it prints the category
each title normalizes to instead.`,
	RunE: runCategories,
}

func runCategories(cmd *cobra.Command, args []string) error {
	aliases := viper.GetString("categories.aliases")
	if aliases == "" {
		aliases = viper.GetString("convert.aliases")
	}
	cats, err := category.LoadFile(aliases)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if len(args) > 0 {
		for _, title := range args {
			c, err := cats.Normalize(category.StripTopicPrefix(title))
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s\t%s\n", title, c)
		}
		return nil
	}

	fmt.Fprintln(out, "Categories:")
	for _, c := range cats.Categories() {
		fmt.Fprintf(out, "  %s\n", c)
	}

	fmt.Fprintln(out, "\nAliases:")
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, a := range cats.Aliases() {
		fmt.Fprintf(tw, "  %s\t%s\n", a.Alias, a.Category)
	}
	return tw.Flush()
}

func init() {
	categoriesCmd.Flags().String("aliases", "", "YAML file with extra categories and aliases")
	bindFlag(categoriesCmd, "categories.aliases", "aliases")

	rootCmd.AddCommand(categoriesCmd)
}
