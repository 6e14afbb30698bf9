package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/ark/pkg/ark/rules"
	"github.com/jamesainslie/ark/pkg/ark/types"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the category catalog",
	Long: `Print every built-in category with its folder name, whether the current
configuration and flags harvest it, its effective minimum size and its
extensions.`,
	Args: cobra.NoArgs,
	RunE: runCategories,
}

func init() {
	rootCmd.AddCommand(categoriesCmd)
}

func runCategories(cmd *cobra.Command, _ []string) error {
	rule, err := buildRule(currentConfig())
	if err != nil {
		return err
	}
	return writeCategories(cmd.OutOrStdout(), rule)
}

// writeCategories prints the catalog as seen through rule.
func writeCategories(w io.Writer, rule *rules.Rule) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "KEY\tFOLDER\tON\tMIN SIZE\tEXTENSIONS")

	for _, cat := range rules.Catalog {
		on, minSize := "-", types.FormatSize(cat.DefaultMinSize)
		for _, ext := range cat.Extensions {
			if rule.Wants(ext) && rule.Category(ext) == cat.Name {
				on, minSize = "yes", types.FormatSize(rule.MinSize(ext))
				break
			}
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			cat.Key, cat.Name, on, minSize, strings.Join(cat.Extensions, " "))
	}

	var custom []string
	for _, ext := range rule.Extensions() {
		if rule.Category(ext) == types.DefaultCategory {
			custom = append(custom, ext)
		}
	}
	if len(custom) > 0 {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			"custom", types.DefaultCategory, "yes", types.FormatSize(0), strings.Join(custom, " "))
	}

	return tw.Flush()
}
