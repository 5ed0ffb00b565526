package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	templatesFile string
	renderKey     string
	renderFields  []string
)

var renderCmd = &cobra.Command{
	Use:     "render",
	Short:   "Render a lyric template to stdout",
	Example: `  server render --template funny-birthday --field name=Jake --field age=30`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fields, err := parseFields(renderFields)
		if err != nil {
			return err
		}

		catalog, err := loadCatalog(templatesFile)
		if err != nil {
			return err
		}

		out, err := catalog.Render(renderKey, fields)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List the available song templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := loadCatalog(templatesFile)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "KEY\tNAME\tSTYLE\tPRICE\tDELIVERY")
		for _, t := range catalog.Templates() {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%s\n", t.Key, t.Name, t.Style, t.Price, t.DeliveryTime)
		}
		return tw.Flush()
	},
}

func init() {
	for _, c := range []*cobra.Command{renderCmd, templatesCmd} {
		c.Flags().StringVar(&templatesFile, "templates-file", os.Getenv("TEMPLATES_FILE"), "YAML template catalog (defaults to the built-in one)")
	}
	renderCmd.Flags().StringVarP(&renderKey, "template", "t", "", "template key")
	renderCmd.Flags().StringArrayVarP(&renderFields, "field", "f", nil, "field value as name=value (repeatable)")
	_ = renderCmd.MarkFlagRequired("template")
}

func parseFields(pairs []string) (map[string]string, error) {
	fields := make(map[string]string, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid --field %q, want name=value", p)
		}
		fields[strings.TrimSpace(name)] = value
	}
	return fields, nil
}
