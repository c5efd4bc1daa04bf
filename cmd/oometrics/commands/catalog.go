package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/oometrics/pkg/catalog"
	"github.com/Sumatoshi-tech/oometrics/pkg/report"
)

func newCatalogCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the available metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeCatalog(cmd.OutOrStdout(), catalog.Describe(catalog.Default()), format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", report.FormatText, "output format: text, json, yaml")

	return cmd
}

func writeCatalog(w io.Writer, entries []catalog.Entry, format string) error {
	switch format {
	case report.FormatText, "":
		tw := table.NewWriter()
		tw.SetOutputMirror(w)
		tw.SetStyle(table.StyleLight)
		tw.AppendHeader(table.Row{"Metric", "Name", "Category", "Versions", "Description"})

		for _, entry := range entries {
			tw.AppendRow(table.Row{
				entry.Name,
				entry.DisplayName,
				entry.Category,
				strings.Join(entry.Versions, ", "),
				entry.Description,
			})
		}

		tw.Render()

		return nil
	case report.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(entries)
	case report.FormatYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()

		return enc.Encode(entries)
	default:
		return fmt.Errorf("%w: %q", report.ErrUnknownFormat, format)
	}
}
