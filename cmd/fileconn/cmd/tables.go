package cmd

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/jedib0t/go-pretty/table"
	"github.com/spf13/cobra"

	"github.com/treeverse/fileconn/connection"
	tbl "github.com/treeverse/fileconn/table"
)

const defaultRowLimit = 50

var csvCmd = &cobra.Command{
	Use:   "csv <path>",
	Short: "Print a CSV file as a table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		columns, _ := cmd.Flags().GetStringSlice("columns")
		delimiter, _ := cmd.Flags().GetString("delimiter")
		noHeader, _ := cmd.Flags().GetBool("no-header")
		limit, _ := cmd.Flags().GetInt("limit")

		opts := tbl.CSVOptions{Columns: columns, NoHeader: noHeader}
		if delimiter != "" {
			r, size := utf8.DecodeRuneInString(delimiter)
			if size != len(delimiter) {
				return fmt.Errorf("delimiter must be a single character: %q", delimiter)
			}
			opts.Delimiter = r
		}
		return withConnection(func(c *connection.Connection) error {
			t, err := c.ReadCSV(cmd.Context(), args[0], connection.WithCSVOptions(opts))
			if err != nil {
				return err
			}
			printTable(cmd.OutOrStdout(), t, limit)
			return nil
		})
	},
}

var parquetCmd = &cobra.Command{
	Use:   "parquet <path>",
	Short: "Print a Parquet file as a table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		columns, _ := cmd.Flags().GetStringSlice("columns")
		limit, _ := cmd.Flags().GetInt("limit")
		return withConnection(func(c *connection.Connection) error {
			t, err := c.ReadParquet(cmd.Context(), args[0], connection.WithParquetOptions(tbl.ParquetOptions{Columns: columns}))
			if err != nil {
				return err
			}
			printTable(cmd.OutOrStdout(), t, limit)
			return nil
		})
	},
}

// printTable renders up to limit rows; a non positive limit prints all of them.
func printTable(w io.Writer, t *tbl.Table, limit int) {
	pw := table.NewWriter()
	pw.SetOutputMirror(w)
	pw.SetStyle(table.StyleLight)

	header := make(table.Row, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	pw.AppendHeader(header)

	rows := t.Rows
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	for _, r := range rows {
		row := make(table.Row, len(r))
		for i, cell := range r {
			row[i] = cell
		}
		pw.AppendRow(row)
	}
	pw.AppendFooter(table.Row{fmt.Sprintf("%d rows", t.NumRows())})
	pw.Render()
}

func init() {
	for _, c := range []*cobra.Command{csvCmd, parquetCmd} {
		c.Flags().StringSlice("columns", nil, "columns to read, in order")
		c.Flags().Int("limit", defaultRowLimit, "maximum rows to print, 0 for all")
	}
	csvCmd.Flags().String("delimiter", "", "field delimiter (default \",\")")
	csvCmd.Flags().Bool("no-header", false, "first line is data, columns are named 0, 1, ...")
	rootCmd.AddCommand(csvCmd, parquetCmd)
}
