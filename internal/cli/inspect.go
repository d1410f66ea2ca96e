package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvview/internal/core"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	Rows    int
	Columns []string
	Sort    string
	Desc    bool
	Export  string
	Output  string
}

// InspectResult is the JSON form of an inspect run.
type InspectResult struct {
	Dataset core.DatasetInfo    `json:"dataset"`
	Columns []core.ColumnMeta   `json:"columns"`
	Rows    []map[string]any    `json:"rows"`
	Sort    *core.SortDirective `json:"sort,omitempty"`
	Output  string              `json:"output,omitempty"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{}

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Decode a file and print its columns and first rows",
		Long: `Decode a CSV or Excel file the same way an upload is decoded, then print
the inferred column kinds and a preview. --columns and --sort shape the
view; --export writes it to --output in csv, json or parquet.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(rootOpts, opts, args[0], cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVarP(&opts.Rows, "rows", "n", 10, "number of rows to preview (0 for all)")
	cmd.Flags().StringSliceVarP(&opts.Columns, "columns", "c", nil, "columns to keep, in order (default all)")
	cmd.Flags().StringVarP(&opts.Sort, "sort", "s", "", "column to sort by")
	cmd.Flags().BoolVar(&opts.Desc, "desc", false, "sort descending")
	cmd.Flags().StringVar(&opts.Export, "export", "", "export format (csv|json|parquet)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "export destination (default <file>-view.<ext>)")

	return cmd
}

func runInspect(rootOpts *RootOptions, opts *InspectOptions, path string, out io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	ds, err := core.Decode(f, filepath.Base(path))
	if err != nil {
		return err
	}

	selection := opts.Columns
	if len(selection) == 0 {
		selection = ds.ColumnNames()
	}
	view, err := core.Project(ds.Table, selection)
	if err != nil {
		return err
	}
	if opts.Sort != "" {
		dir := core.Ascending
		if opts.Desc {
			dir = core.Descending
		}
		if view, err = core.Sort(view, opts.Sort, dir); err != nil {
			return err
		}
	}

	var written string
	if opts.Export != "" {
		if written, err = exportView(view, path, opts); err != nil {
			return err
		}
	}

	rows := view.Records()
	if opts.Rows > 0 && len(rows) > opts.Rows {
		rows = rows[:opts.Rows]
	}

	if rootOpts.Format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(InspectResult{
			Dataset: ds.Info,
			Columns: view.Meta(),
			Rows:    rows,
			Sort:    view.Sort,
			Output:  written,
		})
	}
	return printInspect(out, ds.Info, view, len(rows), written)
}

func exportView(view *core.View, source string, opts *InspectOptions) (string, error) {
	format, err := core.ParseExportFormat(opts.Export)
	if err != nil {
		return "", err
	}
	dest := opts.Output
	if dest == "" {
		base := source[:len(source)-len(filepath.Ext(source))]
		dest = base + "-view." + format.Extension()
	}

	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", dest, err)
	}
	if err := core.Export(f, view, format); err != nil {
		f.Close()
		return "", fmt.Errorf("export %s: %w", dest, err)
	}
	return dest, f.Close()
}

func printInspect(out io.Writer, info core.DatasetInfo, view *core.View, preview int, written string) error {
	fmt.Fprintf(out, "%s: %d rows, %d columns\n\n", info.Filename, info.Rows, info.Columns)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tKIND\tNULLS")
	for _, c := range view.Columns {
		nulls := 0
		for _, v := range c.Values {
			if v.IsNull() {
				nulls++
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\n", c.Name, c.Kind, nulls)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if preview > 0 {
		fmt.Fprintln(out)
		tw = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for i, c := range view.Columns {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, c.Name)
		}
		fmt.Fprintln(tw)
		for r := 0; r < preview; r++ {
			for i, c := range view.Columns {
				if i > 0 {
					fmt.Fprint(tw, "\t")
				}
				fmt.Fprint(tw, c.Values[r].String())
			}
			fmt.Fprintln(tw)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if written != "" {
		fmt.Fprintf(out, "\nwrote %s\n", written)
	}
	return nil
}
