package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/heliolib/gocdf/pkg/cdf"
)

// varsCmd represents the vars command
var varsCmd = &cobra.Command{
	Use:   "vars <file>",
	Short: "List the file's variables",
	Long: `List every variable with its type, shape and record count.

Example:
  gocdf vars observations.cdf`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openReader(cmd, args[0])
		if err != nil {
			return err
		}
		defer r.Close()

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tTYPE\tDIMS\tRECORDS\tSPARSE\tCOMPRESSION")
		for _, name := range r.Variables() {
			inq, err := r.VarInq(name)
			if err != nil {
				return err
			}
			sparse := "-"
			if inq.Sparse != cdf.SparseNone {
				sparse = inq.Sparse.String()
			}
			compression := "-"
			if inq.Compression != 0 {
				compression = inq.Compression.String()
			}
			fmt.Fprintf(tw, "%s\t%s\t%v\t%d\t%s\t%s\n",
				inq.Name, inq.DataType, inq.DimSizes, inq.LastRecord+1, sparse, compression)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(varsCmd)
}
