package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/heliolib/gocdf/pkg/cdf"
	"github.com/heliolib/gocdf/pkg/epoch"
)

// dumpCmd represents the dump command
var dumpCmd = &cobra.Command{
	Use:   "dump <file> <variable>",
	Short: "Print a variable's values",
	Long: `Print the values of one variable, optionally restricted to a record
range or a time range against its DEPEND_0 epoch variable.

Examples:
  gocdf dump observations.cdf Temperature
  gocdf dump observations.cdf Temperature --first 10 --last 19
  gocdf dump observations.cdf Temperature --start 2005-12-04T00:00:00.000 --end 2005-12-05T00:00:00.000
  gocdf dump observations.cdf Epoch --iso8601`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openReader(cmd, args[0])
		if err != nil {
			return err
		}
		defer r.Close()

		res, err := dumpRead(cmd, r, args[1])
		if err != nil {
			return err
		}

		iso, _ := cmd.Flags().GetBool("iso8601")
		if iso && res.DataType.IsEpoch() {
			strs, err := epoch.NewCodec().EncodeSlice(res.Values, true)
			if err != nil {
				return err
			}
			for i, s := range strs {
				fmt.Printf("%d: %s\n", res.FirstRecord+i, s)
			}
			return nil
		}

		fmt.Printf("# %s %s shape=%v first_record=%d\n", res.Name, res.DataType, res.Shape, res.FirstRecord)
		fmt.Println(res.Values)
		return nil
	},
}

func dumpRead(cmd *cobra.Command, r *cdf.Reader, name string) (*cdf.Result, error) {
	start, _ := cmd.Flags().GetString("start")
	end, _ := cmd.Flags().GetString("end")
	if start != "" || end != "" {
		var lo, hi interface{}
		var err error
		codec := epoch.NewCodec()
		if start != "" {
			if lo, err = codec.Parse(start); err != nil {
				return nil, fmt.Errorf("--start: %w", err)
			}
		}
		if end != "" {
			if hi, err = codec.Parse(end); err != nil {
				return nil, fmt.Errorf("--end: %w", err)
			}
		}
		return r.VarGetTimeRange(name, lo, hi)
	}

	first, _ := cmd.Flags().GetInt("first")
	last, _ := cmd.Flags().GetInt("last")
	if first >= 0 || last >= 0 {
		if first < 0 || last < 0 {
			return nil, fmt.Errorf("--first and --last must be given together")
		}
		return r.VarGetRecords(name, first, last)
	}
	return r.VarGet(name)
}

func init() {
	dumpCmd.Flags().Int("first", -1, "First record to print")
	dumpCmd.Flags().Int("last", -1, "Last record to print")
	dumpCmd.Flags().String("start", "", "Start of the time range (ISO 8601 or dd-Mmm-yyyy)")
	dumpCmd.Flags().String("end", "", "End of the time range (ISO 8601 or dd-Mmm-yyyy)")
	dumpCmd.Flags().Bool("iso8601", false, "Render epoch values as ISO 8601 strings")
	rootCmd.AddCommand(dumpCmd)
}
