package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// skeletonCmd represents the skeleton command
var skeletonCmd = &cobra.Command{
	Use:   "skeleton <file>",
	Short: "Print the file's full metadata layout",
	Long: `Print everything about a file except its data: file header, global
attributes and per-variable metadata with attribute entries.

Example:
  gocdf skeleton observations.cdf`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openReader(cmd, args[0])
		if err != nil {
			return err
		}
		defer r.Close()

		info := r.Info()
		fmt.Printf("! File: %s\n", info.Path)
		fmt.Printf("! Version %s, %s, %s\n", info.Version, info.Encoding, info.Majority)
		fmt.Println()

		globals, err := r.GlobalAttsGet()
		if err != nil {
			return err
		}
		names := make([]string, 0, len(globals))
		for name := range globals {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Println("! Global attributes")
		for _, name := range names {
			for _, e := range globals[name] {
				fmt.Printf("  %s [%d] (%s): %v\n", name, e.Num, e.DataType, e.Value)
			}
		}
		fmt.Println()

		fmt.Println("! Variables")
		for _, varName := range r.Variables() {
			inq, err := r.VarInq(varName)
			if err != nil {
				return err
			}
			fmt.Printf("  %s (%s", inq.Name, inq.DataType)
			if inq.DataType.IsChar() {
				fmt.Printf("/%d", inq.NumElems)
			}
			fmt.Printf(") dims=%v varys=%v records=%d", inq.DimSizes, inq.DimVarys, inq.LastRecord+1)
			if inq.Compression != 0 {
				fmt.Printf(" compression=%s", inq.Compression)
			}
			if inq.Pad != nil {
				fmt.Printf(" pad=%v", inq.Pad)
			}
			fmt.Println()

			atts, err := r.VarAttsGet(varName)
			if err != nil {
				return err
			}
			attNames := make([]string, 0, len(atts))
			for name := range atts {
				attNames = append(attNames, name)
			}
			sort.Strings(attNames)
			for _, name := range attNames {
				fmt.Printf("    %s: %v\n", name, atts[name].Value)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(skeletonCmd)
}
