package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// attrsCmd represents the attrs command
var attrsCmd = &cobra.Command{
	Use:   "attrs <file>",
	Short: "Show attributes",
	Long: `Show the file's global attributes, or one variable's attributes
with --var.

Examples:
  gocdf attrs observations.cdf
  gocdf attrs observations.cdf --var Temperature`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openReader(cmd, args[0])
		if err != nil {
			return err
		}
		defer r.Close()

		varName, _ := cmd.Flags().GetString("var")
		if varName != "" {
			atts, err := r.VarAttsGet(varName)
			if err != nil {
				return err
			}
			names := make([]string, 0, len(atts))
			for name := range atts {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Printf("%s: %v\n", name, atts[name].Value)
			}
			return nil
		}

		globals, err := r.GlobalAttsGet()
		if err != nil {
			return err
		}
		names := make([]string, 0, len(globals))
		for name := range globals {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("%s:\n", name)
			for _, e := range globals[name] {
				fmt.Printf("  [%d] %v\n", e.Num, e.Value)
			}
		}
		return nil
	},
}

func init() {
	attrsCmd.Flags().String("var", "", "Show this variable's attributes instead")
	rootCmd.AddCommand(attrsCmd)
}
