package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info <file>",
	Short: "Show file-level information",
	Long: `Show a CDF file's version, encoding, majority and record counts.

Example:
  gocdf info observations.cdf`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openReader(cmd, args[0])
		if err != nil {
			return err
		}
		defer r.Close()

		info := r.Info()
		fmt.Printf("File:       %s\n", info.Path)
		fmt.Printf("Version:    %s\n", info.Version)
		fmt.Printf("Encoding:   %s\n", info.Encoding)
		fmt.Printf("Majority:   %s\n", info.Majority)
		fmt.Printf("Checksum:   %v\n", info.Checksum)
		if info.Compressed {
			fmt.Printf("Compressed: %s\n", info.Compression)
		}
		fmt.Printf("Variables:  %d z, %d r\n", info.NumZVars, info.NumRVars)
		fmt.Printf("Attributes: %d\n", info.NumAttrs)
		if info.LeapSecondLastUpdated > 0 {
			fmt.Printf("Leap table: %d\n", info.LeapSecondLastUpdated)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
