package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/heliolib/gocdf/pkg/cdf"
	"github.com/heliolib/gocdf/pkg/config"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gocdf",
	Short: "gocdf - CDF file toolkit",
	Long: `gocdf reads and writes NASA Common Data Format (CDF) files.

Files may be local paths or http(s):// and s3:// URLs; remote files are
downloaded before reading.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a gocdf config file")
	rootCmd.PersistentFlags().Bool("skip-checksum", false, "Skip MD5 validation when opening files")
}

// loadConfig resolves the effective configuration for a command invocation.
// Flags override the config file; a missing --config means defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg := config.DefaultConfig()
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if skip, _ := cmd.Flags().GetBool("skip-checksum"); skip {
		cfg.Read.SkipChecksum = true
	}
	return cfg, nil
}

// openReader opens the file named by spec under the effective configuration.
func openReader(cmd *cobra.Command, spec string) (*cdf.Reader, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return cdf.Open(cmd.Context(), spec, cdf.Options{
		SkipChecksum: cfg.Read.SkipChecksum,
		Source:       cfg.Source,
	})
}
