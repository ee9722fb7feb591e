package cmd

import (
	"github.com/spf13/cobra"

	"github.com/heliolib/gocdf/pkg/api"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve <file>",
	Short: "Serve a file over a read-only REST API",
	Long: `Open a CDF file and serve its contents over HTTP. The API exposes
file info, variable metadata, variable data with record and time range
selection, global attributes, health and Prometheus metrics.

Examples:
  gocdf serve observations.cdf --port 8080
  gocdf serve s3://bucket/observations.cdf --api-key mysecretkey`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if port, _ := cmd.Flags().GetInt("port"); port != 0 {
			cfg.Port = port
		}
		if bind, _ := cmd.Flags().GetString("bind"); bind != "" {
			cfg.Bind = bind
		}
		apiKey, _ := cmd.Flags().GetString("api-key")

		r, err := openReader(cmd, args[0])
		if err != nil {
			return err
		}
		defer r.Close()

		return api.StartServer(r, api.ServerConfig{
			Port:   cfg.Port,
			Bind:   cfg.Bind,
			APIKey: apiKey,
		})
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "Port to listen on (overrides config)")
	serveCmd.Flags().String("bind", "", "Address to bind (overrides config)")
	serveCmd.Flags().String("api-key", "", "Require this X-API-Key header on API routes")
	rootCmd.AddCommand(serveCmd)
}
