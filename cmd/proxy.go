package cmd

import (
	"github.com/spf13/cobra"

	"github.com/itsmostafa/docai/internal/proxy"
)

var (
	proxyHost    string
	proxyPort    int
	proxyOrigins []string
)

var proxyCmd = &cobra.Command{
	Use:   "proxy",
	Short: "Serve the API to a browser with the token attached",
	Long: `Forward every request to the API base URL with the API token added as a
bearer token, so a browser document viewer can call the API without holding
the token. Prometheus metrics are served on /metrics.

The target and token also honour BASE_URL and TOKEN; the address honours
HOST and PORT.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup(cmd, true)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("host") {
			cfg.Proxy.Host = proxyHost
		}
		if cmd.Flags().Changed("port") {
			cfg.Proxy.Port = proxyPort
		}

		h, err := proxy.New(proxy.Options{
			Target:         cfg.BaseURL(),
			Token:          cfg.Token,
			AllowedOrigins: proxyOrigins,
			Logger:         log,
		})
		if err != nil {
			return err
		}

		log.WithField("target", cfg.BaseURL()).Infof("proxy listening on http://%s", cfg.Addr())
		return proxy.ListenAndServe(cmd.Context(), cfg.Addr(), h)
	},
}

func init() {
	proxyCmd.Flags().StringVar(&proxyHost, "host", "", "Listen host (default HOST or localhost)")
	proxyCmd.Flags().IntVar(&proxyPort, "port", 0, "Listen port (default PORT or 3001)")
	proxyCmd.Flags().StringSliceVar(&proxyOrigins, "allowed-origins", nil, "Origins allowed by CORS (default any)")

	rootCmd.AddCommand(proxyCmd)
}
