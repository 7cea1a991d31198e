package cmd

import (
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/thellimist/lanemeta/internal/mcpserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve option extraction as MCP tools over stdio",
	Long: `Run an MCP server on stdin/stdout exposing:

  extract_options  derive argument descriptors from options.rb source text
  extract_source   fetch an options.rb source by URL or path, then derive

Diagnostics are logged to stderr.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	serveCmd.Flags().IntVar(&flagTimeout, "timeout", 30000, "timeout in milliseconds for each HTTP request")
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: time.Duration(flagTimeout) * time.Millisecond}
	fetcher, closeFetcher, err := newFetcher(client, cfg)
	if err != nil {
		return err
	}
	defer closeFetcher()

	logger.Debug("serving MCP on stdio")
	return mcpserver.New(fetcher, logger).ServeStdio(appVersion)
}
