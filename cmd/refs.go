package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/thellimist/lanemeta/internal/refs"
)

var (
	flagRefsMetadata string
	flagRefsDir      string
	flagRefsClean    bool
)

var refsCmd = &cobra.Command{
	Use:   "refs",
	Short: "Snapshot the sources referenced by metadata documents",
	Long: `Download every reference listed by the metadata documents in the
metadata directory and store them as <references>/<Name>/<file>.ref.NNN.txt,
so upstream changes show up as plain diffs.

A reference of the form url#xpath keeps only the inner text of the first HTML
node selected by the XPath expression.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRefs,
}

func init() {
	f := refsCmd.Flags()
	f.StringVar(&flagRefsMetadata, "metadata", "", "directory holding the metadata documents (default: config output)")
	f.StringVar(&flagRefsDir, "references", "", "directory receiving the snapshots (default references)")
	f.BoolVar(&flagRefsClean, "clean", false, "empty the references directory first")
	f.IntVar(&flagTimeout, "timeout", 30000, "timeout in milliseconds for each HTTP request")
	f.IntVar(&flagConcurrency, "concurrency", 0, "references downloaded in parallel (default: config concurrency)")
}

func runRefs(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	metadataDir := cfg.Output
	if flagRefsMetadata != "" {
		metadataDir = flagRefsMetadata
	}
	referencesDir := cfg.References
	if flagRefsDir != "" {
		referencesDir = flagRefsDir
	}
	concurrency := cfg.Concurrency
	if flagConcurrency > 0 {
		concurrency = flagConcurrency
	}

	if flagRefsClean {
		logger.Debug("cleaning references", "dir", referencesDir)
		if err := refs.Clean(referencesDir); err != nil {
			return err
		}
	}

	client := &http.Client{Timeout: time.Duration(flagTimeout) * time.Millisecond}
	fetcher, closeFetcher, err := newFetcher(client, cfg)
	if err != nil {
		return err
	}
	defer closeFetcher()

	d := &refs.Downloader{Fetcher: fetcher, Logger: logger, Concurrency: concurrency}
	summary, err := d.Download(context.Background(), metadataDir, referencesDir)
	if err != nil {
		return err
	}

	if !flagQuiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Updated %d references for %d documents (%d failed)\n",
			summary.Written, summary.Tools, summary.Failed)
	}
	return nil
}
