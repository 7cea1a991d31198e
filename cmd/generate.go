package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/thellimist/lanemeta/internal/aggregate"
	"github.com/thellimist/lanemeta/internal/auth"
	"github.com/thellimist/lanemeta/internal/config"
	"github.com/thellimist/lanemeta/internal/fetch"
	"github.com/thellimist/lanemeta/internal/tooldoc"
	"github.com/thellimist/lanemeta/internal/toolfilter"
)

var (
	flagOutput          string
	flagLayout          string
	flagOptionsURL      string
	flagActionsURL      string
	flagNoActions       bool
	flagIncludeActions  string
	flagExcludeActions  string
	flagGitHubToken     string
	flagSaveCredentials bool
	flagCache           string
	flagCacheTTL        time.Duration
	flagConcurrency     int
	flagTimeout         int
)

var generateCmd = &cobra.Command{
	Use:   "generate [tools...]",
	Short: "Generate the tool metadata document",
	Long: `Generate the tool metadata document from fastlane option sources.

lanemeta fetches the options.rb source of every tool and, unless disabled,
every action listed in the fastlane repository, extracts their option
declarations and writes <output>/<Name>.json. An existing file with different
content is left alone and the new document is written next to it as .new.

Examples:
  # All configured tools and actions
  lanemeta generate

  # Only gym and scan, without actions
  lanemeta generate gym scan --no-actions

  # One task per source instead of a flat argument list
  lanemeta generate --layout grouped

  # Selected actions, listing authenticated with a token
  lanemeta generate --include-actions slack,upload_to_testflight --github-token $TOKEN

  # Cache fetched sources between runs
  lanemeta generate --cache .lanemeta-cache.db --cache-ttl 6h`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.StringVar(&flagOutput, "output", "", "directory where the metadata document is written (default metadata)")
	f.StringVar(&flagLayout, "layout", "", "task layout: flat or grouped (default flat)")
	f.StringVar(&flagOptionsURL, "options-url", "", "options source URL template, {tool} is replaced by the tool name")
	f.StringVar(&flagActionsURL, "actions-url", "", "GitHub contents API URL listing the action sources")
	f.BoolVar(&flagNoActions, "no-actions", false, "skip action sources")
	f.StringVar(&flagIncludeActions, "include-actions", "", "only include these actions (comma-separated)")
	f.StringVar(&flagExcludeActions, "exclude-actions", "", "exclude these actions (comma-separated)")
	f.StringVar(&flagGitHubToken, "github-token", "", "token for the GitHub API (default $"+auth.TokenEnv+" or saved credentials)")
	f.BoolVar(&flagSaveCredentials, "save-credentials", false, "persist --github-token to ~/.lanemeta/credentials.json")
	f.StringVar(&flagCache, "cache", "", "SQLite file caching fetched sources")
	f.DurationVar(&flagCacheTTL, "cache-ttl", 0, "lifetime of cached sources (default 24h)")
	f.IntVar(&flagConcurrency, "concurrency", 0, "sources fetched in parallel (default 8)")
	f.IntVar(&flagTimeout, "timeout", 30000, "timeout in milliseconds for each HTTP request")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if flagIncludeActions != "" && flagExcludeActions != "" {
		return fmt.Errorf("--include-actions and --exclude-actions cannot be used together")
	}
	if flagSaveCredentials && flagGitHubToken == "" {
		return fmt.Errorf("--save-credentials requires --github-token")
	}

	fileCfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg, err := config.MergeOverrides(fileCfg, config.Overrides{
		Tools:          toolfilter.Dedupe(args),
		Output:         flagOutput,
		Layout:         flagLayout,
		OptionsURL:     flagOptionsURL,
		ListingURL:     flagActionsURL,
		NoActions:      flagNoActions,
		IncludeActions: toolfilter.ParseList(flagIncludeActions),
		ExcludeActions: toolfilter.ParseList(flagExcludeActions),
		Concurrency:    flagConcurrency,
		CachePath:      flagCache,
		CacheTTL:       flagCacheTTL,
	})
	if err != nil {
		return err
	}
	layout, err := tooldoc.ParseLayout(cfg.Layout)
	if err != nil {
		return err
	}

	ctx := context.Background()
	base := &http.Client{Timeout: time.Duration(flagTimeout) * time.Millisecond}

	fetcher, closeFetcher, err := newFetcher(base, cfg)
	if err != nil {
		return err
	}
	defer closeFetcher()

	var lister fetch.Lister
	if cfg.Actions.On() {
		l, err := newLister(ctx, base, cfg)
		if err != nil {
			return err
		}
		lister = l
	}

	logger.Debug("generating", "name", cfg.Name, "tools", len(cfg.Tools), "actions", cfg.Actions.On(), "layout", layout)
	agg := aggregate.New(fetcher, lister, logger, aggregate.Config{
		Tools:           cfg.Tools,
		OptionsLocation: cfg.OptionsLocation,
		ListActions:     cfg.Actions.On(),
		IncludeActions:  cfg.Actions.Include,
		ExcludeActions:  cfg.Actions.Exclude,
		Concurrency:     cfg.Concurrency,
	})
	result, err := agg.Run(ctx)
	if err != nil {
		return err
	}

	doc := tooldoc.Build(tooldoc.Options{
		Name:      cfg.Name,
		Schema:    cfg.Schema,
		License:   cfg.License,
		Layout:    layout,
		BaseClass: cfg.BaseClass,
	}, result.Sections)
	data, err := tooldoc.Marshal(doc)
	if err != nil {
		return err
	}
	path, outcome, err := tooldoc.Write(cfg.Output, doc.Name, data)
	if err != nil {
		return err
	}

	if !flagQuiet {
		out := cmd.OutOrStdout()
		switch outcome {
		case tooldoc.Unchanged:
			fmt.Fprintf(out, "%s is up to date\n", path)
		case tooldoc.Created:
			fmt.Fprintf(out, "Wrote %s (%d tasks, %d arguments)\n", path, len(result.Sections), result.Arguments())
		case tooldoc.Suggested:
			fmt.Fprintf(out, "%s differs, wrote %s for review\n", tooldoc.Path(cfg.Output, doc.Name), path)
		}
	}
	return nil
}

// newFetcher returns the source fetcher, wrapped in the SQLite cache when one
// is configured, and a function releasing it.
func newFetcher(client *http.Client, cfg *config.Config) (fetch.Fetcher, func(), error) {
	httpFetcher := fetch.NewHTTPFetcher(client, cfg.UserAgent)
	if cfg.Cache.Path == "" {
		return httpFetcher, func() {}, nil
	}
	cache, err := fetch.NewSQLiteCache(cfg.Cache.Path, httpFetcher, cfg.Cache.TTL, logger)
	if err != nil {
		return nil, nil, err
	}
	return cache, func() {
		if err := cache.Close(); err != nil {
			logger.Warn("closing source cache", "error", err)
		}
	}, nil
}

// newLister builds the GitHub action lister, authenticated when a token is
// available, and saves the token first when --save-credentials is set.
func newLister(ctx context.Context, base *http.Client, cfg *config.Config) (fetch.Lister, error) {
	credPath, err := auth.DefaultCredentialsPath()
	if err != nil {
		logger.Debug("no credentials file", "error", err)
		credPath = ""
	}

	if flagSaveCredentials {
		if credPath == "" {
			return nil, fmt.Errorf("cannot save credentials: no home directory")
		}
		creds, err := auth.LoadCredentials(credPath)
		if err != nil {
			return nil, err
		}
		auth.SetToken(creds, auth.Host(cfg.Actions.ListingURL), flagGitHubToken)
		if err := auth.SaveCredentials(credPath, creds); err != nil {
			return nil, err
		}
		logger.Info("saved credentials", "path", credPath)
	}

	token := auth.ResolveToken(flagGitHubToken, cfg.Actions.ListingURL, credPath)
	if token == "" {
		logger.Debug("listing actions anonymously")
	}
	client := auth.NewHTTPClient(ctx, token, base)
	return fetch.NewGitHubLister(cfg.Actions.ListingURL, client, cfg.UserAgent), nil
}
