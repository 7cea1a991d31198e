package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/thellimist/lanemeta/internal/fetch"
)

func writeTestFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "lanemeta.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeTestFile(t, `
name: Fastlane
output: out/metadata
layout: grouped
tools: [gym, scan]
options_url: "http://localhost:8080/{tool}/options.rb"
concurrency: 3
actions:
  enabled: false
  include: [slack]
cache:
  path: cache.db
  ttl: 90m
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Output != "out/metadata" {
		t.Errorf("output = %q, want out/metadata", cfg.Output)
	}
	if cfg.Layout != "grouped" {
		t.Errorf("layout = %q, want grouped", cfg.Layout)
	}
	if strings.Join(cfg.Tools, ",") != "gym,scan" {
		t.Errorf("tools = %v, want [gym scan]", cfg.Tools)
	}
	if cfg.Concurrency != 3 {
		t.Errorf("concurrency = %d, want 3", cfg.Concurrency)
	}
	if cfg.Actions.On() {
		t.Error("actions should be disabled")
	}
	if cfg.Cache.TTL != 90*time.Minute {
		t.Errorf("cache ttl = %s, want 90m", cfg.Cache.TTL)
	}
	if got := cfg.OptionsLocation("Gym"); got != "http://localhost:8080/gym/options.rb" {
		t.Errorf("OptionsLocation = %q", got)
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeTestFile(t, "{}\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Name != "Fastlane" {
		t.Errorf("name = %q, want Fastlane", cfg.Name)
	}
	if cfg.Schema != "./_schema.json" {
		t.Errorf("schema = %q", cfg.Schema)
	}
	if len(cfg.License) != 3 {
		t.Errorf("license lines = %d, want 3", len(cfg.License))
	}
	if len(cfg.Tools) != 14 || cfg.Tools[0] != "cert" || cfg.Tools[13] != "supply" {
		t.Errorf("tools = %v", cfg.Tools)
	}
	if cfg.Layout != "flat" {
		t.Errorf("layout = %q, want flat", cfg.Layout)
	}
	if !cfg.Actions.On() {
		t.Error("actions should default to on")
	}
	if cfg.Actions.ListingURL != fetch.DefaultActionsListing {
		t.Errorf("listing url = %q", cfg.Actions.ListingURL)
	}
	if cfg.Concurrency != 8 {
		t.Errorf("concurrency = %d, want 8", cfg.Concurrency)
	}
	if got := cfg.OptionsLocation("gym"); got != "https://raw.githubusercontent.com/fastlane/fastlane/master/gym/lib/gym/options.rb" {
		t.Errorf("OptionsLocation = %q", got)
	}
}

func TestLoad_DuplicateToolsDispatchedOnce(t *testing.T) {
	cfg, err := Load(writeTestFile(t, "tools: [gym, scan, gym, ' scan ']\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.Join(cfg.Tools, ","); got != "gym,scan" {
		t.Errorf("tools = %s, want gym,scan", got)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad yaml", "tools: [gym\n", "parsing"},
		{"bad layout", "layout: nested\n", "unknown layout"},
		{"negative concurrency", "concurrency: -1\n", "concurrency"},
		{"url without placeholder", "options_url: http://x/options.rb\n", "{tool}"},
		{"empty tool", "tools: [gym, '']\n", "empty name"},
		{"include and exclude", "actions:\n  include: [a]\n  exclude: [b]\n", "cannot be used together"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeTestFile(t, tc.content))
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tc.wantErr)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := Discover("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Output != "metadata" {
		t.Errorf("without a file, output = %q, want metadata", cfg.Output)
	}

	if err := os.WriteFile(filepath.Join(dir, DefaultFile), []byte("output: found\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err = Discover("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Output != "found" {
		t.Errorf("output = %q, want found", cfg.Output)
	}

	explicit := writeTestFile(t, "output: explicit\n")
	cfg, err = Discover(explicit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Output != "explicit" {
		t.Errorf("output = %q, want explicit", cfg.Output)
	}
}

func TestMergeOverrides(t *testing.T) {
	base, err := Load(writeTestFile(t, `
tools: [gym]
actions:
  exclude: [slack]
`))
	if err != nil {
		t.Fatal(err)
	}

	merged, err := MergeOverrides(base, Overrides{
		Tools:          []string{"scan", "snapshot"},
		Layout:         "grouped",
		NoActions:      true,
		IncludeActions: []string{"zip"},
		Concurrency:    2,
		CacheTTL:       time.Minute,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if strings.Join(merged.Tools, ",") != "scan,snapshot" {
		t.Errorf("tools = %v", merged.Tools)
	}
	if merged.Layout != "grouped" {
		t.Errorf("layout = %q", merged.Layout)
	}
	if merged.Actions.On() {
		t.Error("NoActions should disable actions")
	}
	if strings.Join(merged.Actions.Include, ",") != "zip" || len(merged.Actions.Exclude) != 0 {
		t.Errorf("include = %v, exclude = %v", merged.Actions.Include, merged.Actions.Exclude)
	}
	if merged.Concurrency != 2 || merged.Cache.TTL != time.Minute {
		t.Errorf("concurrency = %d, ttl = %s", merged.Concurrency, merged.Cache.TTL)
	}

	// The input config must not be mutated.
	if strings.Join(base.Tools, ",") != "gym" {
		t.Errorf("base tools mutated: %v", base.Tools)
	}
	if !base.Actions.On() {
		t.Error("base actions mutated")
	}
	if strings.Join(base.Actions.Exclude, ",") != "slack" {
		t.Errorf("base exclude mutated: %v", base.Actions.Exclude)
	}
}

func TestMergeOverrides_NilConfig(t *testing.T) {
	merged, err := MergeOverrides(nil, Overrides{Output: "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if merged.Output != "x" || merged.Name != "Fastlane" {
		t.Errorf("merged = %+v", merged)
	}
}

func TestMergeOverrides_InvalidLayout(t *testing.T) {
	if _, err := MergeOverrides(nil, Overrides{Layout: "tree"}); err == nil {
		t.Fatal("expected error for unknown layout")
	}
}
