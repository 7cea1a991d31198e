// Package refs snapshots the sources referenced by tool documents so that
// upstream changes show up as diffs.
package refs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/sync/errgroup"

	"github.com/thellimist/lanemeta/internal/fetch"
)

const (
	schemaFile      = "_schema.json"
	fragmentMarker  = "#"
	defaultParallel = 8
)

// tool is the subset of a tool document the downloader needs.
type tool struct {
	Name       string   `json:"Name"`
	References []string `json:"References"`
}

// Downloader writes the content of every reference of every tool document
// in a directory.
type Downloader struct {
	Fetcher     fetch.Fetcher
	Logger      *slog.Logger
	Concurrency int
}

// Summary counts what a Download did.
type Summary struct {
	Tools   int
	Written int
	Failed  int
}

// Download loads every tool document in metadataDir (skipping _schema.json)
// and writes reference i of a document named Name to
// <referencesDir>/<Name>/<stem>.ref.<iii>.txt, where stem is the document's
// file name without extension and iii is the zero-padded, zero-based index.
//
// A reference of the form url#xpath is reduced to the inner text of the
// first node the XPath selects. Failed references are logged and skipped.
// Unreadable documents and directories are returned as errors.
func (d *Downloader) Download(ctx context.Context, metadataDir, referencesDir string) (Summary, error) {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	files, err := filepath.Glob(filepath.Join(metadataDir, "*.json"))
	if err != nil {
		return Summary{}, fmt.Errorf("refs: listing %s: %w", metadataDir, err)
	}

	type job struct {
		path string
		ref  string
		log  *slog.Logger
	}
	var jobs []job
	var summary Summary
	for _, file := range files {
		if filepath.Base(file) == schemaFile {
			continue
		}
		t, err := loadTool(file)
		if err != nil {
			return summary, err
		}
		if len(t.References) == 0 {
			continue
		}
		summary.Tools++

		dir := filepath.Join(referencesDir, t.Name)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return summary, fmt.Errorf("refs: create %s: %w", dir, err)
		}
		stem := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		logger.Info(fmt.Sprintf("Downloading %d references for %s", len(t.References), filepath.Base(file)))
		for i, ref := range t.References {
			jobs = append(jobs, job{
				path: filepath.Join(dir, ReferenceFileName(stem, i)),
				ref:  ref,
				log:  logger.With("definition", filepath.Base(file), "index", i),
			})
		}
	}

	limit := d.Concurrency
	if limit <= 0 {
		limit = defaultParallel
	}
	failed := make([]bool, len(jobs))
	var g errgroup.Group
	g.SetLimit(limit)
	for i, j := range jobs {
		g.Go(func() error {
			if err := d.downloadOne(ctx, j.ref, j.path); err != nil {
				j.log.Error("couldn't update reference", "reference", j.ref, "error", err)
				failed[i] = true
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, f := range failed {
		if f {
			summary.Failed++
		} else {
			summary.Written++
		}
	}
	return summary, nil
}

// ReferenceFileName returns the snapshot file name for reference index of
// the document with the given stem.
func ReferenceFileName(stem string, index int) string {
	return fmt.Sprintf("%s.ref.%03d.txt", stem, index)
}

func (d *Downloader) downloadOne(ctx context.Context, ref, path string) error {
	content, err := Content(ctx, d.Fetcher, ref)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("refs: write %s: %w", path, err)
	}
	return nil
}

// Content fetches one reference. When ref carries an #xpath fragment the
// page is parsed as HTML and only the inner text of the first match is kept.
func Content(ctx context.Context, f fetch.Fetcher, ref string) (string, error) {
	location, expr, hasExpr := strings.Cut(ref, fragmentMarker)
	body, err := f.Fetch(ctx, location)
	if err != nil {
		return "", err
	}
	if !hasExpr || expr == "" {
		return body, nil
	}

	doc, err := htmlquery.Parse(strings.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("refs: parse %s: %w", location, err)
	}
	node, err := htmlquery.Query(doc, expr)
	if err != nil {
		return "", fmt.Errorf("refs: xpath %q: %w", expr, err)
	}
	if node == nil {
		return "", fmt.Errorf("refs: xpath %q matched nothing in %s", expr, location)
	}
	return htmlquery.InnerText(node), nil
}

// Clean removes dir and everything in it, then recreates it empty.
func Clean(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("refs: clean %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("refs: create %s: %w", dir, err)
	}
	return nil
}

func loadTool(path string) (*tool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("refs: reading %s: %w", path, err)
	}
	var t tool
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("refs: parsing %s: %w", path, err)
	}
	if t.Name == "" {
		t.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return &t, nil
}
