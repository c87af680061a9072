// Package eval scores classifier output against hand-labelled ground truth.
package eval

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nickromney-org/release-radar/internal/classify"
	"gopkg.in/yaml.v3"
)

// Unknown marks a ground-truth entry nobody has labelled yet
const Unknown = "Unknown"

// ErrGateFailed means the evaluation found at least one false negative
var ErrGateFailed = errors.New("evaluation gate failed")

var csvHeader = []string{"version", "category", "text"}

// GroundTruthEntry is one hand-labelled change-note line
type GroundTruthEntry struct {
	Version  string `json:"version" yaml:"version"`
	Category string `json:"category" yaml:"category"`
	Text     string `json:"text" yaml:"text"`
}

// Labelled reports whether the entry carries a real category
func (e GroundTruthEntry) Labelled() bool {
	_, err := classify.ParseCategory(e.Category)
	return err == nil
}

// NotifyWorthy reports whether the labelled category should be notified
func (e GroundTruthEntry) NotifyWorthy() bool {
	c, err := classify.ParseCategory(e.Category)
	return err == nil && c.Notify()
}

// LoadGroundTruth reads entries from a CSV (version,category,text) or YAML
// file, chosen by extension
func LoadGroundTruth(path string) ([]GroundTruthEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ground truth: %w", err)
	}
	defer f.Close()

	var entries []GroundTruthEntry
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.NewDecoder(f).Decode(&entries); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse ground truth %s: %w", path, err)
		}
	default:
		entries, err = readCSV(f)
		if err != nil {
			return nil, fmt.Errorf("failed to parse ground truth %s: %w", path, err)
		}
	}

	for i, e := range entries {
		if strings.TrimSpace(e.Version) == "" {
			return nil, fmt.Errorf("ground truth entry %d has no version", i+1)
		}
		if e.Category != Unknown && !e.Labelled() {
			return nil, fmt.Errorf("ground truth entry %d (%s) has invalid category %q", i+1, e.Version, e.Category)
		}
	}

	return entries, nil
}

func readCSV(r io.Reader) ([]GroundTruthEntry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(csvHeader)

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	for i, h := range csvHeader {
		if strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff")) != h {
			return nil, fmt.Errorf("unexpected header %v, want %v", header, csvHeader)
		}
	}

	var entries []GroundTruthEntry
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, GroundTruthEntry{
			Version:  strings.TrimSpace(rec[0]),
			Category: strings.TrimSpace(rec[1]),
			Text:     rec[2],
		})
	}
	return entries, nil
}

// WriteGroundTruthCSV writes entries in the CSV format LoadGroundTruth reads
func WriteGroundTruthCSV(path string, entries []GroundTruthEntry) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create ground truth file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, e := range entries {
		if err := w.Write([]string{e.Version, e.Category, e.Text}); err != nil {
			return fmt.Errorf("failed to write entry: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write ground truth: %w", err)
	}
	return f.Close()
}

// GroupByVersion groups entries by version, keeping first-seen version order
func GroupByVersion(entries []GroundTruthEntry) ([]string, map[string][]GroundTruthEntry) {
	var order []string
	groups := make(map[string][]GroundTruthEntry)
	for _, e := range entries {
		if _, ok := groups[e.Version]; !ok {
			order = append(order, e.Version)
		}
		groups[e.Version] = append(groups[e.Version], e)
	}
	return order, groups
}
