package spreadsheet

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ritzau/org-directory/pkg/logging"
	"github.com/ritzau/org-directory/pkg/model"
)

var log = logging.New("spreadsheet")

// FileSource loads the directory from a spreadsheet on disk
type FileSource struct {
	path string
	opts Options
}

// NewFileSource creates a source reading path on every Load
func NewFileSource(path string, opts Options) *FileSource {
	return &FileSource{path: path, opts: opts}
}

func (s *FileSource) Name() string     { return "spreadsheet" }
func (s *FileSource) Location() string { return s.path }

func (s *FileSource) Load(ctx context.Context) ([]model.Employee, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("opening spreadsheet: %w", err)
	}
	defer f.Close()

	records, report, err := Parse(f, filepath.Base(s.path), s.opts)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", s.path, err)
	}
	LogReport(filepath.Base(s.path), report)
	return records, nil
}

// LogReport writes an import summary
func LogReport(name string, report Report) {
	log.Info("spreadsheet imported",
		"file", name,
		"rows", report.Rows,
		"imported", report.Imported,
		"skipped", report.SkippedNoName,
	)
	if len(report.IgnoredHeaders) > 0 {
		log.Debug("ignored spreadsheet columns", "headers", report.IgnoredHeaders)
	}
}
