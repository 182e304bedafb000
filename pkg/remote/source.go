// Package remote syncs the directory from a workbook hosted on a document
// store, authenticating with OAuth2 client credentials when configured.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/ritzau/org-directory/pkg/logging"
	"github.com/ritzau/org-directory/pkg/model"
	"github.com/ritzau/org-directory/pkg/spreadsheet"
)

var log = logging.New("remote")

// maxDownload caps the size of a fetched workbook
const maxDownload = 64 << 20

// Config describes the remote workbook and how to authenticate
type Config struct {
	URL          string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
	Timeout      time.Duration
	Parse        spreadsheet.Options
}

// StatusError is returned for non-2xx responses
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetching %s: unexpected status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Source fetches and parses the remote workbook on every Load
type Source struct {
	cfg    Config
	client *http.Client
}

// NewSource creates a remote source. With a client ID the HTTP client fetches
// and refreshes tokens through the client-credentials flow.
func NewSource(cfg Config) *Source {
	base := &http.Client{Timeout: cfg.Timeout}
	client := base
	if cfg.ClientID != "" {
		cc := &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       cfg.Scopes,
		}
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
		client = cc.Client(ctx)
		client.Timeout = cfg.Timeout
	}
	return &Source{cfg: cfg, client: client}
}

// NewSourceWithClient creates a source using a caller supplied HTTP client
func NewSourceWithClient(cfg Config, client *http.Client) *Source {
	return &Source{cfg: cfg, client: client}
}

func (s *Source) Name() string     { return "remote" }
func (s *Source) Location() string { return s.cfg.URL }

func (s *Source) Load(ctx context.Context) ([]model.Employee, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json, application/vnd.openxmlformats-officedocument.spreadsheetml.sheet, text/csv, */*")

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", s.cfg.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: s.cfg.URL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDownload+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.cfg.URL, err)
	}
	if len(body) > maxDownload {
		return nil, fmt.Errorf("remote workbook exceeds %d bytes", maxDownload)
	}

	log.Debug("remote workbook downloaded",
		"bytes", len(body),
		"durationMs", time.Since(start).Milliseconds(),
	)

	if isJSON(resp.Header.Get("Content-Type"), s.cfg.URL) {
		var records []model.Employee
		if err := json.Unmarshal(body, &records); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", s.cfg.URL, err)
		}
		return records, nil
	}

	filename := fileName(resp, s.cfg.URL)
	records, report, err := spreadsheet.Parse(bytes.NewReader(body), filename, s.cfg.Parse)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filename, err)
	}
	spreadsheet.LogReport(filename, report)
	return records, nil
}

func isJSON(contentType, rawURL string) bool {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil && mt == "application/json" {
		return true
	}
	return strings.EqualFold(path.Ext(urlPath(rawURL)), ".json")
}

// fileName picks a name whose extension identifies the format: the
// Content-Disposition filename, the URL path, or the Content-Type
func fileName(resp *http.Response, rawURL string) string {
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		if name := params["filename"]; name != "" && spreadsheet.Supported(name) {
			return name
		}
	}
	if name := path.Base(urlPath(rawURL)); spreadsheet.Supported(name) {
		return name
	}

	mt, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	switch mt {
	case "text/csv":
		return "directory.csv"
	case "application/vnd.ms-excel":
		return "directory.xls"
	}
	return "directory.xlsx"
}

func urlPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Path
}
