package main

import (
	"context"
	"errors"

	"github.com/ritzau/org-directory/pkg/config"
	"github.com/ritzau/org-directory/pkg/hierarchy"
	"github.com/ritzau/org-directory/pkg/loader"
	"github.com/ritzau/org-directory/pkg/remote"
	"github.com/ritzau/org-directory/pkg/source"
	"github.com/ritzau/org-directory/pkg/spreadsheet"
	"github.com/ritzau/org-directory/pkg/store"
)

func parseOptions(cfg *config.Config) spreadsheet.Options {
	return spreadsheet.Options{
		ProfileBaseURL: cfg.ProfileBaseURL,
		MailDomain:     cfg.MailDomain,
	}
}

// primarySource builds the configured directory source
func primarySource(cfg *config.Config) source.Source {
	switch cfg.Source {
	case config.SourceSpreadsheet:
		return spreadsheet.NewFileSource(cfg.Spreadsheet, parseOptions(cfg))
	case config.SourceRemote:
		return remote.NewSource(remote.Config{
			URL:          cfg.RemoteURL,
			TokenURL:     cfg.RemoteTokenURL,
			ClientID:     cfg.RemoteClientID,
			ClientSecret: cfg.RemoteClientSecret,
			Scopes:       cfg.RemoteScopes,
			Timeout:      cfg.RemoteTimeout,
			Parse:        parseOptions(cfg),
		})
	}
	return source.NewSeedSource()
}

// loadOnce reads the primary source into a fresh store without fallback,
// for commands that report on the data itself
func loadOnce(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	st := store.New(store.Options{RejectDuplicates: cfg.RejectDuplicates})
	l := loader.New(st, primarySource(cfg), loader.Options{})
	if _, err := l.Initial(ctx); err != nil {
		if errors.Is(err, store.ErrDuplicateName) {
			return nil, withCode(exitIssues, err)
		}
		return nil, withCode(exitSource, err)
	}
	return st, nil
}

// queryError classifies errors from store queries
func queryError(err error) error {
	switch {
	case errors.Is(err, hierarchy.ErrNotFound):
		return withCode(exitNotFound, err)
	case errors.Is(err, hierarchy.ErrCyclicHierarchy):
		return withCode(exitIssues, err)
	}
	return err
}
