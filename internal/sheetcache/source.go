package sheetcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/jwebster45206/platformer/pkg/sheet"
)

var ErrNoSheetData = errors.New("no sheet data available")

// Source combines the bundled file, the Redis cache and the remote backend.
// Any of the three may be absent.
type Source struct {
	File    string
	Cache   *Cache
	Fetcher *Fetcher
	Logger  *slog.Logger
}

func (s *Source) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.Logger
}

// LoadInitial returns the first usable data set: the bundled file, then
// the cache. Invalid data is logged and skipped.
func (s *Source) LoadInitial(ctx context.Context) (*sheet.Data, error) {
	log := s.logger()
	var errs []error

	if s.File != "" {
		data, err := loadFile(s.File)
		if err == nil {
			log.Info("Sheet loaded from file", "file", s.File, "summary", data.Summary())
			return data, nil
		}
		log.Warn("Sheet file unusable", "file", s.File, "error", err)
		errs = append(errs, err)
	}

	if s.Cache != nil {
		raw, ok, err := s.Cache.Get(ctx)
		switch {
		case err != nil:
			errs = append(errs, err)
		case !ok:
			errs = append(errs, errors.New("sheet cache is empty"))
		default:
			data, err := sheet.Load(raw)
			if err == nil {
				log.Info("Sheet loaded from cache", "summary", data.Summary())
				return data, nil
			}
			log.Warn("Cached sheet is invalid", "error", err)
			errs = append(errs, err)
		}
	}

	errs = append([]error{ErrNoSheetData}, errs...)
	return nil, errors.Join(errs...)
}

// Refresh fetches the remote payload in the background. Valid data is
// written to the cache and handed to done; done is never called from the
// caller's goroutine. Refresh is a no-op without a fetcher.
func (s *Source) Refresh(ctx context.Context, done func(*sheet.Data, error)) bool {
	if s.Fetcher == nil {
		return false
	}
	log := s.logger()
	s.Fetcher.FetchAsync(ctx, func(raw []byte, err error) {
		if err != nil {
			log.Warn("Sheet refresh failed", "error", err)
			done(nil, err)
			return
		}
		data, err := sheet.Load(raw)
		if err != nil {
			log.Warn("Fetched sheet is invalid", "error", err)
			done(nil, err)
			return
		}
		if s.Cache != nil {
			if err := s.Cache.Store(ctx, raw); err != nil {
				log.Warn("Failed to cache fetched sheet", "error", err)
			}
		}
		log.Info("Sheet refreshed from remote", "summary", data.Summary())
		done(data, nil)
	})
	return true
}

func loadFile(path string) (*sheet.Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet file: %w", err)
	}
	return sheet.Load(raw)
}
