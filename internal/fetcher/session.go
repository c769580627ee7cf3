package fetcher

import (
	"context"

	"mangascraper/internal/browser"
	"mangascraper/internal/extractor"
	"mangascraper/internal/scraper"
)

// Launcher hands out browser sessions from a browser.Manager.
type Launcher struct {
	manager *browser.Manager
	opts    Options
}

// NewLauncher creates a Launcher that prepares every tab with opts.
func NewLauncher(manager *browser.Manager, opts Options) *Launcher {
	return &Launcher{manager: manager, opts: opts}
}

// Acquire obtains a fresh browser.
func (l *Launcher) Acquire(ctx context.Context) (scraper.Session, error) {
	b, err := l.manager.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &Session{browser: b, opts: l.opts}, nil
}

// Session is one exclusively owned browser.
type Session struct {
	browser *browser.Browser
	opts    Options
}

// Open prepares a tab, loads url in it and returns its document.
func (s *Session) Open(ctx context.Context, url string) (extractor.Element, error) {
	page, err := OpenPage(ctx, s.browser, url, s.opts)
	if err != nil {
		return nil, err
	}
	return extractor.FromPage(page), nil
}

// Close tears the browser down with every tab it opened.
func (s *Session) Close() error {
	return s.browser.Close()
}
