package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"mangascraper/internal/extractor"
	"mangascraper/internal/schema"
)

const (
	DefaultPlatform = "weebcentral"
	DefaultPageType = "popular"
	DefaultLimit    = 10
)

// ErrSlugRequired is returned when a slug page is requested without a slug.
var ErrSlugRequired = errors.New("slug is required for this page type")

// Launcher hands out one browser session per call.
type Launcher interface {
	Acquire(ctx context.Context) (Session, error)
}

// Session is an exclusively owned browser. Close releases it and must be
// safe to call more than once.
type Session interface {
	Open(ctx context.Context, url string) (extractor.Element, error)
	Close() error
}

// Request is one scrape order. Zero values take the package defaults.
type Request struct {
	Platform      string `json:"platform"`
	PageType      string `json:"pageType"`
	Slug          string `json:"slug"`
	NumberOfItems *int   `json:"numberOfItems"`
}

// UnmarshalJSON accepts any JSON number for numberOfItems, truncating
// fractions toward zero.
func (r *Request) UnmarshalJSON(data []byte) error {
	type plain Request
	var raw struct {
		plain
		NumberOfItems *json.Number `json:"numberOfItems"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = Request(raw.plain)
	r.NumberOfItems = nil
	if raw.NumberOfItems != nil {
		f, err := raw.NumberOfItems.Float64()
		if err != nil {
			return fmt.Errorf("numberOfItems: %w", err)
		}
		n := int(math.Trunc(math.Max(math.Min(f, math.MaxInt32), math.MinInt32)))
		r.NumberOfItems = &n
	}
	return nil
}

func (r Request) withDefaults() Request {
	if r.Platform == "" {
		r.Platform = DefaultPlatform
	}
	if r.PageType == "" {
		r.PageType = DefaultPageType
	}
	if r.NumberOfItems == nil {
		n := DefaultLimit
		r.NumberOfItems = &n
	}
	return r
}

// Response is the result envelope. Count is set for listing pages only;
// Data is a []extractor.Item for listings and an extractor.Item otherwise.
type Response struct {
	Platform string `json:"platform"`
	PageType string `json:"pageType"`
	Count    *int   `json:"count,omitempty"`
	Data     any    `json:"data"`
}

// Items returns the response records in order, whatever the page mode.
func (r *Response) Items() []extractor.Item {
	switch d := r.Data.(type) {
	case []extractor.Item:
		return d
	case extractor.Item:
		return []extractor.Item{d}
	}
	return nil
}

// Service runs scrape requests against the catalogue.
type Service struct {
	registry  *schema.Registry
	launcher  Launcher
	extractor *extractor.Extractor
	logger    *slog.Logger
}

// NewService creates a Service.
func NewService(registry *schema.Registry, launcher Launcher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		registry:  registry,
		launcher:  launcher,
		extractor: extractor.New(logger),
		logger:    logger,
	}
}

// Plan is a validated request resolved against the catalogue.
type Plan struct {
	Source *schema.Source
	Page   *schema.PageConfig
	URL    string
	Limit  int
}

// Prepare validates req and resolves its target. It never touches a browser.
func (s *Service) Prepare(req Request) (Request, *Plan, error) {
	req = req.withDefaults()

	src, err := s.registry.LookupSource(req.Platform)
	if err != nil {
		return req, nil, err
	}
	page, err := s.registry.LookupPage(src, req.PageType)
	if err != nil {
		return req, nil, err
	}
	if page.NeedsSlug() && req.Slug == "" {
		return req, nil, ErrSlugRequired
	}

	return req, &Plan{
		Source: src,
		Page:   page,
		URL:    page.URL(src, req.Slug),
		Limit:  max(*req.NumberOfItems, 0),
	}, nil
}

// Scrape validates req, drives one browser session through the target page
// and returns the extracted data. The session is released on every path
// once acquired.
func (s *Service) Scrape(ctx context.Context, req Request) (*Response, error) {
	req, plan, err := s.Prepare(req)
	if err != nil {
		return nil, err
	}

	logger := s.logger.With(
		"request_id", uuid.NewString(),
		"platform", req.Platform,
		"page_type", req.PageType,
	)
	start := time.Now()

	session, err := s.launcher.Acquire(ctx)
	if err != nil {
		logger.Error("scrape failed", "stage", "acquire", "error", err)
		return nil, fmt.Errorf("failed to acquire browser: %w", err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			logger.Warn("browser teardown failed", "error", cerr)
		}
	}()

	doc, err := session.Open(ctx, plan.URL)
	if err != nil {
		logger.Error("scrape failed", "stage", "navigate", "url", plan.URL, "error", err)
		return nil, err
	}

	resp, err := s.Run(ctx, req, plan, doc)
	if err != nil {
		logger.Error("scrape failed", "stage", "extract", "url", plan.URL, "error", err)
		return nil, err
	}

	logger.Info("scrape completed", "url", plan.URL, "duration", time.Since(start))
	return resp, nil
}

// Run extracts plan from an already loaded document.
func (s *Service) Run(ctx context.Context, req Request, plan *Plan, doc extractor.Element) (*Response, error) {
	res, err := s.extractor.Extract(ctx, doc, plan.Page, plan.Limit)
	if err != nil {
		return nil, err
	}

	resp := &Response{Platform: req.Platform, PageType: req.PageType}
	if res.Listing {
		n := len(res.Items)
		resp.Count = &n
		resp.Data = res.Items
	} else {
		resp.Data = res.Item
	}
	return resp, nil
}
