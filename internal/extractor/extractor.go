package extractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"mangascraper/internal/schema"
)

// ErrContainerNotFound is returned when a detail page lacks its anchor
// element, meaning the page did not render the expected layout.
var ErrContainerNotFound = errors.New("container not found on details page")

// Item is one extracted record. Values are string or []string.
type Item map[string]any

// Result holds the outcome of one extraction. Listing pages fill Items,
// detail pages fill Item.
type Result struct {
	Listing bool
	Items   []Item
	Item    Item
}

// Extractor applies a page template to a DOM.
type Extractor struct {
	logger *slog.Logger
}

// New creates an Extractor.
func New(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// Extract runs page against doc. For listing pages at most limit items are
// returned, in document order.
func (e *Extractor) Extract(ctx context.Context, doc Element, page *schema.PageConfig, limit int) (*Result, error) {
	if page.Listing() {
		items, err := e.extractListing(ctx, doc, page, limit)
		if err != nil {
			return nil, err
		}
		return &Result{Listing: true, Items: items}, nil
	}

	item, err := e.extractDetail(ctx, doc, page)
	if err != nil {
		return nil, err
	}
	return &Result{Item: item}, nil
}

func (e *Extractor) extractListing(ctx context.Context, doc Element, page *schema.PageConfig, limit int) ([]Item, error) {
	containers, err := doc.Find(page.Container)
	if err != nil {
		return nil, fmt.Errorf("failed to query containers %q: %w", page.Container, err)
	}
	if limit < len(containers) {
		containers = containers[:max(limit, 0)]
	}

	items := make([]Item, len(containers))
	var wg sync.WaitGroup
	for i, c := range containers {
		wg.Add(1)
		go func(i int, c Element) {
			defer wg.Done()
			items[i] = e.extractItem(c, page)
		}(i, c)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.logger.Debug("listing extracted", "found", len(containers), "limit", limit)
	return items, nil
}

func (e *Extractor) extractDetail(ctx context.Context, doc Element, page *schema.PageConfig) (Item, error) {
	anchor := page.AnchorSelector()
	found, err := doc.Find(anchor)
	if err != nil {
		return nil, fmt.Errorf("failed to query anchor %q: %w", anchor, err)
	}
	if len(found) == 0 {
		return nil, ErrContainerNotFound
	}

	item := e.extractItem(doc, page)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return item, nil
}

// extractItem resolves every field of page relative to scope. Fields never
// fail: a miss yields the empty value for the field's cardinality.
func (e *Extractor) extractItem(scope Element, page *schema.PageConfig) Item {
	item := make(Item, len(page.Fields))
	for _, name := range page.FieldNames() {
		field := page.Fields[name]
		v, err := resolveField(scope, field)
		if err != nil {
			e.logger.Debug("field unresolved", "field", name, "selector", field.Selector, "error", err)
			v = emptyValue(field)
		}
		item[name] = v
	}
	return item
}

var errNoMatch = errors.New("no element matched")

func resolveField(scope Element, field schema.Field) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, err = nil, fmt.Errorf("panic while resolving field: %v", r)
		}
	}()

	matches, err := scope.Find(field.Selector)
	if err != nil {
		return nil, err
	}

	mode := field.Mode()
	if !field.Multiple {
		if len(matches) == 0 {
			return nil, errNoMatch
		}
		return matches[0].Value(mode)
	}

	values := make([]string, 0, len(matches))
	for _, m := range matches {
		s, err := m.Value(mode)
		if err != nil {
			return nil, err
		}
		if s != "" {
			values = append(values, s)
		}
	}
	return values, nil
}

func emptyValue(field schema.Field) any {
	if field.Multiple {
		return []string{}
	}
	return ""
}
