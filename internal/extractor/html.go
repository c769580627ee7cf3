package extractor

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"mangascraper/internal/schema"
)

// htmlElement is a static DOM node backed by goquery.
type htmlElement struct {
	sel  *goquery.Selection
	base *url.URL
}

// FromHTML parses an HTML document. pageURL is used to resolve relative
// src and href values and may be empty.
func FromHTML(r io.Reader, pageURL string) (Element, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return FromDocument(doc, pageURL)
}

// FromDocument wraps an already parsed goquery document.
func FromDocument(doc *goquery.Document, pageURL string) (Element, error) {
	var base *url.URL
	if pageURL != "" {
		u, err := url.Parse(pageURL)
		if err != nil {
			return nil, fmt.Errorf("invalid page URL %q: %w", pageURL, err)
		}
		base = u
	}
	return &htmlElement{sel: doc.Selection, base: base}, nil
}

func (e *htmlElement) Find(selector string) ([]Element, error) {
	m, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}

	found := e.sel.FindMatcher(m)
	out := make([]Element, 0, found.Length())
	found.Each(func(_ int, s *goquery.Selection) {
		out = append(out, &htmlElement{sel: s, base: e.base})
	})
	return out, nil
}

func (e *htmlElement) Value(mode schema.Attribute) (string, error) {
	switch mode {
	case schema.AttrSrc, schema.AttrHref:
		raw, ok := e.sel.Attr(string(mode))
		if !ok {
			return "", nil
		}
		return e.resolve(strings.TrimSpace(raw)), nil
	case schema.AttrText, "":
		return strings.TrimSpace(e.sel.Text()), nil
	default:
		return "", fmt.Errorf("unsupported attribute %q", mode)
	}
}

// resolve mirrors the DOM src/href properties, which report absolute URLs.
func (e *htmlElement) resolve(raw string) string {
	if e.base == nil || raw == "" {
		return raw
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return e.base.ResolveReference(ref).String()
}
