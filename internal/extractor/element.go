package extractor

import "mangascraper/internal/schema"

// Element is a DOM scope the engine can query. A document root and a
// matched node both satisfy it.
type Element interface {
	// Find returns every descendant matching selector, in document order.
	// No match is an empty slice, not an error.
	Find(selector string) ([]Element, error)
	// Value reads the element according to mode: trimmed text content, or
	// the absolute URL of its src/href.
	Value(mode schema.Attribute) (string, error)
}
