package schema

import "sort"

// Attribute selects how a matched element is turned into a string.
type Attribute string

const (
	AttrText Attribute = "text" // trimmed text content
	AttrSrc  Attribute = "src"  // resolved src URL
	AttrHref Attribute = "href" // resolved href URL
)

// Valid reports whether a is one of the supported extraction modes.
func (a Attribute) Valid() bool {
	switch a {
	case AttrText, AttrSrc, AttrHref:
		return true
	}
	return false
}

// Field describes how one output field is derived from the page.
type Field struct {
	Selector  string    `yaml:"selector" json:"selector"`
	Attribute Attribute `yaml:"attribute,omitempty" json:"attribute"`
	Multiple  bool      `yaml:"multiple,omitempty" json:"multiple"`
}

// Mode returns the extraction mode, defaulting to text.
func (f Field) Mode() Attribute {
	if f.Attribute == "" {
		return AttrText
	}
	return f.Attribute
}

// PageConfig is one named extraction template of a Source.
type PageConfig struct {
	Type      string           `yaml:"-" json:"type"`
	URLPath   string           `yaml:"url_path" json:"urlPath"`
	Container string           `yaml:"container,omitempty" json:"container,omitempty"`
	Anchor    string           `yaml:"anchor,omitempty" json:"anchor,omitempty"`
	Fields    map[string]Field `yaml:"fields" json:"fields"`
}

// Listing reports whether the page repeats items under a container selector.
func (p *PageConfig) Listing() bool {
	return p.Container != ""
}

// AnchorSelector returns the selector whose presence confirms a detail page
// loaded the expected layout: the explicit anchor, else the image field,
// else the document body.
func (p *PageConfig) AnchorSelector() string {
	if p.Anchor != "" {
		return p.Anchor
	}
	if img, ok := p.Fields["image"]; ok && img.Selector != "" {
		return img.Selector
	}
	return "body"
}

// FieldNames returns the configured output field names in sorted order.
func (p *PageConfig) FieldNames() []string {
	return sortedKeys(p.Fields)
}

// Source is a configured target site.
type Source struct {
	Key     string                 `yaml:"-" json:"platform"`
	BaseURL string                 `yaml:"base_url" json:"baseUrl"`
	Pages   map[string]*PageConfig `yaml:"pages" json:"pages"`
}

// PageTypes returns every page type the source supports, sorted.
func (s *Source) PageTypes() []string {
	return sortedKeys(s.Pages)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
