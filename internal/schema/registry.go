package schema

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed sources.yaml
var defaultCatalogue []byte

// UnknownSourceError is returned when a platform key is not registered.
type UnknownSourceError struct {
	Key       string
	Supported []string
}

func (e *UnknownSourceError) Error() string {
	return fmt.Sprintf("Platform '%s' not supported.", e.Key)
}

// UnknownPageError is returned when a page type is not registered for a source.
type UnknownPageError struct {
	Source    string
	PageType  string
	Supported []string
}

func (e *UnknownPageError) Error() string {
	return fmt.Sprintf("Page type '%s' not supported for platform '%s'.", e.PageType, e.Source)
}

// Registry is the read-only catalogue of sources. It is safe for concurrent
// use because nothing mutates it after Load returns.
type Registry struct {
	sources map[string]*Source
}

// Default returns the registry built from the embedded catalogue.
func Default() (*Registry, error) {
	return Load(bytes.NewReader(defaultCatalogue))
}

// LoadFile reads a YAML catalogue from path.
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalogue: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses a YAML catalogue and checks its shape.
func Load(r io.Reader) (*Registry, error) {
	var raw map[string]*Source
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse catalogue: %w", err)
	}
	return New(raw)
}

// New builds a registry from already-decoded sources, validating every entry.
func New(sources map[string]*Source) (*Registry, error) {
	if len(sources) == 0 {
		return nil, errors.New("catalogue defines no sources")
	}

	reg := &Registry{sources: make(map[string]*Source, len(sources))}
	var errs []error
	for key, src := range sources {
		if src == nil {
			errs = append(errs, fmt.Errorf("source %q: empty definition", key))
			continue
		}
		src.Key = key
		errs = append(errs, validateSource(src)...)

		for name, page := range src.Pages {
			if page == nil {
				errs = append(errs, fmt.Errorf("source %q page %q: empty definition", key, name))
				continue
			}
			page.Type = name
			errs = append(errs, validatePage(key, page)...)
		}
		reg.sources[key] = src
	}

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid catalogue: %w", err)
	}
	return reg, nil
}

// LookupSource returns the source registered under key. Keys match exactly.
func (r *Registry) LookupSource(key string) (*Source, error) {
	src, ok := r.sources[key]
	if !ok {
		return nil, &UnknownSourceError{Key: key, Supported: r.Sources()}
	}
	return src, nil
}

// LookupPage returns the page configuration of src named pageType.
func (r *Registry) LookupPage(src *Source, pageType string) (*PageConfig, error) {
	page, ok := src.Pages[pageType]
	if !ok {
		return nil, &UnknownPageError{Source: src.Key, PageType: pageType, Supported: src.PageTypes()}
	}
	return page, nil
}

// Sources returns every registered source key, sorted.
func (r *Registry) Sources() []string {
	return sortedKeys(r.sources)
}

func validateSource(src *Source) []error {
	var errs []error
	u, err := url.Parse(src.BaseURL)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("source %q: invalid base_url: %w", src.Key, err))
	case u.Scheme != "http" && u.Scheme != "https":
		errs = append(errs, fmt.Errorf("source %q: base_url must use http or https", src.Key))
	case u.Host == "":
		errs = append(errs, fmt.Errorf("source %q: base_url has no host", src.Key))
	case u.Path != "" || u.RawQuery != "" || u.Fragment != "":
		errs = append(errs, fmt.Errorf("source %q: base_url must not carry a path", src.Key))
	}
	if len(src.Pages) == 0 {
		errs = append(errs, fmt.Errorf("source %q: no pages defined", src.Key))
	}
	return errs
}

func validatePage(source string, page *PageConfig) []error {
	var errs []error
	prefix := fmt.Sprintf("source %q page %q", source, page.Type)

	if !strings.HasPrefix(page.URLPath, "/") {
		errs = append(errs, fmt.Errorf("%s: url_path must start with /", prefix))
	}
	if n := strings.Count(page.URLPath, SlugPlaceholder); n > 1 {
		errs = append(errs, fmt.Errorf("%s: url_path has %d slug placeholders", prefix, n))
	}
	if page.Anchor != "" && page.Container != "" {
		errs = append(errs, fmt.Errorf("%s: anchor is only valid without a container", prefix))
	}
	if len(page.Fields) == 0 {
		errs = append(errs, fmt.Errorf("%s: no fields defined", prefix))
	}
	for name, f := range page.Fields {
		if strings.TrimSpace(f.Selector) == "" {
			errs = append(errs, fmt.Errorf("%s field %q: empty selector", prefix, name))
		}
		if f.Attribute != "" && !f.Attribute.Valid() {
			errs = append(errs, fmt.Errorf("%s field %q: unknown attribute %q", prefix, name, f.Attribute))
		}
	}
	return errs
}
