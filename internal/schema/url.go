package schema

import "strings"

// SlugPlaceholder is the token replaced by the request slug in a url_path.
const SlugPlaceholder = "{slug}"

// NeedsSlug reports whether the page URL embeds the slug placeholder.
func (p *PageConfig) NeedsSlug() bool {
	return strings.Contains(p.URLPath, SlugPlaceholder)
}

// URL builds the navigation URL of p for src.
func (p *PageConfig) URL(src *Source, slug string) string {
	return ResolveURL(src.BaseURL, p.URLPath, slug)
}

// ResolveURL substitutes slug into urlPath verbatim and appends the result to
// baseURL. No escaping or slash normalization is applied, and an empty slug
// leaves the placeholder in place.
func ResolveURL(baseURL, urlPath, slug string) string {
	path := urlPath
	if strings.Contains(path, SlugPlaceholder) && slug != "" {
		path = strings.Replace(path, SlugPlaceholder, slug, 1)
	}
	return baseURL + path
}
