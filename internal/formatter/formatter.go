package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/microcosm-cc/bluemonday"

	"mangascraper/internal/extractor"
	"mangascraper/internal/scraper"
)

// Formats lists the supported output formats.
var Formats = []string{"json", "text", "markdown", "html", "csv"}

// listSep joins multi-valued fields in flat formats.
const listSep = "; "

// textPolicy drops every tag from scraped text and escapes what remains.
var textPolicy = bluemonday.StrictPolicy()

// Content renders a scrape response in several formats.
type Content struct {
	resp    *scraper.Response
	items   []extractor.Item
	columns []string
}

// New wraps resp for rendering.
func New(resp *scraper.Response) *Content {
	items := resp.Items()
	return &Content{resp: resp, items: items, columns: columns(items)}
}

// Format renders resp in format.
func Format(resp *scraper.Response, format string) (string, error) {
	c := New(resp)
	switch format {
	case "html":
		return c.ToHTML()
	case "text":
		return c.ToText()
	case "markdown":
		return c.ToMarkdown()
	case "csv":
		return c.ToCSV()
	case "json":
		b, err := c.ToJSON()
		if err != nil {
			return "", err
		}
		return string(b), nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", format)
	}
}

// ToJSON returns the response envelope as indented JSON.
func (c *Content) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c.resp, "", "  ")
}

// ToHTML returns the records as an HTML table. Markup inside scraped
// values is stripped, not rendered.
func (c *Content) ToHTML() (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "<h1>%s / %s</h1>\n", textPolicy.Sanitize(c.resp.Platform), textPolicy.Sanitize(c.resp.PageType))
	b.WriteString("<table>\n<thead><tr>")
	for _, col := range c.columns {
		fmt.Fprintf(&b, "<th>%s</th>", textPolicy.Sanitize(col))
	}
	b.WriteString("</tr></thead>\n<tbody>\n")
	for _, it := range c.items {
		b.WriteString("<tr>")
		for _, col := range c.columns {
			fmt.Fprintf(&b, "<td>%s</td>", textPolicy.Sanitize(flatten(it[col])))
		}
		b.WriteString("</tr>\n")
	}
	b.WriteString("</tbody>\n</table>\n")
	return b.String(), nil
}

// ToMarkdown returns the records as a Markdown table.
func (c *Content) ToMarkdown() (string, error) {
	h, err := c.ToHTML()
	if err != nil {
		return "", err
	}

	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.Table())
	markdown, err := converter.ConvertString(h)
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to Markdown: %w", err)
	}
	return markdown, nil
}

// ToText returns one block of "field: value" lines per record.
func (c *Content) ToText() (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s / %s (%d)\n", c.resp.Platform, c.resp.PageType, len(c.items))
	for i, it := range c.items {
		b.WriteString("\n")
		if len(c.items) > 1 {
			fmt.Fprintf(&b, "#%d\n", i+1)
		}
		for _, col := range c.columns {
			fmt.Fprintf(&b, "%s: %s\n", col, flatten(it[col]))
		}
	}
	return b.String(), nil
}

// ToCSV returns the records with a header row of field names.
func (c *Content) ToCSV() (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(c.columns); err != nil {
		return "", err
	}
	for _, it := range c.items {
		record := make([]string, len(c.columns))
		for i, col := range c.columns {
			record[i] = flatten(it[col])
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to write CSV: %w", err)
	}
	return buf.String(), nil
}

func columns(items []extractor.Item) []string {
	seen := map[string]struct{}{}
	for _, it := range items {
		for k := range it {
			seen[k] = struct{}{}
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

func flatten(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []string:
		return strings.Join(t, listSep)
	default:
		return fmt.Sprint(t)
	}
}
