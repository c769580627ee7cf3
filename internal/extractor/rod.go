package extractor

import (
	"fmt"

	"github.com/go-rod/rod"

	"mangascraper/internal/schema"
)

// valueJS reads one node. src and href go through the DOM properties so
// the browser resolves them to absolute URLs.
const valueJS = `(mode) => {
	switch (mode) {
	case 'src': return this.src || '';
	case 'href': return this.href || '';
	default: return (this.textContent || '').trim();
	}
}`

// rodPage is the document scope of a live tab.
type rodPage struct {
	page *rod.Page
}

// FromPage returns the document of a live tab as an Element.
func FromPage(page *rod.Page) Element {
	return &rodPage{page: page}
}

func (p *rodPage) Find(selector string) ([]Element, error) {
	els, err := p.page.Elements(selector)
	if err != nil {
		return nil, err
	}
	return wrapRod(els), nil
}

func (p *rodPage) Value(mode schema.Attribute) (string, error) {
	body, err := p.page.Element("body")
	if err != nil {
		return "", err
	}
	return (&rodElement{el: body}).Value(mode)
}

// rodElement is a node of a live tab.
type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Find(selector string) ([]Element, error) {
	els, err := e.el.Elements(selector)
	if err != nil {
		return nil, err
	}
	return wrapRod(els), nil
}

func (e *rodElement) Value(mode schema.Attribute) (string, error) {
	if mode == "" {
		mode = schema.AttrText
	}
	res, err := e.el.Eval(valueJS, string(mode))
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", mode, err)
	}
	return res.Value.Str(), nil
}

func wrapRod(els rod.Elements) []Element {
	out := make([]Element, len(els))
	for i, el := range els {
		out[i] = &rodElement{el: el}
	}
	return out
}
