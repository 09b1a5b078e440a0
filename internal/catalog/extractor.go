// internal/catalog/extractor.go
package catalog

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Card holds the fields read from one product card on a listing page.
type Card struct {
	Name   string
	Link   string
	Price  string
	Rating string
}

// MissingFieldError reports a required card field that could not be found.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("product card has no %s", e.Field)
}

// FieldExtractor reads product cards with fixed structural selectors.
type FieldExtractor struct {
	selectors Selectors
	noRating  string
	origin    *url.URL
}

// NewFieldExtractor creates an extractor that resolves relative product
// links against origin.
func NewFieldExtractor(selectors Selectors, labels Labels, origin string) (*FieldExtractor, error) {
	base, err := url.Parse(origin)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid catalog origin %q", origin)
	}
	return &FieldExtractor{
		selectors: selectors.WithDefaults(),
		noRating:  labels.NoRating,
		origin:    base,
	}, nil
}

// Cards returns the product cards of a listing page in document order.
func (fe *FieldExtractor) Cards(doc *goquery.Document) *goquery.Selection {
	return doc.Find(fe.selectors.Card)
}

// Extract reads name, link, price and rating from card. Name, link and
// price are required; a missing rating yields the no-rating placeholder.
func (fe *FieldExtractor) Extract(card *goquery.Selection) (Card, error) {
	name := text(card.Find(fe.selectors.Name))
	if name == "" {
		return Card{}, &MissingFieldError{Field: "name"}
	}

	href, _ := card.Find(fe.selectors.Link).First().Attr("href")
	href = strings.TrimSpace(href)
	if href == "" {
		return Card{}, &MissingFieldError{Field: "link"}
	}
	link, err := fe.resolve(href)
	if err != nil {
		return Card{}, err
	}

	price := text(card.Find(fe.selectors.Price))
	if price == "" {
		return Card{}, &MissingFieldError{Field: "price"}
	}

	rating := text(card.Find(fe.selectors.Rating))
	if rating == "" {
		rating = fe.noRating
	}

	return Card{Name: name, Link: link, Price: price, Rating: rating}, nil
}

func (fe *FieldExtractor) resolve(href string) (string, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("invalid product link %q: %w", href, err)
	}
	return fe.origin.ResolveReference(ref).String(), nil
}

// text returns the trimmed text of the first matched element.
func text(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	return strings.TrimSpace(sel.First().Text())
}
