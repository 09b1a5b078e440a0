// internal/catalog/extractor_test.go
package catalog

import (
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("Failed to parse HTML: %v", err)
	}
	return doc
}

func newTestExtractor(t *testing.T) *FieldExtractor {
	t.Helper()
	labels, _ := LabelsFor("ru")
	fe, err := NewFieldExtractor(DefaultSelectors(), labels, "https://kaspi.kz")
	if err != nil {
		t.Fatalf("Failed to create extractor: %v", err)
	}
	return fe
}

func cardHTML(name, href, price, rating string) string {
	var b strings.Builder
	b.WriteString(`<div class="item-card__info">`)
	if name != "" || href != "" {
		b.WriteString(`<a class="item-card__name-link" href="` + href + `"><span class="item-card__name">` + name + `</span></a>`)
	}
	if price != "" {
		b.WriteString(`<span class="item-card__prices-price">` + price + `</span>`)
	}
	if rating != "" {
		b.WriteString(`<span class="item-card__rating">` + rating + `</span>`)
	}
	b.WriteString(`</div>`)
	return b.String()
}

func TestFieldExtractor_Extract(t *testing.T) {
	fe := newTestExtractor(t)
	doc := parseDoc(t, cardHTML("  Phone X  ", "/shop/p/phone-x-1/", "150 000 ₸", "4.8"))

	cards := fe.Cards(doc)
	if cards.Length() != 1 {
		t.Fatalf("Expected 1 card, got %d", cards.Length())
	}

	card, err := fe.Extract(cards.First())
	if err != nil {
		t.Fatalf("Failed to extract card: %v", err)
	}
	if card.Name != "Phone X" {
		t.Errorf("Expected trimmed name 'Phone X', got %q", card.Name)
	}
	if card.Link != "https://kaspi.kz/shop/p/phone-x-1/" {
		t.Errorf("Expected absolute link, got %q", card.Link)
	}
	if card.Price != "150 000 ₸" {
		t.Errorf("Expected price '150 000 ₸', got %q", card.Price)
	}
	if card.Rating != "4.8" {
		t.Errorf("Expected rating 4.8, got %q", card.Rating)
	}
}

func TestFieldExtractor_MissingRating(t *testing.T) {
	fe := newTestExtractor(t)
	doc := parseDoc(t, cardHTML("Phone", "/p/1", "100 ₸", ""))

	card, err := fe.Extract(fe.Cards(doc).First())
	if err != nil {
		t.Fatalf("Failed to extract card: %v", err)
	}
	if card.Rating != "Нет рейтинга" {
		t.Errorf("Expected no-rating placeholder, got %q", card.Rating)
	}
}

func TestFieldExtractor_AbsoluteLinkKept(t *testing.T) {
	fe := newTestExtractor(t)
	doc := parseDoc(t, cardHTML("Phone", "https://other.example/p/1", "100", "5"))

	card, err := fe.Extract(fe.Cards(doc).First())
	if err != nil {
		t.Fatalf("Failed to extract card: %v", err)
	}
	if card.Link != "https://other.example/p/1" {
		t.Errorf("Expected absolute link to be kept, got %q", card.Link)
	}
}

func TestFieldExtractor_MissingRequiredField(t *testing.T) {
	fe := newTestExtractor(t)

	tests := []struct {
		name  string
		html  string
		field string
	}{
		{"no name", `<div class="item-card__info"><a class="item-card__name-link" href="/p/1"></a><span class="item-card__prices-price">1</span></div>`, "name"},
		{"blank name", cardHTML("   ", "/p/1", "1", ""), "name"},
		{"no link", `<div class="item-card__info"><span class="item-card__name">A</span><span class="item-card__prices-price">1</span></div>`, "link"},
		{"empty href", cardHTML("A", "", "1", ""), "link"},
		{"no price", cardHTML("A", "/p/1", "", ""), "price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parseDoc(t, tt.html)
			_, err := fe.Extract(fe.Cards(doc).First())
			var missing *MissingFieldError
			if !errors.As(err, &missing) {
				t.Fatalf("Expected MissingFieldError, got %v", err)
			}
			if missing.Field != tt.field {
				t.Errorf("Expected missing field %s, got %s", tt.field, missing.Field)
			}
		})
	}
}

func TestNewFieldExtractor_InvalidOrigin(t *testing.T) {
	labels, _ := LabelsFor("en")
	if _, err := NewFieldExtractor(DefaultSelectors(), labels, "not a url"); err == nil {
		t.Error("Expected error for origin without scheme and host")
	}
}

func TestLabelsFor(t *testing.T) {
	ru, err := LabelsFor("")
	if err != nil || ru.Name != "Название" {
		t.Errorf("Expected russian labels by default, got %+v (%v)", ru, err)
	}
	en, err := LabelsFor("EN")
	if err != nil || en.Rating != "Rating" {
		t.Errorf("Expected english labels, got %+v (%v)", en, err)
	}
	if _, err := LabelsFor("de"); err == nil {
		t.Error("Expected error for unsupported locale")
	}
}

func TestFields_Order(t *testing.T) {
	var f Fields
	f.Set("b", "1")
	f.Set("a", "2")
	f.Set("b", "3")

	keys := f.Keys()
	if len(keys) != 2 || keys[0] != "b" || keys[1] != "a" {
		t.Errorf("Expected keys [b a], got %v", keys)
	}
	if v, _ := f.Get("b"); v != "3" {
		t.Errorf("Expected overwritten value 3, got %s", v)
	}
}
