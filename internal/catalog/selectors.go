// internal/catalog/selectors.go
package catalog

import (
	"fmt"
	"strings"
)

// DefaultMaxSellers is the number of Seller_i/Price_i pairs kept per product.
const DefaultMaxSellers = 6

// Selectors locate product data in the rendered catalog. CSS selectors are
// evaluated with goquery on a snapshot of the page; XPath expressions are
// evaluated live in the browser to find clickable controls.
type Selectors struct {
	Card   string `yaml:"card" json:"card"`
	Name   string `yaml:"name" json:"name"`
	Link   string `yaml:"link" json:"link"`
	Price  string `yaml:"price" json:"price"`
	Rating string `yaml:"rating" json:"rating"`

	ShortSpec string `yaml:"short_spec" json:"short_spec"`

	SpecTab        string `yaml:"spec_tab_xpath" json:"spec_tab_xpath"`
	SpecEntry      string `yaml:"spec_entry" json:"spec_entry"`
	SpecTerm       string `yaml:"spec_term" json:"spec_term"`
	SpecDefinition string `yaml:"spec_definition" json:"spec_definition"`

	// SellerTable matches the offer table; only its first match is read.
	SellerTable string `yaml:"seller_table" json:"seller_table"`
	SellerRow   string `yaml:"seller_row" json:"seller_row"`
	SellerLink  string `yaml:"seller_link" json:"seller_link"`
	SellerPrice string `yaml:"seller_price" json:"seller_price"`

	NextPage string `yaml:"next_page_xpath" json:"next_page_xpath"`
}

// DefaultSelectors returns selectors for the kaspi.kz storefront.
func DefaultSelectors() Selectors {
	return Selectors{
		Card:   ".item-card__info",
		Name:   ".item-card__name",
		Link:   "a.item-card__name-link",
		Price:  "span.item-card__prices-price",
		Rating: ".item-card__rating",

		ShortSpec: "ul.short-specifications li.short-specifications__text",

		SpecTab:        `//li[contains(@class, "tabs-content__tab") and contains(text(), "Характеристики")]`,
		SpecEntry:      "dl.specifications-list__el dl.specifications-list__spec",
		SpecTerm:       "span.specifications-list__spec-term-text",
		SpecDefinition: "dd.specifications-list__spec-definition",

		SellerTable: "table.sellers-table__self",
		SellerRow:   "tr",
		SellerLink:  "a[href]",
		SellerPrice: "div.sellers-table__price-cell-text",

		NextPage: `//li[contains(@class, "pagination__el") and contains(text(), "Следующая")]`,
	}
}

// WithDefaults fills empty selectors from DefaultSelectors.
func (s Selectors) WithDefaults() Selectors {
	d := DefaultSelectors()
	fill := func(dst *string, def string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = def
		}
	}
	fill(&s.Card, d.Card)
	fill(&s.Name, d.Name)
	fill(&s.Link, d.Link)
	fill(&s.Price, d.Price)
	fill(&s.Rating, d.Rating)
	fill(&s.ShortSpec, d.ShortSpec)
	fill(&s.SpecTab, d.SpecTab)
	fill(&s.SpecEntry, d.SpecEntry)
	fill(&s.SpecTerm, d.SpecTerm)
	fill(&s.SpecDefinition, d.SpecDefinition)
	fill(&s.SellerTable, d.SellerTable)
	fill(&s.SellerRow, d.SellerRow)
	fill(&s.SellerLink, d.SellerLink)
	fill(&s.SellerPrice, d.SellerPrice)
	fill(&s.NextPage, d.NextPage)
	return s
}

// Labels are the column names and placeholder texts written to records.
type Labels struct {
	Name     string `yaml:"name" json:"name"`
	Link     string `yaml:"link" json:"link"`
	Price    string `yaml:"price" json:"price"`
	Rating   string `yaml:"rating" json:"rating"`
	NoRating string `yaml:"no_rating" json:"no_rating"`
}

// LabelsFor returns the labels of a locale ("ru" or "en").
func LabelsFor(locale string) (Labels, error) {
	switch strings.ToLower(strings.TrimSpace(locale)) {
	case "", "ru":
		return Labels{
			Name:     "Название",
			Link:     "Ссылка",
			Price:    "Цена",
			Rating:   "Рейтинг",
			NoRating: "Нет рейтинга",
		}, nil
	case "en":
		return Labels{
			Name:     "Name",
			Link:     "Link",
			Price:    "Price",
			Rating:   "Rating",
			NoRating: "No rating",
		}, nil
	default:
		return Labels{}, fmt.Errorf("unsupported locale %q", locale)
	}
}

// SellerKey and PriceKey name the i-th (1-based) seller columns.
func SellerKey(i int) string { return fmt.Sprintf("Seller_%d", i) }

func PriceKey(i int) string { return fmt.Sprintf("Price_%d", i) }
