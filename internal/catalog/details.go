// internal/catalog/details.go
package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Dst88/kaspi-parser/internal/browser"
)

// DetailMerger opens product pages in their own tab and collects
// specifications and seller offers.
type DetailMerger struct {
	selectors  Selectors
	maxSellers int
	tabDelay   time.Duration
	report     reporter
	observer   Observer
}

// NewDetailMerger creates a merger from opts.
func NewDetailMerger(opts Options) *DetailMerger {
	opts = opts.withDefaults()
	return &DetailMerger{
		selectors:  opts.Selectors,
		maxSellers: opts.MaxSellers,
		tabDelay:   opts.TabDelay,
		report:     newReporter(opts),
		observer:   opts.Observer,
	}
}

// Enrich returns the merged specifications and Seller_i/Price_i pairs of
// the product at url. Failures are reported and yield an empty map.
func (m *DetailMerger) Enrich(ctx context.Context, session browser.Session, url string) *SpecificationMap {
	details, err := m.details(ctx, session, url)
	if err != nil {
		m.observer.DetailFailed()
		m.report.warnf("product details unavailable for %s: %v", url, err)
		return &SpecificationMap{}
	}
	return details
}

func (m *DetailMerger) details(ctx context.Context, session browser.Session, url string) (*SpecificationMap, error) {
	tab, err := session.NewTab(ctx)
	if err != nil {
		return nil, err
	}
	defer tab.Close()

	if err := tab.Navigate(ctx, url); err != nil {
		return nil, err
	}

	doc, err := snapshot(ctx, tab)
	if err != nil {
		return nil, err
	}
	short := ParseShortSpecs(doc, m.selectors)

	var table *Fields
	if revealed, ok := m.revealCharacteristics(ctx, tab); ok {
		table = ParseSpecTable(revealed, m.selectors)
		doc = revealed
	}

	merged := MergeSpecs(short, table)
	offers := DedupeSellers(ParseSellers(doc, m.selectors), m.maxSellers)
	FoldSellers(&merged.Fields, offers)

	return merged, nil
}

// revealCharacteristics activates the characteristics tab when the page
// has one and returns the re-rendered document.
func (m *DetailMerger) revealCharacteristics(ctx context.Context, page browser.Page) (*goquery.Document, bool) {
	state, err := page.Control(ctx, m.selectors.SpecTab)
	if err != nil || state != browser.ControlReady {
		return nil, false
	}
	if err := page.Activate(ctx, m.selectors.SpecTab, m.tabDelay); err != nil {
		m.report.debugf("characteristics tab not activated: %v", err)
		return nil, false
	}
	doc, err := snapshot(ctx, page)
	if err != nil {
		m.report.debugf("characteristics tab not readable: %v", err)
		return nil, false
	}
	return doc, true
}

// ParseShortSpecs reads "key: value" entries of the short specification
// list. Entries without a colon are ignored.
func ParseShortSpecs(doc *goquery.Document, selectors Selectors) *Fields {
	specs := &Fields{}
	doc.Find(selectors.ShortSpec).Each(func(_ int, s *goquery.Selection) {
		key, value, ok := strings.Cut(strings.TrimSpace(s.Text()), ":")
		if !ok {
			return
		}
		if key = strings.TrimSpace(key); key == "" {
			return
		}
		specs.Set(key, strings.TrimSpace(value))
	})
	return specs
}

// ParseSpecTable reads term/definition pairs of the characteristics table.
func ParseSpecTable(doc *goquery.Document, selectors Selectors) *Fields {
	specs := &Fields{}
	doc.Find(selectors.SpecEntry).Each(func(_ int, s *goquery.Selection) {
		term := s.Find(selectors.SpecTerm)
		def := s.Find(selectors.SpecDefinition)
		if term.Length() == 0 || def.Length() == 0 {
			return
		}
		specs.Set(text(term), text(def))
	})
	return specs
}

// MergeSpecs overlays table on short; table values win on equal keys.
func MergeSpecs(short, table *Fields) *SpecificationMap {
	merged := &SpecificationMap{}
	merged.Overlay(short)
	merged.Overlay(table)
	return merged
}

// ParseSellers reads seller offers of the first seller table in row
// order. Rows without a seller link are skipped; a link without text
// yields an offer with an empty seller name.
func ParseSellers(doc *goquery.Document, selectors Selectors) []SellerOffer {
	var offers []SellerOffer
	table := doc.Find(selectors.SellerTable).First()
	table.Find(selectors.SellerRow).Each(func(_ int, row *goquery.Selection) {
		link := row.Find(selectors.SellerLink)
		if link.Length() == 0 {
			return
		}
		offer := SellerOffer{Seller: text(link)}
		if price := row.Find(selectors.SellerPrice); price.Length() > 0 {
			offer.Price = NormalizePrice(price.First().Text())
			offer.HasPrice = true
		}
		offers = append(offers, offer)
	})
	return offers
}

var nbspRemover = strings.NewReplacer("\u00a0", "")

// NormalizePrice drops U+00A0 no-break spaces and collapses remaining
// whitespace runs, narrow no-break spaces included, into single spaces.
func NormalizePrice(s string) string {
	return strings.Join(strings.Fields(nbspRemover.Replace(s)), " ")
}

// DedupeSellers keeps the first offer of every seller, at most limit offers.
func DedupeSellers(offers []SellerOffer, limit int) []SellerOffer {
	if limit <= 0 {
		return nil
	}
	seen := make(map[string]bool, len(offers))
	kept := make([]SellerOffer, 0, min(len(offers), limit))
	for _, o := range offers {
		if len(kept) >= limit {
			break
		}
		if seen[o.Seller] {
			continue
		}
		seen[o.Seller] = true
		kept = append(kept, o)
	}
	return kept
}

// FoldSellers stores offers as Seller_i/Price_i pairs. An offer without a
// price gets an empty Price_i so that the pair stays complete.
func FoldSellers(f *Fields, offers []SellerOffer) {
	for i, o := range offers {
		f.Set(SellerKey(i+1), o.Seller)
		f.Set(PriceKey(i+1), o.Price)
	}
}

func snapshot(ctx context.Context, page browser.Page) (*goquery.Document, error) {
	html, err := page.HTML(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}
