// internal/catalog/walker_test.go
package catalog

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Dst88/kaspi-parser/internal/browser"
	"github.com/Dst88/kaspi-parser/internal/browser/browsertest"
	"github.com/Dst88/kaspi-parser/internal/utils"
)

const startURL = "https://kaspi.kz/shop/c/smartphones/"

func pageURL(n int) string {
	if n == 1 {
		return startURL
	}
	return fmt.Sprintf("%s?page=%d", startURL, n)
}

// catalogSession builds a listing of len(pages) pages; pages[i] holds the
// product slugs of page i+1. Every product page lists one spec and seller.
func catalogSession(pages [][]string) *browsertest.Session {
	s := browsertest.NewSession()
	next := DefaultSelectors().NextPage
	for i, slugs := range pages {
		var cards strings.Builder
		for _, slug := range slugs {
			cards.WriteString(cardHTML("Product "+slug, "/shop/p/"+slug+"/", "1 000 ₸", ""))
			s.Add("https://kaspi.kz/shop/p/"+slug+"/", htmlPage(
				shortSpecs("Артикул: "+slug),
				sellersTable(seller{"Shop-" + slug, "1 000 ₸"}),
			))
		}
		d := s.Add(pageURL(i+1), htmlPage(cards.String()))
		if i+1 < len(pages) {
			d.Controls[next] = browsertest.Control{State: browser.ControlReady, Target: pageURL(i + 2)}
		} else {
			d.Controls[next] = browsertest.Control{State: browser.ControlDisabled}
		}
	}
	return s
}

func recordNames(state *RunState) []string {
	var names []string
	for _, r := range state.Records() {
		v, _ := r.Get("Название")
		names = append(names, v)
	}
	return names
}

func TestWalker_CollectsAllPages(t *testing.T) {
	s := catalogSession([][]string{{"a", "b"}, {"c"}})
	obs := &countingObserver{}
	state := NewRunState()

	result, err := NewWalker(Options{Observer: obs}).Walk(context.Background(), s, startURL, state)
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	if result.Pages != 2 || result.Reason != ReasonLastPage {
		t.Errorf("Expected 2 pages ending on last page, got %+v", result)
	}

	names := recordNames(state)
	if strings.Join(names, ",") != "Product a,Product b,Product c" {
		t.Errorf("Expected records in page order, got %v", names)
	}
	if obs.pages != 2 || obs.collected != 3 {
		t.Errorf("Expected 2 pages and 3 products observed, got %+v", obs)
	}
	if s.TabsOpened() != 3 || s.TabsClosed() != 3 {
		t.Errorf("Expected 3 tabs opened and closed, got %d/%d", s.TabsOpened(), s.TabsClosed())
	}
}

func TestWalker_RecordLayout(t *testing.T) {
	s := catalogSession([][]string{{"a"}})
	state := NewRunState()

	if _, err := NewWalker(Options{}).Walk(context.Background(), s, startURL, state); err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	records := state.Records()
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}

	want := []string{"Название", "Ссылка", "Цена", "Рейтинг", "Артикул", "Seller_1", "Price_1"}
	if got := records[0].Keys(); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("Expected keys %v, got %v", want, got)
	}
	if v, _ := records[0].Get("Ссылка"); v != "https://kaspi.kz/shop/p/a/" {
		t.Errorf("Expected absolute link, got %q", v)
	}
	if v, _ := records[0].Get("Рейтинг"); v != "Нет рейтинга" {
		t.Errorf("Expected rating placeholder, got %q", v)
	}
}

func TestWalker_BaseFieldsWinOverSpecs(t *testing.T) {
	s := browsertest.NewSession()
	s.Add(startURL, htmlPage(cardHTML("Phone", "/shop/p/x/", "5 ₸", "4")))
	s.Add("https://kaspi.kz/shop/p/x/", htmlPage(shortSpecs("Цена: 999")))

	state := NewRunState()
	if _, err := NewWalker(Options{}).Walk(context.Background(), s, startURL, state); err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	if v, _ := state.Records()[0].Get("Цена"); v != "5 ₸" {
		t.Errorf("Expected listing price to be kept, got %q", v)
	}
}

func TestWalker_SkipsBrokenCards(t *testing.T) {
	s := browsertest.NewSession()
	s.Add(startURL, htmlPage(
		cardHTML("Good", "/shop/p/good/", "1 ₸", ""),
		cardHTML("No price", "/shop/p/bad/", "", ""),
	))
	s.Add("https://kaspi.kz/shop/p/good/", htmlPage())

	var lines []string
	obs := &countingObserver{}
	state := NewRunState()
	w := NewWalker(Options{Observer: obs, Sink: func(l string) { lines = append(lines, l) }})

	result, err := w.Walk(context.Background(), s, startURL, state)
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	if result.Reason != ReasonLastPage {
		t.Errorf("Expected last page reason without next control, got %s", result.Reason)
	}
	if state.Len() != 1 || obs.skipped != 1 {
		t.Errorf("Expected 1 record and 1 skip, got %d and %d", state.Len(), obs.skipped)
	}

	var skipped bool
	for _, l := range lines {
		if strings.HasPrefix(l, "skipping product: ") {
			skipped = true
		}
	}
	if !skipped {
		t.Errorf("Expected a skip line, got %v", lines)
	}
}

func TestWalker_DetailFailureKeepsBaseRecord(t *testing.T) {
	s := browsertest.NewSession()
	s.Add(startURL, htmlPage(cardHTML("Phone", "/shop/p/missing/", "1 ₸", "5")))

	obs := &countingObserver{}
	state := NewRunState()
	if _, err := NewWalker(Options{Observer: obs}).Walk(context.Background(), s, startURL, state); err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	if state.Len() != 1 || state.Records()[0].Len() != 4 {
		t.Errorf("Expected one base-only record, got %d records", state.Len())
	}
	if obs.detailFailures != 1 {
		t.Errorf("Expected 1 detail failure, got %d", obs.detailFailures)
	}
}

func TestWalker_EmptyPageEndsCatalog(t *testing.T) {
	s := catalogSession([][]string{{"a"}, {}})

	state := NewRunState()
	result, err := NewWalker(Options{}).Walk(context.Background(), s, startURL, state)
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	if result.Reason != ReasonEndOfCatalog || result.Pages != 1 {
		t.Errorf("Expected end of catalog after 1 page, got %+v", result)
	}
}

func TestWalker_NextControlStates(t *testing.T) {
	tests := []struct {
		name    string
		control *browsertest.Control
	}{
		{"absent", nil},
		{"disabled", &browsertest.Control{State: browser.ControlDisabled}},
		{"query error", &browsertest.Control{State: browser.ControlReady, QueryErr: fmt.Errorf("eval failed")}},
		{"activation error", &browsertest.Control{State: browser.ControlReady, ActivateErr: fmt.Errorf("not clickable")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := browsertest.NewSession()
			d := s.Add(startURL, htmlPage(cardHTML("A", "/shop/p/a/", "1", "")))
			s.Add("https://kaspi.kz/shop/p/a/", htmlPage())
			if tt.control != nil {
				d.Controls[DefaultSelectors().NextPage] = *tt.control
			}

			result, err := NewWalker(Options{}).Walk(context.Background(), s, startURL, NewRunState())
			if err != nil {
				t.Fatalf("Walk failed: %v", err)
			}
			if result.Reason != ReasonLastPage {
				t.Errorf("Expected %s, got %s", ReasonLastPage, result.Reason)
			}
		})
	}
}

func TestWalker_MaxPages(t *testing.T) {
	s := catalogSession([][]string{{"a"}, {"b"}, {"c"}})

	state := NewRunState()
	result, err := NewWalker(Options{MaxPages: 2}).Walk(context.Background(), s, startURL, state)
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	if result.Reason != ReasonPageLimit || result.Pages != 2 || state.Len() != 2 {
		t.Errorf("Expected page limit after 2 pages and 2 records, got %+v with %d records", result, state.Len())
	}
}

func TestWalker_CancelBetweenProducts(t *testing.T) {
	s := catalogSession([][]string{{"a", "b", "c"}, {"d"}})
	state := NewRunState()
	s.OnNavigate = func(url string) {
		if url == "https://kaspi.kz/shop/p/b/" {
			state.Cancel()
		}
	}

	result, err := NewWalker(Options{}).Walk(context.Background(), s, startURL, state)
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	if result.Reason != ReasonCancelled {
		t.Errorf("Expected cancelled walk, got %s", result.Reason)
	}
	// The product being processed when the flag is set is still completed.
	if names := recordNames(state); strings.Join(names, ",") != "Product a,Product b" {
		t.Errorf("Expected records a and b, got %v", names)
	}
	for _, u := range s.Navigations() {
		if u == pageURL(2) || strings.HasSuffix(u, "/c/") {
			t.Errorf("Expected no navigation after cancellation, got %s", u)
		}
	}
}

func TestWalker_CancelledBeforeStart(t *testing.T) {
	s := catalogSession([][]string{{"a"}})
	state := NewRunState()
	state.Cancel()

	result, err := NewWalker(Options{}).Walk(context.Background(), s, startURL, state)
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	if result.Reason != ReasonCancelled || state.Len() != 0 {
		t.Errorf("Expected immediate cancellation, got %+v with %d records", result, state.Len())
	}
}

func TestWalker_StartPageLoadFailure(t *testing.T) {
	s := browsertest.NewSession()
	s.NavigateErr[startURL] = fmt.Errorf("connection refused")

	result, err := NewWalker(Options{LoadRetries: 2, RetryDelay: time.Millisecond}).Walk(context.Background(), s, startURL, NewRunState())
	if err == nil {
		t.Fatal("Expected error for unreachable start page")
	}
	if !utils.HasCode(err, utils.ErrCodePageLoadFailed) {
		t.Errorf("Expected PAGE_LOAD_FAILED, got %v", err)
	}
	if result.Reason != ReasonLoadFailed {
		t.Errorf("Expected load failure reason, got %s", result.Reason)
	}
	if n := len(s.Navigations()); n != 3 {
		t.Errorf("Expected 3 load attempts, got %d", n)
	}
}

func TestWalker_ContextCancelled(t *testing.T) {
	s := catalogSession([][]string{{"a"}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewWalker(Options{}).Walk(ctx, s, startURL, NewRunState())
	if err == nil {
		t.Error("Expected error for cancelled context")
	}
}

func TestRunState_CancelAfterFinish(t *testing.T) {
	state := NewRunState()
	state.Finish()
	if state.Cancel() {
		t.Error("Expected Cancel to report false after Finish")
	}
	if state.Cancelled() {
		t.Error("Expected finished state to stay uncancelled")
	}
}

// idempotentSession is a two-page catalog whose product b has colliding
// spec keys and more sellers than the cap, duplicates included.
func idempotentSession() *browsertest.Session {
	s := catalogSession([][]string{{"a", "b"}, {"c"}})
	short := shortSpecs("Артикул: b", "Цвет: черный", "Память: 128 ГБ")
	addProduct(s, "https://kaspi.kz/shop/p/b/", htmlPage(short), htmlPage(
		short,
		specTable("Память", "256 ГБ", "Вес", "180 г"),
		sellersTable(
			seller{"A", "100 000 ₸"},
			seller{"B", "99 000 ₸"},
			seller{"A", "98 000 ₸"},
			seller{"C", "97\u202f000 ₸"},
			seller{"D", "1"},
			seller{"E", "2"},
			seller{"F", "3"},
			seller{"G", "4"},
		),
	))
	return s
}

func TestWalker_Idempotent(t *testing.T) {
	walk := func() []*ProductRecord {
		state := NewRunState()
		if _, err := NewWalker(Options{}).Walk(context.Background(), idempotentSession(), startURL, state); err != nil {
			t.Fatalf("Walk failed: %v", err)
		}
		return state.Records()
	}

	first, second := walk(), walk()
	if len(first) != 3 || len(second) != len(first) {
		t.Fatalf("Expected 3 records per run, got %d and %d", len(first), len(second))
	}
	for i := range first {
		keys := first[i].Keys()
		if got := second[i].Keys(); strings.Join(got, "|") != strings.Join(keys, "|") {
			t.Fatalf("Record %d keys differ:\n%v\n%v", i, keys, got)
		}
		for _, k := range keys {
			a, _ := first[i].Get(k)
			b, _ := second[i].Get(k)
			if a != b {
				t.Errorf("Record %d %s differs: %q vs %q", i, k, a, b)
			}
		}
	}

	b := first[1]
	want := []string{
		"Название", "Ссылка", "Цена", "Рейтинг",
		"Артикул", "Цвет", "Память", "Вес",
		"Seller_1", "Price_1", "Seller_2", "Price_2", "Seller_3", "Price_3",
		"Seller_4", "Price_4", "Seller_5", "Price_5", "Seller_6", "Price_6",
	}
	if got := b.Keys(); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("Expected keys %v, got %v", want, got)
	}
	if v, _ := b.Get("Память"); v != "256 ГБ" {
		t.Errorf("Expected table value to win, got %q", v)
	}
	if v, _ := b.Get("Seller_3"); v != "C" {
		t.Errorf("Expected duplicate seller skipped, got Seller_3=%q", v)
	}
	if v, _ := b.Get("Price_3"); v != "97 000 ₸" {
		t.Errorf("Expected narrow no-break space collapsed, got %q", v)
	}
	if v, _ := b.Get("Seller_6"); v != "F" {
		t.Errorf("Expected sixth seller F, got %q", v)
	}
}
