package places

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/sakif/leadbook/internal/apperror"
)

// fakeProvider serves pages keyed by page token ("" is the first page) and
// details keyed by place ID. Details for IDs absent from the map are empty.
type fakeProvider struct {
	mu          sync.Mutex
	pages       map[string]Page
	details     map[string]Details
	searchErr   error
	detailErr   map[string]error
	queries     []string
	tokens      []string
	detailCalls int
}

func (f *fakeProvider) TextSearch(_ context.Context, query, _, token string) (Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	f.tokens = append(f.tokens, token)
	if f.searchErr != nil {
		return Page{}, f.searchErr
	}
	return f.pages[token], nil
}

func (f *fakeProvider) Details(_ context.Context, id, _ string) (Details, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailCalls++
	if err := f.detailErr[id]; err != nil {
		return Details{}, err
	}
	return f.details[id], nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSearcher(p Provider, cities ...string) *Searcher {
	return NewSearcher(p, cities, Options{Language: "tr", DetailWorkers: 3}, discardLogger())
}

func hits(prefix string, n int) []Hit {
	out := make([]Hit, n)
	for i := range out {
		out[i] = Hit{PlaceID: fmt.Sprintf("%s%d", prefix, i), Name: fmt.Sprintf("%s%d", prefix, i)}
	}
	return out
}

func detailsFor(hs []Hit, phone string) map[string]Details {
	m := map[string]Details{}
	for _, h := range hs {
		m[h.PlaceID] = Details{
			Name:             h.Name,
			FormattedAddress: h.Name + " address",
			Phone:            phone,
			AddressComponents: []AddressComponent{
				{LongName: "Çankaya", Types: []string{"sublocality", "political"}},
				{LongName: "Ankara", Types: []string{"administrative_area_level_1", "political"}},
			},
		}
	}
	return m
}

func TestSearch_PaginatesUntilLimit(t *testing.T) {
	first, second, third := hits("a", 20), hits("b", 20), hits("c", 20)
	all := append(append(append([]Hit{}, first...), second...), third...)
	p := &fakeProvider{
		pages: map[string]Page{
			"":   {Hits: first, NextPageToken: "t2"},
			"t2": {Hits: second, NextPageToken: "t3"},
			"t3": {Hits: third},
		},
		details: detailsFor(all, "0312"),
	}

	got, err := newTestSearcher(p).Search(context.Background(), Request{
		City: "Ankara", Country: "Türkiye", Category: "kafe", Limit: 25,
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if len(got) != 25 {
		t.Fatalf("len = %d, want 25", len(got))
	}
	if len(p.tokens) != 2 || p.tokens[1] != "t2" {
		t.Errorf("page tokens = %q, want two pages", p.tokens)
	}
	if p.queries[0] != "kafe Ankara Türkiye" {
		t.Errorf("query = %q", p.queries[0])
	}
	if p.detailCalls != 25 {
		t.Errorf("detail calls = %d, want 25", p.detailCalls)
	}
	// Order follows the provider's hit order despite the concurrent fan-out.
	for i, rec := range got {
		if rec.Name != all[i].Name {
			t.Fatalf("got[%d] = %s, want %s", i, rec.Name, all[i].Name)
		}
	}
}

func TestSearch_StopsWithoutNextPage(t *testing.T) {
	hs := hits("a", 7)
	p := &fakeProvider{
		pages:   map[string]Page{"": {Hits: hs}},
		details: detailsFor(hs, "0312"),
	}

	got, err := newTestSearcher(p).Search(context.Background(), Request{City: "Ankara", Category: "kafe", Limit: 10})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 7 || len(p.tokens) != 1 {
		t.Errorf("len = %d, pages = %d; want 7 and 1", len(got), len(p.tokens))
	}
}

func TestSearch_StopsOnEmptyPage(t *testing.T) {
	p := &fakeProvider{
		pages: map[string]Page{"": {NextPageToken: "t2"}},
	}

	got, err := newTestSearcher(p).Search(context.Background(), Request{City: "Ankara", Category: "kafe", Limit: 10})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 0 || len(p.tokens) != 1 {
		t.Errorf("len = %d, pages = %d", len(got), len(p.tokens))
	}
}

func TestSearch_SkipsAndFilters(t *testing.T) {
	hs := []Hit{{PlaceID: "p0"}, {PlaceID: ""}, {PlaceID: "p2"}, {PlaceID: "p3"}}
	p := &fakeProvider{
		pages: map[string]Page{"": {Hits: hs}},
		details: map[string]Details{
			"p0": {Name: "With phone", FormattedAddress: "x", Phone: "0312"},
			"p3": {Name: "No phone", FormattedAddress: "y"},
			// p2 has no details.
		},
	}
	s := newTestSearcher(p)

	got, err := s.Search(context.Background(), Request{City: "Ankara", Category: "kafe", Limit: 10})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 2 || got[0].Name != "With phone" || got[1].Name != "No phone" {
		t.Errorf("got = %+v", got)
	}
	if p.detailCalls != 3 {
		t.Errorf("detail calls = %d, want 3 (hit without place id skipped)", p.detailCalls)
	}

	phoneOnly, err := s.Search(context.Background(), Request{City: "Ankara", Category: "kafe", Limit: 10, PhoneOnly: true})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(phoneOnly) != 1 || phoneOnly[0].Phone != "0312" {
		t.Errorf("phone-only = %+v", phoneOnly)
	}
}

func TestSearch_ProviderErrors(t *testing.T) {
	boom := errors.New("OVER_QUERY_LIMIT")
	hs := hits("a", 3)

	cases := []struct {
		name     string
		provider *fakeProvider
	}{
		{"text search fails", &fakeProvider{searchErr: boom}},
		{"detail fails", &fakeProvider{
			pages:     map[string]Page{"": {Hits: hs}},
			details:   detailsFor(hs, ""),
			detailErr: map[string]error{"a1": boom},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := newTestSearcher(tc.provider).Search(context.Background(), Request{City: "Ankara", Category: "kafe", Limit: 3})
			if !errors.Is(err, apperror.ErrSearchProvider) {
				t.Fatalf("error = %v, want ErrSearchProvider", err)
			}
			if !errors.Is(err, boom) {
				t.Errorf("error %v does not carry the provider cause", err)
			}
			if got != nil {
				t.Errorf("partial results returned: %+v", got)
			}
		})
	}
}

func TestSearch_PageDelayHonoursContext(t *testing.T) {
	p := &fakeProvider{
		pages: map[string]Page{"": {Hits: hits("a", 20), NextPageToken: "t2"}},
	}
	s := NewSearcher(p, nil, Options{PageDelay: time.Hour, DetailWorkers: 1}, discardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := s.Search(ctx, Request{City: "Ankara", Category: "kafe", Limit: 40})
	if !errors.Is(err, apperror.ErrSearchProvider) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("error = %v, want provider error wrapping the deadline", err)
	}
}

func TestSearchAllCities(t *testing.T) {
	hs := hits("a", 2)
	p := &fakeProvider{
		pages:   map[string]Page{"": {Hits: hs}},
		details: detailsFor(hs, "0312"),
	}
	s := newTestSearcher(p, "Adana", "Ankara", "Van")

	got, err := s.SearchAllCities(context.Background(), "kafe", "Türkiye", 2, false)
	if err != nil {
		t.Fatalf("SearchAllCities() error = %v", err)
	}
	if len(got) != 6 {
		t.Errorf("len = %d, want 6", len(got))
	}
	want := []string{"kafe Adana Türkiye", "kafe Ankara Türkiye", "kafe Van Türkiye"}
	for i, q := range want {
		if p.queries[i] != q {
			t.Errorf("queries[%d] = %q, want %q", i, p.queries[i], q)
		}
	}
}

func TestSearchAllCities_AbortsOnFirstError(t *testing.T) {
	p := &fakeProvider{searchErr: errors.New("REQUEST_DENIED")}
	s := newTestSearcher(p, "Adana", "Ankara", "Van")

	_, err := s.SearchAllCities(context.Background(), "kafe", "Türkiye", 5, false)
	if !errors.Is(err, apperror.ErrSearchProvider) {
		t.Fatalf("error = %v, want ErrSearchProvider", err)
	}
	if len(p.queries) != 1 {
		t.Errorf("queries = %d, want 1", len(p.queries))
	}
}

func TestAllCitiesPacing(t *testing.T) {
	s := NewSearcher(Unconfigured{}, []string{"Adana", "Ankara", "Van"}, Options{
		PageDelay:   2 * time.Second,
		DetailDelay: 100 * time.Millisecond,
		CityDelay:   500 * time.Millisecond,
	}, discardLogger())

	tests := []struct {
		limit int
		want  time.Duration
	}{
		{0, 0},
		{1, time.Second},
		{20, 3*1900*time.Millisecond + time.Second},
		{60, 3*(2*2*time.Second+5900*time.Millisecond) + time.Second},
	}
	for _, tt := range tests {
		if got := s.AllCitiesPacing(tt.limit); got != tt.want {
			t.Errorf("AllCitiesPacing(%d) = %v, want %v", tt.limit, got, tt.want)
		}
	}

	if got := NewSearcher(Unconfigured{}, nil, Options{}, discardLogger()).AllCitiesPacing(60); got != 0 {
		t.Errorf("no cities: AllCitiesPacing = %v, want 0", got)
	}
}

func TestUnconfigured(t *testing.T) {
	_, err := newTestSearcher(Unconfigured{}).Search(context.Background(), Request{City: "Ankara", Category: "kafe", Limit: 1})
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("error = %v, want ErrNotConfigured", err)
	}
}
