package metadata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"newsreel/internal/utils"
)

type stubResolver struct {
	name  string
	meta  *Meta
	err   error
	calls int
}

func (s *stubResolver) Name() string { return s.name }

func (s *stubResolver) Resolve(ctx context.Context, id, mediaType string) (*Meta, error) {
	s.calls++
	return s.meta, s.err
}

func TestChainFallsThroughFailingProviders(t *testing.T) {
	t.Parallel()

	broken := &stubResolver{name: "broken", err: errors.New("boom")}
	working := &stubResolver{name: "working", meta: &Meta{ID: "tt1", Type: "movie", Name: "Alpha", Year: 2020}}
	chain := NewChain([]Resolver{broken, working}, utils.NewLogger(false, false, nil))

	got, err := chain.Resolve(context.Background(), "tt1", "movie")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Name != "Alpha" || got.Year != 2020 {
		t.Errorf("Resolve = %+v, want Alpha/2020", got)
	}
	if broken.calls != 1 || working.calls != 1 {
		t.Errorf("provider calls = %d/%d, want 1/1", broken.calls, working.calls)
	}
}

func TestChainCachesSuccessfulLookups(t *testing.T) {
	t.Parallel()

	provider := &stubResolver{name: "p", meta: &Meta{ID: "tt1", Type: "movie", Name: "Alpha"}}
	chain := NewChain([]Resolver{provider}, utils.NewLogger(false, false, nil))

	for i := 0; i < 3; i++ {
		if _, err := chain.Resolve(context.Background(), "tt1", "movie"); err != nil {
			t.Fatalf("Resolve #%d: %v", i, err)
		}
	}
	if provider.calls != 1 {
		t.Errorf("provider calls = %d, want 1 (later lookups should hit cache)", provider.calls)
	}
}

func TestChainReportsNotFound(t *testing.T) {
	t.Parallel()

	chain := NewChain([]Resolver{&stubResolver{name: "p", err: errors.New("down")}}, utils.NewLogger(false, false, nil))
	if _, err := chain.Resolve(context.Background(), "tt0", "movie"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Resolve error = %v, want ErrNotFound", err)
	}
}

func TestCinemetaResolve(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/meta/series/tt2861424.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"meta":{"name":"Rick and Morty","releaseInfo":"2013-","aliases":["Rick et Morty"]}}`)
	}))
	defer srv.Close()

	client := NewCinemetaClient(srv.URL)
	got, err := client.Resolve(context.Background(), "tt2861424", "series")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	want := &Meta{
		ID:               "tt2861424",
		Type:             "series",
		Name:             "Rick and Morty",
		Year:             2013,
		AlternativeNames: []string{"Rick et Morty"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Resolve mismatch (-want +got):\n%s", diff)
	}
}

func TestCinemetaNotFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewCinemetaClient(srv.URL)
	if _, err := client.Resolve(context.Background(), "tt0", "movie"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Resolve error = %v, want ErrNotFound", err)
	}
}
