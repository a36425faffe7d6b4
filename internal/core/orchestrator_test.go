package core

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"newsreel/internal/clients/easynews"
	"newsreel/internal/clients/metadata"
	"newsreel/internal/utils"
)

type scriptedSearcher struct {
	responses map[string]*easynews.SearchResponse
	errs      map[string]error
	queries   []string
}

func (s *scriptedSearcher) SearchAll(ctx context.Context, query string) (*easynews.SearchResponse, error) {
	s.queries = append(s.queries, query)
	if err, ok := s.errs[query]; ok {
		return nil, err
	}
	if response, ok := s.responses[query]; ok {
		return response, nil
	}
	return &easynews.SearchResponse{}, nil
}

func testLog() *utils.Logger {
	return utils.NewLogger(false, false, nil)
}

func response(hashes ...string) *easynews.SearchResponse {
	data := make([]easynews.FileRecord, len(hashes))
	for i, hash := range hashes {
		data[i] = easynews.FileRecord{Hash: hash, Filename: "file-" + hash, Type: "VIDEO"}
	}
	return &easynews.SearchResponse{Data: data, Returned: len(data)}
}

func TestBuildQuery(t *testing.T) {
	t.Parallel()

	movie := &metadata.Meta{Type: "movie", Year: 2020}
	if got := BuildQuery(movie, "Alpha", false); got != "Alpha" {
		t.Errorf("movie query = %q, want Alpha", got)
	}
	if got := BuildQuery(movie, "Alpha", true); got != "Alpha 2020" {
		t.Errorf("movie year query = %q, want \"Alpha 2020\"", got)
	}

	episode := &metadata.Meta{Type: "series", Season: 1, Episode: 2}
	if got := BuildQuery(episode, "Alpha", false); got != "Alpha S01E02" {
		t.Errorf("episode query = %q, want \"Alpha S01E02\"", got)
	}
}

func TestCollectRunsYearPassWhenBudgetNotMet(t *testing.T) {
	t.Parallel()

	// Scenario: two variants, year 2020. First title finds nothing, the
	// second finds results; the year pass still runs for both titles.
	searcher := &scriptedSearcher{
		responses: map[string]*easynews.SearchResponse{
			"Alpha: The Beginning":      response("h1", "h2", "h3"),
			"Alpha 2020":                response("h4"),
			"Alpha: The Beginning 2020": response("h1"), // already seen
		},
	}

	meta := &metadata.Meta{Type: "movie", Year: 2020}
	orchestrator := NewOrchestrator(searcher, 500, testLog())

	responses, err := orchestrator.Collect(context.Background(), []string{"Alpha", "Alpha: The Beginning"}, meta)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	wantQueries := []string{
		"Alpha", "Alpha: The Beginning",
		"Alpha 2020", "Alpha: The Beginning 2020",
	}
	if diff := cmp.Diff(wantQueries, searcher.queries); diff != "" {
		t.Errorf("issued queries mismatch (-want +got):\n%s", diff)
	}
	// Empty responses are not merged.
	if len(responses) != 3 {
		t.Errorf("collected %d responses, want 3 non-empty", len(responses))
	}
}

func TestCollectUniqueCountNeverDoubleCounts(t *testing.T) {
	t.Parallel()

	// Both variants return the same two hashes. With a budget of 3 the
	// unique count is 2 after both, so the year pass must still run.
	searcher := &scriptedSearcher{
		responses: map[string]*easynews.SearchResponse{
			"Alpha":      response("h1", "h2"),
			"Alfa":       response("h1", "h2"),
			"Alpha 2021": response("h3"),
			"Alfa 2021":  response("h3"),
		},
	}

	meta := &metadata.Meta{Type: "movie", Year: 2021}
	orchestrator := NewOrchestrator(searcher, 3, testLog())

	_, err := orchestrator.Collect(context.Background(), []string{"Alpha", "Alfa"}, meta)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	// If overlapping hashes were summed instead of deduplicated the
	// budget (3) would have been "met" after the year-less pass and the
	// year queries would never appear.
	wantQueries := []string{"Alpha", "Alfa", "Alpha 2021", "Alfa 2021"}
	if diff := cmp.Diff(wantQueries, searcher.queries); diff != "" {
		t.Errorf("issued queries mismatch (-want +got):\n%s", diff)
	}
}

func TestCollectStopsAtUniqueBudget(t *testing.T) {
	t.Parallel()

	searcher := &scriptedSearcher{
		responses: map[string]*easynews.SearchResponse{
			"Alpha": response("h1", "h2"),
		},
	}

	meta := &metadata.Meta{Type: "movie", Year: 2021}
	orchestrator := NewOrchestrator(searcher, 2, testLog())

	_, err := orchestrator.Collect(context.Background(), []string{"Alpha", "Beta"}, meta)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	// Budget met after the first title: no second title, no year pass.
	wantQueries := []string{"Alpha"}
	if diff := cmp.Diff(wantQueries, searcher.queries); diff != "" {
		t.Errorf("issued queries mismatch (-want +got):\n%s", diff)
	}
}

func TestCollectAuthFailureAbortsImmediately(t *testing.T) {
	t.Parallel()

	searcher := &scriptedSearcher{
		errs: map[string]error{"Alpha": easynews.ErrUnauthorized},
	}

	meta := &metadata.Meta{Type: "movie"}
	orchestrator := NewOrchestrator(searcher, 500, testLog())

	_, err := orchestrator.Collect(context.Background(), []string{"Alpha", "Beta"}, meta)
	if !errors.Is(err, easynews.ErrUnauthorized) {
		t.Fatalf("Collect error = %v, want ErrUnauthorized", err)
	}
	if len(searcher.queries) != 1 {
		t.Errorf("issued %d queries, want 1 (no further titles after auth failure)", len(searcher.queries))
	}
}

func TestCollectContinuesPastOtherFailures(t *testing.T) {
	t.Parallel()

	searcher := &scriptedSearcher{
		errs: map[string]error{
			"Alpha": &easynews.StatusError{Code: 502, Query: "Alpha"},
		},
		responses: map[string]*easynews.SearchResponse{
			"Beta": response("h1"),
		},
	}

	meta := &metadata.Meta{Type: "movie"}
	orchestrator := NewOrchestrator(searcher, 500, testLog())

	responses, err := orchestrator.Collect(context.Background(), []string{"Alpha", "Beta"}, meta)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(responses) != 1 || responses[0].Data[0].Hash != "h1" {
		t.Errorf("collected %v, want just Beta's response", responses)
	}
}

func TestCollectAllFailuresYieldEmptySet(t *testing.T) {
	t.Parallel()

	searcher := &scriptedSearcher{
		errs: map[string]error{
			"Alpha": &easynews.TimeoutError{Query: "Alpha"},
			"Beta":  &easynews.StatusError{Code: 500, Query: "Beta"},
		},
	}

	orchestrator := NewOrchestrator(searcher, 500, testLog())
	responses, err := orchestrator.Collect(context.Background(), []string{"Alpha", "Beta"}, &metadata.Meta{Type: "movie"})
	if err != nil {
		t.Fatalf("Collect: %v, want empty result instead of error", err)
	}
	if len(responses) != 0 {
		t.Errorf("collected %d responses, want 0", len(responses))
	}
}
