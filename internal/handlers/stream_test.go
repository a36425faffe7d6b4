package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/google/go-cmp/cmp"

	"newsreel/internal/clients/easynews"
	"newsreel/internal/clients/metadata"
	"newsreel/internal/config"
	"newsreel/internal/core"
	"newsreel/internal/utils"
)

type stubService struct {
	result core.RankResult
	err    error

	mediaType string
	imdbID    string
	season    int
	episode   int
	opts      config.Options
}

func (s *stubService) Streams(ctx context.Context, logger utils.Log, mediaType, imdbID string,
	season, episode int, opts config.Options) (core.RankResult, error) {

	s.mediaType = mediaType
	s.imdbID = imdbID
	s.season = season
	s.episode = episode
	s.opts = opts
	return s.result, s.err
}

func newTestRouter(service StreamService, cfg *config.Config) *mux.Router {
	logger := utils.NewLogger(false, false, nil)
	handler := NewStreamHandler(service, cfg, logger)

	router := mux.NewRouter()
	router.HandleFunc("/manifest.json", handler.Manifest).Methods("GET")
	router.HandleFunc("/stream/{type}/{id}.json", handler.Streams).Methods("GET")
	router.HandleFunc("/{options}/manifest.json", handler.Manifest).Methods("GET")
	router.HandleFunc("/{options}/stream/{type}/{id}.json", handler.Streams).Methods("GET")
	return router
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Defaults.Sorting = "quality_first"
	return cfg
}

func decodeStreams(t *testing.T, body []byte) streamResponse {
	t.Helper()
	var response streamResponse
	if err := json.Unmarshal(body, &response); err != nil {
		t.Fatalf("decoding stream response: %v", err)
	}
	return response
}

func TestManifest(t *testing.T) {
	t.Parallel()

	router := newTestRouter(&stubService{}, testConfig())
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("GET", "/manifest.json", nil))

	if recorder.Code != 200 {
		t.Fatalf("manifest status = %d", recorder.Code)
	}
	var manifest struct {
		ID        string   `json:"id"`
		Resources []string `json:"resources"`
		Types     []string `json:"types"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &manifest); err != nil {
		t.Fatalf("decoding manifest: %v", err)
	}
	if manifest.ID == "" {
		t.Error("manifest has no id")
	}
	if diff := cmp.Diff([]string{"stream"}, manifest.Resources); diff != "" {
		t.Errorf("resources mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"movie", "series"}, manifest.Types); diff != "" {
		t.Errorf("types mismatch (-want +got):\n%s", diff)
	}
}

func TestStreamsRendersCandidates(t *testing.T) {
	t.Parallel()

	service := &stubService{
		result: core.RankResult{
			Candidates: []core.StreamCandidate{
				{Title: "Alpha 1080p", Extension: ".mkv", SizeHuman: "1.2 GB",
					Duration: "1:40:05", TierName: "1080p", URL: "https://dl.example.com/a"},
				{Title: "Alpha 720p", Extension: ".mp4", TierName: "720p", URL: "https://dl.example.com/b"},
			},
			Degraded: []string{"max-size filter would remove every candidate; keeping the unfiltered set"},
		},
	}

	router := newTestRouter(service, testConfig())
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("GET", "/stream/movie/tt0111161.json", nil))

	if recorder.Code != 200 {
		t.Fatalf("stream status = %d", recorder.Code)
	}
	if service.mediaType != "movie" || service.imdbID != "tt0111161" {
		t.Errorf("service saw %s/%s", service.mediaType, service.imdbID)
	}

	response := decodeStreams(t, recorder.Body.Bytes())
	if len(response.Streams) != 2 {
		t.Fatalf("rendered %d streams, want 2", len(response.Streams))
	}
	first := response.Streams[0]
	if first.Name != "Newsreel\n1080p" {
		t.Errorf("stream name = %q", first.Name)
	}
	if first.Title != "Alpha 1080p.mkv\n1.2 GB | 1:40:05" {
		t.Errorf("stream title = %q", first.Title)
	}
	if first.URL != "https://dl.example.com/a" {
		t.Errorf("stream url = %q", first.URL)
	}
	if first.BehaviorHints.BingeGroup != "newsreel-1080p" {
		t.Errorf("bingeGroup = %q", first.BehaviorHints.BingeGroup)
	}
	if len(response.Degraded) != 1 {
		t.Errorf("degraded warnings = %v, want the post-filter skip surfaced", response.Degraded)
	}
}

func TestStreamsParsesEpisodeID(t *testing.T) {
	t.Parallel()

	service := &stubService{}
	router := newTestRouter(service, testConfig())
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("GET", "/stream/series/tt0903747:5:14.json", nil))

	if recorder.Code != 200 {
		t.Fatalf("stream status = %d", recorder.Code)
	}
	if service.imdbID != "tt0903747" || service.season != 5 || service.episode != 14 {
		t.Errorf("parsed %s S%dE%d", service.imdbID, service.season, service.episode)
	}
}

func TestStreamsRejectsMalformedRequests(t *testing.T) {
	t.Parallel()

	router := newTestRouter(&stubService{}, testConfig())
	for _, path := range []string{
		"/stream/music/tt0111161.json",
		"/stream/movie/tt0903747:5.json",
		"/stream/series/tt0903747:x:1.json",
	} {
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest("GET", path, nil))
		if recorder.Code != 400 {
			t.Errorf("GET %s = %d, want 400", path, recorder.Code)
		}
	}
}

func TestStreamsAppliesOptionsSegment(t *testing.T) {
	t.Parallel()

	service := &stubService{}
	segment := base64.URLEncoding.EncodeToString([]byte(`{"strictMatching":true,"sorting":"size_first"}`))
	router := newTestRouter(service, testConfig())

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("GET", "/"+segment+"/stream/movie/tt0111161.json", nil))

	if recorder.Code != 200 {
		t.Fatalf("stream status = %d", recorder.Code)
	}
	if !service.opts.StrictMatching || service.opts.Sorting != "size_first" {
		t.Errorf("options not applied: %+v", service.opts)
	}
}

func TestStreamsAuthFailureRendersReconfigureEntry(t *testing.T) {
	t.Parallel()

	service := &stubService{err: easynews.ErrUnauthorized}
	router := newTestRouter(service, testConfig())
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("GET", "/stream/movie/tt0111161.json", nil))

	if recorder.Code != 200 {
		t.Fatalf("stream status = %d, want 200 so the player shows the entry", recorder.Code)
	}
	response := decodeStreams(t, recorder.Body.Bytes())
	if len(response.Streams) != 1 {
		t.Fatalf("rendered %d streams, want the single failure entry", len(response.Streams))
	}
	if response.Streams[0].URL != "" || response.Streams[0].ExternalURL == "" {
		t.Errorf("failure entry should carry an external url only: %+v", response.Streams[0])
	}
}

func TestStreamsErrorsYieldEmptyList(t *testing.T) {
	t.Parallel()

	for name, err := range map[string]error{
		"metadata miss":  metadata.ErrNotFound,
		"upstream error": &easynews.StatusError{Code: 502},
	} {
		t.Run(name, func(t *testing.T) {
			router := newTestRouter(&stubService{err: err}, testConfig())
			recorder := httptest.NewRecorder()
			router.ServeHTTP(recorder, httptest.NewRequest("GET", "/stream/movie/tt0111161.json", nil))

			if recorder.Code != 200 {
				t.Fatalf("stream status = %d, want 200", recorder.Code)
			}
			response := decodeStreams(t, recorder.Body.Bytes())
			if len(response.Streams) != 0 {
				t.Errorf("rendered %d streams, want none", len(response.Streams))
			}
		})
	}
}

func TestParseStreamID(t *testing.T) {
	t.Parallel()

	imdbID, season, episode, err := parseStreamID("tt0903747:1:2")
	if err != nil || imdbID != "tt0903747" || season != 1 || episode != 2 {
		t.Errorf("parseStreamID = %s/%d/%d (%v)", imdbID, season, episode, err)
	}
	if _, _, _, err := parseStreamID(""); err == nil {
		t.Error("empty id accepted")
	}
	if _, _, _, err := parseStreamID("tt1:2"); err == nil {
		t.Error("two-part id accepted")
	}
}
