package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// TMDBClient resolves IMDb ids through TMDB's find endpoint. Optional:
// only wired when an API key is configured, as a fallback behind
// Cinemeta. It contributes original-language titles as alternates.
type TMDBClient struct {
	apiKey     string
	language   string
	httpClient *http.Client
}

func NewTMDBClient(apiKey, language string) *TMDBClient {
	if language == "" {
		language = "en"
	}
	return &TMDBClient{
		apiKey:     apiKey,
		language:   language,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *TMDBClient) Name() string { return "tmdb" }

func (t *TMDBClient) Resolve(ctx context.Context, id, mediaType string) (*Meta, error) {
	params := url.Values{}
	params.Add("api_key", t.apiKey)
	params.Add("language", t.language)
	params.Add("external_source", "imdb_id")

	findURL := fmt.Sprintf("https://api.themoviedb.org/3/find/%s?%s", id, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, findURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create TMDB request: %w", err)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query TMDB: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("TMDB returned status %d for %s", resp.StatusCode, id)
	}

	var findResp struct {
		MovieResults []struct {
			Title         string `json:"title"`
			OriginalTitle string `json:"original_title"`
			ReleaseDate   string `json:"release_date"`
		} `json:"movie_results"`
		TVResults []struct {
			Name         string `json:"name"`
			OriginalName string `json:"original_name"`
			FirstAirDate string `json:"first_air_date"`
		} `json:"tv_results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&findResp); err != nil {
		return nil, fmt.Errorf("failed to decode TMDB response: %w", err)
	}

	meta := &Meta{ID: id, Type: mediaType}
	switch {
	case mediaType == "movie" && len(findResp.MovieResults) > 0:
		result := findResp.MovieResults[0]
		meta.Name = result.Title
		meta.Year = yearOf(result.ReleaseDate)
		if result.OriginalTitle != "" && result.OriginalTitle != result.Title {
			meta.AlternativeNames = []string{result.OriginalTitle}
		}
	case mediaType == "series" && len(findResp.TVResults) > 0:
		result := findResp.TVResults[0]
		meta.Name = result.Name
		meta.Year = yearOf(result.FirstAirDate)
		if result.OriginalName != "" && result.OriginalName != result.Name {
			meta.AlternativeNames = []string{result.OriginalName}
		}
	default:
		return nil, ErrNotFound
	}
	return meta, nil
}

func yearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, _ := strconv.Atoi(date[:4])
	return year
}
