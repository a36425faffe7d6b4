package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"time"
)

const defaultCinemetaURL = "https://v3-cinemeta.strem.io"

var leadingYear = regexp.MustCompile(`\d{4}`)

// CinemetaClient resolves ids against the public Cinemeta catalog. It
// needs no credentials, which makes it the default provider.
type CinemetaClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewCinemetaClient(baseURL string) *CinemetaClient {
	if baseURL == "" {
		baseURL = defaultCinemetaURL
	}
	return &CinemetaClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *CinemetaClient) Name() string { return "cinemeta" }

func (c *CinemetaClient) Resolve(ctx context.Context, id, mediaType string) (*Meta, error) {
	metaURL := fmt.Sprintf("%s/meta/%s/%s.json", c.baseURL, mediaType, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, metaURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cinemeta request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query cinemeta: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cinemeta returned status %d for %s", resp.StatusCode, id)
	}

	var envelope struct {
		Meta struct {
			Name        string   `json:"name"`
			Year        string   `json:"year"`        // "2020" or "2011-2019"
			ReleaseInfo string   `json:"releaseInfo"` // same shape, newer field
			Aliases     []string `json:"aliases"`
		} `json:"meta"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode cinemeta response: %w", err)
	}
	if envelope.Meta.Name == "" {
		return nil, ErrNotFound
	}

	yearSource := envelope.Meta.Year
	if yearSource == "" {
		yearSource = envelope.Meta.ReleaseInfo
	}
	year := 0
	if match := leadingYear.FindString(yearSource); match != "" {
		year, _ = strconv.Atoi(match)
	}

	return &Meta{
		ID:               id,
		Type:             mediaType,
		Name:             envelope.Meta.Name,
		Year:             year,
		AlternativeNames: envelope.Meta.Aliases,
	}, nil
}
