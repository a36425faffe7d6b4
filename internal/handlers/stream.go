package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"newsreel/internal/clients/easynews"
	"newsreel/internal/clients/metadata"
	"newsreel/internal/config"
	"newsreel/internal/core"
	"newsreel/internal/utils"
)

const addonVersion = "1.0.0"

// StreamService is the slice of the manager the stream endpoints need.
type StreamService interface {
	Streams(ctx context.Context, logger utils.Log, mediaType, imdbID string,
		season, episode int, opts config.Options) (core.RankResult, error)
}

type StreamHandler struct {
	service StreamService
	config  *config.Config
	logger  *utils.Logger
}

func NewStreamHandler(service StreamService, cfg *config.Config, logger *utils.Logger) *StreamHandler {
	return &StreamHandler{service: service, config: cfg, logger: logger}
}

// stream is one playable entry in the addon response.
type stream struct {
	Name          string `json:"name"`
	Title         string `json:"title"`
	URL           string `json:"url,omitempty"`
	ExternalURL   string `json:"externalUrl,omitempty"`
	BehaviorHints struct {
		BingeGroup string `json:"bingeGroup,omitempty"`
	} `json:"behaviorHints"`
}

type streamResponse struct {
	Streams []stream `json:"streams"`
	// Warnings for post-filter steps that were skipped to avoid an
	// empty result. Players ignore unknown fields.
	Degraded []string `json:"degraded,omitempty"`
}

// Manifest describes the addon to the player.
func (h *StreamHandler) Manifest(w http.ResponseWriter, r *http.Request) {
	manifest := map[string]interface{}{
		"id":          "community.newsreel",
		"version":     addonVersion,
		"name":        "Newsreel",
		"description": "Easynews file search",
		"resources":   []string{"stream"},
		"types":       []string{"movie", "series"},
		"catalogs":    []interface{}{},
		"idPrefixes":  []string{"tt"},
		"behaviorHints": map[string]bool{
			"configurable": true,
		},
	}
	respondJSON(w, http.StatusOK, manifest)
}

// parseStreamID splits a player id like "tt0903747:1:2" into its imdb id
// and optional season and episode.
func parseStreamID(id string) (imdbID string, season, episode int, err error) {
	parts := strings.Split(id, ":")
	imdbID = parts[0]
	if imdbID == "" {
		return "", 0, 0, fmt.Errorf("empty id")
	}
	if len(parts) == 1 {
		return imdbID, 0, 0, nil
	}
	if len(parts) != 3 {
		return "", 0, 0, fmt.Errorf("malformed id %q", id)
	}
	if season, err = strconv.Atoi(parts[1]); err != nil {
		return "", 0, 0, fmt.Errorf("malformed season in %q", id)
	}
	if episode, err = strconv.Atoi(parts[2]); err != nil {
		return "", 0, 0, fmt.Errorf("malformed episode in %q", id)
	}
	return imdbID, season, episode, nil
}

// Streams handles /stream/{type}/{id}.json, optionally behind a
// per-install options segment.
func (h *StreamHandler) Streams(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	logger := h.logger.WithRequest(utils.NewRequestID())

	mediaType := vars["type"]
	if mediaType != "movie" && mediaType != "series" {
		respondError(w, http.StatusBadRequest, "unsupported type")
		return
	}

	imdbID, season, episode, err := parseStreamID(vars["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	opts, err := h.config.OptionsFromSegment(vars["options"])
	if err != nil {
		logger.Warn("falling back to default options:", err)
	}

	logger.Info("stream request:", mediaType, vars["id"])
	result, err := h.service.Streams(r.Context(), logger, mediaType, imdbID, season, episode, opts)
	if err != nil {
		switch {
		case errors.Is(err, easynews.ErrUnauthorized):
			// Render the failure as a stream entry so the player shows
			// it instead of an empty list.
			respondJSON(w, http.StatusOK, authFailureResponse())
		case errors.Is(err, metadata.ErrNotFound):
			logger.Warn("no metadata for", imdbID)
			respondJSON(w, http.StatusOK, streamResponse{Streams: []stream{}})
		default:
			logger.Error("stream request failed:", err)
			respondJSON(w, http.StatusOK, streamResponse{Streams: []stream{}})
		}
		return
	}

	respondJSON(w, http.StatusOK, renderStreams(result))
}

func authFailureResponse() streamResponse {
	var entry stream
	entry.Name = "Newsreel"
	entry.Title = "Easynews authentication failed\nReconfigure your credentials"
	entry.ExternalURL = "https://members.easynews.com"
	return streamResponse{Streams: []stream{entry}}
}

func renderStreams(result core.RankResult) streamResponse {
	streams := make([]stream, 0, len(result.Candidates))
	for _, candidate := range result.Candidates {
		var entry stream
		entry.Name = "Newsreel\n" + candidate.TierName
		entry.Title = streamTitle(&candidate)
		entry.URL = candidate.URL
		entry.BehaviorHints.BingeGroup = "newsreel-" + candidate.TierName
		streams = append(streams, entry)
	}
	return streamResponse{Streams: streams, Degraded: result.Degraded}
}

// streamTitle is the two-line label: filename, then size, runtime, and
// audio languages when known.
func streamTitle(candidate *core.StreamCandidate) string {
	details := make([]string, 0, 3)
	if candidate.SizeHuman != "" {
		details = append(details, candidate.SizeHuman)
	}
	if candidate.Duration != "" {
		details = append(details, candidate.Duration)
	}
	if len(candidate.Languages) > 0 {
		details = append(details, strings.Join(candidate.Languages, ", "))
	}

	title := candidate.Title + candidate.Extension
	if len(details) == 0 {
		return title
	}
	return title + "\n" + strings.Join(details, " | ")
}
