package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// A fake Easynews search endpoint for local development. It answers the
// advanced solr search with deterministic-ish results so the addon can
// be exercised without real credentials.

const totalFakeResults = 620

func main() {
	http.HandleFunc("/2.0/search/solr-search/advanced", searchHandler)

	fmt.Println("Fake Easynews server starting on :8081")
	fmt.Println("Any basic-auth credentials are accepted except user 'locked'.")
	fmt.Println("Search term is read from the 'gps' parameter, pagination from 'pno'/'pby'.")
	log.Fatal(http.ListenAndServe(":8081", nil))
}

func searchHandler(w http.ResponseWriter, r *http.Request) {
	log.Printf("Received request URL: %s", r.URL.String())

	username, _, ok := r.BasicAuth()
	if !ok || username == "locked" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	query := r.URL.Query()
	term := query.Get("gps")
	if term == "" {
		term = query.Get("sbj")
	}
	if term == "" {
		term = "Default Movie (No Query Provided)"
	}

	page, _ := strconv.Atoi(query.Get("pno"))
	if page <= 0 {
		page = 1
	}
	perPage, _ := strconv.Atoi(query.Get("pby"))
	if perPage <= 0 {
		perPage = 250
	}

	start := (page - 1) * perPage
	end := start + perPage
	if end > totalFakeResults {
		end = totalFakeResults
	}

	var records []map[string]interface{}
	for i := start; i < end; i++ {
		records = append(records, fakeRecord(term, i))
	}

	log.Printf("Serving page %d (%d records) for: '%s'", page, len(records), term)

	response := map[string]interface{}{
		"data":              records,
		"results":           totalFakeResults,
		"returned":          len(records),
		"unfilteredResults": totalFakeResults + 80,
		"downURL":           "http://localhost:8081/dl",
		"dlFarm":            "fakefarm",
		"dlPort":            8081,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func fakeRecord(term string, id int) map[string]interface{} {
	qualities := []string{"2160p", "1080p", "720p", "480p"}
	resolutions := []string{"3840x2160", "1920x1080", "1280x720", "640x480"}
	langSets := [][]string{{"eng"}, {"eng", "ger"}, {"spa"}, {}}

	// Seed per record so the same page always looks the same.
	rng := rand.New(rand.NewSource(int64(id)))
	pick := rng.Intn(len(qualities))

	record := map[string]interface{}{
		"0":       fmt.Sprintf("fakehash%06d", id),
		"10":      fmt.Sprintf("%s %s x264-FAKE", strings.TrimSpace(term), qualities[pick]),
		"11":      ".mkv",
		"4":       fmt.Sprintf("%.1f GB", 0.7+rng.Float64()*14),
		"14":      fmt.Sprintf("%d:%02d:%02d", rng.Intn(2)+1, rng.Intn(60), rng.Intn(60)),
		"ts":      time.Now().Add(-time.Duration(rng.Intn(24*365)) * time.Hour).Unix(),
		"rawSize": rng.Int63n(14<<30) + (700 << 20),
		"fullres": resolutions[pick],
		"alangs":  langSets[rng.Intn(len(langSets))],
		"passwd":  0,
		"virus":   0,
		"type":    "VIDEO",
	}

	// Sprinkle in some records the addon is expected to reject.
	switch id % 17 {
	case 3:
		record["passwd"] = 1
	case 7:
		record["virus"] = 1
	case 11:
		record["type"] = "AUDIO"
		record["11"] = ".mp3"
	case 13:
		record["rawSize"] = int64(4 << 20) // sample-sized
		record["4"] = "4.0 MB"
	}

	return record
}
