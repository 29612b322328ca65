package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Freshness labels carried in response meta so callers can tell live, cached
// and stale-fallback data apart
const (
	freshnessLive   = "live"
	freshnessCached = "cached"
	freshnessStale  = "stale"
)

type meta struct {
	Timestamp      string `json:"timestamp"`
	Source         string `json:"source"`
	Cache          bool   `json:"cache"`
	DataFreshness  string `json:"data_freshness"`
	StaleAge       string `json:"stale_age,omitempty"`
	Warning        string `json:"warning,omitempty"`
	TotalCompanies int    `json:"total_companies,omitempty"`
}

type successResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Meta    meta            `json:"meta"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Success bool      `json:"success"`
	Error   errorBody `json:"error"`
	Meta    meta      `json:"meta"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSuccess(w http.ResponseWriter, payload json.RawMessage, m meta) {
	m.Timestamp = time.Now().UTC().Format(time.RFC3339)
	writeJSON(w, http.StatusOK, successResponse{Success: true, Data: payload, Meta: m})
}

func writeServiceUnavailable(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusServiceUnavailable, errorResponse{
		Success: false,
		Error:   errorBody{Code: "service_unavailable", Message: message},
		Meta:    meta{Timestamp: time.Now().UTC().Format(time.RFC3339)},
	})
}

// cacheControl reflects the endpoint's freshness window plus a
// stale-while-revalidate hint for CDN-style callers
func cacheControl(w http.ResponseWriter, maxAge, swr time.Duration) {
	w.Header().Set("Cache-Control", fmt.Sprintf("public, s-maxage=%d, stale-while-revalidate=%d",
		int(maxAge.Seconds()), int(swr.Seconds())))
}
