package api

import "github.com/tilecraft/tilecraft/internal/source"

// HealthzResponse is the GET /healthz payload.
type HealthzResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	SourcesLoaded int    `json:"sources_loaded"`
}

// SourceTypesResponse is the GET /v1/source-types payload.
type SourceTypesResponse struct {
	Types []string `json:"types"`
}

// SourceSummary describes one live source.
type SourceSummary struct {
	ID      string         `json:"id"`
	Type    string         `json:"type"`
	State   string         `json:"state"`
	MinZoom float64        `json:"minzoom"`
	MaxZoom float64        `json:"maxzoom"`
	Options source.Options `json:"options,omitempty"`
}

// ListSourcesResponse is the GET /v1/sources payload.
type ListSourcesResponse struct {
	Sources []SourceSummary `json:"sources"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}
