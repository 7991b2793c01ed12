package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// RegisterRoutes registers the read-only stats routes.
func RegisterRoutes(api huma.API, stats *StatsHandler) {
	huma.Register(api, huma.Operation{
		Method:      http.MethodGet,
		Path:        "/stats",
		Summary:     "Aggregate message count",
		Description: "Returns the number of messages counted across all authors since startup.",
		Tags:        []string{"Stats"},
	}, stats.Total)

	huma.Register(api, huma.Operation{
		Method:      http.MethodGet,
		Path:        "/stats/reports/latest",
		Summary:     "Latest persisted report",
		Description: "Returns the most recent aggregate written by the scheduler to Postgres.",
		Tags:        []string{"Stats"},
	}, stats.LatestReport)

	huma.Register(api, huma.Operation{
		Method:      http.MethodGet,
		Path:        "/stats/{key}",
		Summary:     "Per-author message count",
		Description: "Returns the number of messages counted for a single author.",
		Tags:        []string{"Stats"},
	}, stats.KeyCount)
}
