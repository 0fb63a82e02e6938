package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/bloomcart/storefront-api/api"
	"github.com/bloomcart/storefront-api/config"
)

// MetricsSummaryHandler returns the per-route request aggregates
func MetricsSummaryHandler(w http.ResponseWriter, r *http.Request) {
	b, err := json.Marshal(api.GetMetrics().Summary())
	if err != nil {
		config.ErrorStatus("failed to marshal metrics", http.StatusInternalServerError, w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
