package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"ytfree/models"
	searchpkg "ytfree/services/search"
)

type searchService interface {
	Search(ctx context.Context, query string) ([]models.SearchResult, error)
}

var _ searchService = (*searchpkg.Service)(nil)

// SearchHandler serves /api/search.
type SearchHandler struct {
	Service searchService
}

func NewSearchHandler(s searchService) *SearchHandler {
	return &SearchHandler{Service: s}
}

func (h *SearchHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		// An empty query is not an error, just an empty result set.
		json.NewEncoder(w).Encode([]models.SearchResult{})
		return
	}

	results, err := h.Service.Search(r.Context(), query)
	if err != nil {
		log.Printf("[search] query=%q failed: %v", query, err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	if results == nil {
		results = []models.SearchResult{}
	}
	json.NewEncoder(w).Encode(results)
}
