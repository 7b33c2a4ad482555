package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/amarcoder01/sift/internal/interfaces"
	"github.com/amarcoder01/sift/internal/models"
)

// handleScreen handles POST /api/screener/screen. The body carries the
// filter criteria; ?limit= caps the returned rows.
func (s *Server) handleScreen(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var criteria models.FilterCriteria
	if !DecodeJSON(w, r, &criteria) {
		return
	}

	limit := queryInt(r, "limit", 0)

	result, err := s.app.Screener.Screen(r.Context(), criteria, limit)
	if err != nil {
		var dirErr *models.DirectoryEnumerationError
		if errors.As(err, &dirErr) {
			WriteError(w, http.StatusBadGateway, "Market directory unavailable: "+dirErr.Error())
			return
		}
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// handleScreenerPage handles GET /api/screener/page for cursor-driven
// directory browsing. Accepts cursor, limit, search and exchange query
// parameters; search and exchange are passed through to the vendor.
func (s *Server) handleScreenerPage(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	query := r.URL.Query()
	opts := []interfaces.ListOption{}
	if cursor := query.Get("cursor"); cursor != "" {
		opts = append(opts, interfaces.WithCursor(cursor))
	}
	if limit := queryInt(r, "limit", 0); limit > 0 {
		opts = append(opts, interfaces.WithPageLimit(limit))
	}
	if search := query.Get("search"); search != "" {
		opts = append(opts, interfaces.WithSearch(search))
	}
	if exchange := query.Get("exchange"); exchange != "" {
		opts = append(opts, interfaces.WithExchange(exchange))
	}

	page, err := s.app.Screener.LoadPage(r.Context(), opts...)
	if err != nil {
		WriteError(w, http.StatusBadGateway, "Failed to load directory page: "+err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, page)
}

// handleScreenerSearch handles GET /api/screener/search?q=.
func (s *Server) handleScreenerSearch(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		WriteError(w, http.StatusBadRequest, "q parameter is required")
		return
	}

	rows, err := s.app.Screener.Search(r.Context(), query)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"query":   query,
		"results": rows,
		"count":   len(rows),
	})
}

// handleMarketQuote handles GET /api/market/quote/{ticker}.
func (s *Server) handleMarketQuote(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	ticker := PathParam(r, "/api/market/quote/", "")
	if ticker == "" {
		WriteError(w, http.StatusBadRequest, "ticker is required in path")
		return
	}

	quote, err := s.app.Screener.Quote(r.Context(), ticker)
	if err != nil {
		var noData *models.NoPriceDataError
		if errors.As(err, &noData) {
			WriteError(w, http.StatusNotFound, noData.Error())
			return
		}
		WriteError(w, http.StatusBadGateway, "Failed to fetch quote: "+err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, quote)
}

// queryInt reads an integer query parameter, falling back to def when
// absent or malformed.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
