package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/amarcoder01/sift/internal/common"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/config", s.handleConfig)
	mux.HandleFunc("/api/shutdown", s.handleShutdown)
	mux.HandleFunc("/debug/memstats", s.handleMemstats)

	// Screening
	mux.HandleFunc("/api/screener/screen", s.handleScreen)
	mux.HandleFunc("/api/screener/page", s.handleScreenerPage)
	mux.HandleFunc("/api/screener/search", s.handleScreenerSearch)

	// Market data
	mux.HandleFunc("/api/market/quote/", s.handleMarketQuote)

	// Hydration progress feed
	mux.HandleFunc("/ws/progress", s.progress.ServeWS)
}

// handleShutdown handles POST /api/shutdown (dev mode only).
func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if s.app.Config.IsProduction() {
		WriteError(w, http.StatusForbidden, "Shutdown endpoint disabled in production")
		return
	}

	s.logger.Info().Msg("Shutdown requested via HTTP endpoint")

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Shutting down gracefully...\n"))

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	if s.shutdownChan != nil {
		go func() {
			time.Sleep(100 * time.Millisecond)
			s.shutdownChan <- struct{}{}
		}()
	}
}

// --- System handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	uptime := time.Since(s.app.StartupTime).Round(time.Second)

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"environment":         s.app.Config.Environment,
		"storage_path":        s.app.Config.Storage.Path,
		"logging_level":       s.app.Config.Logging.Level,
		"batch_size":          s.app.Config.Screener.BatchSize,
		"batch_delay":         s.app.Config.Screener.BatchDelay,
		"max_directory_pages": s.app.Config.Screener.MaxDirectoryPages,
		"default_sector":      s.app.Config.Screener.DefaultSector,
		"uptime":              uptime.String(),
		"started_at":          s.app.StartupTime,
	})
}

func (s *Server) handleMemstats(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"heap_alloc_bytes": m.HeapAlloc,
		"heap_inuse_bytes": m.HeapInuse,
		"heap_idle_bytes":  m.HeapIdle,
		"sys_bytes":        m.Sys,
		"num_gc":           m.NumGC,
		"heap_alloc_mb":    float64(m.HeapAlloc) / 1024 / 1024,
		"heap_inuse_mb":    float64(m.HeapInuse) / 1024 / 1024,
		"heap_idle_mb":     float64(m.HeapIdle) / 1024 / 1024,
		"sys_mb":           float64(m.Sys) / 1024 / 1024,
	})
}
