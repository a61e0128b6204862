package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/zappabad/marketbubbles/internal/bubble/core"
	"github.com/zappabad/marketbubbles/internal/bubble/service"
	"github.com/zappabad/marketbubbles/internal/loop"
)

type containerRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "healthy",
		"service": "marketbubbles",
		"uptime":  time.Since(s.started).Round(time.Second).String(),
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleSystemStatus reports simulation and host resource usage
func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	phase, err := s.sim.Phase(r.Context())
	if err != nil {
		s.writeSimError(w, err)
		return
	}

	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil || len(cpuPercent) == 0 {
		s.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}
	var memUsed float64
	if vm, err := mem.VirtualMemory(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to get memory statistics")
	} else {
		memUsed = vm.UsedPercent
	}

	response := map[string]interface{}{
		"phase":          phase,
		"frames":         s.sim.Frames(),
		"stream_clients": s.streamClients.Load(),
		"goroutines":     runtime.NumGoroutine(),
		"cpu_percent":    cpuPercent[0],
		"mem_percent":    memUsed,
	}

	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleGetBubbles(w http.ResponseWriter, r *http.Request) {
	snap, err := s.sim.Snapshot(r.Context())
	if err != nil {
		s.writeSimError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleHover(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.sim.Hover(r.Context(), id); err != nil {
		s.writeSimError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	selected, err := s.sim.Click(r.Context(), id)
	if err != nil {
		s.writeSimError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":       id,
		"selected": selected,
	})
}

func (s *Server) handleClearSelection(w http.ResponseWriter, r *http.Request) {
	if err := s.sim.ClearSelection(r.Context()); err != nil {
		s.writeSimError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	var req containerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Width < 0 || req.Height < 0 {
		s.writeError(w, http.StatusBadRequest, "width and height must not be negative")
		return
	}

	if err := s.sim.Resize(r.Context(), core.Size{Width: req.Width, Height: req.Height}); err != nil {
		s.writeSimError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	n, err := s.catalog.Refresh(r.Context())
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{"instruments": n})
}

// writeSimError maps simulation errors to HTTP statuses
func (s *Server) writeSimError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUnknownBubble):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotRunning):
		s.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrTornDown), errors.Is(err, loop.ErrClosed),
		errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.log.Error().Err(err).Msg("Simulation request failed")
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to encode response"}` + "\n"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
