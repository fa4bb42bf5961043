package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/soar/padbind/backend/internal/gamepad"
	"github.com/soar/padbind/backend/internal/playermap"
)

// PlayerView is the REST representation of one player slot.
type PlayerView struct {
	Player  int                  `json:"player"`
	Summary string               `json:"summary"`
	State   gamepad.GamepadState `json:"state"`
}

// apiError is the body of every non-2xx API response.
type apiError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func (s *Server) handleGetBindings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) handleGetPlayer(w http.ResponseWriter, r *http.Request) {
	player, ok := s.playerParam(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, PlayerView{
		Player:  int(player),
		Summary: s.ctrl.Snapshot().Summaries[int(player)],
		State:   s.ctrl.State(int(player)),
	})
}

func (s *Server) handleUnmapPlayer(w http.ResponseWriter, r *http.Request) {
	player, ok := s.playerParam(w, r)
	if !ok {
		return
	}
	if err := s.ctrl.UnmapPlayer(player); err != nil {
		writeBindingError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMapDevice(w http.ResponseWriter, r *http.Request) {
	player, ok := s.playerParam(w, r)
	if !ok {
		return
	}
	id, ok := deviceParam(w, r)
	if !ok {
		return
	}
	if err := s.ctrl.MapDevice(id, player); err != nil {
		writeBindingError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUnmapDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceParam(w, r)
	if !ok {
		return
	}
	if err := s.ctrl.UnmapDevice(id); err != nil {
		writeBindingError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) playerParam(w http.ResponseWriter, r *http.Request) (playermap.Player, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, "player"))
	if err != nil || !s.ctrl.ValidPlayer(n) {
		writeError(w, http.StatusBadRequest, gamepad.ErrInvalidPlayer.Error())
		return playermap.NoPlayer, false
	}
	return playermap.Player(n), true
}

func deviceParam(w http.ResponseWriter, r *http.Request) (playermap.HardwareID, bool) {
	n, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil || n == 0 {
		writeError(w, http.StatusBadRequest, "invalid device id")
		return 0, false
	}
	return playermap.HardwareID(n), true
}

func writeBindingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, gamepad.ErrInvalidPlayer):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, gamepad.ErrUnknownDevice):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, apiError{Status: status, Message: message})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// loggingMiddleware logs API requests. It is not used on /ws because the
// wrapped writer cannot be hijacked.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		s.logger.Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", wrapped.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}
				s.logger.Error("Panic recovered in HTTP handler",
					zap.Any("error", err),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
				)
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
