package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/mixpad/internal/clustering"
	"github.com/hyperjump/mixpad/internal/models"
	"github.com/hyperjump/mixpad/internal/render"
	"github.com/hyperjump/mixpad/internal/scene"
	"github.com/hyperjump/mixpad/internal/session"
)

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id := s.sessions.Create()
	view, err := s.sessions.View(r.Context(), id)
	if err != nil {
		s.respondSessionError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, view)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"sessions": s.sessions.List(r.Context())})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	view, err := s.sessions.View(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondSessionError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete session request", zap.String("session", id))
	if err := s.sessions.Delete(r.Context(), id); err != nil {
		s.respondSessionError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

func (s *Server) handleAddPoint(w http.ResponseWriter, r *http.Request) {
	var input models.PointInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := input.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	id := chi.URLParam(r, "id")
	var view *models.SessionView
	err := s.sessions.Do(r.Context(), id, func(c *clustering.Coordinator) error {
		c.AddPoint(context.WithoutCancel(r.Context()), input.Point())
		view = session.ViewOf(id, c)
		return nil
	})
	if err != nil {
		s.respondSessionError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleRecluster(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var view *models.SessionView
	err := s.sessions.Do(r.Context(), id, func(c *clustering.Coordinator) error {
		out := c.Recluster(context.WithoutCancel(r.Context()))
		view = session.ViewOf(id, c)
		view.Warning = out.Warning
		return nil
	})
	if err != nil {
		s.respondSessionError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var view *models.SessionView
	err := s.sessions.Do(r.Context(), id, func(c *clustering.Coordinator) error {
		c.Reset()
		view = session.ViewOf(id, c)
		return nil
	})
	if err != nil {
		s.respondSessionError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, view)
}

func (s *Server) buildScene(r *http.Request) (*models.Scene, error) {
	var sc *models.Scene
	err := s.sessions.Do(r.Context(), chi.URLParam(r, "id"), func(c *clustering.Coordinator) error {
		sc = s.builder.Build(r.Context(), scene.InputFrom(c), c.Previewer())
		return nil
	})
	return sc, err
}

func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	sc, err := s.buildScene(r)
	if err != nil {
		s.respondSessionError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, sc)
}

func (s *Server) handleScenePNG(w http.ResponseWriter, r *http.Request) {
	sc, err := s.buildScene(r)
	if err != nil {
		s.respondSessionError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := render.PNG(&buf, sc, s.png); err != nil {
		s.logger.Error("scene render failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleFits(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	fits, err := s.sessions.Fits(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		s.respondSessionError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"fits": fits})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "sessions": s.sessions.Len()})
}

func (s *Server) respondSessionError(w http.ResponseWriter, err error) {
	if errors.Is(err, session.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "session not found")
		return
	}
	s.logger.Error("session action failed", zap.Error(err))
	s.respondError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
