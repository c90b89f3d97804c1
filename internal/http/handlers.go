package http

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"expenses/internal/core"
	applog "expenses/internal/log"
)

type indexData struct {
	APIURL          string
	Categories      []string
	DefaultCategory string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := indexData{
		APIURL:          s.publicAPIURL,
		Categories:      core.SuggestedCategories,
		DefaultCategory: core.DefaultCategory,
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "index.html", data); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Index template execution failed",
			applog.NewFields().
				WithComponent(applog.ComponentTemplate).
				WithOperation(applog.OpRender).
				WithError(err).
				ToSlice()...)
		http.Error(w, MsgServerError, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

type statusBody struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().
		Header("Cache-Control", "no-store").
		JSON(statusBody{Status: "ok"}).
		Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.service.Ping(ctx); err != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed",
			applog.NewFields().
				WithError(err).
				WithErrorType(applog.ErrorTypeDatabase).
				ToSlice()...)
		NewJSONResponse().
			Status(http.StatusServiceUnavailable).
			Header("Cache-Control", "no-store").
			JSON(statusBody{Status: "unavailable", Error: "store unreachable"}).
			Write(w)
		return
	}

	NewJSONResponse().
		Header("Cache-Control", "no-store").
		JSON(statusBody{Status: "ready"}).
		Write(w)
}
