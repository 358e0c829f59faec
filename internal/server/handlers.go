package server

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/meltforce/madcow/internal/madcow"
	"github.com/meltforce/madcow/internal/models"
	"github.com/meltforce/madcow/internal/session"
	"github.com/meltforce/madcow/internal/storage"
)

// Error codes returned in the "code" field of error bodies.
const (
	CodeInvalidInput = "INVALID_INPUT"
	CodeNotFound     = "NOT_FOUND"
	CodeDirty        = "UNSAVED_CHANGES"
	CodeTransport    = "TRANSPORT_ERROR"
	CodeInternal     = "INTERNAL"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg, Code: CodeInvalidInput})
}

// writeError maps err onto a status code and error body.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, code := http.StatusInternalServerError, CodeInternal
	switch {
	case errors.Is(err, models.ErrNotFound):
		status, code = http.StatusNotFound, CodeNotFound
	case errors.Is(err, session.ErrInvalidInput),
		errors.Is(err, madcow.ErrInvalidWeek),
		errors.Is(err, madcow.ErrInvalidIncrement):
		status, code = http.StatusBadRequest, CodeInvalidInput
	case errors.Is(err, session.ErrDirty):
		status, code = http.StatusConflict, CodeDirty
	case errors.Is(err, storage.ErrTransport):
		status, code = http.StatusBadGateway, CodeTransport
	}
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Code: code})
}

// parseWeek reads an optional week parameter; absent means the current week.
func parseWeek(r *http.Request) (int, error) {
	v := r.URL.Query().Get("week")
	if v == "" {
		return 0, nil
	}
	week, err := strconv.Atoi(v)
	if err != nil || week < 1 {
		return 0, madcow.ErrInvalidWeek
	}
	return week, nil
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.state.Status())
}

func (s *Server) handleLifters(w http.ResponseWriter, r *http.Request) {
	lifters := s.state.Lifters()
	if lifters == nil {
		lifters = []string{}
	}
	writeJSON(w, http.StatusOK, lifters)
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	recs, err := s.state.Records(r.URL.Query().Get("lifter"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if recs == nil {
		recs = []models.LiftRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

type recordRequest struct {
	Max       *float64 `json:"max"`
	Increment *float64 `json:"increment"`
}

func (s *Server) handlePutRecord(w http.ResponseWriter, r *http.Request) {
	lifter, err := url.PathUnescape(chi.URLParam(r, "lifter"))
	if err != nil {
		writeBadRequest(w, "invalid lifter: "+err.Error())
		return
	}
	liftName, err := url.PathUnescape(chi.URLParam(r, "lift"))
	if err != nil {
		writeBadRequest(w, "invalid lift: "+err.Error())
		return
	}
	lift, err := models.ParseLift(liftName)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON: "+err.Error())
		return
	}
	if req.Max == nil {
		writeBadRequest(w, "max is required")
		return
	}
	increment := models.DefaultIncrementPct
	if req.Increment != nil {
		increment = *req.Increment
	} else if prev, err := s.state.Record(lifter, lift); err == nil {
		increment = prev.Increment
	}

	rec, err := s.state.SetRecord(lifter, lift, *req.Max, increment)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.state.Settings())
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var patch session.SettingsPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeBadRequest(w, "invalid JSON: "+err.Error())
		return
	}
	settings, err := s.state.UpdateSettings(patch)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if err := s.state.Save(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.state.Status())
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))
	if _, err := s.state.Reload(r.Context(), force); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.state.Status())
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	lifter := strings.TrimSpace(r.URL.Query().Get("lifter"))
	if lifter == "" {
		writeBadRequest(w, "lifter parameter required")
		return
	}
	week, err := parseWeek(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	plan, err := s.state.Plan(lifter, week)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if err := madcow.WriteText(w, plan); err != nil {
			s.log.Error("writing plan", "error", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleMax(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lifter := strings.TrimSpace(q.Get("lifter"))
	if lifter == "" {
		writeBadRequest(w, "lifter parameter required")
		return
	}
	lift, err := models.ParseLift(q.Get("lift"))
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	week, err := parseWeek(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	p, err := s.state.Projection(lifter, lift, week)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handlePlates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	weight, err := strconv.ParseFloat(q.Get("weight"), 64)
	if err != nil || weight < 0 || math.IsInf(weight, 0) || math.IsNaN(weight) {
		writeBadRequest(w, "weight must be a non-negative number")
		return
	}
	var bar float64
	if v := q.Get("bar"); v != "" {
		bar, err = strconv.ParseFloat(v, 64)
		if err != nil || !(bar > 0) || math.IsInf(bar, 0) {
			writeBadRequest(w, "bar must be a positive number")
			return
		}
	}
	writeJSON(w, http.StatusOK, s.state.Plates(weight, bar))
}
