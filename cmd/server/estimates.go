package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/aerocost/tripcost/internal/store"
	"github.com/aerocost/tripcost/internal/trip"
)

type calcResponse struct {
	Estimate *trip.Estimate `json:"estimate"`
	Totals   trip.Totals    `json:"totals"`
	Summary  string         `json:"summary"`
}

type estimateListItem struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	GrandTotal float64 `json:"grand_total"`
	CreatedAt  int64   `json:"created_at"`
	UpdatedAt  int64   `json:"updated_at"`
}

type estimateResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Data      json.RawMessage `json:"data"`
	Totals    json.RawMessage `json:"totals"`
	Shared    bool            `json:"shared"`
	CreatedAt int64           `json:"created_at"`
	UpdatedAt int64           `json:"updated_at"`
}

type saveEstimateRequest struct {
	Name string         `json:"name"`
	Data *trip.Estimate `json:"data"`
}

// handleCalc runs the engine on a posted input snapshot without persisting
// anything. The response carries the normalized snapshot back because the
// hotel-nights mirror may have been rewritten during recalculation.
func (s *server) handleCalc(w http.ResponseWriter, r *http.Request) {
	var estimate trip.Estimate
	if err := json.NewDecoder(r.Body).Decode(&estimate); err != nil {
		writeError(w, http.StatusBadRequest, "invalid estimate payload")
		return
	}

	totals := trip.Recalculate(&estimate)
	writeJSON(w, http.StatusOK, calcResponse{
		Estimate: &estimate,
		Totals:   totals,
		Summary:  trip.Summary(&estimate, totals),
	})
}

func (s *server) handleListEstimates(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	items, err := s.store.List(user.ID, r.URL.Query().Get("q"))
	if err != nil {
		log.Error().Err(err).Int64("user_id", user.ID).Msg("failed to list estimates")
		writeError(w, http.StatusInternalServerError, "failed to load estimates")
		return
	}

	out := make([]estimateListItem, 0, len(items))
	for _, item := range items {
		out = append(out, estimateListItem{
			ID:         item.ID,
			Name:       item.Name,
			GrandTotal: item.GrandTotal,
			CreatedAt:  item.CreatedAt,
			UpdatedAt:  item.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"estimates": out})
}

func (s *server) handleCreateEstimate(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	var req saveEstimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Data == nil {
		writeError(w, http.StatusBadRequest, "missing required fields: name, data")
		return
	}

	data, totals, err := snapshotJSON(req.Data)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode estimate snapshot")
		writeError(w, http.StatusInternalServerError, "failed to save estimate")
		return
	}

	rec, err := s.store.Create(user.ID, req.Name, data, totals)
	if err != nil {
		log.Error().Err(err).Int64("user_id", user.ID).Msg("failed to create estimate")
		writeError(w, http.StatusInternalServerError, "failed to save estimate")
		return
	}

	writeJSON(w, http.StatusCreated, estimateView(rec))
}

func (s *server) handleGetEstimate(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	rec, err := s.store.Get(user.ID, chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, err, "failed to load estimate")
		return
	}
	writeJSON(w, http.StatusOK, estimateView(rec))
}

func (s *server) handleUpdateEstimate(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	id := chi.URLParam(r, "id")

	var req saveEstimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" && req.Data == nil {
		writeError(w, http.StatusBadRequest, "must provide name or data to update")
		return
	}

	var data, totals json.RawMessage
	if req.Data != nil {
		var err error
		if data, totals, err = snapshotJSON(req.Data); err != nil {
			log.Error().Err(err).Msg("failed to encode estimate snapshot")
			writeError(w, http.StatusInternalServerError, "failed to save estimate")
			return
		}
	}

	if err := s.store.Update(user.ID, id, req.Name, data, totals); err != nil {
		respondStoreError(w, err, "failed to update estimate")
		return
	}

	rec, err := s.store.Get(user.ID, id)
	if err != nil {
		respondStoreError(w, err, "failed to load estimate")
		return
	}
	writeJSON(w, http.StatusOK, estimateView(rec))
}

func (s *server) handleDeleteEstimate(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	if err := s.store.Delete(user.ID, chi.URLParam(r, "id")); err != nil {
		respondStoreError(w, err, "failed to delete estimate")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handleEstimateSummary re-runs the engine on the stored snapshot and returns
// the plain-text report for clipboard or document use.
func (s *server) handleEstimateSummary(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	rec, err := s.store.Get(user.ID, chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, err, "failed to load estimate")
		return
	}

	var estimate trip.Estimate
	if err := json.Unmarshal(rec.Data, &estimate); err != nil {
		log.Error().Err(err).Str("estimate_id", rec.ID).Msg("stored estimate snapshot is corrupt")
		writeError(w, http.StatusInternalServerError, "stored estimate is unreadable")
		return
	}

	totals := trip.Recalculate(&estimate)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(trip.Summary(&estimate, totals)))
}

func (s *server) handleShareEstimate(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	token, err := s.store.Share(user.ID, chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, err, "failed to share estimate")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"share_token": token})
}

func (s *server) handleUnshareEstimate(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	if err := s.store.Unshare(user.ID, chi.URLParam(r, "id")); err != nil {
		respondStoreError(w, err, "failed to revoke share")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *server) handleGetShared(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.GetShared(chi.URLParam(r, "token"))
	if err != nil {
		respondStoreError(w, err, "failed to load shared estimate")
		return
	}

	view := estimateView(rec)
	view.Shared = true
	writeJSON(w, http.StatusOK, view)
}

// snapshotJSON normalizes an input snapshot through the engine and encodes
// both it and its totals. Recomputing server-side keeps the stored totals
// from ever drifting from the stored inputs.
func snapshotJSON(estimate *trip.Estimate) (data, totals json.RawMessage, err error) {
	t := trip.Recalculate(estimate)
	if data, err = json.Marshal(estimate); err != nil {
		return nil, nil, err
	}
	if totals, err = json.Marshal(t); err != nil {
		return nil, nil, err
	}
	return data, totals, nil
}

func estimateView(rec store.EstimateRecord) estimateResponse {
	return estimateResponse{
		ID:        rec.ID,
		Name:      rec.Name,
		Data:      rec.Data,
		Totals:    rec.Totals,
		Shared:    rec.ShareToken != "",
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}

func respondStoreError(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "estimate not found")
		return
	}
	log.Error().Err(err).Msg(msg)
	writeError(w, http.StatusInternalServerError, msg)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
