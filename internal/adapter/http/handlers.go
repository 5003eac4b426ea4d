package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/beachhub-recommender/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
)

const beachNotFound = "Beach not found"

type listMeta struct {
	Count       int        `json:"count"`
	GeneratedAt *time.Time `json:"generatedAt,omitempty"`
}

type listResponse[T any] struct {
	Data []T      `json:"data"`
	Meta listMeta `json:"meta"`
}

type recordResponse[T any] struct {
	Data T               `json:"data"`
	Meta domain.Metadata `json:"meta"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	TraceID string `json:"traceId"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func (s *Server) listBeaches(w http.ResponseWriter, r *http.Request) {
	beaches, err := s.deps.Catalog.ListBeaches(r.Context())
	if err != nil {
		s.sourceError(w, r, "list beaches", err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[domain.Beach]{Data: beaches, Meta: listMeta{Count: len(beaches)}})
}

func (s *Server) getBeach(w http.ResponseWriter, r *http.Request) {
	beach, ok := s.lookupBeach(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, beach)
}

func (s *Server) getObservation(w http.ResponseWriter, r *http.Request) {
	beach, ok := s.lookupBeach(w, r)
	if !ok {
		return
	}
	obs, meta, err := s.deps.Observations.FetchObservation(r.Context(), beach.ID)
	if err != nil {
		s.sourceError(w, r, "fetch observation", err)
		return
	}
	writeJSON(w, http.StatusOK, recordResponse[domain.Observation]{Data: obs, Meta: meta})
}

func (s *Server) getAlerts(w http.ResponseWriter, r *http.Request) {
	beach, ok := s.lookupBeach(w, r)
	if !ok {
		return
	}
	alerts, meta, err := s.deps.Alerts.FetchAlerts(r.Context(), beach.ID)
	if err != nil {
		s.sourceError(w, r, "fetch alerts", err)
		return
	}
	if alerts == nil {
		alerts = []domain.Alert{}
	}
	writeJSON(w, http.StatusOK, recordResponse[[]domain.Alert]{Data: alerts, Meta: meta})
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.deps.Events.FetchEvents(r.Context(), r.URL.Query().Get("region"))
	if err != nil {
		s.sourceError(w, r, "fetch events", err)
		return
	}
	if events == nil {
		events = []domain.Event{}
	}
	writeJSON(w, http.StatusOK, listResponse[domain.Event]{Data: events, Meta: listMeta{Count: len(events)}})
}

func (s *Server) recommend(w http.ResponseWriter, r *http.Request) {
	prefs, err := parsePreferences(r.URL.Query())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_preferences", err.Error())
		return
	}

	beaches, err := s.deps.Catalog.ListBeaches(r.Context())
	if err != nil {
		s.sourceError(w, r, "list beaches", err)
		return
	}

	items, err := s.deps.Recommender.BuildRecommendations(r.Context(), beaches, prefs)
	switch {
	case errors.Is(err, domain.ErrInvalidPreferences):
		writeError(w, r, http.StatusBadRequest, "invalid_preferences", err.Error())
		return
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, r, http.StatusServiceUnavailable, "request_cancelled", err.Error())
		return
	case err != nil:
		s.internalError(w, r, "build recommendations", err)
		return
	}

	if items == nil {
		items = []domain.RecommendationItem{}
	}
	generated := s.deps.Clock.Now().UTC()
	writeJSON(w, http.StatusOK, listResponse[domain.RecommendationItem]{
		Data: items,
		Meta: listMeta{Count: len(items), GeneratedAt: &generated},
	})
}

// lookupBeach resolves the {beachID} path parameter, writing the 404 itself.
func (s *Server) lookupBeach(w http.ResponseWriter, r *http.Request) (domain.Beach, bool) {
	beach, err := s.deps.Catalog.GetBeach(r.Context(), chi.URLParam(r, "beachID"))
	if errors.Is(err, domain.ErrBeachNotFound) {
		writeError(w, r, http.StatusNotFound, beachNotFound, beachNotFound)
		return domain.Beach{}, false
	}
	if err != nil {
		s.sourceError(w, r, "get beach", err)
		return domain.Beach{}, false
	}
	return beach, true
}

func (s *Server) sourceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, domain.ErrSourceUnavailable) {
		s.logger.Warn(op+" failed", "error", err, "trace_id", TraceIDFromContext(r.Context()))
		writeError(w, r, http.StatusBadGateway, "source_unavailable", "upstream data source unavailable")
		return
	}
	s.internalError(w, r, op, err)
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.logger.Error(op+" failed", "error", err, "trace_id", TraceIDFromContext(r.Context()))
	writeError(w, r, http.StatusInternalServerError, "internal_error", "unexpected error")
}

// parsePreferences reads wave_max, temp_min, distance_km, party_types, lat and
// lon. party_types accepts a comma list, repeated keys, or both.
func parsePreferences(q url.Values) (*domain.UserPreferences, error) {
	prefs := &domain.UserPreferences{}
	var err error
	if prefs.MaxWaveHeight, err = optionalFloat(q, "wave_max"); err != nil {
		return nil, err
	}
	if prefs.MinTemp, err = optionalFloat(q, "temp_min"); err != nil {
		return nil, err
	}
	if prefs.MaxDistanceKm, err = optionalFloat(q, "distance_km"); err != nil {
		return nil, err
	}

	for _, raw := range q["party_types"] {
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				prefs.PartyTypes = append(prefs.PartyTypes, strings.ToLower(p))
			}
		}
	}

	lat, err := optionalFloat(q, "lat")
	if err != nil {
		return nil, err
	}
	lon, err := optionalFloat(q, "lon")
	if err != nil {
		return nil, err
	}
	switch {
	case lat != nil && lon != nil:
		prefs.Origin = &domain.Coordinate{Lat: *lat, Lon: *lon}
	case lat != nil || lon != nil:
		return nil, fmt.Errorf("%w: lat and lon must be given together", domain.ErrInvalidPreferences)
	}

	if err := prefs.Validate(); err != nil {
		return nil, err
	}
	return prefs, nil
}

func optionalFloat(q url.Values, key string) (*float64, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %q is not a number", domain.ErrInvalidPreferences, key, raw)
	}
	return &v, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // headers already sent
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: errorBody{
		Code:    code,
		Message: message,
		TraceID: TraceIDFromContext(r.Context()),
	}})
}
