package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jgoulah/powerdash/internal/insights"
	"github.com/jgoulah/powerdash/pkg/models"
)

const maxBodyBytes = 1 << 20

// FacilityStore is the read side of the facility database.
type FacilityStore interface {
	ListFacilities() ([]models.Facility, error)
}

type Handlers struct {
	Log      *zap.Logger
	Insights *insights.Service
	Store    FacilityStore
}

var validate = validator.New()

type citiesParams struct {
	Year    string `validate:"required"`
	Month   string `validate:"required"`
	MetroCd string `validate:"required"`
}

type industryParams struct {
	Year  string `validate:"required"`
	Month string `validate:"required"`
}

type bizTypeParams struct {
	Metro string `validate:"required"`
	City  string `validate:"required"`
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Cities handles GET /api/cities?year&month&metroCd
func (h *Handlers) Cities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := citiesParams{Year: q.Get("year"), Month: q.Get("month"), MetroCd: q.Get("metroCd")}
	if err := validate.Struct(p); err != nil {
		h.badRequest(w, "year, month, metroCd are required")
		return
	}

	cities, err := h.Insights.Cities(r.Context(), insights.CitiesQuery{
		Year: p.Year, Month: p.Month, MetroCd: p.MetroCd,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cities)
}

// TopIndustries handles GET /api/industry/top?year&month[&metroCd][&city][&limit]
func (h *Handlers) TopIndustries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := industryParams{Year: q.Get("year"), Month: q.Get("month")}
	if err := validate.Struct(p); err != nil {
		h.badRequest(w, "year, month are required")
		return
	}

	limit := insights.DefaultTopLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.badRequest(w, "limit must be an integer")
			return
		}
		limit = n
	}

	out, err := h.Insights.TopIndustries(r.Context(), insights.IndustryQuery{
		Year:    p.Year,
		Month:   p.Month,
		MetroCd: q.Get("metroCd"),
		City:    q.Get("city"),
		Limit:   limit,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// BusinessTypes handles GET /api/biztype?year&month&metro&city[&bizType]
func (h *Handlers) BusinessTypes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if err := validate.Struct(industryParams{Year: q.Get("year"), Month: q.Get("month")}); err != nil {
		h.badRequest(w, "year, month are required")
		return
	}
	p := bizTypeParams{Metro: q.Get("metro"), City: q.Get("city")}
	if err := validate.Struct(p); err != nil {
		h.badRequest(w, "metro, city are required (names)")
		return
	}

	rows, err := h.Insights.BusinessTypes(r.Context(), insights.BusinessQuery{
		Year:    q.Get("year"),
		Month:   q.Get("month"),
		Metro:   p.Metro,
		City:    p.City,
		BizType: q.Get("bizType"),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// StoredSummary handles GET /api/insights/summary over the facility store.
func (h *Handlers) StoredSummary(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		writeJSON(w, http.StatusOK, insights.Summarize(nil))
		return
	}
	facilities, err := h.Store.ListFacilities()
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, insights.Summarize(facilities))
}

// PostedSummary handles POST /api/insights/summary with a JSON array of
// facilities. An empty body summarizes nothing.
func (h *Handlers) PostedSummary(w http.ResponseWriter, r *http.Request) {
	var facilities []models.Facility
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&facilities); err != nil && !errors.Is(err, io.EOF) {
		h.badRequest(w, "body must be a JSON array of facilities")
		return
	}
	writeJSON(w, http.StatusOK, insights.Summarize(facilities))
}

func (h *Handlers) badRequest(w http.ResponseWriter, msg string) {
	h.Log.Warn("bad request", zap.String("error", msg))
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

// writeError maps service errors onto status codes.
func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, insights.ErrMissingFilter) {
		h.badRequest(w, err.Error())
		return
	}
	h.Log.Error("request failed", zap.Error(err))
	msg := err.Error()
	if msg == "" {
		msg = "server error"
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
