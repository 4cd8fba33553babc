package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/spektr-org/plwdash/engine"
	"github.com/spektr-org/plwdash/loader"
	"github.com/spektr-org/plwdash/schema"
)

// ============================================================================
// HANDLERS
// ============================================================================
// Every data handler loads the table through the Source (cached), applies the
// query's criteria and answers JSON. Bad parameters are 400; a sheet missing
// required columns is 500 naming the fields.
// ============================================================================

type errorBody struct {
	Error         string   `json:"error"`
	MissingFields []string `json:"missing_fields,omitempty"`
	RequestID     string   `json:"request_id,omitempty"`
}

type healthResponse struct {
	Status   string     `json:"status"`
	LoadedAt *time.Time `json:"loaded_at,omitempty"`
}

type summaryResponse struct {
	Summary engine.Summary      `json:"summary"`
	Cards   []engine.MetricCard `json:"cards"`
}

type recordsResponse struct {
	Total   int             `json:"total"`
	Offset  int             `json:"offset"`
	Records []engine.Record `json:"records"`
}

type refreshResponse struct {
	Rows     int          `json:"rows"`
	LoadedAt time.Time    `json:"loaded_at"`
	Stats    loader.Stats `json:"stats"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	if t, ok := s.src.LoadedAt(); ok {
		resp.LoadedAt = &t
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) filters(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.dataset(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, engine.Options(ds.View()))
}

func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	c, err := parseCriteria(r.URL.Query())
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	ds, ok := s.dataset(w, r)
	if !ok {
		return
	}
	sum := engine.ComputeSummary(engine.ApplyFilters(ds.View(), c))
	writeJSON(w, http.StatusOK, summaryResponse{
		Summary: sum,
		Cards:   engine.BuildMetricCards(sum, s.currency),
	})
}

func (s *Server) breakdown(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	key := engine.GroupKey(mux.Vars(r)["key"])
	c, err := parseCriteria(q)
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	mode, err := parseSort(q)
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	ds, ok := s.dataset(w, r)
	if !ok {
		return
	}

	b, err := engine.ComputeGroupBreakdown(engine.ApplyFilters(ds.View(), c), key, engine.WithSort(mode))
	if errors.Is(err, engine.ErrUnknownGroupKey) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error(), RequestID: RequestID(r.Context())})
		return
	}
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	if !ds.Available(key) {
		writeJSON(w, http.StatusNotFound, errorBody{
			Error:     fmt.Sprintf("column for %s is not present in the source", key),
			RequestID: RequestID(r.Context()),
		})
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) report(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	c, err := parseCriteria(q)
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	mode, err := parseSort(q)
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	ds, ok := s.dataset(w, r)
	if !ok {
		return
	}

	rep, err := engine.Build(ds.View(), c,
		engine.WithSort(mode),
		engine.WithAvailability(ds.Available),
		engine.WithTable(q.Get("table") == "true"),
		engine.WithCurrency(s.currency),
		engine.WithLogger(s.logger),
	)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) records(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	c, err := parseCriteria(q)
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	limit, offset, err := parsePage(q)
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	ds, ok := s.dataset(w, r)
	if !ok {
		return
	}

	all := engine.Records(engine.ApplyFilters(ds.View(), c))
	page := all[min(offset, len(all)):]
	if limit > 0 && limit < len(page) {
		page = page[:limit]
	}
	writeJSON(w, http.StatusOK, recordsResponse{Total: len(all), Offset: offset, Records: page})
}

func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	c, err := parseCriteria(r.URL.Query())
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	ds, ok := s.dataset(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", loader.ExportFilename))
	if err := loader.WriteCSV(w, engine.ApplyFilters(ds.View(), c)); err != nil {
		// Headers are already sent; all that is left is to log.
		s.logger.Error("export failed", zap.String("request_id", RequestID(r.Context())), zap.Error(err))
	}
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	ds, err := s.src.Refresh(r.Context())
	if err != nil {
		s.loadError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, refreshResponse{Rows: len(ds.Records), LoadedAt: ds.LoadedAt, Stats: ds.Stats})
}

// ============================================================================
// RESPONSE HELPERS
// ============================================================================

func (s *Server) dataset(w http.ResponseWriter, r *http.Request) (*loader.Dataset, bool) {
	ds, err := s.src.Get(r.Context())
	if err != nil {
		s.loadError(w, r, err)
		return nil, false
	}
	return ds, true
}

func (s *Server) loadError(w http.ResponseWriter, r *http.Request, err error) {
	body := errorBody{Error: err.Error(), RequestID: RequestID(r.Context())}
	var mce *schema.MissingColumnError
	if errors.As(err, &mce) {
		body.MissingFields = mce.FieldNames()
	}
	s.logger.Error("table load failed", zap.String("request_id", body.RequestID), zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, body)
}

func (s *Server) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), RequestID: RequestID(r.Context())})
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("request failed", zap.String("request_id", RequestID(r.Context())), zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error", RequestID: RequestID(r.Context())})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
