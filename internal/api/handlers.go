package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/rgehrsitz/mesada/internal/calculation"
	"github.com/rgehrsitz/mesada/internal/compare"
	"github.com/rgehrsitz/mesada/internal/domain"
	"github.com/rgehrsitz/mesada/internal/liquidation"
	"github.com/rgehrsitz/mesada/internal/output"
	"github.com/rgehrsitz/mesada/internal/store"
	"go.uber.org/zap"
)

const maxBodyBytes = 4 << 20

type errorResponse struct {
	Error string `json:"error"`
}

type indicesResponse struct {
	Source    string               `json:"source"`
	FirstYear int                  `json:"firstYear"`
	LastYear  int                  `json:"lastYear"`
	Years     []domain.YearlyIndex `json:"years"`
}

type variantResponse struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Defaults    liquidation.Options `json:"defaults"`
}

// badRequest marks errors caused by the request itself
type badRequest struct{ err error }

func (e badRequest) Error() string { return e.err.Error() }
func (e badRequest) Unwrap() error { return e.err }

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// handleError maps domain errors to HTTP responses
func (s *Server) handleError(w http.ResponseWriter, err error) {
	var invalid badRequest
	switch {
	case errors.As(err, &invalid):
		s.logger.Debug("invalid request", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		s.logger.Debug("not found", zap.String("error", err.Error()))
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, calculation.ErrBaseMesadaUnavailable),
		errors.Is(err, calculation.ErrSharingDateMismatch),
		errors.Is(err, calculation.ErrFixedSplitCounts),
		errors.Is(err, liquidation.ErrSharingSplitRequired):
		s.logger.Warn("liquidation not computable", zap.Error(err))
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.logger.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listIndices(w http.ResponseWriter, _ *http.Request) {
	t := s.engine.Table
	writeJSON(w, http.StatusOK, indicesResponse{
		Source:    t.Source(),
		FirstYear: t.FirstYear(),
		LastYear:  t.LastYear(),
		Years:     t.Years(),
	})
}

func (s *Server) listVariants(w http.ResponseWriter, _ *http.Request) {
	names := s.registry.List()
	resp := make([]variantResponse, 0, len(names))
	for _, name := range names {
		v, err := s.registry.Get(name)
		if err != nil {
			continue
		}
		resp = append(resp, variantResponse{Name: v.Name(), Description: v.Description(), Defaults: v.Defaults()})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getCase(w http.ResponseWriter, r *http.Request) {
	c, err := store.LoadCase(r.Context(), s.store, chi.URLParam(r, "id"))
	if err != nil {
		s.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) putCase(w http.ResponseWriter, r *http.Request) {
	writer, ok := s.store.(store.Writer)
	if !ok {
		writeError(w, http.StatusNotImplemented, "store is read-only")
		return
	}

	var c domain.Case
	if err := decodeBody(r, &c); err != nil {
		s.handleError(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	if c.Pensioner.ID == "" {
		c.Pensioner.ID = id
	}
	if c.Pensioner.ID != id {
		writeError(w, http.StatusBadRequest, "pensioner id does not match the path")
		return
	}
	if err := s.parser.ValidateCase(&c); err != nil {
		s.handleError(w, badRequest{err})
		return
	}
	if err := writer.PutCase(r.Context(), &c); err != nil {
		s.handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) liquidate(w http.ResponseWriter, r *http.Request) {
	variant, err := s.registry.Get(chi.URLParam(r, "variant"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	formatter := output.GetFormatterByName(r.URL.Query().Get("format"))
	if r.URL.Query().Get("format") == "" {
		formatter = output.JSONFormatter{}
	}
	if formatter == nil {
		writeError(w, http.StatusBadRequest, "unknown format: "+r.URL.Query().Get("format"))
		return
	}

	opts, err := s.decodeOptions(r)
	if err != nil {
		s.handleError(w, err)
		return
	}
	opts.Variant = variant.Name()

	c, err := store.LoadCase(r.Context(), s.store, chi.URLParam(r, "id"))
	if err != nil {
		s.handleError(w, err)
		return
	}

	result, err := s.registry.Run(r.Context(), s.engine, c, opts)
	s.metrics.IncrLiquidation(variant.Name(), err)
	if err != nil {
		s.handleError(w, err)
		return
	}

	if _, isJSON := formatter.(output.JSONFormatter); isJSON {
		writeJSON(w, http.StatusOK, result)
		return
	}
	body, err := formatter.Format(result)
	if err != nil {
		s.handleError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType(formatter.Name()))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, body)
}

func (s *Server) compareCase(w http.ResponseWriter, r *http.Request) {
	opts, err := s.decodeOptions(r)
	if err != nil {
		s.handleError(w, err)
		return
	}

	var scenarios compare.CompareOptions
	by := r.URL.Query().Get("by")
	switch by {
	case "", "selector":
		by = "selector"
		if opts.Variant == "" {
			opts.Variant = liquidation.VariantEvolucion
		}
		scenarios = compare.SelectorScenarios(opts)
	case "variant":
		names := splitList(r.URL.Query().Get("variants"))
		if len(names) == 0 {
			names = []string{liquidation.VariantEvolucion, liquidation.VariantSERP, liquidation.VariantSimulador}
		}
		for _, name := range names {
			if _, err := s.registry.Get(name); err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
		}
		scenarios, err = compare.VariantScenarios(opts, names...)
		if err != nil {
			s.handleError(w, badRequest{err})
			return
		}
	default:
		writeError(w, http.StatusBadRequest, "unknown comparison: "+by)
		return
	}

	c, err := store.LoadCase(r.Context(), s.store, chi.URLParam(r, "id"))
	if err != nil {
		s.handleError(w, err)
		return
	}

	set, err := s.compare.Compare(r.Context(), c, scenarios)
	s.metrics.IncrComparison(by, err)
	if err != nil {
		s.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

// decodeOptions reads optional liquidation options from the body and
// validates them. An empty body means defaults.
func (s *Server) decodeOptions(r *http.Request) (liquidation.Options, error) {
	var opts liquidation.Options
	if err := decodeBody(r, &opts); err != nil {
		return opts, err
	}
	if err := s.parser.ValidateOptions(&opts); err != nil {
		return opts, badRequest{err}
	}
	return opts, nil
}

func decodeBody(r *http.Request, dest any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return badRequest{err}
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func contentType(format string) string {
	switch format {
	case "csv":
		return "text/csv; charset=utf-8"
	case "html":
		return "text/html; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}
