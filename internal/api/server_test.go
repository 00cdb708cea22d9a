package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rgehrsitz/mesada/internal/calculation"
	"github.com/rgehrsitz/mesada/internal/compare"
	"github.com/rgehrsitz/mesada/internal/domain"
	"github.com/rgehrsitz/mesada/internal/indices"
	"github.com/rgehrsitz/mesada/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestServer(t *testing.T, cfg Config) (*Server, *store.FileStore) {
	t.Helper()
	table, err := indices.Default()
	require.NoError(t, err)

	fs := store.NewFileStore(t.TempDir())
	ctx := context.Background()
	require.NoError(t, fs.PutCase(ctx, &domain.Case{
		Pensioner:  domain.Pensioner{ID: "p-1", DocumentNumber: "123", EmployeeName: "Ana Pérez"},
		Historical: []domain.HistoricalPayment{{Year: 2003, ValueBefore: "1.000.000,00"}},
	}))
	require.NoError(t, fs.PutCase(ctx, &domain.Case{
		Pensioner: domain.Pensioner{ID: "p-2", DocumentNumber: "456"},
		Sharing: []domain.SharingRecord{{
			EffectiveFrom:      time.Date(2010, 3, 1, 0, 0, 0, 0, time.UTC),
			SharingType:        domain.SharingTypeISS,
			EmployerShareValue: decimal.NewFromInt(100_000),
			ISSShareValue:      decimal.NewFromInt(400_000),
		}},
	}))

	return NewServer(fs, calculation.NewEngine(table), nil, cfg), fs
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t, Config{})
	rec := do(t, s.Handler(), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestListIndices(t *testing.T) {
	s, _ := newTestServer(t, Config{})
	rec := do(t, s.Handler(), http.MethodGet, "/v1/indices", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp indicesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, s.engine.Table.FirstYear(), resp.FirstYear)
	assert.Equal(t, s.engine.Table.LastYear(), resp.LastYear)
	assert.Len(t, resp.Years, resp.LastYear-resp.FirstYear+1)
}

func TestListVariants(t *testing.T) {
	s, _ := newTestServer(t, Config{})
	rec := do(t, s.Handler(), http.MethodGet, "/v1/variantes", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []variantResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	names := make([]string, len(resp))
	for i, v := range resp {
		names[i] = v.Name
	}
	assert.Equal(t, []string{"certificado", "evolucion", "serp", "simulador"}, names)
}

func TestLiquidate(t *testing.T) {
	s, _ := newTestServer(t, Config{})
	rec := do(t, s.Handler(), http.MethodPost, "/v1/pensionados/p-1/liquidaciones/evolucion", `{"endYear":2004}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var result domain.Liquidation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "evolucion", result.Variant)
	assert.Equal(t, 2003, result.Summary.StartYear)
	assert.True(t, result.Summary.TotalGeneralRetroactivo.Equal(decimal.NewFromInt(187_600)),
		"got %s", result.Summary.TotalGeneralRetroactivo)
}

func TestLiquidate_EmptyBodyUsesDefaults(t *testing.T) {
	s, _ := newTestServer(t, Config{})
	rec := do(t, s.Handler(), http.MethodPost, "/v1/pensionados/p-1/liquidaciones/evolucion-mesada", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result domain.Liquidation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, s.engine.Table.LastYear(), result.Summary.EndYear)
}

func TestLiquidate_Formats(t *testing.T) {
	s, _ := newTestServer(t, Config{})

	rec := do(t, s.Handler(), http.MethodPost, "/v1/pensionados/p-1/liquidaciones/evolucion?format=csv", `{"endYear":2004}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Section,Period"))

	rec = do(t, s.Handler(), http.MethodPost, "/v1/pensionados/p-1/liquidaciones/evolucion?format=table", `{"endYear":2004}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "187.600,00")

	rec = do(t, s.Handler(), http.MethodPost, "/v1/pensionados/p-1/liquidaciones/evolucion?format=pdf", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLiquidate_ErrorMapping(t *testing.T) {
	s, _ := newTestServer(t, Config{})

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"unknown pensioner", "/v1/pensionados/nobody/liquidaciones/evolucion", "", http.StatusNotFound},
		{"unknown variant", "/v1/pensionados/p-1/liquidaciones/otra", "", http.StatusNotFound},
		{"malformed body", "/v1/pensionados/p-1/liquidaciones/evolucion", `{"endYear":`, http.StatusBadRequest},
		{"unknown field", "/v1/pensionados/p-1/liquidaciones/evolucion", `{"colour":"red"}`, http.StatusBadRequest},
		{"invalid selector", "/v1/pensionados/p-1/liquidaciones/evolucion", `{"selector":"gdp"}`, http.StatusBadRequest},
		{"years reversed", "/v1/pensionados/p-1/liquidaciones/evolucion", `{"startYear":2010,"endYear":2005}`, http.StatusBadRequest},
		{"no base mesada", "/v1/pensionados/p-2/liquidaciones/evolucion", "", http.StatusUnprocessableEntity},
		{"simulador without split", "/v1/pensionados/p-1/liquidaciones/simulador", "", http.StatusUnprocessableEntity},
		{"fixed split without bonus", "/v1/pensionados/p-1/liquidaciones/simulador",
			`{"endYear":2016,"includeBonus":false,"employerPct":"30","issPct":"70"}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s.Handler(), http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())

			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestCompareCase(t *testing.T) {
	s, _ := newTestServer(t, Config{})

	rec := do(t, s.Handler(), http.MethodPost, "/v1/pensionados/p-1/comparaciones", `{"endYear":2004}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var set compare.ComparisonSet
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &set))
	assert.Equal(t, "evolucion_smlmv", set.BaseScenarioName)
	require.NotNil(t, set.BaseResult)
	assert.True(t, set.BaseResult.TotalRetroactive.Equal(decimal.NewFromInt(187_600)))
	require.Len(t, set.AlternativeResults, 2)

	rec = do(t, s.Handler(), http.MethodPost, "/v1/pensionados/p-1/comparaciones?by=variant&variants=evolucion,serp", `{"endYear":2004}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &set))
	assert.Equal(t, "evolucion", set.BaseScenarioName)
	require.Len(t, set.AlternativeResults, 1)
	assert.Equal(t, "serp", set.AlternativeResults[0].Variant)

	rec = do(t, s.Handler(), http.MethodPost, "/v1/pensionados/p-1/comparaciones?by=variant&variants=nope", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s.Handler(), http.MethodPost, "/v1/pensionados/p-1/comparaciones?by=year", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetAndPutCase(t *testing.T) {
	s, _ := newTestServer(t, Config{})
	h := s.Handler()

	rec := do(t, h, http.MethodGet, "/v1/pensionados/p-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var c domain.Case
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	assert.Equal(t, "123", c.Pensioner.DocumentNumber)
	require.Len(t, c.Historical, 1)

	body := `{"pensioner":{"documentNumber":"789","employeeName":"Luis"},"historical":[{"year":2005,"valueBefore":"900.000"}]}`
	rec = do(t, h, http.MethodPut, "/v1/pensionados/p-3", body)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/v1/pensionados/p-3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	assert.Equal(t, "p-3", c.Pensioner.ID)
	assert.Equal(t, "789", c.Pensioner.DocumentNumber)

	rec = do(t, h, http.MethodPut, "/v1/pensionados/p-4", `{"pensioner":{"id":"p-5","documentNumber":"1"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPut, "/v1/pensionados/p-4", `{"pensioner":{"documentNumber":"1"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "case without records fails validation")

	rec = do(t, h, http.MethodGet, "/v1/pensionados/nobody", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type readOnlyStore struct{ store.Store }

func TestPutCase_ReadOnlyStore(t *testing.T) {
	_, fs := newTestServer(t, Config{})
	table, err := indices.Default()
	require.NoError(t, err)
	s := NewServer(readOnlyStore{fs}, calculation.NewEngine(table), nil, Config{})

	rec := do(t, s.Handler(), http.MethodPut, "/v1/pensionados/p-9", `{}`)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestRateLimit(t *testing.T) {
	s, _ := newTestServer(t, Config{RateLimit: 2, RateWindow: time.Minute})
	h := s.Handler()

	for i := 0; i < 2; i++ {
		rec := do(t, h, http.MethodGet, "/v1/pensionados/p-1", "")
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := do(t, h, http.MethodGet, "/v1/pensionados/p-1", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code, "operational endpoints are not limited")
}

func TestSecurityHeaders(t *testing.T) {
	s, _ := newTestServer(t, Config{})
	rec := do(t, s.Handler(), http.MethodGet, "/healthz", "")
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestMetrics(t *testing.T) {
	s, _ := newTestServer(t, Config{})
	h := s.Handler()

	do(t, h, http.MethodPost, "/v1/pensionados/p-1/liquidaciones/evolucion", `{"endYear":2004}`)
	do(t, h, http.MethodPost, "/v1/pensionados/p-1/liquidaciones/evolucion-mesada", `{"endYear":2004}`)
	do(t, h, http.MethodPost, "/v1/pensionados/p-2/liquidaciones/evolucion", "")
	do(t, h, http.MethodPost, "/v1/pensionados/p-1/comparaciones", `{"endYear":2004}`)

	m := s.Metrics()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.liquidations.WithLabelValues("evolucion", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.liquidations.WithLabelValues("evolucion", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.comparisons.WithLabelValues("selector", "success")))

	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "mesada_liquidations_total")
	assert.Contains(t, body, `route="/v1/pensionados/{id}/liquidaciones/{variant}"`)
}

func TestZapLoggerMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	handler := ZapLoggerMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/boom":
			w.WriteHeader(http.StatusInternalServerError)
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
		default:
			_, _ = w.Write([]byte("ok"))
		}
	}))

	for _, path := range []string{"/ok", "/missing", "/boom"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, int64(200), entries[0].ContextMap()["status"])
	assert.Equal(t, "/boom", entries[2].ContextMap()["path"])
}

func TestListenAndServe_Shutdown(t *testing.T) {
	s, _ := newTestServer(t, Config{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
