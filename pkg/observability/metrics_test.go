package observability_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ids"
	"github.com/aretw0/arbor/pkg/observability"
	"github.com/aretw0/arbor/pkg/record"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_CountsMutations(t *testing.T) {
	m := observability.NewMetrics(prometheus.NewRegistry())
	f := record.New(domain.NewRecord(1, domain.TypeScene),
		record.WithGenerator(ids.NewSequence(10)),
		record.WithLifecycleHooks(m.Hooks()),
	)

	el, err := f.CreateRecord(domain.TypeElement, nil)
	require.NoError(t, err)
	_, err = f.DuplicateRecord(domain.TypeElement, el.ID)
	require.NoError(t, err)
	_, err = f.DeleteRecord(domain.TypeElement, el.ID)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Mutations.WithLabelValues("add", "element")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Mutations.WithLabelValues("duplicate", "element")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Mutations.WithLabelValues("delete", "element")))
}

func TestChain_LoggingAndMetrics(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	m := observability.NewMetrics(nil)

	hooks := observability.Chain(observability.LoggingHooks(logger), m.Hooks())
	hooks.Emit(&domain.MutationEvent{Op: domain.OpChangeID, Type: domain.TypeWhenEvent, ID: 5, PrevID: 3, Parent: domain.TypeRule, ParentID: 1})

	assert.Contains(t, buf.String(), "record_mutation")
	assert.Contains(t, buf.String(), "prev_id=3")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Mutations.WithLabelValues("change_id", "when_event")))
}

func TestMetrics_HandlerAndMiddleware(t *testing.T) {
	m := observability.NewMetrics(nil)

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/documents/{doc}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Handle("/metrics", m.Handler())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/documents/abc", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `route="/documents/{doc}"`), body)
	assert.Contains(t, body, `status="404"`)
}
