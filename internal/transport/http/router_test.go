package httptransport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accueil/internal/platform/metrics"
	reghandler "accueil/internal/registration/handler"
	"accueil/internal/registration/models"
	regservice "accueil/internal/registration/service"
	"accueil/internal/registration/store"
	"accueil/pkg/platform/middleware/auth"
	"accueil/pkg/platform/middleware/request"
	"accueil/pkg/testutil"
)

type fixture struct {
	router   http.Handler
	verifier *auth.Verifier
	registry *prometheus.Registry
}

func newFixture(t *testing.T, withAuth bool, checks map[string]HealthCheck) fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()

	svc := regservice.New(store.NewInMemory(), regservice.WithLogger(logger))
	deps := Deps{
		Logger:         logger,
		Observer:       metrics.NewWith(reg),
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Checks:         checks,
		Handlers:       []Registrar{reghandler.New(svc, logger)},
	}
	var verifier *auth.Verifier
	if withAuth {
		verifier = auth.NewVerifier("router-test-secret")
		deps.Verifier = verifier
	}
	return fixture{router: NewRouter(deps), verifier: verifier, registry: reg}
}

func TestHealthAndRequestID(t *testing.T) {
	f := newFixture(t, true, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(request.HeaderRequestID, "req-42")
	rec := testutil.DoRequest(f.router, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-42", rec.Header().Get(request.HeaderRequestID))

	rec = testutil.DoRequest(f.router, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.NotEmpty(t, rec.Header().Get(request.HeaderRequestID))
}

func TestReadiness(t *testing.T) {
	f := newFixture(t, false, map[string]HealthCheck{
		"store": func(context.Context) error { return nil },
		"redis": func(context.Context) error { return errors.New("connection refused") },
	})

	rec := testutil.DoRequest(f.router, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	body := testutil.UnmarshalResponse[map[string]string](t, rec)
	assert.Equal(t, map[string]string{"store": "ok", "redis": "unavailable"}, *body)
}

func TestAPIRequiresBearerWhenConfigured(t *testing.T) {
	f := newFixture(t, true, nil)

	rec := testutil.DoRequest(f.router, httptest.NewRequest(http.MethodGet, "/registrations", nil))
	testutil.AssertStatusAndError(t, rec, http.StatusUnauthorized, "unauthorized")

	token, err := f.verifier.Sign("welcome-desk", time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/registrations", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = testutil.DoRequest(f.router, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegistrationRoundTripAndMetrics(t *testing.T) {
	f := newFixture(t, false, nil)

	body := `{"Nom":"Dupont","Prénom":"Marie","Baptise_par_Immersion":"oui"}`
	rec := testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodPost, "/registrations", body))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := testutil.UnmarshalResponse[reghandler.RecordResponse](t, rec)
	require.NotEmpty(t, created.ID)

	rec = testutil.DoRequest(f.router, httptest.NewRequest(http.MethodGet, "/registrations/"+created.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	got := testutil.UnmarshalResponse[reghandler.RecordResponse](t, rec)
	assert.Equal(t, "Dupont", got.Fields[models.LabelLastName])
	assert.Equal(t, models.BadgeBaptized, got.Badge)

	rec = testutil.DoRequest(f.router, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `accueil_http_requests_total{method="POST",route="/registrations",status="201"} 1`)
	assert.Contains(t, rec.Body.String(), `route="/registrations/{id}"`)
}

func TestPanicsBecomeInternalError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := NewRouter(Deps{Logger: logger, Handlers: []Registrar{panicky{}}})

	rec := testutil.DoRequest(router, httptest.NewRequest(http.MethodGet, "/boom", nil))
	testutil.AssertStatusAndError(t, rec, http.StatusInternalServerError, "internal_error")
}

type panicky struct{}

func (panicky) Register(r chi.Router) {
	r.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("kaboom") })
}
