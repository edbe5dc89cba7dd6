package router

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/beatmarket-backend/internal/config"
	"github.com/ignatzorin/beatmarket-backend/internal/http/handlers"
	"github.com/ignatzorin/beatmarket-backend/internal/infrastructure/persistence/memory"
	"github.com/ignatzorin/beatmarket-backend/internal/logger"
	"github.com/ignatzorin/beatmarket-backend/internal/metrics"
	"github.com/ignatzorin/beatmarket-backend/internal/service"
	"github.com/ignatzorin/beatmarket-backend/internal/storage"
	"github.com/ignatzorin/beatmarket-backend/internal/usecase/account"
	"github.com/ignatzorin/beatmarket-backend/internal/usecase/dispute"
	"github.com/ignatzorin/beatmarket-backend/internal/usecase/escrow"
	"github.com/ignatzorin/beatmarket-backend/internal/usecase/verification"
	"github.com/ignatzorin/beatmarket-backend/internal/ws"
)

type okDB struct{}

func (okDB) PingContext(context.Context) error { return nil }
func (okDB) Stats() sql.DBStats               { return sql.DBStats{} }

func newTestRouter(t *testing.T) (*gin.Engine, *service.TokenManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	tokens := service.NewTokenManager("access", "refresh", time.Minute, time.Hour)
	documents, err := storage.NewEvidenceStorage(t.TempDir(), 1)
	require.NoError(t, err)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	log := logger.Discard()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := ws.NewHub(ctx, log)

	escrowDeps := escrow.Deps{Accounts: store.Accounts(), Escrows: store.Escrows(), Disputes: store.Disputes(), Metrics: m, Log: log}
	verificationDeps := verification.Deps{
		Accounts: store.Accounts(), Requests: store.Requests(), Audits: store.Audits(),
		Tx: store.Transactor(), Metrics: m, Log: log,
	}

	cfg := &config.Config{Env: "test", RateLimitLimit: 2, RateLimitPeriod: time.Minute}
	r := SetupRouter(Options{
		Config: cfg,
		Handlers: Handlers{
			Auth: handlers.NewAuthHandler(account.Deps{
				Accounts: store.Accounts(), Requests: store.Requests(), Escrows: store.Escrows(),
				Tx: store.Transactor(), Tokens: tokens, Log: log, BcryptCost: 4,
			}),
			Verification: handlers.NewVerificationHandler(verificationDeps, documents),
			Escrow:       handlers.NewEscrowHandler(escrowDeps),
			Dispute: handlers.NewDisputeHandler(dispute.Deps{
				Disputes: store.Disputes(), Escrows: store.Escrows(), Accounts: store.Accounts(),
				Escrow: escrow.NewTransitionEscrowUseCase(escrowDeps), Metrics: m, Log: log,
			}),
			Admin:  handlers.NewAdminHandler(verificationDeps, documents),
			Health: handlers.NewHealthHandler(okDB{}),
			WS:     handlers.NewWSHandler(hub, tokens, nil, log),
		},
		Tokens:         tokens,
		Metrics:        m,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Log:            log,
	})
	return r, tokens
}

func serve(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.RemoteAddr = "192.0.2.1:5555"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_PublicEndpoints(t *testing.T) {
	r, _ := newTestRouter(t)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/health", "").Code)

	w := serve(r, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "beatmarket_http_request_duration_seconds")

	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/api/accounts/"+uuid.NewString()+"/verification", "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodGet, "/api/accounts/abc/verification", "").Code)
}

func TestRouter_ProtectedRequireToken(t *testing.T) {
	r, _ := newTestRouter(t)

	for _, path := range []string{"/api/escrow", "/api/disputes"} {
		assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, path, "").Code, path)
	}
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodDelete, "/api/account", "").Code)
}

func TestRouter_AdminRequiresAdminRole(t *testing.T) {
	r, tokens := newTestRouter(t)

	producer, err := tokens.GeneratePair(uuid.New(), "producer")
	require.NoError(t, err)
	admin, err := tokens.GeneratePair(uuid.New(), "admin")
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/api/admin/disputes", producer.AccessToken).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/api/admin/disputes", admin.AccessToken).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/api/admin/verification/pro-requests?status=pending", admin.AccessToken).Code)
}

func TestRouter_AuthIsRateLimited(t *testing.T) {
	r, _ := newTestRouter(t)

	var last int
	for i := 0; i < 3; i++ {
		last = serve(r, http.MethodPost, "/api/auth/login", "").Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}
