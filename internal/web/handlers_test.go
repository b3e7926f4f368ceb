package web_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coverdesk/internal/audit"
	"coverdesk/internal/authstate"
	"coverdesk/internal/dedupe"
	"coverdesk/internal/roles"
	"coverdesk/internal/session"
	"coverdesk/internal/token"
	"coverdesk/internal/upstream"
	"coverdesk/internal/web"
)

// fixture wires the whole surface against a fake insurance backend.
type fixture struct {
	router     http.Handler
	store      token.Store
	enumCalls  *atomic.Int64
	auditStore *audit.MemoryStore
}

func newFixture(t *testing.T, preset *authstate.Subject) *fixture {
	t.Helper()
	ctx := context.Background()

	var enumCalls atomic.Int64
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/auth/login":
			_, _ = w.Write([]byte(`{"token":"tok-1","id":"u-1","email":"agent@cover.desk","role":1}`))
		case r.URL.Path == "/reference/enums":
			enumCalls.Add(1)
			time.Sleep(20 * time.Millisecond)
			_, _ = w.Write([]byte(`{"policyType":[{"code":0,"name":"Term Life"}]}`))
		case r.URL.Path == "/dashboard":
			_, _ = w.Write([]byte(`{"counts":{"policies":2}}`))
		case r.URL.Path == "/products":
			_, _ = w.Write([]byte(`[{"id":"prod-1","name":"Term Life 20"}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"no such resource"}`))
		}
	}))
	t.Cleanup(backend.Close)

	store := token.NewMemoryStore()
	if preset != nil {
		require.NoError(t, store.Set(ctx, mintToken(t, preset.ID, preset.Email, preset.Role, time.Now().Add(time.Hour))))
	}

	api := upstream.New(backend.URL, store)
	container, err := authstate.New(ctx, store, session.NewDecoder(), upstream.NewExchangeAdapter(api))
	require.NoError(t, err)

	auditStore := audit.NewMemoryStore(64)
	h := web.NewHandler(container, api, dedupe.New(), auditStore, slog.Default())
	return &fixture{
		router:     web.NewRouter(h, container, slog.Default()),
		store:      store,
		enumCalls:  &enumCalls,
		auditStore: auditStore,
	}
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestLoginFlow(t *testing.T) {
	f := newFixture(t, nil)

	// Anonymous callers are kept off the authenticated surface.
	rec := f.do(http.MethodGet, "/session", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(http.MethodPost, "/login", `{"email":"agent@cover.desk","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"role":"Agent"`)

	// The credential landed in the store.
	cred, err := f.store.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", cred)

	rec = f.do(http.MethodGet, "/session", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"authenticated":true`)
}

func TestLoginRejectsEmptyCredentials(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(http.MethodPost, "/login", `{"email":"","password":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogoutEndsSession(t *testing.T) {
	f := newFixture(t, &authstate.Subject{ID: "u-1", Email: "a@b.com", Role: roles.Customer})

	rec := f.do(http.MethodPost, "/logout", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(http.MethodGet, "/session", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	cred, err := f.store.Get(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cred)
}

func TestEnumsSecondCallIsSuppressed(t *testing.T) {
	f := newFixture(t, &authstate.Subject{ID: "u-1", Email: "a@b.com", Role: roles.Customer})

	rec := f.do(http.MethodGet, "/enums", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Term Life")

	// Inside the freshness window the producer is not re-invoked and the
	// caller is told nothing changed.
	rec = f.do(http.MethodGet, "/enums", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(1), f.enumCalls.Load())
}

func TestConcurrentEnumFetchesShareOneCall(t *testing.T) {
	f := newFixture(t, &authstate.Subject{ID: "u-1", Email: "a@b.com", Role: roles.Customer})

	var wg sync.WaitGroup
	codes := make([]int, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = f.do(http.MethodGet, "/enums", "").Code
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), f.enumCalls.Load())
	for _, code := range codes {
		assert.Contains(t, []int{http.StatusOK, http.StatusNoContent}, code)
	}
}

func TestDashboardAggregates(t *testing.T) {
	f := newFixture(t, &authstate.Subject{ID: "u-1", Email: "a@b.com", Role: roles.Customer})

	rec := f.do(http.MethodGet, "/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"policies":2`)
	assert.Contains(t, rec.Body.String(), "Term Life")
}

func TestRoleGateOnDecisionRoutes(t *testing.T) {
	f := newFixture(t, &authstate.Subject{ID: "u-1", Email: "a@b.com", Role: roles.Customer})

	rec := f.do(http.MethodGet, "/claims/pending", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminAuditTrail(t *testing.T) {
	f := newFixture(t, &authstate.Subject{ID: "u-9", Email: "admin@cover.desk", Role: roles.Admin})

	require.NoError(t, f.auditStore.Append(context.Background(), audit.Event{
		Time:   time.Now(),
		Action: audit.ActionLogin,
		Email:  "agent@cover.desk",
	}))

	rec := f.do(http.MethodGet, "/admin/audit", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "agent@cover.desk")
}

func TestUpstreamErrorsPassThrough(t *testing.T) {
	f := newFixture(t, &authstate.Subject{ID: "u-1", Email: "a@b.com", Role: roles.Customer})

	rec := f.do(http.MethodGet, "/policies/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "no such resource")
}
