package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coverdesk/internal/roles"
	"coverdesk/internal/token"
	dErrors "coverdesk/pkg/domain-errors"
	"coverdesk/pkg/platform/circuit"
)

func TestLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/login", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"tok-abc","id":"u-1","email":"a@b.com","role":1}`))
	}))
	defer srv.Close()

	c := New(srv.URL, token.NewMemoryStore())
	resp, err := c.Login(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", resp.Token)
	assert.Equal(t, 1, resp.Role)
}

func TestExchangeAdapterNormalizesRole(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"token":"tok","id":"u-2","email":"x@y.com","role":3}`))
	}))
	defer srv.Close()

	adapter := NewExchangeAdapter(New(srv.URL, token.NewMemoryStore()))
	result, err := adapter.ExchangeCredentials(context.Background(), "x@y.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, roles.Underwriter, result.Role)
}

func TestErrorMessageFromPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid email or password"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, token.NewMemoryStore())
	_, err := c.Login(context.Background(), "a@b.com", "nope")
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeUnauthorized, dErrors.CodeOf(err))
	assert.Equal(t, "invalid email or password", dErrors.MessageOf(err))
}

func TestErrorMapFlattening(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"errors":{"sumAssured":"must be positive"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, token.NewMemoryStore())
	_, err := c.RequestQuote(context.Background(), QuoteRequest{})
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeBadRequest, dErrors.CodeOf(err))
	assert.Contains(t, dErrors.MessageOf(err), "sumAssured: must be positive")
}

func TestErrorWithoutBodyGetsFallbackMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL, token.NewMemoryStore())
	_, err := c.Policy(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err))
	assert.Equal(t, "request failed", dErrors.MessageOf(err))
}

func TestBearerInjection(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	ctx := context.Background()
	store := token.NewMemoryStore()
	c := New(srv.URL, store)

	// Cold store: no Authorization header.
	_, err := c.Policies(ctx)
	require.NoError(t, err)
	assert.Empty(t, gotAuth)

	require.NoError(t, store.Set(ctx, "tok-xyz"))
	_, err = c.Policies(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-xyz", gotAuth)
}

func TestTransportFailureIsUnavailable(t *testing.T) {
	c := New("http://127.0.0.1:1", token.NewMemoryStore())
	_, err := c.Enums(context.Background())
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeUnavailable, dErrors.CodeOf(err))
}

func TestCircuitOpensOnRepeatedTransportFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	srv.Close() // connection refused from here on

	breaker := circuit.New("upstream", circuit.WithFailureThreshold(2), circuit.WithProbeInterval(100))
	c := New(srv.URL, token.NewMemoryStore(), WithBreaker(breaker))

	ctx := context.Background()
	_, err := c.Enums(ctx)
	require.Error(t, err)
	_, err = c.Enums(ctx)
	require.Error(t, err)
	require.True(t, breaker.IsOpen())

	// Short-circuited calls still report unavailable.
	_, err = c.Enums(ctx)
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeUnavailable, dErrors.CodeOf(err))
}

func TestUploadDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "id_proof", r.FormValue("kind"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "passport.pdf", header.Filename)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"d-1","proposalId":"p-1","kind":"id_proof","fileName":"passport.pdf"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, token.NewMemoryStore())
	doc, err := c.UploadDocument(context.Background(), "p-1", "id_proof", "passport.pdf",
		strings.NewReader("%PDF-fake"))
	require.NoError(t, err)
	assert.Equal(t, "d-1", doc.ID)
}
