package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estoreapp/estore-cli/internal/money"
)

// newTestClient points an HTTPClient at a test server.
func newTestClient(t *testing.T, handler http.Handler) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewHTTPClient(Options{BaseURL: srv.URL})
	require.NoError(t, err)
	return client
}

// handleFunc registers h for a method-qualified pattern like "GET /path"
// on ServeMux versions that predate method patterns (Go 1.21).
func handleFunc(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	method, path, ok := strings.Cut(pattern, " ")
	if !ok {
		mux.HandleFunc(pattern, h)
		return
	}
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			http.NotFound(w, r)
			return
		}
		h(w, r)
	})
}

func writeEnvelope(w http.ResponseWriter, success bool, data any, message string) {
	_ = json.NewEncoder(w).Encode(map[string]any{
		"code":    200,
		"message": message,
		"success": success,
		"data":    data,
	})
}

func TestLogin(t *testing.T) {
	t.Run("StoresToken", func(t *testing.T) {
		var sawAuth string
		mux := http.NewServeMux()
		handleFunc(mux, "POST /api/login", func(w http.ResponseWriter, r *http.Request) {
			var req LoginRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "alice", req.Username)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"code": 200, "success": true, "token": "tok-1",
			})
		})
		handleFunc(mux, "GET /api/me", func(w http.ResponseWriter, r *http.Request) {
			sawAuth = r.Header.Get("Authorization")
			writeEnvelope(w, true, User{ID: 1, Username: "alice"}, "")
		})

		client := newTestClient(t, mux)
		require.NoError(t, client.Login(context.Background(), LoginRequest{Username: "alice", Password: "pw"}))

		user, err := client.GetMe(context.Background())
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, "Bearer tok-1", sawAuth)
	})

	t.Run("FailureCarriesMessage", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeEnvelope(w, false, nil, "bad credentials")
		}))

		err := client.Login(context.Background(), LoginRequest{Username: "alice", Password: "nope"})
		var appErr *ApplicationError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "bad credentials", appErr.Message)
	})

	t.Run("UnreachableBackendIsTransportError", func(t *testing.T) {
		client, err := NewHTTPClient(Options{BaseURL: "http://127.0.0.1:1"})
		require.NoError(t, err)

		loginErr := client.Login(context.Background(), LoginRequest{Username: "a", Password: "b"})
		assert.True(t, IsTransport(loginErr))
	})
}

func TestGetMe(t *testing.T) {
	t.Run("NullDataMeansAnonymous", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeEnvelope(w, true, nil, "")
		}))

		user, err := client.GetMe(context.Background())
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("FailurePropagates", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeEnvelope(w, false, nil, "token expired")
		}))

		_, err := client.GetMe(context.Background())
		require.Error(t, err)
		assert.True(t, IsUnauthorized(err))
	})
}

func TestSearchProducts(t *testing.T) {
	t.Run("TrimsKeyword", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "phone", r.URL.Query().Get("keyword"))
			writeEnvelope(w, true, []Product{{ID: 1, Name: "phone", Price: 1999}}, "")
		}))

		products, err := client.SearchProducts(context.Background(), "  phone  ")
		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, money.Amount(1999), products[0].Price)
	})

	t.Run("EmptyKeywordOmitsParam", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.False(t, r.URL.Query().Has("keyword"))
			writeEnvelope(w, true, nil, "")
		}))

		products, err := client.SearchProducts(context.Background(), "   ")
		require.NoError(t, err)
		assert.NotNil(t, products)
		assert.Empty(t, products)
	})
}

func TestProductCalls(t *testing.T) {
	t.Run("GetProductRequiresData", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeEnvelope(w, true, nil, "")
		}))

		_, err := client.GetProduct(context.Background(), 7)
		var appErr *ApplicationError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "server returned no data", appErr.Message)
	})

	t.Run("CreateReturnsEntity", func(t *testing.T) {
		mux := http.NewServeMux()
		handleFunc(mux, "POST /api/product", func(w http.ResponseWriter, r *http.Request) {
			var payload ProductPayload
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			// Price travels as an integer in minor units.
			assert.Equal(t, money.Amount(1999), payload.Price)
			writeEnvelope(w, true, Product{ID: 9, Name: payload.Name, Price: payload.Price}, "")
		})

		client := newTestClient(t, mux)
		created, err := client.CreateProduct(context.Background(), ProductPayload{Name: "lamp", Price: 1999})
		require.NoError(t, err)
		assert.Equal(t, uint(9), created.ID)
	})

	t.Run("DeleteUsesPathID", func(t *testing.T) {
		mux := http.NewServeMux()
		handleFunc(mux, "DELETE /api/product/7", func(w http.ResponseWriter, _ *http.Request) {
			writeEnvelope(w, true, nil, "")
		})

		client := newTestClient(t, mux)
		assert.NoError(t, client.DeleteProduct(context.Background(), 7))
	})
}

func TestFileTokenStore(t *testing.T) {
	path := t.TempDir() + "/session"
	store := NewFileTokenStore(path)

	token, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, store.Save("tok-9"))
	token, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok-9", token)

	require.NoError(t, store.Clear())
	token, err = store.Load()
	require.NoError(t, err)
	assert.Empty(t, token)

	// Clearing twice is fine.
	assert.NoError(t, store.Clear())
}
