package tokenclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"token-platform/shared/database"
	"token-platform/shared/interfaces"
	"token-platform/shared/models"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCache(t *testing.T) interfaces.TokenCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return database.NewRedisTokenCache(client, zap.NewNop())
}

// newTokenServer returns a token endpoint that counts fetches and issues
// sequentially numbered tokens.
func newTokenServer(t *testing.T, expiresIn int64, delay time.Duration) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if delay > 0 {
			time.Sleep(delay)
		}
		user, pass, ok := r.BasicAuth()
		require.True(t, ok, "token endpoint expects basic auth")
		require.Equal(t, "svc-a", user)
		require.Equal(t, "s3cret", pass)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "client_credentials", r.PostFormValue("grant_type"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok-" + string(rune('0'+n)),
			"token_type":   "Bearer",
			"expires_in":   expiresIn,
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestClient(t *testing.T, cache interfaces.TokenCache, tokenURL string) *Client {
	t.Helper()
	c := New(Config{
		ClientID:        "svc-a",
		ClientSecret:    "s3cret",
		TokenURL:        tokenURL,
		Scope:           "internal",
		DefaultCacheTTL: 540 * time.Second,
		RefreshAhead:    60 * time.Second,
	}, cache, zap.NewNop())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		c.Shutdown(ctx)
	})
	return c
}

func TestCacheKeyLayout(t *testing.T) {
	// The layout is shared by every service instance and must stay stable.
	assert.Equal(t, "internal:token:svc-a:internal:billing", cacheKey("svc-a", "internal", "billing"))
	assert.Equal(t, "internal:token:svc-a::", cacheKey("svc-a", "", ""))
}

func TestCacheTTL(t *testing.T) {
	cases := []struct {
		name         string
		expiresIn    time.Duration
		defaultTTL   time.Duration
		refreshAhead time.Duration
		want         time.Duration
	}{
		{"long lived token capped by default", 3600 * time.Second, 540 * time.Second, 60 * time.Second, 540 * time.Second},
		{"lifetime minus refresh ahead wins", 300 * time.Second, 540 * time.Second, 60 * time.Second, 240 * time.Second},
		{"no expiry reported uses default", 0, 540 * time.Second, 60 * time.Second, 540 * time.Second},
		{"short lived token cached for half its lifetime", 90 * time.Second, 540 * time.Second, 60 * time.Second, 45 * time.Second},
		{"very short token hits the floor", 8 * time.Second, 540 * time.Second, 60 * time.Second, 5 * time.Second},
		{"result inside refresh window falls back to half", 100 * time.Second, 540 * time.Second, 60 * time.Second, 50 * time.Second},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, cacheTTL(tc.expiresIn, tc.defaultTTL, tc.refreshAhead))
		})
	}
}

func TestGetToken_CacheHitSkipsNetwork(t *testing.T) {
	cache := newTestCache(t)
	srv, calls := newTokenServer(t, 3600, 0)
	client := newTestClient(t, cache, srv.URL)

	ctx := context.Background()
	key := cacheKey("svc-a", "internal", "")
	require.NoError(t, cache.Set(ctx, key, "cached-token", 300*time.Second))

	token, err := client.GetToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "cached-token", token)
	assert.EqualValues(t, 0, calls.Load(), "a fresh cache hit must not touch the network")
}

func TestGetToken_MissFetchesAndCaches(t *testing.T) {
	cache := newTestCache(t)
	srv, calls := newTokenServer(t, 3600, 0)
	client := newTestClient(t, cache, srv.URL)

	ctx := context.Background()
	token, err := client.GetToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
	assert.EqualValues(t, 1, calls.Load())

	// The second call is served from the cache.
	token, err = client.GetToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
	assert.EqualValues(t, 1, calls.Load())
}

func TestGetToken_SingleFlight(t *testing.T) {
	cache := newTestCache(t)
	srv, calls := newTokenServer(t, 3600, 50*time.Millisecond)
	client := newTestClient(t, cache, srv.URL)

	ctx := context.Background()
	const goroutines = 10
	tokens := make([]string, goroutines)
	errs := make([]error, goroutines)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = client.GetToken(ctx)
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, calls.Load(), "concurrent misses for one key must collapse into a single fetch")
	for i := 0; i < goroutines; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "tok-1", tokens[i])
	}
}

func TestGetToken_RefreshAheadServesStale(t *testing.T) {
	cache := newTestCache(t)
	srv, calls := newTokenServer(t, 3600, 0)
	client := newTestClient(t, cache, srv.URL)

	ctx := context.Background()
	key := cacheKey("svc-a", "internal", "")
	// Remaining TTL inside the refresh-ahead window.
	require.NoError(t, cache.Set(ctx, key, "stale-token", 30*time.Second))

	token, err := client.GetToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "stale-token", token, "the caller inside the window gets the stale value without blocking")

	// The background refresh replaces the cached value.
	require.Eventually(t, func() bool {
		return calls.Load() == 1
	}, 2*time.Second, 10*time.Millisecond, "a background refresh should have been scheduled")
	require.Eventually(t, func() bool {
		value, _, err := cache.GetWithTTL(ctx, key)
		return err == nil && value == "tok-1"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestGetToken_ServerErrorSurfaced(t *testing.T) {
	cache := newTestCache(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_client"}`, http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)
	client := newTestClient(t, cache, srv.URL)

	_, err := client.GetToken(context.Background())
	require.Error(t, err)

	var acqErr *models.TokenAcquisitionError
	require.ErrorAs(t, err, &acqErr)
	assert.Equal(t, http.StatusUnauthorized, acqErr.Status)
	assert.Contains(t, acqErr.Body, "invalid_client")
}

func TestGetToken_MissingAccessToken(t *testing.T) {
	cache := newTestCache(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"token_type":"Bearer","expires_in":3600}`))
	}))
	t.Cleanup(srv.Close)
	client := newTestClient(t, cache, srv.URL)

	_, err := client.GetToken(context.Background())
	require.Error(t, err)
	var acqErr *models.TokenAcquisitionError
	require.ErrorAs(t, err, &acqErr)
}

func TestGetToken_BlankCredentials(t *testing.T) {
	cache := newTestCache(t)
	client := New(Config{
		ClientID: "svc-a",
		TokenURL: "http://localhost:0/token",
	}, cache, zap.NewNop())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		client.Shutdown(ctx)
	})

	_, err := client.GetToken(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrConfiguration), "blank secret must fail as a configuration error, not a network error")
}

func TestGetTokenFor_DistinctKeysPerScope(t *testing.T) {
	cache := newTestCache(t)
	srv, calls := newTokenServer(t, 3600, 0)
	client := newTestClient(t, cache, srv.URL)

	ctx := context.Background()
	_, err := client.GetTokenFor(ctx, "internal", "")
	require.NoError(t, err)
	_, err = client.GetTokenFor(ctx, "reporting", "billing")
	require.NoError(t, err)

	assert.EqualValues(t, 2, calls.Load(), "distinct scope and audience pairs are cached independently")
}
