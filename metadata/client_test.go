package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newTestAPI(t *testing.T, totalPages int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var listCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/titles", func(w http.ResponseWriter, r *http.Request) {
		listCalls.Add(1)
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))
		assert.Equal(t, "GB", r.URL.Query().Get("country"))

		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		resp := listResponse{Page: page, TotalPages: totalPages}
		for i := 0; i < 2; i++ {
			id := fmt.Sprintf("%d%d", page, i)
			resp.Results = append(resp.Results, TitleSummary{ID: id, Title: "Title " + id, Type: "movie"})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("/titles/", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Path[len("/titles/"):]
		if id == "missing" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"title not found"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(TitleDetail{
			ID:               id,
			Title:            "Title " + id,
			Year:             2020,
			MaturityRating:   "TV-MA",
			Genres:           []string{"Drama"},
			Type:             "series",
			OriginalLanguage: "pt",
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &listCalls
}

func newTestClient(t *testing.T, baseURL string, maxPages int) *Client {
	t.Helper()
	c, err := NewClient(Config{
		BaseURL:   baseURL + "/",
		APIKey:    "secret",
		Country:   "GB",
		MaxPages:  maxPages,
		RateLimit: 1000,
		Burst:     10,
	})
	require.NoError(t, err)
	return c
}

func TestListAllWalksPages(t *testing.T) {
	srv, calls := newTestAPI(t, 3)
	c := newTestClient(t, srv.URL, 10)

	titles, err := c.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, titles, 6)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, "10", titles[0].ID)
	assert.Equal(t, "31", titles[5].ID)
}

func TestListAllRespectsPageCap(t *testing.T) {
	srv, calls := newTestAPI(t, 50)
	c := newTestClient(t, srv.URL, 2)

	titles, err := c.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, titles, 4)
	assert.Equal(t, int32(2), calls.Load())
}

func TestListAllFailsOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL, 5)

	_, err := c.ListAll(context.Background())
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
}

func TestDetail(t *testing.T) {
	srv, _ := newTestAPI(t, 1)
	c := newTestClient(t, srv.URL, 1)

	d, err := c.Detail(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "42", d.ID)
	assert.Equal(t, "TV-MA", d.MaturityRating)
	assert.Equal(t, []string{"Drama"}, d.Genres)

	_, err = c.Detail(context.Background(), "missing")
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Contains(t, err.Error(), "title not found")
}

func TestDetailBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL, 1)

	_, err := c.Detail(context.Background(), "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal")
}

func TestCancelledContext(t *testing.T) {
	srv, _ := newTestAPI(t, 1)
	c := newTestClient(t, srv.URL, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.ListAll(ctx)
	require.Error(t, err)
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient(Config{})
	require.Error(t, err)
}

func TestNewClientRateLimit(t *testing.T) {
	c, err := NewClient(Config{BaseURL: "http://meta.local", RateLimit: 0})
	require.NoError(t, err)
	assert.Equal(t, rate.Inf, c.limiter.Limit())

	c, err = NewClient(Config{BaseURL: "http://meta.local", RateLimit: 2.5, Burst: 3})
	require.NoError(t, err)
	assert.Equal(t, rate.Limit(2.5), c.limiter.Limit())
	assert.Equal(t, 3, c.limiter.Burst())
}
