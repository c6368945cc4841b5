package pricing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTequilaClient_CheapestQuote(t *testing.T) {
	var gotQuery map[string]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{
			"fly_from": q.Get("fly_from"),
			"fly_to":   q.Get("fly_to"),
			"curr":     q.Get("curr"),
			"sort":     q.Get("sort"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"price":480.5,"currency":"USD","deep_link":"https://book/1"},{"price":512,"currency":"USD"}]}`))
	}))
	defer ts.Close()

	c := NewTequilaClient(ts.URL, "test-key", 2*time.Second)
	dep := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	q, err := c.FetchPrice(context.Background(), Route{
		Origin: "OSL", Destination: "JFK", Currency: "USD", DepartureDate: &dep,
	})
	require.NoError(t, err)
	assert.Equal(t, 480.5, q.Price)
	assert.Equal(t, "USD", q.Currency)
	assert.Equal(t, "https://book/1", q.BookingURL)
	assert.NotEmpty(t, q.RawPayload)

	assert.Equal(t, "OSL", gotQuery["fly_from"])
	assert.Equal(t, "JFK", gotQuery["fly_to"])
	assert.Equal(t, "USD", gotQuery["curr"])
	assert.Equal(t, "price", gotQuery["sort"])
}

func TestTequilaClient_ErrorKinds(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		kind   FetchKind
	}{
		{"rate limited", http.StatusTooManyRequests, `{}`, FetchRateLimited},
		{"bad route", http.StatusBadRequest, `{"error":"unknown airport"}`, FetchPermanent},
		{"server error", http.StatusBadGateway, ``, FetchTransport},
		{"no itineraries", http.StatusOK, `{"data":[]}`, FetchNoResult},
		{"garbage body", http.StatusOK, `{{{`, FetchTransport},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer ts.Close()

			c := NewTequilaClient(ts.URL, "", 2*time.Second)
			_, err := c.FetchPrice(context.Background(), Route{Origin: "OSL", Destination: "JFK"})
			require.Error(t, err)
			var fe *FetchError
			require.True(t, errors.As(err, &fe), "want *FetchError, got %T", err)
			assert.Equal(t, tc.kind, fe.Kind)
		})
	}
}

func TestTequilaClient_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"data":[]}`))
	}))
	defer ts.Close()

	c := NewTequilaClient(ts.URL, "", 20*time.Millisecond)
	_, err := c.FetchPrice(context.Background(), Route{Origin: "OSL", Destination: "JFK"})
	require.Error(t, err)
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, FetchTimeout, fe.Kind)
	assert.True(t, fe.Transient())
}
