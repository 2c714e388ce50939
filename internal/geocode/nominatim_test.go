package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartapress/cartapress/internal/fault"
	"github.com/cartapress/cartapress/internal/logger"
	"github.com/cartapress/cartapress/internal/model"
)

func TestLookup_ParsesFirstResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Springfield", r.URL.Query().Get("city"))
		assert.Equal(t, "Testland", r.URL.Query().Get("country"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat":"40.0","lon":"-89.0","display_name":"Springfield, Testland"}]`))
	}))
	defer srv.Close()

	n := NewNominatim(srv.URL, "cartapress-test/1.0", srv.Client(), logger.Nop())
	coord, err := n.Lookup(context.Background(), model.LocationQuery{City: "Springfield", Country: "Testland"})
	require.NoError(t, err)
	assert.Equal(t, 40.0, coord.Lat)
	assert.Equal(t, -89.0, coord.Lon)
}

func TestLookup_EmptyResultIsLocationNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	n := NewNominatim(srv.URL, "cartapress-test/1.0", srv.Client(), logger.Nop())
	_, err := n.Lookup(context.Background(), model.LocationQuery{City: "Nowhere", Country: "Testland"})
	require.Error(t, err)
	assert.Equal(t, fault.LocationNotFound, fault.KindOf(err))
}

func TestLookup_RateLimitAndServerErrorsAreRetryable(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
		}))

		n := NewNominatim(srv.URL, "cartapress-test/1.0", srv.Client(), logger.Nop())
		_, err := n.Lookup(context.Background(), model.LocationQuery{City: "Springfield", Country: "Testland"})
		require.Error(t, err, "status %d", status)
		assert.Equal(t, fault.ServiceUnavailable, fault.KindOf(err), "status %d", status)
		srv.Close()
	}
}

func TestLookup_TransportErrorIsServiceUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // refuse connections

	n := NewNominatim(srv.URL, "cartapress-test/1.0", nil, logger.Nop())
	_, err := n.Lookup(context.Background(), model.LocationQuery{City: "Springfield", Country: "Testland"})
	require.Error(t, err)
	assert.Equal(t, fault.ServiceUnavailable, fault.KindOf(err))
}
