package nominatimhttp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClient_Reverse_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/reverse", r.URL.Path)
		require.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		require.Equal(t, "-23.5505", r.URL.Query().Get("lat"))
		require.Equal(t, "-46.6333", r.URL.Query().Get("lon"))
		require.Equal(t, "trackerd-test", r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"display_name":"Avenida Paulista, São Paulo, Brazil"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "trackerd-test")
	res, err := c.Reverse(context.Background(), -23.5505, -46.6333)
	require.NoError(t, err)
	require.Len(t, res, 1)
	require.Equal(t, "Avenida Paulista, São Paulo, Brazil", res[0].FormattedAddress)
}

func TestClient_Reverse_NothingFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"Unable to geocode"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	res, err := c.Reverse(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Empty(t, res)
}

func TestClient_Reverse_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	_, err := c.Reverse(context.Background(), 1, 2)
	require.Error(t, err)
}
