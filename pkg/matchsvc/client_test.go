package matchsvc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orientavida/assess-cli/internal/fault"
)

func TestCandidates(t *testing.T) {
	t.Parallel()

	t.Run("decodes candidate list", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/takers/tk-1/candidates", r.URL.Path)
			assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"candidates":[
				{"id":"c-1","name":"Ana","match_percentage":91.5,"average_rating":4.6,"total_ratings":12},
				{"id":"c-2","name":"Luis","match_percentage":55,"total_ratings":0}
			]}`))
		}))
		t.Cleanup(srv.Close)

		c := NewClient(srv.URL, "secret")
		got, err := c.Candidates(context.Background(), "tk-1")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "Ana", got[0].Name)
		require.NotNil(t, got[0].AverageRating)
		assert.InDelta(t, 4.6, *got[0].AverageRating, 0.001)
		assert.Nil(t, got[1].AverageRating)
	})

	t.Run("5xx is transient", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		t.Cleanup(srv.Close)

		c := NewClient(srv.URL, "")
		_, err := c.Candidates(context.Background(), "tk-1")
		require.Error(t, err)
		assert.True(t, fault.IsTransient(err))
	})

	t.Run("4xx is not transient", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		t.Cleanup(srv.Close)

		c := NewClient(srv.URL, "")
		_, err := c.Candidates(context.Background(), "tk-1")
		require.Error(t, err)
		assert.False(t, fault.IsTransient(err))
	})

	t.Run("connection failure is transient", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
		srv.Close()

		c := NewClient(srv.URL, "")
		_, err := c.Candidates(context.Background(), "tk-1")
		require.Error(t, err)
		assert.True(t, fault.IsTransient(err))
	})
}
