package inngest

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"parsera-notifier/config"
)

func TestServePath(t *testing.T) {
	require.Equal(t, DefaultServePath, ServePath(nil))
	require.Equal(t, DefaultServePath, ServePath(&config.Config{}))
	require.Equal(t, "/hooks/inngest", ServePath(&config.Config{Inngest: config.InngestConfig{ServePath: " /hooks/inngest "}}))
}

func TestServeURL(t *testing.T) {
	require.Nil(t, serveURL(&config.Config{}))

	u := serveURL(&config.Config{Inngest: config.InngestConfig{ServeHost: "notify.parsera.dev"}})
	require.Equal(t, "https://notify.parsera.dev/api/inngest", u.String())

	u = serveURL(&config.Config{Inngest: config.InngestConfig{ServeHost: "localhost:8080", Dev: "true"}})
	require.Equal(t, "http://localhost:8080/api/inngest", u.String())
}

func TestDisabledClient(t *testing.T) {
	c, err := NewInngestClient(&config.Config{})
	require.NoError(t, err)
	require.False(t, Enabled(c))
	require.False(t, Enabled(nil))

	rec := httptest.NewRecorder()
	c.Serve().ServeHTTP(rec, httptest.NewRequest(http.MethodPut, DefaultServePath, nil))
	require.Equal(t, http.StatusNotImplemented, rec.Code)
	require.Contains(t, rec.Body.String(), "INNGEST_APP_ID")
}
