package fx

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"parsera-notifier/config"
)

func TestShutdownGrace(t *testing.T) {
	require.Equal(t, 10*time.Second, shutdownGrace(nil))
	require.Equal(t, 10*time.Second, shutdownGrace(&config.Config{Dispatch: config.DispatchConfig{SendTimeout: time.Second}}))
	require.Equal(t, 35*time.Second, shutdownGrace(&config.Config{Dispatch: config.DispatchConfig{SendTimeout: 30 * time.Second}}))
}

func TestRegisterHTTPServerLifecycle_FailsOnTakenPort(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer taken.Close()

	lc := fxtest.NewLifecycle(t)
	srv := &http.Server{Addr: taken.Addr().String(), Handler: http.NotFoundHandler()}
	RegisterHTTPServerLifecycle(lc, &config.Config{}, srv, zap.NewNop().Sugar())

	require.Error(t, lc.Start(context.Background()))
}

func TestRegisterHTTPServerLifecycle_ServesAndStops(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	srv := &http.Server{
		Addr: "127.0.0.1:0",
		Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}),
	}
	RegisterHTTPServerLifecycle(lc, &config.Config{}, srv, zap.NewNop().Sugar())

	require.NoError(t, lc.Start(context.Background()))
	require.NoError(t, lc.Stop(context.Background()))
}
