package httptransport

import (
	"context"
	"io"
	"log"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunShutsDownOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := NewServer(DefaultServerConfig("127.0.0.1:0"), http.NotFoundHandler())

	done := make(chan error, 1)
	go func() { done <- Run(ctx, srv, time.Second, log.New(io.Discard, "", 0)) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestRunReturnsListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	srv := NewServer(DefaultServerConfig(ln.Addr().String()), http.NotFoundHandler())
	err = Run(context.Background(), srv, time.Second, log.New(io.Discard, "", 0))
	assert.Error(t, err)
}

func TestNewServerAppliesTimeouts(t *testing.T) {
	srv := NewServer(DefaultServerConfig(":8080"), http.NotFoundHandler())
	assert.Equal(t, ":8080", srv.Addr)
	assert.Equal(t, 5*time.Second, srv.ReadHeaderTimeout)
	assert.Equal(t, 30*time.Second, srv.WriteTimeout)
}
