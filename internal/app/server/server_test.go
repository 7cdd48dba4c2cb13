package server

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdownClosesNotify(t *testing.T) {
	srv := New("127.0.0.1:0", time.Second, time.Second, http.NotFoundHandler())
	srv.Start()
	require.NoError(t, srv.Shutdown())

	select {
	case err, ok := <-srv.Notify():
		assert.False(t, ok, "unexpected error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("notify was not closed")
	}
}

func TestListenErrorIsReported(t *testing.T) {
	srv := New("127.0.0.1:-1", time.Second, time.Second, http.NotFoundHandler())
	srv.Start()

	select {
	case err := <-srv.Notify():
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("listen error not reported")
	}
}
