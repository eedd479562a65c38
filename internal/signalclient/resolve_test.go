package signalclient

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveHost_Literal(t *testing.T) {
	ip, err := resolveHost(context.Background(), "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", ip)

	ip, err = resolveHost(context.Background(), "::1")
	require.NoError(t, err)
	assert.Equal(t, "::1", ip)
}

func TestResolveHost_Localhost(t *testing.T) {
	ip, err := resolveHost(context.Background(), "localhost")
	require.NoError(t, err)
	assert.True(t, net.ParseIP(ip).IsLoopback())
}

func TestDialResolved_BadAddr(t *testing.T) {
	_, err := dialResolved(context.Background(), "tcp", "no-port")
	assert.Error(t, err)
}
