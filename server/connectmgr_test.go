//go:build linux
// +build linux

package server

import (
	"net"
	"testing"

	"github.com/ikilobyte/netloop/common"
	"github.com/stretchr/testify/assert"
)

func TestConnectManager(t *testing.T) {
	mgr := newConnectManager()
	addr := &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 9000}

	first := mgr.NewConnect(10, addr, nil, 1)
	second := mgr.NewConnect(11, addr, nil, 2)
	assert.Equal(t, 2, mgr.Len())
	assert.Equal(t, common.Connecting, first.State())
	assert.Equal(t, 10, first.Fd())
	assert.Equal(t, addr, first.RemoteAddr())

	assert.Same(t, second, mgr.Get(2))
	assert.Nil(t, mgr.Get(3))
	assert.True(t, mgr.Contains(1))

	mgr.Remove(1)
	mgr.Remove(1)
	assert.False(t, mgr.Contains(1))
	assert.Equal(t, []*Connect{second}, mgr.Connects())
}
