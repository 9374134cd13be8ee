//go:build linux
// +build linux

package eventloop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"
)

func recordingChannel(calls *[]string) *Channel {
	ch := NewChannel(nil, 3)
	ch.SetReadHandler(func() { *calls = append(*calls, "read") })
	ch.SetWriteHandler(func() { *calls = append(*calls, "write") })
	ch.SetErrorHandler(func() { *calls = append(*calls, "error") })
	ch.SetCloseHandler(func() { *calls = append(*calls, "close") })
	ch.SetEventHandler(func() { *calls = append(*calls, "event") })
	return ch
}

func TestChannelHandleEvent(t *testing.T) {
	cases := []struct {
		name    string
		revents uint32
		want    []string
	}{
		{"read", unix.EPOLLIN, []string{"read", "event"}},
		{"priority", unix.EPOLLPRI, []string{"read", "event"}},
		{"write wins over hangup", unix.EPOLLOUT | unix.EPOLLHUP, []string{"write", "event"}},
		{"read then write", unix.EPOLLIN | unix.EPOLLOUT, []string{"read", "write", "event"}},
		{"error", unix.EPOLLERR, []string{"error", "event"}},
		{"error before hangup", unix.EPOLLERR | unix.EPOLLHUP, []string{"error", "event"}},
		{"peer closed", unix.EPOLLIN | unix.EPOLLRDHUP, []string{"read", "close", "event"}},
		{"hangup", unix.EPOLLHUP, []string{"close", "event"}},
		{"nothing", 0, nil},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var calls []string
			ch := recordingChannel(&calls)
			ch.SetRevents(c.revents)
			ch.HandleEvent()
			assert.Equal(t, c.want, calls)
		})
	}
}

func TestChannelMissingHandlers(t *testing.T) {
	ch := NewChannel(nil, 3)
	ch.SetRevents(unix.EPOLLIN | unix.EPOLLOUT | unix.EPOLLERR | unix.EPOLLHUP)
	assert.NotPanics(t, ch.HandleEvent)
}
