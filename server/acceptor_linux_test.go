//go:build linux
// +build linux

package server

import (
	"bytes"
	"fmt"
	"net"
	"os"
	"testing"

	"github.com/ikilobyte/netloop/common"
	"github.com/ikilobyte/netloop/util"
	"github.com/stretchr/testify/assert"
)

func TestAcceptorAcceptError(t *testing.T) {
	var out bytes.Buffer
	util.SetLogOutput(&out)
	defer util.SetLogOutput(os.Stderr)

	accepted := false
	a := &acceptor{socket: &socket{fd: -1}}
	a.setAcceptCallback(func(fd int, addr net.Addr) { accepted = true })
	a.handleRead()

	assert.False(t, accepted)
	assert.Contains(t, out.String(), fmt.Sprintf(`"exitCode":%d`, common.ExitAccept))
	assert.Contains(t, out.String(), `"listener":-1`)
}
