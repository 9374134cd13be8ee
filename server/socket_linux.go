//go:build linux
// +build linux

package server

import (
	"fmt"
	"io"
	"net"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ikilobyte/netloop/common"
	"github.com/ikilobyte/netloop/util"
	"golang.org/x/sys/unix"
)

var ignoreSigPipe sync.Once

//socket 监听socket，不使用net包，net包未暴露fd的相关接口
type socket struct {
	fd   int
	addr *net.TCPAddr
}

//createSocket 创建、绑定、监听，port为0时由系统分配
func createSocket(ip string, port int, keepAlive time.Duration) (*socket, error) {

	// 对端关闭后继续写不要让进程退出
	ignoreSigPipe.Do(func() {
		signal.Ignore(syscall.SIGPIPE)
	})

	sa, err := toSockaddr(ip, port)
	if err != nil {
		return nil, util.NewError(common.ExitUsage, "resolve address", err)
	}

	family := unix.AF_INET
	if _, ok := sa.(*unix.SockaddrInet6); ok {
		family = unix.AF_INET6
	}

	// 创建
	fd, err := unix.Socket(family, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return nil, util.NewError(common.ExitSocket, "socket", err)
	}

	// 设置属性
	if secs := int(keepAlive / time.Second); secs >= 1 {
		if err := setKeepAlive(fd, secs); err != nil {
			_ = unix.Close(fd)
			return nil, util.NewError(common.ExitSocket, "keepalive", err)
		}
	}

	// 复用TIME_WAIT状态的端口
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = unix.Close(fd)
		return nil, util.NewError(common.ExitSocket, "reuseaddr", err)
	}

	// 绑定端口
	if err := unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return nil, util.NewError(common.ExitBind, fmt.Sprintf("bind %s:%d", ip, port), err)
	}

	// 监听端口
	if err := unix.Listen(fd, util.MaxListenerBacklog()); err != nil {
		_ = unix.Close(fd)
		return nil, util.NewError(common.ExitListen, "listen", err)
	}

	if err := unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		return nil, util.NewError(common.ExitSetNonblock, "listener nonblock", err)
	}

	// 拿到真实端口
	local, err := unix.Getsockname(fd)
	if err != nil {
		_ = unix.Close(fd)
		return nil, util.NewError(common.ExitListen, "getsockname", err)
	}

	return &socket{fd: fd, addr: sockaddrToTCPAddr(local)}, nil
}

func toSockaddr(ip string, port int) (unix.Sockaddr, error) {
	if ip == "" {
		return &unix.SockaddrInet4{Port: port}, nil
	}

	addr := net.ParseIP(ip)
	if addr == nil {
		return nil, fmt.Errorf("invalid ip %q", ip)
	}

	if v4 := addr.To4(); v4 != nil {
		sa := &unix.SockaddrInet4{Port: port}
		copy(sa.Addr[:], v4)
		return sa, nil
	}

	sa := &unix.SockaddrInet6{Port: port}
	copy(sa.Addr[:], addr.To16())
	return sa, nil
}

func sockaddrToTCPAddr(sa unix.Sockaddr) *net.TCPAddr {
	switch sa := sa.(type) {
	case *unix.SockaddrInet4:
		ip := make(net.IP, net.IPv4len)
		copy(ip, sa.Addr[:])
		return &net.TCPAddr{IP: ip, Port: sa.Port}
	case *unix.SockaddrInet6:
		ip := make(net.IP, net.IPv6len)
		copy(ip, sa.Addr[:])
		return &net.TCPAddr{IP: ip, Port: sa.Port}
	}
	return &net.TCPAddr{}
}

//accept 取出一个新连接，设置非阻塞、不延迟
func (s *socket) accept() (int, net.Addr, error) {
	fd, sa, err := unix.Accept4(s.fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
	if err != nil {
		return -1, nil, err
	}

	if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1); err != nil {
		_ = unix.Close(fd)
		return -1, nil, err
	}

	return fd, sockaddrToTCPAddr(sa), nil
}

func (s *socket) close() error {
	return unix.Close(s.fd)
}

//recv 读取，暂时不可读时返回 (0, nil)，对端关闭返回 io.EOF
func recv(fd int, buf []byte) (int, error) {
	n, err := unix.Read(fd, buf)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}
	if n == 0 && len(buf) > 0 {
		return 0, io.EOF
	}
	return n, nil
}

//send 写入，暂时不可写时返回 (0, nil)
func send(fd int, data []byte) (int, error) {
	n, err := unix.Write(fd, data)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}
	return n, nil
}

//setKeepAlive 设置tcp属性
func setKeepAlive(fd, secs int) error {
	if secs <= 0 {
		return nil
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_KEEPALIVE, 1); err != nil {
		return err
	}

	// see /proc/sys/net/ipv4/tcp_keepalive_intvl
	if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_KEEPINTVL, secs); err != nil {
		return err
	}

	// see /proc/sys/net/ipv4/tcp_keepalive_time
	if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_KEEPIDLE, secs); err != nil {
		return err
	}

	// see /proc/sys/net/ipv4/tcp_keepalive_probes
	return unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_KEEPCNT, 3)
}
