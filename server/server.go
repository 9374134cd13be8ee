//go:build linux
// +build linux

package server

import (
	"net"

	"github.com/ikilobyte/netloop/eventloop"
	"github.com/ikilobyte/netloop/iface"
	"github.com/ikilobyte/netloop/util"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
)

//balancer 一个从事件循环和它上面的连接
type balancer struct {
	connectMgr *ConnectManager
	loop       *eventloop.EventLoop
}

//Server 主事件循环负责accept，连接分配到连接数最少的从事件循环上
type Server struct {
	ip            string
	port          int
	options       *Options
	loopOptions   []eventloop.Option
	nextID        *atomic.Uint64 // 连接ID以及定时任务ID
	started       *atomic.Bool
	stopped       *atomic.Bool
	loop          *eventloop.EventLoop
	pool          *eventloop.LoopThreadPool
	balancers     []*balancer
	acceptor      *acceptor
	inactiveTicks int

	onConnect iface.ConnectCallback
	onMessage iface.MessageCallback
	onClose   iface.CloseCallback
	onEvent   iface.EventCallback
}

//New 创建Server，创建主事件循环并开始监听
func New(ip string, port int, opts ...Option) (*Server, error) {

	options := parseOption(opts...)

	util.SetLogOutput(options.LogOutput)
	if err := util.SetLogLevel(options.LogLevel); err != nil {
		return nil, err
	}

	loopOptions := []eventloop.Option{
		eventloop.WithWheelSlots(options.WheelSlots),
		eventloop.WithTickInterval(options.TickInterval),
	}

	loop, err := eventloop.New(loopOptions...)
	if err != nil {
		return nil, err
	}

	sock, err := createSocket(ip, port, options.TCPKeepAlive)
	if err != nil {
		_ = loop.Close()
		return nil, err
	}

	s := &Server{
		ip:          ip,
		port:        port,
		options:     options,
		loopOptions: loopOptions,
		nextID:      atomic.NewUint64(0),
		started:     atomic.NewBool(false),
		stopped:     atomic.NewBool(false),
		loop:        loop,
		acceptor:    newAcceptor(loop, sock),
	}
	s.acceptor.setAcceptCallback(s.accept)

	// 主事件循环还没跑起来，直接注册到epoll
	if err := s.acceptor.listen(); err != nil {
		s.acceptor.close()
		_ = loop.Close()
		return nil, err
	}

	if options.Hooks != nil {
		s.onConnect = options.Hooks.OnOpen
		s.onClose = options.Hooks.OnClose
	}

	if options.InactiveTimeout > 0 {
		if err := s.SetInactiveRelease(options.InactiveTimeout); err != nil {
			s.acceptor.close()
			_ = loop.Close()
			return nil, err
		}
	}

	return s, nil
}

//Addr 实际监听的地址，端口为0时可以拿到系统分配的端口
func (s *Server) Addr() net.Addr {
	return s.acceptor.socket.addr
}

//SetThreadNum 从事件循环数量，0表示所有连接都在主事件循环上，只能设置一次
func (s *Server) SetThreadNum(num int) error {
	if s.balancers != nil {
		return util.ErrPoolInitialized
	}

	if num <= 0 {
		s.balancers = []*balancer{{connectMgr: newConnectManager(), loop: s.loop}}
		return nil
	}

	pool := eventloop.NewLoopThreadPool(num, s.loopOptions...)
	if err := pool.Init(); err != nil {
		return err
	}
	s.pool = pool

	s.balancers = make([]*balancer, 0, num)
	for _, loop := range pool.Loops() {
		s.balancers = append(s.balancers, &balancer{connectMgr: newConnectManager(), loop: loop})
	}
	return nil
}

//SetInactiveRelease 新连接超过ticks个tick没有事件就释放，0表示关闭
func (s *Server) SetInactiveRelease(ticks int) error {
	if ticks != 0 {
		if err := s.loop.CheckDelay(ticks); err != nil {
			return err
		}
	}
	s.inactiveTicks = ticks
	return nil
}

func (s *Server) SetConnectCallback(cb iface.ConnectCallback) { s.onConnect = cb }
func (s *Server) SetMessageCallback(cb iface.MessageCallback) { s.onMessage = cb }
func (s *Server) SetCloseCallback(cb iface.CloseCallback)     { s.onClose = cb }
func (s *Server) SetEventCallback(cb iface.EventCallback)     { s.onEvent = cb }

//RunAfter 在主事件循环上延迟ticks个tick执行一次
func (s *Server) RunAfter(ticks int, task func()) error {
	return s.loop.AddTimer(s.nextID.Inc(), ticks, task)
}

//Start 运行主事件循环，阻塞到 Stop
func (s *Server) Start() error {
	if !s.started.CAS(false, true) {
		return util.ErrServerStarted
	}

	if s.balancers == nil {
		if err := s.SetThreadNum(s.options.NumEventLoop); err != nil {
			return err
		}
	}

	util.Logger.WithFields(logrus.Fields{
		"addr":      s.Addr().String(),
		"eventLoop": len(s.balancers),
	}).Info("server started")

	return s.loop.Loop()
}

//Stop 关闭监听、断开所有连接、退出所有事件循环
func (s *Server) Stop() {
	if !s.stopped.CAS(false, true) {
		return
	}

	if !s.started.Load() {
		s.acceptor.close()
		if s.pool != nil {
			s.pool.Stop()
		}
		_ = s.loop.Close()
		return
	}

	s.loop.Post(s.stopInLoop)
}

func (s *Server) stopInLoop() {
	s.acceptor.close()

	for _, b := range s.balancers {
		for _, connect := range b.connectMgr.Connects() {
			connect.Close()
		}
	}

	// release已经投递到各自的事件循环，退出前会先执行完
	if s.pool != nil {
		s.pool.Stop()
	}
	s.loop.Quit()
}

//accept 在主事件循环中执行
func (s *Server) accept(fd int, addr net.Addr) {

	counts := make([]int, len(s.balancers))
	for i, b := range s.balancers {
		counts[i] = b.connectMgr.Len()
	}
	b := s.balancers[leastLoaded(counts)]

	connect := b.connectMgr.NewConnect(fd, addr, b.loop, s.nextID.Inc())
	connect.SetConnectCallback(s.onConnect)
	connect.SetMessageCallback(s.onMessage)
	connect.SetCloseCallback(s.onClose)
	connect.SetEventCallback(s.onEvent)
	connect.setRemoveCallback(func(conn *Connect) {
		s.loop.RunInLoop(func() {
			b.connectMgr.Remove(conn.ID())
		})
	})

	connect.Establish()

	if s.inactiveTicks > 0 {
		if err := connect.StartInactiveRelease(s.inactiveTicks); err != nil {
			util.Logger.WithField("connID", connect.ID()).Errorf("inactive release: %v", err)
		}
	}
}

//leastLoaded 连接数最少的下标，相同时取最小的下标
func leastLoaded(counts []int) int {
	idx := 0
	for i := 1; i < len(counts); i++ {
		if counts[i] < counts[idx] {
			idx = i
		}
	}
	return idx
}
