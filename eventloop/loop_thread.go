//go:build linux
// +build linux

package eventloop

import (
	"fmt"
	"sync"

	"github.com/ikilobyte/netloop/common"
	"github.com/ikilobyte/netloop/util"
)

//LoopThread 一个goroutine（锁定OS线程）跑一个事件循环
type LoopThread struct {
	options []Option
	locker  sync.Mutex
	cond    *sync.Cond
	ready   bool
	loop    *EventLoop
	err     error
	done    chan struct{}
}

//NewLoopThread 立即启动，事件循环在新的goroutine中创建
func NewLoopThread(opts ...Option) *LoopThread {
	t := &LoopThread{
		options: opts,
		done:    make(chan struct{}),
	}
	t.cond = sync.NewCond(&t.locker)
	go t.run()
	return t
}

func (t *LoopThread) run() {
	defer close(t.done)

	loop, err := New(t.options...)

	t.locker.Lock()
	t.loop, t.err, t.ready = loop, err, true
	t.cond.Broadcast()
	t.locker.Unlock()

	if err != nil {
		return
	}

	if err := loop.Loop(); err != nil {
		util.Logger.Errorf("loop thread exit: %v", err)
	}
}

//GetLoop 阻塞到事件循环创建完成
func (t *LoopThread) GetLoop() (*EventLoop, error) {
	t.locker.Lock()
	defer t.locker.Unlock()
	for !t.ready {
		t.cond.Wait()
	}
	return t.loop, t.err
}

//Done 事件循环退出后关闭
func (t *LoopThread) Done() <-chan struct{} {
	return t.done
}

//LoopThreadPool 固定数量的LoopThread
type LoopThreadPool struct {
	num     int
	options []Option
	threads []*LoopThread
	loops   []*EventLoop
	inited  bool
}

//NewLoopThreadPool .
func NewLoopThreadPool(num int, opts ...Option) *LoopThreadPool {
	return &LoopThreadPool{
		num:     num,
		options: opts,
	}
}

//Init 创建所有线程，等每个事件循环都就绪后返回
func (p *LoopThreadPool) Init() error {

	if p.inited {
		return util.ErrPoolInitialized
	}
	p.inited = true

	p.threads = make([]*LoopThread, 0, p.num)
	p.loops = make([]*EventLoop, 0, p.num)
	for i := 0; i < p.num; i++ {
		thread := NewLoopThread(p.options...)
		loop, err := thread.GetLoop()
		if err != nil {
			p.Stop()
			if util.ExitCode(err) == common.ExitUsage {
				err = util.NewError(common.ExitLoopThread, fmt.Sprintf("loop thread %d", i), err)
			}
			return err
		}
		p.threads = append(p.threads, thread)
		p.loops = append(p.loops, loop)
	}

	return nil
}

//Loops .
func (p *LoopThreadPool) Loops() []*EventLoop {
	return p.loops
}

//Len .
func (p *LoopThreadPool) Len() int {
	return len(p.loops)
}

//Stop 退出所有事件循环并等待结束
func (p *LoopThreadPool) Stop() {
	for _, loop := range p.loops {
		loop.Quit()
	}
	for _, thread := range p.threads {
		<-thread.Done()
	}
}
