//go:build linux
// +build linux

package eventloop

import (
	"encoding/binary"
	"runtime"
	"sync"

	"github.com/ikilobyte/netloop/common"
	"github.com/ikilobyte/netloop/util"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
	"golang.org/x/sys/unix"
)

const scratchSize = 64 * 1024

//EventLoop 单线程事件循环：epoll_wait -> 派发事件 -> 执行投递过来的任务
// Loop 开始之前不属于任何goroutine，这期间 RunInLoop 全部进入任务队列
// 除了 RunInLoop、Post、Quit 以及 *Timer 系列方法，其他方法只能在循环所在的goroutine调用
type EventLoop struct {
	goid        *atomic.Uint64 // 运行 Loop 的goroutine，0表示还未运行
	quit        *atomic.Bool
	options     *Options
	poller      *Poller
	wakeFd      int // eventfd，跨线程投递任务后用来唤醒epoll_wait
	wakeChannel *Channel
	wheel       *TimeWheel
	tasks       *util.Queue
	pending     []interface{}
	active      []*Channel
	scratch     []byte

	// 保护wakeFd，关闭后不能再写，否则可能写到被复用的fd上
	locker sync.RWMutex
	closed bool
}

//New 创建事件循环，运行 Loop 之后才绑定goroutine
func New(opts ...Option) (*EventLoop, error) {

	options := parseOption(opts...)

	poller, err := NewPoller(options.EventBufferSize)
	if err != nil {
		return nil, err
	}

	loop := &EventLoop{
		goid:    atomic.NewUint64(0),
		quit:    atomic.NewBool(false),
		options: options,
		poller:  poller,
		wakeFd:  -1,
		tasks:   util.NewQueue(),
		scratch: make([]byte, scratchSize),
	}

	wakeFd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		_ = poller.Close()
		return nil, util.NewError(common.ExitEventfdCreate, "eventfd", err)
	}
	loop.wakeFd = wakeFd
	loop.wakeChannel = NewChannel(loop, wakeFd)
	loop.wakeChannel.SetReadHandler(loop.handleWakeup)
	if err := loop.wakeChannel.EnableRead(); err != nil {
		_ = unix.Close(wakeFd)
		_ = poller.Close()
		return nil, util.NewError(common.ExitEventfdMonitor, "eventfd monitor", err)
	}

	wheel, err := newTimeWheel(loop, options.WheelSlots, options.TickInterval)
	if err != nil {
		_ = unix.Close(wakeFd)
		_ = poller.Close()
		return nil, err
	}
	loop.wheel = wheel

	return loop, nil
}

//Loop 开始事件循环，直到调用 Quit，退出后释放所有fd
func (l *EventLoop) Loop() error {

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	l.goid.Store(util.GoroutineID())
	defer l.goid.Store(0)
	defer l.Close()

	for !l.quit.Load() {
		active, err := l.poller.Wait(l.active[:0])
		if err != nil {
			util.Logger.Errorf("event loop wait error: %v", err)
			return err
		}
		l.active = active

		for _, ch := range l.active {
			ch.HandleEvent()
		}

		for i := range l.active {
			l.active[i] = nil
		}

		l.runTasks()
	}

	// 最后一轮任务中投递的任务（比如连接的release）
	l.runTasks()
	return nil
}

//Quit 本轮结束后退出，可以在任意goroutine调用
func (l *EventLoop) Quit() {
	l.quit.Store(true)
	if !l.InLoop() {
		_ = l.wakeup()
	}
}

//Close 关闭epoll、eventfd、timerfd，不能在 Loop 运行期间从其他goroutine调用
func (l *EventLoop) Close() error {
	l.locker.Lock()
	defer l.locker.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true

	_ = l.wheel.Close()
	_ = l.wakeChannel.Remove()
	_ = unix.Close(l.wakeFd)
	return l.poller.Close()
}

//InLoop 调用方是否就是循环所在的goroutine，Loop 运行之前总是false
func (l *EventLoop) InLoop() bool {
	goid := l.goid.Load()
	return goid != 0 && goid == util.GoroutineID()
}

//RunInLoop 在循环内直接执行，否则投递到任务队列
func (l *EventLoop) RunInLoop(task func()) {
	if l.InLoop() {
		task()
		return
	}
	l.Post(task)
}

//Post 放到任务队列，在本轮事件处理完之后执行
func (l *EventLoop) Post(task func()) {
	l.tasks.Push(task)
	if err := l.wakeup(); err != nil {
		util.Logger.WithField("wakeFd", l.wakeFd).Debugf("post task: %v", err)
	}
}

func (l *EventLoop) wakeup() error {
	l.locker.RLock()
	defer l.locker.RUnlock()

	if l.closed {
		return util.ErrLoopClosed
	}

	var buf [8]byte
	binary.NativeEndian.PutUint64(buf[:], 1)
	if _, err := unix.Write(l.wakeFd, buf[:]); err != nil && err != unix.EAGAIN {
		return util.NewError(common.ExitEventfdWrite, "write eventfd", err)
	}
	return nil
}

func (l *EventLoop) handleWakeup() {
	var buf [8]byte
	if _, err := unix.Read(l.wakeFd, buf[:]); err != nil && err != unix.EAGAIN && err != unix.EINTR {
		logFdError(util.NewError(common.ExitEventfdRead, "read eventfd", err), l.wakeFd)
	}
}

//runTasks 一次性取出队列中的任务执行，执行期间新投递的留到下一轮
func (l *EventLoop) runTasks() {
	l.pending = l.tasks.PopAll(l.pending[:0])
	for i, item := range l.pending {
		if task, ok := item.(func()); ok {
			task()
		}
		l.pending[i] = nil
	}
}

//logFdError 循环内读fd失败不会退出，只记录错误码
func logFdError(err *util.Error, fd int) {
	util.Logger.WithFields(logrus.Fields{
		"fd":       fd,
		"exitCode": int(err.Code),
	}).Error(err.Error())
}

func (l *EventLoop) updateChannel(ch *Channel) error {
	return l.poller.UpdateChannel(ch)
}

func (l *EventLoop) removeChannel(ch *Channel) error {
	return l.poller.RemoveChannel(ch)
}

//HasChannel .
func (l *EventLoop) HasChannel(ch *Channel) bool {
	return l.poller.HasChannel(ch)
}

//CheckDelay 延迟是否在时间轮的范围内
func (l *EventLoop) CheckDelay(delay int) error {
	return l.wheel.checkDelay(delay)
}

//AddTimer 添加定时任务，delay 单位是tick
func (l *EventLoop) AddTimer(id uint64, delay int, task func()) error {
	if err := l.CheckDelay(delay); err != nil {
		return err
	}
	l.RunInLoop(func() {
		if err := l.wheel.Add(id, delay, task); err != nil {
			util.Logger.WithField("timer", id).Errorf("add timer error: %v", err)
		}
	})
	return nil
}

//RefreshTimer 重新计时
func (l *EventLoop) RefreshTimer(id uint64) {
	l.RunInLoop(func() {
		l.wheel.Refresh(id)
	})
}

//CancelTimer .
func (l *EventLoop) CancelTimer(id uint64) {
	l.RunInLoop(func() {
		l.wheel.Cancel(id)
	})
}

//HasTimer 只能在循环内调用
func (l *EventLoop) HasTimer(id uint64) bool {
	return l.wheel.Has(id)
}

//WheelSlots 时间轮槽位数量
func (l *EventLoop) WheelSlots() int {
	return l.wheel.Capacity()
}

//Scratch 本循环共享的读缓冲
func (l *EventLoop) Scratch() []byte {
	return l.scratch
}
