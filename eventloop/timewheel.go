//go:build linux
// +build linux

package eventloop

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/ikilobyte/netloop/common"
	"github.com/ikilobyte/netloop/util"
	"golang.org/x/sys/unix"
)

const (
	DefaultWheelSlots   = 60
	DefaultTickInterval = time.Second
)

//timerTask 定时任务
// slots中的每一次出现都是一份引用，tasks中的只用于查找
// 最后一份引用随槽位清空时触发回调（未取消的话），同时从tasks中移除
type timerTask struct {
	id        uint64
	delay     int
	cancelled bool
	refs      int
	onExpire  func()
}

//TimeWheel 秒级时间轮，每个tick前进一格并清空该格
type TimeWheel struct {
	tick    int
	slots   [][]*timerTask
	tasks   map[uint64]*timerTask
	timerFd int
	channel *Channel
}

func newWheel(capacity int) *TimeWheel {
	if capacity <= 1 {
		capacity = DefaultWheelSlots
	}
	return &TimeWheel{
		slots:   make([][]*timerTask, capacity),
		tasks:   make(map[uint64]*timerTask),
		timerFd: -1,
	}
}

//newTimeWheel 创建时间轮并用timerfd驱动，timerfd的可读事件注册到loop中
func newTimeWheel(loop *EventLoop, capacity int, interval time.Duration) (*TimeWheel, error) {

	if interval <= 0 {
		interval = DefaultTickInterval
	}

	w := newWheel(capacity)

	fd, err := unix.TimerfdCreate(unix.CLOCK_MONOTONIC, unix.TFD_NONBLOCK|unix.TFD_CLOEXEC)
	if err != nil {
		return nil, util.NewError(common.ExitTimerfdCreate, "timerfd_create", err)
	}

	ts := unix.NsecToTimespec(interval.Nanoseconds())
	if err := unix.TimerfdSettime(fd, 0, &unix.ItimerSpec{Interval: ts, Value: ts}, nil); err != nil {
		_ = unix.Close(fd)
		return nil, util.NewError(common.ExitTimerfdWrite, "timerfd_settime", err)
	}

	w.timerFd = fd
	w.channel = NewChannel(loop, fd)
	w.channel.SetReadHandler(w.handleTimeout)
	if err := w.channel.EnableRead(); err != nil {
		_ = unix.Close(fd)
		return nil, util.NewError(common.ExitTimerfdMonitor, "timerfd monitor", err)
	}

	return w, nil
}

//Capacity 槽位数量，延迟必须小于它
func (w *TimeWheel) Capacity() int {
	return len(w.slots)
}

//Len 尚未到期的任务数量（包括已取消但还未清理的）
func (w *TimeWheel) Len() int {
	return len(w.tasks)
}

func (w *TimeWheel) checkDelay(delay int) error {
	if delay < 1 || delay >= len(w.slots) {
		return fmt.Errorf("%w: delay %d, slots %d", util.ErrInvalidDelay, delay, len(w.slots))
	}
	return nil
}

func (w *TimeWheel) link(task *timerTask, delay int) {
	pos := (w.tick + delay) % len(w.slots)
	w.slots[pos] = append(w.slots[pos], task)
	task.refs++
}

//Add 添加任务，id已存在时只是把它再挂到新的槽位上，回调不变
func (w *TimeWheel) Add(id uint64, delay int, onExpire func()) error {
	if err := w.checkDelay(delay); err != nil {
		return err
	}

	if task, ok := w.tasks[id]; ok {
		if !task.cancelled {
			w.link(task, delay)
			return nil
		}

		// 已取消的任务留在槽位里自然过期，不再能被查到
		delete(w.tasks, id)
	}

	task := &timerTask{id: id, delay: delay, onExpire: onExpire}
	w.tasks[id] = task
	w.link(task, delay)
	return nil
}

//Refresh 从当前tick重新计算过期时间
func (w *TimeWheel) Refresh(id uint64) {
	task, ok := w.tasks[id]
	if !ok || task.cancelled {
		return
	}
	w.link(task, task.delay)
}

//Cancel 取消后到期时不执行回调
func (w *TimeWheel) Cancel(id uint64) {
	if task, ok := w.tasks[id]; ok {
		task.cancelled = true
	}
}

//Has 任务存在且未被取消
func (w *TimeWheel) Has(id uint64) bool {
	task, ok := w.tasks[id]
	return ok && !task.cancelled
}

//Tick 前进一格，清空新位置上的所有引用
func (w *TimeWheel) Tick() {
	w.tick = (w.tick + 1) % len(w.slots)
	slot := w.slots[w.tick]
	w.slots[w.tick] = nil

	for _, task := range slot {
		task.refs--
		if task.refs > 0 {
			continue
		}

		if w.tasks[task.id] == task {
			delete(w.tasks, task.id)
		}

		if !task.cancelled && task.onExpire != nil {
			task.onExpire()
		}
	}
}

//handleTimeout timerfd可读，读出的次数就是经过了多少个tick
func (w *TimeWheel) handleTimeout() {
	var buf [8]byte
	if _, err := unix.Read(w.timerFd, buf[:]); err != nil {
		if err != unix.EAGAIN && err != unix.EINTR {
			logFdError(util.NewError(common.ExitTimerfdRead, "read timerfd", err), w.timerFd)
		}
		return
	}

	times := binary.NativeEndian.Uint64(buf[:])
	for i := uint64(0); i < times; i++ {
		w.Tick()
	}
}

//Close 关闭timerfd
func (w *TimeWheel) Close() error {
	if w.timerFd < 0 {
		return nil
	}
	if w.channel != nil {
		_ = w.channel.Remove()
	}
	err := unix.Close(w.timerFd)
	w.timerFd = -1
	return err
}
