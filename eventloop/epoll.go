//go:build linux
// +build linux

package eventloop

import (
	"fmt"

	"github.com/ikilobyte/netloop/common"
	"github.com/ikilobyte/netloop/util"
	"golang.org/x/sys/unix"
)

const defaultEventBufferSize = 128

//Poller epoll的封装，fd => Channel
// 某个fd注册在epoll中 <=> 它在channels中且关注的事件不为空
type Poller struct {
	epfd     int
	events   []unix.EpollEvent
	channels map[int]*Channel
}

//NewPoller 创建epoll
func NewPoller(size int) (*Poller, error) {

	if size <= 0 {
		size = defaultEventBufferSize
	}

	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, util.NewError(common.ExitEpollCreate, "epoll_create1", err)
	}

	return &Poller{
		epfd:     fd,
		events:   make([]unix.EpollEvent, size),
		channels: make(map[int]*Channel),
	}, nil
}

//HasChannel .
func (p *Poller) HasChannel(ch *Channel) bool {
	registered, ok := p.channels[ch.Fd()]
	return ok && registered == ch
}

//Len 已注册的fd数量
func (p *Poller) Len() int {
	return len(p.channels)
}

//UpdateChannel 添加或修改事件，事件为空时等同于删除
func (p *Poller) UpdateChannel(ch *Channel) error {
	fd := ch.Fd()
	_, registered := p.channels[fd]

	if ch.Events() == 0 {
		if registered {
			return p.RemoveChannel(ch)
		}
		return nil
	}

	event := &unix.EpollEvent{Events: ch.Events(), Fd: int32(fd)}
	if registered {
		if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, event); err != nil {
			return fmt.Errorf("epoll ctl mod fd %d: %w", fd, err)
		}
		p.channels[fd] = ch
		return nil
	}

	// 注册成功后才加入channels
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, event); err != nil {
		return fmt.Errorf("epoll ctl add fd %d: %w", fd, err)
	}
	p.channels[fd] = ch
	return nil
}

//RemoveChannel 删除某个fd的事件，未注册时直接返回
func (p *Poller) RemoveChannel(ch *Channel) error {
	fd := ch.Fd()
	if registered, ok := p.channels[fd]; !ok || registered != ch {
		return nil
	}
	delete(p.channels, fd)

	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		return fmt.Errorf("epoll ctl del fd %d: %w", fd, err)
	}
	return nil
}

//Wait 阻塞等待，把就绪的channel追加到active中返回
func (p *Poller) Wait(active []*Channel) ([]*Channel, error) {

	n, err := unix.EpollWait(p.epfd, p.events, -1)
	if err != nil {
		if err == unix.EINTR || err == unix.EAGAIN {
			return active, nil
		}
		return active, fmt.Errorf("epoll wait: %w", err)
	}

	for i := 0; i < n; i++ {
		event := p.events[i]
		ch, ok := p.channels[int(event.Fd)]
		if !ok {
			continue
		}
		ch.SetRevents(event.Events)
		active = append(active, ch)
	}

	// 一次就把缓冲区填满了，下次多取一些
	if n == len(p.events) {
		p.events = make([]unix.EpollEvent, n*2)
	}

	return active, nil
}

//Close 关闭epoll fd
func (p *Poller) Close() error {
	p.channels = make(map[int]*Channel)
	return unix.Close(p.epfd)
}
