//go:build linux
// +build linux

package server

import (
	"net"

	"github.com/ikilobyte/netloop/eventloop"
)

//ConnectManager 一个事件循环上的所有连接，只在主事件循环中访问，不加锁
type ConnectManager struct {
	connects map[uint64]*Connect // connID => Connect
}

//newConnectManager 构造一个实例
func newConnectManager() *ConnectManager {
	return &ConnectManager{
		connects: make(map[uint64]*Connect),
	}
}

//NewConnect 创建连接并保存
func (c *ConnectManager) NewConnect(fd int, addr net.Addr, loop *eventloop.EventLoop, id uint64) *Connect {
	conn := newConnect(loop, id, fd, addr)
	c.connects[id] = conn
	return conn
}

//Get 通过connID获取连接实例
func (c *ConnectManager) Get(id uint64) *Connect {
	return c.connects[id]
}

//Contains .
func (c *ConnectManager) Contains(id uint64) bool {
	_, ok := c.connects[id]
	return ok
}

//Remove 删除一个连接
func (c *ConnectManager) Remove(id uint64) {
	delete(c.connects, id)
}

//Len 获取有多少个连接
func (c *ConnectManager) Len() int {
	return len(c.connects)
}

//Connects 获取所有连接
func (c *ConnectManager) Connects() []*Connect {
	connects := make([]*Connect, 0, c.Len())
	for _, connect := range c.connects {
		connects = append(connects, connect)
	}
	return connects
}
