package server

import (
	"io"
	"time"

	"github.com/ikilobyte/netloop/iface"
)

//Options 可选项配置，未配置时使用默认值
type Options struct {
	NumEventLoop    int           // 从事件循环数量，默认：0，所有连接都在主事件循环上
	InactiveTimeout int           // 多少个tick没有事件就断开，默认：0，不开启
	TickInterval    time.Duration // 时间轮每格的时长，默认：1s
	WheelSlots      int           // 时间轮槽位数量，默认：60
	TCPKeepAlive    time.Duration // 监听socket的keepalive，小于1秒不开启
	Hooks           iface.IHooks  // 连接建立、断开的钩子
	LogOutput       io.Writer     // 日志输出位置，默认：stderr
	LogLevel        string        // 日志级别，默认：info
}

type Option = func(opts *Options)

//parseOption 解析可选项
func parseOption(opts ...Option) *Options {
	options := new(Options)
	for _, opt := range opts {
		opt(options)
	}

	return options
}

//WithNumEventLoop 从事件循环数量
func WithNumEventLoop(numEventLoop int) Option {
	return func(opts *Options) {
		opts.NumEventLoop = numEventLoop
	}
}

//WithInactiveTimeout 连接超时释放，单位是tick
func WithInactiveTimeout(ticks int) Option {
	return func(opts *Options) {
		opts.InactiveTimeout = ticks
	}
}

//WithTickInterval 时间轮精度
func WithTickInterval(interval time.Duration) Option {
	return func(opts *Options) {
		opts.TickInterval = interval
	}
}

//WithWheelSlots 时间轮槽位数量
func WithWheelSlots(slots int) Option {
	return func(opts *Options) {
		opts.WheelSlots = slots
	}
}

//WithTCPKeepAlive 开启keepalive
func WithTCPKeepAlive(keepalive time.Duration) Option {
	return func(opts *Options) {
		opts.TCPKeepAlive = keepalive
	}
}

//WithHooks 连接建立、断开时的钩子，会被 SetConnectCallback、SetCloseCallback 覆盖
func WithHooks(hooks iface.IHooks) Option {
	return func(opts *Options) {
		opts.Hooks = hooks
	}
}

//WithLogOutput 日志输出位置
func WithLogOutput(output io.Writer) Option {
	return func(opts *Options) {
		opts.LogOutput = output
	}
}

//WithLogLevel 日志级别，logrus的级别名称
func WithLogLevel(level string) Option {
	return func(opts *Options) {
		opts.LogLevel = level
	}
}
