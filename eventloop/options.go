//go:build linux
// +build linux

package eventloop

import "time"

//Options 事件循环的可选项，未配置时使用默认值
type Options struct {
	WheelSlots      int           // 时间轮槽位数量，默认：60
	TickInterval    time.Duration // 时间轮每格的时长，默认：1s
	EventBufferSize int           // 单次epoll_wait最多取多少个事件，默认：128，取满后自动扩容
}

type Option = func(opts *Options)

//parseOption 解析可选项
func parseOption(opts ...Option) *Options {
	options := new(Options)
	for _, opt := range opts {
		opt(options)
	}

	if options.WheelSlots <= 1 {
		options.WheelSlots = DefaultWheelSlots
	}

	if options.TickInterval <= 0 {
		options.TickInterval = DefaultTickInterval
	}

	return options
}

//WithWheelSlots 时间轮槽位数量，定时任务的延迟必须小于它
func WithWheelSlots(slots int) Option {
	return func(opts *Options) {
		opts.WheelSlots = slots
	}
}

//WithTickInterval 时间轮的精度
func WithTickInterval(interval time.Duration) Option {
	return func(opts *Options) {
		opts.TickInterval = interval
	}
}

//WithEventBufferSize epoll_wait的初始事件缓冲
func WithEventBufferSize(size int) Option {
	return func(opts *Options) {
		opts.EventBufferSize = size
	}
}
