package iface

import "github.com/ikilobyte/netloop/util"

type (
	ConnectCallback func(connect IConnect)
	MessageCallback func(connect IConnect, in *util.Buffer) // 处理完的数据需要自己从in中读走
	CloseCallback   func(connect IConnect)
	EventCallback   func(connect IConnect) // 连接上有任何事件时调用
)

//Handlers 连接的一组回调，Upgrade时整体替换
type Handlers struct {
	OnConnect ConnectCallback
	OnMessage MessageCallback
	OnClose   CloseCallback
	OnEvent   EventCallback
}

//IHooks 连接建立和断开的钩子
type IHooks interface {
	OnOpen(connect IConnect)
	OnClose(connect IConnect)
}
