package common

//ConnectState 连接状态，只会按 Connecting -> Connected -> Disconnecting -> Disconnected 单向变化
type ConnectState int32

const (
	Connecting    ConnectState = iota // 正在初始化，回调还未设置完毕
	Connected                         // 已建立，正在监听读事件
	Disconnecting                     // 待关闭，发送缓冲区的数据发送完毕后释放
	Disconnected                      // 已释放，终态
)

func (s ConnectState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Disconnecting:
		return "disconnecting"
	case Disconnected:
		return "disconnected"
	}
	return "unknown"
}
