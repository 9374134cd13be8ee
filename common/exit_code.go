package common

//ExitCode 启动阶段不可恢复的错误，每个出错位置对应一个进程退出码
type ExitCode int

const (
	ExitOK ExitCode = iota
	ExitUsage
	ExitSocket
	ExitBind
	ExitListen
	ExitAccept
	ExitEpollCreate
	ExitSetNonblock
	ExitListenerMonitor
	ExitEventfdCreate
	ExitEventfdRead
	ExitEventfdWrite
	ExitEventfdMonitor
	ExitTimerfdCreate
	ExitTimerfdRead
	ExitTimerfdWrite
	ExitTimerfdMonitor
	ExitLoopThread
)
