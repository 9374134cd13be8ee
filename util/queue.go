package util

import (
	"sync"

	"github.com/eapache/queue"
)

//Queue 加锁的环形队列，跨线程投递任务使用
type Queue struct {
	inner  *queue.Queue
	locker sync.Mutex
}

func NewQueue() *Queue {
	return &Queue{
		inner: queue.New(),
	}
}

//Push 加
func (q *Queue) Push(item interface{}) int {
	q.locker.Lock()
	defer q.locker.Unlock()
	q.inner.Add(item)

	return q.inner.Length()
}

//PopAll 一次性取出当前所有元素，持锁时间只包含搬运
func (q *Queue) PopAll(dst []interface{}) []interface{} {
	q.locker.Lock()
	defer q.locker.Unlock()
	for q.inner.Length() > 0 {
		dst = append(dst, q.inner.Remove())
	}
	return dst
}

//Len 获取长度
func (q *Queue) Len() int {
	q.locker.Lock()
	defer q.locker.Unlock()
	return q.inner.Length()
}
