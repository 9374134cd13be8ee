package util

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/ikilobyte/netloop/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueFIFO(t *testing.T) {
	q := NewQueue()
	assert.Empty(t, q.PopAll(nil))

	for i := 0; i < 5; i++ {
		assert.Equal(t, i+1, q.Push(i))
	}

	// 追加到已有的切片后面
	items := q.PopAll([]interface{}{"head"})
	assert.Equal(t, []interface{}{"head", 0, 1, 2, 3, 4}, items)
	assert.Equal(t, 0, q.Len())
}

func TestQueueConcurrentPush(t *testing.T) {
	q := NewQueue()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				q.Push(j)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 800, q.Len())
	assert.Len(t, q.PopAll(make([]interface{}, 0, 800)), 800)
}

func TestErrorExitCode(t *testing.T) {
	base := errors.New("boom")
	err := fmt.Errorf("start: %w", NewError(common.ExitEpollCreate, "epoll_create1", base))

	assert.Equal(t, common.ExitEpollCreate, ExitCode(err))
	assert.True(t, errors.Is(err, base))
	assert.Equal(t, common.ExitUsage, ExitCode(base))
	assert.Equal(t, common.ExitOK, ExitCode(nil))
}

func TestGoroutineID(t *testing.T) {
	main := GoroutineID()
	require.NotZero(t, main)

	ch := make(chan uint64)
	go func() { ch <- GoroutineID() }()
	assert.NotEqual(t, main, <-ch)
	assert.Equal(t, main, GoroutineID())
}
