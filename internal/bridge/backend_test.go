package bridge

import (
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rennerdo30/taqyon/internal/logging"
)

func TestNewBackend(t *testing.T) {
	b := NewBackend()
	assert.Equal(t, InitialMessage, b.Message())
	assert.Equal(t, int64(0), b.Count())
	assert.Equal(t, Snapshot{Message: InitialMessage, Count: 0}, b.Snapshot())
}

func TestSetCount_SameValueNotifiesOnce(t *testing.T) {
	b := NewBackend()
	var got []int64
	b.OnCountChanged(func(n int64) { got = append(got, n) })

	b.SetCount(5)
	b.SetCount(5)

	assert.Equal(t, []int64{5}, got)
	assert.Equal(t, int64(5), b.Count())
}

func TestIncrementCount(t *testing.T) {
	b := NewBackend()
	b.SetCount(5)

	var got []int64
	b.OnCountChanged(func(n int64) { got = append(got, n) })

	b.IncrementCount()

	assert.Equal(t, int64(6), b.Count())
	assert.Equal(t, []int64{6}, got)
}

func TestIncrementCount_Saturates(t *testing.T) {
	b := NewBackend()
	b.SetCount(math.MaxInt64)

	notified := false
	b.OnCountChanged(func(int64) { notified = true })

	b.IncrementCount()

	assert.Equal(t, int64(math.MaxInt64), b.Count())
	assert.False(t, notified)
}

func TestSetCount_RejectsNegative(t *testing.T) {
	b := NewBackend()
	b.SetCount(3)

	notified := false
	b.OnCountChanged(func(int64) { notified = true })

	b.SetCount(-1)

	assert.Equal(t, int64(3), b.Count())
	assert.False(t, notified)
}

func TestSetMessage(t *testing.T) {
	b := NewBackend()
	var got []string
	b.OnMessageChanged(func(m string) { got = append(got, m) })

	b.SetMessage(InitialMessage)
	b.SetMessage("hi")
	b.SetMessage("hi")
	b.SetMessage("")

	assert.Equal(t, []string{"hi", ""}, got)
	assert.Equal(t, "", b.Message())
}

func TestSendToBackend(t *testing.T) {
	b := NewBackend()
	var replies []string
	b.OnSendToFrontend(func(r string) { replies = append(replies, r) })

	countChanged := false
	b.OnCountChanged(func(int64) { countChanged = true })
	messageChanged := false
	b.OnMessageChanged(func(string) { messageChanged = true })

	b.SendToBackend("ping")
	b.SendToBackend("ping")

	assert.Equal(t, []string{"Backend received: ping", "Backend received: ping"}, replies)
	assert.False(t, countChanged)
	assert.False(t, messageChanged)
	assert.Equal(t, Snapshot{Message: InitialMessage}, b.Snapshot())
}

func TestUnsubscribe(t *testing.T) {
	b := NewBackend()

	var first, second int
	unsubFirst := b.OnCountChanged(func(int64) { first++ })
	b.OnCountChanged(func(int64) { second++ })

	b.IncrementCount()
	unsubFirst()
	unsubFirst()
	b.IncrementCount()

	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
}

func TestHandlersRunInRegistrationOrder(t *testing.T) {
	b := NewBackend()
	var order []string
	b.OnMessageChanged(func(string) { order = append(order, "a") })
	b.OnMessageChanged(func(string) { order = append(order, "b") })
	b.OnMessageChanged(func(string) { order = append(order, "c") })

	b.SetMessage("x")

	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestHandlerMayReenter(t *testing.T) {
	b := NewBackend()
	b.OnCountChanged(func(n int64) {
		// Reading and writing from a handler must not deadlock.
		if n == 1 {
			b.SetMessage("count is one")
		}
	})

	b.IncrementCount()
	assert.Equal(t, "count is one", b.Message())
}

func TestConcurrentIncrements(t *testing.T) {
	b := NewBackend()

	var mu sync.Mutex
	notifications := 0
	b.OnCountChanged(func(int64) {
		mu.Lock()
		notifications++
		mu.Unlock()
	})

	const workers, perWorker = 8, 250
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				b.IncrementCount()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int64(workers*perWorker), b.Count())
	assert.Equal(t, workers*perWorker, notifications)
}

func TestSetCount_LogsEveryCall(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "bridge.log")
	cfg := logging.DefaultConfig()
	cfg.Output = logFile
	require.NoError(t, logging.Setup(cfg))
	t.Cleanup(func() {
		logging.Close()
		logging.Setup(logging.DefaultConfig())
	})

	b := NewBackend()
	b.SetCount(5)
	b.SetCount(5)
	b.IncrementCount()
	require.NoError(t, logging.Close())

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)

	var setCount, increment int
	for _, line := range strings.Split(string(data), "\n") {
		if !strings.Contains(line, "level=INFO") {
			continue
		}
		if strings.Contains(line, "setCount called") {
			setCount++
		}
		if strings.Contains(line, "incrementCount called") {
			increment++
		}
	}
	assert.Equal(t, 3, setCount, "both SetCount calls and the increment go through the logged path")
	assert.Equal(t, 1, increment)
	assert.Contains(t, string(data), "value=6")
}

func TestConcurrentIncrements_NotifyInOrder(t *testing.T) {
	b := NewBackend()

	var mu sync.Mutex
	var got []int64
	b.OnCountChanged(func(n int64) {
		mu.Lock()
		got = append(got, n)
		mu.Unlock()
	})

	const workers, perWorker = 8, 100
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				b.IncrementCount()
			}
		}()
	}
	wg.Wait()

	require.Len(t, got, workers*perWorker)
	for i, n := range got {
		require.Equal(t, int64(i+1), n, "notification %d out of order", i)
	}
	assert.Equal(t, b.Count(), got[len(got)-1])
}

func TestReentrantNotificationFollowsHandler(t *testing.T) {
	b := NewBackend()

	var events []string
	b.OnCountChanged(func(n int64) {
		events = append(events, "start "+strconv.FormatInt(n, 10))
		if n == 1 {
			b.IncrementCount()
		}
		events = append(events, "end "+strconv.FormatInt(n, 10))
	})

	b.IncrementCount()

	assert.Equal(t, []string{"start 1", "end 1", "start 2", "end 2"}, events)
	assert.Equal(t, int64(2), b.Count())
}

func TestHandlerPanicDoesNotWedgeDispatch(t *testing.T) {
	b := NewBackend()
	fail := true
	var got []int64
	b.OnCountChanged(func(n int64) {
		if fail {
			fail = false
			panic("handler failed")
		}
		got = append(got, n)
	})

	assert.Panics(t, func() { b.IncrementCount() })
	b.IncrementCount()

	assert.Equal(t, []int64{2}, got)
}
