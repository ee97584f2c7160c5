package mainthread

import (
	"sync"
	"testing"
	"time"
)

func TestQueueOrder(t *testing.T) {
	q := NewQueue()
	var got []int
	for i := 0; i < 3; i++ {
		i := i
		q.Post(func() { got = append(got, i) })
	}
	if n := q.Drain(); n != 3 {
		t.Errorf("expected 3 callbacks, ran %d", n)
	}
	if len(got) != 3 || got[0] != 0 || got[2] != 2 {
		t.Errorf("unexpected order %v", got)
	}
	if q.Len() != 0 {
		t.Errorf("queue not empty")
	}
}

func TestQueuePostDuringDrain(t *testing.T) {
	q := NewQueue()
	ran := 0
	q.Post(func() {
		ran++
		q.Post(func() { ran++ })
	})
	q.Drain()
	if ran != 1 || q.Len() != 1 {
		t.Errorf("nested post should wait for next drain: ran=%d len=%d", ran, q.Len())
	}
	q.Drain()
	if ran != 2 {
		t.Errorf("expected 2, got %d", ran)
	}
}

func TestQueueConcurrentPost(t *testing.T) {
	q := NewQueue()
	woken := 0
	var mu sync.Mutex
	q.Wake = func() {
		mu.Lock()
		woken++
		mu.Unlock()
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Post(func() {})
		}()
	}
	wg.Wait()

	select {
	case <-q.Ready():
	case <-time.After(time.Second):
		t.Fatal("ready never signalled")
	}
	if n := q.Drain(); n != 50 {
		t.Errorf("expected 50, got %d", n)
	}
	if woken != 50 {
		t.Errorf("expected 50 wakes, got %d", woken)
	}
}
