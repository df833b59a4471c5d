package notestore

import (
	"context"
	"sync"
)

// keyedLock serializes work per note id. Waiting honors ctx.
type keyedLock struct {
	mu    sync.Mutex
	slots map[int64]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

func newKeyedLock() *keyedLock {
	return &keyedLock{slots: make(map[int64]*slot)}
}

func (l *keyedLock) acquire(ctx context.Context, id int64) (release func(), err error) {
	l.mu.Lock()
	s, ok := l.slots[id]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[id] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-s.ch
				l.unref(id, s)
			})
		}, nil
	case <-ctx.Done():
		l.unref(id, s)
		return nil, ctx.Err()
	}
}

func (l *keyedLock) unref(id int64, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, id)
	}
}
