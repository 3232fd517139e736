package devidp

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/andriwidi/go-session-orchestrator/internal/domain/identity"
)

type notification struct {
	principal *identity.Principal
}

// subscription delivers notifications to one callback via its own buffered
// channel and dispatch goroutine, preserving per-subscriber order.
type subscription struct {
	p    *Provider
	id   int
	cb   identity.Callback
	ch   chan notification
	once sync.Once
}

// push is called with p.mu held; it must never block.
func (s *subscription) push(pr *identity.Principal, logger *logrus.Logger) {
	var cp *identity.Principal
	if pr != nil {
		c := *pr
		cp = &c
	}
	select {
	case s.ch <- notification{principal: cp}:
	default:
		if logger != nil {
			logger.WithField("subscription", s.id).Warn("auth notification dropped, subscriber too slow")
		}
	}
}

func (s *subscription) dispatch() {
	for n := range s.ch {
		s.cb(n.principal)
	}
}

func (s *subscription) Unsubscribe() {
	s.once.Do(func() {
		s.p.mu.Lock()
		delete(s.p.subs, s.id)
		close(s.ch)
		s.p.mu.Unlock()
	})
}
