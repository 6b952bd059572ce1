package realtime

import (
	"context"
	"sync"
	"time"
)

type EventType string

const (
	Insert EventType = "INSERT"
	Update EventType = "UPDATE"
	Delete EventType = "DELETE"
)

// Event 一次行级变更通知，Record 只携带用于过滤的列
type Event struct {
	Table  string            `json:"table"`
	Type   EventType         `json:"type"`
	Record map[string]string `json:"record"`
	At     time.Time         `json:"at"`
}

// Filter selects events of one relation, optionally narrowed to rows whose
// Column equals Value.
type Filter struct {
	Table  string
	Column string
	Value  string
}

func (f Filter) Matches(e Event) bool {
	if f.Table != e.Table {
		return false
	}
	if f.Column == "" {
		return true
	}
	return e.Record[f.Column] == f.Value
}

type Feed interface {
	Publish(ctx context.Context, e Event) error
	Subscribe(ctx context.Context, f Filter) (*Subscription, error)
}

// Subscription delivers matching events on C until Close. C is closed once the
// subscription is torn down.
type Subscription struct {
	C    <-chan Event
	once sync.Once
	stop func()
}

func newSubscription(c <-chan Event, stop func()) *Subscription {
	return &Subscription{C: c, stop: stop}
}

// Close 幂等
func (s *Subscription) Close() {
	s.once.Do(s.stop)
}
