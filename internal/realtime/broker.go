package realtime

import (
	"context"
	"sync"

	"github.com/golang/glog"
)

const DefaultBuffer = 16

type brokerSub struct {
	filter Filter
	ch     chan Event
}

// Broker 进程内的变更广播，投递不阻塞发布者
type Broker struct {
	mu     sync.RWMutex
	subs   map[uint64]*brokerSub
	next   uint64
	buffer int
}

func NewBroker() *Broker {
	return &Broker{
		subs:   make(map[uint64]*brokerSub),
		buffer: DefaultBuffer,
	}
}

func (b *Broker) Publish(_ context.Context, e Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, s := range b.subs {
		if !s.filter.Matches(e) {
			continue
		}
		select {
		case s.ch <- e:
		default:
			// 订阅方积压时丢弃：处理方总是全量重读，丢一条不影响最终状态
			glog.Warningf("realtime: subscriber %d lagging, dropped %s on %s", id, e.Type, e.Table)
		}
	}
	return nil
}

func (b *Broker) Subscribe(_ context.Context, f Filter) (*Subscription, error) {
	b.mu.Lock()
	b.next++
	id := b.next
	ch := make(chan Event, b.buffer)
	b.subs[id] = &brokerSub{filter: f, ch: ch}
	b.mu.Unlock()

	return newSubscription(ch, func() {
		b.mu.Lock()
		delete(b.subs, id)
		close(ch)
		b.mu.Unlock()
	}), nil
}

// Len reports the number of open subscriptions.
func (b *Broker) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
