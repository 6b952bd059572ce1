package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/golang/glog"
	"github.com/redis/go-redis/v9"
)

const ChannelPrefix = "changes:"

// RedisFeed 基于 redis pub/sub 的跨进程变更通知，每张表一个频道
type RedisFeed struct {
	rdb    *redis.Client
	buffer int
}

func NewRedisFeed(rdb *redis.Client) *RedisFeed {
	return &RedisFeed{rdb: rdb, buffer: DefaultBuffer}
}

func channelFor(table string) string {
	return ChannelPrefix + table
}

func (f *RedisFeed) Publish(ctx context.Context, e Event) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := f.rdb.Publish(ctx, channelFor(e.Table), b).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", e.Table, err)
	}
	return nil
}

func (f *RedisFeed) Subscribe(ctx context.Context, filter Filter) (*Subscription, error) {
	ps := f.rdb.Subscribe(ctx, channelFor(filter.Table))
	// 等待订阅确认，避免确认前发布的事件丢失
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", filter.Table, err)
	}

	out := make(chan Event, f.buffer)
	done := make(chan struct{})
	go func() {
		defer close(out)
		msgs := ps.Channel()
		for {
			select {
			case <-done:
				return
			case m, ok := <-msgs:
				if !ok {
					return
				}
				var e Event
				if err := json.Unmarshal([]byte(m.Payload), &e); err != nil {
					glog.Warningf("realtime: bad payload on %s: %v", m.Channel, err)
					continue
				}
				if !filter.Matches(e) {
					continue
				}
				select {
				case out <- e:
				case <-done:
					return
				default:
					glog.Warningf("realtime: subscriber lagging, dropped %s on %s", e.Type, e.Table)
				}
			}
		}
	}()

	return newSubscription(out, func() {
		close(done)
		_ = ps.Close()
	}), nil
}
