package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *redis.Client {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisFeed_PublishSubscribe(t *testing.T) {
	feed := NewRedisFeed(setupTestRedis(t))
	ctx := context.Background()

	sub, err := feed.Subscribe(ctx, Filter{Table: "community_members", Column: "community_id", Value: "c1"})
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, feed.Publish(ctx, memberEvent(Insert, "other")))
	require.NoError(t, feed.Publish(ctx, memberEvent(Insert, "c1")))

	select {
	case e := <-sub.C:
		assert.Equal(t, "c1", e.Record["community_id"])
		assert.Equal(t, Insert, e.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("expected event from redis")
	}
}

func TestRedisFeed_CloseEndsStream(t *testing.T) {
	feed := NewRedisFeed(setupTestRedis(t))

	sub, err := feed.Subscribe(context.Background(), Filter{Table: "communities"})
	require.NoError(t, err)
	sub.Close()

	select {
	case _, ok := <-sub.C:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed")
	}
}
