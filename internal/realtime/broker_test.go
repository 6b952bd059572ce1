package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memberEvent(typ EventType, communityID string) Event {
	return Event{
		Table:  "community_members",
		Type:   typ,
		Record: map[string]string{"community_id": communityID, "user_id": "u1"},
		At:     time.Now(),
	}
}

func TestFilterMatches(t *testing.T) {
	e := memberEvent(Insert, "c1")

	assert.True(t, Filter{Table: "community_members"}.Matches(e))
	assert.True(t, Filter{Table: "community_members", Column: "community_id", Value: "c1"}.Matches(e))
	assert.False(t, Filter{Table: "community_members", Column: "community_id", Value: "c2"}.Matches(e))
	assert.False(t, Filter{Table: "communities"}.Matches(e))
}

func TestBroker_DeliversMatchingEvents(t *testing.T) {
	b := NewBroker()
	ctx := context.Background()

	sub, err := b.Subscribe(ctx, Filter{Table: "community_members", Column: "community_id", Value: "c1"})
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, b.Publish(ctx, memberEvent(Insert, "c2")))
	require.NoError(t, b.Publish(ctx, memberEvent(Delete, "c1")))

	select {
	case e := <-sub.C:
		assert.Equal(t, Delete, e.Type)
		assert.Equal(t, "c1", e.Record["community_id"])
	case <-time.After(time.Second):
		t.Fatal("expected event")
	}

	select {
	case e := <-sub.C:
		t.Fatalf("unexpected event %+v", e)
	default:
	}
}

func TestBroker_CloseIsIdempotentAndStopsDelivery(t *testing.T) {
	b := NewBroker()
	ctx := context.Background()

	sub, err := b.Subscribe(ctx, Filter{Table: "communities"})
	require.NoError(t, err)
	assert.Equal(t, 1, b.Len())

	sub.Close()
	sub.Close()
	assert.Equal(t, 0, b.Len())

	require.NoError(t, b.Publish(ctx, Event{Table: "communities", Type: Insert}))
	_, ok := <-sub.C
	assert.False(t, ok)
}

func TestBroker_DropsWhenSubscriberLags(t *testing.T) {
	b := NewBroker()
	ctx := context.Background()

	sub, err := b.Subscribe(ctx, Filter{Table: "communities"})
	require.NoError(t, err)
	defer sub.Close()

	for i := 0; i < DefaultBuffer+5; i++ {
		require.NoError(t, b.Publish(ctx, Event{Table: "communities", Type: Update}))
	}
	assert.Len(t, sub.C, DefaultBuffer)
}
