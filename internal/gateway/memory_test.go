package gateway

import (
	"context"
	"testing"
	"time"

	"community_hub/internal/model"
	"community_hub/internal/realtime"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func seedUser(t *testing.T, g *Memory, id, email string) {
	t.Helper()
	err := g.CreateAccount(context.Background(),
		&model.User{ID: id, Email: email, Password: "x"},
		&model.Profile{ID: id, Email: email})
	require.NoError(t, err)
}

func TestMemory_CreateCommunityAddsCreator(t *testing.T) {
	ctx := context.Background()
	g := NewMemory(nil)
	seedUser(t, g, "u1", "a@example.com")

	c := &model.Community{Name: "Go", Description: "gophers unite", CreatedBy: "u1"}
	require.NoError(t, g.CreateCommunity(ctx, c))
	require.NotEmpty(t, c.ID)

	row, err := g.GetCommunity(ctx, c.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, row.MemberCount)

	members, err := g.ListMembers(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "u1", members[0].UserID)
	assert.Equal(t, "a@example.com", members[0].User.Email)
}

func TestMemory_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	g := NewMemory(nil)
	for _, name := range []string{"first", "second", "third"} {
		require.NoError(t, g.CreateCommunity(ctx, &model.Community{Name: name, CreatedBy: "u1"}))
	}
	rows, err := g.ListCommunities(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "third", rows[0].Name)
	assert.Equal(t, "first", rows[2].Name)
}

func TestMemory_JoinLeaveRoundTrip(t *testing.T) {
	ctx := context.Background()
	g := NewMemory(nil)
	c := &model.Community{Name: "Go", CreatedBy: "owner"}
	require.NoError(t, g.CreateCommunity(ctx, c))

	_, err := g.InsertMember(ctx, c.ID, "u2")
	require.NoError(t, err)
	_, err = g.InsertMember(ctx, c.ID, "u2")
	assert.ErrorIs(t, err, ErrAlreadyMember)

	row, _ := g.GetCommunity(ctx, c.ID)
	assert.EqualValues(t, 2, row.MemberCount)

	require.NoError(t, g.DeleteMember(ctx, c.ID, "u2"))
	assert.ErrorIs(t, g.DeleteMember(ctx, c.ID, "u2"), ErrNotMember)

	row, _ = g.GetCommunity(ctx, c.ID)
	assert.EqualValues(t, 1, row.MemberCount)
	ok, err := g.IsMember(ctx, c.ID, "u2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_InsertMemberUnknownCommunity(t *testing.T) {
	_, err := NewMemory(nil).InsertMember(context.Background(), "missing", "u1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_CreatedAndJoinedAreDisjoint(t *testing.T) {
	ctx := context.Background()
	g := NewMemory(nil)
	mine := &model.Community{Name: "mine", CreatedBy: "u1"}
	other := &model.Community{Name: "other", CreatedBy: "u2"}
	require.NoError(t, g.CreateCommunity(ctx, mine))
	require.NoError(t, g.CreateCommunity(ctx, other))
	_, err := g.InsertMember(ctx, other.ID, "u1")
	require.NoError(t, err)

	created, err := g.CommunitiesCreatedBy(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "mine", created[0].Name)

	joined, err := g.CommunitiesJoinedBy(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, joined, 1)
	assert.Equal(t, "other", joined[0].Name)
}

func TestMemory_UpdateProfilePatch(t *testing.T) {
	ctx := context.Background()
	g := NewMemory(nil)
	seedUser(t, g, "u1", "a@example.com")

	p, err := g.UpdateProfile(ctx, "u1", ProfilePatch{FullName: strPtr("Ada")})
	require.NoError(t, err)
	assert.Equal(t, "Ada", *p.FullName)
	assert.Nil(t, p.AvatarURL)

	p, err = g.UpdateProfile(ctx, "u1", ProfilePatch{AvatarURL: strPtr("https://img/a.png")})
	require.NoError(t, err)
	assert.Equal(t, "Ada", *p.FullName)
	assert.Equal(t, "https://img/a.png", *p.AvatarURL)

	_, err = g.UpdateProfile(ctx, "nobody", ProfilePatch{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	g := NewMemory(nil)
	seedUser(t, g, "u1", "a@example.com")
	err := g.CreateAccount(ctx, &model.User{ID: "u2", Email: "A@example.com"}, &model.Profile{ID: "u2"})
	assert.ErrorIs(t, err, ErrConflict)

	u, err := g.FindUserByEmail(ctx, "A@EXAMPLE.COM")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
}

func TestMemory_PublishesMemberEvents(t *testing.T) {
	ctx := context.Background()
	g := NewMemory(nil)
	c := &model.Community{Name: "Go", CreatedBy: "owner"}
	require.NoError(t, g.CreateCommunity(ctx, c))

	sub, err := g.Subscribe(ctx, realtime.Filter{Table: TableMembers, Column: "community_id", Value: c.ID})
	require.NoError(t, err)
	defer sub.Close()

	_, err = g.InsertMember(ctx, c.ID, "u2")
	require.NoError(t, err)

	select {
	case e := <-sub.C:
		assert.Equal(t, realtime.Insert, e.Type)
		assert.Equal(t, "u2", e.Record["user_id"])
	case <-time.After(time.Second):
		t.Fatal("expected member event")
	}
}
