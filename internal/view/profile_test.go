package view

import (
	"context"
	"testing"
	"time"

	"community_hub/internal/media"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfile_CreatedAndJoined(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sess := f.signedIn(t, "u1", "ada@example.com")
	f.community(t, "Mine", "my own community", "u1")
	other := f.community(t, "Theirs", "somebody else's", "u2")
	_, err := f.g.InsertMember(ctx, other, "u1")
	require.NoError(t, err)

	v := NewProfile(f.g, sess, &fakeUploader{})
	require.NoError(t, v.Load(ctx))

	page := v.Render()
	require.NotNil(t, page.User)
	assert.Equal(t, "ada@example.com", page.User.Email)
	require.Len(t, page.Created, 1)
	assert.Equal(t, "Mine", page.Created[0].Name)
	require.Len(t, page.Joined, 1)
	assert.Equal(t, "Theirs", page.Joined[0].Name)
}

func TestProfile_RequiresSignIn(t *testing.T) {
	f := newFixture()
	v := NewProfile(f.g, f.anonymous(), &fakeUploader{})
	assert.ErrorIs(t, v.Load(context.Background()), ErrSignInRequired)
	assert.ErrorIs(t, v.Activate(context.Background()), ErrSignInRequired)
	_, err := v.Update(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrSignInRequired)
}

func TestProfile_UpdateUploadsAvatar(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sess := f.signedIn(t, "u1", "ada@example.com")
	up := &fakeUploader{url: "https://img/ada.png"}
	v := NewProfile(f.g, sess, up)

	name := "Ada Lovelace"
	u, err := v.Update(ctx, &name, &media.File{Name: "ada.png", Data: []byte("png")})
	require.NoError(t, err)
	assert.Equal(t, 1, up.calls)
	assert.Equal(t, "Ada Lovelace", *u.FullName)
	assert.Equal(t, "https://img/ada.png", *u.AvatarURL)
	assert.Equal(t, "Ada Lovelace", sess.User().DisplayName())

	// 只改名字时头像保持不变
	name = "Ada"
	u, err = v.Update(ctx, &name, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://img/ada.png", *u.AvatarURL)
	assert.Equal(t, 1, up.calls)
}

func TestProfile_UploadFailureLeavesProfile(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sess := f.signedIn(t, "u1", "ada@example.com")
	v := NewProfile(f.g, sess, &fakeUploader{err: media.ErrUploadFailed})

	name := "Ada"
	_, err := v.Update(ctx, &name, &media.File{Name: "ada.png", Data: []byte("png")})
	assert.ErrorIs(t, err, media.ErrUploadFailed)

	p, err := f.g.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, p.FullName)
}

func TestProfile_ActiveViewFollowsMembership(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	sess := f.signedIn(t, "u1", "ada@example.com")
	other := f.community(t, "Theirs", "somebody else's", "u2")

	v := NewProfile(f.g, sess, &fakeUploader{})
	require.NoError(t, v.Activate(ctx))
	defer v.Deactivate()
	assert.Empty(t, v.Joined())

	_, err := f.g.InsertMember(ctx, other, "u1")
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return len(v.Joined()) == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, f.g.DeleteMember(ctx, other, "u1"))
	assert.Eventually(t, func() bool { return len(v.Joined()) == 0 }, time.Second, 10*time.Millisecond)
}
