package view

import (
	"context"
	"fmt"

	"community_hub/internal/gateway"
	"community_hub/internal/media"
	"community_hub/internal/realtime"
	"community_hub/internal/session"
)

type Profile struct {
	live
	sess     *session.Store
	uploader media.Uploader

	user     *User
	created  []Community
	joined   []Community
	updating bool
}

func NewProfile(gw gateway.Gateway, sess *session.Store, uploader media.Uploader) *Profile {
	return &Profile{live: live{gw: gw}, sess: sess, uploader: uploader}
}

func (v *Profile) reload(ctx context.Context, gen uint64) error {
	uid := v.sess.UserID()
	if uid == "" {
		return ErrSignInRequired
	}
	p, err := v.gw.GetProfile(ctx, uid)
	if err != nil {
		return fmt.Errorf("get profile %s: %w", uid, err)
	}
	created, err := v.gw.CommunitiesCreatedBy(ctx, uid)
	if err != nil {
		return fmt.Errorf("created communities: %w", err)
	}
	joined, err := v.gw.CommunitiesJoinedBy(ctx, uid)
	if err != nil {
		return fmt.Errorf("joined communities: %w", err)
	}
	u := userFromProfile(*p)
	v.commit(gen, func() {
		v.user = &u
		v.created = communitiesFromRows(created)
		v.joined = communitiesFromRows(joined)
	})
	return nil
}

func (v *Profile) Load(ctx context.Context) error {
	return v.reload(ctx, v.generation())
}

// Activate 监听当前用户的成员关系变化
func (v *Profile) Activate(ctx context.Context) error {
	uid := v.sess.UserID()
	if uid == "" {
		return ErrSignInRequired
	}
	return v.activate(ctx, realtime.Filter{Table: gateway.TableMembers, Column: "user_id", Value: uid}, v.reload)
}

func (v *Profile) Deactivate() {
	v.deactivate()
}

func (v *Profile) User() *User {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.user == nil {
		return nil
	}
	u := *v.user
	return &u
}

func (v *Profile) Created() []Community {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]Community(nil), v.created...)
}

func (v *Profile) Joined() []Community {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]Community(nil), v.joined...)
}

// Update 可选地先上传新头像，再写 full_name / avatar_url
func (v *Profile) Update(ctx context.Context, fullName *string, avatar *media.File) (*User, error) {
	uid := v.sess.UserID()
	if uid == "" {
		return nil, ErrSignInRequired
	}
	v.mu.Lock()
	if v.updating {
		v.mu.Unlock()
		return nil, ErrBusy
	}
	v.updating = true
	gen := v.gen
	v.mu.Unlock()
	defer func() {
		v.mu.Lock()
		v.updating = false
		v.mu.Unlock()
	}()

	patch := gateway.ProfilePatch{FullName: fullName}
	if avatar != nil {
		url, err := v.uploader.Upload(ctx, *avatar)
		if err != nil {
			return nil, err
		}
		patch.AvatarURL = &url
	}
	p, err := v.gw.UpdateProfile(ctx, uid, patch)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	v.sess.SetProfile(p)
	u := userFromProfile(*p)
	v.commit(gen, func() { v.user = &u })
	return &u, nil
}

type ProfilePage struct {
	User    *User       `json:"user"`
	Created []Community `json:"created"`
	Joined  []Community `json:"joined"`
}

func (v *Profile) Render() ProfilePage {
	return ProfilePage{User: v.User(), Created: v.Created(), Joined: v.Joined()}
}
