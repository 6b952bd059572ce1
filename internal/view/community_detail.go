package view

import (
	"context"
	"errors"
	"fmt"

	"community_hub/internal/gateway"
	"community_hub/internal/model"
	"community_hub/internal/realtime"
	"community_hub/internal/session"
)

type State string

const (
	StateLoading  State = "loading"
	StateReady    State = "ready"
	StateNotFound State = "not_found"
)

type CommunityDetail struct {
	live
	id   string
	sess *session.Store

	state     State
	community Community
	members   []Member
	isMember  bool
	joining   bool
	leaving   bool

	stopSession func()
}

func NewCommunityDetail(gw gateway.Gateway, sess *session.Store, id string) *CommunityDetail {
	return &CommunityDetail{live: live{gw: gw}, id: id, sess: sess, state: StateLoading}
}

func (v *CommunityDetail) reload(ctx context.Context, gen uint64) error {
	row, err := v.gw.GetCommunity(ctx, v.id)
	if errors.Is(err, gateway.ErrNotFound) {
		v.commit(gen, func() {
			v.state = StateNotFound
			v.community = Community{}
			v.members = nil
			v.isMember = false
		})
		return nil
	}
	if err != nil {
		return fmt.Errorf("get community %s: %w", v.id, err)
	}
	list, err := v.gw.ListMembers(ctx, v.id)
	if err != nil {
		return fmt.Errorf("list members %s: %w", v.id, err)
	}
	community, members := communityFromRow(*row), membersFromModel(list)
	uid := v.sess.UserID()
	isMember := false
	for _, m := range members {
		if uid != "" && m.UserID == uid {
			isMember = true
			break
		}
	}
	v.commit(gen, func() {
		v.state = StateReady
		v.community = community
		v.members = members
		v.isMember = isMember
	})
	return nil
}

func (v *CommunityDetail) Load(ctx context.Context) error {
	return v.reload(ctx, v.generation())
}

// Activate 订阅本社区的成员变更，登录身份变化时也重读
func (v *CommunityDetail) Activate(ctx context.Context) error {
	f := realtime.Filter{Table: gateway.TableMembers, Column: "community_id", Value: v.id}
	if err := v.activate(ctx, f, v.reload); err != nil {
		return err
	}
	stop := v.sess.Subscribe(func(*model.Profile) { v.spawn(v.reload) })
	v.mu.Lock()
	v.stopSession = stop
	v.mu.Unlock()
	return nil
}

func (v *CommunityDetail) Deactivate() {
	v.mu.Lock()
	stop := v.stopSession
	v.stopSession = nil
	v.mu.Unlock()
	if stop != nil {
		stop()
	}
	v.deactivate()
}

func (v *CommunityDetail) ID() string { return v.id }

func (v *CommunityDetail) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

func (v *CommunityDetail) Community() Community {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.community
}

func (v *CommunityDetail) Members() []Member {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]Member(nil), v.members...)
}

func (v *CommunityDetail) IsMember() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.isMember
}

func (v *CommunityDetail) Pending() (joining, leaving bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.joining, v.leaving
}

// begin 标记进行中的成员操作，同一时刻只允许一个
func (v *CommunityDetail) begin(flag *bool) (uint64, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.joining || v.leaving {
		return 0, ErrBusy
	}
	*flag = true
	return v.gen, nil
}

func (v *CommunityDetail) finish(gen uint64, flag *bool, ok bool, member bool) {
	v.mu.Lock()
	*flag = false
	v.mu.Unlock()
	if ok {
		v.commit(gen, func() { v.isMember = member })
	}
}

// Join 成功才置为成员；失败（包括重复加入）不改变现有标记
func (v *CommunityDetail) Join(ctx context.Context) error {
	uid := v.sess.UserID()
	if uid == "" {
		return ErrSignInRequired
	}
	gen, err := v.begin(&v.joining)
	if err != nil {
		return err
	}
	_, err = v.gw.InsertMember(ctx, v.id, uid)
	v.finish(gen, &v.joining, err == nil, true)
	return err
}

// Leave 成功才取消成员标记
func (v *CommunityDetail) Leave(ctx context.Context) error {
	uid := v.sess.UserID()
	if uid == "" {
		return ErrSignInRequired
	}
	gen, err := v.begin(&v.leaving)
	if err != nil {
		return err
	}
	err = v.gw.DeleteMember(ctx, v.id, uid)
	v.finish(gen, &v.leaving, err == nil, false)
	return err
}

type DetailPage struct {
	State     State     `json:"state"`
	Community Community `json:"community"`
	Members   []Member  `json:"members"`
	IsMember  bool      `json:"is_member"`
}

func (v *CommunityDetail) Render() DetailPage {
	v.mu.Lock()
	defer v.mu.Unlock()
	return DetailPage{
		State:     v.state,
		Community: v.community,
		Members:   append([]Member(nil), v.members...),
		IsMember:  v.isMember,
	}
}
