// Package chat keeps one assistant conversation. The transcript lives only in
// memory and is sent in full on every turn.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"community_hub/internal/assistant"

	"github.com/golang/glog"
)

const (
	Greeting = "Hello! I'm your community assistant. How can I help you today?"
	Fallback = "I encountered an error. Please try again later."
)

type Gate string

const (
	GateOpen        Gate = "open"
	GateLocked      Gate = "locked"
	GateMembersOnly Gate = "members_only"
)

var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrLocked       = errors.New("sign in to use the assistant")
	ErrMembersOnly  = errors.New("join this community to use the assistant")
	ErrBusy         = errors.New("assistant is still answering")
)

type Identity interface {
	UserID() string
}

type MembershipChecker interface {
	IsMember(ctx context.Context, communityID, userID string) (bool, error)
}

type Option func(*Session)

// WithCommunity 限定社区成员才能使用
func WithCommunity(communityID string, members MembershipChecker) Option {
	return func(s *Session) {
		s.communityID = communityID
		s.members = members
	}
}

func WithLimits(l *Limits) Option {
	return func(s *Session) { s.limits = l }
}

// WithTranscript resumes a conversation the client kept.
func WithTranscript(msgs []assistant.Message) Option {
	return func(s *Session) {
		if len(msgs) > 0 {
			s.transcript = append([]assistant.Message(nil), msgs...)
		}
	}
}

type Session struct {
	completer   assistant.Completer
	identity    Identity
	communityID string
	members     MembershipChecker
	limits      *Limits

	mu         sync.Mutex
	transcript []assistant.Message
	generating bool
}

func New(completer assistant.Completer, identity Identity, opts ...Option) *Session {
	s := &Session{
		completer:  completer,
		identity:   identity,
		transcript: []assistant.Message{{Role: assistant.RoleModel, Parts: Greeting}},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) CommunityID() string { return s.communityID }

// Gate 未登录锁定；限定社区时非成员只能看到提示
func (s *Session) Gate(ctx context.Context) Gate {
	uid := s.identity.UserID()
	if uid == "" {
		return GateLocked
	}
	if s.communityID == "" {
		return GateOpen
	}
	ok, err := s.members.IsMember(ctx, s.communityID, uid)
	if err != nil {
		glog.Warningf("chat: membership check %s/%s: %v", s.communityID, uid, err)
		return GateMembersOnly
	}
	if !ok {
		return GateMembersOnly
	}
	return GateOpen
}

func (s *Session) Transcript() []assistant.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]assistant.Message(nil), s.transcript...)
}

func (s *Session) Generating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generating
}

// Send 追加用户消息并请求补全；补全失败或被限流时追加固定的兜底回复，不返回错误
func (s *Session) Send(ctx context.Context, text string) (assistant.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return assistant.Message{}, ErrEmptyMessage
	}
	switch s.Gate(ctx) {
	case GateLocked:
		return assistant.Message{}, ErrLocked
	case GateMembersOnly:
		return assistant.Message{}, ErrMembersOnly
	}

	s.mu.Lock()
	if s.generating {
		s.mu.Unlock()
		return assistant.Message{}, ErrBusy
	}
	s.generating = true
	s.transcript = append(s.transcript, assistant.Message{Role: assistant.RoleUser, Parts: text})
	snapshot := append([]assistant.Message(nil), s.transcript...)
	s.mu.Unlock()

	reply := assistant.Message{Role: assistant.RoleModel, Parts: Fallback}
	uid := s.identity.UserID()
	if s.limits != nil && !s.limits.Allow(uid) {
		glog.Warningf("chat: rate limited user %s", uid)
	} else if out, err := s.completer.Complete(ctx, snapshot); err != nil {
		glog.Errorf("chat: completion for %s: %v", uid, err)
	} else {
		reply.Parts = out
	}

	s.mu.Lock()
	s.transcript = append(s.transcript, reply)
	s.generating = false
	s.mu.Unlock()
	return reply, nil
}
