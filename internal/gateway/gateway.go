// Package gateway defines the data gateway the view-models and flows read and
// write through. Every successful write publishes a realtime change event.
package gateway

import (
	"context"
	"errors"
	"time"

	"community_hub/internal/model"
	"community_hub/internal/realtime"
)

const (
	TableCommunities = "communities"
	TableMembers     = "community_members"
	TableProfiles    = "profiles"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyMember = errors.New("already a member")
	ErrNotMember     = errors.New("not a member")
	ErrConflict      = errors.New("conflict")
)

// ProfilePatch 只更新非 nil 字段
type ProfilePatch struct {
	FullName  *string
	AvatarURL *string
}

type Gateway interface {
	ListCommunities(ctx context.Context) ([]model.CommunityRow, error)
	CommunitiesCreatedBy(ctx context.Context, userID string) ([]model.CommunityRow, error)
	CommunitiesJoinedBy(ctx context.Context, userID string) ([]model.CommunityRow, error)
	GetCommunity(ctx context.Context, id string) (*model.CommunityRow, error)
	CreateCommunity(ctx context.Context, c *model.Community) error

	ListMembers(ctx context.Context, communityID string) ([]model.CommunityMember, error)
	IsMember(ctx context.Context, communityID, userID string) (bool, error)
	InsertMember(ctx context.Context, communityID, userID string) (*model.CommunityMember, error)
	DeleteMember(ctx context.Context, communityID, userID string) error

	GetProfile(ctx context.Context, id string) (*model.Profile, error)
	UpdateProfile(ctx context.Context, id string, patch ProfilePatch) (*model.Profile, error)

	Subscribe(ctx context.Context, f realtime.Filter) (*realtime.Subscription, error)
}

func CommunityEvent(typ realtime.EventType, c *model.Community) realtime.Event {
	return realtime.Event{
		Table: TableCommunities,
		Type:  typ,
		Record: map[string]string{
			"id":         c.ID,
			"created_by": c.CreatedBy,
		},
		At: time.Now(),
	}
}

func MemberEvent(typ realtime.EventType, m *model.CommunityMember) realtime.Event {
	return realtime.Event{
		Table: TableMembers,
		Type:  typ,
		Record: map[string]string{
			"id":           m.ID,
			"community_id": m.CommunityID,
			"user_id":      m.UserID,
		},
		At: time.Now(),
	}
}

func ProfileEvent(typ realtime.EventType, p *model.Profile) realtime.Event {
	return realtime.Event{
		Table:  TableProfiles,
		Type:   typ,
		Record: map[string]string{"id": p.ID},
		At:     time.Now(),
	}
}
