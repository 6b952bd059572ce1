// Package view holds the per-page view-models. Each one reads its aggregate
// through the gateway and re-reads it whenever a matching change arrives.
package view

import (
	"errors"
	"time"

	"community_hub/internal/model"
)

var (
	ErrSignInRequired = errors.New("sign in required")
	ErrBusy           = errors.New("another action is in progress")
	ErrActive         = errors.New("view already active")
)

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  *string   `json:"full_name"`
	AvatarURL *string   `json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
}

type Community struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
	CreatedBy   string    `json:"created_by"`
	MemberCount int64     `json:"member_count"`
}

type Member struct {
	ID          string    `json:"id"`
	CommunityID string    `json:"community_id"`
	UserID      string    `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	User        User      `json:"user"`
}

func userFromProfile(p model.Profile) User {
	return User{
		ID:        p.ID,
		Email:     p.Email,
		FullName:  p.FullName,
		AvatarURL: p.AvatarURL,
		CreatedAt: p.CreatedAt,
	}
}

func communityFromRow(r model.CommunityRow) Community {
	return Community{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		ImageURL:    r.ImageURL,
		CreatedAt:   r.CreatedAt,
		CreatedBy:   r.CreatedBy,
		MemberCount: r.MemberCount,
	}
}

func communitiesFromRows(rows []model.CommunityRow) []Community {
	out := make([]Community, 0, len(rows))
	for _, r := range rows {
		out = append(out, communityFromRow(r))
	}
	return out
}

func membersFromModel(list []model.CommunityMember) []Member {
	out := make([]Member, 0, len(list))
	for _, m := range list {
		out = append(out, Member{
			ID:          m.ID,
			CommunityID: m.CommunityID,
			UserID:      m.UserID,
			CreatedAt:   m.CreatedAt,
			User:        userFromProfile(m.User),
		})
	}
	return out
}
