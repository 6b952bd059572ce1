package mysql

import (
	"context"
	"errors"
	"fmt"

	"community_hub/internal/gateway"
	"community_hub/internal/model"
	"community_hub/internal/realtime"

	"github.com/golang/glog"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store is the MySQL-backed gateway. Each write commits together with its
// change_outbox row and is announced on the feed after commit.
type Store struct {
	DB   *gorm.DB
	feed realtime.Feed

	communities *CommunityRepository
	members     *CommunityMemberRepository
	users       *UserRepository
	profiles    *ProfileRepository
}

func NewStore(db *gorm.DB, feed realtime.Feed) *Store {
	return &Store{
		DB:          db,
		feed:        feed,
		communities: &CommunityRepository{DB: db},
		members:     &CommunityMemberRepository{DB: db},
		users:       &UserRepository{DB: db},
		profiles:    &ProfileRepository{DB: db},
	}
}

func (s *Store) publish(ctx context.Context, events ...realtime.Event) {
	for _, e := range events {
		if err := s.feed.Publish(ctx, e); err != nil {
			glog.Warningf("mysql gateway: publish %s %s: %v", e.Type, e.Table, err)
		}
	}
}

func notFound(err error, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

func (s *Store) ListCommunities(ctx context.Context) ([]model.CommunityRow, error) {
	return s.communities.List(ctx)
}

func (s *Store) CommunitiesCreatedBy(ctx context.Context, userID string) ([]model.CommunityRow, error) {
	return s.communities.CreatedBy(ctx, userID)
}

func (s *Store) CommunitiesJoinedBy(ctx context.Context, userID string) ([]model.CommunityRow, error) {
	return s.communities.JoinedBy(ctx, userID)
}

func (s *Store) GetCommunity(ctx context.Context, id string) (*model.CommunityRow, error) {
	row, err := s.communities.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, gateway.ErrNotFound)
	}
	return row, nil
}

// CreateCommunity 社区和创建者成员关系在同一事务内写入
func (s *Store) CreateCommunity(ctx context.Context, c *model.Community) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	creator := &model.CommunityMember{
		ID:          uuid.NewString(),
		CommunityID: c.ID,
		UserID:      c.CreatedBy,
	}
	var events []realtime.Event
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		outbox := &OutboxRepository{DB: tx}
		if err := (&CommunityRepository{DB: tx}).Create(ctx, c); err != nil {
			return err
		}
		creator.CreatedAt = c.CreatedAt
		if err := (&CommunityMemberRepository{DB: tx}).Join(ctx, creator); err != nil {
			return err
		}
		events = []realtime.Event{
			gateway.CommunityEvent(realtime.Insert, c),
			gateway.MemberEvent(realtime.Insert, creator),
		}
		if err := outbox.Insert(ctx, events[0], c.ID); err != nil {
			return err
		}
		return outbox.Insert(ctx, events[1], creator.ID)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return gateway.ErrConflict
		}
		return fmt.Errorf("create community: %w", err)
	}
	s.publish(ctx, events...)
	return nil
}

func (s *Store) ListMembers(ctx context.Context, communityID string) ([]model.CommunityMember, error) {
	return s.members.ListByCommunity(ctx, communityID)
}

func (s *Store) IsMember(ctx context.Context, communityID, userID string) (bool, error) {
	return s.members.IsMember(ctx, communityID, userID)
}

func (s *Store) InsertMember(ctx context.Context, communityID, userID string) (*model.CommunityMember, error) {
	m := &model.CommunityMember{
		ID:          uuid.NewString(),
		CommunityID: communityID,
		UserID:      userID,
	}
	var event realtime.Event
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := (&CommunityMemberRepository{DB: tx}).Join(ctx, m); err != nil {
			return err
		}
		event = gateway.MemberEvent(realtime.Insert, m)
		return (&OutboxRepository{DB: tx}).Insert(ctx, event, m.ID)
	})
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return nil, gateway.ErrAlreadyMember
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return nil, gateway.ErrNotFound
	default:
		return nil, fmt.Errorf("insert member: %w", err)
	}
	s.publish(ctx, event)
	return m, nil
}

func (s *Store) DeleteMember(ctx context.Context, communityID, userID string) error {
	var event realtime.Event
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := &CommunityMemberRepository{DB: tx}
		m, err := repo.Find(ctx, communityID, userID)
		if err != nil {
			return notFound(err, gateway.ErrNotMember)
		}
		n, err := repo.Leave(ctx, m.ID)
		if err != nil {
			return err
		}
		if n == 0 {
			return gateway.ErrNotMember
		}
		event = gateway.MemberEvent(realtime.Delete, m)
		return (&OutboxRepository{DB: tx}).Insert(ctx, event, m.ID)
	})
	if err != nil {
		if errors.Is(err, gateway.ErrNotMember) {
			return err
		}
		return fmt.Errorf("delete member: %w", err)
	}
	s.publish(ctx, event)
	return nil
}

func (s *Store) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	p, err := s.profiles.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, gateway.ErrNotFound)
	}
	return p, nil
}

func (s *Store) UpdateProfile(ctx context.Context, id string, patch gateway.ProfilePatch) (*model.Profile, error) {
	fields := map[string]any{}
	if patch.FullName != nil {
		fields["full_name"] = *patch.FullName
	}
	if patch.AvatarURL != nil {
		fields["avatar_url"] = *patch.AvatarURL
	}
	var (
		p     *model.Profile
		event realtime.Event
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := &ProfileRepository{DB: tx}
		if len(fields) > 0 {
			if err := repo.Update(ctx, id, fields); err != nil {
				return err
			}
		}
		var err error
		if p, err = repo.FindByID(ctx, id); err != nil {
			return notFound(err, gateway.ErrNotFound)
		}
		event = gateway.ProfileEvent(realtime.Update, p)
		return (&OutboxRepository{DB: tx}).Insert(ctx, event, p.ID)
	})
	if err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	s.publish(ctx, event)
	return p, nil
}

func (s *Store) Subscribe(ctx context.Context, f realtime.Filter) (*realtime.Subscription, error) {
	return s.feed.Subscribe(ctx, f)
}

// CreateAccount 账号与资料同事务创建
func (s *Store) CreateAccount(ctx context.Context, u *model.User, p *model.Profile) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := (&UserRepository{DB: tx}).Create(ctx, u); err != nil {
			return err
		}
		if err := (&ProfileRepository{DB: tx}).Create(ctx, p); err != nil {
			return err
		}
		return (&OutboxRepository{DB: tx}).Insert(ctx, gateway.ProfileEvent(realtime.Insert, p), p.ID)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return gateway.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	s.publish(ctx, gateway.ProfileEvent(realtime.Insert, p))
	return nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, notFound(err, gateway.ErrNotFound)
	}
	return u, nil
}

var _ gateway.Gateway = (*Store)(nil)
