package gateway

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"community_hub/internal/model"
	"community_hub/internal/realtime"

	"github.com/golang/glog"
	"github.com/google/uuid"
)

// Memory is an in-process Gateway used for local development and tests. It
// enforces the same uniqueness rules as the MySQL schema.
type Memory struct {
	mu          sync.RWMutex
	feed        realtime.Feed
	communities map[string]model.Community
	order       []string
	members     map[string]model.CommunityMember
	profiles    map[string]model.Profile
	users       map[string]model.User
	now         func() time.Time
}

func NewMemory(feed realtime.Feed) *Memory {
	if feed == nil {
		feed = realtime.NewBroker()
	}
	return &Memory{
		feed:        feed,
		communities: make(map[string]model.Community),
		members:     make(map[string]model.CommunityMember),
		profiles:    make(map[string]model.Profile),
		users:       make(map[string]model.User),
		now:         time.Now,
	}
}

func (m *Memory) publish(ctx context.Context, e realtime.Event) {
	if err := m.feed.Publish(ctx, e); err != nil {
		glog.Warningf("gateway: publish %s %s: %v", e.Type, e.Table, err)
	}
}

func (m *Memory) countLocked(communityID string) int64 {
	var n int64
	for _, mem := range m.members {
		if mem.CommunityID == communityID {
			n++
		}
	}
	return n
}

// 按创建顺序倒序，即最新在前
func (m *Memory) rowsLocked(keep func(model.Community) bool) []model.CommunityRow {
	rows := make([]model.CommunityRow, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		c := m.communities[m.order[i]]
		if keep != nil && !keep(c) {
			continue
		}
		rows = append(rows, model.CommunityRow{Community: c, MemberCount: m.countLocked(c.ID)})
	}
	return rows
}

func (m *Memory) ListCommunities(_ context.Context) ([]model.CommunityRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rowsLocked(nil), nil
}

func (m *Memory) CommunitiesCreatedBy(_ context.Context, userID string) ([]model.CommunityRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rowsLocked(func(c model.Community) bool { return c.CreatedBy == userID }), nil
}

func (m *Memory) CommunitiesJoinedBy(_ context.Context, userID string) ([]model.CommunityRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	joined := make(map[string]bool)
	for _, mem := range m.members {
		if mem.UserID == userID {
			joined[mem.CommunityID] = true
		}
	}
	return m.rowsLocked(func(c model.Community) bool {
		return joined[c.ID] && c.CreatedBy != userID
	}), nil
}

func (m *Memory) GetCommunity(_ context.Context, id string) (*model.CommunityRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.communities[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &model.CommunityRow{Community: c, MemberCount: m.countLocked(id)}, nil
}

func (m *Memory) CreateCommunity(ctx context.Context, c *model.Community) error {
	m.mu.Lock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if _, ok := m.communities[c.ID]; ok {
		m.mu.Unlock()
		return ErrConflict
	}
	c.CreatedAt = m.now()
	m.communities[c.ID] = *c
	m.order = append(m.order, c.ID)

	creator := model.CommunityMember{
		ID:          uuid.NewString(),
		CommunityID: c.ID,
		UserID:      c.CreatedBy,
		CreatedAt:   c.CreatedAt,
	}
	m.members[creator.ID] = creator
	m.mu.Unlock()

	m.publish(ctx, CommunityEvent(realtime.Insert, c))
	m.publish(ctx, MemberEvent(realtime.Insert, &creator))
	return nil
}

func (m *Memory) ListMembers(_ context.Context, communityID string) ([]model.CommunityMember, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := make([]model.CommunityMember, 0)
	for _, mem := range m.members {
		if mem.CommunityID != communityID {
			continue
		}
		mem.User = m.profiles[mem.UserID]
		list = append(list, mem)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list, nil
}

func (m *Memory) findMemberLocked(communityID, userID string) (model.CommunityMember, bool) {
	for _, mem := range m.members {
		if mem.CommunityID == communityID && mem.UserID == userID {
			return mem, true
		}
	}
	return model.CommunityMember{}, false
}

func (m *Memory) IsMember(_ context.Context, communityID, userID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.findMemberLocked(communityID, userID)
	return ok, nil
}

func (m *Memory) InsertMember(ctx context.Context, communityID, userID string) (*model.CommunityMember, error) {
	m.mu.Lock()
	if _, ok := m.communities[communityID]; !ok {
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	if _, ok := m.findMemberLocked(communityID, userID); ok {
		m.mu.Unlock()
		return nil, ErrAlreadyMember
	}
	mem := model.CommunityMember{
		ID:          uuid.NewString(),
		CommunityID: communityID,
		UserID:      userID,
		CreatedAt:   m.now(),
	}
	m.members[mem.ID] = mem
	m.mu.Unlock()

	m.publish(ctx, MemberEvent(realtime.Insert, &mem))
	return &mem, nil
}

func (m *Memory) DeleteMember(ctx context.Context, communityID, userID string) error {
	m.mu.Lock()
	mem, ok := m.findMemberLocked(communityID, userID)
	if !ok {
		m.mu.Unlock()
		return ErrNotMember
	}
	delete(m.members, mem.ID)
	m.mu.Unlock()

	m.publish(ctx, MemberEvent(realtime.Delete, &mem))
	return nil
}

func (m *Memory) GetProfile(_ context.Context, id string) (*model.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *Memory) UpdateProfile(ctx context.Context, id string, patch ProfilePatch) (*model.Profile, error) {
	m.mu.Lock()
	p, ok := m.profiles[id]
	if !ok {
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	if patch.FullName != nil {
		p.FullName = patch.FullName
	}
	if patch.AvatarURL != nil {
		p.AvatarURL = patch.AvatarURL
	}
	m.profiles[id] = p
	m.mu.Unlock()

	m.publish(ctx, ProfileEvent(realtime.Update, &p))
	return &p, nil
}

func (m *Memory) Subscribe(ctx context.Context, f realtime.Filter) (*realtime.Subscription, error) {
	return m.feed.Subscribe(ctx, f)
}

// CreateAccount stores the credentials and the mirrored profile together.
func (m *Memory) CreateAccount(ctx context.Context, u *model.User, p *model.Profile) error {
	m.mu.Lock()
	email := strings.ToLower(u.Email)
	for _, existing := range m.users {
		if strings.ToLower(existing.Email) == email {
			m.mu.Unlock()
			return ErrConflict
		}
	}
	now := m.now()
	u.CreatedAt, u.UpdatedAt, p.CreatedAt = now, now, now
	m.users[u.ID] = *u
	m.profiles[p.ID] = *p
	m.mu.Unlock()

	m.publish(ctx, ProfileEvent(realtime.Insert, p))
	return nil
}

func (m *Memory) FindUserByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	email = strings.ToLower(email)
	for _, u := range m.users {
		if strings.ToLower(u.Email) == email {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}
