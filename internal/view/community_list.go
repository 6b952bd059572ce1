package view

import (
	"context"
	"fmt"
	"strings"

	"community_hub/internal/gateway"
	"community_hub/internal/realtime"
)

const EmptyListMessage = "There are no communities yet. Be the first to create one!"

type CommunityList struct {
	live
	items  []Community
	loaded bool
}

func NewCommunityList(gw gateway.Gateway) *CommunityList {
	return &CommunityList{live: live{gw: gw}}
}

func (v *CommunityList) reload(ctx context.Context, gen uint64) error {
	rows, err := v.gw.ListCommunities(ctx)
	if err != nil {
		return fmt.Errorf("list communities: %w", err)
	}
	items := communitiesFromRows(rows)
	v.commit(gen, func() {
		v.items = items
		v.loaded = true
	})
	return nil
}

// Load reads the list once without subscribing.
func (v *CommunityList) Load(ctx context.Context) error {
	return v.reload(ctx, v.generation())
}

func (v *CommunityList) Activate(ctx context.Context) error {
	return v.activate(ctx, realtime.Filter{Table: gateway.TableCommunities}, v.reload)
}

func (v *CommunityList) Deactivate() {
	v.deactivate()
}

func (v *CommunityList) Loaded() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loaded
}

// Items 最新在前
func (v *CommunityList) Items() []Community {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]Community(nil), v.items...)
}

// Filter 对已加载列表做大小写不敏感的名称或描述子串匹配
func (v *CommunityList) Filter(query string) []Community {
	all := v.Items()
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return all
	}
	out := make([]Community, 0, len(all))
	for _, c := range all {
		if strings.Contains(strings.ToLower(c.Name), q) || strings.Contains(strings.ToLower(c.Description), q) {
			out = append(out, c)
		}
	}
	return out
}

type ListPage struct {
	Query       string      `json:"query"`
	Communities []Community `json:"communities"`
	Message     string      `json:"message,omitempty"`
}

func (v *CommunityList) Render(query string) ListPage {
	items := v.Filter(query)
	page := ListPage{Query: query, Communities: items}
	if len(items) == 0 {
		if strings.TrimSpace(query) != "" {
			page.Message = fmt.Sprintf("No communities match %q", query)
		} else {
			page.Message = EmptyListMessage
		}
	}
	return page
}
