package mysql

import (
	"context"

	"community_hub/internal/model"

	"gorm.io/gorm"
)

// member_count 读时计算
const rowSelect = "communities.*, (SELECT COUNT(*) FROM community_members WHERE community_members.community_id = communities.id) AS member_count"

type CommunityRepository struct {
	DB *gorm.DB
}

func (r *CommunityRepository) Create(ctx context.Context, c *model.Community) error {
	return r.DB.WithContext(ctx).Create(c).Error
}

func (r *CommunityRepository) rows(ctx context.Context) *gorm.DB {
	return r.DB.WithContext(ctx).Model(&model.Community{}).Select(rowSelect)
}

func (r *CommunityRepository) FindByID(ctx context.Context, id string) (*model.CommunityRow, error) {
	var list []model.CommunityRow
	if err := r.rows(ctx).Where("communities.id = ?", id).Limit(1).Scan(&list).Error; err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &list[0], nil
}

// List 最新在前
func (r *CommunityRepository) List(ctx context.Context) ([]model.CommunityRow, error) {
	list := make([]model.CommunityRow, 0)
	err := r.rows(ctx).Order("communities.created_at DESC").Scan(&list).Error
	return list, err
}

func (r *CommunityRepository) CreatedBy(ctx context.Context, userID string) ([]model.CommunityRow, error) {
	list := make([]model.CommunityRow, 0)
	err := r.rows(ctx).
		Where("communities.created_by = ?", userID).
		Order("communities.created_at DESC").
		Scan(&list).Error
	return list, err
}

// JoinedBy 已加入但不是自己创建的社区
func (r *CommunityRepository) JoinedBy(ctx context.Context, userID string) ([]model.CommunityRow, error) {
	list := make([]model.CommunityRow, 0)
	err := r.rows(ctx).
		Joins("JOIN community_members cm ON cm.community_id = communities.id").
		Where("cm.user_id = ? AND communities.created_by <> ?", userID, userID).
		Order("communities.created_at DESC").
		Scan(&list).Error
	return list, err
}
