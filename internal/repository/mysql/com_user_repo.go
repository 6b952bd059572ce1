package mysql

import (
	"context"

	"community_hub/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CommunityMemberRepository struct {
	DB *gorm.DB
}

// Join 依赖 (community_id, user_id) 唯一索引，重复加入返回 gorm.ErrDuplicatedKey
func (r *CommunityMemberRepository) Join(ctx context.Context, member *model.CommunityMember) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Create(member).Error
}

// Find 加行锁，供事务内的退出流程使用
func (r *CommunityMemberRepository) Find(ctx context.Context, communityID, userID string) (*model.CommunityMember, error) {
	var m model.CommunityMember
	err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		First(&m).Error
	return &m, err
}

func (r *CommunityMemberRepository) Leave(ctx context.Context, id string) (int64, error) {
	tx := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&model.CommunityMember{})
	return tx.RowsAffected, tx.Error
}

func (r *CommunityMemberRepository) IsMember(ctx context.Context, communityID, userID string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.CommunityMember{}).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Count(&count).Error
	return count > 0, err
}

// ListByCommunity 按加入时间正序，附带成员资料
func (r *CommunityMemberRepository) ListByCommunity(ctx context.Context, communityID string) ([]model.CommunityMember, error) {
	list := make([]model.CommunityMember, 0)
	err := r.DB.WithContext(ctx).
		Preload("User").
		Where("community_id = ?", communityID).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}
