package mysql

import (
	"context"
	"encoding/json"

	"community_hub/internal/model"
	"community_hub/internal/realtime"

	"gorm.io/gorm"
)

type OutboxRepository struct {
	DB *gorm.DB
}

// Insert 与业务写入同事务
func (r *OutboxRepository) Insert(ctx context.Context, e realtime.Event, recordID string) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	ob := &model.ChangeOutbox{
		Relation:  e.Table,
		EventType: string(e.Type),
		RecordID:  recordID,
		Payload:   string(payload),
		Status:    model.OutboxPending,
	}
	return r.DB.WithContext(ctx).Create(ob).Error
}

// List 待投递以及未超过重试上限的失败记录
func (r *OutboxRepository) List(ctx context.Context, batchSize, maxRetry int) ([]model.ChangeOutbox, error) {
	var list []model.ChangeOutbox
	if err := r.DB.WithContext(ctx).
		Where("status = ? OR (status = ? AND retry < ?)", model.OutboxPending, model.OutboxFailed, maxRetry).
		Order("id ASC").
		Limit(batchSize).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// RetryUpdate outbox记录消息失败重试
func (r *OutboxRepository) RetryUpdate(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.ChangeOutbox{}).Where("id = ?", id).
		Updates(map[string]any{"status": model.OutboxFailed, "retry": gorm.Expr("retry + 1")}).Error
}

// SuccessUpdate outbox成功记录消息更新
func (r *OutboxRepository) SuccessUpdate(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.ChangeOutbox{}).Where("id = ?", id).
		Update("status", model.OutboxSent).Error
}
