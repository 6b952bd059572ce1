package service

import (
	"context"
	"time"

	"community_hub/internal/model"
	"community_hub/internal/pkg"

	"github.com/golang/glog"
)

type OutboxStore interface {
	List(ctx context.Context, batchSize, maxRetry int) ([]model.ChangeOutbox, error)
	RetryUpdate(ctx context.Context, id uint64) error
	SuccessUpdate(ctx context.Context, id uint64) error
}

type Sender func(ctx context.Context, ob *model.ChangeOutbox) error

// OutboxRelayer 定时把 change_outbox 中待投递的变更发到 kafka
type OutboxRelayer struct {
	repo      OutboxStore
	batchSize int
	maxRetry  int
	interval  time.Duration
	sender    Sender
}

func NewOutboxRelayer(repo OutboxStore, sender Sender) *OutboxRelayer {
	return &OutboxRelayer{
		repo:      repo,
		batchSize: 200,
		maxRetry:  5,
		interval:  time.Second,
		sender:    sender,
	}
}

// Run outbox启动器
func (r *OutboxRelayer) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.drainOnce(ctx)
		}
	}
}

// drainOnce 返回本轮成功投递的条数
func (r *OutboxRelayer) drainOnce(ctx context.Context) int {
	rows, err := r.repo.List(ctx, r.batchSize, r.maxRetry)
	if err != nil {
		glog.Errorf("outbox query err: %v", err)
		return 0
	}
	sent := 0
	for i := range rows {
		ob := rows[i]
		if err = r.sender(ctx, &ob); err != nil {
			glog.Warningf("outbox send id=%d relation=%s: %v", ob.ID, ob.Relation, err)
			if err = r.repo.RetryUpdate(ctx, ob.ID); err != nil {
				glog.Errorf("outbox retry update id=%d: %v", ob.ID, err)
			}
			continue
		}
		if err = r.repo.SuccessUpdate(ctx, ob.ID); err != nil {
			glog.Errorf("outbox success update id=%d: %v", ob.ID, err)
			continue
		}
		sent++
	}
	return sent
}

func KafkaSender(p *pkg.KafkaProducer) Sender {
	return func(ctx context.Context, ob *model.ChangeOutbox) error {
		return p.Send(ctx, ob.RecordID, []byte(ob.Payload))
	}
}
