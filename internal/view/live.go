package view

import (
	"context"
	"sync"

	"community_hub/internal/gateway"
	"community_hub/internal/realtime"

	"github.com/golang/glog"
)

type reloadFunc func(ctx context.Context, gen uint64) error

// live 管理一个视图的订阅生命周期。gen 在每次停用时递增，
// 旧代次的读取结果一律丢弃
type live struct {
	gw gateway.Gateway

	mu        sync.Mutex
	gen       uint64
	active    bool
	ctx       context.Context
	cancel    context.CancelFunc
	sub       *realtime.Subscription
	wg        sync.WaitGroup
	listeners map[uint64]func()
	nextL     uint64
}

func (l *live) generation() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gen
}

func (l *live) Active() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// OnChange registers fn to run after every committed state change.
func (l *live) OnChange(fn func()) func() {
	l.mu.Lock()
	if l.listeners == nil {
		l.listeners = make(map[uint64]func())
	}
	l.nextL++
	id := l.nextL
	l.listeners[id] = fn
	l.mu.Unlock()
	return func() {
		l.mu.Lock()
		delete(l.listeners, id)
		l.mu.Unlock()
	}
}

// commit applies a read result only if no deactivation happened since it started.
func (l *live) commit(gen uint64, apply func()) bool {
	l.mu.Lock()
	if gen != l.gen {
		l.mu.Unlock()
		return false
	}
	apply()
	fns := make([]func(), 0, len(l.listeners))
	for _, fn := range l.listeners {
		fns = append(fns, fn)
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
	return true
}

// activate 先订阅再首读，保证首读之后的变更不会漏掉
func (l *live) activate(parent context.Context, f realtime.Filter, reload reloadFunc) error {
	l.mu.Lock()
	if l.active {
		l.mu.Unlock()
		return ErrActive
	}
	gen := l.gen
	ctx, cancel := context.WithCancel(parent)
	l.mu.Unlock()

	sub, err := l.gw.Subscribe(ctx, f)
	if err != nil {
		cancel()
		return err
	}
	if err = reload(ctx, gen); err != nil {
		sub.Close()
		cancel()
		return err
	}

	l.mu.Lock()
	if gen != l.gen {
		l.mu.Unlock()
		sub.Close()
		cancel()
		return context.Canceled
	}
	l.active, l.ctx, l.cancel, l.sub = true, ctx, cancel, sub
	l.wg.Add(1)
	l.mu.Unlock()

	go func() {
		defer l.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-sub.C:
				if !ok {
					return
				}
				// 不做增量合并，任何变更都全量重读
				if err := reload(ctx, gen); err != nil && ctx.Err() == nil {
					glog.Warningf("view: reload after %s on %s: %v", e.Type, e.Table, err)
				}
			}
		}
	}()
	return nil
}

// spawn runs fn in the background while the view stays active.
func (l *live) spawn(fn reloadFunc) {
	l.mu.Lock()
	if !l.active {
		l.mu.Unlock()
		return
	}
	ctx, gen := l.ctx, l.gen
	l.wg.Add(1)
	l.mu.Unlock()

	go func() {
		defer l.wg.Done()
		if err := fn(ctx, gen); err != nil && ctx.Err() == nil {
			glog.Warningf("view: background reload: %v", err)
		}
	}()
}

// deactivate 关闭订阅并等待后台重读退出；可重复调用
func (l *live) deactivate() {
	l.mu.Lock()
	l.gen++
	if !l.active {
		l.mu.Unlock()
		return
	}
	l.active = false
	cancel, sub := l.cancel, l.sub
	l.ctx, l.cancel, l.sub = nil, nil, nil
	l.mu.Unlock()

	cancel()
	sub.Close()
	l.wg.Wait()
}
