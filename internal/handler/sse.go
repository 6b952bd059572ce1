package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang/glog"
)

const keepAliveInterval = 15 * time.Second

type liveView interface {
	Activate(ctx context.Context) error
	Deactivate()
	OnChange(fn func()) func()
}

func writeEvent(w http.ResponseWriter, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}

// stream 以 SSE 推送视图：先发 initial，之后每次视图重读后发 update
func stream(c *gin.Context, v liveView, render func() any) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "streaming unsupported"})
		return
	}

	changed := make(chan struct{}, 1)
	stop := v.OnChange(func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer stop()

	ctx := c.Request.Context()
	if err := v.Activate(ctx); err != nil {
		writeError(c, err, "stream unavailable")
		return
	}
	defer v.Deactivate()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	// 首读触发的变更信号已体现在 initial 中
	select {
	case <-changed:
	default:
	}
	if err := writeEvent(c.Writer, "initial", render()); err != nil {
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fmt.Fprint(c.Writer, ": keep-alive\n\n")
			flusher.Flush()
		case <-changed:
			if err := writeEvent(c.Writer, "update", render()); err != nil {
				glog.Warningf("sse write: %v", err)
				return
			}
			flusher.Flush()
		}
	}
}
