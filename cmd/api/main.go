package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"community_hub/internal/assistant"
	"community_hub/internal/chat"
	"community_hub/internal/config"
	"community_hub/internal/gateway"
	"community_hub/internal/media"
	"community_hub/internal/pkg"
	"community_hub/internal/realtime"
	"community_hub/internal/repository/mysql"
	"community_hub/internal/repository/redis"
	"community_hub/internal/router"
	"community_hub/internal/service"

	"github.com/golang/glog"
	"golang.org/x/sync/errgroup"
)

// 登录 token 在 redis 中的有效期，每次使用时续期
const sessionTTL = 24 * time.Hour

type authStore interface {
	gateway.Gateway
	service.CredentialStore
}

func main() {
	flag.Parse()
	defer glog.Flush()

	cfg, err := config.Load()
	if err != nil {
		glog.Exitf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 连接redis
	rdb, err := redis.Init(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		glog.Exitf("redis: %v", err)
	}
	defer rdb.Close()
	feed := realtime.NewRedisFeed(rdb)

	g, gctx := errgroup.WithContext(ctx)

	var store authStore
	switch cfg.Store.Driver {
	case config.StoreMemory:
		glog.Warningf("using in-memory store, data is lost on restart")
		store = gateway.NewMemory(feed)
	default:
		db, err := mysql.InitDB(cfg.Store.DSN)
		if err != nil {
			glog.Exitf("mysql: %v", err)
		}
		// 自动建表
		if err = mysql.Migrate(db); err != nil {
			glog.Exitf("migrate: %v", err)
		}
		store = mysql.NewStore(db, feed)

		if len(cfg.Kafka.Brokers) > 0 {
			producer := pkg.NewKafkaProducer(cfg.Kafka)
			defer producer.Close()
			relayer := service.NewOutboxRelayer(&mysql.OutboxRepository{DB: db}, service.KafkaSender(producer))
			g.Go(func() error {
				relayer.Run(gctx)
				return nil
			})
		}
	}

	var mailer service.Mailer
	if cfg.SMTP.Enabled() {
		mailer = service.NewWelcomeMailer(cfg.SMTP)
	}
	issuer := pkg.NewTokenIssuer(cfg.Auth.AccessSecret, cfg.Auth.RefreshSecret)
	authSvc := service.NewAuthService(store, redis.NewTokenRepository(rdb, sessionTTL), issuer, mailer)

	gemini, err := assistant.NewGemini(ctx, cfg.Assistant.APIKey, cfg.Assistant.Model)
	if err != nil {
		glog.Exitf("assistant: %v", err)
	}
	defer gemini.Close()

	uploader, err := newUploader(ctx, cfg.Media)
	if err != nil {
		glog.Exitf("media: %v", err)
	}

	r := router.InitRouter(router.Deps{
		Gateway:     store,
		Auth:        authSvc,
		Uploader:    uploader,
		Completer:   gemini,
		ChatLimits:  chat.NewLimits(cfg.Assistant.RatePerMinute, cfg.Assistant.Burst),
		CORSOrigins: cfg.Server.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		glog.Infof("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err = g.Wait(); err != nil {
		glog.Errorf("server: %v", err)
	}
	glog.Infof("server stopped")
}

// newUploader 优先 Cloudinary，未配置时使用 S3
func newUploader(ctx context.Context, cfg config.MediaConfig) (media.Uploader, error) {
	if cfg.CloudinaryURL != "" {
		return media.NewCloudinary(cfg.CloudinaryURL, cfg.CloudinaryPreset), nil
	}
	return media.NewS3(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3BaseURL)
}
