package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	api "github.com/jobiai/jobiai-assess/internal/api/http"
	auth "github.com/jobiai/jobiai-assess/internal/auth/middleware"
	"github.com/jobiai/jobiai-assess/internal/candidacy"
	"github.com/jobiai/jobiai-assess/internal/config"
	"github.com/jobiai/jobiai-assess/internal/db"
	"github.com/jobiai/jobiai-assess/internal/events"
	"github.com/jobiai/jobiai-assess/internal/gateway"
	"github.com/jobiai/jobiai-assess/internal/logger"
	"github.com/jobiai/jobiai-assess/internal/notify"
	"github.com/jobiai/jobiai-assess/internal/quiz"
	"github.com/jobiai/jobiai-assess/internal/scheduler"
	"github.com/jobiai/jobiai-assess/internal/session"
	"github.com/jobiai/jobiai-assess/internal/users"
)

func main() {
	cfg := config.Load()

	zl, err := logger.New(string(cfg.Env))
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- DB ---
	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	dbh, err := db.Open(openCtx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	cancel()
	if err != nil {
		zl.Fatal("db open failed", zap.Error(err))
	}
	defer dbh.Close()

	quizzes := quiz.NewSQLStore(dbh)
	cands := candidacy.NewSQLStore(dbh)
	notes := notify.NewSQLStore(dbh)
	accounts := users.NewStore(dbh)
	if err := accounts.EnsureAdmin(ctx, cfg.AdminUser, cfg.AdminPassHash); err != nil {
		zl.Fatal("ensure admin", zap.Error(err))
	}

	// --- Events ---
	var pub events.Publisher = events.NopPublisher{}
	if cfg.AMQPURL != "" {
		rp, err := events.DialRabbit(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			zl.Fatal("rabbitmq", zap.Error(err))
		}
		pub = rp
	}
	evlog := events.NewEventLog(dbh, pub)
	pub = evlog
	defer pub.Close()

	// --- Notifications: local hub, fanned out through redis when configured ---
	hub := notify.NewHub(zl.Named("hub"), originChecker(cfg.CORSOrigins))
	defer hub.Close()
	var push notify.Broadcaster = hub
	if cfg.RedisAddr != "" {
		rdb := notify.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer rdb.Close()
		fan := notify.NewRedisFanout(rdb, notify.DefaultChannel, hub, zl.Named("fanout"))
		go func() {
			if err := fan.Run(ctx); err != nil {
				zl.Error("redis fan-out stopped", zap.Error(err))
			}
		}()
		push = fan
	}
	notifier := &notify.Service{Store: notes, Broadcast: push, Events: pub, Quizzes: quizzes, Log: zl.Named("notify")}

	// --- Submission ---
	local := &gateway.Local{Quizzes: quizzes, Candidacies: cands, Observer: notifier, Log: zl.Named("gateway")}
	submitter := gateway.NewSubmitter(local, gateway.NewSQLPendingLog(dbh),
		gateway.WithRetry(cfg.ApplyAttempts, cfg.ApplyBaseDelay),
		gateway.WithSubmitterLogger(zl.Named("submit")))
	sessions := session.NewManager(local, submitter.SessionHook(), session.WithManagerLogger(zl.Named("session")))
	defer sessions.Shutdown()

	sweeper := scheduler.New(submitter, sessions,
		scheduler.WithSessionTTL(cfg.SessionTTL),
		scheduler.WithLogger(zl.Named("sweeper")))
	if err := sweeper.Start(cfg.SweepInterval); err != nil {
		zl.Fatal("scheduler", zap.Error(err))
	}
	defer sweeper.Stop()

	router := api.NewRouter(api.Deps{
		Auth:          auth.NewAuthService(cfg.AuthHMACSecret),
		Users:         accounts,
		Quizzes:       quizzes,
		Candidacies:   cands,
		Local:         local,
		Sessions:      sessions,
		Notifications: notes,
		Hub:           hub,
		Notifier:      notifier,
		DB:            dbh,
		Events:        evlog,
		EnableSignup:  cfg.EnableSignup,
		RolesFromDB:   cfg.Env == config.EnvProd,
		CORSOrigins:   cfg.CORSOrigins,
		Log:           zl,
	})

	if err := serve(ctx, cfg, router, zl); err != nil {
		zl.Error("server", zap.Error(err))
	}
}

func serve(ctx context.Context, cfg config.Config, h http.Handler, zl *zap.Logger) error {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h,
		IdleTimeout:       time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		zl.Info("listening", zap.String("addr", cfg.HTTPAddr), zap.String("env", string(cfg.Env)), zap.String("db", cfg.DBDriver))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	zl.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// originChecker accepts websocket upgrades from the configured CORS origins.
func originChecker(origins []string) func(*http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		o := r.Header.Get("Origin")
		return o == "" || allowed[o] || allowed["*"]
	}
}
