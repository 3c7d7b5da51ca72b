package main

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/example/comment-platform/internal/handlers"
	"github.com/example/comment-platform/internal/platform/auth"
	"github.com/example/comment-platform/internal/platform/config"
	"github.com/example/comment-platform/internal/platform/db"
	"github.com/example/comment-platform/internal/platform/events"
	"github.com/example/comment-platform/internal/platform/httpserver"
	"github.com/example/comment-platform/internal/platform/logging"
	"github.com/example/comment-platform/internal/platform/natsconn"
	"github.com/example/comment-platform/internal/platform/run"
	"github.com/example/comment-platform/internal/profile"
	"github.com/example/comment-platform/internal/service"
	"github.com/example/comment-platform/internal/store"
	"github.com/example/comment-platform/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	comments, votes, reports, profiles, pool := initStores(cfg, log)
	if pool != nil {
		defer pool.Close()
	}

	// NATS is optional: without it events are dropped and counters rely
	// on the inline resync only.
	var nc *nats.Conn
	var js nats.JetStreamContext
	if conn, err := natsconn.Connect(natsconn.Options{URL: cfg.NATSURL}); err != nil {
		if cfg.IsProduction() {
			log.Error("nats is required in production but unavailable", zap.Error(err))
			run.Exit(1)
		}
		log.Warn("nats unavailable, events disabled", zap.Error(err))
	} else {
		nc = conn
		if js, err = nc.JetStream(); err != nil {
			log.Warn("jetstream unavailable, events disabled", zap.Error(err))
		}
	}

	pub := events.New(js, log)
	ledger := service.NewVoteLedger(votes, comments, pub, log)
	cs := service.NewCommentService(comments, reports, ledger, profiles, pub, log)
	rs := service.NewReportService(reports, comments, profiles, pub, log)

	verifier := auth.JWTVerifier{Secret: []byte(cfg.JWTSecret)}

	r := chi.NewRouter()
	httpserver.SetupRouter(r, httpserver.RouterConfig{ReadyFunc: func() error {
		if pool == nil {
			return nil
		}
		return pool.Ping(context.Background())
	}})

	// Public reads. A bearer token, when present, scopes visibility to the viewer.
	r.Group(func(r chi.Router) {
		r.Use(auth.OptionalUser(verifier))
		r.Get("/v1/contents/{content_id}/comments", handlers.ListComments(cs))
		r.Get("/v1/contents/{content_id}/comments/count", handlers.CountComments(cs))
		r.Get("/v1/comments/{comment_id}/replies", handlers.ListReplies(cs))
		r.Post("/v1/comments/filter", handlers.FilterComments(cs))
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser(verifier))
		r.Post("/v1/contents/{content_id}/comments", handlers.CreateComment(cs))
		r.Put("/v1/comments/{comment_id}", handlers.UpdateComment(cs))
		r.Delete("/v1/comments/{comment_id}", handlers.DeleteComment(cs))
		r.Post("/v1/comments/{comment_id}/vote", handlers.ToggleVote(cs))
		r.Get("/v1/comments/{comment_id}/vote", handlers.VoteStatus(cs))
		r.Post("/v1/comments/{comment_id}/reports", handlers.CreateReport(rs))
		r.Get("/v1/reports/mine", handlers.MyReports(rs))
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser(verifier), auth.RequireAdmin)
		r.Get("/v1/admin/reports/pending", handlers.PendingReports(rs))
		r.Post("/v1/admin/reports/filter", handlers.FilterReports(rs))
		r.Get("/v1/admin/reports/{report_id}", handlers.GetReport(rs))
		r.Post("/v1/admin/reports/{report_id}/review", handlers.ReviewReport(rs))
		r.Post("/v1/admin/reports/{report_id}/deactivate", handlers.DeactivateReport(rs))
		r.Get("/v1/admin/comments/{comment_id}/reports", handlers.CommentReports(rs))
		r.Post("/v1/admin/comments/{comment_id}/reconcile", handlers.ReconcileComment(cs))
		r.Delete("/v1/admin/comments/{comment_id}", handlers.PurgeComment(cs))
		r.Delete("/v1/admin/contents/{content_id}/comments", handlers.DeleteContentComments(cs))
	})

	srv := httpserver.New(httpserver.Options{Addr: cfg.HTTP.Addr, ServiceName: cfg.ServiceName, Logger: log, Router: r})

	runner := run.New(log)
	code := runner.WithSignals(func(ctx context.Context) error {
		if nc != nil {
			defer nc.Close()
			if err := worker.StartResyncConsumer(ctx, nc, ledger, log); err != nil {
				log.Warn("resync consumer not started", zap.Error(err))
			}
		}
		go func() {
			<-ctx.Done()
			_ = srv.Shutdown(context.Background())
		}()
		return srv.Start(log)
	})

	log.Info("exit", zap.Int("code", code))
	run.Exit(code)
}

// initStores selects the storage backends. In production a working Postgres
// connection is mandatory and the process terminates without one; in
// development a missing or unreachable DATABASE_URL falls back to the
// in-memory stores.
func initStores(cfg config.AppConfig, log *zap.Logger) (store.CommentStore, store.VoteStore, store.ReportStore, profile.Directory, *pgxpool.Pool) {
	fallback := func(reason string, err error) (store.CommentStore, store.VoteStore, store.ReportStore, profile.Directory, *pgxpool.Pool) {
		if cfg.IsProduction() {
			log.Error("postgres is required in production: "+reason, zap.Error(err))
			_ = log.Sync()
			run.Exit(1)
		}
		log.Warn("using in-memory stores (development only): "+reason, zap.Error(err))
		return store.NewInMemoryCommentStore(), store.NewInMemoryVoteStore(), store.NewInMemoryReportStore(), profile.NewStaticDirectory(), nil
	}

	if cfg.DatabaseURL == "" {
		return fallback("DATABASE_URL not set", nil)
	}
	pool, err := db.Open(context.Background())
	if err != nil {
		return fallback("connection failed", err)
	}

	log.Info("stores: postgres")
	return store.NewPostgresCommentStore(pool),
		store.NewPostgresVoteStore(pool),
		store.NewPostgresReportStore(pool),
		profile.NewPostgresDirectory(pool),
		pool
}
