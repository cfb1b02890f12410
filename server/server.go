// Package server exposes the practice log over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"PracticeLog/config"
	"PracticeLog/core/auth"
	"PracticeLog/core/goal"
	"PracticeLog/core/session"
	"PracticeLog/core/song"
	"PracticeLog/core/stats"
	"PracticeLog/db"
	"PracticeLog/logger"
	"PracticeLog/repository"
)

// Server 组装路由、中间件与各业务处理器
type Server struct {
	cfg      *config.Config
	auth     *auth.Extractor
	songs    *SongHandler
	sessions *SessionHandler
	stats    *StatsHandler
	goals    *GoalHandler
}

// New builds a Server over stores.
func New(cfg *config.Config, stores repository.Factory) *Server {
	return &Server{
		cfg:      cfg,
		auth:     auth.NewExtractor(cfg.Auth.JWTSecret),
		songs:    NewSongHandler(song.NewService(stores)),
		sessions: NewSessionHandler(session.NewService(stores)),
		stats:    NewStatsHandler(stats.NewService(stores)),
		goals:    NewGoalHandler(goal.NewService(stores)),
	}
}

// WithClock pins the clock of every service.
func (s *Server) WithClock(now func() time.Time) *Server {
	s.songs.svc.WithClock(now)
	s.sessions.svc.WithClock(now)
	s.stats.svc.WithClock(now)
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})
	router.Use(instrumentMiddleware)

	// 无需认证
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	router.Handle("/metrics", metricsHandler()).Methods(http.MethodGet)

	// 业务接口直接挂在根路由上，前缀拼进路径，这样方法不匹配时能落到 405
	api := apiRouter{router: router, prefix: s.cfg.Server.APIPrefix, auth: authMiddleware(s.auth)}
	s.stats.register(api)
	s.songs.register(api)
	s.sessions.register(api)
	s.goals.register(api)

	var h http.Handler = router
	h = recoverMiddleware(h)
	h = corsMiddleware(s.cfg.Server.AllowedOrigins)(h)
	h = accessLogMiddleware(h)
	return h
}

// apiRouter 注册需要认证的接口，每个处理器单独包一层 authMiddleware
type apiRouter struct {
	router *mux.Router
	prefix string
	auth   mux.MiddlewareFunc
}

func (a apiRouter) handle(path string, h http.HandlerFunc, methods ...string) {
	a.router.Handle(a.prefix+path, a.auth(h)).Methods(methods...)
}

// Start 打开存储并启动 HTTP 服务，收到 SIGINT/SIGTERM 后优雅退出
func Start(ctx context.Context, cfg *config.Config) error {
	stores, closeStore, err := db.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	if !auth.NewExtractor(cfg.Auth.JWTSecret).Verifies() {
		logger.Warn("[Server] AUTH_JWT_SECRET not set, bearer tokens are decoded without signature verification")
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      New(cfg, stores).Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.Store.Timeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("[Server] listening",
			logger.String("addr", cfg.Server.Addr),
			logger.String("api_prefix", cfg.Server.APIPrefix),
			logger.String("store", cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("[Server] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
