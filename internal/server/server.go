package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"sudooom.tablegame/internal/auth"
	"sudooom.tablegame/internal/game"
	store "sudooom.tablegame/internal/redis"
	"sudooom.tablegame/internal/transport/ws"
	appErrors "sudooom.tablegame/pkg/errors"
	"sudooom.tablegame/pkg/response"
)

// Lobby 接入层使用的对局管理能力，game.Manager 实现该接口
type Lobby interface {
	Enter(host game.PlayerHost) (sessionID, codeName string, err error)
	Snapshot(id string) (game.Snapshot, error)
	Count() int
}

// SnapshotLoader 已从内存移除的对局快照来源
type SnapshotLoader interface {
	Load(ctx context.Context, sessionID string) (game.Snapshot, error)
}

// Options 服务器选项，未启用的组件保持 nil
type Options struct {
	Mode            string
	AllowedOrigins  []string
	ResponseTimeout time.Duration
	Auth            *auth.Service
	Store           SnapshotLoader
	Health          http.Handler
}

// Server HTTP 与 WebSocket 接入
type Server struct {
	lobby    Lobby
	opts     Options
	upgrader *websocket.Upgrader
	engine   *gin.Engine
	http     *http.Server
	logger   *slog.Logger

	// ctx 所有玩家连接的父上下文，Shutdown 时取消
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	conns  sync.WaitGroup
}

// New 创建服务器
func New(addr string, lobby Lobby, opts Options) *Server {
	if opts.Mode != "" {
		gin.SetMode(opts.Mode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		lobby:    lobby,
		opts:     opts,
		upgrader: ws.NewUpgrader(opts.AllowedOrigins),
		logger:   slog.Default().With("component", "Server"),
		ctx:      ctx,
		cancel:   cancel,
	}
	s.engine = s.setupRouter()
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// setupRouter 设置路由
func (s *Server) setupRouter() *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(Logger(s.logger))
	r.Use(CORS(s.opts.AllowedOrigins))

	r.GET("/ws", s.handleWS)
	r.GET("/sessions/:id", s.handleSession)
	r.GET("/ready", s.handleReady)
	if s.opts.Health != nil {
		r.GET("/health", gin.WrapH(s.opts.Health))
	}
	return r
}

// Handler HTTP 处理器
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start 开始监听，阻塞直到服务器关闭
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 停止接收请求并断开所有玩家连接
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	err := s.http.Shutdown(ctx)
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.conns.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("Player connections did not close in time")
		return ctx.Err()
	}
	return err
}

// handleWS 升级为 WebSocket 并让玩家入座
func (s *Server) handleWS(c *gin.Context) {
	playerID := ""
	if s.opts.Auth != nil {
		claims, err := s.opts.Auth.ValidateToken(extractToken(c))
		if err != nil {
			s.logger.Debug("Rejected player token", "error", err)
			response.Unauthorized(c, tokenError(err))
			return
		}
		playerID = claims.PlayerID
	}

	if !s.track() {
		response.ErrorFromAppError(c, appErrors.ErrNotAccepting)
		return
	}
	defer s.conns.Done()

	wsConn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", "error", err)
		return
	}

	conn := ws.NewConn(wsConn, s.opts.ResponseTimeout)
	logger := s.logger.With("connId", conn.ID(), "playerId", playerID)

	sessionID, codeName, err := s.lobby.Enter(conn)
	if err != nil {
		appErr := gameError(err)
		if appErrors.Is(appErr, appErrors.ErrServerError) {
			logger.Error("Join failed", "error", err)
		} else {
			logger.Info("Join rejected", "error", err)
		}
		conn.Console().WriteWarningMessage("加入对局失败：%s", appErr.Message)
		conn.Close()
		return
	}

	logger.Info("Player joined", "sessionId", sessionID, "codeName", codeName)
	conn.Console().WriteSystemMessage("已加入对局 %s，您的代号是 %s", sessionID, codeName)

	conn.Run(s.ctx)
	logger.Info("Player disconnected", "sessionId", sessionID, "codeName", codeName)
}

// handleSession 对局公开快照，内存中不存在时回退到快照存储
func (s *Server) handleSession(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		response.ErrorFromAppError(c, appErrors.ErrInvalidParams.Wrap(err))
		return
	}

	snap, err := s.lobby.Snapshot(id)
	if errors.Is(err, game.ErrSessionNotFound) && s.opts.Store != nil {
		snap, err = s.opts.Store.Load(c.Request.Context(), id)
	}
	if err != nil {
		response.ErrorFromAppError(c, gameError(err))
		return
	}
	response.Success(c, snap)
}

// handleReady 是否接受新玩家
func (s *Server) handleReady(c *gin.Context) {
	data := gin.H{"sessions": s.lobby.Count()}

	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()

	if closed {
		response.Unavailable(c, data)
		return
	}
	response.Success(c, data)
}

// track 登记一个玩家连接，关闭后返回 false
func (s *Server) track() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns.Add(1)
	return true
}

func tokenError(err error) *appErrors.AppError {
	if errors.Is(err, auth.ErrTokenExpired) {
		return appErrors.ErrTokenExpired.Wrap(err)
	}
	return appErrors.ErrTokenInvalid.Wrap(err)
}

func gameError(err error) *appErrors.AppError {
	switch {
	case errors.Is(err, game.ErrSessionNotFound), errors.Is(err, store.ErrSnapshotNotFound):
		return appErrors.ErrSessionNotFound.Wrap(err)
	case errors.Is(err, game.ErrSessionClosed):
		return appErrors.ErrSessionClosed.Wrap(err)
	case errors.Is(err, game.ErrNotRunning):
		return appErrors.ErrNotAccepting.Wrap(err)
	default:
		return appErrors.ErrServerError.Wrap(err)
	}
}
