package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"addon_engine/internal/cart"
	"addon_engine/internal/catalog"
	"addon_engine/internal/history"
	"addon_engine/internal/labels"
	"addon_engine/internal/logger"
	"addon_engine/internal/recommend"
	"addon_engine/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Server 代表 HTTP API 服务器
type Server struct {
	router       *gin.Engine
	sessions     *session.Manager
	service      *recommend.Service
	historyStore history.Store // 可以为 nil，表示不记录曝光
	limiter      *RateLimiter  // 可以为 nil，表示不限流
	log          zerolog.Logger
}

// Config HTTP 层配置
type Config struct {
	RateLimit RateLimitConfig `koanf:"rate_limit"`
}

// NewServer 创建新的 HTTP 服务器
func NewServer(sm *session.Manager, svc *recommend.Service, hs history.Store, cfg Config) *Server {
	s := &Server{
		router:       gin.New(),
		sessions:     sm,
		service:      svc,
		historyStore: hs,
		limiter:      NewRateLimiter(cfg.RateLimit),
		log:          logger.With("http"),
	}
	s.router.Use(gin.Recovery(), s.accessLog(), s.corsMiddleware())
	s.setupRoutes()
	return s
}

func (s *Server) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	}
}

// Handler 返回底层 http.Handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// SweepLimiters 清理长时间未访问的限流记录
func (s *Server) SweepLimiters(idle time.Duration) {
	if s.limiter != nil {
		s.limiter.Sweep(idle)
	}
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.router.Group("/api/v1")
	if s.limiter != nil {
		v1.Use(s.limiter.middleware())
	}
	v1.GET("/categories", s.handleCategories)
	v1.POST("/sessions", s.handleCreateSession)
	v1.DELETE("/sessions/:id", s.handleCloseSession)
	v1.GET("/sessions/:id/cart", s.handleGetCart)
	v1.POST("/sessions/:id/cart", s.handleAddToCart)
	v1.GET("/sessions/:id/recommendations", s.handleRecommend)
	v1.GET("/sessions/:id/impressions", s.handleImpressions)
}

const (
	defaultImpressionDays = 7
	maxImpressionDays     = 365
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"catalog_items": s.service.Artifacts().Store.Len(),
		"sessions":      s.sessions.Len(),
	})
}

// handleCategories 返回目录中存在的品类及其显示名称
// GET /api/v1/categories
func (s *Server) handleCategories(c *gin.Context) {
	a := s.service.Artifacts()
	codes := a.Store.Categories()
	out := make([]labels.Category, 0, len(codes))
	for _, code := range codes {
		out = append(out, labels.Category{Code: code, Name: a.Labels.Name(code)})
	}
	c.JSON(http.StatusOK, gin.H{"categories": out})
}

// POST /api/v1/sessions
func (s *Server) handleCreateSession(c *gin.Context) {
	sess := s.sessions.Create()
	c.JSON(http.StatusCreated, gin.H{"session_id": sess.ID})
}

// DELETE /api/v1/sessions/:id
func (s *Server) handleCloseSession(c *gin.Context) {
	if err := s.sessions.Close(c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/v1/sessions/:id/cart
func (s *Server) handleGetCart(c *gin.Context) {
	id := c.Param("id")
	var body gin.H
	err := s.sessions.Do(id, func(sess *session.Session) error {
		body = cartBody(id, sess.Cart())
		return nil
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, body)
}

type AddToCartRequest struct {
	Category int `json:"category" binding:"required,min=1"`
}

// handleAddToCart 为品类采样价格并加入购物车
// POST /api/v1/sessions/:id/cart
func (s *Server) handleAddToCart(c *gin.Context) {
	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	id := c.Param("id")
	var body gin.H
	err := s.sessions.Do(id, func(sess *session.Session) error {
		entry, err := s.service.AddToCart(sess.Cart(), req.Category, sess.Rand())
		if err != nil {
			return err
		}
		body = cartBody(id, sess.Cart())
		body["added"] = entry
		return nil
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, body)
}

// handleRecommend 为当前购物车生成推荐
// GET /api/v1/sessions/:id/recommendations
func (s *Server) handleRecommend(c *gin.Context) {
	id := c.Param("id")
	var res *recommend.Result
	err := s.sessions.Do(id, func(sess *session.Session) error {
		var err error
		res, err = s.service.Recommend(c.Request.Context(), id, sess.Cart())
		return err
	})
	if err != nil {
		s.writeError(c, err)
		return
	}

	// 异步保存曝光记录
	if s.historyStore != nil && len(res.Items) > 0 {
		records := res.Impressions(id)
		go func() {
			if err := s.historyStore.Save(records); err != nil {
				s.log.Error().Err(err).Str("session", id).Msg("failed to save impressions")
			}
		}()
	}

	c.JSON(http.StatusOK, res)
}

// handleImpressions 返回会话最近的曝光记录
// GET /api/v1/sessions/:id/impressions?days=7
func (s *Server) handleImpressions(c *gin.Context) {
	id := c.Param("id")
	if _, err := s.sessions.Get(id); err != nil {
		s.writeError(c, err)
		return
	}

	days := defaultImpressionDays
	if raw := c.Query("days"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > maxImpressionDays {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be an integer in [1, 365]"})
			return
		}
		days = v
	}

	records := []history.Record{}
	if s.historyStore != nil {
		got, err := s.historyStore.Recent(id, days)
		if err != nil {
			s.log.Error().Err(err).Str("session", id).Msg("failed to read impressions")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read impressions"})
			return
		}
		records = append(records, got...)
	}
	c.JSON(http.StatusOK, gin.H{"session_id": id, "days": days, "impressions": records})
}

func cartBody(id string, c *cart.Cart) gin.H {
	return gin.H{
		"session_id":  id,
		"items":       c.Entries(),
		"size":        c.Size(),
		"total_value": c.TotalValue(),
	}
}

// writeError 把领域错误映射为 HTTP 状态码
func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, catalog.ErrEmptyCategory):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, cart.ErrCartFull):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "recommendation failed: " + err.Error()})
	}
}
