package main

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/arbordb/arbor"
)

const requestIDHeader = "X-Request-ID"

// Server exposes a Forest over HTTP.
type Server struct {
	forest *arbor.Forest
	logger *slog.Logger
}

// NewServer creates a Server around an open Forest.
func NewServer(forest *arbor.Forest, logger *slog.Logger) *Server {
	return &Server{forest: forest, logger: logger}
}

// newRouter wires the HTTP routes. metricsHandler may be nil to disable
// the /metrics endpoint.
func newRouter(s *Server, metricsHandler http.Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestID(), requestLogger(s.logger))

	router.POST("/insert", s.handleInsert)
	router.POST("/nearesttop", s.handleNearest)
	router.GET("/status", s.handleStatus)
	router.GET("/health", s.handleHealth)
	if metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(metricsHandler))
	}
	return router
}

// requestID propagates X-Request-ID, generating one when absent.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		c.Set("request_id", id)
		c.Next()
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
			slog.String("request_id", c.GetString("request_id")),
		)
	}
}

type pointRequest struct {
	Embedding []float64 `json:"embedding"`
}

type insertResponse struct {
	Status     string `json:"status"`
	TreeName   string `json:"tree_name"`
	NumRecords int    `json:"num_records"`
	Dimension  int    `json:"dimension"`
}

type treeStatusResponse struct {
	TreeName            string `json:"tree_name"`
	NumRecords          int    `json:"num_records"`
	InMemory            bool   `json:"in_memory"`
	LastAccessedSeconds *int64 `json:"last_accessed_seconds"`
}

type statusResponse struct {
	ActiveTrees int                  `json:"active_trees"`
	Trees       []treeStatusResponse `json:"trees"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleInsert(c *gin.Context) {
	var req pointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	res, err := s.forest.Insert(c.Request.Context(), c.Query("tree_name"), req.Embedding)
	if err != nil {
		replyError(c, err)
		return
	}

	c.JSON(http.StatusOK, insertResponse{
		Status:     "ok",
		TreeName:   res.Tree,
		NumRecords: res.Records,
		Dimension:  res.Dimension,
	})
}

func (s *Server) handleNearest(c *gin.Context) {
	var req pointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	n, err := strconv.Atoi(c.Query("n"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "query parameter n must be a positive integer"})
		return
	}

	points, err := s.forest.Nearest(c.Request.Context(), c.Query("tree_name"), req.Embedding, n)
	if err != nil {
		replyError(c, err)
		return
	}

	c.JSON(http.StatusOK, points)
}

func (s *Server) handleStatus(c *gin.Context) {
	st, err := s.forest.Status(c.Request.Context())
	if err != nil {
		replyError(c, err)
		return
	}

	resp := statusResponse{
		ActiveTrees: st.ActiveTrees,
		Trees:       make([]treeStatusResponse, len(st.Trees)),
	}
	for i, ts := range st.Trees {
		resp.Trees[i] = treeStatusResponse{
			TreeName:            ts.Name,
			NumRecords:          ts.Records,
			InMemory:            ts.InMemory,
			LastAccessedSeconds: lastAccessedSeconds(ts.LastAccessed),
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// lastAccessedSeconds returns nil for trees never touched this process
// lifetime, matching the documented null in the status contract.
func lastAccessedSeconds(t time.Time) *int64 {
	if t.IsZero() {
		return nil
	}
	secs := int64(time.Since(t).Seconds())
	if secs < 0 {
		secs = 0
	}
	return &secs
}

func replyError(c *gin.Context, err error) {
	c.JSON(statusCodeFor(err), errorResponse{Error: err.Error()})
}

// statusCodeFor maps the service error taxonomy onto HTTP statuses:
// validation failures are 400, unknown trees 404, storage failures 500.
func statusCodeFor(err error) int {
	var dm *arbor.ErrDimensionMismatch
	switch {
	case errors.Is(err, arbor.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, arbor.ErrInvalidK),
		errors.Is(err, arbor.ErrTreeName),
		errors.Is(err, arbor.ErrEmptyPoint),
		errors.Is(err, arbor.ErrLimitExceeded),
		errors.As(err, &dm):
		return http.StatusBadRequest
	case errors.Is(err, arbor.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
