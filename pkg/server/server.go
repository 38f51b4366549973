// Package server exposes the select, extract, predict and export workflow as
// a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/user/accidentscan/pkg/orchestrator"
	"github.com/user/accidentscan/pkg/pipeline"
	"github.com/user/accidentscan/pkg/ports"
	"github.com/user/accidentscan/pkg/session"
)

// Backend is the session workflow served over HTTP.
type Backend interface {
	Select(path string) (session.State, error)
	StartExtract(ctx context.Context) (<-chan error, error)
	Predict(ctx context.Context) (pipeline.DetectionResult, error)
	ExportDocument(ctx context.Context) (pipeline.ExportResult, error)
	FrameJPEG(index int) ([]byte, error)
	ContactSheet() ([]byte, error)
	Reset() session.State
	State() session.State
}

// Options configures the server.
type Options struct {
	UploadDir      string
	MaxUploadBytes int64
	ExportName     string
}

// Server routes HTTP requests to a Backend.
type Server struct {
	backend Backend
	model   ports.InferenceClient
	opts    Options
	logger  ports.Logger
	baseCtx context.Context
	router  *gin.Engine

	mu     sync.Mutex
	upload string // file stored for the current selection
}

// New creates a Server. Background extractions run under ctx.
func New(ctx context.Context, backend Backend, model ports.InferenceClient, opts Options, logger ports.Logger) *Server {
	if opts.ExportName == "" {
		opts.ExportName = "extracted_frames.json"
	}
	s := &Server{
		backend: backend,
		model:   model,
		opts:    opts,
		logger:  logger.WithComponent("server"),
		baseCtx: ctx,
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.logRequests())

	r.GET("/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.POST("/videos", s.handleUpload)
	api.POST("/extract", s.handleExtract)
	api.GET("/state", s.handleState)
	api.POST("/predict", s.handlePredict)
	api.GET("/export", s.handleExport)
	api.GET("/frames/sheet", s.handleSheet)
	api.GET("/frames/:index", s.handleFrame)
	api.POST("/reset", s.handleReset)

	return r
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("%s %s %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	s.logger.Info("Listening on %s", addr)

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// statusFor maps workflow errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrInvalidInputFile):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, orchestrator.ErrFrameIndex):
		return http.StatusNotFound
	case errors.Is(err, pipeline.ErrNoVideo),
		errors.Is(err, pipeline.ErrNotExtracted),
		errors.Is(err, pipeline.ErrAlreadyExtracted),
		errors.Is(err, pipeline.ErrExtractionInProgress),
		errors.Is(err, pipeline.ErrPredictionInProgress),
		errors.Is(err, pipeline.ErrStaleGeneration):
		return http.StatusConflict
	case errors.Is(err, pipeline.ErrFrameCountMismatch):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func abort(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func (s *Server) handleHealth(c *gin.Context) {
	resp := gin.H{"status": "ok"}
	if s.model != nil {
		if h, err := s.model.Health(c.Request.Context()); err != nil {
			resp["model"] = gin.H{"status": "unreachable", "error": err.Error()}
		} else {
			resp["model"] = h
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleUpload(c *gin.Context) {
	if s.opts.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxUploadBytes)
	}

	fh, err := c.FormFile("video")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("missing form file \"video\": %v", err)})
		return
	}

	if err := os.MkdirAll(s.opts.UploadDir, 0755); err != nil {
		abort(c, err)
		return
	}
	ext := strings.ToLower(filepath.Ext(filepath.Base(fh.Filename)))
	dst := filepath.Join(s.opts.UploadDir, uuid.NewString()+ext)
	if err := c.SaveUploadedFile(fh, dst); err != nil {
		abort(c, fmt.Errorf("store upload: %w", err))
		return
	}

	st, err := s.selectUpload(dst)
	if err != nil {
		abort(c, err)
		return
	}

	s.logger.Debug("Stored upload %s as %s", fh.Filename, dst)
	c.JSON(http.StatusOK, newStateResponse(st, fh.Filename))
}

// selectUpload makes path the session's video and deletes the previous
// upload. s.mu is held across Select so the recorded file always matches
// the selected video. A rejected path is deleted instead.
func (s *Server) selectUpload(path string) (session.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.backend.Select(path)
	if err != nil {
		os.Remove(path)
		return st, err
	}
	if s.upload != "" && s.upload != path {
		os.Remove(s.upload)
	}
	s.upload = path
	return st, nil
}

// resetUpload returns the session to empty and deletes the current upload.
func (s *Server) resetUpload() session.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.backend.Reset()
	if s.upload != "" {
		os.Remove(s.upload)
		s.upload = ""
	}
	return st
}

func (s *Server) handleExtract(c *gin.Context) {
	if _, err := s.backend.StartExtract(s.baseCtx); err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusAccepted, newStateResponse(s.backend.State(), ""))
}

func (s *Server) handleState(c *gin.Context) {
	c.JSON(http.StatusOK, newStateResponse(s.backend.State(), ""))
}

func (s *Server) handlePredict(c *gin.Context) {
	result, err := s.backend.Predict(c.Request.Context())
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleExport(c *gin.Context) {
	res, err := s.backend.ExportDocument(c.Request.Context())
	if err != nil {
		abort(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", s.opts.ExportName))
	c.Data(http.StatusOK, "application/json", res.JSON)
}

func (s *Server) handleFrame(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "frame index must be an integer"})
		return
	}
	data, err := s.backend.FrameJPEG(index)
	if err != nil {
		abort(c, err)
		return
	}
	c.Data(http.StatusOK, ports.FormatJPEG.ContentType(), data)
}

func (s *Server) handleSheet(c *gin.Context) {
	data, err := s.backend.ContactSheet()
	if err != nil {
		abort(c, err)
		return
	}
	c.Data(http.StatusOK, ports.FormatPNG.ContentType(), data)
}

func (s *Server) handleReset(c *gin.Context) {
	st := s.resetUpload()
	c.JSON(http.StatusOK, newStateResponse(st, ""))
}

// stateResponse is the JSON view of a session.
type stateResponse struct {
	Phase          session.Phase             `json:"phase"`
	Video          string                    `json:"video,omitempty"`
	Generation     uint64                    `json:"generation"`
	Progress       int                       `json:"progress"`
	FrameCount     int                       `json:"frame_count"`
	ExpectedFrames int                       `json:"expected_frames"`
	Result         *pipeline.DetectionResult `json:"result,omitempty"`
	Error          string                    `json:"error,omitempty"`
}

func newStateResponse(st session.State, name string) stateResponse {
	if name == "" && st.VideoPath != "" {
		name = filepath.Base(st.VideoPath)
	}
	resp := stateResponse{
		Phase:          st.Phase,
		Video:          name,
		Generation:     uint64(st.Generation),
		Progress:       st.Progress,
		FrameCount:     len(st.Frames),
		ExpectedFrames: st.Expected,
		Result:         st.Result,
	}
	if st.LastError != nil {
		resp.Error = st.LastError.Error()
	}
	return resp
}
