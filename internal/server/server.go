package server

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/muhammadolammi/resumeanalyzer/internal/controller"
	"github.com/muhammadolammi/resumeanalyzer/internal/extract"
	"github.com/muhammadolammi/resumeanalyzer/internal/render"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

var errTooLarge = errors.New("file is too large")

const DefaultMaxUpload = 10 << 20

type Options struct {
	MaxUpload int64
}

// Server is the web front end: an upload page and a small JSON API over a
// single Controller.
type Server struct {
	ctl       *controller.Controller
	renderer  render.Renderer
	log       *logrus.Logger
	maxUpload int64
}

func New(ctl *controller.Controller, renderer render.Renderer, log *logrus.Logger, opts Options) *Server {
	if renderer == nil {
		renderer = render.Default
	}
	if opts.MaxUpload <= 0 {
		opts.MaxUpload = DefaultMaxUpload
	}
	return &Server{ctl: ctl, renderer: renderer, log: log, maxUpload: opts.MaxUpload}
}

type page struct {
	Busy     bool
	Error    string
	Analysis template.HTML
}

// Router returns the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.logRequests())
	r.SetHTMLTemplate(templates)

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/", s.handleIndex)
	r.POST("/analyze", s.handleAnalyzePage)

	api := r.Group("/api")
	api.GET("/status", s.handleStatus)
	api.POST("/analyze", s.handleAnalyzeJSON)
	api.POST("/render", s.handleRender)
	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("http server listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info("shutting down http server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
		}).Debug("request")
	}
}

func (s *Server) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", page{Busy: s.ctl.Busy()})
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"busy": s.ctl.Busy()})
}

func (s *Server) handleAnalyzePage(c *gin.Context) {
	doc, err := s.readUpload(c)
	if err != nil {
		c.HTML(statusFor(err), "index.html", page{Busy: s.ctl.Busy(), Error: messageFor(err)})
		return
	}

	res, err := s.ctl.Analyze(c.Request.Context(), doc)
	if err != nil {
		c.HTML(statusFor(err), "index.html", page{Busy: s.ctl.Busy(), Error: messageFor(err)})
		return
	}
	c.HTML(http.StatusOK, "index.html", page{Analysis: res.HTML.HTML()})
}

func (s *Server) handleAnalyzeJSON(c *gin.Context) {
	doc, err := s.readUpload(c)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": messageFor(err)})
		return
	}

	res, err := s.ctl.Analyze(c.Request.Context(), doc)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": messageFor(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":       res.ID,
		"filename": res.Filename,
		"markdown": res.Markdown,
		"html":     res.HTML.String(),
	})
}

func (s *Server) handleRender(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUpload))
	if err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": errTooLarge.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"html": s.renderer.Render(string(body)).String()})
}

func (s *Server) readUpload(c *gin.Context) (extract.Document, error) {
	// leave room for the multipart envelope around the file itself
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUpload+1<<20)

	fh, err := c.FormFile("resume")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return extract.Document{}, errTooLarge
		}
		return extract.Document{}, controller.ErrNoFile
	}
	if fh.Size > s.maxUpload {
		s.log.WithFields(logrus.Fields{
			"filename": fh.Filename,
			"size":     humanize.Bytes(uint64(fh.Size)),
			"limit":    humanize.Bytes(uint64(s.maxUpload)),
		}).Warn("upload rejected")
		return extract.Document{}, errTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return extract.Document{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return extract.Document{}, err
	}
	return extract.Document{
		Filename: fh.Filename,
		MIME:     extract.Detect(fh.Filename, fh.Header.Get("Content-Type")),
		Data:     data,
	}, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, controller.ErrNoFile), errors.Is(err, controller.ErrNotPDF):
		return http.StatusBadRequest
	case errors.Is(err, errTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, controller.ErrBusy):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

func messageFor(err error) string {
	switch {
	case errors.Is(err, controller.ErrNoFile):
		return "Please select a PDF file first"
	case errors.Is(err, controller.ErrNotPDF):
		return "Please select a PDF file"
	case errors.Is(err, errTooLarge):
		return "File is too large"
	case errors.Is(err, controller.ErrBusy):
		return "An analysis is already running. Please wait."
	default:
		return controller.FailureMessage
	}
}
