package controller

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/muhammadolammi/resumeanalyzer/internal/analysis"
	"github.com/muhammadolammi/resumeanalyzer/internal/extract"
	"github.com/muhammadolammi/resumeanalyzer/internal/render"
	"github.com/muhammadolammi/resumeanalyzer/internal/status"
)

// FailureMessage is the only thing a user sees when an analysis fails.
const FailureMessage = "Error analyzing resume. Please try again."

var (
	ErrBusy   = errors.New("an analysis is already running")
	ErrNoFile = errors.New("please select a PDF file first")
	ErrNotPDF = errors.New("please select a PDF file")
)

// ExtractFunc pulls plain text out of a document, see extract.Text.
type ExtractFunc func(mimeType string, data []byte) (string, error)

type Options struct {
	// Accept lists the MIME types an upload may have.
	Accept  []string
	Timeout time.Duration
}

// Result is the outcome of one analysis. Err is set to FailureMessage when
// the analysis failed.
type Result struct {
	ID       uuid.UUID
	Filename string
	Markdown string
	HTML     render.Markup
	Err      string
}

// Controller runs at most one analysis at a time.
type Controller struct {
	extract   ExtractFunc
	client    analysis.Client
	renderer  render.Renderer
	publisher status.Publisher
	log       *logrus.Logger
	opts      Options

	busy atomic.Bool
}

func New(extractFn ExtractFunc, client analysis.Client, renderer render.Renderer, publisher status.Publisher, log *logrus.Logger, opts Options) *Controller {
	if extractFn == nil {
		extractFn = extract.Text
	}
	if renderer == nil {
		renderer = render.Default
	}
	if publisher == nil {
		publisher = status.Nop{}
	}
	if len(opts.Accept) == 0 {
		opts.Accept = []string{extract.MIMEPDF}
	}
	return &Controller{
		extract:   extractFn,
		client:    client,
		renderer:  renderer,
		publisher: publisher,
		log:       log,
		opts:      opts,
	}
}

// Busy reports whether an analysis is in flight.
func (c *Controller) Busy() bool {
	return c.busy.Load()
}

// Accepts reports whether documents of this MIME type can be analyzed.
func (c *Controller) Accepts(mimeType string) bool {
	return slices.Contains(c.opts.Accept, extract.NormalizeMIME(mimeType))
}

// Analyze extracts, analyzes and renders doc. Validation errors and ErrBusy
// are returned before any work starts. Any later failure returns a Result
// carrying FailureMessage together with the underlying error.
func (c *Controller) Analyze(ctx context.Context, doc extract.Document) (Result, error) {
	return c.AnalyzeWithID(ctx, uuid.New(), doc)
}

// AnalyzeWithID is Analyze for a caller that already named the analysis,
// e.g. a queued job.
func (c *Controller) AnalyzeWithID(ctx context.Context, id uuid.UUID, doc extract.Document) (Result, error) {
	if len(doc.Data) == 0 {
		return Result{}, ErrNoFile
	}
	if !c.Accepts(doc.MIME) {
		return Result{}, fmt.Errorf("%w: got %s", ErrNotPDF, doc.MIME)
	}
	if !c.busy.CompareAndSwap(false, true) {
		return Result{}, ErrBusy
	}
	defer c.busy.Store(false)

	res := Result{ID: id, Filename: doc.Filename}
	log := c.log.WithFields(logrus.Fields{
		"analysis_id": res.ID,
		"filename":    doc.Filename,
		"size":        humanize.Bytes(uint64(len(doc.Data))),
	})
	start := time.Now()

	c.publish(log, status.NewUpdate(res.ID, status.Processing))
	log.Info("analysis started")

	markdown, err := c.run(ctx, doc)
	if err != nil {
		log.WithError(err).WithField("duration", time.Since(start)).Error("analysis failed")
		c.publish(log, status.NewUpdate(res.ID, status.Failed))
		res.Err = FailureMessage
		return res, err
	}

	res.Markdown = markdown
	res.HTML = c.renderer.Render(markdown)
	c.publish(log, status.NewUpdate(res.ID, status.Completed))
	log.WithField("duration", time.Since(start)).Info("analysis completed")
	return res, nil
}

func (c *Controller) run(ctx context.Context, doc extract.Document) (string, error) {
	text, err := c.extract(doc.MIME, doc.Data)
	if err != nil {
		return "", fmt.Errorf("text extraction error: %w", err)
	}

	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}
	markdown, err := c.client.Analyze(ctx, text)
	if err != nil {
		return "", fmt.Errorf("analyze resume: %w", err)
	}
	return markdown, nil
}

// publish never fails an analysis; delivery problems are only logged.
func (c *Controller) publish(log *logrus.Entry, update status.Update) {
	if err := c.publisher.Publish(context.Background(), update); err != nil {
		log.WithError(err).Warn("failed to publish update")
	}
}
