package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"

	"github.com/muhammadolammi/resumeanalyzer/internal/controller"
	"github.com/muhammadolammi/resumeanalyzer/internal/extract"
	"github.com/muhammadolammi/resumeanalyzer/internal/status"
)

// Job asks for one resume stored in the bucket to be analyzed.
type Job struct {
	AnalysisID uuid.UUID `json:"analysis_id"`
	ObjectKey  string    `json:"object_key"`
}

// Fetcher loads the document a job points at, see storage.R2.
type Fetcher interface {
	Fetch(ctx context.Context, key string) (extract.Document, error)
}

type Config struct {
	URL   string
	Queue string
	// Concurrency is the number of consumers, each with its own connection.
	Concurrency int

	Fetcher   Fetcher
	Publisher status.Publisher
	Reporter  status.Reporter
	// NewController returns the controller one consumer runs its jobs on.
	NewController func() *controller.Controller
	Log           *logrus.Logger
}

// Pool consumes jobs from a durable queue and reports every outcome once.
// Failed jobs are acked and reported, never requeued. Only a job received
// while the pool is stopping goes back to the queue, unreported.
type Pool struct {
	cfg Config
}

func New(cfg Config) *Pool {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.Publisher == nil {
		cfg.Publisher = status.Nop{}
	}
	if cfg.Reporter == nil {
		cfg.Reporter = status.Nop{}
	}
	return &Pool{cfg: cfg}
}

// Run starts the consumers and blocks until ctx is cancelled or one of them
// fails.
func (p *Pool) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errc := make(chan error, p.cfg.Concurrency)
	wg.Add(p.cfg.Concurrency)

	for i := range p.cfg.Concurrency {
		p.cfg.Log.WithField("worker", i+1).Info("worker started")
		go func(id int) {
			defer wg.Done()
			if err := p.consume(ctx, id, p.cfg.NewController()); err != nil {
				errc <- fmt.Errorf("worker %d: %w", id, err)
				cancel()
			}
		}(i + 1)
	}
	wg.Wait()
	close(errc)

	return errors.Join(collect(errc)...)
}

func collect(errc <-chan error) []error {
	var errs []error
	for err := range errc {
		errs = append(errs, err)
	}
	return errs
}

func (p *Pool) consume(ctx context.Context, id int, ctl *controller.Controller) error {
	conn, err := amqp.Dial(p.cfg.URL)
	if err != nil {
		return fmt.Errorf("error dialling rabbitmq: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("error connecting to rabbitmq channel: %w", err)
	}
	defer ch.Close()

	_, err = ch.QueueDeclare(
		p.cfg.Queue, // queue name
		true,        // durable (survives broker restarts)
		false,       // auto-delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	// one job in flight per consumer
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("failed to set qos: %w", err)
	}

	msgs, err := ch.Consume(
		p.cfg.Queue, // queue name
		"",          // consumer tag
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("error consuming rabbitmq message: %w", err)
	}

	return p.serve(ctx, ctl, msgs, p.cfg.Log.WithField("worker", id))
}

// serve handles deliveries until ctx is cancelled. A job that has started
// runs to completion; one received after cancellation goes back to the queue.
func (p *Pool) serve(ctx context.Context, ctl *controller.Controller, msgs <-chan amqp.Delivery, log *logrus.Entry) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed")
			}
			if ctx.Err() != nil {
				if err := msg.Nack(false, true); err != nil {
					return fmt.Errorf("nack: %w", err)
				}
				return nil
			}
			// analysis.timeout still bounds the job
			if err := p.Handle(context.WithoutCancel(ctx), ctl, msg.Body); err != nil {
				log.WithError(err).Warn("job failed")
			}
			if err := msg.Ack(false); err != nil {
				return fmt.Errorf("ack: %w", err)
			}
		}
	}
}

// Handle runs one job body on ctl and reports its outcome. The returned
// error is for logging only; the job has already been reported.
func (p *Pool) Handle(ctx context.Context, ctl *controller.Controller, body []byte) error {
	var job Job
	if err := json.Unmarshal(body, &job); err != nil {
		// report against the id if that much of the body is readable
		var head struct {
			AnalysisID uuid.UUID `json:"analysis_id"`
		}
		if json.Unmarshal(body, &head) == nil {
			p.reject(ctx, Job{AnalysisID: head.AnalysisID})
		}
		return fmt.Errorf("error unmarshalling message body: %w", err)
	}
	if job.ObjectKey == "" {
		p.reject(ctx, job)
		return errors.New("job has no object_key")
	}
	if job.AnalysisID == uuid.Nil {
		job.AnalysisID = uuid.New()
	}

	log := p.cfg.Log.WithFields(logrus.Fields{
		"analysis_id": job.AnalysisID,
		"object_key":  job.ObjectKey,
	})
	log.Info("processing job")

	doc, err := p.cfg.Fetcher.Fetch(ctx, job.ObjectKey)
	if err != nil {
		p.reject(ctx, job)
		return fmt.Errorf("file download error: %w", err)
	}

	res, err := ctl.AnalyzeWithID(ctx, job.AnalysisID, doc)
	report := status.Report{
		AnalysisID: job.AnalysisID,
		ObjectKey:  job.ObjectKey,
		Filename:   doc.Filename,
		Timestamp:  time.Now(),
	}
	switch {
	case err == nil:
		report.Markdown = res.Markdown
		report.HTML = res.HTML.String()
	case res.Err != "":
		report.Error = res.Err
	default:
		// rejected before the controller published anything
		p.publish(ctx, log, status.NewUpdate(job.AnalysisID, status.Failed))
		report.Error = controller.FailureMessage
	}
	p.report(ctx, log, report)
	return err
}

// reject fails a job that could not be run. Without an analysis id there is
// nobody to tell.
func (p *Pool) reject(ctx context.Context, job Job) {
	if job.AnalysisID == uuid.Nil {
		return
	}
	log := p.cfg.Log.WithField("analysis_id", job.AnalysisID)
	p.publish(ctx, log, status.NewUpdate(job.AnalysisID, status.Failed))
	p.report(ctx, log, status.Report{
		AnalysisID: job.AnalysisID,
		ObjectKey:  job.ObjectKey,
		Error:      controller.FailureMessage,
		Timestamp:  time.Now(),
	})
}

func (p *Pool) publish(ctx context.Context, log *logrus.Entry, update status.Update) {
	if err := p.cfg.Publisher.Publish(ctx, update); err != nil {
		log.WithError(err).Warn("failed to publish update")
	}
}

func (p *Pool) report(ctx context.Context, log *logrus.Entry, report status.Report) {
	if err := p.cfg.Reporter.Report(ctx, report); err != nil {
		log.WithError(err).Warn("failed to publish report")
	}
}
