package status

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
)

type Status string

const (
	Processing Status = "processing"
	Completed  Status = "completed"
	Failed     Status = "failed"
)

// Update is the event published whenever an analysis changes state.
type Update struct {
	AnalysisID uuid.UUID `json:"analysis_id"`
	Status     Status    `json:"status"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewUpdate(id uuid.UUID, status Status) Update {
	return Update{
		AnalysisID: id,
		Status:     status,
		Message:    "analysis " + messages[status],
		Timestamp:  time.Now(),
	}
}

var messages = map[Status]string{
	Processing: "started",
	Completed:  "completed",
	Failed:     "failed",
}

// RoutingKey is the topic key an update is published under.
func RoutingKey(id uuid.UUID) string {
	return fmt.Sprintf("analysis.%s", id)
}

// Report carries the outcome of a queued analysis. Error holds the user
// facing failure message and is empty on success.
type Report struct {
	AnalysisID uuid.UUID `json:"analysis_id"`
	ObjectKey  string    `json:"object_key"`
	Filename   string    `json:"filename,omitempty"`
	Markdown   string    `json:"markdown,omitempty"`
	HTML       string    `json:"html,omitempty"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// ReportKey is the topic key a Report is published under.
func ReportKey(id uuid.UUID) string {
	return RoutingKey(id) + ".result"
}

// Publisher delivers status updates to whoever is listening.
type Publisher interface {
	Publish(ctx context.Context, update Update) error
	Close() error
}

// Reporter delivers the result of a queued analysis.
type Reporter interface {
	Report(ctx context.Context, report Report) error
}

// Nop drops every update and report.
type Nop struct{}

func (Nop) Publish(context.Context, Update) error { return nil }
func (Nop) Report(context.Context, Report) error  { return nil }
func (Nop) Close() error                          { return nil }

// AMQP publishes updates as JSON to a durable topic exchange.
type AMQP struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	exchange string
}

func Dial(url, exchange string) (*AMQP, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("error connecting to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("error opening rabbitmq channel: %w", err)
	}
	defer ch.Close()

	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // kind
		true,     // durable
		false,    // auto-delete
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	return &AMQP{conn: conn, exchange: exchange}, nil
}

func (p *AMQP) Publish(_ context.Context, update Update) error {
	return p.send(RoutingKey(update.AnalysisID), update.Timestamp, update)
}

func (p *AMQP) Report(_ context.Context, report Report) error {
	return p.send(ReportKey(report.AnalysisID), report.Timestamp, report)
}

func (p *AMQP) send(routingKey string, ts time.Time, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	return ch.Publish(
		p.exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Timestamp:   ts,
			Body:        body,
		},
	)
}

func (p *AMQP) Close() error {
	return p.conn.Close()
}
