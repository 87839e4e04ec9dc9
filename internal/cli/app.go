package cli

import (
	"context"
	"strings"

	"github.com/muhammadolammi/resumeanalyzer/internal/analysis"
	"github.com/muhammadolammi/resumeanalyzer/internal/config"
	"github.com/muhammadolammi/resumeanalyzer/internal/controller"
	"github.com/muhammadolammi/resumeanalyzer/internal/extract"
	"github.com/muhammadolammi/resumeanalyzer/internal/render"
	"github.com/muhammadolammi/resumeanalyzer/internal/status"
)

// app holds the wired collaborators of one command run.
type app struct {
	ctl       *controller.Controller
	client    analysis.Client
	renderer  render.Renderer
	publisher status.Publisher
	opts      controller.Options
}

func (a *app) Close() error {
	return a.publisher.Close()
}

func (e *env) renderer() (render.Renderer, error) {
	r, err := render.ByName(e.v.GetString("render.engine"))
	if err != nil {
		return nil, err
	}
	if e.v.GetBool("render.sanitize") {
		r = render.Sanitized(r)
	}
	return r, nil
}

func (e *env) publisher() (status.Publisher, error) {
	url := strings.TrimSpace(e.v.GetString("rabbitmq.url"))
	if url == "" {
		return status.Nop{}, nil
	}
	p, err := status.Dial(url, e.v.GetString("rabbitmq.exchange"))
	if err != nil {
		return nil, err
	}
	e.log.WithField("exchange", e.v.GetString("rabbitmq.exchange")).Info("publishing status updates")
	return p, nil
}

// buildApp wires the Gemini client, renderer and publisher into a controller.
func buildApp(ctx context.Context, e *env) (*app, error) {
	apiKey, err := config.RequireAPIKey(e.v)
	if err != nil {
		return nil, err
	}
	renderer, err := e.renderer()
	if err != nil {
		return nil, err
	}
	client, err := analysis.NewGemini(ctx, analysis.Config{
		APIKey: apiKey,
		Model:  e.v.GetString("gemini.model"),
	})
	if err != nil {
		return nil, err
	}
	pub, err := e.publisher()
	if err != nil {
		return nil, err
	}

	opts := controller.Options{
		Accept:  e.v.GetStringSlice("upload.accept"),
		Timeout: config.Timeout(e.v),
	}
	ctl := controller.New(extract.Text, client, renderer, pub, e.log, opts)
	return &app{ctl: ctl, client: client, renderer: renderer, publisher: pub, opts: opts}, nil
}
