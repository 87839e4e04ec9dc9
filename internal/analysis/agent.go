package analysis

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"
)

const (
	DefaultModel     = "gemini-2.5-pro"
	DefaultAgentName = "resume analyzer"

	userID = "resumeanalyzer"
)

// Config is everything the Gemini client needs. The API key is passed in
// explicitly; nothing is read from the environment here.
type Config struct {
	APIKey    string
	Model     string
	AgentName string
}

// Gemini analyzes resumes with a single-turn llm agent. Every call gets its
// own in-memory session which is deleted afterwards.
type Gemini struct {
	appName  string
	runner   *runner.Runner
	sessions session.Service
}

func NewGemini(ctx context.Context, cfg Config) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.AgentName == "" {
		cfg.AgentName = DefaultAgentName
	}

	model, err := gemini.NewModel(ctx, cfg.Model, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create model: %w", err)
	}

	analyzer, err := llmagent.New(llmagent.Config{
		Name:        cfg.AgentName,
		Model:       model,
		Description: "Analyze Resume",
		Instruction: prompt(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}

	sessions := session.InMemoryService()
	r, err := runner.New(runner.Config{
		AppName:        analyzer.Name(),
		Agent:          analyzer,
		SessionService: sessions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create runner: %w", err)
	}

	return &Gemini{appName: analyzer.Name(), runner: r, sessions: sessions}, nil
}

// Analyze sends resumeText to the agent and returns the final response text
// with any enclosing code fence removed.
func (g *Gemini) Analyze(ctx context.Context, resumeText string) (output string, err error) {
	created, err := g.sessions.Create(ctx, &session.CreateRequest{
		AppName:   g.appName,
		UserID:    userID,
		SessionID: uuid.NewString(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	defer func() {
		delErr := g.sessions.Delete(context.WithoutCancel(ctx), &session.DeleteRequest{
			AppName:   created.Session.AppName(),
			UserID:    created.Session.UserID(),
			SessionID: created.Session.ID(),
		})
		if delErr != nil && err == nil {
			err = fmt.Errorf("failed to delete session: %w", delErr)
		}
	}()

	stream := g.runner.Run(ctx, created.Session.UserID(), created.Session.ID(), &genai.Content{
		Role: "user",
		Parts: []*genai.Part{
			{Text: message(resumeText)},
		},
	}, agent.RunConfig{})

	for event, err := range stream {
		if err != nil {
			return "", fmt.Errorf("agent stream error: %w", err)
		}
		if event != nil && event.IsFinalResponse() && event.Content != nil && len(event.Content.Parts) > 0 {
			output = event.Content.Parts[0].Text
		}
	}

	if output == "" {
		return "", ErrEmptyResponse
	}
	return StripFence(output), nil
}
