package analysis

import (
	"context"
	"errors"
)

var (
	ErrMissingAPIKey = errors.New("missing gemini api key")
	ErrEmptyResponse = errors.New("empty agent response")
)

// Client turns resume text into a markdown analysis.
type Client interface {
	Analyze(ctx context.Context, resumeText string) (string, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, resumeText string) (string, error)

func (f ClientFunc) Analyze(ctx context.Context, resumeText string) (string, error) {
	return f(ctx, resumeText)
}
