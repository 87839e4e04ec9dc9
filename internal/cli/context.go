package cli

import "context"

func withEnv(ctx context.Context, e *env) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, envKey, e)
}

func envFrom(ctx context.Context) *env {
	if ctx == nil {
		return nil
	}
	e, _ := ctx.Value(envKey).(*env)
	return e
}
