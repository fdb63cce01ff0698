package workspace

import "context"

// Confirmer asks the user to approve a destructive action. The controller
// blocks until it answers.
type Confirmer interface {
	ConfirmDestructive(ctx context.Context, message string) bool
}

// ConfirmFunc adapts a function to the Confirmer interface.
type ConfirmFunc func(ctx context.Context, message string) bool

// ConfirmDestructive calls f(ctx, message).
func (f ConfirmFunc) ConfirmDestructive(ctx context.Context, message string) bool {
	return f(ctx, message)
}

type confirmKey struct{}

// WithConfirmation attaches an answer given ahead of time, for transports
// where the user confirms on the client before the request is sent.
func WithConfirmation(ctx context.Context, ok bool) context.Context {
	return context.WithValue(ctx, confirmKey{}, ok)
}

// ContextConfirmer answers with the value attached by WithConfirmation, and
// declines when there is none.
type ContextConfirmer struct{}

// ConfirmDestructive returns the answer attached to ctx, or false.
func (ContextConfirmer) ConfirmDestructive(ctx context.Context, _ string) bool {
	ok, _ := ctx.Value(confirmKey{}).(bool)
	return ok
}

func deletePrompt(name string) string {
	return `Are you sure you want to delete "` + name + `"?`
}
