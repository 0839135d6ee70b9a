package normalize

import "context"

// Completer is the external completion service used for structured conversion.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}
