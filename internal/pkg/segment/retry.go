package segment

import (
	"context"
	"log/slog"
)

// retryOnce runs fn and, if it fails while ctx is still live, runs it once
// more immediately. retried reports whether the second attempt happened.
func retryOnce[T any](ctx context.Context, log *slog.Logger, op string,
	fn func(context.Context) (T, error),
) (result T, retried bool, err error) {
	result, err = fn(ctx)
	if err == nil || ctx.Err() != nil {
		return result, false, err
	}

	log.WarnContext(ctx, "remote call failed, retrying once",
		slog.String("operation", op),
		slog.String("error", err.Error()))

	result, err = fn(ctx)

	return result, true, err
}
