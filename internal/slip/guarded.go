package slip

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

// Guarded bounds a Verifier with a timeout and turns every failure into UNREADABLE,
// so a slow or broken OCR service costs the payer an attempt instead of an error.
type Guarded struct {
	next    Verifier
	timeout time.Duration
	log     *slog.Logger
}

func NewGuarded(next Verifier, timeout time.Duration, log *slog.Logger) *Guarded {
	if log == nil {
		log = slog.Default()
	}
	return &Guarded{next: next, timeout: timeout, log: log}
}

func (g *Guarded) Verify(ctx context.Context, imageRef string, expected decimal.Decimal) (Result, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	res, err := g.next.Verify(ctx, imageRef, expected)
	if err != nil {
		g.log.Warn("slip verification failed, treating as unreadable",
			slog.String("image", imageRef), slog.Any("error", err))
		return Result{Outcome: Unreadable, Message: "we could not verify this slip, please try again"}, nil
	}
	return res, nil
}
