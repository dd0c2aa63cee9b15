// Package payment holds the payment gateway implementations behind the
// orchestrator's PaymentGateway port.
package payment

import (
	"context"
	"log/slog"

	"bookingFlow/internal/models"
)

// AutoApprove approves every charge. The upstream system settles payment
// out-of-band before the confirm call arrives, so the gateway's job here is
// to keep the payment step explicit in the workflow; a real processor slots
// in behind the same port.
type AutoApprove struct {
	log *slog.Logger
}

func NewAutoApprove(log *slog.Logger) *AutoApprove {
	return &AutoApprove{log: log}
}

func (g *AutoApprove) Charge(_ context.Context, b *models.Booking) error {
	g.log.Info("payment approved",
		slog.String("booking_id", b.ID),
		slog.Float64("amount", b.TotalAmount),
	)

	return nil
}
