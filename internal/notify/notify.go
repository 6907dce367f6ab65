// Package notify delivers outbound notifications about lifecycle events.
// Delivery is best-effort: services log failures and never fail the
// mutation that triggered the message.
package notify

import (
	"context"

	"tutormatch/internal/model"
)

type Notifier interface {
	// RequestMatched tells a user they have been paired for a subject.
	RequestMatched(ctx context.Context, user, partner *model.User, subject *model.Subject) error
	// PartnerLost tells a user their matched partner is gone and the
	// request has been marked not matched.
	PartnerLost(ctx context.Context, user *model.User, subject *model.Subject) error
}

// Nop is the notifier used when no delivery channel is configured.
type Nop struct{}

func (Nop) RequestMatched(context.Context, *model.User, *model.User, *model.Subject) error {
	return nil
}

func (Nop) PartnerLost(context.Context, *model.User, *model.Subject) error {
	return nil
}
