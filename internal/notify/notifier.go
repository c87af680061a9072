// Package notify renders classified releases and delivers them.
package notify

import (
	"context"
	"errors"

	"github.com/nickromney-org/release-radar/internal/classify"
)

// ErrDelivery means a notification could not be delivered
var ErrDelivery = errors.New("notification delivery failed")

// Notifier delivers one classified release
type Notifier interface {
	Notify(ctx context.Context, r classify.ClassifiedRelease) error
}
