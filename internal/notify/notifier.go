package notify

import (
	"context"
	"errors"
	"fmt"
)

// ErrDisabled signals that outbound delivery is disabled via configuration.
var ErrDisabled = errors.New("notify: delivery disabled")

// Message represents one outbound verification email.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
	From     string
	FromName string
}

// Notifier attempts delivery of a message and reports the outcome
// synchronously. A delivery failure never invalidates an issued passcode;
// callers report it upstream and the record stays usable.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// DeliveryError carries the provider's failure details for upstream reporting.
type DeliveryError struct {
	Code    string
	Message string
	Err     error
}

func (e *DeliveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("notify: %s (%s): %v", e.Message, e.Code, e.Err)
	}
	return fmt.Sprintf("notify: %s (%s)", e.Message, e.Code)
}

// Unwrap exposes the provider error for errors.Is / errors.As compatibility.
func (e *DeliveryError) Unwrap() error {
	return e.Err
}
