package notifications

import (
	"context"

	"github.com/9ssi7/exponent"
)

// PushSender is an abstraction over any push sender, though the message types
// here are the exponent SDK's.
type PushSender interface {
	Publish(ctx context.Context, msgs []*exponent.Message) ([]*exponent.MessageResponse, error)
	PublishSingle(ctx context.Context, msg *exponent.Message) ([]*exponent.MessageResponse, error)
}
