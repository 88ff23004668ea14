package notifications

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"welp/internal/store"

	"github.com/9ssi7/exponent"
)

type ResponseEvent string

const (
	BusinessResponded ResponseEvent = "BUSINESS_RESPONDED"
	CustomerResponded ResponseEvent = "CUSTOMER_RESPONDED"
)

var ErrNoTokens = errors.New("no push tokens")

// SendResponseNotification tells the other conversation party that a new
// response landed on a review they participate in.
func SendResponseNotification(ctx context.Context, push PushSender, tokensStore interface {
	ListByUser(ctx context.Context, userID int64) ([]string, error)
}, recipientID int64, event ResponseEvent, review *store.Review) error {
	tokens, err := tokensStore.ListByUser(ctx, recipientID)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		return ErrNoTokens
	}

	var title, body string
	switch event {
	case BusinessResponded:
		title = "New response from " + review.BusinessName
		body = fmt.Sprintf("%s replied in the conversation on your review.", review.BusinessName)
	case CustomerResponded:
		title = "New customer response"
		body = "The customer replied on one of your reviews."
	default:
		title = "Conversation update"
		body = "A review conversation you're part of has a new response."
	}

	msgs := make([]*exponent.Message, 0, len(tokens))
	for _, t := range tokens {
		token := exponent.Token(t)
		msgs = append(msgs, &exponent.Message{
			To:    []*exponent.Token{&token},
			Title: title,
			Body:  body,
			// Drives deep linking on the client when the push is tapped.
			Data: map[string]string{
				"type":     "response",
				"event":    string(event),
				"reviewId": strconv.FormatInt(review.ID, 10),
				"screen":   "review-conversation",
			},
		})
	}

	_, err = push.Publish(ctx, msgs)
	return err
}
