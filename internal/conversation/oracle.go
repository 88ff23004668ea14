package conversation

import "welp/internal/store"

// CanCustomerRespond reports whether currentUserID may post the next response.
//
// Only the current claimant ever may, and only when the business holds the
// floor: the conversation must exist (the customer cannot initiate) and its
// most recent valid entry must be the business's. This enforces strict
// business/customer alternation on the customer side; the business may post
// consecutive responses without waiting.
func CanCustomerRespond(valid []store.Response, reviewAuthorID, claimantID, currentUserID int64) bool {
	if reviewAuthorID == 0 {
		panic("conversation: reviewAuthorID is required")
	}

	if claimantID == 0 || currentUserID != claimantID {
		return false
	}
	if len(valid) == 0 {
		return false
	}

	return valid[len(valid)-1].AuthorID == reviewAuthorID
}
