// Package conversation decides which responses on a review form the live
// business/customer exchange and which have been stranded by claim changes.
// Everything here is pure: no I/O, no clocks, no ambient identity. Callers
// pass the review's business identity and current claimant explicitly and the
// same input always yields the same partition.
package conversation

import (
	"sort"

	"welp/internal/store"
)

// Partition is the result of validating a review's response list. Both slices
// are in conversation order (ascending by creation time, ties by insertion
// order).
type Partition struct {
	Valid    []store.Response
	Orphaned []store.Response
}

// Validate classifies responses against the review's two fixed participants.
//
// A business response is always part of the live conversation. A response by
// the current claimant is live only if a business response precedes it and it
// has not been superseded: once the business takes a newer turn and the
// claimant answers that newer turn instead, the earlier claimant reply is
// conversationally dead and gets orphaned so the claimant can be shown a "no
// longer applies" notice. A claimant reply the business has responded to but
// the claimant has not replaced remains the live customer turn. Responses by
// anyone else (a previous claimant, typically) pass through untouched: pruning
// other users' data is not this function's call.
//
// claimantID of 0 means the review is unclaimed. reviewAuthorID must be set;
// passing 0 is a programmer error.
func Validate(responses []store.Response, reviewAuthorID, claimantID int64) Partition {
	if reviewAuthorID == 0 {
		panic("conversation: reviewAuthorID is required")
	}

	sorted := make([]store.Response, len(responses))
	copy(sorted, responses)
	sort.SliceStable(sorted, func(i, j int) bool {
		return createdBefore(sorted[i], sorted[j])
	})

	p := Partition{}
	seenBusiness := false

	for i, r := range sorted {
		switch {
		case r.AuthorID == reviewAuthorID:
			seenBusiness = true
			p.Valid = append(p.Valid, r)

		case claimantID != 0 && r.AuthorID == claimantID:
			later := sorted[i+1:]
			if !seenBusiness {
				// A customer cannot open the conversation.
				p.Orphaned = append(p.Orphaned, r)
			} else if hasAuthorAfter(later, reviewAuthorID) && hasAuthorAfter(later, claimantID) {
				// The business took a newer turn and the claimant has replied
				// again; this reply answers a statement that no longer stands.
				p.Orphaned = append(p.Orphaned, r)
			} else {
				p.Valid = append(p.Valid, r)
			}

		default:
			p.Valid = append(p.Valid, r)
		}
	}

	return p
}

func hasAuthorAfter(later []store.Response, authorID int64) bool {
	for _, r := range later {
		if r.AuthorID == authorID {
			return true
		}
	}
	return false
}

// createdBefore orders by creation time, treating a zero timestamp as greater
// than any real one so a malformed record sorts last instead of hijacking the
// head of the conversation.
func createdBefore(a, b store.Response) bool {
	switch {
	case a.CreatedAt.IsZero():
		return false
	case b.CreatedAt.IsZero():
		return true
	default:
		return a.CreatedAt.Before(b.CreatedAt)
	}
}
