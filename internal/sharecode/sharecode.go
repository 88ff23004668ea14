package sharecode

import (
	"errors"
	"strings"

	hashids "github.com/speps/go-hashids/v2"
)

var ErrInvalidCode = errors.New("invalid share code")

// Codec turns review IDs into short, non-guessy public codes for share links
// (WELP-XXXXXXXX). The mapping is reversible with the salt, so codes never
// need their own storage lookup table.
type Codec struct {
	h *hashids.HashID
}

const prefix = "WELP-"

func New(salt string) (*Codec, error) {
	data := hashids.NewData()
	data.Salt = salt
	data.MinLength = 8
	data.Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	h, err := hashids.NewWithData(data)
	if err != nil {
		return nil, err
	}

	return &Codec{h: h}, nil
}

func (c *Codec) Encode(reviewID int64) (string, error) {
	code, err := c.h.EncodeInt64([]int64{reviewID})
	if err != nil {
		return "", err
	}
	return prefix + code, nil
}

func (c *Codec) Decode(code string) (int64, error) {
	raw := strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(code)), prefix)
	if raw == "" {
		return 0, ErrInvalidCode
	}

	ids, err := c.h.DecodeInt64WithError(raw)
	if err != nil || len(ids) != 1 {
		return 0, ErrInvalidCode
	}

	return ids[0], nil
}
