package term

import (
	"encoding/json"
	"fmt"

	apperrors "github.com/Adithya-Monish-Kumar-K/weighted-term-service/pkg/errors"
)

type wireTerm struct {
	Query  *string `json:"query"`
	Weight *int64  `json:"weight"`
}

// MarshalJSON encodes the term as {"query": "...", "weight": N}.
func (t *Term) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireTerm{Query: &t.query, Weight: &t.weight})
}

// UnmarshalJSON decodes {"query": "...", "weight": N} through the same
// validation as New. A null or missing query is rejected; a missing weight
// decodes as 0.
func (t *Term) UnmarshalJSON(data []byte) error {
	var w wireTerm
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("%w: decoding term: %v", apperrors.ErrInvalidArgument, err)
	}
	var weight int64
	if w.Weight != nil {
		weight = *w.Weight
	}
	decoded, err := NewFromPtr(w.Query, weight)
	if err != nil {
		return err
	}
	*t = *decoded
	return nil
}
