package sqlutil

import (
	"encoding/json"
	"fmt"

	"github.com/sqlc-dev/pqtype"
)

// Helper functions for converting between Go values and JSONB columns

// ToNullRawMessage marshals val into a JSONB value. A nil val maps to SQL NULL.
func ToNullRawMessage(val any) (pqtype.NullRawMessage, error) {
	if val == nil {
		return pqtype.NullRawMessage{Valid: false}, nil
	}
	raw, err := json.Marshal(val)
	if err != nil {
		return pqtype.NullRawMessage{}, fmt.Errorf("marshal jsonb: %w", err)
	}
	return pqtype.NullRawMessage{RawMessage: raw, Valid: true}, nil
}

// FromNullRawMessage unmarshals a JSONB value into dst. SQL NULL leaves dst untouched.
func FromNullRawMessage(val pqtype.NullRawMessage, dst any) error {
	if !val.Valid || len(val.RawMessage) == 0 {
		return nil
	}
	if err := json.Unmarshal(val.RawMessage, dst); err != nil {
		return fmt.Errorf("unmarshal jsonb: %w", err)
	}
	return nil
}
