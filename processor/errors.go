package processor

import "fmt"

// NormalizationError reports a single source record that cannot be mapped to
// a snapshot row because a structurally required field is absent. It refers
// to exactly one record; the rest of the batch is unaffected.
type NormalizationError struct {
	CMCID  int64
	Symbol string
	Field  string
}

func (e *NormalizationError) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("coin %d (%s): missing required field '%s'", e.CMCID, e.Symbol, e.Field)
	}
	return fmt.Sprintf("coin %d: missing required field '%s'", e.CMCID, e.Field)
}
