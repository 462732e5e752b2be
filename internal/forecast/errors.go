package forecast

import (
	"errors"
	"fmt"
)

// ErrModelNotFound is returned when a forecast is requested for a drug the
// registry has no model for. Surfaced to API callers as a 404.
var ErrModelNotFound = errors.New("no model loaded for drug")

func modelNotFound(drugID int64) error {
	return fmt.Errorf("%w: drug_id=%d", ErrModelNotFound, drugID)
}
