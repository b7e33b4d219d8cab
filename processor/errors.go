package processor

import (
	"fmt"

	"kassette.ai/sensedata-sync/sources"
)

// MissingFieldError reports a field the record mapping needs but the record does not carry.
// Field is the dotted source path, e.g. "owner.profile.role".
type MissingFieldError struct {
	Entity sources.EntityT
	Index  int
	Field  string
}

func (e *MissingFieldError) Error() string {
	if e.Entity == "" {
		return fmt.Sprintf("missing field %q", e.Field)
	}
	return fmt.Sprintf("%s record %d: missing field %q", e.Entity, e.Index, e.Field)
}
