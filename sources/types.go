package sources

import (
	"errors"
	"fmt"
	"strings"
)

// EntityT names a Sensedata entity the sync knows how to read and reshape.
type EntityT string

const (
	Contacts  EntityT = "contacts"
	Customers EntityT = "customers"
	Nps       EntityT = "nps"
	Tasks     EntityT = "tasks"
)

var ErrUnknownEntity = errors.New("unknown entity")

// DefaultEntities is the order entities are synced in when nothing is configured.
var DefaultEntities = []EntityT{Contacts, Customers, Nps, Tasks}

func (e EntityT) String() string {
	return string(e)
}

func (e EntityT) Valid() bool {
	switch e {
	case Contacts, Customers, Nps, Tasks:
		return true
	}
	return false
}

func ParseEntity(name string) (EntityT, error) {
	e := EntityT(strings.ToLower(strings.TrimSpace(name)))
	if !e.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownEntity, name)
	}
	return e, nil
}

// ParseEntities keeps the given order. Blank names are skipped, duplicates are rejected.
func ParseEntities(names []string) ([]EntityT, error) {
	entities := make([]EntityT, 0, len(names))
	seen := make(map[EntityT]bool)
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		e, err := ParseEntity(name)
		if err != nil {
			return nil, err
		}
		if seen[e] {
			return nil, fmt.Errorf("entity %q listed twice", e)
		}
		seen[e] = true
		entities = append(entities, e)
	}
	if len(entities) == 0 {
		return nil, errors.New("no entities to sync")
	}
	return entities, nil
}
