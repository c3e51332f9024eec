package postgres

import "github.com/google/uuid"

// validID reports whether id can be compared against a UUID column. Anything
// else can never match a stored row.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
