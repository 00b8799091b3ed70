// Package resumes owns the resume record and its ingestion status machine.
//
// Two capabilities are exposed: OwnerStore for calls made on behalf of an
// authenticated user (every method takes the caller's UserID), and
// PipelineStore for the worker's extraction and parsing steps, which are
// never reachable from the HTTP surface.
package resumes

import (
	"errors"

	"eliteapply/internal/database"
)

var (
	// ErrNotFound is returned for missing records and for records owned by someone else.
	ErrNotFound = errors.New("resume not found")
	// ErrInvalidTransition is returned when the record is not in a state the edge starts from.
	ErrInvalidTransition = errors.New("invalid resume status transition")
	// ErrFileKeyTaken is returned when an object key is already registered to a record.
	ErrFileKeyTaken = errors.New("file already registered")
)

// predecessors lists, per target status, the states it may be entered from.
var predecessors = map[database.ResumeStatus][]database.ResumeStatus{
	database.StatusExtracting: {database.StatusUploaded, database.StatusFailed},
	database.StatusParsing:    {database.StatusExtracting},
	database.StatusComplete:   {database.StatusParsing},
	database.StatusFailed:     {database.StatusUploaded, database.StatusExtracting, database.StatusParsing},
}

// CanTransition reports whether from -> to is an edge of the status machine.
func CanTransition(from, to database.ResumeStatus) bool {
	for _, p := range predecessors[to] {
		if p == from {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no pipeline step will move the record further.
func IsTerminal(s database.ResumeStatus) bool {
	return s == database.StatusComplete || s == database.StatusFailed
}
