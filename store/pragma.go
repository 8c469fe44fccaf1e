package store

import (
	"fmt"
	"strings"
)

// Synchronous represents the SQLite pragma synchronous.
//
// See: https://www.sqlite.org/pragma.html#pragma_synchronous
type Synchronous string

const (
	SyncOff    Synchronous = "off"
	SyncNormal Synchronous = "normal"
	SyncFull   Synchronous = "full"
	SyncExtra  Synchronous = "extra"
)

// Journal represents the SQLite pragma journal_mode.
//
// See: https://www.sqlite.org/pragma.html#pragma_journal_mode
type Journal string

const (
	JournalOff      Journal = "off"
	JournalDelete   Journal = "delete"
	JournalTruncate Journal = "truncate"
	JournalPersist  Journal = "persist"
	JournalMemory   Journal = "memory"
	JournalWAL      Journal = "wal"
)

var (
	syncValues    = []Synchronous{SyncOff, SyncNormal, SyncFull, SyncExtra}
	journalValues = []Journal{JournalOff, JournalDelete, JournalTruncate, JournalPersist, JournalMemory, JournalWAL}
)

// ParseSynchronous returns the Synchronous value for s, case insensitive.
func ParseSynchronous(s string) (Synchronous, error) {
	v := Synchronous(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range syncValues {
		if v == known {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown synchronous value %q (want one of %s)", s, joinValues(syncValues))
}

// ParseJournal returns the Journal value for s, case insensitive.
func ParseJournal(s string) (Journal, error) {
	v := Journal(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range journalValues {
		if v == known {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown journal_mode value %q (want one of %s)", s, joinValues(journalValues))
}

// SynchronousValues lists the accepted synchronous values in pragma order.
func SynchronousValues() []string { return toStrings(syncValues) }

// JournalValues lists the accepted journal_mode values.
func JournalValues() []string { return toStrings(journalValues) }

func (s Synchronous) String() string { return string(s) }

func (j Journal) String() string { return string(j) }

func toStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

func joinValues[T ~string](values []T) string {
	return strings.Join(toStrings(values), ", ")
}
