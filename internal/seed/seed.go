// Package seed picks one participant out of a set deterministically, so
// every client of a session can agree on an arbitrary choice (who holds
// the bomb first, who inherits it after an elimination) with no network
// round trip: same inputs, same answer, on every machine.
package seed

import (
	"errors"
	"hash/fnv"
	"slices"
)

var ErrNoParticipants = errors.New("no participants to select from")

// Index hashes sessionID and salt into a stable index in [0, n).
func Index(sessionID, salt string, n int) (int, error) {
	if n < 1 {
		return 0, ErrNoParticipants
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(sessionID))
	_, _ = h.Write([]byte{':'})
	_, _ = h.Write([]byte(salt))
	return int(h.Sum64() % uint64(n)), nil
}

// Pick selects one identity from participants. The list is sorted
// ascending before indexing so callers holding the same set in any order
// agree on the result. Input order is not modified.
func Pick(sessionID, salt string, participants []string) (string, error) {
	if len(participants) == 0 {
		return "", ErrNoParticipants
	}
	sorted := slices.Clone(participants)
	slices.Sort(sorted)

	i, err := Index(sessionID, salt, len(sorted))
	if err != nil {
		return "", err
	}
	return sorted[i], nil
}
