// Package participants derives the canonical identity of a conversation
// from the set of users taking part in it.
package participants

import (
	"encoding/hex"
	"slices"
	"strings"

	"github.com/yoockh/yoosocial/internal/utils"
	"golang.org/x/crypto/blake2b"
)

const separator = "\x1f"

// MinParticipants is the smallest conversation size.
const MinParticipants = 2

// Set is a sorted, duplicate-free participant list and its key.
type Set struct {
	IDs []string
	Key string
}

// Canonicalize returns the same Set for any ordering or duplication of ids.
func Canonicalize(ids []string) (Set, error) {
	const op = "participants.Canonicalize"

	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			return Set{}, utils.E(utils.CodeInvalidArgument, op, "participant id must not be empty", nil)
		}
		if strings.Contains(id, separator) {
			return Set{}, utils.E(utils.CodeInvalidArgument, op, "participant id contains invalid characters", nil)
		}
		out = append(out, id)
	}

	slices.Sort(out)
	out = slices.Compact(out)
	if len(out) < MinParticipants {
		return Set{}, utils.E(utils.CodeInvalidArgument, op, "invalid participants: at least two distinct users are required", nil)
	}

	sum := blake2b.Sum256([]byte(strings.Join(out, separator)))
	return Set{IDs: out, Key: hex.EncodeToString(sum[:])}, nil
}

// Contains reports whether userID is part of the sorted id list.
func Contains(sortedIDs []string, userID string) bool {
	_, ok := slices.BinarySearch(sortedIDs, userID)
	return ok
}
