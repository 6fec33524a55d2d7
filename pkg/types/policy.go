package types

import (
	"errors"
	"strings"
)

// Policy decides what a keyed write does when the key is already occupied.
type Policy int

// Write policies. PolicyRejectIfExists is the zero value and the default for
// every store: the first write to a key wins and later writes are ignored.
const (
	PolicyRejectIfExists Policy = iota
	PolicyReplace
	PolicyMergeOverlay
)

// ErrInvalidPolicy is returned when a policy name is not recognized.
var ErrInvalidPolicy = errors.New("invalid write policy")

var policyNames = map[Policy]string{
	PolicyRejectIfExists: "reject",
	PolicyReplace:        "replace",
	PolicyMergeOverlay:   "merge",
}

// String returns the configuration name of the policy.
func (p Policy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether p is one of the declared policies.
func (p Policy) Valid() bool {
	_, ok := policyNames[p]
	return ok
}

// ParsePolicy maps a configuration name ("reject", "replace", "merge") to a
// Policy. Matching is case-insensitive; the empty string yields the default.
func ParsePolicy(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "reject", "reject-if-exists":
		return PolicyRejectIfExists, nil
	case "replace":
		return PolicyReplace, nil
	case "merge", "merge-overlay":
		return PolicyMergeOverlay, nil
	default:
		return PolicyRejectIfExists, ErrInvalidPolicy
	}
}
