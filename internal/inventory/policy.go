// Package inventory defines the table inventory policy: an immutable
// mapping from party size to the number of tables of that size the
// restaurant owns. The policy is injected configuration, loaded once at
// startup, and is safe for concurrent reads.
package inventory

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrInvalidPartySize is returned by CapacityFor when the requested party
// size is not one of the configured inventory keys. Handlers translate it
// into a validation failure.
var ErrInvalidPartySize = errors.New("invalid party size")

// Policy maps party size to the total number of tables for that size. The
// key set defines the full set of bookable sizes; any other size is
// invalid input.
type Policy struct {
	capacities map[int]int
}

// New builds a Policy from an explicit capacity map. The map is copied so
// the caller cannot mutate the policy afterwards. Sizes and capacities
// must be positive.
func New(capacities map[int]int) (*Policy, error) {
	if len(capacities) == 0 {
		return nil, errors.New("inventory: no party sizes configured")
	}
	m := make(map[int]int, len(capacities))
	for size, cap := range capacities {
		if size <= 0 {
			return nil, fmt.Errorf("inventory: party size %d must be positive", size)
		}
		if cap <= 0 {
			return nil, fmt.Errorf("inventory: capacity %d for party size %d must be positive", cap, size)
		}
		m[size] = cap
	}
	return &Policy{capacities: m}, nil
}

// Parse builds a Policy from a comma-separated "size:capacity" spec such
// as "2:4,3:3,4:5,5:3,6:6" (the format used by the TABLE_INVENTORY
// environment variable).
func Parse(spec string) (*Policy, error) {
	caps := map[int]int{}
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, ":", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("inventory: bad entry %q, want size:capacity", part)
		}
		size, err := strconv.Atoi(strings.TrimSpace(kv[0]))
		if err != nil {
			return nil, fmt.Errorf("inventory: bad party size in %q", part)
		}
		cap, err := strconv.Atoi(strings.TrimSpace(kv[1]))
		if err != nil {
			return nil, fmt.Errorf("inventory: bad capacity in %q", part)
		}
		if _, dup := caps[size]; dup {
			return nil, fmt.Errorf("inventory: duplicate party size %d", size)
		}
		caps[size] = cap
	}
	return New(caps)
}

// CapacityFor returns the total number of tables for the given party size.
// It returns ErrInvalidPartySize when the size is not configured.
func (p *Policy) CapacityFor(partySize int) (int, error) {
	cap, ok := p.capacities[partySize]
	if !ok {
		return 0, ErrInvalidPartySize
	}
	return cap, nil
}

// Valid reports whether the given party size is bookable at all.
func (p *Policy) Valid(partySize int) bool {
	_, ok := p.capacities[partySize]
	return ok
}

// Sizes returns the configured party sizes in ascending order.
func (p *Policy) Sizes() []int {
	sizes := make([]int, 0, len(p.capacities))
	for s := range p.capacities {
		sizes = append(sizes, s)
	}
	sort.Ints(sizes)
	return sizes
}
