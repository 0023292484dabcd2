package briarrose

import (
	"sort"
	"strconv"
	"strings"
)

// PIDSet is a set of process IDs. The zero value is an empty set that can be
// read but not added to; use NewPIDSet to get a writable one.
type PIDSet map[int]struct{}

// NewPIDSet creates a set containing the given PIDs.
func NewPIDSet(pids ...int) PIDSet {
	set := make(PIDSet, len(pids))
	for _, pid := range pids {
		set[pid] = struct{}{}
	}
	return set
}

// Has returns true if the set contains the PID.
func (s PIDSet) Has(pid int) bool {
	_, ok := s[pid]
	return ok
}

// Len returns the number of PIDs in the set.
func (s PIDSet) Len() int { return len(s) }

// Union adds every PID in other to s.
func (s PIDSet) Union(other PIDSet) {
	for pid := range other {
		s[pid] = struct{}{}
	}
}

// Difference removes every PID in other from s.
func (s PIDSet) Difference(other PIDSet) {
	for pid := range other {
		delete(s, pid)
	}
}

// Clone returns a copy of the set.
func (s PIDSet) Clone() PIDSet {
	clone := make(PIDSet, len(s))
	clone.Union(s)
	return clone
}

// Sorted returns the PIDs in ascending order. It never returns nil, so that
// the JSON journal always shows a list.
func (s PIDSet) Sorted() []int {
	pids := make([]int, 0, len(s))
	for pid := range s {
		pids = append(pids, pid)
	}
	sort.Ints(pids)
	return pids
}

// String formats the set like "[1 2 3]".
func (s PIDSet) String() string {
	sorted := s.Sorted()
	strs := make([]string, len(sorted))
	for i, pid := range sorted {
		strs[i] = strconv.Itoa(pid)
	}
	return "[" + strings.Join(strs, " ") + "]"
}
