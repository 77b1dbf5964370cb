// Package status defines the job pipeline lifecycle: the closed set of statuses,
// the active/archived partition and which transitions are legal.
package status

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Status is a job pipeline status. It doubles as the kanban column id.
type Status string

// Pipeline statuses.
const (
	Saved     Status = "saved"
	Applied   Status = "applied"
	NeedPrep  Status = "need_prep"
	Interview Status = "interview"
	Offer     Status = "offer"
	Rejected  Status = "rejected"
	Closed    Status = "closed"
	Accepted  Status = "accepted"
)

// Initial is the status of a freshly clipped job.
const Initial = Saved

var (
	// ErrInvalid is returned for a value outside the enumerated statuses.
	ErrInvalid = errors.New("invalid status")
	// ErrSameStatus is returned when a transition targets the current status.
	ErrSameStatus = errors.New("job already has this status")
)

// Group is one side of the active/archived partition.
type Group int

const (
	// GroupActive holds the pipeline columns shown on the board.
	GroupActive Group = iota + 1
	// GroupArchived holds the terminal-ish statuses.
	GroupArchived
)

// partition is the single source of truth for column order and grouping.
var partition = []struct {
	status Status
	group  Group
}{
	{Saved, GroupActive},
	{Applied, GroupActive},
	{NeedPrep, GroupActive},
	{Interview, GroupActive},
	{Offer, GroupActive},
	{Rejected, GroupArchived},
	{Closed, GroupArchived},
	{Accepted, GroupArchived},
}

var groups = func() map[Status]Group {
	m := make(map[Status]Group, len(partition))
	for _, p := range partition {
		m[p.status] = p.group
	}
	return m
}()

// Parse converts a raw string into a Status.
func Parse(s string) (Status, error) {
	st := Status(s)
	if _, ok := groups[st]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	return st, nil
}

// Valid reports whether s is one of the enumerated statuses.
func (s Status) Valid() bool {
	_, ok := groups[s]
	return ok
}

// Group returns the partition s belongs to, or 0 for an invalid status.
func (s Status) Group() Group {
	return groups[s]
}

// IsActive reports whether s is a board column.
func (s Status) IsActive() bool {
	return groups[s] == GroupActive
}

// IsArchived reports whether s is an archived status.
func (s Status) IsArchived() bool {
	return groups[s] == GroupArchived
}

func (s Status) String() string {
	return string(s)
}

// UnmarshalJSON rejects values outside the enum.
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := Parse(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// All returns every status in board order followed by the archived ones.
func All() []Status {
	out := make([]Status, 0, len(partition))
	for _, p := range partition {
		out = append(out, p.status)
	}
	return out
}

// Columns returns the active statuses in board order.
func Columns() []Status {
	return filter(GroupActive)
}

// Archived returns the archived statuses.
func Archived() []Status {
	return filter(GroupArchived)
}

func filter(g Group) []Status {
	var out []Status
	for _, p := range partition {
		if p.group == g {
			out = append(out, p.status)
		}
	}
	return out
}

// CanTransition reports whether a job may move from one status to another.
// Active statuses move freely among themselves, anything may be archived and
// archived jobs may be restored to any column. Moving to the current status
// is never a transition.
func CanTransition(from, to Status) bool {
	return Transition(from, to) == nil
}

// Transition validates a move and explains why it is rejected.
func Transition(from, to Status) error {
	if !to.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalid, string(to))
	}
	if !from.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalid, string(from))
	}
	if from == to {
		return ErrSameStatus
	}
	switch {
	case to.IsArchived():
		return nil
	case from.IsActive() && to.IsActive():
		return nil
	case from.IsArchived() && to.IsActive():
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalid, from, to)
}

// Menu lists the targets offered by the job context menu.
type Menu struct {
	MoveTo  []Status // active columns other than the current one
	Restore []Status // active columns, only for archived jobs
	Archive []Status // archived statuses other than the current one
}

// MenuTargets builds the context menu for a job in the given status.
func MenuTargets(from Status) Menu {
	var m Menu
	for _, col := range Columns() {
		switch {
		case from.IsArchived():
			m.Restore = append(m.Restore, col)
		case col != from:
			m.MoveTo = append(m.MoveTo, col)
		}
	}
	for _, a := range Archived() {
		if a != from {
			m.Archive = append(m.Archive, a)
		}
	}
	return m
}
