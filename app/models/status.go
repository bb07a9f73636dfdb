package models

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/looplab/fsm"
)

// Status is the lifecycle state of a post.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusScheduled Status = "scheduled"
	StatusPosted    Status = "posted"
)

// Statuses lists every Status in display order.
var Statuses = []Status{StatusDraft, StatusScheduled, StatusPosted}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusScheduled, StatusPosted:
		return true
	}
	return false
}

// Label is the badge text shown for a status.
func (s Status) Label() string {
	switch s {
	case StatusDraft:
		return "Draft"
	case StatusScheduled:
		return "Scheduled"
	case StatusPosted:
		return "Posted"
	}
	panic(fmt.Sprintf("unknown post status %q", string(s)))
}

// StatusFilter selects posts by status. FilterAll matches every post.
type StatusFilter string

const (
	FilterAll       StatusFilter = "all"
	FilterScheduled StatusFilter = StatusFilter(StatusScheduled)
	FilterPosted    StatusFilter = StatusFilter(StatusPosted)
	FilterDraft     StatusFilter = StatusFilter(StatusDraft)
)

// ParseStatusFilter parses a filter value; the empty string means all.
func ParseStatusFilter(v string) (StatusFilter, error) {
	switch f := StatusFilter(strings.ToLower(strings.TrimSpace(v))); f {
	case "", FilterAll:
		return FilterAll, nil
	case FilterScheduled, FilterPosted, FilterDraft:
		return f, nil
	}
	return "", fmt.Errorf("unknown status filter %q", v)
}

// Matches reports whether a post with status s passes the filter.
func (f StatusFilter) Matches(s Status) bool {
	return f == FilterAll || Status(f) == s
}

// Platform is a social channel a post targets.
type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformFacebook  Platform = "facebook"
	PlatformEmail     Platform = "email"
)

// Platforms lists the channels posts can be generated for.
var Platforms = []Platform{PlatformInstagram, PlatformFacebook, PlatformEmail}

// Valid reports whether p is a known platform.
func (p Platform) Valid() bool {
	for _, known := range Platforms {
		if p == known {
			return true
		}
	}
	return false
}

// Lifecycle events.
const (
	EventSchedule = "schedule"
	EventPublish  = "publish"
)

// ErrInvalidTransition is returned when an event is not allowed from the current status.
var ErrInvalidTransition = errors.New("invalid status transition")

// NewStatusMachine returns the lifecycle state machine positioned at s.
//
//	draft     --schedule--> scheduled
//	scheduled --schedule--> scheduled  (reschedule)
//	posted    --schedule--> scheduled  (reschedule clears postedAt)
//	draft     --publish-->  posted
//	scheduled --publish-->  posted
func NewStatusMachine(s Status) *fsm.FSM {
	return fsm.NewFSM(
		string(s),
		fsm.Events{
			{Name: EventSchedule, Src: []string{string(StatusDraft), string(StatusScheduled), string(StatusPosted)}, Dst: string(StatusScheduled)},
			{Name: EventPublish, Src: []string{string(StatusDraft), string(StatusScheduled)}, Dst: string(StatusPosted)},
		},
		fsm.Callbacks{},
	)
}

// Transition applies event to s and returns the resulting status.
func Transition(ctx context.Context, s Status, event string) (Status, error) {
	if !s.Valid() {
		return s, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, string(s))
	}
	sm := NewStatusMachine(s)
	if err := sm.Event(ctx, event); err != nil {
		var noTransition fsm.NoTransitionError
		if !errors.As(err, &noTransition) {
			return s, fmt.Errorf("%w: cannot %s a %s post", ErrInvalidTransition, event, s)
		}
	}
	return Status(sm.Current()), nil
}
