package scheduling

import (
	"fmt"
	"sort"
)

// ValidationError reports a malformed request: bad window, non-positive or
// oversized duration, empty participant set. Never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid request: " + e.Reason
}

// PermissionError reports which participants could not be reached. The
// message never distinguishes blocked from never-friended from nonexistent,
// so querying a blocked or unknown user is indistinguishable from querying
// one who simply denied access.
type PermissionError struct {
	ParticipantIDs []int64
}

func (e *PermissionError) Error() string {
	ids := append([]int64(nil), e.ParticipantIDs...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return fmt.Sprintf("calendar access denied for participants %v", ids)
}

// TransactionError reports an all-or-nothing write failure during slot
// confirmation. No partial attendee set is ever committed.
type TransactionError struct {
	Err error
}

func (e *TransactionError) Error() string {
	return "event creation failed: " + e.Err.Error()
}

func (e *TransactionError) Unwrap() error { return e.Err }
