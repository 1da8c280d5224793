package history

// Status is the outcome of a scheduler pass over not-yet-built plans.
type Status int

// Scheduler statuses.
const (
	// StatusBlocked means no plan could be built and at least one is waiting on its anchor.
	StatusBlocked Status = iota
	// StatusObscured means some plans were built while others are still waiting.
	StatusObscured
	// StatusCompleted means plans were built and none are waiting.
	StatusCompleted
	// StatusFinished means nothing was built and nothing is waiting.
	StatusFinished
	// StatusRepeat asks the driver for another pass.
	StatusRepeat
	// StatusCancelled means the operator stopped the migration.
	StatusCancelled
)

const (
	statusBlockedNameConstant   = "BLOCKED"
	statusObscuredNameConstant  = "OBSCURED"
	statusCompletedNameConstant = "COMPLETED"
	statusFinishedNameConstant  = "FINISHED"
	statusRepeatNameConstant    = "REPEAT"
	statusCancelledNameConstant = "CANCELLED"
	statusUnknownNameConstant   = "UNKNOWN"
)

var statusNames = map[Status]string{
	StatusBlocked:   statusBlockedNameConstant,
	StatusObscured:  statusObscuredNameConstant,
	StatusCompleted: statusCompletedNameConstant,
	StatusFinished:  statusFinishedNameConstant,
	StatusRepeat:    statusRepeatNameConstant,
	StatusCancelled: statusCancelledNameConstant,
}

// String returns the upper-case status name.
func (status Status) String() string {
	if name, known := statusNames[status]; known {
		return name
	}
	return statusUnknownNameConstant
}

// IsComplete reports whether every plan of the kind has been built.
func (status Status) IsComplete() bool {
	return status == StatusFinished || status == StatusCompleted
}

// RequestsRetry reports whether the driver must run another pass.
func (status Status) RequestsRetry() bool {
	return status == StatusRepeat
}

// MadeProgress reports whether the pass that produced the status built any plan.
func (status Status) MadeProgress() bool {
	return status == StatusObscured || status == StatusCompleted
}

// DetermineStatus classifies a pass over one kind of plan.
func DetermineStatus(extractedAny bool, blockedAny bool) Status {
	switch {
	case blockedAny && extractedAny:
		return StatusObscured
	case blockedAny:
		return StatusBlocked
	case extractedAny:
		return StatusCompleted
	default:
		return StatusFinished
	}
}

// Combine merges the branch and tag outcomes of one pass into the driver status.
func Combine(branchStatus Status, tagStatus Status) Status {
	branchesComplete := branchStatus.IsComplete()
	switch tagStatus {
	case StatusObscured:
		if branchesComplete {
			return StatusBlocked
		}
		return StatusRepeat
	case StatusCompleted:
		if branchesComplete {
			return StatusFinished
		}
		return StatusRepeat
	case StatusFinished:
		if branchesComplete {
			return StatusFinished
		}
		return StatusBlocked
	case StatusCancelled:
		return StatusCancelled
	case StatusRepeat:
		return StatusRepeat
	default:
		return StatusBlocked
	}
}
