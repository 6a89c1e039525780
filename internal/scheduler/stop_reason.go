package scheduler

// StopReason explains why the scheduler reached its terminal state.
type StopReason string

const (
	StopUnknown  StopReason = "unknown"
	StopSamples  StopReason = "sample budget exhausted"
	StopFailure  StopReason = "failure stop"
	StopCanceled StopReason = "cancelled"
)
