package waitlist

import "math"

const (
	BaseWaitMinutes         = 60
	MinutesPerPriorityLevel = 5
	MinimumWaitMinutes      = 5
)

// floorLevel is the first priority level whose estimate hits the minimum.
const floorLevel = (BaseWaitMinutes - MinimumWaitMinutes) / MinutesPerPriorityLevel

// EstimateWaitMinutes maps a triage priority level to an expected wait:
// an hour, less five minutes per level, never below MinimumWaitMinutes.
// Levels of zero or below are not clamped and yield an hour or more;
// results that would overflow int saturate at math.MaxInt.
func EstimateWaitMinutes(priorityLevel int) int {
	if priorityLevel >= floorLevel {
		return MinimumWaitMinutes
	}
	if priorityLevel < (BaseWaitMinutes-math.MaxInt)/MinutesPerPriorityLevel {
		return math.MaxInt
	}
	return max(BaseWaitMinutes-MinutesPerPriorityLevel*priorityLevel, MinimumWaitMinutes)
}
