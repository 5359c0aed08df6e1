package scheduler

// DecomposeBlocks splits a course's weekly hours into a sequence of block
// durations, each within [MinBlockDuration, MaxBlockDuration], totaling
// WeeklyHours. The greedy rule: emit min(remaining, max); if
// that falls short of min and remaining still meets min, raise it to min
// (the leftover is absorbed by the next iteration).
func DecomposeBlocks(course Course) []int {
	remaining := course.WeeklyHours
	var blocks []int
	for remaining > 0 {
		block := remaining
		if block > course.MaxBlockDuration {
			block = course.MaxBlockDuration
		}
		if block < course.MinBlockDuration && remaining >= course.MinBlockDuration {
			block = course.MinBlockDuration
		}
		blocks = append(blocks, block)
		remaining -= block
	}
	return blocks
}
