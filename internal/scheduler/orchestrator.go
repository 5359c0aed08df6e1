package scheduler

import "sort"

// Logger is the minimal logging seam the orchestrator needs. Passing nil
// is valid and silences logging entirely; the service layer supplies a
// zap-backed implementation in production.
type Logger interface {
	Debugf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Debugf(string, ...interface{}) {}
func (noopLogger) Warnf(string, ...interface{})  {}

const defaultMaxAttempts = 50
const verificationMaxAttempts = 100

// Input bundles every collection the core needs for one run.
type Input struct {
	Courses         []Course
	Rooms           []Room
	Timeslots       []Timeslot
	Professors      []Professor
	Assignments     []Assignment
	ProfessorRooms  map[int]int
	Groups          []Group
	Seed            int64
	MaxAttempts     int
	VerificationMax int
	Logger          Logger
}

// Run executes the full pipeline: build Index and Tracker,
// order courses by priority (language courses first, others by descending
// weekly hours), place every (course, group) pair, then run a verification
// pass that repairs any shortfall with duration-1 blocks.
func Run(in Input) Result {
	logger := in.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	maxAttempts := in.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	verifyMax := in.VerificationMax
	if verifyMax <= 0 {
		verifyMax = verificationMaxAttempts
	}

	if len(in.Assignments) == 0 || len(in.Groups) == 0 {
		return Result{Schedules: map[int]Schedule{}}
	}

	idx := NewIndex(in.Courses, in.Rooms, in.Timeslots, in.Professors, in.Assignments, in.ProfessorRooms)
	tracker := NewTracker()
	board := NewBoard(in.Groups)
	r := newRNG(in.Seed)

	groupsByID := make(map[int]Group, len(in.Groups))
	for _, g := range in.Groups {
		groupsByID[g.ID] = g
	}

	orderedCourses, groupsForCourse := coursePriorityOrder(in.Courses, in.Assignments)

	for _, course := range orderedCourses {
		for _, groupID := range groupsForCourse[course.ID] {
			group, ok := groupsByID[groupID]
			if !ok {
				continue
			}
			blocks := DecomposeBlocks(course)
			placeCourseForGroup(idx, tracker, board, r, logger, course, group, blocks, maxAttempts)
		}
	}

	deficits := runVerificationPass(idx, tracker, board, r, logger, in.Assignments, in.Courses, groupsByID, verifyMax)

	return Result{Schedules: board.Schedules(), Deficits: deficits}
}

// coursePriorityOrder derives the in-use courses from assignments, splits
// them into language/non-language, sorts non-language courses by
// descending weekly hours, and concatenates [language...] ++ [others...].
// It also returns, per course id, the groups assigned that course in the
// natural (first-seen) order of the assignment list.
func coursePriorityOrder(courses []Course, assignments []Assignment) ([]Course, map[int][]int) {
	courseByID := make(map[int]Course, len(courses))
	for _, c := range courses {
		courseByID[c.ID] = c
	}

	seenCourse := make(map[int]struct{})
	var inUse []Course
	groupsForCourse := make(map[int][]int)
	seenGroupCourse := make(map[groupCourseKey]struct{})

	for _, a := range assignments {
		course, ok := courseByID[a.CourseID]
		if !ok {
			continue
		}
		if _, ok := seenCourse[a.CourseID]; !ok {
			seenCourse[a.CourseID] = struct{}{}
			inUse = append(inUse, course)
		}
		key := groupCourseKey{GroupID: a.GroupID, CourseID: a.CourseID}
		if _, ok := seenGroupCourse[key]; !ok {
			seenGroupCourse[key] = struct{}{}
			groupsForCourse[a.CourseID] = append(groupsForCourse[a.CourseID], a.GroupID)
		}
	}

	var language, others []Course
	for _, c := range inUse {
		if c.IsLanguageCourse() {
			language = append(language, c)
		} else {
			others = append(others, c)
		}
	}
	sort.SliceStable(others, func(i, j int) bool { return others[i].WeeklyHours > others[j].WeeklyHours })

	ordered := make([]Course, 0, len(language)+len(others))
	ordered = append(ordered, language...)
	ordered = append(ordered, others...)
	return ordered, groupsForCourse
}

// placeCourseForGroup dispatches to the Language-Course Placer or the
// generic force-assign loop.
func placeCourseForGroup(idx *Index, tracker *Tracker, board *Board, r *rng, logger Logger, course Course, group Group, blocks []int, maxAttempts int) {
	if course.IsLanguageCourse() {
		if !placeLanguageCourse(idx, tracker, board, r, course, group, blocks) {
			logger.Warnf("language course %d infeasible for group %d", course.ID, group.ID)
		}
		return
	}
	forceAssignBlocks(idx, tracker, board, r, logger, course, group, blocks, maxAttempts)
}

// forceAssignBlocks implements the generic force-assign loop
// step 3, §4.5 fallback): for each block, try up to maxAttempts randomized
// (day, position) picks; failing that, fall back to displacement across
// days/windows; skip (log) the block if every attempt is exhausted.
func forceAssignBlocks(idx *Index, tracker *Tracker, board *Board, r *rng, logger Logger, course Course, group Group, blocks []int, maxAttempts int) {
	for blockIdx, duration := range blocks {
		if forceAssignOneBlock(idx, tracker, board, r, course, group, duration, maxAttempts) {
			continue
		}
		logger.Warnf("skipped block %d (duration %d) for course %d group %d: no position found", blockIdx, duration, course.ID, group.ID)
	}
}

func eligibleDays(idx *Index, tracker *Tracker, course Course, group Group) []string {
	days := idx.DayOrder()
	if course.MaxBlockDuration != 1 {
		return days
	}
	used := tracker.DaysUsed(group.ID, course.ID)
	if len(used) == 0 {
		return days
	}
	out := make([]string, 0, len(days))
	for _, d := range days {
		if _, skip := used[d]; !skip {
			out = append(out, d)
		}
	}
	return out
}

func forceAssignOneBlock(idx *Index, tracker *Tracker, board *Board, r *rng, course Course, group Group, duration, maxAttempts int) bool {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		days := eligibleDays(idx, tracker, course, group)
		if len(days) == 0 {
			break
		}
		day := days[r.Intn(len(days))]
		positions := FindPositions(idx, tracker, course, group, duration, day)
		if len(positions) == 0 {
			continue
		}
		commitPosition(board, tracker, course, group, r.choicePosition(positions))
		return true
	}

	// Displacement fallback: iterate days/windows, try to clear one via the
	// Displacement Engine, then re-query the Position Finder.
	days := eligibleDays(idx, tracker, course, group)
	r.shuffleStrings(days)
	for _, day := range days {
		for _, window := range candidateWindows(idx, day, duration) {
			if !resolveDisplacement(idx, tracker, board, r, window) {
				continue
			}
			positions := FindPositions(idx, tracker, course, group, duration, day)
			if len(positions) == 0 {
				continue
			}
			commitPosition(board, tracker, course, group, r.choicePosition(positions))
			return true
		}
	}
	return false
}

func commitPosition(board *Board, tracker *Tracker, course Course, group Group, pos Position) {
	tracker.Assign(pos.ProfessorID, group.ID, pos.RoomID, pos.SlotIDs, course, pos.Day, pos.StartHour)
	blockIndex := board.NextBlockIndex(group.ID, course.ID)
	board.PlaceBlock(group.ID, course.ID, blockIndex, pos.SlotIDs, pos.RoomID)
}

// candidateWindows returns every contiguous, hour-continuous window of
// `duration` slots on `day`, irrespective of current occupancy — the raw
// targets the Displacement Engine is asked to clear.
func candidateWindows(idx *Index, day string, duration int) [][]int {
	slots := idx.SlotsForDay(day)
	var windows [][]int
	for start := 0; start+duration <= len(slots); start++ {
		window := slots[start : start+duration]
		if !hasHourContinuity(window) {
			continue
		}
		slotIDs := make([]int, duration)
		for i, s := range window {
			slotIDs[i] = s.ID
		}
		windows = append(windows, slotIDs)
	}
	return windows
}

// runVerificationPass compares placed hours against weekly_hours for every
// (group, course) and repairs shortfalls with duration-1 blocks (spec
// §4.7 step 4). This intentionally violates I7; I6/I8/I9 remain enforced
// because forceAssignBlocks still goes through the same Position Finder
// and Displacement Engine.
func runVerificationPass(idx *Index, tracker *Tracker, board *Board, r *rng, logger Logger, assignments []Assignment, courses []Course, groupsByID map[int]Group, verifyMax int) []Deficit {
	courseByID := make(map[int]Course, len(courses))
	for _, c := range courses {
		courseByID[c.ID] = c
	}

	seen := make(map[groupCourseKey]struct{})
	var deficits []Deficit

	for _, a := range assignments {
		key := groupCourseKey{GroupID: a.GroupID, CourseID: a.CourseID}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		course, ok := courseByID[a.CourseID]
		if !ok {
			continue
		}
		group, ok := groupsByID[a.GroupID]
		if !ok {
			continue
		}

		placed := countPlacedHours(board, a.GroupID, a.CourseID)
		missing := course.WeeklyHours - placed
		if missing <= 0 {
			continue
		}

		fillBlocks := make([]int, missing)
		for i := range fillBlocks {
			fillBlocks[i] = 1
		}
		forceAssignBlocks(idx, tracker, board, r, logger, course, group, fillBlocks, verifyMax)

		finalPlaced := countPlacedHours(board, a.GroupID, a.CourseID)
		if remaining := course.WeeklyHours - finalPlaced; remaining > 0 {
			deficits = append(deficits, Deficit{GroupID: a.GroupID, CourseID: a.CourseID, Missing: remaining})
		}
	}
	return deficits
}

func countPlacedHours(board *Board, groupID, courseID int) int {
	count := 0
	for _, entry := range board.Schedule(groupID) {
		if entry.CourseID == courseID {
			count++
		}
	}
	return count
}
