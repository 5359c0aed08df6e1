package scheduler

// consecutiveDaySequences enumerates every run of n days that are
// consecutive in canonicalDayOrder and all present in the input.
func consecutiveDaySequences(idx *Index, n int) [][]string {
	var sequences [][]string
	for start := 0; start+n <= len(canonicalDayOrder); start++ {
		candidate := canonicalDayOrder[start : start+n]
		ok := true
		for _, day := range candidate {
			if len(idx.SlotsForDay(day)) == 0 {
				ok = false
				break
			}
		}
		if ok {
			seq := make([]string, n)
			copy(seq, candidate)
			sequences = append(sequences, seq)
		}
	}
	return sequences
}

// candidateHours returns the hours to try for a day sequence: the already
// fixed hour for this (group, course) if one exists, otherwise every
// distinct start hour appearing across the sequence's days, randomized.
func candidateHours(idx *Index, tracker *Tracker, r *rng, groupID, courseID int, sequence []string) []string {
	if fixed, ok := tracker.FixedHour(groupID, courseID); ok {
		return []string{fixed}
	}
	seen := make(map[string]struct{})
	var hours []string
	for _, day := range sequence {
		for _, slot := range idx.SlotsForDay(day) {
			if _, ok := seen[slot.StartTime]; ok {
				continue
			}
			seen[slot.StartTime] = struct{}{}
			hours = append(hours, slot.StartTime)
		}
	}
	r.shuffleStrings(hours)
	return hours
}

// slotAtHour returns the day's timeslot whose start time equals hour, if
// one exists.
func slotAtHour(idx *Index, day, hour string) (Timeslot, bool) {
	for _, slot := range idx.SlotsForDay(day) {
		if slot.StartTime == hour {
			return slot, true
		}
	}
	return Timeslot{}, false
}

const languageMaxAttempts = 50

// placeLanguageCourse implements the language-course placement pass:
// it seeks n consecutive days at a single fixed hour for (group, course),
// using displacement if a direct fit is not available. blocks must all be
// duration-1 (language courses have max_block_duration == 1).
func placeLanguageCourse(idx *Index, tracker *Tracker, board *Board, r *rng, course Course, group Group, blocks []int) bool {
	n := len(blocks)
	if n == 0 {
		return true
	}

	for attempt := 0; attempt < languageMaxAttempts; attempt++ {
		sequences := consecutiveDaySequences(idx, n)
		if len(sequences) == 0 {
			return false
		}
		r.Shuffle(len(sequences), func(i, j int) { sequences[i], sequences[j] = sequences[j], sequences[i] })

		if tryLanguageSequences(idx, tracker, board, r, course, group, sequences, false) {
			return true
		}
		if tryLanguageSequences(idx, tracker, board, r, course, group, sequences, true) {
			return true
		}
	}
	return false
}

// tryLanguageSequences attempts every (sequence, hour) combination. When
// allowDisplacement is false it only accepts combinations that are
// directly free; when true it additionally tries to clear conflicting
// non-language blocks via the Displacement Engine.
func tryLanguageSequences(idx *Index, tracker *Tracker, board *Board, r *rng, course Course, group Group, sequences [][]string, allowDisplacement bool) bool {
	for _, sequence := range sequences {
		hours := candidateHours(idx, tracker, r, group.ID, course.ID, sequence)
		for _, hour := range hours {
			if tryLanguageCombination(idx, tracker, board, r, course, group, sequence, hour, allowDisplacement) {
				return true
			}
		}
	}
	return false
}

func tryLanguageCombination(idx *Index, tracker *Tracker, board *Board, r *rng, course Course, group Group, sequence []string, hour string, allowDisplacement bool) bool {
	slotIDs := make([]int, len(sequence))
	for i, day := range sequence {
		slot, ok := slotAtHour(idx, day, hour)
		if !ok {
			return false
		}
		slotIDs[i] = slot.ID
	}

	if allowDisplacement {
		conflicts := board.conflictingBlocks(slotIDs)
		for _, ref := range conflicts {
			conflictCourse, ok := idx.Course(ref.CourseID)
			if !ok || conflictCourse.IsLanguageCourse() {
				return false
			}
		}
		for _, ref := range conflicts {
			if !relocateBlock(idx, tracker, board, r, ref) {
				return false
			}
		}
	}

	professorID, ok := idx.ProfessorForGroupCourse(group.ID, course.ID)
	if !ok {
		return false
	}
	roomID, ok := idx.RoomForProfessor(professorID)
	if !ok {
		return false
	}

	for i, slotID := range slotIDs {
		single := []int{slotID}
		if !idx.IsProfessorAvailable(professorID, single) {
			return false
		}
		if !tracker.CanAssignProfessor(professorID, single) {
			return false
		}
		if !tracker.CanAssignGroup(group.ID, single) {
			return false
		}
		if !tracker.CanAssignRoom(roomID, single) {
			return false
		}
		_ = i
	}

	for i, day := range sequence {
		blockIndex := board.NextBlockIndex(group.ID, course.ID)
		tracker.Assign(professorID, group.ID, roomID, []int{slotIDs[i]}, course, day, hour)
		board.PlaceBlock(group.ID, course.ID, blockIndex, []int{slotIDs[i]}, roomID)
	}
	return true
}
