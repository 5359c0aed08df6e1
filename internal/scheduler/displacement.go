package scheduler

// resolveDisplacement implements the Displacement Engine: when
// the Position Finder finds nothing for a desired window, identify the
// blocks currently occupying that window, and try to relocate each one
// elsewhere. It does not recurse — a relocated block only lands in a
// position the Position Finder already deems valid without further
// displacement (Design Note "Displacement's single-level bound").
//
// Returns true if every conflicting block was relocated (the desired
// window is now clear); false otherwise. On partial failure, blocks that
// were relocated successfully before the failing one are left in their new
// homes — only the block that could not be relocated is
// restored to its original position.
func resolveDisplacement(idx *Index, tracker *Tracker, board *Board, r *rng, desiredSlotIDs []int) bool {
	conflicts := board.conflictingBlocks(desiredSlotIDs)
	if len(conflicts) == 0 {
		return false
	}

	for _, ref := range conflicts {
		course, ok := idx.Course(ref.CourseID)
		if !ok || course.IsLanguageCourse() {
			return false
		}
	}

	for _, ref := range conflicts {
		if !relocateBlock(idx, tracker, board, r, ref) {
			return false
		}
	}
	return true
}

// relocateBlock removes one block from its current position and searches
// for a new one on another day, in randomized order. On failure it
// restores the block exactly to its original slots, room, and day.
func relocateBlock(idx *Index, tracker *Tracker, board *Board, r *rng, ref blockRef) bool {
	course, ok := idx.Course(ref.CourseID)
	if !ok {
		return false
	}
	group := Group{ID: ref.GroupID}

	professorID, ok := idx.ProfessorForGroupCourse(ref.GroupID, ref.CourseID)
	if !ok {
		return false
	}
	slotIDs := board.blockSlotIDs(ref)
	roomID, ok := board.blockRoom(ref)
	if !ok || len(slotIDs) == 0 {
		return false
	}
	originalDay := ""
	if slot, ok := idx.Slot(slotIDs[0]); ok {
		originalDay = slot.Day
	}
	originalStartHour := ""
	if slot, ok := idx.Slot(slotIDs[0]); ok {
		originalStartHour = slot.StartTime
	}

	board.RemoveBlock(ref.GroupID, ref)
	tracker.Unassign(professorID, ref.GroupID, roomID, slotIDs, course, originalDay)

	days := idx.DayOrder()
	r.shuffleStrings(days)

	duration := len(slotIDs)
	for _, day := range days {
		if course.MaxBlockDuration == 1 {
			if used := tracker.DaysUsed(ref.GroupID, ref.CourseID); used != nil {
				if _, alreadyUsed := used[day]; alreadyUsed {
					continue
				}
			}
		}
		positions := FindPositions(idx, tracker, course, group, duration, day)
		if len(positions) == 0 {
			continue
		}
		chosen := r.choicePosition(positions)
		tracker.Assign(chosen.ProfessorID, ref.GroupID, chosen.RoomID, chosen.SlotIDs, course, chosen.Day, chosen.StartHour)
		board.PlaceBlock(ref.GroupID, ref.CourseID, ref.BlockIndex, chosen.SlotIDs, chosen.RoomID)
		return true
	}

	// No relocation found anywhere: restore exactly (transactional per block).
	tracker.Assign(professorID, ref.GroupID, roomID, slotIDs, course, originalDay, originalStartHour)
	board.PlaceBlock(ref.GroupID, ref.CourseID, ref.BlockIndex, slotIDs, roomID)
	return false
}
