package scheduler

import "sort"

// groupCourseKey identifies a (group, course) pair, the unit most tracker
// and index lookups are keyed by.
type groupCourseKey struct {
	GroupID  int
	CourseID int
}

// Index is the immutable, read-only Input Index. It is built
// once per run and never mutated afterward; all entity navigation during
// placement goes through it rather than live references.
type Index struct {
	courses   map[int]Course
	rooms     map[int]Room
	professors map[int]Professor
	slots     map[int]Timeslot

	professorAvailable map[int]map[int]struct{} // professor -> available slot ids
	professorRoom      map[int]int              // professor -> room id
	groupCourseProf    map[groupCourseKey]int    // (group,course) -> professor id

	validSlots  []Timeslot
	slotsByDay  map[string][]Timeslot // sorted by slot id ascending
	dayOrder    []string              // days present in input, canonical order first
}

// NewIndex builds the Input Index from the run's input collections.
// Missing assignment or professor-room entries are simply absent from the
// lookup maps; callers interpret an absent lookup as "cannot place" (no
// error is raised here).
func NewIndex(courses []Course, rooms []Room, timeslots []Timeslot, professors []Professor, assignments []Assignment, professorRooms map[int]int) *Index {
	idx := &Index{
		courses:            make(map[int]Course, len(courses)),
		rooms:              make(map[int]Room, len(rooms)),
		professors:         make(map[int]Professor, len(professors)),
		slots:              make(map[int]Timeslot, len(timeslots)),
		professorAvailable: make(map[int]map[int]struct{}, len(professors)),
		professorRoom:      make(map[int]int, len(professorRooms)),
		groupCourseProf:    make(map[groupCourseKey]int, len(assignments)),
		slotsByDay:         make(map[string][]Timeslot),
	}

	for _, c := range courses {
		idx.courses[c.ID] = c
	}
	for _, r := range rooms {
		idx.rooms[r.ID] = r
	}
	for _, p := range professors {
		idx.professors[p.ID] = p
	}
	for _, s := range timeslots {
		idx.slots[s.ID] = s
	}
	for pid, rid := range professorRooms {
		idx.professorRoom[pid] = rid
	}

	allSlotIDs := make(map[int]struct{}, len(timeslots))
	for _, s := range timeslots {
		allSlotIDs[s.ID] = struct{}{}
	}
	for _, p := range professors {
		available := make(map[int]struct{}, len(allSlotIDs))
		for id := range allSlotIDs {
			if _, unavailable := p.Unavailable[id]; !unavailable {
				available[id] = struct{}{}
			}
		}
		idx.professorAvailable[p.ID] = available
	}

	for _, a := range assignments {
		idx.groupCourseProf[groupCourseKey{GroupID: a.GroupID, CourseID: a.CourseID}] = a.ProfessorID
	}

	for _, s := range timeslots {
		if !isValidWindow(s.StartTime) {
			continue
		}
		idx.validSlots = append(idx.validSlots, s)
		idx.slotsByDay[s.Day] = append(idx.slotsByDay[s.Day], s)
	}
	for day := range idx.slotsByDay {
		day := day
		slots := idx.slotsByDay[day]
		sort.Slice(slots, func(i, j int) bool { return slots[i].ID < slots[j].ID })
		idx.slotsByDay[day] = slots
	}

	seen := make(map[string]struct{})
	for _, day := range canonicalDayOrder {
		if _, ok := idx.slotsByDay[day]; ok {
			idx.dayOrder = append(idx.dayOrder, day)
			seen[day] = struct{}{}
		}
	}
	for day := range idx.slotsByDay {
		if _, ok := seen[day]; !ok {
			idx.dayOrder = append(idx.dayOrder, day)
		}
	}

	return idx
}

func isValidWindow(startTime string) bool {
	return startTime >= "17:00" && startTime < "22:00"
}

// Course looks up a course by id.
func (idx *Index) Course(id int) (Course, bool) {
	c, ok := idx.courses[id]
	return c, ok
}

// Room looks up a room by id.
func (idx *Index) Room(id int) (Room, bool) {
	r, ok := idx.rooms[id]
	return r, ok
}

// ProfessorForGroupCourse resolves the (group, course) -> professor map.
func (idx *Index) ProfessorForGroupCourse(groupID, courseID int) (int, bool) {
	pid, ok := idx.groupCourseProf[groupCourseKey{GroupID: groupID, CourseID: courseID}]
	return pid, ok
}

// RoomForProfessor resolves professor -> assigned room.
func (idx *Index) RoomForProfessor(professorID int) (int, bool) {
	rid, ok := idx.professorRoom[professorID]
	return rid, ok
}

// IsProfessorAvailable reports whether professor p is available (outside
// their unavailability set) at every slot id given.
func (idx *Index) IsProfessorAvailable(professorID int, slotIDs []int) bool {
	available, ok := idx.professorAvailable[professorID]
	if !ok {
		return true
	}
	for _, id := range slotIDs {
		if _, ok := available[id]; !ok {
			return false
		}
	}
	return true
}

// SlotsForDay returns the day's valid slots, sorted by slot id ascending.
func (idx *Index) SlotsForDay(day string) []Timeslot {
	return idx.slotsByDay[day]
}

// DayOrder returns the days present in the input, in canonical weekday
// order followed by any non-canonical day labels.
func (idx *Index) DayOrder() []string {
	out := make([]string, len(idx.dayOrder))
	copy(out, idx.dayOrder)
	return out
}

// Slot looks up a timeslot by id.
func (idx *Index) Slot(id int) (Timeslot, bool) {
	s, ok := idx.slots[id]
	return s, ok
}
