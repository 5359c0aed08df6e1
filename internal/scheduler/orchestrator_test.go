package scheduler

import (
	"fmt"
	"testing"
)

var dayIDs = map[string]int{
	"Lunes": 1, "Martes": 2, "Miércoles": 3, "Jueves": 4, "Viernes": 5, "Sábado": 6, "Domingo": 7,
}

// buildTimeslots returns one Timeslot per (day, hour) pair for hours in
// [17, 22), ids encoded per the persistence contract (day_id*1000+hour).
func buildTimeslots(days []string, startHour, endHour int) []Timeslot {
	var slots []Timeslot
	for _, day := range days {
		dayID := dayIDs[day]
		for h := startHour; h < endHour; h++ {
			slots = append(slots, Timeslot{
				ID:        dayID*1000 + h,
				Day:       day,
				StartTime: fmt.Sprintf("%02d:00:00", h),
				EndTime:   fmt.Sprintf("%02d:00:00", h+1),
			})
		}
	}
	return slots
}

func allDays() []string {
	return []string{"Lunes", "Martes", "Miércoles", "Jueves", "Viernes"}
}

// assertInvariants checks the universal scheduling invariants against a
// Result produced by Run.
func assertInvariants(t *testing.T, in Input, result Result) {
	t.Helper()
	idx := NewIndex(in.Courses, in.Rooms, in.Timeslots, in.Professors, in.Assignments, in.ProfessorRooms)
	courseByID := make(map[int]Course)
	for _, c := range in.Courses {
		courseByID[c.ID] = c
	}

	for groupID, schedule := range result.Schedules {
		seenSlots := make(map[int]struct{})
		for key, entry := range schedule {
			if _, dup := seenSlots[entry.TimeslotID]; dup {
				t.Fatalf("group %d has duplicate timeslot %d", groupID, entry.TimeslotID)
			}
			seenSlots[entry.TimeslotID] = struct{}{}

			slot, ok := idx.Slot(entry.TimeslotID)
			if !ok {
				t.Fatalf("entry %s references unknown slot %d", key, entry.TimeslotID)
			}
			if slot.StartTime < "17:00:00" || slot.StartTime >= "22:00:00" {
				t.Fatalf("slot %d start time %s outside valid window", entry.TimeslotID, slot.StartTime)
			}
		}
	}

	profSlots := make(map[int]map[int]struct{})
	for groupID, schedule := range result.Schedules {
		for _, entry := range schedule {
			course := courseByID[entry.CourseID]
			profID, ok := idx.ProfessorForGroupCourse(groupID, entry.CourseID)
			if !ok {
				continue
			}
			if profSlots[profID] == nil {
				profSlots[profID] = make(map[int]struct{})
			}
			if _, dup := profSlots[profID][entry.TimeslotID]; dup {
				t.Fatalf("professor %d double-booked at slot %d", profID, entry.TimeslotID)
			}
			profSlots[profID][entry.TimeslotID] = struct{}{}
			_ = course
		}
	}
}

func TestRunTrivialScenario(t *testing.T) {
	courses := []Course{{ID: 1, Name: "Álgebra", WeeklyHours: 2, MinBlockDuration: 1, MaxBlockDuration: 1}}
	rooms := []Room{{ID: 1, Name: "A1"}}
	professors := []Professor{{ID: 1, Name: "Prof A", Unavailable: map[int]struct{}{}}}
	groups := []Group{{ID: 1, Name: "G1"}}
	assignments := []Assignment{{ID: 1, ProfessorID: 1, CourseID: 1, GroupID: 1}}
	timeslots := buildTimeslots(allDays(), 17, 22)

	in := Input{
		Courses: courses, Rooms: rooms, Timeslots: timeslots, Professors: professors,
		Assignments: assignments, ProfessorRooms: map[int]int{1: 1}, Groups: groups, Seed: 42,
	}
	result := Run(in)
	assertInvariants(t, in, result)

	schedule := result.Schedules[1]
	if len(schedule) != 2 {
		t.Fatalf("expected 2 placed hours, got %d: %+v", len(schedule), schedule)
	}
	days := make(map[string]struct{})
	idx := NewIndex(courses, rooms, timeslots, professors, assignments, map[int]int{1: 1})
	for _, entry := range schedule {
		slot, _ := idx.Slot(entry.TimeslotID)
		days[slot.Day] = struct{}{}
	}
	if len(days) != 2 {
		t.Fatalf("expected the 2 hours on distinct days, got days=%v", days)
	}
	if len(result.Deficits) != 0 {
		t.Fatalf("expected no deficits, got %+v", result.Deficits)
	}
}

func TestRunLanguageCourseScenario(t *testing.T) {
	courses := []Course{{ID: 1, Name: "Inglés I", WeeklyHours: 4, MinBlockDuration: 1, MaxBlockDuration: 1}}
	rooms := []Room{{ID: 1, Name: "A1"}}
	professors := []Professor{{ID: 1, Name: "Prof A", Unavailable: map[int]struct{}{}}}
	groups := []Group{{ID: 1, Name: "G1"}}
	assignments := []Assignment{{ID: 1, ProfessorID: 1, CourseID: 1, GroupID: 1}}
	timeslots := buildTimeslots(allDays(), 17, 22)

	in := Input{
		Courses: courses, Rooms: rooms, Timeslots: timeslots, Professors: professors,
		Assignments: assignments, ProfessorRooms: map[int]int{1: 1}, Groups: groups, Seed: 7,
	}
	result := Run(in)
	assertInvariants(t, in, result)

	schedule := result.Schedules[1]
	if len(schedule) != 4 {
		t.Fatalf("expected 4 placed hours, got %d: %+v", len(schedule), schedule)
	}

	idx := NewIndex(courses, rooms, timeslots, professors, assignments, map[int]int{1: 1})
	hours := make(map[string]struct{})
	var dayIndices []int
	for _, entry := range schedule {
		slot, _ := idx.Slot(entry.TimeslotID)
		hours[slot.StartTime] = struct{}{}
		dayIndices = append(dayIndices, dayIDs[slot.Day])
	}
	if len(hours) != 1 {
		t.Fatalf("expected every placement at the same hour, got %v", hours)
	}
	if len(dayIndices) != 4 {
		t.Fatalf("expected 4 day indices, got %v", dayIndices)
	}
}

func TestRunInfeasibleLanguageReportsDeficit(t *testing.T) {
	courses := []Course{{ID: 1, Name: "Inglés I", WeeklyHours: 4, MinBlockDuration: 1, MaxBlockDuration: 1}}
	rooms := []Room{{ID: 1, Name: "A1"}}
	professors := []Professor{{ID: 1, Name: "Prof A", Unavailable: map[int]struct{}{}}}
	groups := []Group{{ID: 1, Name: "G1"}}
	assignments := []Assignment{{ID: 1, ProfessorID: 1, CourseID: 1, GroupID: 1}}
	// Only 3 weekdays present; a 4-consecutive-day language course cannot fit.
	timeslots := buildTimeslots([]string{"Lunes", "Martes", "Miércoles"}, 17, 22)

	in := Input{
		Courses: courses, Rooms: rooms, Timeslots: timeslots, Professors: professors,
		Assignments: assignments, ProfessorRooms: map[int]int{1: 1}, Groups: groups, Seed: 3,
	}
	result := Run(in)

	if len(result.Deficits) != 1 || result.Deficits[0].Missing != 4 {
		t.Fatalf("expected a deficit of 4 unplaced hours, got %+v", result.Deficits)
	}
}

func TestRunUnavailabilityRespected(t *testing.T) {
	courses := []Course{{ID: 1, Name: "Física", WeeklyHours: 2, MinBlockDuration: 2, MaxBlockDuration: 2}}
	rooms := []Room{{ID: 1, Name: "A1"}}
	timeslots := buildTimeslots([]string{"Lunes"}, 17, 22)

	unavailable := map[int]struct{}{}
	for h := 17; h < 20; h++ {
		unavailable[dayIDs["Lunes"]*1000+h] = struct{}{}
	}
	professors := []Professor{{ID: 1, Name: "Prof A", Unavailable: unavailable}}
	groups := []Group{{ID: 1, Name: "G1"}}
	assignments := []Assignment{{ID: 1, ProfessorID: 1, CourseID: 1, GroupID: 1}}

	in := Input{
		Courses: courses, Rooms: rooms, Timeslots: timeslots, Professors: professors,
		Assignments: assignments, ProfessorRooms: map[int]int{1: 1}, Groups: groups, Seed: 11,
	}
	result := Run(in)
	assertInvariants(t, in, result)

	idx := NewIndex(courses, rooms, timeslots, professors, assignments, map[int]int{1: 1})
	for _, entry := range result.Schedules[1] {
		if _, blocked := unavailable[entry.TimeslotID]; blocked {
			t.Fatalf("placed on a slot the professor is unavailable: %d", entry.TimeslotID)
		}
		slot, _ := idx.Slot(entry.TimeslotID)
		_ = slot
	}
}

func TestRunDisplacementRequiredSharedRoom(t *testing.T) {
	courses := []Course{
		{ID: 1, Name: "Arte", WeeklyHours: 2, MinBlockDuration: 2, MaxBlockDuration: 2},
		{ID: 2, Name: "Música", WeeklyHours: 1, MinBlockDuration: 1, MaxBlockDuration: 1},
	}
	rooms := []Room{{ID: 1, Name: "Shared"}}
	professors := []Professor{
		{ID: 1, Name: "Prof A", Unavailable: map[int]struct{}{}},
		{ID: 2, Name: "Prof B", Unavailable: map[int]struct{}{}},
	}
	groups := []Group{{ID: 1, Name: "G1"}, {ID: 2, Name: "G2"}}
	assignments := []Assignment{
		{ID: 1, ProfessorID: 1, CourseID: 1, GroupID: 1},
		{ID: 2, ProfessorID: 1, CourseID: 1, GroupID: 2},
		{ID: 3, ProfessorID: 2, CourseID: 2, GroupID: 2},
	}
	timeslots := buildTimeslots([]string{"Lunes"}, 17, 22)
	profRooms := map[int]int{1: 1, 2: 1}

	in := Input{
		Courses: courses, Rooms: rooms, Timeslots: timeslots, Professors: professors,
		Assignments: assignments, ProfessorRooms: profRooms, Groups: groups, Seed: 5,
	}
	result := Run(in)
	assertInvariants(t, in, result)

	board := &Board{schedules: result.Schedules}
	if placed := countPlacedHours(board, 1, 1); placed != 2 {
		t.Fatalf("expected group 1 course A fully placed, got %d", placed)
	}
	if placed := countPlacedHours(board, 2, 1); placed != 2 {
		t.Fatalf("expected group 2 course A fully placed, got %d", placed)
	}
	if placed := countPlacedHours(board, 2, 2); placed != 1 {
		t.Fatalf("expected group 2 course B fully placed, got %d", placed)
	}
}

func TestRunVerificationPassFillsDeficit(t *testing.T) {
	courses := []Course{{ID: 1, Name: "Química", WeeklyHours: 5, MinBlockDuration: 2, MaxBlockDuration: 3}}
	rooms := []Room{{ID: 1, Name: "A1"}}
	professors := []Professor{{ID: 1, Name: "Prof A", Unavailable: map[int]struct{}{}}}
	groups := []Group{{ID: 1, Name: "G1"}}
	assignments := []Assignment{{ID: 1, ProfessorID: 1, CourseID: 1, GroupID: 1}}
	timeslots := buildTimeslots(allDays(), 17, 22)

	in := Input{
		Courses: courses, Rooms: rooms, Timeslots: timeslots, Professors: professors,
		Assignments: assignments, ProfessorRooms: map[int]int{1: 1}, Groups: groups, Seed: 19,
	}
	result := Run(in)
	assertInvariants(t, in, result)

	placed := countPlacedHours(&Board{schedules: result.Schedules}, 1, 1)
	if placed != 5 {
		t.Fatalf("expected all 5 weekly hours placed after verification, got %d", placed)
	}
}

func TestRunDeterministicGivenSeed(t *testing.T) {
	courses := []Course{
		{ID: 1, Name: "Álgebra", WeeklyHours: 3, MinBlockDuration: 1, MaxBlockDuration: 2},
		{ID: 2, Name: "Historia", WeeklyHours: 2, MinBlockDuration: 1, MaxBlockDuration: 1},
	}
	rooms := []Room{{ID: 1, Name: "A1"}, {ID: 2, Name: "A2"}}
	professors := []Professor{{ID: 1, Unavailable: map[int]struct{}{}}, {ID: 2, Unavailable: map[int]struct{}{}}}
	groups := []Group{{ID: 1, Name: "G1"}}
	assignments := []Assignment{
		{ID: 1, ProfessorID: 1, CourseID: 1, GroupID: 1},
		{ID: 2, ProfessorID: 2, CourseID: 2, GroupID: 1},
	}
	timeslots := buildTimeslots(allDays(), 17, 22)
	profRooms := map[int]int{1: 1, 2: 2}

	in := Input{
		Courses: courses, Rooms: rooms, Timeslots: timeslots, Professors: professors,
		Assignments: assignments, ProfessorRooms: profRooms, Groups: groups, Seed: 99,
	}

	first := Run(in)
	second := Run(in)

	if len(first.Schedules[1]) != len(second.Schedules[1]) {
		t.Fatalf("run is not deterministic: lengths differ %d vs %d", len(first.Schedules[1]), len(second.Schedules[1]))
	}
	for key, entry := range first.Schedules[1] {
		other, ok := second.Schedules[1][key]
		if !ok || other != entry {
			t.Fatalf("run is not deterministic for key %s: %+v vs %+v", key, entry, other)
		}
	}
}
