package scheduler

import (
	"reflect"
	"testing"
)

func TestTrackerAssignUnassignRoundTrip(t *testing.T) {
	tracker := NewTracker()
	course := Course{ID: 1, Name: "Matemáticas", MaxBlockDuration: 1}
	before := snapshotTracker(tracker)

	tracker.Assign(10, 20, 30, []int{1001, 1002}, course, "Lunes", "17:00:00")
	tracker.Unassign(10, 20, 30, []int{1001, 1002}, course, "Lunes")

	after := snapshotTracker(tracker)
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("tracker state not restored:\nbefore=%+v\nafter=%+v", before, after)
	}
}

func TestTrackerLanguageFixedHourSurvivesUnassign(t *testing.T) {
	tracker := NewTracker()
	course := Course{ID: 2, Name: "Inglés I", MaxBlockDuration: 1}

	tracker.Assign(1, 1, 1, []int{1017}, course, "Lunes", "17:00:00")
	tracker.Unassign(1, 1, 1, []int{1017}, course, "Lunes")

	hour, ok := tracker.FixedHour(1, 2)
	if !ok || hour != "17:00:00" {
		t.Fatalf("expected fixed hour to persist across unassign, got %q ok=%v", hour, ok)
	}
}

func TestTrackerExclusivity(t *testing.T) {
	tracker := NewTracker()
	course := Course{ID: 3, MaxBlockDuration: 2}
	tracker.Assign(1, 1, 1, []int{1017, 1018}, course, "Lunes", "17:00:00")

	if tracker.CanAssignProfessor(1, []int{1018}) {
		t.Fatal("expected professor slot 1018 to be busy")
	}
	if tracker.CanAssignGroup(1, []int{1017}) {
		t.Fatal("expected group slot 1017 to be busy")
	}
	if tracker.CanAssignRoom(1, []int{1018}) {
		t.Fatal("expected room slot 1018 to be busy")
	}
	if !tracker.CanAssignProfessor(1, []int{1019}) {
		t.Fatal("expected slot 1019 to remain free")
	}
}

func snapshotTracker(t *Tracker) map[string]interface{} {
	return map[string]interface{}{
		"prof":  copyNestedSet(t.profBusy),
		"group": copyNestedSet(t.groupBusy),
		"room":  copyNestedSet(t.roomBusy),
		"days":  copyDayUsage(t.courseDaysUsed),
		"fixed": copyFixedHour(t.courseFixedHour),
	}
}

func copyNestedSet(m map[int]map[int]struct{}) map[int]map[int]struct{} {
	out := make(map[int]map[int]struct{}, len(m))
	for k, v := range m {
		inner := make(map[int]struct{}, len(v))
		for id := range v {
			inner[id] = struct{}{}
		}
		out[k] = inner
	}
	return out
}

func copyDayUsage(m map[groupCourseKey]map[string]struct{}) map[groupCourseKey]map[string]struct{} {
	out := make(map[groupCourseKey]map[string]struct{}, len(m))
	for k, v := range m {
		inner := make(map[string]struct{}, len(v))
		for d := range v {
			inner[d] = struct{}{}
		}
		out[k] = inner
	}
	return out
}

func copyFixedHour(m map[groupCourseKey]string) map[groupCourseKey]string {
	out := make(map[groupCourseKey]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
