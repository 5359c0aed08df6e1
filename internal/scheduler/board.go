package scheduler

import (
	"fmt"
	"strconv"
	"strings"
)

// formatHourKey builds the opaque hour-slot identifier
// "G{gid}_C{cid}_B{block_index}_H{hour_index}". Callers must not
// parse it except to detect block membership, which this package does
// internally via parseHourKey.
func formatHourKey(groupID, courseID, blockIndex, hourIndex int) string {
	return fmt.Sprintf("G%d_C%d_B%d_H%d", groupID, courseID, blockIndex, hourIndex)
}

// blockRef identifies the originating block of an hour-slot identifier.
type blockRef struct {
	GroupID    int
	CourseID   int
	BlockIndex int
}

// parseHourKey recovers the originating block from an hour-slot identifier
// produced by formatHourKey. It never fails on keys this package produced.
func parseHourKey(key string) (blockRef, bool) {
	parts := strings.Split(key, "_")
	if len(parts) != 4 {
		return blockRef{}, false
	}
	groupID, err1 := strconv.Atoi(strings.TrimPrefix(parts[0], "G"))
	courseID, err2 := strconv.Atoi(strings.TrimPrefix(parts[1], "C"))
	blockIndex, err3 := strconv.Atoi(strings.TrimPrefix(parts[2], "B"))
	if err1 != nil || err2 != nil || err3 != nil {
		return blockRef{}, false
	}
	return blockRef{GroupID: groupID, CourseID: courseID, BlockIndex: blockIndex}, true
}

// placedRef locates one placed hour-entry by group and its key, so a slot
// id can be traced back to the schedule that occupies it.
type placedRef struct {
	GroupID int
	Key     string
}

// Board owns the per-group schedule output plus a reverse slot index used
// by the Displacement Engine to find which blocks occupy a given slot,
// across every group ("enumerate every placed hour-entry
// in any group's schedule that occupies that slot").
type Board struct {
	schedules map[int]Schedule
	bySlot    map[int][]placedRef
	blockSeq  map[groupCourseKey]int
}

// NewBoard returns an empty Board, seeded with a Schedule for every group.
func NewBoard(groups []Group) *Board {
	b := &Board{
		schedules: make(map[int]Schedule, len(groups)),
		bySlot:    make(map[int][]placedRef),
		blockSeq:  make(map[groupCourseKey]int),
	}
	for _, g := range groups {
		b.schedules[g.ID] = make(Schedule)
	}
	return b
}

// NextBlockIndex returns the next monotonically increasing block index for
// a (group, course) pair (Design Note / §9 resolution: stable counter
// rather than a random suffix, for audit-trail stability).
func (b *Board) NextBlockIndex(groupID, courseID int) int {
	key := groupCourseKey{GroupID: groupID, CourseID: courseID}
	idx := b.blockSeq[key]
	b.blockSeq[key]++
	return idx
}

// PlaceBlock records every hour-entry of a newly placed block.
func (b *Board) PlaceBlock(groupID, courseID, blockIndex int, slotIDs []int, roomID int) {
	schedule := b.schedules[groupID]
	for i, slotID := range slotIDs {
		key := formatHourKey(groupID, courseID, blockIndex, i)
		schedule[key] = HourEntry{TimeslotID: slotID, RoomID: roomID, CourseID: courseID}
		b.bySlot[slotID] = append(b.bySlot[slotID], placedRef{GroupID: groupID, Key: key})
	}
}

// RemoveBlock deletes every hour-entry belonging to (groupID, ref), the
// inverse of PlaceBlock.
func (b *Board) RemoveBlock(groupID int, ref blockRef) {
	schedule := b.schedules[groupID]
	for key, entry := range schedule {
		parsed, ok := parseHourKey(key)
		if !ok || parsed.GroupID != ref.GroupID || parsed.CourseID != ref.CourseID || parsed.BlockIndex != ref.BlockIndex {
			continue
		}
		delete(schedule, key)
		b.removeFromSlotIndex(entry.TimeslotID, groupID, key)
	}
}

func (b *Board) removeFromSlotIndex(slotID, groupID int, key string) {
	refs := b.bySlot[slotID]
	for i, r := range refs {
		if r.GroupID == groupID && r.Key == key {
			b.bySlot[slotID] = append(refs[:i], refs[i+1:]...)
			return
		}
	}
}

// conflictingBlocks returns the distinct blocks (across every group) that
// occupy any slot in slotIDs.
func (b *Board) conflictingBlocks(slotIDs []int) []blockRef {
	seen := make(map[blockRef]struct{})
	var out []blockRef
	for _, slotID := range slotIDs {
		for _, ref := range b.bySlot[slotID] {
			parsed, ok := parseHourKey(ref.Key)
			if !ok {
				continue
			}
			if _, dup := seen[parsed]; dup {
				continue
			}
			seen[parsed] = struct{}{}
			out = append(out, parsed)
		}
	}
	return out
}

// blockSlotIDs and blockRoom recover the full slot id set and room of a
// currently-placed block, by scanning its group's schedule entries.
func (b *Board) blockSlotIDs(ref blockRef) []int {
	var slotIDs []int
	for key, entry := range b.schedules[ref.GroupID] {
		parsed, ok := parseHourKey(key)
		if !ok || parsed != ref {
			continue
		}
		slotIDs = append(slotIDs, entry.TimeslotID)
	}
	return slotIDs
}

func (b *Board) blockRoom(ref blockRef) (int, bool) {
	for key, entry := range b.schedules[ref.GroupID] {
		parsed, ok := parseHourKey(key)
		if !ok || parsed != ref {
			continue
		}
		return entry.RoomID, true
	}
	return 0, false
}

// Schedule returns the schedule for one group.
func (b *Board) Schedule(groupID int) Schedule {
	return b.schedules[groupID]
}

// Schedules returns the full per-group schedule map (the orchestrator's
// Result payload).
func (b *Board) Schedules() map[int]Schedule {
	return b.schedules
}
