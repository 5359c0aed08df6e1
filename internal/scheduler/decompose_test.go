package scheduler

import "testing"

func TestDecomposeBlocksExactBoundary(t *testing.T) {
	course := Course{WeeklyHours: 3, MinBlockDuration: 3, MaxBlockDuration: 3}
	blocks := DecomposeBlocks(course)
	if len(blocks) != 1 || blocks[0] != 3 {
		t.Fatalf("expected single block of 3, got %v", blocks)
	}
}

func TestDecomposeBlocksGreedyWithRemainder(t *testing.T) {
	course := Course{WeeklyHours: 5, MinBlockDuration: 2, MaxBlockDuration: 3}
	blocks := DecomposeBlocks(course)
	sum := 0
	for _, b := range blocks {
		if b < course.MinBlockDuration && sum+b != course.WeeklyHours {
			t.Fatalf("intermediate block %d below min outside the last slot: %v", b, blocks)
		}
		if b > course.MaxBlockDuration {
			t.Fatalf("block %d exceeds max: %v", b, blocks)
		}
		sum += b
	}
	if sum != course.WeeklyHours {
		t.Fatalf("blocks %v do not sum to weekly hours %d", blocks, course.WeeklyHours)
	}
	if len(blocks) != 2 || blocks[0] != 3 || blocks[1] != 2 {
		t.Fatalf("expected [3 2], got %v", blocks)
	}
}

func TestDecomposeBlocksSingleHourCourse(t *testing.T) {
	course := Course{WeeklyHours: 4, MinBlockDuration: 1, MaxBlockDuration: 1}
	blocks := DecomposeBlocks(course)
	if len(blocks) != 4 {
		t.Fatalf("expected 4 single-hour blocks, got %v", blocks)
	}
	for _, b := range blocks {
		if b != 1 {
			t.Fatalf("expected all blocks of duration 1, got %v", blocks)
		}
	}
}
