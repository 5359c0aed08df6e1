package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cronosschool2025-afk/algoritmo/internal/dto"
	"github.com/cronosschool2025-afk/algoritmo/pkg/jobs"
)

// RepairJobType identifies a deficit-repair job on the shared queue.
const RepairJobType = "schedule.repair"

type repairDeficitReader interface {
	CountBySchedule(ctx context.Context, scheduleID string) (int, error)
}

// ScheduleRepairWorker re-runs the scheduling core for a term whenever a
// saved run's verification pass left a non-zero deficit, following the
// teacher's report-worker retry pattern (pkg/jobs.Queue handles backoff).
type ScheduleRepairWorker struct {
	generator *ScheduleGeneratorService
	deficits  repairDeficitReader
	logger    *zap.Logger
}

// NewScheduleRepairWorker builds the worker.
func NewScheduleRepairWorker(generator *ScheduleGeneratorService, deficits repairDeficitReader, logger *zap.Logger) *ScheduleRepairWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleRepairWorker{generator: generator, deficits: deficits, logger: logger}
}

// Handle implements jobs.Handler: the job payload is the (scheduleID, termID)
// pair of a saved run whose deficit report was non-zero.
func (w *ScheduleRepairWorker) Handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(RepairJobPayload)
	if !ok {
		return fmt.Errorf("schedule repair job: unexpected payload type %T", job.Payload)
	}

	count, err := w.deficits.CountBySchedule(ctx, payload.ScheduleID)
	if err != nil {
		return fmt.Errorf("count deficits for schedule %s: %w", payload.ScheduleID, err)
	}
	if count == 0 {
		w.logger.Sugar().Debugw("schedule repair skipped, no deficit remaining", "schedule_id", payload.ScheduleID)
		return nil
	}

	w.logger.Sugar().Infow("retrying schedule generation to repair deficit", "schedule_id", payload.ScheduleID, "term_id", payload.TermID, "deficit_rows", count)

	result, err := w.generator.Generate(ctx, dto.GenerateScheduleRequest{TermID: payload.TermID})
	if err != nil {
		return fmt.Errorf("repair run for term %s: %w", payload.TermID, err)
	}

	w.logger.Sugar().Infow("schedule repair run completed", "term_id", payload.TermID, "draft_id", result.ScheduleID, "remaining_deficits", len(result.Deficits))
	return nil
}

// RepairJobPayload identifies the run a repair job targets.
type RepairJobPayload struct {
	ScheduleID string
	TermID     string
}
