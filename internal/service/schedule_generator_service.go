package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/cronosschool2025-afk/algoritmo/internal/dto"
	"github.com/cronosschool2025-afk/algoritmo/internal/models"
	"github.com/cronosschool2025-afk/algoritmo/internal/scheduler"
	appErrors "github.com/cronosschool2025-afk/algoritmo/pkg/errors"
	"github.com/cronosschool2025-afk/algoritmo/pkg/jobs"
)

type generatedScheduleRepository interface {
	CreateVersioned(ctx context.Context, exec sqlx.ExtContext, schedule *models.GeneratedSchedule) error
	ListByTerm(ctx context.Context, termID string) ([]models.GeneratedSchedule, error)
	FindByID(ctx context.Context, id string) (*models.GeneratedSchedule, error)
	Delete(ctx context.Context, id string) error
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.GeneratedScheduleStatus, meta types.JSONText) error
}

type generatedScheduleSlotRepository interface {
	InsertBatch(ctx context.Context, exec sqlx.ExtContext, slots []models.GeneratedScheduleSlot) error
	ListBySchedule(ctx context.Context, scheduleID string, groupID string) ([]models.GeneratedScheduleSlot, error)
	DeleteBySchedule(ctx context.Context, exec sqlx.ExtContext, scheduleID string) error
}

type scheduleDeficitRepository interface {
	InsertBatch(ctx context.Context, exec sqlx.ExtContext, deficits []models.ScheduleDeficit) error
	ListBySchedule(ctx context.Context, scheduleID string) ([]models.ScheduleDeficit, error)
	DeleteBySchedule(ctx context.Context, exec sqlx.ExtContext, scheduleID string) error
	CountBySchedule(ctx context.Context, scheduleID string) (int, error)
}

type schedulerTermReader interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
}

type schedulerAssignmentReader interface {
	ListByTerm(ctx context.Context, termID string) ([]models.ProfessorCourseGroupAssignmentDetail, error)
}

type schedulerCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type schedulerGroupReader interface {
	FindByID(ctx context.Context, id string) (*models.Group, error)
}

type schedulerProfessorReader interface {
	FindByID(ctx context.Context, id string) (*models.Professor, error)
	Unavailability(ctx context.Context, professorID string) ([]int, error)
	RoomForProfessor(ctx context.Context, professorID string) (string, error)
}

type schedulerRoomReader interface {
	ListAll(ctx context.Context) ([]models.Room, error)
}

type schedulerTimeslotReader interface {
	ListByWindow(ctx context.Context, startHour, endHour int) ([]models.Timeslot, error)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// ScheduleGeneratorConfig governs the scheduling core's run parameters.
type ScheduleGeneratorConfig struct {
	ProposalTTL             time.Duration
	MaxAttempts             int
	VerificationMaxAttempts int
	WindowStartHour         int
	WindowEndHour           int
	RandomSeed              int64
}

// ScheduleGeneratorService runs the constraint-satisfaction scheduling core
// over a term's assignments and persists the resulting runs.
type ScheduleGeneratorService struct {
	terms       schedulerTermReader
	assignments schedulerAssignmentReader
	courses     schedulerCourseReader
	groups      schedulerGroupReader
	professors  schedulerProfessorReader
	rooms       schedulerRoomReader
	timeslots   schedulerTimeslotReader
	schedules   generatedScheduleRepository
	slots       generatedScheduleSlotRepository
	deficits    scheduleDeficitRepository
	tx          txProvider
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         ScheduleGeneratorConfig
	store       *draftStore
	repairQueue repairEnqueuer
	cache       *CacheService
}

type repairEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// SetRepairQueue attaches the background repair queue. Saving a run whose
// verification pass left a non-zero deficit enqueues a retry job; this is
// optional wiring, so a nil queue simply disables it.
func (s *ScheduleGeneratorService) SetRepairQueue(queue repairEnqueuer) {
	s.repairQueue = queue
}

// SetCache attaches a short-TTL cache for the room/timeslot lookups the
// Input Index assembly repeats on every preview run. Nil disables caching.
func (s *ScheduleGeneratorService) SetCache(cache *CacheService) {
	s.cache = cache
}

// NewScheduleGeneratorService wires the scheduling core's dependencies.
func NewScheduleGeneratorService(
	terms schedulerTermReader,
	assignments schedulerAssignmentReader,
	courses schedulerCourseReader,
	groups schedulerGroupReader,
	professors schedulerProfessorReader,
	rooms schedulerRoomReader,
	timeslots schedulerTimeslotReader,
	schedules generatedScheduleRepository,
	slots generatedScheduleSlotRepository,
	deficits scheduleDeficitRepository,
	tx txProvider,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg ScheduleGeneratorConfig,
) *ScheduleGeneratorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ProposalTTL <= 0 {
		cfg.ProposalTTL = 30 * time.Minute
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 50
	}
	if cfg.VerificationMaxAttempts <= 0 {
		cfg.VerificationMaxAttempts = 100
	}
	if cfg.WindowStartHour <= 0 {
		cfg.WindowStartHour = 17
	}
	if cfg.WindowEndHour <= 0 {
		cfg.WindowEndHour = 22
	}
	return &ScheduleGeneratorService{
		terms:       terms,
		assignments: assignments,
		courses:     courses,
		groups:      groups,
		professors:  professors,
		rooms:       rooms,
		timeslots:   timeslots,
		schedules:   schedules,
		slots:       slots,
		deficits:    deficits,
		tx:          tx,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
		store:       newDraftStore(cfg.ProposalTTL),
	}
}

// Generate runs the scheduling core over every assignment defined for a
// term and caches the resulting draft run in memory, returning a preview.
func (s *ScheduleGeneratorService) Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.GenerateScheduleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule generation payload")
	}

	if _, err := s.terms.FindByID(ctx, req.TermID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}

	assignments, err := s.assignments.ListByTerm(ctx, req.TermID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
	}
	if len(assignments) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no professor-course-group assignments defined for this term")
	}

	build, err := s.buildInput(ctx, req.TermID, assignments)
	if err != nil {
		return nil, err
	}

	in := scheduler.Input{
		Courses:         build.courses,
		Rooms:           build.rooms,
		Timeslots:       build.timeslots,
		Professors:      build.professors,
		Assignments:     build.assignments,
		ProfessorRooms:  build.professorRooms,
		Groups:          build.groups,
		Seed:            s.cfg.RandomSeed,
		MaxAttempts:     s.cfg.MaxAttempts,
		VerificationMax: s.cfg.VerificationMaxAttempts,
		Logger:          zapSchedulerLogger{logger: s.logger},
	}

	result := scheduler.Run(in)

	slots, views := build.translateSchedules(result.Schedules)
	deficits, deficitViews := build.translateDeficits(result.Deficits)

	draftID := uuid.NewString()
	s.store.Save(scheduleDraft{
		ID:          draftID,
		TermID:      req.TermID,
		RequestedAt: time.Now().UTC(),
		Slots:       slots,
		Deficits:    deficits,
	})

	return &dto.GenerateScheduleResponse{
		ScheduleID: draftID,
		TermID:     req.TermID,
		Slots:      views,
		Deficits:   deficitViews,
	}, nil
}

// Save persists a cached draft run as a new generated-schedule version,
// optionally publishing it immediately.
func (s *ScheduleGeneratorService) Save(ctx context.Context, draftID string, req dto.SaveScheduleRequest) (*models.GeneratedSchedule, error) {
	draft, ok := s.store.Get(draftID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "draft schedule not found or expired")
	}
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	metaPayload := fmt.Sprintf(`{"generated_at":%q,"deficit_count":%d,"placed_hours":%d}`, draft.RequestedAt.Format(time.RFC3339), len(draft.Deficits), len(draft.Slots))
	record := &models.GeneratedSchedule{
		TermID: draft.TermID,
		Status: models.GeneratedScheduleStatusDraft,
		Meta:   types.JSONText(metaPayload),
	}

	if err = s.schedules.CreateVersioned(ctx, tx, record); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create generated schedule")
		return nil, err
	}

	for i := range draft.Slots {
		draft.Slots[i].GeneratedScheduleID = record.ID
	}
	if err = s.slots.InsertBatch(ctx, tx, draft.Slots); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist generated schedule slots")
		return nil, err
	}

	for i := range draft.Deficits {
		draft.Deficits[i].GeneratedScheduleID = record.ID
	}
	if err = s.deficits.InsertBatch(ctx, tx, draft.Deficits); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist schedule deficits")
		return nil, err
	}

	if req.Publish {
		if err = s.schedules.UpdateStatus(ctx, tx, record.ID, models.GeneratedScheduleStatusPublished, nil); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish generated schedule")
			return nil, err
		}
		record.Status = models.GeneratedScheduleStatusPublished
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit generated schedule")
		return nil, err
	}

	s.store.Delete(draftID)

	if len(draft.Deficits) > 0 && s.repairQueue != nil {
		if enqueueErr := s.repairQueue.Enqueue(jobs.Job{
			ID:      record.ID,
			Type:    RepairJobType,
			Payload: RepairJobPayload{ScheduleID: record.ID, TermID: record.TermID},
		}); enqueueErr != nil {
			s.logger.Sugar().Warnw("failed to enqueue schedule repair job", "schedule_id", record.ID, "error", enqueueErr)
		}
	}

	return record, nil
}

// Publish flips a stored draft run to PUBLISHED.
func (s *ScheduleGeneratorService) Publish(ctx context.Context, scheduleID string) error {
	record, err := s.schedules.FindByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "generated schedule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load generated schedule")
	}
	if record.Status == models.GeneratedScheduleStatusPublished {
		return appErrors.Clone(appErrors.ErrConflict, "generated schedule already published")
	}
	if err := s.schedules.UpdateStatus(ctx, nil, scheduleID, models.GeneratedScheduleStatusPublished, nil); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish generated schedule")
	}
	return nil
}

// List returns every stored run for a term.
func (s *ScheduleGeneratorService) List(ctx context.Context, termID string) ([]models.GeneratedSchedule, error) {
	if termID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "term_id is required")
	}
	list, err := s.schedules.ListByTerm(ctx, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list generated schedules")
	}
	return list, nil
}

// GetSlots returns the placed hours for a stored run, optionally filtered
// to a single group.
func (s *ScheduleGeneratorService) GetSlots(ctx context.Context, scheduleID, groupID string) ([]models.GeneratedScheduleSlot, error) {
	if _, err := s.schedules.FindByID(ctx, scheduleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "generated schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load generated schedule")
	}
	slots, err := s.slots.ListBySchedule(ctx, scheduleID, groupID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list generated schedule slots")
	}
	return slots, nil
}

// Deficits returns the shortfall report for a stored run.
func (s *ScheduleGeneratorService) Deficits(ctx context.Context, scheduleID string) ([]models.ScheduleDeficit, error) {
	if _, err := s.schedules.FindByID(ctx, scheduleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "generated schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load generated schedule")
	}
	deficits, err := s.deficits.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedule deficits")
	}
	return deficits, nil
}

// Delete removes a stored draft run and its slots/deficits.
func (s *ScheduleGeneratorService) Delete(ctx context.Context, scheduleID string) error {
	record, err := s.schedules.FindByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "generated schedule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load generated schedule")
	}
	if record.Status != models.GeneratedScheduleStatusDraft {
		return appErrors.Clone(appErrors.ErrConflict, "only draft runs can be deleted")
	}

	if s.tx == nil {
		return appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.slots.DeleteBySchedule(ctx, tx, scheduleID); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete generated schedule slots")
		return err
	}
	if err = s.deficits.DeleteBySchedule(ctx, tx, scheduleID); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule deficits")
		return err
	}
	if err = s.schedules.Delete(ctx, scheduleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = appErrors.Clone(appErrors.ErrNotFound, "generated schedule not found")
			return err
		}
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete generated schedule")
		return err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit delete")
		return err
	}
	return nil
}

// --- Draft cache ---
//
// scheduleDraft mirrors an already-run scheduling core output, kept in
// memory until Save persists it or its TTL expires, unsaved.

type scheduleDraft struct {
	ID          string
	TermID      string
	RequestedAt time.Time
	Slots       []models.GeneratedScheduleSlot
	Deficits    []models.ScheduleDeficit
}

type draftStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]scheduleDraft
}

func newDraftStore(ttl time.Duration) *draftStore {
	return &draftStore{ttl: ttl, items: make(map[string]scheduleDraft)}
}

func (s *draftStore) Save(draft scheduleDraft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[draft.ID] = draft
}

func (s *draftStore) Get(id string) (scheduleDraft, bool) {
	s.mu.RLock()
	draft, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return scheduleDraft{}, false
	}
	if time.Since(draft.RequestedAt) > s.ttl {
		s.Delete(id)
		return scheduleDraft{}, false
	}
	return draft, true
}

func (s *draftStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}

// --- Logger adapter ---

// zapSchedulerLogger adapts zap.Logger to the scheduling core's minimal
// Logger seam.
type zapSchedulerLogger struct {
	logger *zap.Logger
}

func (l zapSchedulerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Sugar().Debugf(format, args...)
}

func (l zapSchedulerLogger) Warnf(format string, args ...interface{}) {
	l.logger.Sugar().Warnf(format, args...)
}

// --- Input Index assembly ---
//
// The scheduling core addresses every entity by int id; persistence uses
// string (UUID) ids. idMapper assigns a stable sequential int to each
// distinct string id encountered, in first-seen order, so one run's
// mapping is reproducible given the same assignment query ordering.

type idMapper struct {
	next  int
	toInt map[string]int
	toStr map[int]string
}

func newIDMapper() *idMapper {
	return &idMapper{next: 1, toInt: make(map[string]int), toStr: make(map[int]string)}
}

func (m *idMapper) get(id string) int {
	if v, ok := m.toInt[id]; ok {
		return v
	}
	v := m.next
	m.next++
	m.toInt[id] = v
	m.toStr[v] = id
	return v
}

func (m *idMapper) str(id int) string {
	return m.toStr[id]
}

// schedulerBuild bundles the translated scheduler.Input plus the lookup
// state needed to translate a Result back into persistence rows.
type schedulerBuild struct {
	courses     []scheduler.Course
	rooms       []scheduler.Room
	timeslots   []scheduler.Timeslot
	professors  []scheduler.Professor
	assignments []scheduler.Assignment
	groups      []scheduler.Group

	professorRooms map[int]int

	courseByDBID    map[string]models.Course
	groupByDBID     map[string]models.Group
	professorByDBID map[string]models.Professor
	roomByDBID      map[string]models.Room
	timeslotByID    map[int]models.Timeslot

	courseIDs                  *idMapper
	groupIDs                   *idMapper
	professorIDs               *idMapper
	roomIDs                    *idMapper
	groupCourseToProfessorDBID map[[2]int]string
}

// cachedRooms returns every room, preferring a short-TTL cache entry over a
// fresh Postgres round trip on repeated preview runs for the same term.
func (s *ScheduleGeneratorService) cachedRooms(ctx context.Context) ([]models.Room, error) {
	const key = "scheduler:rooms:all"
	if s.cache != nil && s.cache.Enabled() {
		var cached []models.Room
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return cached, nil
		}
	}
	rooms, err := s.rooms.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil && s.cache.Enabled() {
		_ = s.cache.Set(ctx, key, rooms, 0)
	}
	return rooms, nil
}

// cachedTimeslots returns the timeslots valid for the placement window,
// cached per-term so repeated preview runs for the same term skip the query.
func (s *ScheduleGeneratorService) cachedTimeslots(ctx context.Context, termID string) ([]models.Timeslot, error) {
	key := fmt.Sprintf("scheduler:timeslots:%s", termID)
	if s.cache != nil && s.cache.Enabled() {
		var cached []models.Timeslot
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return cached, nil
		}
	}
	timeslots, err := s.timeslots.ListByWindow(ctx, s.cfg.WindowStartHour, s.cfg.WindowEndHour)
	if err != nil {
		return nil, err
	}
	if s.cache != nil && s.cache.Enabled() {
		_ = s.cache.Set(ctx, key, timeslots, 0)
	}
	return timeslots, nil
}

func (s *ScheduleGeneratorService) buildInput(ctx context.Context, termID string, assignments []models.ProfessorCourseGroupAssignmentDetail) (*schedulerBuild, error) {
	build := &schedulerBuild{
		professorRooms:             make(map[int]int),
		courseByDBID:               make(map[string]models.Course),
		groupByDBID:                make(map[string]models.Group),
		professorByDBID:            make(map[string]models.Professor),
		roomByDBID:                 make(map[string]models.Room),
		timeslotByID:               make(map[int]models.Timeslot),
		courseIDs:                  newIDMapper(),
		groupIDs:                   newIDMapper(),
		professorIDs:               newIDMapper(),
		roomIDs:                    newIDMapper(),
		groupCourseToProfessorDBID: make(map[[2]int]string),
	}

	for _, a := range dedupeAssignments(assignments) {
		if _, ok := build.courseByDBID[a.CourseID]; !ok {
			course, err := s.courses.FindByID(ctx, a.CourseID)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course "+a.CourseID)
			}
			build.courseByDBID[a.CourseID] = *course
		}
		if _, ok := build.groupByDBID[a.GroupID]; !ok {
			group, err := s.groups.FindByID(ctx, a.GroupID)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group "+a.GroupID)
			}
			build.groupByDBID[a.GroupID] = *group
		}
		if _, ok := build.professorByDBID[a.ProfessorID]; !ok {
			professor, err := s.professors.FindByID(ctx, a.ProfessorID)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load professor "+a.ProfessorID)
			}
			build.professorByDBID[a.ProfessorID] = *professor
		}

		groupIntID := build.groupIDs.get(a.GroupID)
		courseIntID := build.courseIDs.get(a.CourseID)
		professorIntID := build.professorIDs.get(a.ProfessorID)
		build.groupCourseToProfessorDBID[[2]int{groupIntID, courseIntID}] = a.ProfessorID

		build.assignments = append(build.assignments, scheduler.Assignment{
			ID:            len(build.assignments) + 1,
			ProfessorID:   professorIntID,
			CourseID:      courseIntID,
			GroupID:       groupIntID,
			PersistenceID: len(build.assignments) + 1,
		})
	}

	rooms, err := s.cachedRooms(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}
	for _, r := range rooms {
		build.roomByDBID[r.ID] = r
		roomIntID := build.roomIDs.get(r.ID)
		build.rooms = append(build.rooms, scheduler.Room{ID: roomIntID, Name: r.Name, Capacity: r.Capacity, Type: r.Type, Building: r.Building})
	}

	timeslots, err := s.cachedTimeslots(ctx, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timeslots")
	}
	if len(timeslots) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no timeslots configured within the placement window")
	}
	for _, t := range timeslots {
		build.timeslotByID[t.ID] = t
		build.timeslots = append(build.timeslots, scheduler.Timeslot{ID: t.ID, Day: t.DayLabel, StartTime: t.StartTime, EndTime: t.EndTime})
	}

	for courseDBID, course := range build.courseByDBID {
		build.courses = append(build.courses, scheduler.Course{
			ID:               build.courseIDs.get(courseDBID),
			Name:             course.Name,
			WeeklyHours:      course.WeeklyHours,
			MinBlockDuration: course.MinBlockDuration,
			MaxBlockDuration: course.MaxBlockDuration,
			RequiredRoomType: course.RequiredRoomType,
		})
	}

	for groupDBID, group := range build.groupByDBID {
		tutor := ""
		if group.Tutor != nil {
			tutor = *group.Tutor
		}
		build.groups = append(build.groups, scheduler.Group{ID: build.groupIDs.get(groupDBID), Name: group.Name, Tutor: tutor})
	}

	for professorDBID, professor := range build.professorByDBID {
		unavailableIDs, err := s.professors.Unavailability(ctx, professorDBID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load professor unavailability")
		}
		unavailable := make(map[int]struct{}, len(unavailableIDs))
		for _, slotID := range unavailableIDs {
			unavailable[slotID] = struct{}{}
		}

		professorIntID := build.professorIDs.get(professorDBID)
		build.professors = append(build.professors, scheduler.Professor{
			ID:          professorIntID,
			Name:        professor.Name,
			MaxLoad:     professor.MaxWeeklyLoad,
			Unavailable: unavailable,
		})

		roomDBID, err := s.professors.RoomForProfessor(ctx, professorDBID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load professor room")
		}
		if _, ok := build.roomByDBID[roomDBID]; !ok {
			room, err := s.loadRoomIfMissing(ctx, roomDBID, build)
			if err != nil {
				return nil, err
			}
			build.roomByDBID[roomDBID] = room
		}
		build.professorRooms[professorIntID] = build.roomIDs.get(roomDBID)
	}

	return build, nil
}

func (s *ScheduleGeneratorService) loadRoomIfMissing(ctx context.Context, roomDBID string, build *schedulerBuild) (models.Room, error) {
	if room, ok := build.roomByDBID[roomDBID]; ok {
		return room, nil
	}
	return models.Room{ID: roomDBID}, appErrors.Clone(appErrors.ErrPreconditionFailed, "professor room mapping references an unknown room")
}

// dedupeAssignments drops duplicate (professor, course, group) rows,
// preserving first-seen order (already term/group/course-sorted by the
// repository query).
func dedupeAssignments(assignments []models.ProfessorCourseGroupAssignmentDetail) []models.ProfessorCourseGroupAssignmentDetail {
	seen := make(map[string]struct{}, len(assignments))
	out := make([]models.ProfessorCourseGroupAssignmentDetail, 0, len(assignments))
	for _, a := range assignments {
		key := a.ProfessorID + "|" + a.CourseID + "|" + a.GroupID
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, a)
	}
	return out
}

// translateSchedules converts the scheduling core's per-group Result into
// persistence rows and API views, sorted for deterministic output (map
// iteration order is not stable).
func (b *schedulerBuild) translateSchedules(schedules map[int]scheduler.Schedule) ([]models.GeneratedScheduleSlot, []dto.ScheduleSlotView) {
	var slots []models.GeneratedScheduleSlot
	var views []dto.ScheduleSlotView

	for groupIntID, schedule := range schedules {
		groupDBID := b.groupIDs.str(groupIntID)
		group := b.groupByDBID[groupDBID]

		for hourKey, entry := range schedule {
			courseDBID := b.courseIDs.str(entry.CourseID)
			course := b.courseByDBID[courseDBID]
			roomDBID := b.roomIDs.str(entry.RoomID)
			room := b.roomByDBID[roomDBID]
			professorDBID := b.groupCourseToProfessorDBID[[2]int{groupIntID, entry.CourseID}]
			timeslot := b.timeslotByID[entry.TimeslotID]

			slots = append(slots, models.GeneratedScheduleSlot{
				GroupID:     groupDBID,
				CourseID:    courseDBID,
				ProfessorID: professorDBID,
				RoomID:      roomDBID,
				TimeslotID:  entry.TimeslotID,
				HourKey:     hourKey,
			})
			views = append(views, dto.ScheduleSlotView{
				GroupID:     groupDBID,
				GroupName:   group.Name,
				CourseID:    courseDBID,
				CourseName:  course.Name,
				ProfessorID: professorDBID,
				RoomID:      roomDBID,
				TimeslotID:  entry.TimeslotID,
				Day:         timeslot.DayLabel,
				StartTime:   timeslot.StartTime,
				EndTime:     timeslot.EndTime,
			})
			_ = room
		}
	}

	sort.Slice(views, func(i, j int) bool {
		if views[i].GroupName != views[j].GroupName {
			return views[i].GroupName < views[j].GroupName
		}
		return views[i].TimeslotID < views[j].TimeslotID
	})
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].GroupID != slots[j].GroupID {
			return slots[i].GroupID < slots[j].GroupID
		}
		return slots[i].TimeslotID < slots[j].TimeslotID
	})

	return slots, views
}

// translateDeficits converts the scheduling core's deficit report into
// persistence rows and API views.
func (b *schedulerBuild) translateDeficits(deficits []scheduler.Deficit) ([]models.ScheduleDeficit, []dto.ScheduleDeficitView) {
	out := make([]models.ScheduleDeficit, 0, len(deficits))
	views := make([]dto.ScheduleDeficitView, 0, len(deficits))
	for _, d := range deficits {
		groupDBID := b.groupIDs.str(d.GroupID)
		courseDBID := b.courseIDs.str(d.CourseID)
		group := b.groupByDBID[groupDBID]
		course := b.courseByDBID[courseDBID]

		out = append(out, models.ScheduleDeficit{GroupID: groupDBID, CourseID: courseDBID, MissingHours: d.Missing})
		views = append(views, dto.ScheduleDeficitView{
			GroupID:      groupDBID,
			GroupName:    group.Name,
			CourseID:     courseDBID,
			CourseName:   course.Name,
			MissingHours: d.Missing,
		})
	}
	sort.Slice(views, func(i, j int) bool {
		if views[i].GroupName != views[j].GroupName {
			return views[i].GroupName < views[j].GroupName
		}
		return views[i].CourseName < views[j].CourseName
	})
	return out, views
}
