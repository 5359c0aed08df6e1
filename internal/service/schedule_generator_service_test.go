package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cronosschool2025-afk/algoritmo/internal/dto"
	"github.com/cronosschool2025-afk/algoritmo/internal/models"
	appErrors "github.com/cronosschool2025-afk/algoritmo/pkg/errors"
	"github.com/cronosschool2025-afk/algoritmo/pkg/jobs"
)

var schedulerTestDayIDs = map[string]int{
	"Lunes": 1, "Martes": 2, "Miércoles": 3, "Jueves": 4, "Viernes": 5,
}

func buildSchedulerTestTimeslots(days []string, startHour, endHour int) []models.Timeslot {
	var out []models.Timeslot
	for _, day := range days {
		dayID := schedulerTestDayIDs[day]
		for h := startHour; h < endHour; h++ {
			out = append(out, models.Timeslot{
				ID:        dayID*1000 + h,
				DayID:     dayID,
				DayLabel:  day,
				StartHour: h,
				StartTime: fmt.Sprintf("%02d:00:00", h),
				EndTime:   fmt.Sprintf("%02d:00:00", h+1),
			})
		}
	}
	return out
}

func allSchedulerTestDays() []string {
	return []string{"Lunes", "Martes", "Miércoles", "Jueves", "Viernes"}
}

type schedulerFixtureConfig struct {
	course      models.Course
	assignments []models.ProfessorCourseGroupAssignmentDetail
	timeslots   []models.Timeslot
	tx          txProvider
	repairQueue repairEnqueuer
}

func newScheduleGeneratorFixture(t *testing.T, cfg schedulerFixtureConfig) (*ScheduleGeneratorService, *generatedScheduleRepoStub, *generatedScheduleSlotRepoStub, *scheduleDeficitRepoStub) {
	t.Helper()

	term := models.Term{ID: "term-1", Name: "2026-1"}
	course := cfg.course
	if course.ID == "" {
		course = models.Course{ID: "course-1", Name: "Álgebra", WeeklyHours: 2, MinBlockDuration: 1, MaxBlockDuration: 1}
	}
	group := models.Group{ID: "group-1", Name: "G1"}
	professor := models.Professor{ID: "prof-1", Name: "Prof A", MaxWeeklyLoad: 40}
	room := models.Room{ID: "room-1", Name: "A1"}

	assignments := cfg.assignments
	if assignments == nil {
		assignments = []models.ProfessorCourseGroupAssignmentDetail{{
			ProfessorCourseGroupAssignment: models.ProfessorCourseGroupAssignment{
				ProfessorID: professor.ID, CourseID: course.ID, GroupID: group.ID, TermID: term.ID,
			},
			ProfessorName: professor.Name, CourseName: course.Name, GroupName: group.Name, TermName: term.Name,
		}}
	}

	timeslots := cfg.timeslots
	if timeslots == nil {
		timeslots = buildSchedulerTestTimeslots(allSchedulerTestDays(), 17, 22)
	}

	terms := termReaderStub{items: map[string]models.Term{term.ID: term}}
	courses := courseReaderStub{items: map[string]models.Course{course.ID: course}}
	groups := groupReaderStub{items: map[string]models.Group{group.ID: group}}
	professors := professorReaderStub{items: map[string]models.Professor{professor.ID: professor}, rooms: map[string]string{professor.ID: room.ID}}
	rooms := roomReaderStub{items: []models.Room{room}}
	assignmentsReader := assignmentReaderStub{items: assignments}
	timeslotsReader := timeslotReaderStub{items: timeslots}

	schedules := newGeneratedScheduleRepoStub()
	slots := newGeneratedScheduleSlotRepoStub()
	deficits := newScheduleDeficitRepoStub()

	tx := cfg.tx
	if tx == nil {
		tx = noopSchedulerTxProvider{}
	}

	svc := NewScheduleGeneratorService(
		terms, assignmentsReader, courses, groups, professors, rooms, timeslotsReader,
		schedules, slots, deficits, tx, validator.New(), zap.NewNop(),
		ScheduleGeneratorConfig{ProposalTTL: time.Hour, RandomSeed: 42},
	)
	if cfg.repairQueue != nil {
		svc.SetRepairQueue(cfg.repairQueue)
	}
	return svc, schedules, slots, deficits
}

func TestScheduleGeneratorServiceGenerateSuccess(t *testing.T) {
	svc, _, _, _ := newScheduleGeneratorFixture(t, schedulerFixtureConfig{})

	resp, err := svc.Generate(context.Background(), dto.GenerateScheduleRequest{TermID: "term-1"})
	require.NoError(t, err)
	assert.Equal(t, "term-1", resp.TermID)
	assert.Len(t, resp.Slots, 2)
	assert.Empty(t, resp.Deficits)
}

func TestScheduleGeneratorServiceGenerateTermNotFound(t *testing.T) {
	svc, _, _, _ := newScheduleGeneratorFixture(t, schedulerFixtureConfig{})

	_, err := svc.Generate(context.Background(), dto.GenerateScheduleRequest{TermID: "missing-term"})
	require.Error(t, err)
	appErr := asAppError(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestScheduleGeneratorServiceGenerateNoAssignments(t *testing.T) {
	svc, _, _, _ := newScheduleGeneratorFixture(t, schedulerFixtureConfig{
		assignments: []models.ProfessorCourseGroupAssignmentDetail{},
	})

	_, err := svc.Generate(context.Background(), dto.GenerateScheduleRequest{TermID: "term-1"})
	require.Error(t, err)
	appErr := asAppError(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
}

func TestScheduleGeneratorServiceSaveDraft(t *testing.T) {
	txp, mock := newSchedulerTxProviderMock(t)
	svc, schedules, slots, _ := newScheduleGeneratorFixture(t, schedulerFixtureConfig{tx: txp})

	resp, err := svc.Generate(context.Background(), dto.GenerateScheduleRequest{TermID: "term-1"})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectCommit()

	record, err := svc.Save(context.Background(), resp.ScheduleID, dto.SaveScheduleRequest{Publish: true})
	require.NoError(t, err)
	assert.Equal(t, models.GeneratedScheduleStatusPublished, record.Status)
	assert.NoError(t, mock.ExpectationsWereMet())

	stored, ok := schedules.items[record.ID]
	require.True(t, ok)
	assert.Equal(t, models.GeneratedScheduleStatusPublished, stored.Status)
	assert.Len(t, slots.items[record.ID], 2)
}

func TestScheduleGeneratorServiceSaveUnknownDraft(t *testing.T) {
	svc, _, _, _ := newScheduleGeneratorFixture(t, schedulerFixtureConfig{})

	_, err := svc.Save(context.Background(), "does-not-exist", dto.SaveScheduleRequest{})
	require.Error(t, err)
	appErr := asAppError(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestScheduleGeneratorServiceSaveEnqueuesRepairOnDeficit(t *testing.T) {
	txp, mock := newSchedulerTxProviderMock(t)
	queue := &repairQueueStub{}

	languageCourse := models.Course{ID: "course-1", Name: "Inglés I", WeeklyHours: 4, MinBlockDuration: 1, MaxBlockDuration: 1}
	svc, _, _, deficits := newScheduleGeneratorFixture(t, schedulerFixtureConfig{
		tx:          txp,
		course:      languageCourse,
		timeslots:   buildSchedulerTestTimeslots([]string{"Lunes", "Martes", "Miércoles"}, 17, 22),
		repairQueue: queue,
	})

	resp, err := svc.Generate(context.Background(), dto.GenerateScheduleRequest{TermID: "term-1"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Deficits)

	mock.ExpectBegin()
	mock.ExpectCommit()

	record, err := svc.Save(context.Background(), resp.ScheduleID, dto.SaveScheduleRequest{})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())

	require.NotNil(t, queue.lastJob)
	assert.Equal(t, RepairJobType, queue.lastJob.Type)
	payload, ok := queue.lastJob.Payload.(RepairJobPayload)
	require.True(t, ok)
	assert.Equal(t, record.ID, payload.ScheduleID)

	count, err := deficits.CountBySchedule(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestScheduleGeneratorServicePublish(t *testing.T) {
	svc, schedules, _, _ := newScheduleGeneratorFixture(t, schedulerFixtureConfig{})
	schedules.items["sched-1"] = models.GeneratedSchedule{ID: "sched-1", TermID: "term-1", Status: models.GeneratedScheduleStatusDraft}

	err := svc.Publish(context.Background(), "sched-1")
	require.NoError(t, err)
	assert.Equal(t, models.GeneratedScheduleStatusPublished, schedules.items["sched-1"].Status)
}

func TestScheduleGeneratorServicePublishAlreadyPublished(t *testing.T) {
	svc, schedules, _, _ := newScheduleGeneratorFixture(t, schedulerFixtureConfig{})
	schedules.items["sched-1"] = models.GeneratedSchedule{ID: "sched-1", TermID: "term-1", Status: models.GeneratedScheduleStatusPublished}

	err := svc.Publish(context.Background(), "sched-1")
	require.Error(t, err)
	appErr := asAppError(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestScheduleGeneratorServiceDeleteDraftOnly(t *testing.T) {
	txp, mock := newSchedulerTxProviderMock(t)
	svc, schedules, slots, deficits := newScheduleGeneratorFixture(t, schedulerFixtureConfig{tx: txp})
	schedules.items["sched-1"] = models.GeneratedSchedule{ID: "sched-1", TermID: "term-1", Status: models.GeneratedScheduleStatusDraft}
	slots.items["sched-1"] = []models.GeneratedScheduleSlot{{GeneratedScheduleID: "sched-1", GroupID: "group-1"}}
	deficits.items["sched-1"] = []models.ScheduleDeficit{{GeneratedScheduleID: "sched-1", GroupID: "group-1"}}

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := svc.Delete(context.Background(), "sched-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
	_, stillThere := schedules.items["sched-1"]
	assert.False(t, stillThere)
}

func TestScheduleGeneratorServiceDeleteRejectsPublished(t *testing.T) {
	svc, schedules, _, _ := newScheduleGeneratorFixture(t, schedulerFixtureConfig{})
	schedules.items["sched-1"] = models.GeneratedSchedule{ID: "sched-1", TermID: "term-1", Status: models.GeneratedScheduleStatusPublished}

	err := svc.Delete(context.Background(), "sched-1")
	require.Error(t, err)
	appErr := asAppError(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestScheduleGeneratorServiceListRequiresTermID(t *testing.T) {
	svc, _, _, _ := newScheduleGeneratorFixture(t, schedulerFixtureConfig{})

	_, err := svc.List(context.Background(), "")
	require.Error(t, err)
	appErr := asAppError(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestScheduleGeneratorServiceGetSlotsAndDeficits(t *testing.T) {
	svc, schedules, slots, deficits := newScheduleGeneratorFixture(t, schedulerFixtureConfig{})
	schedules.items["sched-1"] = models.GeneratedSchedule{ID: "sched-1", TermID: "term-1", Status: models.GeneratedScheduleStatusDraft}
	slots.items["sched-1"] = []models.GeneratedScheduleSlot{{GeneratedScheduleID: "sched-1", GroupID: "group-1", CourseID: "course-1"}}
	deficits.items["sched-1"] = []models.ScheduleDeficit{{GeneratedScheduleID: "sched-1", GroupID: "group-1", CourseID: "course-1", MissingHours: 1}}

	gotSlots, err := svc.GetSlots(context.Background(), "sched-1", "")
	require.NoError(t, err)
	assert.Len(t, gotSlots, 1)

	gotDeficits, err := svc.Deficits(context.Background(), "sched-1")
	require.NoError(t, err)
	assert.Len(t, gotDeficits, 1)
}

// --- Stubs and fakes ---

func asAppError(t *testing.T, err error) *appErrors.Error {
	t.Helper()
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok, "expected *appErrors.Error, got %T", err)
	return appErr
}

type termReaderStub struct {
	items map[string]models.Term
}

func (s termReaderStub) FindByID(ctx context.Context, id string) (*models.Term, error) {
	term, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &term, nil
}

type courseReaderStub struct {
	items map[string]models.Course
}

func (s courseReaderStub) FindByID(ctx context.Context, id string) (*models.Course, error) {
	course, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &course, nil
}

type groupReaderStub struct {
	items map[string]models.Group
}

func (s groupReaderStub) FindByID(ctx context.Context, id string) (*models.Group, error) {
	group, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &group, nil
}

type professorReaderStub struct {
	items map[string]models.Professor
	rooms map[string]string
}

func (s professorReaderStub) FindByID(ctx context.Context, id string) (*models.Professor, error) {
	professor, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &professor, nil
}

func (s professorReaderStub) Unavailability(ctx context.Context, professorID string) ([]int, error) {
	return nil, nil
}

func (s professorReaderStub) RoomForProfessor(ctx context.Context, professorID string) (string, error) {
	room, ok := s.rooms[professorID]
	if !ok {
		return "", sql.ErrNoRows
	}
	return room, nil
}

type roomReaderStub struct {
	items []models.Room
}

func (s roomReaderStub) ListAll(ctx context.Context) ([]models.Room, error) {
	return s.items, nil
}

type assignmentReaderStub struct {
	items []models.ProfessorCourseGroupAssignmentDetail
}

func (s assignmentReaderStub) ListByTerm(ctx context.Context, termID string) ([]models.ProfessorCourseGroupAssignmentDetail, error) {
	var out []models.ProfessorCourseGroupAssignmentDetail
	for _, a := range s.items {
		if a.TermID == termID {
			out = append(out, a)
		}
	}
	return out, nil
}

type timeslotReaderStub struct {
	items []models.Timeslot
}

func (s timeslotReaderStub) ListByWindow(ctx context.Context, startHour, endHour int) ([]models.Timeslot, error) {
	var out []models.Timeslot
	for _, t := range s.items {
		if t.StartHour >= startHour && t.StartHour < endHour {
			out = append(out, t)
		}
	}
	return out, nil
}

type generatedScheduleRepoStub struct {
	mu    sync.Mutex
	items map[string]models.GeneratedSchedule
}

func newGeneratedScheduleRepoStub() *generatedScheduleRepoStub {
	return &generatedScheduleRepoStub{items: make(map[string]models.GeneratedSchedule)}
}

func (s *generatedScheduleRepoStub) CreateVersioned(ctx context.Context, exec sqlx.ExtContext, schedule *models.GeneratedSchedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	schedule.ID = fmt.Sprintf("sched-%d", len(s.items)+1)
	schedule.Version = len(s.items) + 1
	s.items[schedule.ID] = *schedule
	return nil
}

func (s *generatedScheduleRepoStub) ListByTerm(ctx context.Context, termID string) ([]models.GeneratedSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.GeneratedSchedule
	for _, v := range s.items {
		if v.TermID == termID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *generatedScheduleRepoStub) FindByID(ctx context.Context, id string) (*models.GeneratedSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &v, nil
}

func (s *generatedScheduleRepoStub) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.items, id)
	return nil
}

func (s *generatedScheduleRepoStub) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.GeneratedScheduleStatus, meta types.JSONText) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	v.Status = status
	s.items[id] = v
	return nil
}

type generatedScheduleSlotRepoStub struct {
	mu    sync.Mutex
	items map[string][]models.GeneratedScheduleSlot
}

func newGeneratedScheduleSlotRepoStub() *generatedScheduleSlotRepoStub {
	return &generatedScheduleSlotRepoStub{items: make(map[string][]models.GeneratedScheduleSlot)}
}

func (s *generatedScheduleSlotRepoStub) InsertBatch(ctx context.Context, exec sqlx.ExtContext, slots []models.GeneratedScheduleSlot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, slot := range slots {
		s.items[slot.GeneratedScheduleID] = append(s.items[slot.GeneratedScheduleID], slot)
	}
	return nil
}

func (s *generatedScheduleSlotRepoStub) ListBySchedule(ctx context.Context, scheduleID string, groupID string) ([]models.GeneratedScheduleSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.GeneratedScheduleSlot
	for _, slot := range s.items[scheduleID] {
		if groupID == "" || slot.GroupID == groupID {
			out = append(out, slot)
		}
	}
	return out, nil
}

func (s *generatedScheduleSlotRepoStub) DeleteBySchedule(ctx context.Context, exec sqlx.ExtContext, scheduleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, scheduleID)
	return nil
}

type scheduleDeficitRepoStub struct {
	mu    sync.Mutex
	items map[string][]models.ScheduleDeficit
}

func newScheduleDeficitRepoStub() *scheduleDeficitRepoStub {
	return &scheduleDeficitRepoStub{items: make(map[string][]models.ScheduleDeficit)}
}

func (s *scheduleDeficitRepoStub) InsertBatch(ctx context.Context, exec sqlx.ExtContext, deficits []models.ScheduleDeficit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range deficits {
		s.items[d.GeneratedScheduleID] = append(s.items[d.GeneratedScheduleID], d)
	}
	return nil
}

func (s *scheduleDeficitRepoStub) ListBySchedule(ctx context.Context, scheduleID string) ([]models.ScheduleDeficit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[scheduleID], nil
}

func (s *scheduleDeficitRepoStub) DeleteBySchedule(ctx context.Context, exec sqlx.ExtContext, scheduleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, scheduleID)
	return nil
}

func (s *scheduleDeficitRepoStub) CountBySchedule(ctx context.Context, scheduleID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items[scheduleID]), nil
}

type noopSchedulerTxProvider struct{}

func (noopSchedulerTxProvider) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider unavailable")
}

type schedulerTxProviderMock struct {
	db *sqlx.DB
}

func (t *schedulerTxProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

func newSchedulerTxProviderMock(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { _ = db.Close() })
	return &schedulerTxProviderMock{db: sqlxDB}, mock
}

type repairQueueStub struct {
	lastJob *jobs.Job
}

func (q *repairQueueStub) Enqueue(job jobs.Job) error {
	j := job
	q.lastJob = &j
	return nil
}
