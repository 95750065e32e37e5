package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnemo-app/mnemo-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	cleanup := func() {
		_ = sqlxDB.Close()
		db.Close()
	}
	return sqlxDB, mock, cleanup
}

func taskRows(ids ...int64) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "plan_id", "note_id", "scheduled_date", "status", "mastery_level",
		"revision_mode", "priority", "time_spent", "revision_count",
		"completed_at", "created_at", "updated_at",
	})
	now := time.Now().UTC()
	for _, id := range ids {
		rows.AddRow(id, int64(1), int64(42), now, "pending", nil, "normal", 0, 0, 0, nil, now, now)
	}
	return rows
}

func TestTaskRepositoryNextPendingNormalFiltersMode(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTaskRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("t.revision_mode = $3")).
		WithArgs(models.TaskStatusPending, sqlmock.AnyArg(), models.ModeNormal).
		WillReturnRows(taskRows(5))

	task, err := repo.NextPending(context.Background(), nil, models.ModeNormal, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(5), task.ID)
}

func TestTaskRepositoryNextPendingIntensiveBypassesModeFilter(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTaskRepository(db)

	planID := int64(3)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY t.priority DESC, t.scheduled_date ASC, t.id ASC LIMIT 1")).
		WithArgs(models.TaskStatusPending, sqlmock.AnyArg(), planID).
		WillReturnRows(taskRows(9))

	task, err := repo.NextPending(context.Background(), &planID, models.ModeIntensive, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(9), task.ID)
}

func TestTaskRepositoryNextPendingNone(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTaskRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.NextPending(context.Background(), nil, models.ModeNormal, time.Now().UTC())
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestTaskRepositoryAdjustMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTaskRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE revision_tasks SET scheduled_date = $2, revision_mode = $3")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := repo.Adjust(context.Background(), 99, time.Now().UTC(), nil)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestTaskRepositoryApplyReviewMastery(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTaskRepository(db)

	lockRows := sqlmock.NewRows([]string{
		"id", "plan_id", "note_id", "scheduled_date", "status", "mastery_level",
		"revision_mode", "priority", "time_spent", "completed_at", "created_at", "updated_at",
	}).AddRow(int64(5), int64(1), int64(42), time.Now().UTC(), "pending", nil, "normal", 0, 0, nil, time.Now().UTC(), time.Now().UTC())

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(int64(5)).
		WillReturnRows(lockRows)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO revision_histories")).
		WithArgs(int64(42), int64(5), models.MasteryMastered, models.ModeNormal, 0, sqlmock.AnyArg(), nil).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(77)))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE notes SET total_revisions = total_revisions + 1")).
		WithArgs(int64(42), sqlmock.AnyArg(), models.MasteryMastered).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE revision_tasks SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
		WithArgs(int64(5)).
		WillReturnRows(taskRows(5))
	mock.ExpectCommit()

	level := models.MasteryMastered
	status := models.TaskStatusCompleted
	task, err := repo.ApplyReview(context.Background(), 5, ReviewUpdate{Status: &status, MasteryLevel: &level})
	require.NoError(t, err)
	assert.Equal(t, int64(5), task.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepositoryApplyReviewMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTaskRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.ApplyReview(context.Background(), 99, ReviewUpdate{})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestTaskRepositoryBatchApplySkipsMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTaskRepository(db)

	lockRows := sqlmock.NewRows([]string{
		"id", "plan_id", "note_id", "scheduled_date", "status", "mastery_level",
		"revision_mode", "priority", "time_spent", "completed_at", "created_at", "updated_at",
	}).AddRow(int64(1), int64(1), int64(42), time.Now().UTC(), "pending", nil, "normal", 0, 0, nil, time.Now().UTC(), time.Now().UTC())

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(int64(1)).
		WillReturnRows(lockRows)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE revision_tasks SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO revision_histories")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(10)))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE notes SET total_revisions = total_revisions + 1")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
		WithArgs(int64(1)).
		WillReturnRows(taskRows(1))
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectCommit()

	updated, err := repo.BatchApply(context.Background(), []int64{1, 99}, BatchChange{
		Status:       models.TaskStatusCompleted,
		MasteryLevel: models.MasteryMastered,
		RevisionMode: models.ModeNormal,
	})
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.Equal(t, int64(1), updated[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepositoryBatchApplyCreatesFollowUp(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTaskRepository(db)

	lockRows := sqlmock.NewRows([]string{
		"id", "plan_id", "note_id", "scheduled_date", "status", "mastery_level",
		"revision_mode", "priority", "time_spent", "completed_at", "created_at", "updated_at",
	}).AddRow(int64(1), int64(1), int64(42), time.Now().UTC(), "pending", nil, "normal", 0, 0, nil, time.Now().UTC(), time.Now().UTC())

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(int64(1)).
		WillReturnRows(lockRows)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE revision_tasks SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO revision_histories")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE notes SET total_revisions = total_revisions + 1")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// not_mastered chains a +1 day, priority 2 follow-up task
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO revision_tasks")).
		WithArgs(int64(1), int64(42), sqlmock.AnyArg(), models.TaskStatusPending, nil,
			models.RevisionMode("normal"), 2, 0, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(2)))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
		WithArgs(int64(1)).
		WillReturnRows(taskRows(1))
	mock.ExpectCommit()

	updated, err := repo.BatchApply(context.Background(), []int64{1}, BatchChange{
		Status:       models.TaskStatusCompleted,
		MasteryLevel: models.MasteryNotMastered,
		RevisionMode: models.ModeNormal,
		TimeSpent:    120,
	})
	require.NoError(t, err)
	require.Len(t, updated, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepositoryInsertBatchAbortsOnFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTaskRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO revision_tasks")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO revision_tasks")).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	tasks := []models.RevisionTask{
		{PlanID: 1, NoteID: 1, ScheduledDate: time.Now().UTC(), Status: models.TaskStatusPending, RevisionMode: models.ModeNormal},
		{PlanID: 1, NoteID: 2, ScheduledDate: time.Now().UTC(), Status: models.TaskStatusPending, RevisionMode: models.ModeNormal},
	}
	err := repo.InsertBatch(context.Background(), tasks)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert revision task")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepositoryExistsForPlanAndNote(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTaskRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs(int64(1), int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsForPlanAndNote(context.Background(), 1, 42)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestTaskRepositoryDailyCounts(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTaskRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0)")).
		WillReturnRows(sqlmock.NewRows([]string{"total", "completed"}).AddRow(8, 3))

	total, completed, err := repo.DailyCounts(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, 8, total)
	assert.Equal(t, 3, completed)
}

func TestTaskRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTaskRepository(db)

	planID := int64(1)
	status := models.TaskStatusPending
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{
		"id", "plan_id", "note_id", "scheduled_date", "status", "mastery_level",
		"revision_mode", "priority", "time_spent", "revision_count",
		"completed_at", "created_at", "updated_at", "note_title", "note_status", "note_priority",
	}).AddRow(int64(1), planID, int64(42), date, "pending", nil, "normal", 0, 0, 2, nil, date, date, "Graph theory", "published", 1)

	mock.ExpectQuery(regexp.QuoteMeta("t.scheduled_date::date = $3::date")).
		WithArgs(planID, status, date).
		WillReturnRows(rows)

	tasks, err := repo.List(context.Background(), models.TaskFilter{PlanID: &planID, Status: &status, Date: &date})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, 2, tasks[0].RevisionCount)
	require.NotNil(t, tasks[0].NoteTitle)
	assert.Equal(t, "Graph theory", *tasks[0].NoteTitle)
}
