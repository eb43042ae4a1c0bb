package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/internship-tracker-api/internal/models"
)

func TestProfileGetNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM profiles WHERE user_id = $1")).
		WithArgs("u1").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "u1")
	require.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileUpsertLeavesSupervisorUntouched(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	now := time.Now()
	university := "Universitas Indonesia"
	supervisor := "s1"
	columns := []string{"user_id", "phone", "address", "university", "faculty", "major", "cohort_year", "gpa", "credits", "birth_date", "start_date", "end_date", "division", "supervisor_id", "supervisor_name", "photo_path", "created_at", "updated_at"}
	rows := sqlmock.NewRows(columns).
		AddRow("u1", nil, nil, university, nil, nil, nil, nil, nil, nil, nil, nil, nil, supervisor, nil, nil, now, now)
	mock.ExpectQuery("INSERT INTO profiles .* ON CONFLICT \\(user_id\\) DO UPDATE SET").WillReturnRows(rows)

	stored, err := repo.Upsert(context.Background(), &models.Profile{UserID: "u1", University: &university})
	require.NoError(t, err)
	require.NotNil(t, stored.SupervisorID)
	assert.Equal(t, "s1", *stored.SupervisorID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileSetPhotoReturnsPrevious(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	mock.ExpectQuery("INSERT INTO profiles \\(user_id, photo_path").
		WithArgs("u1", "photos/u1/new.png", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"photo_path"}).AddRow("photos/u1/old.png"))

	previous, err := repo.SetPhoto(context.Background(), "u1", "photos/u1/new.png")
	require.NoError(t, err)
	require.NotNil(t, previous)
	assert.Equal(t, "photos/u1/old.png", *previous)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSupervisorIsLinked(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSupervisorRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM profiles p WHERE p.user_id = $1 AND (p.supervisor_id = $2 OR (p.supervisor_id IS NULL AND p.supervisor_name = $3)))")).
		WithArgs("student-1", "sup-1", "Pak Budi").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	linked, err := repo.IsLinked(context.Background(), "sup-1", "Pak Budi", "student-1")
	require.NoError(t, err)
	assert.True(t, linked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSupervisorSummary(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSupervisorRepository(db)

	mock.ExpectQuery("COUNT\\(DISTINCT p.user_id\\)").
		WithArgs("sup-1").
		WillReturnRows(sqlmock.NewRows([]string{"total_students", "pending_journals", "approved_journals"}).AddRow(3, 2, 5))

	summary, err := repo.Summary(context.Background(), "sup-1", "")
	require.NoError(t, err)
	assert.Equal(t, &models.SupervisorSummary{SupervisorID: "sup-1", TotalStudents: 3, PendingJournals: 2, ApprovedJournals: 5}, summary)
	assert.NoError(t, mock.ExpectationsWereMet())
}
