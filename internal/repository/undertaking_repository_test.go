package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ivms-api/internal/models"
)

func undertakingRow(id, userID, studentID string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "student_id", "semester", "branch", "roll_no", "parent_name",
		"places_visited", "tour_period", "faculty_details", "student_signature_path",
		"parent_signature_path", "created_at", "updated_at",
	}).AddRow(
		id, userID, studentID, "VI", "CSE", "42", "R. Verma",
		"Acme Motors", "2026-03-01 to 2026-03-03", "Prof. Iyer", "signatures/student.png",
		nil, time.Now().UTC(), time.Now().UTC(),
	)
}

func TestUndertakingRepositoryCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUndertakingRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO undertakings")).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.Undertaking{UserID: "user-1", StudentID: "stu-1", Semester: "VI"})
	require.ErrorIs(t, err, ErrDuplicateKey)
}

func TestUndertakingRepositoryGetByApplicant(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUndertakingRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1")).
		WithArgs("user-1").
		WillReturnRows(undertakingRow("ut-1", "user-1", "stu-1"))

	item, err := repo.Get(context.Background(), models.UndertakingRef{Kind: models.UndertakingByApplicant, ID: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, "ut-1", item.ID)
	assert.Equal(t, "user-1", item.UserID)
}

func TestUndertakingRepositoryGetByIDMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUndertakingRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1")).
		WithArgs("ut-missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), models.UndertakingRef{Kind: models.UndertakingByID, ID: "ut-missing"})
	require.Error(t, err)
}

func TestUndertakingRepositoryFindExistingNone(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUndertakingRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
		WithArgs("user-1", "stu-1", "VII").
		WillReturnError(sql.ErrNoRows)

	item, err := repo.FindExisting(context.Background(), "user-1", "stu-1", "VII")
	require.NoError(t, err)
	assert.Nil(t, item)
}

func TestUndertakingRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUndertakingRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM undertakings WHERE id = $1")).
		WithArgs("ut-missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "ut-missing")
	require.ErrorIs(t, err, sql.ErrNoRows)
}
