package service

import (
	"bytes"
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/ivms-api/internal/dto"
	"github.com/noah-isme/ivms-api/internal/models"
	"github.com/noah-isme/ivms-api/internal/repository"
	appErrors "github.com/noah-isme/ivms-api/pkg/errors"
)

type stubVoteStore struct {
	findFn func(ctx context.Context, studentID string) (*models.Vote, error)
	castFn func(ctx context.Context, vote *models.Vote) error
	listFn func(ctx context.Context) ([]models.VotedUser, error)
}

func (s *stubVoteStore) FindByStudent(ctx context.Context, studentID string) (*models.Vote, error) {
	if s.findFn == nil {
		return nil, nil
	}
	return s.findFn(ctx, studentID)
}

func (s *stubVoteStore) Cast(ctx context.Context, vote *models.Vote) error {
	if s.castFn == nil {
		return nil
	}
	return s.castFn(ctx, vote)
}

func (s *stubVoteStore) ListVotedUsers(ctx context.Context) ([]models.VotedUser, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx)
}

func TestVoteServiceCastSuccess(t *testing.T) {
	store := &stubVoteStore{}
	cache := &stubCache{}
	svc := NewVoteService(store, &stubUserReader{}, cache, nil, zap.NewNop(), time.Minute)

	vote, existing, err := svc.Cast(context.Background(), dto.CastVoteRequest{StudentID: "stu-1", PackageID: "pkg-1"})
	require.NoError(t, err)
	assert.Nil(t, existing)
	require.NotNil(t, vote)
	assert.Equal(t, "pkg-1", vote.PackageID)
	assert.Contains(t, cache.deleted, "votes:stats")
}

func TestVoteServiceCastAlreadyVoted(t *testing.T) {
	prior := &models.Vote{ID: "vote-1", StudentID: "stu-1", PackageID: "pkg-2"}
	store := &stubVoteStore{
		castFn: func(ctx context.Context, vote *models.Vote) error {
			return repository.ErrDuplicateKey
		},
		findFn: func(ctx context.Context, studentID string) (*models.Vote, error) {
			return prior, nil
		},
	}
	svc := NewVoteService(store, &stubUserReader{}, nil, nil, zap.NewNop(), time.Minute)

	vote, existing, err := svc.Cast(context.Background(), dto.CastVoteRequest{StudentID: "stu-1", PackageID: "pkg-1"})
	require.Error(t, err)
	assert.Nil(t, vote)
	require.NotNil(t, existing)
	assert.Equal(t, "pkg-2", existing.PackageID)
	assert.Equal(t, appErrors.ErrAlreadyVoted.Code, appErrors.FromError(err).Code)
}

func TestVoteServiceCastRejectsNonStudent(t *testing.T) {
	users := &stubUserReader{findFn: func(ctx context.Context, id string) (*models.User, error) {
		return &models.User{ID: id, Role: models.RoleHOD}, nil
	}}
	svc := NewVoteService(&stubVoteStore{}, users, nil, nil, zap.NewNop(), time.Minute)

	_, _, err := svc.Cast(context.Background(), dto.CastVoteRequest{StudentID: "hod-1", PackageID: "pkg-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestVoteServiceCastPackageMissing(t *testing.T) {
	store := &stubVoteStore{castFn: func(ctx context.Context, vote *models.Vote) error {
		return sql.ErrNoRows
	}}
	svc := NewVoteService(store, &stubUserReader{}, nil, nil, zap.NewNop(), time.Minute)

	_, _, err := svc.Cast(context.Background(), dto.CastVoteRequest{StudentID: "stu-1", PackageID: "ghost"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestVoteServiceStatisticsTalliesGenders(t *testing.T) {
	store := &stubVoteStore{listFn: func(ctx context.Context) ([]models.VotedUser, error) {
		return []models.VotedUser{
			{StudentID: "stu-1", Gender: "MALE"},
			{StudentID: "stu-2", Gender: "female"},
			{StudentID: "stu-3", Gender: "MALE"},
			{StudentID: "stu-4", Gender: ""},
		}, nil
	}}
	users := &stubUserReader{countFn: func(ctx context.Context, role models.UserRole) (int, error) {
		return 10, nil
	}}
	svc := NewVoteService(store, users, nil, nil, zap.NewNop(), time.Minute)

	stats, err := svc.Statistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, stats.TotalStudents)
	assert.Equal(t, 2, stats.MaleCount)
	assert.Equal(t, 1, stats.FemaleCount)
	assert.InDelta(t, 50.0, stats.MalePercentage, 0.01)
	assert.InDelta(t, 25.0, stats.FemalePercentage, 0.01)
}

func TestVoteServiceStatisticsServedFromCache(t *testing.T) {
	cached := models.VoteStatistics{TotalStudents: 42}
	cache := &stubCache{getFn: func(ctx context.Context, key string, dest interface{}) error {
		*(dest.(*models.VoteStatistics)) = cached
		return nil
	}}
	store := &stubVoteStore{listFn: func(ctx context.Context) ([]models.VotedUser, error) {
		t.Fatal("store should not be hit on cache hit")
		return nil, nil
	}}
	svc := NewVoteService(store, &stubUserReader{}, cache, nil, zap.NewNop(), time.Minute)

	stats, err := svc.Statistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, stats.TotalStudents)
}

func TestVoteServiceExportCSV(t *testing.T) {
	store := &stubVoteStore{listFn: func(ctx context.Context) ([]models.VotedUser, error) {
		return []models.VotedUser{{StudentID: "stu-1", FullName: "Asha Verma", Gender: "FEMALE", PackageID: "pkg-1", VotedAt: time.Now().UTC()}}, nil
	}}
	svc := NewVoteService(store, &stubUserReader{}, nil, nil, zap.NewNop(), time.Minute)

	payload, contentType, filename, err := svc.ExportStatistics(context.Background(), "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	assert.Contains(t, filename, ".csv")
	assert.True(t, bytes.Contains(payload, []byte("Asha Verma")))
}

func TestVoteServiceExportRejectsUnknownFormat(t *testing.T) {
	svc := NewVoteService(&stubVoteStore{}, &stubUserReader{}, nil, nil, zap.NewNop(), time.Minute)

	_, _, _, err := svc.ExportStatistics(context.Background(), "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
