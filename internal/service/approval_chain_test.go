package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/room-booking-api/internal/models"
	appErrors "github.com/noah-isme/room-booking-api/pkg/errors"
)

type brokenDirectory struct {
	memoryDirectory
	err error
}

func (b *brokenDirectory) FindLecturerByName(ctx context.Context, name string) (*models.User, error) {
	return nil, b.err
}

// looseDirectory returns whoever carries the name, regardless of role.
type looseDirectory struct {
	memoryDirectory
}

func (l *looseDirectory) FindLecturerByName(ctx context.Context, name string) (*models.User, error) {
	for _, u := range l.sorted() {
		if u.FullName == name {
			return u, nil
		}
	}
	return nil, errors.New("unreachable")
}

func chainUsers() map[string]*models.User {
	return map[string]*models.User{
		"u-student": newUser("u-student", "Ayu Lestari", "dep-if", "2022", models.RoleStudent),
		"u-rep":     newUser("u-rep", "Rudi Hartono", "dep-if", "2022", models.RoleClassRep),
		"u-lec":     newUser("u-lec", "Dr. Budi Santoso", "dep-if", "", models.RoleLecturer),
		"u-head":    newUser("u-head", "Dr. Sari Wulandari", "dep-if", "", models.RoleDeptHead),
	}
}

func TestChainBuilderOrder(t *testing.T) {
	users := chainUsers()
	builder := NewApprovalChainBuilder(&memoryDirectory{users: users})

	chain, err := builder.Build(context.Background(), ChainRequest{
		Category:          models.BookingCategorySubstituteHour,
		Requester:         users["u-student"],
		SubstituteSubject: "Basis Data",
		TeachingLecturer:  "Dr. Budi Santoso",
	})
	require.NoError(t, err)
	assert.Equal(t, []models.ChainEntry{
		{ApproverID: "u-rep", Role: models.RoleClassRep},
		{ApproverID: "u-lec", Role: models.RoleLecturer},
		{ApproverID: "u-head", Role: models.RoleDeptHead},
	}, chain)
}

func TestChainBuilderSurfacesDirectoryFailure(t *testing.T) {
	users := chainUsers()
	builder := NewApprovalChainBuilder(&brokenDirectory{memoryDirectory: memoryDirectory{users: users}, err: errors.New("pq: timeout")})

	_, err := builder.Build(context.Background(), ChainRequest{
		Category:          models.BookingCategorySubstituteHour,
		Requester:         users["u-student"],
		SubstituteSubject: "Basis Data",
		TeachingLecturer:  "Dr. Budi Santoso",
	})
	assert.Equal(t, appErrors.ErrInternal.Code, codeOf(err))
}

func TestChainBuilderRechecksLecturerRole(t *testing.T) {
	users := chainUsers()
	builder := NewApprovalChainBuilder(&looseDirectory{memoryDirectory: memoryDirectory{users: users}})

	_, err := builder.Build(context.Background(), ChainRequest{
		Category:          models.BookingCategorySubstituteHour,
		Requester:         users["u-student"],
		SubstituteSubject: "Basis Data",
		TeachingLecturer:  "Rudi Hartono",
	})
	assert.True(t, errors.Is(err, appErrors.ErrApproverNotFound))
}

func TestChainBuilderRequiresRequester(t *testing.T) {
	builder := NewApprovalChainBuilder(&memoryDirectory{users: chainUsers()})
	_, err := builder.Build(context.Background(), ChainRequest{Category: models.BookingCategoryOther})
	assert.Equal(t, appErrors.ErrValidation.Code, codeOf(err))
}

func TestChainBuilderMatchesLecturerNameExactly(t *testing.T) {
	users := chainUsers()
	builder := NewApprovalChainBuilder(&memoryDirectory{users: users})

	for _, name := range []string{" Dr. Budi Santoso", "Dr. Budi Santoso ", "dr. budi santoso"} {
		_, err := builder.Build(context.Background(), ChainRequest{
			Category:          models.BookingCategorySubstituteHour,
			Requester:         users["u-student"],
			SubstituteSubject: "Basis Data",
			TeachingLecturer:  name,
		})
		assert.Equal(t, appErrors.ErrApproverNotFound.Code, codeOf(err), name)
	}
}
