//go:build integration

package postgres

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/oa-labs/group-assessment-service/internal/apperrors"
	"github.com/oa-labs/group-assessment-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestGroup(t *testing.T, students ...string) *domain.GroupWithMembers {
	t.Helper()

	repo := NewGroupRepository(testDB, logger)
	ctx := context.Background()

	group, err := repo.CreateGroupWithMember(ctx, studentItem(students[0]), students[0], students[0]+"@example.com")
	require.NoError(t, err)

	for _, s := range students[1:] {
		group, err = repo.AddMemberToOpenGroup(ctx, studentItem(s), s, s+"@example.com", len(students))
		require.NoError(t, err)
	}

	return group
}

func createTestProject(t *testing.T, group *domain.GroupWithMembers) *domain.GroupProject {
	t.Helper()

	repo := NewProjectRepository(testDB, logger)
	project := &domain.GroupProject{
		UUID:      uuid.NewString(),
		GroupUUID: group.Group.UUID,
		ItemID:    "item-1",
		CourseID:  "course-1",
	}
	require.NoError(t, repo.CreateProject(context.Background(), project))

	return project
}

func TestProjectRepository_CreateProject(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	truncateTables(t, testDB)
	repo := NewProjectRepository(testDB, logger)
	ctx := context.Background()

	group := createTestGroup(t, "stu-1", "stu-2")
	project := createTestProject(t, group)

	assert.NotZero(t, project.ID)

	duplicate := &domain.GroupProject{
		UUID:      uuid.NewString(),
		GroupUUID: group.Group.UUID,
		ItemID:    "item-1",
		CourseID:  "course-1",
	}
	err := repo.CreateProject(ctx, duplicate)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrProjectExists)
}

func TestProjectRepository_AddPart_And_RepresentativeSubmission(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	truncateTables(t, testDB)
	repo := NewProjectRepository(testDB, logger)
	ctx := context.Background()

	group := createTestGroup(t, "stu-1", "stu-2")
	project := createTestProject(t, group)

	tx, err := testDB.Beginx()
	require.NoError(t, err)

	locked, err := repo.GetProjectWithLock(ctx, tx, group.Group.UUID, "item-1", "course-1")
	require.NoError(t, err)
	assert.Nil(t, locked.RepSubmissionUUID)

	part := &domain.ProjectPart{
		ProjectID:      locked.ID,
		StudentID:      "stu-1",
		SubmissionUUID: uuid.NewString(),
		OrderNum:       0,
	}
	require.NoError(t, repo.AddPart(ctx, tx, part))
	require.NoError(t, repo.SetRepresentativeSubmission(ctx, tx, locked.ID, part.SubmissionUUID))
	require.NoError(t, tx.Commit())

	fetched, err := repo.GetProjectBySubmission(ctx, part.SubmissionUUID)
	require.NoError(t, err)
	assert.Equal(t, project.UUID, fetched.UUID)
	require.NotNil(t, fetched.RepSubmissionUUID)
	assert.Equal(t, part.SubmissionUUID, *fetched.RepSubmissionUUID)

	fetchedPart, err := repo.GetPartBySubmission(ctx, part.SubmissionUUID)
	require.NoError(t, err)
	assert.Equal(t, "stu-1", fetchedPart.StudentID)

	// Second part with the same order number is rejected.
	tx2, err := testDB.Beginx()
	require.NoError(t, err)
	defer tx2.Rollback()

	dup := &domain.ProjectPart{
		ProjectID:      locked.ID,
		StudentID:      "stu-2",
		SubmissionUUID: uuid.NewString(),
		OrderNum:       0,
	}
	err = repo.AddPart(ctx, tx2, dup)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrPartAlreadySubmitted)
}

func TestProjectRepository_SetRepresentativeSubmission_IsSticky(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	truncateTables(t, testDB)
	repo := NewProjectRepository(testDB, logger)
	ctx := context.Background()

	group := createTestGroup(t, "stu-1", "stu-2")
	project := createTestProject(t, group)

	first := uuid.NewString()
	second := uuid.NewString()

	tx, err := testDB.Beginx()
	require.NoError(t, err)
	require.NoError(t, repo.SetRepresentativeSubmission(ctx, tx, project.ID, first))
	require.NoError(t, tx.Commit())

	// The guarded update is a no-op once an anchor exists.
	tx2, err := testDB.Beginx()
	require.NoError(t, err)
	require.NoError(t, repo.SetRepresentativeSubmission(ctx, tx2, project.ID, second))
	require.NoError(t, tx2.Commit())

	fetched, err := repo.GetProjectByGroup(ctx, group.Group.UUID, "item-1", "course-1")
	require.NoError(t, err)
	require.NotNil(t, fetched.RepSubmissionUUID)
	assert.Equal(t, first, *fetched.RepSubmissionUUID)
}

func TestProjectRepository_GetProjectBySubmission_NotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	truncateTables(t, testDB)
	repo := NewProjectRepository(testDB, logger)

	_, err := repo.GetProjectBySubmission(context.Background(), uuid.NewString())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
