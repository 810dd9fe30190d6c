package repository

import (
	"context"
	"testing"

	"campusfind/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestUserRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	t.Run("Create", func(t *testing.T) {
		user := &models.User{
			StudentID: "20230100",
			Password:  "hashed",
			Nickname:  "campuscat",
			Email:     "cat@campus.test",
		}
		err := repo.Create(ctx, user)
		assert.NoError(t, err)
		assert.NotZero(t, user.ID)
	})

	t.Run("Lookups", func(t *testing.T) {
		byStudent, err := repo.GetByStudentID(ctx, "20230100")
		assert.NoError(t, err)
		assert.NotNil(t, byStudent)
		assert.Equal(t, "campuscat", byStudent.Nickname)

		byNickname, err := repo.GetByNickname(ctx, "campuscat")
		assert.NoError(t, err)
		assert.NotNil(t, byNickname)

		byEmail, err := repo.GetByEmail(ctx, "cat@campus.test")
		assert.NoError(t, err)
		assert.NotNil(t, byEmail)

		byID, err := repo.GetByID(ctx, byStudent.ID)
		assert.NoError(t, err)
		assert.Equal(t, byStudent.ID, byID.ID)
	})

	t.Run("MissingReturnsNilNil", func(t *testing.T) {
		user, err := repo.GetByStudentID(ctx, "99999999")
		assert.NoError(t, err)
		assert.Nil(t, user)

		user, err = repo.GetByNickname(ctx, "nobody")
		assert.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("DuplicateStudentIDRejected", func(t *testing.T) {
		dup := &models.User{
			StudentID: "20230100",
			Password:  "hashed",
			Nickname:  "othercat",
			Email:     "other@campus.test",
		}
		err := repo.Create(ctx, dup)
		assert.Error(t, err)
	})

	t.Run("Update", func(t *testing.T) {
		user, _ := repo.GetByStudentID(ctx, "20230100")
		user.Nickname = "renamedcat"
		err := repo.Update(ctx, user)
		assert.NoError(t, err)

		fetched, _ := repo.GetByID(ctx, user.ID)
		assert.Equal(t, "renamedcat", fetched.Nickname)
	})
}
