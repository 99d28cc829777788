package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"library-service/internal/domain/user"
)

func setupUserRepo(t *testing.T) *UserRepoPG {
	db := setupTestDB(t)
	return NewUserRepoPG(db, zaptest.NewLogger(t))
}

func TestUserRepoPG_CreateAndGet(t *testing.T) {
	repo := setupUserRepo(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, &user.User{
		Username:     "jdoe",
		Email:        "jdoe@example.com",
		PasswordHash: "hash",
		FirstName:    "John",
		LastName:     "Doe",
	})
	require.NoError(t, err)
	require.NotZero(t, id)

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "jdoe", got.Username)
	assert.Equal(t, "John Doe", got.FullName())
}

func TestUserRepoPG_Create_NilUser(t *testing.T) {
	repo := setupUserRepo(t)

	_, err := repo.Create(context.Background(), nil)
	assert.Error(t, err)
}

func TestUserRepoPG_GetByUsername(t *testing.T) {
	repo := setupUserRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, &user.User{
		Username:     "jdoe",
		Email:        "jdoe@example.com",
		PasswordHash: "hash",
	})
	require.NoError(t, err)

	got, err := repo.GetByUsername(ctx, "jdoe")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "jdoe@example.com", got.Email)

	missing, err := repo.GetByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserRepoPG_GetByEmail(t *testing.T) {
	repo := setupUserRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, &user.User{
		Username:     "jdoe",
		Email:        "jdoe@example.com",
		PasswordHash: "hash",
	})
	require.NoError(t, err)

	got, err := repo.GetByEmail(ctx, "jdoe@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "jdoe", got.Username)

	missing, err := repo.GetByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserRepoPG_UniqueConstraints(t *testing.T) {
	repo := setupUserRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, &user.User{
		Username:     "jdoe",
		Email:        "jdoe@example.com",
		PasswordHash: "hash",
	})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &user.User{
		Username:     "jdoe",
		Email:        "other@example.com",
		PasswordHash: "hash",
	})
	assert.Error(t, err)

	_, err = repo.Create(ctx, &user.User{
		Username:     "other",
		Email:        "jdoe@example.com",
		PasswordHash: "hash",
	})
	assert.Error(t, err)
}
