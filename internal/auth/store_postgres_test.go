package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresStore_UserPermissions(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"permission"}).
		AddRow("chat").
		AddRow("tools.calculator")
	mock.ExpectQuery("SELECT permission").
		WithArgs("user-1", "api").
		WillReturnRows(rows)

	store := NewPostgresStore(db)
	perms, err := store.UserPermissions(context.Background(), "user-1", "api")

	require.NoError(t, err)
	assert.Equal(t, []string{"chat", "tools.calculator"}, perms)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UnknownUserIsEmptyNotError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT permission").
		WithArgs("nobody", "api").
		WillReturnRows(sqlmock.NewRows([]string{"permission"}))

	store := NewPostgresStore(db)
	perms, err := store.UserPermissions(context.Background(), "nobody", "api")

	require.NoError(t, err)
	assert.Empty(t, perms)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_QueryFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT permission").
		WithArgs("user-1", "api").
		WillReturnError(errors.New("connection refused"))

	store := NewPostgresStore(db)
	_, err = store.UserPermissions(context.Background(), "user-1", "api")

	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
