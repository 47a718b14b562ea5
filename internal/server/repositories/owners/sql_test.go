package owners

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/clipvault/internal/common"
	"github.com/dmitrijs2005/clipvault/internal/dbx"
	"github.com/dmitrijs2005/clipvault/internal/server/models"
	"github.com/dmitrijs2005/clipvault/internal/server/repositories/repotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLite_CreateGetUpdate(t *testing.T) {
	r := NewSQLRepository(repotest.NewSQLite(t), dbx.DialectSQLite)
	ctx := context.Background()

	_, err := r.Get(ctx, "42")
	require.ErrorIs(t, err, common.ErrorNotFound)

	p := &models.OwnerProfile{OwnerID: "42", FolderName: "alice", UploadLimit: 5}
	require.NoError(t, r.Create(ctx, p))
	assert.False(t, p.CreatedAt.IsZero())

	require.ErrorIs(t, r.Create(ctx, &models.OwnerProfile{OwnerID: "42", FolderName: "x"}), common.ErrorAlreadyExists)

	require.NoError(t, r.UpdateLimit(ctx, "42", 0))
	require.NoError(t, r.UpdateFolder(ctx, "42", "alice2"))

	got, err := r.Get(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, "alice2", got.FolderName)
	assert.Equal(t, 0, got.UploadLimit)
	assert.True(t, got.Unlimited())

	require.ErrorIs(t, r.UpdateLimit(ctx, "nobody", 3), common.ErrorNotFound)
	require.ErrorIs(t, r.UpdateFolder(ctx, "nobody", "x"), common.ErrorNotFound)
}

func TestGet_DBError(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT owner_id, folder_name, upload_limit, created_at, updated_at\s+FROM owner_profiles WHERE owner_id = \$1`).
		WithArgs("42").
		WillReturnError(errors.New("db down"))

	_, err = NewSQLRepository(db, dbx.DialectPostgres).Get(context.Background(), "42")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	assert.NotErrorIs(t, err, common.ErrorNotFound)
}

func TestUpdateLimit_RowsAffectedErr(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE owner_profiles SET upload_limit = \$1, updated_at = \$2 WHERE owner_id = \$3`).
		WillReturnResult(sqlmock.NewErrorResult(errors.New("rows-err")))

	err = NewSQLRepository(db, dbx.DialectPostgres).UpdateLimit(context.Background(), "42", 3)
	require.Error(t, err)
	assert.Regexp(t, `rows affected error: .*rows-err`, err.Error())
}

func TestCreate_DBError(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO owner_profiles`).WillReturnError(errors.New("boom"))

	err = NewSQLRepository(db, dbx.DialectPostgres).Create(context.Background(), &models.OwnerProfile{OwnerID: "42"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrorAlreadyExists)
}
