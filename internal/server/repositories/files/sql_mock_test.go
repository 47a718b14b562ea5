package files

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/clipvault/internal/common"
	"github.com/dmitrijs2005/clipvault/internal/dbx"
	"github.com/dmitrijs2005/clipvault/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*SQLRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewSQLRepository(db, dbx.DialectPostgres), mock, db
}

var recordColumns = []string{"id", "owner_id", "folder_name", "logical_name", "storage_key", "title", "size_bytes", "status", "created_at"}

func TestInsert_RebindsAndScansID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	q := `(?s)^\s*INSERT\s+INTO\s+file_records\b.*VALUES\s*\(\$1, \$2, \$3, \$4, \$5, \$6, \$7, \$8\)\s*RETURNING id$`
	mock.ExpectQuery(q).
		WithArgs("42", "alice", "clip1", "alice/clip1.mp4", "Sunset", int64(10), "committed", created).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	rec := &models.FileRecord{
		OwnerID: "42", FolderName: "alice", LogicalName: "clip1",
		StorageKey: "alice/clip1.mp4", Title: "Sunset", SizeBytes: 10, CreatedAt: created,
	}
	require.NoError(t, repo.Insert(context.Background(), rec))
	assert.Equal(t, int64(7), rec.ID)
	assert.Equal(t, models.StatusCommitted, rec.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_UniqueViolationIsNameTaken(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO file_records`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Insert(context.Background(), &models.FileRecord{FolderName: "alice", LogicalName: "clip1"})
	require.ErrorIs(t, err, common.ErrNameTaken)
}

func TestInsert_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO file_records`).
		WillReturnError(errors.New("db down"))

	err := repo.Insert(context.Background(), &models.FileRecord{FolderName: "alice", LogicalName: "clip1"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
	assert.NotErrorIs(t, err, common.ErrNameTaken)
}

func TestGet_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM file_records\s+WHERE folder_name = \$1 AND logical_name = \$2`).
		WithArgs("alice", "nope").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "alice", "nope")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestListByOwner_QueryErr(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM file_records\s+WHERE owner_id = \$1 AND status = \$2`).
		WithArgs("42", "committed").
		WillReturnError(errors.New("db err"))

	_, err := repo.ListByOwner(context.Background(), "42")
	if err == nil || !regexp.MustCompile(`failed to select files: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped select error, got %v", err)
	}
}

func TestListByOwner_ScanErr(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows(recordColumns).
		AddRow("not-int", "42", "alice", "clip1", "alice/clip1.mp4", "", int64(1), "committed", time.Now())
	mock.ExpectQuery(`SELECT .* FROM file_records`).WillReturnRows(rows)

	_, err := repo.ListByOwner(context.Background(), "42")
	require.Error(t, err)
}

func TestListExpired_RowsErr(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows(recordColumns).
		AddRow(int64(1), "42", "alice", "a", "alice/a.mp4", "", int64(1), "committed", now).
		AddRow(int64(2), "42", "alice", "b", "alice/b.mp4", "", int64(1), "committed", now).
		RowError(1, errors.New("row-err"))
	mock.ExpectQuery(`SELECT .* FROM file_records\s+WHERE status = \$1 AND created_at < \$2`).
		WillReturnRows(rows)

	_, err := repo.ListExpired(context.Background(), now)
	if err == nil || err.Error() != "row-err" {
		t.Fatalf("expected rows.Err 'row-err', got %v", err)
	}
}

func TestMarkPendingDelete_RowsAffected(t *testing.T) {
	tests := []struct {
		name    string
		result  sql.Result
		wantErr string
		notFnd  bool
	}{
		{name: "ok", result: sqlmock.NewResult(0, 1)},
		{name: "missing", result: sqlmock.NewResult(0, 0), notFnd: true},
		{name: "many", result: sqlmock.NewResult(0, 2), wantErr: `unexpected rows affected: 2`},
		{name: "rows err", result: sqlmock.NewErrorResult(errors.New("rows-err")), wantErr: `rows affected error: .*rows-err`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, db := newRepoWithMock(t)
			defer db.Close()

			mock.ExpectExec(`UPDATE file_records SET status = \$1 WHERE id = \$2`).
				WithArgs("pending_delete", int64(5)).
				WillReturnResult(tt.result)

			err := repo.MarkPendingDelete(context.Background(), 5)
			switch {
			case tt.notFnd:
				require.ErrorIs(t, err, common.ErrorNotFound)
			case tt.wantErr != "":
				require.Error(t, err)
				assert.Regexp(t, tt.wantErr, err.Error())
			default:
				require.NoError(t, err)
			}
		})
	}
}

func TestDelete_DBErr(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM file_records WHERE id = \$1`).
		WithArgs(int64(3)).
		WillReturnError(errors.New("db err"))

	err := repo.Delete(context.Background(), 3)
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestCountCommitted_DBErr(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM file_records WHERE owner_id = \$1 AND status = \$2`).
		WithArgs("42", "committed").
		WillReturnError(errors.New("db err"))

	_, err := repo.CountCommitted(context.Background(), "42")
	require.Error(t, err)
}
