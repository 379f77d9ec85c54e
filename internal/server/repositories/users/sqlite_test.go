package users

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dmitrijs2005/schoolauth/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE students (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE,
  hashed_password TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'Student'
);
CREATE TABLE teachers (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE,
  hashed_password TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'Teacher'
);
INSERT INTO students (name, hashed_password) VALUES ('alice', 'hash-a'), ('carol', 'hash-c');
INSERT INTO teachers (name, hashed_password) VALUES ('bob', 'hash-b'), ('alice', 'hash-ta');
`)
	require.NoError(t, err)

	return db
}

func TestSQLite_FindByUsername(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	got, err := r.FindByUsername(ctx, models.RoleStudent, "alice")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "alice", got[0].UserName)
	assert.Equal(t, "hash-a", got[0].HashedPassword)
	assert.Equal(t, models.RoleStudent, got[0].Role)
	assert.NotEmpty(t, got[0].ID)

	got, err = r.FindByUsername(ctx, models.RoleTeacher, "alice")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "hash-ta", got[0].HashedPassword)
	assert.Equal(t, models.RoleTeacher, got[0].Role)
}

func TestSQLite_FindByUsername_NoMatch(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)

	got, err := r.FindByUsername(context.Background(), models.RoleTeacher, "carol")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLite_FindByUsername_ExactMatchOnly(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)

	got, err := r.FindByUsername(context.Background(), models.RoleStudent, "alic%")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLite_FindByUsername_ClosedDB(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	require.NoError(t, db.Close())

	_, err := r.FindByUsername(context.Background(), models.RoleStudent, "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error")
}
