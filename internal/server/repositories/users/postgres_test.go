package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/schoolauth/internal/server/models"
)

const (
	studentsQuery = `(?s)^SELECT\s+id,\s*name,\s*hashed_password,\s*role\s+FROM\s+students\s+WHERE\s+name\s*=\s*\$1\s+ORDER\s+BY\s+id\s*$`
	teachersQuery = `(?s)^SELECT\s+id,\s*name,\s*hashed_password,\s*role\s+FROM\s+teachers\s+WHERE\s+name\s*=\s*\$1\s+ORDER\s+BY\s+id\s*$`
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestFindByUsername_Student(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "name", "hashed_password", "role"}).
		AddRow("1", "alice", "$2a$10$hash", "Student")
	mock.ExpectQuery(studentsQuery).WithArgs("alice").WillReturnRows(rows)

	got, err := repo.FindByUsername(context.Background(), models.RoleStudent, "alice")
	if err != nil {
		t.Fatalf("FindByUsername error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("want 1 user, got %d", len(got))
	}
	if got[0].ID != "1" || got[0].UserName != "alice" || got[0].Role != models.RoleStudent || got[0].HashedPassword != "$2a$10$hash" {
		t.Fatalf("unexpected user: %+v", got[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestFindByUsername_TeacherTable(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "name", "hashed_password", "role"}).
		AddRow("7", "bob", "h", "Teacher")
	mock.ExpectQuery(teachersQuery).WithArgs("bob").WillReturnRows(rows)

	got, err := repo.FindByUsername(context.Background(), models.RoleTeacher, "bob")
	if err != nil {
		t.Fatalf("FindByUsername error: %v", err)
	}
	if len(got) != 1 || got[0].Role != models.RoleTeacher {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestFindByUsername_NoRows(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(studentsQuery).WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "hashed_password", "role"}))

	got, err := repo.FindByUsername(context.Background(), models.RoleStudent, "ghost")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("want empty result, got %+v", got)
	}
}

func TestFindByUsername_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(studentsQuery).WithArgs("alice").WillReturnError(errors.New("db down"))

	_, err := repo.FindByUsername(context.Background(), models.RoleStudent, "alice")
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestFindByUsername_RowError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "name", "hashed_password", "role"}).
		AddRow("1", "alice", "h", "Student").
		RowError(0, errors.New("connection reset"))
	mock.ExpectQuery(studentsQuery).WithArgs("alice").WillReturnRows(rows)

	_, err := repo.FindByUsername(context.Background(), models.RoleStudent, "alice")
	if err == nil || !regexp.MustCompile(`db error: .*connection reset`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped row error, got %v", err)
	}
}

func TestFindByUsername_CorruptRole(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "name", "hashed_password", "role"}).
		AddRow("1", "alice", "h", "Janitor")
	mock.ExpectQuery(studentsQuery).WithArgs("alice").WillReturnRows(rows)

	if _, err := repo.FindByUsername(context.Background(), models.RoleStudent, "alice"); err == nil {
		t.Fatal("expected error for unknown role value")
	}
}

func TestFindByUsername_UnknownRole(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	if _, err := repo.FindByUsername(context.Background(), models.Role("Admin"), "alice"); err == nil {
		t.Fatal("expected error for unknown role")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no query expected: %v", err)
	}
}
