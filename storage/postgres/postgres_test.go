package postgres

import (
	"context"
	"testing"
	"time"

	"connectx/apperr"
	"connectx/storage"
	"connectx/types"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var userColumns = []string{"id", "cursor", "created_at", "username", "email", "password", "full_name", "profile_image", "bio", "username_key", "email_key"}

func newMock(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	require.NoError(t, err)

	return New(gdb, nil), mock
}

func TestGetUserByUsernameFound(t *testing.T) {
	p, mock := newMock(t)
	id := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE username_key = `).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(id.String(), 1, time.Now(), "Alice", "alice@x.com", "hash", nil, nil, nil, "alice", "alice@x.com"))

	u, err := p.GetUserByUsername(context.Background(), "ALICE")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, "Alice", u.Username)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByUsernameAbsent(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE username_key = `).
		WillReturnRows(sqlmock.NewRows(userColumns))

	u, err := p.GetUserByUsername(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestGetUserByEmailDuplicateIsInconsistent(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email_key = `).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(uuid.NewString(), 1, time.Now(), "a", "a@x.com", "h", nil, nil, nil, "a", "a@x.com").
			AddRow(uuid.NewString(), 2, time.Now(), "b", "A@x.com", "h", nil, nil, nil, "b", "a@x.com"))

	_, err := p.GetUserByEmail(context.Background(), "a@x.com")

	var ice *apperr.InternalConsistencyError
	require.ErrorAs(t, err, &ice)
}

func TestCreateUserMapsUniqueViolation(t *testing.T) {
	cases := []struct {
		constraint string
		want       string
	}{
		{"idx_users_username_key", apperr.ConstraintUniqueUsername},
		{"idx_users_email_key", apperr.ConstraintUniqueEmail},
	}

	for _, c := range cases {
		t.Run(c.constraint, func(t *testing.T) {
			p, mock := newMock(t)

			mock.ExpectBegin()
			mock.ExpectQuery(`INSERT INTO "users"`).
				WillReturnError(&pgconn.PgError{Code: uniqueViolation, ConstraintName: c.constraint})
			mock.ExpectRollback()

			_, err := p.CreateUser(context.Background(), newUserInput())

			var cv *apperr.ConstraintViolation
			require.ErrorAs(t, err, &cv)
			assert.Equal(t, c.want, cv.Constraint)
		})
	}
}

func newUserInput() types.NewUser {
	return types.NewUser{
		Username: "alice",
		Email:    "alice@x.com",
		Password: "hash",
	}
}

var postColumns = []string{"id", "cursor", "created_at", "user_id", "image_url", "caption"}

func expectExists(mock sqlmock.Sqlmock, table string, n int) {
	mock.ExpectQuery(`SELECT count\(\*\) FROM "` + table + `" WHERE id = `).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(n))
}

func expectLock(mock sqlmock.Sqlmock) {
	mock.ExpectExec(`SELECT pg_advisory_xact_lock\(hashtext\(`).
		WillReturnResult(sqlmock.NewResult(0, 0))
}

func userRow(rows *sqlmock.Rows, id uuid.UUID, username string) *sqlmock.Rows {
	return rows.AddRow(id.String(), 1, time.Now(), username, username+"@x.com", "hash", nil, nil, nil, username, username+"@x.com")
}

func TestGetPostsGroupsCountsAndJoinsAuthors(t *testing.T) {
	p, mock := newMock(t)

	alice := uuid.New()
	older, newer := uuid.New(), uuid.New()
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "posts" ORDER BY created_at DESC, cursor DESC`).
		WillReturnRows(sqlmock.NewRows(postColumns).
			AddRow(newer.String(), 2, t0.Add(time.Minute), alice.String(), "https://img.example.com/2.png", nil).
			AddRow(older.String(), 1, t0, alice.String(), "https://img.example.com/1.png", "first"))
	mock.ExpectQuery(`SELECT post_id, count\(\*\) AS n FROM "likes" GROUP BY "post_id"`).
		WillReturnRows(sqlmock.NewRows([]string{"post_id", "n"}).AddRow(older.String(), 3))
	mock.ExpectQuery(`SELECT post_id, count\(\*\) AS n FROM "comments" GROUP BY "post_id"`).
		WillReturnRows(sqlmock.NewRows([]string{"post_id", "n"}).AddRow(older.String(), 2).AddRow(newer.String(), 1))
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id IN `).
		WillReturnRows(userRow(sqlmock.NewRows(userColumns), alice, "alice"))
	mock.ExpectCommit()

	feed, err := p.GetPosts(context.Background(), storage.FeedOptions{})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, feed, 2)
	assert.Equal(t, newer, feed[0].ID)
	assert.Equal(t, int64(0), feed[0].LikeCount)
	assert.Equal(t, int64(1), feed[0].CommentCount)
	assert.Equal(t, older, feed[1].ID)
	assert.Equal(t, int64(3), feed[1].LikeCount)
	assert.Equal(t, int64(2), feed[1].CommentCount)
	assert.Equal(t, "alice", feed[1].User.Username)
	assert.Nil(t, feed[1].LikedByViewer)
}

func TestGetPostsMissingAuthorIsInconsistent(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "posts"`).
		WillReturnRows(sqlmock.NewRows(postColumns).
			AddRow(uuid.NewString(), 1, time.Now(), uuid.NewString(), "https://img.example.com/1.png", nil))
	mock.ExpectQuery(`FROM "likes" GROUP BY "post_id"`).
		WillReturnRows(sqlmock.NewRows([]string{"post_id", "n"}))
	mock.ExpectQuery(`FROM "comments" GROUP BY "post_id"`).
		WillReturnRows(sqlmock.NewRows([]string{"post_id", "n"}))
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id IN `).
		WillReturnRows(sqlmock.NewRows(userColumns))
	mock.ExpectCommit()

	_, err := p.GetPosts(context.Background(), storage.FeedOptions{})

	var ice *apperr.InternalConsistencyError
	require.ErrorAs(t, err, &ice)
	assert.Equal(t, "post", ice.Entity)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleLikeRemovesExisting(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectBegin()
	expectLock(mock)
	expectExists(mock, "users", 1)
	expectExists(mock, "posts", 1)
	mock.ExpectExec(`DELETE FROM "likes" WHERE user_id = .* AND post_id = `).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	liked, err := p.ToggleLike(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.False(t, liked)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleLikeInsertsWhenAbsent(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectBegin()
	expectLock(mock)
	expectExists(mock, "users", 1)
	expectExists(mock, "posts", 1)
	mock.ExpectExec(`DELETE FROM "likes"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`INSERT INTO "likes"`).
		WillReturnRows(sqlmock.NewRows([]string{"cursor"}).AddRow(7))
	mock.ExpectCommit()

	liked, err := p.ToggleLike(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.True(t, liked)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleLikeUniqueViolation(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectBegin()
	expectLock(mock)
	expectExists(mock, "users", 1)
	expectExists(mock, "posts", 1)
	mock.ExpectExec(`DELETE FROM "likes"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`INSERT INTO "likes"`).
		WillReturnError(&pgconn.PgError{Code: uniqueViolation, ConstraintName: "idx_like_user_post"})
	mock.ExpectRollback()

	_, err := p.ToggleLike(context.Background(), uuid.New(), uuid.New())

	var cv *apperr.ConstraintViolation
	require.ErrorAs(t, err, &cv)
	assert.Equal(t, apperr.ConstraintUniqueLike, cv.Constraint)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleFollowLocksThenInserts(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectBegin()
	expectLock(mock)
	expectExists(mock, "users", 1)
	expectExists(mock, "users", 1)
	mock.ExpectExec(`DELETE FROM "follows" WHERE follower_id = .* AND following_id = `).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`INSERT INTO "follows"`).
		WillReturnRows(sqlmock.NewRows([]string{"cursor"}).AddRow(3))
	mock.ExpectCommit()

	following, err := p.ToggleFollow(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.True(t, following)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateFollowUniqueViolation(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectBegin()
	expectExists(mock, "users", 1)
	expectExists(mock, "users", 1)
	mock.ExpectQuery(`INSERT INTO "follows"`).
		WillReturnError(&pgconn.PgError{Code: uniqueViolation, ConstraintName: "idx_follow_pair"})
	mock.ExpectRollback()

	_, err := p.CreateFollow(context.Background(), uuid.New(), uuid.New())

	var cv *apperr.ConstraintViolation
	require.ErrorAs(t, err, &cv)
	assert.Equal(t, apperr.ConstraintUniqueFollow, cv.Constraint)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateFollowRejectsSelf(t *testing.T) {
	p, mock := newMock(t)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := p.CreateFollow(context.Background(), id, id)

	var cv *apperr.ConstraintViolation
	require.ErrorAs(t, err, &cv)
	assert.Equal(t, apperr.ConstraintSelfFollow, cv.Constraint)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMissingPostIsNotFound(t *testing.T) {
	cases := map[string]func(p *Postgres) error{
		"comment": func(p *Postgres) error {
			_, err := p.CreateComment(context.Background(), types.NewComment{UserID: uuid.New(), PostID: uuid.New(), Content: "nice!"})
			return err
		},
		"like": func(p *Postgres) error {
			_, err := p.CreateLike(context.Background(), uuid.New(), uuid.New())
			return err
		},
	}

	for name, call := range cases {
		t.Run(name, func(t *testing.T) {
			p, mock := newMock(t)

			mock.ExpectBegin()
			expectExists(mock, "users", 1)
			expectExists(mock, "posts", 0)
			mock.ExpectRollback()

			err := call(p)
			require.ErrorIs(t, err, apperr.ErrNotFound)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
