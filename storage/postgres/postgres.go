// Package postgres is the persistent storage engine, backed by gorm.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"connectx/apperr"
	"connectx/storage"
	"connectx/types"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var _ storage.Storage = (*Postgres)(nil)

const uniqueViolation = "23505"

type Postgres struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open connects to the database and migrates the entity tables
func Open(dsn string, logger *zap.Logger) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	p := New(db, logger)
	if err := p.Migrate(); err != nil {
		return nil, err
	}

	return p, nil
}

// New wraps an existing gorm handle without migrating
func New(db *gorm.DB, logger *zap.Logger) *Postgres {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Postgres{db: db, logger: logger}
}

func (p *Postgres) Migrate() error {
	for _, model := range []any{&types.User{}, &types.Post{}, &types.Like{}, &types.Comment{}, &types.Follow{}} {
		if err := p.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}
	return nil
}

func (p *Postgres) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (p *Postgres) conn(ctx context.Context) *gorm.DB {
	return p.db.WithContext(ctx)
}

func newBase() types.BaseModel {
	return types.BaseModel{ID: uuid.New(), CreatedAt: time.Now().UTC()}
}

// take runs a single row query and turns "no rows" into (nil, nil)
func take[T any](q *gorm.DB) (*T, error) {
	var row T
	err := q.Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func constraintName(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return pgErr.ConstraintName, true
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return "", true
	}
	return "", false
}

// Users ----------------------------------------------------------------------

func (p *Postgres) GetUser(ctx context.Context, id uuid.UUID) (*types.User, error) {
	return take[types.User](p.conn(ctx).Where("id = ?", id))
}

func (p *Postgres) GetUserByUsername(ctx context.Context, username string) (*types.User, error) {
	return p.userByKey(ctx, "username_key", username)
}

func (p *Postgres) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	return p.userByKey(ctx, "email_key", email)
}

func (p *Postgres) userByKey(ctx context.Context, column, value string) (*types.User, error) {
	var users []types.User

	err := p.conn(ctx).Where(column+" = ?", strings.ToLower(value)).Limit(2).Find(&users).Error
	if err != nil {
		return nil, err
	}

	switch len(users) {
	case 0:
		return nil, nil
	case 1:
		return &users[0], nil
	}

	p.logger.Error("[postgres/userByKey] Unique key matched more than one user", zap.String("column", column), zap.String("value", value))
	return nil, apperr.Inconsistent("user", value, column+" matched more than one user")
}

func (p *Postgres) CreateUser(ctx context.Context, nu types.NewUser) (*types.User, error) {
	u := types.User{
		BaseModel:    newBase(),
		Username:     nu.Username,
		Email:        nu.Email,
		Password:     nu.Password,
		FullName:     nu.FullName,
		ProfileImage: nu.ProfileImage,
		Bio:          nu.Bio,
		UsernameKey:  strings.ToLower(nu.Username),
		EmailKey:     strings.ToLower(nu.Email),
	}

	err := p.conn(ctx).Create(&u).Error
	if name, dup := constraintName(err); dup {
		if strings.Contains(name, "email") {
			return nil, apperr.Conflict(apperr.ConstraintUniqueEmail, "email is already registered")
		}
		return nil, apperr.Conflict(apperr.ConstraintUniqueUsername, "username is already taken")
	}
	if err != nil {
		return nil, err
	}

	return &u, nil
}

func exists(tx *gorm.DB, model any, id uuid.UUID) (bool, error) {
	var n int64
	if err := tx.Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// Posts ----------------------------------------------------------------------

func (p *Postgres) GetPostById(ctx context.Context, id uuid.UUID) (*types.Post, error) {
	return take[types.Post](p.conn(ctx).Where("id = ?", id))
}

func (p *Postgres) CreatePost(ctx context.Context, np types.NewPost) (*types.Post, error) {
	post := types.Post{
		BaseModel: newBase(),
		UserID:    np.UserID,
		ImageURL:  np.ImageURL,
		Caption:   np.Caption,
	}

	err := p.conn(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := exists(tx, &types.User{}, np.UserID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.NotFound("user")
		}
		return tx.Create(&post).Error
	})
	if err != nil {
		return nil, err
	}

	return &post, nil
}

func (p *Postgres) CountPostsByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := p.conn(ctx).Model(&types.Post{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

type postCount struct {
	PostID uuid.UUID
	N      int64
}

// GetPosts reads posts, then one GROUP BY pass each over likes and comments
// and one batched author lookup, all inside a single read-only snapshot.
func (p *Postgres) GetPosts(ctx context.Context, opts storage.FeedOptions) ([]types.FeedPost, error) {
	var parts storage.FeedParts

	err := p.conn(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&types.Post{})
		if opts.AuthorID != nil {
			q = q.Where("user_id = ?", *opts.AuthorID)
		}
		if opts.PostID != nil {
			q = q.Where("id = ?", *opts.PostID)
		}
		if err := q.Order("created_at DESC, cursor DESC").Find(&parts.Posts).Error; err != nil {
			return err
		}

		if len(parts.Posts) == 0 {
			return nil
		}

		filtered := opts.AuthorID != nil || opts.PostID != nil
		postIDs := make([]uuid.UUID, 0, len(parts.Posts))
		authorSet := make(map[uuid.UUID]struct{})
		for _, post := range parts.Posts {
			postIDs = append(postIDs, post.ID)
			authorSet[post.UserID] = struct{}{}
		}

		var err error
		if parts.LikeCounts, err = groupCounts(tx, &types.Like{}, postIDs, filtered); err != nil {
			return err
		}
		if parts.CommentCounts, err = groupCounts(tx, &types.Comment{}, postIDs, filtered); err != nil {
			return err
		}

		if opts.ViewerID != nil {
			var liked []uuid.UUID
			err := tx.Model(&types.Like{}).
				Where("user_id = ? AND post_id IN ?", *opts.ViewerID, postIDs).
				Pluck("post_id", &liked).Error
			if err != nil {
				return err
			}

			parts.LikedByViewer = make(map[uuid.UUID]bool, len(liked))
			for _, id := range liked {
				parts.LikedByViewer[id] = true
			}
		}

		authorIDs := make([]uuid.UUID, 0, len(authorSet))
		for id := range authorSet {
			authorIDs = append(authorIDs, id)
		}

		parts.Authors, err = usersByID(tx, authorIDs)
		return err
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, err
	}

	feed, err := storage.AssembleFeed(parts)
	if err != nil {
		p.logger.Error("[postgres/GetPosts] Feed join failed", zap.Error(err))
		return nil, err
	}
	return feed, nil
}

func groupCounts(tx *gorm.DB, model any, postIDs []uuid.UUID, filtered bool) (map[uuid.UUID]int64, error) {
	var rows []postCount

	q := tx.Model(model).Select("post_id, count(*) AS n")
	if filtered {
		q = q.Where("post_id IN ?", postIDs)
	}
	if err := q.Group("post_id").Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[uuid.UUID]int64, len(rows))
	for _, r := range rows {
		counts[r.PostID] = r.N
	}
	return counts, nil
}

func usersByID(tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]*types.User, error) {
	out := make(map[uuid.UUID]*types.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var users []types.User
	if err := tx.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}

	for i := range users {
		out[users[i].ID] = &users[i]
	}
	return out, nil
}

// Likes ----------------------------------------------------------------------

func (p *Postgres) GetLike(ctx context.Context, userID, postID uuid.UUID) (*types.Like, error) {
	return take[types.Like](p.conn(ctx).Where("user_id = ? AND post_id = ?", userID, postID))
}

func (p *Postgres) CreateLike(ctx context.Context, userID, postID uuid.UUID) (*types.Like, error) {
	var like *types.Like

	err := p.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkPostRefs(tx, userID, postID); err != nil {
			return err
		}

		var err error
		like, err = insertLike(tx, userID, postID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return like, nil
}

func (p *Postgres) RemoveLike(ctx context.Context, userID, postID uuid.UUID) error {
	return p.conn(ctx).Where("user_id = ? AND post_id = ?", userID, postID).Delete(&types.Like{}).Error
}

// ToggleLike serializes toggles on one pair with a transaction scoped
// advisory lock, then deletes if present or inserts if absent.
func (p *Postgres) ToggleLike(ctx context.Context, userID, postID uuid.UUID) (bool, error) {
	var liked bool

	err := p.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockPair(tx, "like", userID, postID); err != nil {
			return err
		}
		if err := checkPostRefs(tx, userID, postID); err != nil {
			return err
		}

		res := tx.Where("user_id = ? AND post_id = ?", userID, postID).Delete(&types.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			liked = false
			return nil
		}

		if _, err := insertLike(tx, userID, postID); err != nil {
			return err
		}
		liked = true
		return nil
	})
	if err != nil {
		return false, err
	}

	return liked, nil
}

func lockPair(tx *gorm.DB, kind string, a, b uuid.UUID) error {
	return tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", kind+":"+a.String()+":"+b.String()).Error
}

func checkPostRefs(tx *gorm.DB, userID, postID uuid.UUID) error {
	ok, err := exists(tx, &types.User{}, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("user")
	}

	ok, err = exists(tx, &types.Post{}, postID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("post")
	}
	return nil
}

func insertLike(tx *gorm.DB, userID, postID uuid.UUID) (*types.Like, error) {
	like := types.Like{BaseModel: newBase(), UserID: userID, PostID: postID}

	err := tx.Create(&like).Error
	if _, dup := constraintName(err); dup {
		return nil, apperr.Conflict(apperr.ConstraintUniqueLike, "post is already liked by this user")
	}
	if err != nil {
		return nil, err
	}
	return &like, nil
}

// Comments -------------------------------------------------------------------

func (p *Postgres) GetCommentsByPostId(ctx context.Context, postID uuid.UUID) ([]types.CommentWithUser, error) {
	var comments []types.Comment
	var authors map[uuid.UUID]*types.User

	err := p.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", postID).Order("created_at DESC, cursor DESC").Find(&comments).Error; err != nil {
			return err
		}

		ids := make([]uuid.UUID, 0, len(comments))
		seen := make(map[uuid.UUID]struct{})
		for _, c := range comments {
			if _, ok := seen[c.UserID]; !ok {
				seen[c.UserID] = struct{}{}
				ids = append(ids, c.UserID)
			}
		}

		var err error
		authors, err = usersByID(tx, ids)
		return err
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, err
	}

	out, err := storage.AssembleComments(comments, authors)
	if err != nil {
		p.logger.Error("[postgres/GetCommentsByPostId] Comment join failed", zap.Error(err))
		return nil, err
	}
	return out, nil
}

func (p *Postgres) CreateComment(ctx context.Context, nc types.NewComment) (*types.Comment, error) {
	c := types.Comment{
		BaseModel: newBase(),
		UserID:    nc.UserID,
		PostID:    nc.PostID,
		Content:   nc.Content,
	}

	err := p.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkPostRefs(tx, nc.UserID, nc.PostID); err != nil {
			return err
		}
		return tx.Create(&c).Error
	})
	if err != nil {
		return nil, err
	}

	return &c, nil
}

// Follows --------------------------------------------------------------------

func (p *Postgres) GetFollow(ctx context.Context, followerID, followingID uuid.UUID) (*types.Follow, error) {
	return take[types.Follow](p.conn(ctx).Where("follower_id = ? AND following_id = ?", followerID, followingID))
}

func (p *Postgres) CreateFollow(ctx context.Context, followerID, followingID uuid.UUID) (*types.Follow, error) {
	var f *types.Follow

	err := p.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkFollowRefs(tx, followerID, followingID); err != nil {
			return err
		}

		var err error
		f, err = insertFollow(tx, followerID, followingID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return f, nil
}

func (p *Postgres) RemoveFollow(ctx context.Context, followerID, followingID uuid.UUID) error {
	return p.conn(ctx).Where("follower_id = ? AND following_id = ?", followerID, followingID).Delete(&types.Follow{}).Error
}

// ToggleFollow locks the pair the same way ToggleLike does
func (p *Postgres) ToggleFollow(ctx context.Context, followerID, followingID uuid.UUID) (bool, error) {
	var following bool

	err := p.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockPair(tx, "follow", followerID, followingID); err != nil {
			return err
		}
		if err := checkFollowRefs(tx, followerID, followingID); err != nil {
			return err
		}

		res := tx.Where("follower_id = ? AND following_id = ?", followerID, followingID).Delete(&types.Follow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			following = false
			return nil
		}

		if _, err := insertFollow(tx, followerID, followingID); err != nil {
			return err
		}
		following = true
		return nil
	})
	if err != nil {
		return false, err
	}

	return following, nil
}

func (p *Postgres) CountFollowers(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := p.conn(ctx).Model(&types.Follow{}).Where("following_id = ?", userID).Count(&n).Error
	return n, err
}

func (p *Postgres) CountFollowing(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := p.conn(ctx).Model(&types.Follow{}).Where("follower_id = ?", userID).Count(&n).Error
	return n, err
}

func checkFollowRefs(tx *gorm.DB, followerID, followingID uuid.UUID) error {
	if followerID == followingID {
		return apperr.Conflict(apperr.ConstraintSelfFollow, "users cannot follow themselves")
	}

	for _, id := range []uuid.UUID{followerID, followingID} {
		ok, err := exists(tx, &types.User{}, id)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.NotFound("user")
		}
	}
	return nil
}

func insertFollow(tx *gorm.DB, followerID, followingID uuid.UUID) (*types.Follow, error) {
	f := types.Follow{BaseModel: newBase(), FollowerID: followerID, FollowingID: followingID}

	err := tx.Create(&f).Error
	if _, dup := constraintName(err); dup {
		return nil, apperr.Conflict(apperr.ConstraintUniqueFollow, "user is already followed")
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}
