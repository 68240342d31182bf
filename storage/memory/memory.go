// Package memory is an in-memory storage engine. Each instance is independent;
// construct one at process start and pass it to whatever needs it.
package memory

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"connectx/apperr"
	"connectx/storage"
	"connectx/types"

	"github.com/google/uuid"
)

var _ storage.Storage = (*Memory)(nil)

type pair struct {
	a, b uuid.UUID
}

// Memory keeps one lock per table so a slow feed read never holds a lock that
// an unrelated write needs. Locks are never nested.
type Memory struct {
	cursor atomic.Int64
	now    func() time.Time

	usersMu    sync.RWMutex
	users      map[uuid.UUID]*types.User
	byUsername map[string]uuid.UUID
	byEmail    map[string]uuid.UUID

	postsMu sync.RWMutex
	posts   map[uuid.UUID]*types.Post

	likesMu   sync.RWMutex
	likes     map[uuid.UUID]*types.Like
	likePairs map[pair]uuid.UUID

	commentsMu sync.RWMutex
	comments   map[uuid.UUID]*types.Comment

	followsMu   sync.RWMutex
	follows     map[uuid.UUID]*types.Follow
	followPairs map[pair]uuid.UUID
}

type Option func(*Memory)

// WithClock overrides the creation timestamp source
func WithClock(now func() time.Time) Option {
	return func(m *Memory) {
		m.now = now
	}
}

// New creates an empty store
func New(opts ...Option) *Memory {
	m := &Memory{
		now:         func() time.Time { return time.Now().UTC() },
		users:       make(map[uuid.UUID]*types.User),
		byUsername:  make(map[string]uuid.UUID),
		byEmail:     make(map[string]uuid.UUID),
		posts:       make(map[uuid.UUID]*types.Post),
		likes:       make(map[uuid.UUID]*types.Like),
		likePairs:   make(map[pair]uuid.UUID),
		comments:    make(map[uuid.UUID]*types.Comment),
		follows:     make(map[uuid.UUID]*types.Follow),
		followPairs: make(map[pair]uuid.UUID),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

func (m *Memory) base() types.BaseModel {
	return types.BaseModel{
		ID:        uuid.New(),
		Cursor:    m.cursor.Add(1),
		CreatedAt: m.now(),
	}
}

func (m *Memory) Close() error {
	return nil
}

// Users ----------------------------------------------------------------------

func (m *Memory) GetUser(_ context.Context, id uuid.UUID) (*types.User, error) {
	m.usersMu.RLock()
	defer m.usersMu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	c := *u
	return &c, nil
}

func (m *Memory) GetUserByUsername(_ context.Context, username string) (*types.User, error) {
	return m.userByKey(m.byUsername, "username", username)
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (*types.User, error) {
	return m.userByKey(m.byEmail, "email", email)
}

func (m *Memory) userByKey(index map[string]uuid.UUID, field, value string) (*types.User, error) {
	m.usersMu.RLock()
	defer m.usersMu.RUnlock()

	id, ok := index[strings.ToLower(value)]
	if !ok {
		return nil, nil
	}

	u, ok := m.users[id]
	if !ok {
		return nil, apperr.Inconsistent("user", id.String(), field+" index points at a missing user")
	}
	c := *u
	return &c, nil
}

func (m *Memory) CreateUser(_ context.Context, nu types.NewUser) (*types.User, error) {
	usernameKey := strings.ToLower(nu.Username)
	emailKey := strings.ToLower(nu.Email)

	m.usersMu.Lock()
	defer m.usersMu.Unlock()

	if _, taken := m.byUsername[usernameKey]; taken {
		return nil, apperr.Conflict(apperr.ConstraintUniqueUsername, "username is already taken")
	}
	if _, taken := m.byEmail[emailKey]; taken {
		return nil, apperr.Conflict(apperr.ConstraintUniqueEmail, "email is already registered")
	}

	u := &types.User{
		BaseModel:    m.base(),
		Username:     nu.Username,
		Email:        nu.Email,
		Password:     nu.Password,
		FullName:     nu.FullName,
		ProfileImage: nu.ProfileImage,
		Bio:          nu.Bio,
		UsernameKey:  usernameKey,
		EmailKey:     emailKey,
	}

	m.users[u.ID] = u
	m.byUsername[usernameKey] = u.ID
	m.byEmail[emailKey] = u.ID

	c := *u
	return &c, nil
}

func (m *Memory) userExists(id uuid.UUID) bool {
	m.usersMu.RLock()
	defer m.usersMu.RUnlock()

	_, ok := m.users[id]
	return ok
}

// authors resolves the given user ids; ids that do not resolve are left out
func (m *Memory) authors(ids map[uuid.UUID]struct{}) map[uuid.UUID]*types.User {
	m.usersMu.RLock()
	defer m.usersMu.RUnlock()

	out := make(map[uuid.UUID]*types.User, len(ids))
	for id := range ids {
		if u, ok := m.users[id]; ok {
			c := *u
			out[id] = &c
		}
	}
	return out
}

// Posts ----------------------------------------------------------------------

func (m *Memory) GetPostById(_ context.Context, id uuid.UUID) (*types.Post, error) {
	m.postsMu.RLock()
	defer m.postsMu.RUnlock()

	p, ok := m.posts[id]
	if !ok {
		return nil, nil
	}
	c := *p
	return &c, nil
}

func (m *Memory) CreatePost(_ context.Context, np types.NewPost) (*types.Post, error) {
	if !m.userExists(np.UserID) {
		return nil, apperr.NotFound("user")
	}

	p := &types.Post{
		BaseModel: m.base(),
		UserID:    np.UserID,
		ImageURL:  np.ImageURL,
		Caption:   np.Caption,
	}

	m.postsMu.Lock()
	m.posts[p.ID] = p
	m.postsMu.Unlock()

	c := *p
	return &c, nil
}

func (m *Memory) postExists(id uuid.UUID) bool {
	m.postsMu.RLock()
	defer m.postsMu.RUnlock()

	_, ok := m.posts[id]
	return ok
}

func (m *Memory) CountPostsByUser(_ context.Context, userID uuid.UUID) (int64, error) {
	m.postsMu.RLock()
	defer m.postsMu.RUnlock()

	var n int64
	for _, p := range m.posts {
		if p.UserID == userID {
			n++
		}
	}
	return n, nil
}

// GetPosts snapshots each table under its own read lock, groups like and
// comment rows by post id in one pass each, then joins.
func (m *Memory) GetPosts(_ context.Context, opts storage.FeedOptions) ([]types.FeedPost, error) {
	m.postsMu.RLock()
	posts := make([]types.Post, 0, len(m.posts))
	for _, p := range m.posts {
		if opts.AuthorID != nil && p.UserID != *opts.AuthorID {
			continue
		}
		if opts.PostID != nil && p.ID != *opts.PostID {
			continue
		}
		posts = append(posts, *p)
	}
	m.postsMu.RUnlock()

	wanted := make(map[uuid.UUID]struct{}, len(posts))
	authorIDs := make(map[uuid.UUID]struct{})
	for _, p := range posts {
		wanted[p.ID] = struct{}{}
		authorIDs[p.UserID] = struct{}{}
	}

	likeCounts := make(map[uuid.UUID]int64, len(posts))
	var liked map[uuid.UUID]bool
	if opts.ViewerID != nil {
		liked = make(map[uuid.UUID]bool)
	}

	m.likesMu.RLock()
	for _, l := range m.likes {
		if _, ok := wanted[l.PostID]; !ok {
			continue
		}
		likeCounts[l.PostID]++
		if liked != nil && l.UserID == *opts.ViewerID {
			liked[l.PostID] = true
		}
	}
	m.likesMu.RUnlock()

	commentCounts := make(map[uuid.UUID]int64, len(posts))
	m.commentsMu.RLock()
	for _, c := range m.comments {
		if _, ok := wanted[c.PostID]; ok {
			commentCounts[c.PostID]++
		}
	}
	m.commentsMu.RUnlock()

	return storage.AssembleFeed(storage.FeedParts{
		Posts:         posts,
		Authors:       m.authors(authorIDs),
		LikeCounts:    likeCounts,
		CommentCounts: commentCounts,
		LikedByViewer: liked,
	})
}

// Likes ----------------------------------------------------------------------

func (m *Memory) GetLike(_ context.Context, userID, postID uuid.UUID) (*types.Like, error) {
	m.likesMu.RLock()
	defer m.likesMu.RUnlock()

	id, ok := m.likePairs[pair{userID, postID}]
	if !ok {
		return nil, nil
	}
	c := *m.likes[id]
	return &c, nil
}

func (m *Memory) CreateLike(_ context.Context, userID, postID uuid.UUID) (*types.Like, error) {
	if err := m.checkLikeRefs(userID, postID); err != nil {
		return nil, err
	}

	m.likesMu.Lock()
	defer m.likesMu.Unlock()

	l, err := m.insertLikeLocked(userID, postID)
	if err != nil {
		return nil, err
	}
	c := *l
	return &c, nil
}

func (m *Memory) RemoveLike(_ context.Context, userID, postID uuid.UUID) error {
	m.likesMu.Lock()
	defer m.likesMu.Unlock()

	m.deleteLikeLocked(userID, postID)
	return nil
}

// ToggleLike runs check-then-act under the likes write lock so concurrent
// toggles on one pair form a strict linear history.
func (m *Memory) ToggleLike(_ context.Context, userID, postID uuid.UUID) (bool, error) {
	if err := m.checkLikeRefs(userID, postID); err != nil {
		return false, err
	}

	m.likesMu.Lock()
	defer m.likesMu.Unlock()

	if m.deleteLikeLocked(userID, postID) {
		return false, nil
	}

	if _, err := m.insertLikeLocked(userID, postID); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Memory) checkLikeRefs(userID, postID uuid.UUID) error {
	if !m.userExists(userID) {
		return apperr.NotFound("user")
	}
	if !m.postExists(postID) {
		return apperr.NotFound("post")
	}
	return nil
}

func (m *Memory) insertLikeLocked(userID, postID uuid.UUID) (*types.Like, error) {
	key := pair{userID, postID}
	if _, exists := m.likePairs[key]; exists {
		return nil, apperr.Conflict(apperr.ConstraintUniqueLike, "post is already liked by this user")
	}

	l := &types.Like{BaseModel: m.base(), UserID: userID, PostID: postID}
	m.likes[l.ID] = l
	m.likePairs[key] = l.ID
	return l, nil
}

func (m *Memory) deleteLikeLocked(userID, postID uuid.UUID) bool {
	key := pair{userID, postID}
	id, ok := m.likePairs[key]
	if !ok {
		return false
	}
	delete(m.likePairs, key)
	delete(m.likes, id)
	return true
}

// Comments -------------------------------------------------------------------

func (m *Memory) GetCommentsByPostId(_ context.Context, postID uuid.UUID) ([]types.CommentWithUser, error) {
	m.commentsMu.RLock()
	comments := make([]types.Comment, 0)
	authorIDs := make(map[uuid.UUID]struct{})
	for _, c := range m.comments {
		if c.PostID == postID {
			comments = append(comments, *c)
			authorIDs[c.UserID] = struct{}{}
		}
	}
	m.commentsMu.RUnlock()

	return storage.AssembleComments(comments, m.authors(authorIDs))
}

func (m *Memory) CreateComment(_ context.Context, nc types.NewComment) (*types.Comment, error) {
	if !m.userExists(nc.UserID) {
		return nil, apperr.NotFound("user")
	}
	if !m.postExists(nc.PostID) {
		return nil, apperr.NotFound("post")
	}

	c := &types.Comment{
		BaseModel: m.base(),
		UserID:    nc.UserID,
		PostID:    nc.PostID,
		Content:   nc.Content,
	}

	m.commentsMu.Lock()
	m.comments[c.ID] = c
	m.commentsMu.Unlock()

	cp := *c
	return &cp, nil
}

// Follows --------------------------------------------------------------------

func (m *Memory) GetFollow(_ context.Context, followerID, followingID uuid.UUID) (*types.Follow, error) {
	m.followsMu.RLock()
	defer m.followsMu.RUnlock()

	id, ok := m.followPairs[pair{followerID, followingID}]
	if !ok {
		return nil, nil
	}
	c := *m.follows[id]
	return &c, nil
}

func (m *Memory) CreateFollow(_ context.Context, followerID, followingID uuid.UUID) (*types.Follow, error) {
	if err := m.checkFollowRefs(followerID, followingID); err != nil {
		return nil, err
	}

	m.followsMu.Lock()
	defer m.followsMu.Unlock()

	f, err := m.insertFollowLocked(followerID, followingID)
	if err != nil {
		return nil, err
	}
	c := *f
	return &c, nil
}

func (m *Memory) RemoveFollow(_ context.Context, followerID, followingID uuid.UUID) error {
	m.followsMu.Lock()
	defer m.followsMu.Unlock()

	m.deleteFollowLocked(followerID, followingID)
	return nil
}

func (m *Memory) ToggleFollow(_ context.Context, followerID, followingID uuid.UUID) (bool, error) {
	if err := m.checkFollowRefs(followerID, followingID); err != nil {
		return false, err
	}

	m.followsMu.Lock()
	defer m.followsMu.Unlock()

	if m.deleteFollowLocked(followerID, followingID) {
		return false, nil
	}

	if _, err := m.insertFollowLocked(followerID, followingID); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Memory) CountFollowers(_ context.Context, userID uuid.UUID) (int64, error) {
	m.followsMu.RLock()
	defer m.followsMu.RUnlock()

	var n int64
	for _, f := range m.follows {
		if f.FollowingID == userID {
			n++
		}
	}
	return n, nil
}

func (m *Memory) CountFollowing(_ context.Context, userID uuid.UUID) (int64, error) {
	m.followsMu.RLock()
	defer m.followsMu.RUnlock()

	var n int64
	for _, f := range m.follows {
		if f.FollowerID == userID {
			n++
		}
	}
	return n, nil
}

func (m *Memory) checkFollowRefs(followerID, followingID uuid.UUID) error {
	if followerID == followingID {
		return apperr.Conflict(apperr.ConstraintSelfFollow, "users cannot follow themselves")
	}
	if !m.userExists(followerID) || !m.userExists(followingID) {
		return apperr.NotFound("user")
	}
	return nil
}

func (m *Memory) insertFollowLocked(followerID, followingID uuid.UUID) (*types.Follow, error) {
	key := pair{followerID, followingID}
	if _, exists := m.followPairs[key]; exists {
		return nil, apperr.Conflict(apperr.ConstraintUniqueFollow, "user is already followed")
	}

	f := &types.Follow{BaseModel: m.base(), FollowerID: followerID, FollowingID: followingID}
	m.follows[f.ID] = f
	m.followPairs[key] = f.ID
	return f, nil
}

func (m *Memory) deleteFollowLocked(followerID, followingID uuid.UUID) bool {
	key := pair{followerID, followingID}
	id, ok := m.followPairs[key]
	if !ok {
		return false
	}
	delete(m.followPairs, key)
	delete(m.follows, id)
	return true
}
