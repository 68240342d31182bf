package storage

import (
	"sort"

	"connectx/apperr"
	"connectx/types"

	"github.com/google/uuid"
)

// FeedParts is the grouped input of a feed read. Counts are grouped by post id
// in a single pass over the like and comment rows, so assembling the feed is
// O(posts + likes + comments) instead of a rescan per post.
type FeedParts struct {
	Posts         []types.Post
	Authors       map[uuid.UUID]*types.User
	LikeCounts    map[uuid.UUID]int64
	CommentCounts map[uuid.UUID]int64

	// Nil when there is no viewer
	LikedByViewer map[uuid.UUID]bool
}

// AssembleFeed joins posts with their authors and counts, newest first. A post
// whose author cannot be resolved is an internal consistency error.
func AssembleFeed(p FeedParts) ([]types.FeedPost, error) {
	posts := append([]types.Post(nil), p.Posts...)
	SortPostsNewestFirst(posts)

	feed := make([]types.FeedPost, 0, len(posts))
	for i := range posts {
		post := &posts[i]

		author, ok := p.Authors[post.UserID]
		if !ok || author == nil {
			return nil, apperr.Inconsistent("post", post.ID.String(), "author "+post.UserID.String()+" does not exist")
		}

		entry := types.FeedPost{
			ID:           post.ID,
			UserID:       post.UserID,
			ImageURL:     post.ImageURL,
			Caption:      post.Caption,
			CreatedAt:    post.CreatedAt,
			LikeCount:    p.LikeCounts[post.ID],
			CommentCount: p.CommentCounts[post.ID],
			User:         author.Author(),
		}

		if p.LikedByViewer != nil {
			liked := p.LikedByViewer[post.ID]
			entry.LikedByViewer = &liked
		}

		feed = append(feed, entry)
	}

	return feed, nil
}

// AssembleComments joins comments with their authors, newest first
func AssembleComments(comments []types.Comment, authors map[uuid.UUID]*types.User) ([]types.CommentWithUser, error) {
	sorted := append([]types.Comment(nil), comments...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return newer(sorted[i].BaseModel, sorted[j].BaseModel)
	})

	out := make([]types.CommentWithUser, 0, len(sorted))
	for _, c := range sorted {
		author, ok := authors[c.UserID]
		if !ok || author == nil {
			return nil, apperr.Inconsistent("comment", c.ID.String(), "author "+c.UserID.String()+" does not exist")
		}

		out = append(out, types.CommentWithUser{
			ID:        c.ID,
			UserID:    c.UserID,
			PostID:    c.PostID,
			Content:   c.Content,
			CreatedAt: c.CreatedAt,
			User:      author.Author(),
		})
	}

	return out, nil
}

// SortPostsNewestFirst orders by createdAt descending; equal timestamps fall
// back to insertion order, later insert first.
func SortPostsNewestFirst(posts []types.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		return newer(posts[i].BaseModel, posts[j].BaseModel)
	})
}

func newer(a, b types.BaseModel) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.Cursor > b.Cursor
}

// GroupCount counts rows per key in one pass
func GroupCount[T any](rows []T, key func(T) uuid.UUID) map[uuid.UUID]int64 {
	counts := make(map[uuid.UUID]int64)
	for _, r := range rows {
		counts[key(r)]++
	}
	return counts
}
