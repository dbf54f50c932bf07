package api

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/dbarkov/feedline/internal/client/models"
	"github.com/dbarkov/feedline/internal/filex"
)

// Page is the API's pagination envelope: one page of records plus the
// is-last-page signal.
type Page[T any] struct {
	Content []T  `json:"content"`
	Last    bool `json:"last"`
}

func fetchPage[T any](ctx context.Context, g *Gateway, path string, page, size int) (Page[T], error) {
	var p Page[T]
	q := url.Values{}
	q.Set("page", fmt.Sprint(page))
	q.Set("size", fmt.Sprint(size))
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	err := g.getJSON(ctx, path+sep+q.Encode(), &p)
	return p, err
}

// FeedPage fetches one page of the home feed, newest first.
func (g *Gateway) FeedPage(ctx context.Context, page, size int) (Page[models.Post], error) {
	return fetchPage[models.Post](ctx, g, "/feed", page, size)
}

// GroupPostsPage fetches one page of a group's post list.
func (g *Gateway) GroupPostsPage(ctx context.Context, groupID string, page, size int) (Page[models.Post], error) {
	return fetchPage[models.Post](ctx, g, "/groups/"+url.PathEscape(groupID)+"/posts", page, size)
}

// StoriesPage fetches one page of active stories.
func (g *Gateway) StoriesPage(ctx context.Context, page, size int) (Page[models.Story], error) {
	return fetchPage[models.Story](ctx, g, "/stories", page, size)
}

// NotificationsPage fetches one page of the activity log.
func (g *Gateway) NotificationsPage(ctx context.Context, page, size int) (Page[models.Notification], error) {
	return fetchPage[models.Notification](ctx, g, "/notifications", page, size)
}

// FollowersPage fetches one page of userID's followers.
func (g *Gateway) FollowersPage(ctx context.Context, userID string, page, size int) (Page[models.Follower], error) {
	return fetchPage[models.Follower](ctx, g, "/users/"+url.PathEscape(userID)+"/followers", page, size)
}

// CreatePostRequest is the scalar part of the post-creation form.
type CreatePostRequest struct {
	Content string `json:"content"`
	GroupID string `json:"group_id,omitempty"`
}

// CreatePost submits a new post with optional media attachments and returns
// the server's representation (id, timestamps and counters are
// server-assigned; the caller must not trust a locally constructed echo).
func (g *Gateway) CreatePost(ctx context.Context, req CreatePostRequest, media []*filex.Attachment) (models.Post, error) {
	var p models.Post
	files := make([]filePart, 0, len(media))
	for _, m := range media {
		files = append(files, filePart{field: "media", attachment: m})
	}
	err := g.postMultipart(ctx, "/posts", req, files, &p)
	return p, err
}

// LikePost records a like (or unlike, the endpoint toggles) for the post.
// The response is status-only.
func (g *Gateway) LikePost(ctx context.Context, postID string) error {
	return g.postJSON(ctx, "/posts/"+url.PathEscape(postID)+"/like", nil, nil)
}

// PostPatch is the partial post returned by mutation endpoints. Nil fields
// were not included in the response and must leave local state untouched.
type PostPatch struct {
	LikeCount    *int  `json:"like_count,omitempty"`
	CommentCount *int  `json:"comment_count,omitempty"`
	LikedByMe    *bool `json:"liked_by_me,omitempty"`
	SavedByMe    *bool `json:"saved_by_me,omitempty"`
}

// SavePost bookmarks the post for the session owner and returns the fields
// the server chose to update.
func (g *Gateway) SavePost(ctx context.Context, postID string) (PostPatch, error) {
	var patch PostPatch
	err := g.postJSON(ctx, "/posts/"+url.PathEscape(postID)+"/save", nil, &patch)
	return patch, err
}
