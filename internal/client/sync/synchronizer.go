// Package sync maintains the client's in-memory collections (feed, stories,
// notifications, per-group post lists, followers), each with a pagination
// cursor, an in-flight guard and dedup-by-id merge semantics, plus optimistic
// like mutation with pending-record bookkeeping.
//
// The Synchronizer exclusively owns collection state; nothing else mutates
// it directly.
package sync

import (
	"context"
	"fmt"
	stdsync "sync"
	"time"

	"github.com/google/uuid"

	"github.com/dbarkov/feedline/internal/client/api"
	"github.com/dbarkov/feedline/internal/client/models"
	"github.com/dbarkov/feedline/internal/common"
	"github.com/dbarkov/feedline/internal/filex"
	"github.com/dbarkov/feedline/internal/logging"
)

// Key names a managed collection.
type Key string

const (
	KeyFeed          Key = "feed"
	KeyStories       Key = "stories"
	KeyNotifications Key = "notifications"
	KeyGroupPosts    Key = "group_posts" // contextID = group id
	KeyFollowers     Key = "followers"   // contextID = user id
)

const defaultPageSize = 20

// confirmTimeout bounds the background confirmation of an optimistic like.
const confirmTimeout = 15 * time.Second

// API is the slice of the gateway the synchronizer depends on.
type API interface {
	FeedPage(ctx context.Context, page, size int) (api.Page[models.Post], error)
	GroupPostsPage(ctx context.Context, groupID string, page, size int) (api.Page[models.Post], error)
	StoriesPage(ctx context.Context, page, size int) (api.Page[models.Story], error)
	NotificationsPage(ctx context.Context, page, size int) (api.Page[models.Notification], error)
	FollowersPage(ctx context.Context, userID string, page, size int) (api.Page[models.Follower], error)

	CreatePost(ctx context.Context, req api.CreatePostRequest, media []*filex.Attachment) (models.Post, error)
	LikePost(ctx context.Context, postID string) error
	SavePost(ctx context.Context, postID string) (api.PostPatch, error)

	JoinGroup(ctx context.Context, groupID string) (models.Group, error)
	LeaveGroup(ctx context.Context, groupID string) (models.Group, error)
	InviteToGroup(ctx context.Context, groupID, userID string) error
	UpdateGroup(ctx context.Context, groupID string, req api.UpdateGroupRequest) (models.Group, error)
}

// Synchronizer holds every managed collection. All methods are safe for
// concurrent use; fetches for the same collection are serialized by the
// in-flight guard, fetches for different collections overlap freely.
type Synchronizer struct {
	api      API
	log      logging.Logger
	pageSize int

	feed          *collection[models.Post]
	stories       *collection[models.Story]
	notifications *collection[models.Notification]
	followers     *collection[models.Follower]

	groupMu    stdsync.Mutex
	groupPosts map[string]*collection[models.Post]
	groups     map[string]models.Group

	mutMu     stdsync.Mutex
	mutations []Mutation

	confirmWG stdsync.WaitGroup

	// onAuthDenied runs when any call fails authorization. The session
	// manager hooks in here so a revoked credential tears the whole
	// session down, not just the one call.
	onAuthDenied func()
}

// NewSynchronizer wires a Synchronizer. pageSize <= 0 selects the default.
func NewSynchronizer(a API, pageSize int, log logging.Logger) *Synchronizer {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Synchronizer{
		api:      a,
		log:      log,
		pageSize: pageSize,

		feed:          newCollection[models.Post](pageSize, true),
		stories:       newCollection[models.Story](pageSize, true),
		notifications: newCollection[models.Notification](pageSize, true),
		followers:     newCollection[models.Follower](pageSize, false),

		groupPosts: make(map[string]*collection[models.Post]),
		groups:     make(map[string]models.Group),
	}
}

// OnAuthDenied registers fn to run whenever a call fails authorization.
// Must be called before the synchronizer is shared between goroutines.
func (s *Synchronizer) OnAuthDenied(fn func()) {
	s.onAuthDenied = fn
}

// checkAuth fires the teardown hook on authorization-denied failures.
// Called with no internal locks held.
func (s *Synchronizer) checkAuth(err error) {
	if err != nil && api.IsAuthError(err) && s.onAuthDenied != nil {
		s.onAuthDenied()
	}
}

// LoadNextPage fetches the next page of the keyed collection and merges it.
// contextID carries the group id for KeyGroupPosts and the user id for
// KeyFollowers; other keys ignore it.
//
// A call while a fetch for the same collection is outstanding returns
// ErrFetchInProgress and issues no request. A failed fetch leaves existing
// items untouched and clears the guard so the caller may retry.
func (s *Synchronizer) LoadNextPage(ctx context.Context, key Key, contextID string) error {
	switch key {
	case KeyFeed:
		return loadPage(ctx, s, key, s.feed, s.api.FeedPage)
	case KeyStories:
		return loadPage(ctx, s, key, s.stories, s.api.StoriesPage)
	case KeyNotifications:
		return loadPage(ctx, s, key, s.notifications, s.api.NotificationsPage)
	case KeyFollowers:
		return loadPage(ctx, s, key, s.followers, func(ctx context.Context, page, size int) (api.Page[models.Follower], error) {
			return s.api.FollowersPage(ctx, contextID, page, size)
		})
	case KeyGroupPosts:
		return loadPage(ctx, s, key, s.groupPostsFor(contextID), func(ctx context.Context, page, size int) (api.Page[models.Post], error) {
			return s.api.GroupPostsPage(ctx, contextID, page, size)
		})
	default:
		return fmt.Errorf("%w: %s", common.ErrUnknownCollection, key)
	}
}

func loadPage[T Item](ctx context.Context, s *Synchronizer, key Key, c *collection[T], fetch func(ctx context.Context, page, size int) (api.Page[T], error)) error {
	page, gen, proceed, err := c.beginFetch()
	if err != nil {
		s.log.Debug(ctx, "page load skipped", "collection", key, "reason", err)
		return err
	}
	if !proceed {
		// exhausted until the next reset
		return nil
	}

	resp, err := fetch(ctx, page, s.pageSize)
	if err != nil {
		c.endFetch()
		s.checkAuth(err)
		return fmt.Errorf("load %s page %d: %w", key, page, err)
	}

	if !c.applyPage(gen, resp.Content, resp.Last) {
		s.log.Debug(ctx, "stale page discarded", "collection", key, "page", page)
		return nil
	}

	s.log.Debug(ctx, "page merged", "collection", key, "page", page, "count", len(resp.Content), "last", resp.Last)
	return nil
}

// ResetCollection empties the keyed collection and its cursor, and bumps its
// generation so any in-flight response for it is discarded. Used when the
// owning identity changes so stale data is never shown under a new identity.
func (s *Synchronizer) ResetCollection(key Key, contextID string) {
	switch key {
	case KeyFeed:
		s.feed.reset()
	case KeyStories:
		s.stories.reset()
	case KeyNotifications:
		s.notifications.reset()
	case KeyFollowers:
		s.followers.reset()
	case KeyGroupPosts:
		s.groupPostsFor(contextID).reset()
	}
}

// ResetAll drops every collection, the known-group projections and the
// mutation log. The session manager calls this on identity change.
func (s *Synchronizer) ResetAll() {
	s.feed.reset()
	s.stories.reset()
	s.notifications.reset()
	s.followers.reset()

	s.groupMu.Lock()
	s.groupPosts = make(map[string]*collection[models.Post])
	s.groups = make(map[string]models.Group)
	s.groupMu.Unlock()

	s.mutMu.Lock()
	s.mutations = nil
	s.mutMu.Unlock()
}

// CreatePost submits a new post (multipart: scalar payload plus optional
// media). On success the feed is reloaded from page zero so server-assigned
// fields (id, timestamps, counters) come back authoritative instead of
// trusting a locally constructed object.
func (s *Synchronizer) CreatePost(ctx context.Context, req api.CreatePostRequest, media []*filex.Attachment) (models.Post, error) {
	post, err := s.api.CreatePost(ctx, req, media)
	if err != nil {
		s.checkAuth(err)
		return models.Post{}, fmt.Errorf("create post: %w", err)
	}

	if req.GroupID != "" {
		s.ResetCollection(KeyGroupPosts, req.GroupID)
		if err := s.LoadNextPage(ctx, KeyGroupPosts, req.GroupID); err != nil {
			s.log.Warn(ctx, "post created but reload failed", "group", req.GroupID, "err", err)
		}
		return post, nil
	}

	s.ResetCollection(KeyFeed, "")
	if err := s.LoadNextPage(ctx, KeyFeed, ""); err != nil {
		s.log.Warn(ctx, "post created but feed reload failed", "err", err)
	}
	return post, nil
}

// ToggleLike flips LikedByMe and adjusts LikeCount by one on the matching
// item, locally and immediately; no server round-trip happens on this path.
// A pending-mutation record is appended and confirmed best-effort in the
// background; a failed confirmation marks the record Failed but is neither
// retried nor rolled back; a later full reload reconciles any drift.
func (s *Synchronizer) ToggleLike(itemID string) error {
	flip := func(p *models.Post) {
		p.LikedByMe = !p.LikedByMe
		if p.LikedByMe {
			p.LikeCount++
		} else {
			p.LikeCount--
		}
	}

	found := s.feed.update(itemID, flip)
	s.groupMu.Lock()
	for _, c := range s.groupPosts {
		if c.update(itemID, flip) {
			found = true
		}
	}
	s.groupMu.Unlock()

	if !found {
		return fmt.Errorf("%w: %s", common.ErrItemNotFound, itemID)
	}

	m := Mutation{ID: uuid.NewString(), Kind: "like", ItemID: itemID, State: MutationPending}
	s.mutMu.Lock()
	s.mutations = append(s.mutations, m)
	s.mutMu.Unlock()

	s.confirmWG.Add(1)
	go s.confirmLike(m.ID, itemID)
	return nil
}

func (s *Synchronizer) confirmLike(mutationID, itemID string) {
	defer s.confirmWG.Done()

	ctx, cancel := context.WithTimeout(context.Background(), confirmTimeout)
	defer cancel()

	err := s.api.LikePost(ctx, itemID)
	s.checkAuth(err)

	s.mutMu.Lock()
	defer s.mutMu.Unlock()
	for i := range s.mutations {
		if s.mutations[i].ID != mutationID {
			continue
		}
		if err != nil {
			s.mutations[i].State = MutationFailed
			s.mutations[i].Err = err.Error()
		} else {
			s.mutations[i].State = MutationConfirmed
		}
		return
	}
}

// SavePost bookmarks the item on the server and merges the returned partial
// fields into the matching local item. Unlike ToggleLike it does not mutate
// local state before the call: saves are low-frequency and the asymmetry is
// part of the contract, not an accident.
func (s *Synchronizer) SavePost(ctx context.Context, itemID string) (bool, error) {
	patch, err := s.api.SavePost(ctx, itemID)
	if err != nil {
		s.checkAuth(err)
		return false, fmt.Errorf("save post: %w", err)
	}

	apply := func(p *models.Post) {
		if patch.LikeCount != nil {
			p.LikeCount = *patch.LikeCount
		}
		if patch.CommentCount != nil {
			p.CommentCount = *patch.CommentCount
		}
		if patch.LikedByMe != nil {
			p.LikedByMe = *patch.LikedByMe
		}
		if patch.SavedByMe != nil {
			p.SavedByMe = *patch.SavedByMe
		}
	}

	s.feed.update(itemID, apply)
	s.groupMu.Lock()
	for _, c := range s.groupPosts {
		c.update(itemID, apply)
	}
	s.groupMu.Unlock()
	return true, nil
}

// JoinGroup joins the group; the returned object wholesale replaces the
// local projection. No optimism: membership changes are low-frequency,
// higher-consequence actions.
func (s *Synchronizer) JoinGroup(ctx context.Context, groupID string) (models.Group, error) {
	grp, err := s.api.JoinGroup(ctx, groupID)
	if err != nil {
		s.checkAuth(err)
		return models.Group{}, fmt.Errorf("join group: %w", err)
	}
	s.storeGroup(grp)
	return grp, nil
}

// LeaveGroup leaves the group, call-and-replace like JoinGroup.
func (s *Synchronizer) LeaveGroup(ctx context.Context, groupID string) (models.Group, error) {
	grp, err := s.api.LeaveGroup(ctx, groupID)
	if err != nil {
		s.checkAuth(err)
		return models.Group{}, fmt.Errorf("leave group: %w", err)
	}
	s.storeGroup(grp)
	return grp, nil
}

// InviteToGroup invites userID; fire-and-request, result trusted as
// returned.
func (s *Synchronizer) InviteToGroup(ctx context.Context, groupID, userID string) error {
	if err := s.api.InviteToGroup(ctx, groupID, userID); err != nil {
		s.checkAuth(err)
		return fmt.Errorf("invite to group: %w", err)
	}
	return nil
}

// UpdateGroup edits the group; the server's object replaces the local one.
func (s *Synchronizer) UpdateGroup(ctx context.Context, groupID string, req api.UpdateGroupRequest) (models.Group, error) {
	grp, err := s.api.UpdateGroup(ctx, groupID, req)
	if err != nil {
		s.checkAuth(err)
		return models.Group{}, fmt.Errorf("update group: %w", err)
	}
	s.storeGroup(grp)
	return grp, nil
}

// FetchFollowers reloads userID's follower list from page zero, wholesale
// replacing local state.
func (s *Synchronizer) FetchFollowers(ctx context.Context, userID string) ([]models.Follower, error) {
	resp, err := s.api.FollowersPage(ctx, userID, 0, s.pageSize)
	if err != nil {
		s.checkAuth(err)
		return nil, fmt.Errorf("fetch followers: %w", err)
	}
	s.followers.replaceAll(resp.Content, resp.Last)
	return s.followers.snapshot(), nil
}

// ---- accessors (copies; callers never see internal slices) ----

func (s *Synchronizer) Feed() []models.Post { return s.feed.snapshot() }

func (s *Synchronizer) Stories() []models.Story { return s.stories.snapshot() }

func (s *Synchronizer) Notifications() []models.Notification { return s.notifications.snapshot() }

func (s *Synchronizer) Followers() []models.Follower { return s.followers.snapshot() }

func (s *Synchronizer) GroupPosts(groupID string) []models.Post {
	return s.groupPostsFor(groupID).snapshot()
}

// Group returns the last server-returned projection of the group, if any.
func (s *Synchronizer) Group(groupID string) (models.Group, bool) {
	s.groupMu.Lock()
	defer s.groupMu.Unlock()
	g, ok := s.groups[groupID]
	return g, ok
}

// Cursor returns the keyed collection's pagination position.
func (s *Synchronizer) Cursor(key Key, contextID string) Cursor {
	switch key {
	case KeyFeed:
		return s.feed.cursorCopy()
	case KeyStories:
		return s.stories.cursorCopy()
	case KeyNotifications:
		return s.notifications.cursorCopy()
	case KeyFollowers:
		return s.followers.cursorCopy()
	case KeyGroupPosts:
		return s.groupPostsFor(contextID).cursorCopy()
	default:
		return Cursor{}
	}
}

// Mutations returns a copy of the optimistic-mutation log.
func (s *Synchronizer) Mutations() []Mutation {
	s.mutMu.Lock()
	defer s.mutMu.Unlock()
	out := make([]Mutation, len(s.mutations))
	copy(out, s.mutations)
	return out
}

func (s *Synchronizer) groupPostsFor(groupID string) *collection[models.Post] {
	s.groupMu.Lock()
	defer s.groupMu.Unlock()
	c, ok := s.groupPosts[groupID]
	if !ok {
		c = newCollection[models.Post](s.pageSize, false)
		s.groupPosts[groupID] = c
	}
	return c
}

func (s *Synchronizer) storeGroup(g models.Group) {
	s.groupMu.Lock()
	s.groups[g.ID] = g
	s.groupMu.Unlock()
}
