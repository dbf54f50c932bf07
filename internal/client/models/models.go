// Package models defines the client-side data models shared by the session
// manager, the collection synchronizer, and the search dispatcher.
//
// JSON tags match the wire shapes of the FeedLine API; each endpoint decodes
// into one of these types at the boundary and fails fast on a mismatch.
package models

import "time"

// User is the profile of an authenticated or looked-up account.
type User struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Handle    string  `json:"handle"`
	Bio       string  `json:"bio,omitempty"`
	AvatarURL string  `json:"avatar_url,omitempty"`
	Hobby     string  `json:"hobby,omitempty"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`

	// Counters are server-computed; the client never adjusts them locally.
	FollowerCount  int `json:"follower_count"`
	FollowingCount int `json:"following_count"`
	PostCount      int `json:"post_count"`
}

// Post is one feed item. Unique by ID within any collection.
//
// LikeCount and LikedByMe move together: an optimistic like toggles the flag
// and adjusts the count by one before (or without) server confirmation.
type Post struct {
	ID           string    `json:"id"`
	AuthorID     string    `json:"author_id"`
	Content      string    `json:"content"`
	MediaURLs    []string  `json:"media_urls,omitempty"`
	LikeCount    int       `json:"like_count"`
	CommentCount int       `json:"comment_count"`
	LikedByMe    bool      `json:"liked_by_me"`
	SavedByMe    bool      `json:"saved_by_me"`
	CreatedAt    time.Time `json:"created_at"`
}

// Key implements the collection identity used for dedup merges.
func (p Post) Key() string { return p.ID }

// Story is a short-lived media item.
type Story struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	MediaURL  string    `json:"media_url"`
	Caption   string    `json:"caption,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s Story) Key() string { return s.ID }

// Notification is a read-mostly activity record.
type Notification struct {
	ID        string    `json:"id"`
	ActorID   string    `json:"actor_id"`
	Kind      string    `json:"kind"`
	SubjectID string    `json:"subject_id,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

func (n Notification) Key() string { return n.ID }

// Group is a read-mostly projection; membership changes go through the API
// and the returned object is trusted as-is, with no local prediction.
type Group struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	OwnerID     string `json:"owner_id"`
	MemberCount int    `json:"member_count"`
	Member      bool   `json:"member"`
}

func (g Group) Key() string { return g.ID }

// Follower is one entry of a user's follower list.
type Follower struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Handle      string `json:"handle"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	FollowsBack bool   `json:"follows_back"`
}

func (f Follower) Key() string { return f.ID }
