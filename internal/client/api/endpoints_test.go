package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dbarkov/feedline/internal/client/models"
	"github.com/dbarkov/feedline/internal/filex"
)

func TestLogin_DecodesAuthResult(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/login", r.URL.Path)

		var req LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "anna@example.com", req.Identifier)
		require.Equal(t, "s3cret", req.Secret)

		_ = json.NewEncoder(w).Encode(AuthResult{Token: "abc", Scheme: "Bearer"})
	})

	res, err := g.Login(context.Background(), "anna@example.com", "s3cret")
	require.NoError(t, err)
	require.Equal(t, "abc", res.Token)
	require.Equal(t, "Bearer", res.Scheme)
}

func TestRegister_SendsMultipartPayloadAndImage(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/register", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		var req RegisterRequest
		require.NoError(t, json.Unmarshal([]byte(r.FormValue("payload")), &req))
		require.Equal(t, "anna", req.Handle)

		f, hdr, err := r.FormFile("image")
		require.NoError(t, err)
		defer func() { _ = f.Close() }()
		require.Equal(t, "avatar.png", hdr.Filename)
		data, err := io.ReadAll(f)
		require.NoError(t, err)
		require.Equal(t, []byte{1, 2, 3}, data)

		_ = json.NewEncoder(w).Encode(AuthResult{Token: "t", Scheme: "Bearer"})
	})

	img := &filex.Attachment{Name: "avatar.png", Data: []byte{1, 2, 3}}
	res, err := g.Register(context.Background(), RegisterRequest{Name: "Anna", Handle: "anna", Secret: "pw"}, img)
	require.NoError(t, err)
	require.Equal(t, "t", res.Token)
}

func TestRegister_ImageIsOptional(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, _, err := r.FormFile("image")
		require.Error(t, err)
		_ = json.NewEncoder(w).Encode(AuthResult{Token: "t", Scheme: "Bearer"})
	})

	_, err := g.Register(context.Background(), RegisterRequest{Handle: "anna"}, nil)
	require.NoError(t, err)
}

func TestFeedPage_SendsCursorParams(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/feed", r.URL.Path)
		require.Equal(t, "2", r.URL.Query().Get("page"))
		require.Equal(t, "10", r.URL.Query().Get("size"))
		_ = json.NewEncoder(w).Encode(Page[models.Post]{
			Content: []models.Post{{ID: "p1"}, {ID: "p2"}},
			Last:    true,
		})
	})

	page, err := g.FeedPage(context.Background(), 2, 10)
	require.NoError(t, err)
	require.Len(t, page.Content, 2)
	require.True(t, page.Last)
}

func TestSearchUsers_CombinesQueryAndCursor(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users/search", r.URL.Path)
		require.Equal(t, "anna smith", r.URL.Query().Get("q"))
		require.Equal(t, "0", r.URL.Query().Get("page"))
		_ = json.NewEncoder(w).Encode(Page[models.User]{Content: []models.User{{ID: "u1"}}, Last: false})
	})

	page, err := g.SearchUsers(context.Background(), "anna smith", 0, 20)
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	require.False(t, page.Last)
}

func TestSavePost_DecodesPartialPatch(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/posts/p1/save", r.URL.Path)
		_, _ = w.Write([]byte(`{"saved_by_me": true}`))
	})

	patch, err := g.SavePost(context.Background(), "p1")
	require.NoError(t, err)
	require.NotNil(t, patch.SavedByMe)
	require.True(t, *patch.SavedByMe)
	require.Nil(t, patch.LikeCount)
	require.Nil(t, patch.LikedByMe)
}

func TestLikePost_StatusOnly(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/posts/p1/like", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, g.LikePost(context.Background(), "p1"))
}
