package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dbarkov/feedline/internal/client/api"
	"github.com/dbarkov/feedline/internal/client/sync"
	"github.com/dbarkov/feedline/internal/common"
)

func (a *App) Feed(ctx context.Context) {
	if !a.requireAuth() {
		return
	}
	err := a.sync.LoadNextPage(ctx, sync.KeyFeed, "")
	if err != nil {
		if errors.Is(err, common.ErrFetchInProgress) {
			fmt.Println("already loading")
			return
		}
		fmt.Printf("feed: %s\n", message(err))
		return
	}

	for _, p := range a.sync.Feed() {
		liked := " "
		if p.LikedByMe {
			liked = "*"
		}
		fmt.Printf("[%s] %s%d likes, %d comments: %s\n", p.ID, liked, p.LikeCount, p.CommentCount, p.Content)
	}

	cur := a.sync.Cursor(sync.KeyFeed, "")
	if !cur.HasMore {
		fmt.Println("(end of feed)")
	}
}

func (a *App) Like(args []string) {
	if !a.requireAuth() {
		return
	}
	if len(args) != 1 {
		fmt.Println("usage: like <post-id>")
		return
	}
	if err := a.sync.ToggleLike(args[0]); err != nil {
		fmt.Printf("like: %s\n", message(err))
	}
}

func (a *App) Save(ctx context.Context, args []string) {
	if !a.requireAuth() {
		return
	}
	if len(args) != 1 {
		fmt.Println("usage: save <post-id>")
		return
	}
	if _, err := a.sync.SavePost(ctx, args[0]); err != nil {
		fmt.Printf("save: %s\n", message(err))
		return
	}
	fmt.Println("saved")
}

func (a *App) Post(ctx context.Context) {
	if !a.requireAuth() {
		return
	}
	content, err := GetMultiline(a.reader, "Compose your post", os.Stdout)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	if content == "" {
		fmt.Println("empty post discarded")
		return
	}

	p, err := a.sync.CreatePost(ctx, api.CreatePostRequest{Content: content}, nil)
	if err != nil {
		fmt.Printf("post: %s\n", message(err))
		return
	}
	fmt.Printf("posted as %s\n", p.ID)
}

func (a *App) Followers(ctx context.Context) {
	if !a.requireAuth() {
		return
	}
	u, ok := a.session.CurrentUser()
	if !ok {
		fmt.Println("not logged in")
		return
	}

	followers, err := a.sync.FetchFollowers(ctx, u.ID)
	if err != nil {
		fmt.Printf("followers: %s\n", message(err))
		return
	}

	for _, f := range followers {
		back := ""
		if f.FollowsBack {
			back = " (follows back)"
		}
		fmt.Printf("@%s %s%s\n", f.Handle, f.Name, back)
	}
}

func (a *App) Join(ctx context.Context, args []string) {
	if !a.requireAuth() {
		return
	}
	if len(args) != 1 {
		fmt.Println("usage: join <group-id>")
		return
	}
	grp, err := a.sync.JoinGroup(ctx, args[0])
	if err != nil {
		fmt.Printf("join: %s\n", message(err))
		return
	}
	fmt.Printf("joined %s (%d members)\n", grp.Name, grp.MemberCount)
}

func (a *App) Leave(ctx context.Context, args []string) {
	if !a.requireAuth() {
		return
	}
	if len(args) != 1 {
		fmt.Println("usage: leave <group-id>")
		return
	}
	grp, err := a.sync.LeaveGroup(ctx, args[0])
	if err != nil {
		fmt.Printf("leave: %s\n", message(err))
		return
	}
	fmt.Printf("left %s\n", grp.Name)
}
