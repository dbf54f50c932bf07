package cli

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	searchUsers  = "users"
	searchGroups = "groups"
)

func (a *App) SearchUsers(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Println("usage: users <query>")
		return
	}
	a.activeSearch = searchUsers
	a.userSearch.SetQuery(ctx, strings.Join(args, " "))
	a.waitForSearch()
	a.printUserResults()
}

func (a *App) SearchGroups(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Println("usage: groups <query>")
		return
	}
	a.activeSearch = searchGroups
	a.groupSearch.SetQuery(ctx, strings.Join(args, " "))
	a.waitForSearch()
	a.printGroupResults()
}

func (a *App) MoreResults(ctx context.Context) {
	switch a.activeSearch {
	case searchUsers:
		if !a.userSearch.HasMore() {
			fmt.Println("(no more results)")
			return
		}
		if err := a.userSearch.LoadMore(ctx); err != nil {
			fmt.Printf("search: %s\n", message(err))
			return
		}
		a.drainSearchDone()
		a.printUserResults()
	case searchGroups:
		if !a.groupSearch.HasMore() {
			fmt.Println("(no more results)")
			return
		}
		if err := a.groupSearch.LoadMore(ctx); err != nil {
			fmt.Printf("search: %s\n", message(err))
			return
		}
		a.drainSearchDone()
		a.printGroupResults()
	default:
		fmt.Println("no active search, run 'users' or 'groups' first")
	}
}

// waitForSearch blocks until the pending debounced fetch delivers, or until
// the debounce plus one request timeout elapses.
func (a *App) waitForSearch() {
	select {
	case <-a.searchDone:
	case <-time.After(a.config.SearchDebounce + a.config.RequestTimeout):
		fmt.Println("(search timed out)")
	}
}

// drainSearchDone clears a notification produced by a synchronous LoadMore
// so it does not satisfy the next waitForSearch prematurely.
func (a *App) drainSearchDone() {
	select {
	case <-a.searchDone:
	default:
	}
}

func (a *App) printUserResults() {
	if err := a.userSearch.Err(); err != nil {
		fmt.Printf("search: %s\n", message(err))
		return
	}
	results := a.userSearch.Results()
	if len(results) == 0 {
		fmt.Println("no users found")
		return
	}
	for _, u := range results {
		fmt.Printf("@%s %s\n", u.Handle, u.Name)
	}
	if a.userSearch.HasMore() {
		fmt.Println("(type 'more' for more results)")
	}
}

func (a *App) printGroupResults() {
	if err := a.groupSearch.Err(); err != nil {
		fmt.Printf("search: %s\n", message(err))
		return
	}
	results := a.groupSearch.Results()
	if len(results) == 0 {
		fmt.Println("no groups found")
		return
	}
	for _, g := range results {
		member := ""
		if g.Member {
			member = " (member)"
		}
		fmt.Printf("[%s] %s, %d members%s\n", g.ID, g.Name, g.MemberCount, member)
	}
	if a.groupSearch.HasMore() {
		fmt.Println("(type 'more' for more results)")
	}
}
