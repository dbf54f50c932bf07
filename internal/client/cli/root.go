package cli

import (
	"context"
	"fmt"
	"strings"
)

func (a *App) getStatus() string {
	if a.session.Resolving() {
		return "(resolving)"
	}
	if u, ok := a.session.CurrentUser(); ok {
		return fmt.Sprintf("(@%s)", u.Handle)
	}
	return ""
}

const helpText = `Commands:
  login               sign in with identifier and password
  register            create an account
  token <value>       sign in with an externally obtained token
  whoami              show the current user
  feed                load the next feed page
  like <post-id>      toggle a like (local, confirmed in background)
  save <post-id>      bookmark a post
  post                compose a new post
  followers           list your followers
  users <query>       search users
  groups <query>      search groups
  more                load more search results
  join <group-id>     join a group
  leave <group-id>    leave a group
  logout              end the session
  quit                exit`

// Root runs the command loop until EOF or quit. Input goes through the
// shared reader so interactive prompts and the loop never fight over stdin.
func (a *App) Root(ctx context.Context) {
	fmt.Println("Welcome to FeedLine (type 'help' for commands)")

	for {
		fmt.Printf("feedline %s> ", a.getStatus())
		line, err := a.reader.ReadString('\n')
		if err != nil && line == "" {
			break
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			fmt.Println(helpText)
		case "login":
			a.Login(ctx)
		case "register":
			a.Register(ctx)
		case "token":
			a.TokenLogin(ctx, args)
		case "whoami":
			a.WhoAmI()
		case "feed":
			a.Feed(ctx)
		case "like":
			a.Like(args)
		case "save":
			a.Save(ctx, args)
		case "post":
			a.Post(ctx)
		case "followers":
			a.Followers(ctx)
		case "users":
			a.SearchUsers(ctx, args)
		case "groups":
			a.SearchGroups(ctx, args)
		case "more":
			a.MoreResults(ctx)
		case "join":
			a.Join(ctx, args)
		case "leave":
			a.Leave(ctx, args)
		case "logout":
			a.Logout(ctx)
		case "quit", "exit":
			return
		default:
			fmt.Printf("unknown command %q, type 'help'\n", cmd)
		}
	}
}
