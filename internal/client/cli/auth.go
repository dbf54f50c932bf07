package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dbarkov/feedline/internal/client/api"
	"github.com/dbarkov/feedline/internal/common"
	"github.com/dbarkov/feedline/internal/filex"
)

// message extracts the user-facing text of an operation failure: the
// server's message when one was returned, a short hint otherwise.
func message(err error) string {
	var se *api.StatusError
	if errors.As(err, &se) {
		return se.Message
	}
	if errors.Is(err, common.ErrUnavailable) {
		return "server unavailable, try again later"
	}
	if errors.Is(err, common.ErrUnauthorized) {
		return "session expired, please log in again"
	}
	if errors.Is(err, common.ErrNotAuthenticated) {
		return "not logged in, run 'login' first"
	}
	return err.Error()
}

// loginMessage renders a failed credential exchange. An authorization-denied
// response here means the credentials were wrong, not that a session expired.
func loginMessage(err error) string {
	if errors.Is(err, common.ErrUnauthorized) {
		return "invalid credentials"
	}
	return message(err)
}

// requireAuth prints a hint and returns false when no session is active.
func (a *App) requireAuth() bool {
	if !a.session.IsAuthenticated() {
		fmt.Println(message(common.ErrNotAuthenticated))
		return false
	}
	return true
}

func (a *App) Login(ctx context.Context) {
	identifier, err := GetSimpleText(a.reader, "Enter email or handle", os.Stdout)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}

	password, err := GetPassword(os.Stdout)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}

	ok, err := a.session.Login(ctx, identifier, password)
	if !ok {
		fmt.Printf("Login unsuccessful: %s\n", loginMessage(err))
		return
	}
	fmt.Println("Login successful")
}

func (a *App) TokenLogin(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Println("usage: token <value>")
		return
	}

	ok, err := a.session.LoginWithToken(ctx, args[0])
	if !ok {
		fmt.Printf("Login unsuccessful: %s\n", loginMessage(err))
		return
	}
	fmt.Println("Login successful")
}

func (a *App) Register(ctx context.Context) {
	name, err := GetSimpleText(a.reader, "Enter display name", os.Stdout)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	handle, err := GetSimpleText(a.reader, "Enter handle", os.Stdout)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	password, err := GetPassword(os.Stdout)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	avatarPath, err := GetSimpleText(a.reader, "Avatar file (empty to skip)", os.Stdout)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}

	var avatar *filex.Attachment
	if avatarPath != "" {
		avatar, err = filex.LoadAttachment(avatarPath)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			return
		}
	}

	req := api.RegisterRequest{Name: name, Handle: handle, Secret: password}
	ok, err := a.session.Register(ctx, req, avatar)
	if !ok {
		fmt.Printf("Registration unsuccessful: %s\n", loginMessage(err))
		return
	}
	fmt.Println("Registration successful")
}

func (a *App) WhoAmI() {
	u, ok := a.session.CurrentUser()
	if !ok {
		fmt.Println("not logged in")
		return
	}
	fmt.Printf("@%s (%s): %d followers, %d following, %d posts\n",
		u.Handle, u.Name, u.FollowerCount, u.FollowingCount, u.PostCount)
}

func (a *App) Logout(ctx context.Context) {
	if err := a.session.Logout(ctx); err != nil {
		fmt.Printf("logout: %v\n", err)
		return
	}
	fmt.Println("Logged out")
}
