// Package cli is a small REPL over the FeedLine SDK: session management,
// feed browsing, optimistic likes, group and user search.
package cli

import (
	"bufio"
	"context"
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dbarkov/feedline/internal/client/api"
	"github.com/dbarkov/feedline/internal/client/config"
	"github.com/dbarkov/feedline/internal/client/credstore"
	"github.com/dbarkov/feedline/internal/client/models"
	"github.com/dbarkov/feedline/internal/client/search"
	"github.com/dbarkov/feedline/internal/client/session"
	"github.com/dbarkov/feedline/internal/client/sync"
	"github.com/dbarkov/feedline/internal/filex"
	"github.com/dbarkov/feedline/internal/logging"
)

// dataDirName holds the credential database when the configured path is a
// bare file name.
const dataDirName = "feedline-data"

type App struct {
	config  *config.Config
	log     logging.Logger
	gateway *api.Gateway
	session *session.Manager
	sync    *sync.Synchronizer
	db      *sql.DB
	reader  *bufio.Reader

	userSearch  *search.Dispatcher[models.User]
	groupSearch *search.Dispatcher[models.Group]

	// activeSearch routes the "more" command to the dispatcher that
	// served the last search; searchDone signals a finished fetch.
	activeSearch string
	searchDone   chan struct{}
}

// NewApp wires the whole client: gateway, credential store, session manager,
// synchronizer and the two search dispatchers. The session manager's
// identity-change hook resets the synchronizer so no data leaks across
// users.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	gw := api.NewGateway(cfg.APIBaseURL, cfg.RequestTimeout, log)

	dbPath := cfg.CredentialDB
	if filepath.Dir(dbPath) == "." {
		// bare file name: keep it under a dedicated data directory
		dir, err := filex.EnsureSubDir(dataDirName)
		if err != nil {
			return nil, err
		}
		dbPath = filepath.Join(dir, dbPath)
	}

	store, db, err := credstore.Open(ctx, dbPath)
	if err != nil {
		return nil, err
	}

	sess := session.NewManager(gw, store, log)
	sy := sync.NewSynchronizer(gw, cfg.PageSize, log)
	sess.OnIdentityChange(sy.ResetAll)

	// a revoked credential anywhere tears the whole session down
	teardown := func() {
		if err := sess.Logout(context.Background()); err != nil {
			log.Warn(context.Background(), "session teardown failed", "err", err)
		}
	}
	sy.OnAuthDenied(teardown)

	userSearch := search.NewDispatcher(func(ctx context.Context, q string, page, size int) ([]models.User, bool, error) {
		p, err := gw.SearchUsers(ctx, q, page, size)
		if api.IsAuthError(err) {
			teardown()
		}
		return p.Content, p.Last, err
	}, cfg.SearchDebounce, cfg.PageSize, log)

	groupSearch := search.NewDispatcher(func(ctx context.Context, q string, page, size int) ([]models.Group, bool, error) {
		p, err := gw.SearchGroups(ctx, q, page, size)
		if api.IsAuthError(err) {
			teardown()
		}
		return p.Content, p.Last, err
	}, cfg.SearchDebounce, cfg.PageSize, log)

	a := &App{
		config:      cfg,
		log:         log,
		gateway:     gw,
		session:     sess,
		sync:        sy,
		db:          db,
		reader:      bufio.NewReader(os.Stdin),
		userSearch:  userSearch,
		groupSearch: groupSearch,
		searchDone:  make(chan struct{}, 1),
	}

	userSearch.OnUpdate(a.signalSearchDone)
	groupSearch.OnUpdate(a.signalSearchDone)

	return a, nil
}

func (a *App) signalSearchDone() {
	select {
	case a.searchDone <- struct{}{}:
	default:
	}
}

// Run restores the session and enters the command loop.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	if err := a.session.Bootstrap(ctx); err != nil {
		a.log.Warn(ctx, "session not restored", "err", err)
	}

	a.Root(ctx)
}

func (a *App) Close() {
	a.userSearch.Close()
	a.groupSearch.Close()
	if a.db != nil {
		_ = a.db.Close()
	}
}
