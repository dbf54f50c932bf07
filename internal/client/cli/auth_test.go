package cli

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dbarkov/feedline/internal/client/api"
	"github.com/dbarkov/feedline/internal/common"
)

func TestMessage(t *testing.T) {
	require.Equal(t, "session expired, please log in again", message(common.ErrUnauthorized))
	require.Equal(t, "not logged in, run 'login' first", message(common.ErrNotAuthenticated))
	require.Equal(t, "server unavailable, try again later", message(common.ErrUnavailable))
	require.Equal(t, "handle taken", message(&api.StatusError{Code: http.StatusConflict, Message: "handle taken"}))
}

func TestLoginMessage_AuthDeniedMeansBadCredentials(t *testing.T) {
	require.Equal(t, "invalid credentials", loginMessage(common.ErrUnauthorized))
	require.Equal(t, "server unavailable, try again later", loginMessage(common.ErrUnavailable))
}
