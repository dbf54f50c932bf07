package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		expected    *Config
		expectPanic bool
	}{
		{
			name: "url, page size and debounce",
			args: []string{"cmd", "-u", "https://api.feedline.dev", "-p", "50", "-d", "150"},
			expected: &Config{
				APIBaseURL:     "https://api.feedline.dev",
				PageSize:       50,
				SearchDebounce: 150 * time.Millisecond,
			},
		},
		{
			name: "credential db file",
			args: []string{"cmd", "-f", "/tmp/session.db"},
			expected: &Config{
				CredentialDB:   "/tmp/session.db",
				SearchDebounce: 0,
			},
		},
		{
			name:        "incorrect page size",
			args:        []string{"cmd", "-p", "abc"},
			expectPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			origArgs := os.Args
			t.Cleanup(func() { os.Args = origArgs })
			os.Args = tt.args

			config := &Config{}

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config) })
				return
			}

			require.NotPanics(t, func() { parseFlags(config) })
			assert.Equal(t, tt.expected, config)
		})
	}
}
