package auth_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/apotek-pos/apotek-pos/internal/auth"
	"github.com/apotek-pos/apotek-pos/internal/shared"
)

func slogDiscard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func issueFor(t *testing.T, tokens *auth.TokenManager, userID int64, username, role string) string {
	t.Helper()
	signed, err := tokens.Issue(shared.Identity{UserID: userID, Username: username, Role: role})
	require.NoError(t, err)
	return signed
}
