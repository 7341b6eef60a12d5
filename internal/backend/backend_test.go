package backend

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/softwerkskammer/agoraauth/stores"
)

func TestOpen_FS(t *testing.T) {
	s, err := Open(context.Background(), Config{Kind: "fs", StoragePath: t.TempDir()})
	require.NoError(t, err)
	defer s.Close()

	assert.IsType(t, &stores.FSMemberStore{}, s.Members)
	assert.IsType(t, &stores.FSActivityStore{}, s.Activities)
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open(context.Background(), Config{Kind: "postgres"})
	assert.ErrorContains(t, err, "DATABASE_URL")

	_, err = Open(context.Background(), Config{Kind: "couchdb"})
	assert.ErrorContains(t, err, "unknown store backend")
}

func TestNewLogger(t *testing.T) {
	ctx := context.Background()
	assert.True(t, NewLogger("debug").Enabled(ctx, slog.LevelDebug))
	assert.False(t, NewLogger("warn").Enabled(ctx, slog.LevelInfo))
	assert.True(t, NewLogger("nonsense").Enabled(ctx, slog.LevelInfo))
}
