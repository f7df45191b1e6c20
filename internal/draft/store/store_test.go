package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/flowdesk/internal/clock"
	"github.com/smallbiznis/flowdesk/internal/draft/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func exerciseStore(t *testing.T, s domain.Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.Read(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Write(ctx, []byte(`{"clientId":"c1"}`)))
	require.NoError(t, s.Write(ctx, []byte(`{"clientId":"c2"}`)))

	data, ok, err := s.Read(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"clientId":"c2"}`, string(data))

	require.NoError(t, s.Clear(ctx))
	require.NoError(t, s.Clear(ctx))

	_, ok, err = s.Read(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "invoice-draft.json")
	exerciseStore(t, NewFileStore(path))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Empty(t, entries, "temp files must not be left behind")
}

func TestDatabaseStore(t *testing.T) {
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Slot{}))

	fc := clock.NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	exerciseStore(t, NewDatabaseStore(db, fc, domain.DefaultSlot))
}
