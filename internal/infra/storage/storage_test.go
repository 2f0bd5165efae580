package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classroom_sync/internal/domain/course"
	"classroom_sync/internal/infra/config"
)

func TestOpenBackends(t *testing.T) {
	ctx := context.Background()
	for _, cfg := range []*config.AppConfig{
		{StoreDriver: "memory"},
		{StoreDriver: "bolt", BoltPath: filepath.Join(t.TempDir(), "sync.db")},
	} {
		t.Run(cfg.StoreDriver, func(t *testing.T) {
			b, err := Open(ctx, cfg, true)
			require.NoError(t, err)
			defer b.Close()

			require.NoError(t, b.Repos.Courses.Upsert(ctx, &course.Course{ExternalID: "c-1", Name: "Web", TeacherEmail: "t@x.com"}))
			got, err := b.Repos.Courses.GetByExternalID(ctx, "c-1")
			require.NoError(t, err)
			assert.Equal(t, "Web", got.Name)
			assert.Nil(t, b.SQL)
		})
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), &config.AppConfig{StoreDriver: "mysql"}, false)
	assert.Error(t, err)
}
