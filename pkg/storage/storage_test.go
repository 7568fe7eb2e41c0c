package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charlie0129/timer24h/pkg/schedule"
)

func backends(t *testing.T) map[string]func() Backend {
	dir := t.TempDir()
	return map[string]func() Backend{
		DriverSQLite: func() Backend {
			b, err := Open(DriverSQLite, filepath.Join(dir, "timer24h.db"))
			require.NoError(t, err)
			return b
		},
		DriverFile: func() Backend {
			b, err := Open(DriverFile, filepath.Join(dir, "sub", "schedules.json"))
			require.NoError(t, err)
			return b
		},
	}
}

func sample(id string) schedule.Schedule {
	s := schedule.New(id)
	s.Target = "switch." + id
	s.Slots[10] = true
	s.Slots[47] = true
	return s
}

func TestBackends(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			b := open()

			list, err := b.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, list)

			_, err = b.Get(ctx, "morning")
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, b.Delete(ctx, "morning"), ErrNotFound)

			morning := sample("morning")
			tz := "Europe/Berlin"
			morning.Timezone = &tz
			morning.Conditions = schedule.Conditions{}.Add()
			require.NoError(t, b.Put(ctx, morning))
			require.NoError(t, b.Put(ctx, sample("evening")))

			morning.Enabled = false
			require.NoError(t, b.Put(ctx, morning))

			got, err := b.Get(ctx, "morning")
			require.NoError(t, err)
			assert.Equal(t, morning, got)

			list, err = b.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "morning", list[0].ID)
			assert.Equal(t, "evening", list[1].ID)
			assert.Nil(t, list[1].Timezone)

			require.NoError(t, b.Delete(ctx, "morning"))
			list, err = b.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 1)
			require.NoError(t, b.Close())

			// data survives reopening
			b = open()
			defer b.Close()
			got, err = b.Get(ctx, "evening")
			require.NoError(t, err)
			assert.True(t, got.Slots[47])
		})
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open("redis", "x")
	assert.Error(t, err)
}
