package db

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryAutoplay(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	guild := snowflake.ID(1234)

	_, found, err := m.Autoplay(ctx, guild)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, m.SetAutoplay(ctx, guild, true))
	enabled, found, err := m.Autoplay(ctx, guild)
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, enabled)

	_, found, _ = m.Autoplay(ctx, snowflake.ID(99))
	assert.False(t, found)
}

func TestBoolField(t *testing.T) {
	doc := map[string]interface{}{
		"b":   true,
		"i32": int32(0),
		"i64": int64(1),
		"f":   float64(1),
		"s":   "yes",
		"nil": nil,
	}

	v, ok := boolField(doc, "b")
	assert.True(t, ok)
	assert.True(t, v)

	v, ok = boolField(doc, "i32")
	assert.True(t, ok)
	assert.False(t, v)

	v, ok = boolField(doc, "i64")
	assert.True(t, ok)
	assert.True(t, v)

	v, ok = boolField(doc, "f")
	assert.True(t, ok)
	assert.True(t, v)

	_, ok = boolField(doc, "s")
	assert.False(t, ok)
	_, ok = boolField(doc, "nil")
	assert.False(t, ok)
	_, ok = boolField(doc, "missing")
	assert.False(t, ok)
}

func TestWithFieldLeavesSourceUntouched(t *testing.T) {
	doc := map[string]interface{}{"autoplay": false, "lang": "en"}

	out := withField(doc, "autoplay", true)
	assert.Equal(t, map[string]interface{}{"autoplay": false, "lang": "en"}, doc)
	assert.Equal(t, map[string]interface{}{"autoplay": true, "lang": "en"}, out)

	assert.Equal(t, map[string]interface{}{"autoplay": true}, withField(nil, "autoplay", true))
}

func TestWithFieldConcurrentWriters(t *testing.T) {
	shared := map[string]interface{}{"autoplay": false}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out := withField(shared, "autoplay", i%2 == 0)
			_, _ = boolField(shared, "autoplay")
			assert.Len(t, out, 1)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, false, shared["autoplay"])
}

// TestDatabaseAutoplay runs against a real server when MONGO_TEST_URI is set.
func TestDatabaseAutoplay(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	database, err := InitDatabase(ctx, uri, "guildtunes_test")
	require.NoError(t, err)
	defer func() {
		_ = database.DB.Drop(ctx)
		_ = database.Close(ctx)
	}()

	guild := snowflake.ID(time.Now().UnixNano())
	_, found, err := database.Autoplay(ctx, guild)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, database.SetAutoplay(ctx, guild, true))
	database.GuildCache.Clear()

	enabled, found, err := database.Autoplay(ctx, guild)
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, enabled)
}
