package testutil

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferedSlogHandler(t *testing.T) {
	t.Run("captures log records", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("test message", slog.String("key", "value"))
		logger.Error("error message", slog.Int("code", 500))

		assert.Len(t, handler.GetRecords(), 2)
		assert.True(t, handler.ContainsMessage("test message"))
		assert.True(t, handler.ContainsAttr("key", "value"))
	})

	t.Run("derived loggers share the sink and keep attrs", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.With(slog.String("component", "pipeline")).Info("stage done")

		require.Equal(t, 1, handler.Count())
		AssertLogAttr(t, handler, "component", "pipeline")
	})

	t.Run("filters by level", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Debug("debug msg")
		logger.Info("info msg")
		logger.Warn("warn msg")
		logger.Error("error msg")

		assert.Len(t, handler.GetRecordsByLevel(slog.LevelInfo), 1)
		assert.Len(t, handler.GetRecordsByLevel(slog.LevelError), 1)
	})

	t.Run("clear", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("message 1")
		logger.Info("message 2")
		require.Equal(t, 2, handler.Count())

		handler.Clear()
		assert.Equal(t, 0, handler.Count())
	})

	t.Run("concurrent logging", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				logger.Info("concurrent log", slog.Int("goroutine", n))
			}(i)
		}
		wg.Wait()

		assert.Equal(t, 10, handler.Count())
	})
}

func TestWriteRawFixtures(t *testing.T) {
	dir := WriteRawFixtures(t)

	data, err := os.ReadFile(filepath.Join(dir, "business-licences.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "FOLDERYEAR;LicenceRSN;BusinessName")

	_, err = os.Stat(filepath.Join(dir, "storefronts-inventory.csv"))
	assert.NoError(t, err)
}
