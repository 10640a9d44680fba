package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/ukane-philemon/transcripts/internal/config"
)

func testConfig(driver, url string) *config.Config {
	return &config.Config{
		Port:            "0",
		DBDriver:        driver,
		DBURL:           url,
		MinGrade:        0,
		MaxGrade:        100,
		RequestTimeout:  time.Second,
		ShutdownTimeout: time.Second,
		LogLevel:        "info",
	}
}

func TestOpenStore_SQLiteKeepsRecords(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(config.DriverSQLite, filepath.Join(t.TempDir(), "transcripts.db"))

	store, err := openStore(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	id, err := store.AddStudent(ctx, "Ada", nil)
	require.NoError(t, err)
	require.NoError(t, store.Shutdown(ctx))

	store, err = openStore(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Shutdown(ctx) })

	student, err := store.Student(id)
	require.NoError(t, err)
	assert.Equal(t, "Ada", student.Name)
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	_, err := openStore(context.Background(), testConfig("cassandra", "x"), zap.NewNop())
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	cfg := testConfig(config.DriverMemory, "")

	log, err := newLogger(cfg)
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zap.DebugLevel))

	cfg.Dev = true
	cfg.LogLevel = "debug"
	log, err = newLogger(cfg)
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zap.DebugLevel))

	cfg.LogLevel = "loud"
	_, err = newLogger(cfg)
	assert.Error(t, err)
}

func TestRun_StopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- run(ctx, testConfig(config.DriverMemory, ""), zap.NewNop())
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancel")
	}
}
