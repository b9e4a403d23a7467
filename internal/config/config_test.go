// Copyright (c) 2025 Arc Engineering
// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoad_CreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	p, err := Load(path, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, Default(), p.Config())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "new_items_per_day: 20")
	assert.Contains(t, string(data), "timeout: 30s")
}

func TestLoad_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("new_items_per_day: 7\nstorage: kv\nbreaker:\n  timeout: 2m\n"), 0o644))

	p, err := Load(path, quietLogger())
	require.NoError(t, err)
	cfg := p.Config()
	assert.Equal(t, 7, cfg.NewItemsPerDay)
	assert.Equal(t, StorageKV, cfg.Storage)
	assert.Equal(t, 2*time.Minute, cfg.Breaker.Timeout)
	assert.Equal(t, uint32(5), cfg.Breaker.MaxFailures)

	n, err := p.NewItemCap()
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("ARC_REVIEW_NEW_ITEMS_PER_DAY", "3")
	t.Setenv("ARC_REVIEW_STORAGE", "memory")
	t.Setenv("ARC_REVIEW_TIMEZONE", "UTC")

	p, err := Load(path, quietLogger())
	require.NoError(t, err)
	cfg := p.Config()
	assert.Equal(t, 3, cfg.NewItemsPerDay)
	assert.Equal(t, StorageMemory, cfg.Storage)
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoad_RejectsInvalid(t *testing.T) {
	for name, body := range map[string]string{
		"negative cap": "new_items_per_day: -1\n",
		"bad storage":  "storage: postgres\n",
		"bad timezone": "timezone: Mars/Olympus\n",
		"bad yaml":     "new_items_per_day: [\n",
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
			_, err := Load(path, quietLogger())
			assert.Error(t, err)
		})
	}
}

func TestSetNewItemCap_SaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	p, err := Load(path, quietLogger())
	require.NoError(t, err)

	assert.Error(t, p.SetNewItemCap(-2))
	require.NoError(t, p.SetNewItemCap(12))
	require.NoError(t, p.Save())

	reloaded, err := Load(path, quietLogger())
	require.NoError(t, err)
	n, err := reloaded.NewItemCap()
	require.NoError(t, err)
	assert.Equal(t, 12, n)
}

func TestSave_DoesNotPersistEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("ARC_REVIEW_STORAGE", "memory")
	p, err := Load(path, quietLogger())
	require.NoError(t, err)
	require.NoError(t, p.Save())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "storage: sql")
}

func TestReload_KeepsSettingsOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	p, err := Load(path, quietLogger())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("new_items_per_day: -5\n"), 0o644))
	assert.Error(t, p.Reload())
	assert.Equal(t, 20, p.Config().NewItemsPerDay)
}

func TestWatch_ReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	p, err := Load(path, quietLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changed := make(chan Config, 4)
	require.NoError(t, p.Watch(ctx, func(c Config) { changed <- c }))

	require.NoError(t, p.SetNewItemCap(9))
	require.NoError(t, p.Save())

	select {
	case c := <-changed:
		assert.Equal(t, 9, c.NewItemsPerDay)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after config change")
	}
}
