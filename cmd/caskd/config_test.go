package main

import (
	"os"
	"path/filepath"
	"testing"

	"caskdb"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Missing(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "caskd.yaml")
	content := `
storage:
  path: /var/lib/caskdb/caskdb.data
  index: btree
  sync_writes: false
  truncate_torn_tail: true
server:
  rpc_addr: 0.0.0.0:1234
  http_addr: ""
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/caskdb/caskdb.data", cfg.Storage.Path)
	assert.Equal(t, "btree", cfg.Storage.Index)
	assert.False(t, cfg.Storage.SyncWrites)
	assert.True(t, cfg.Storage.TruncateTornTail)
	assert.Equal(t, "0.0.0.0:1234", cfg.Server.RPCAddr)
	assert.Empty(t, cfg.Server.HTTPAddr)
	// 没有出现的段保留默认值
	assert.Equal(t, Default().Logger, cfg.Logger)
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "caskd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage: [unclosed"), 0644))
	_, err := loadConfig(path)
	assert.Error(t, err)
}

func TestConfig_Options(t *testing.T) {
	cfg := Default()
	cfg.Storage.Index = "SkipList"
	opts, err := cfg.Options(logrus.New())
	require.NoError(t, err)
	assert.Equal(t, caskdb.SkipList, opts.IndexType)
	assert.Equal(t, cfg.Storage.Path, opts.Path)
	assert.True(t, opts.SyncWrites)
	assert.NotNil(t, opts.Clock)

	cfg.Storage.Index = "lsm"
	_, err = cfg.Options(logrus.New())
	assert.ErrorIs(t, err, caskdb.ErrInvalidOptions)
}

func TestNewLogger(t *testing.T) {
	logger, err := newLogger(LoggerConfig{Level: "warn", JSON: true})
	require.NoError(t, err)
	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	_, err = newLogger(LoggerConfig{Level: "loud"})
	assert.Error(t, err)
}
