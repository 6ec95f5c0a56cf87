package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"caskdb"

	"github.com/goccy/go-yaml"
	"github.com/sirupsen/logrus"
)

// Config 守护进程的配置文件
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Server  ServerConfig  `yaml:"server"`
	Logger  LoggerConfig  `yaml:"logger"`
}

type StorageConfig struct {
	Path             string `yaml:"path"`
	SyncWrites       bool   `yaml:"sync_writes"`
	Index            string `yaml:"index"` // hashmap, btree, art, skiplist
	TruncateTornTail bool   `yaml:"truncate_torn_tail"`
}

type ServerConfig struct {
	RPCAddr      string `yaml:"rpc_addr"`
	HTTPAddr     string `yaml:"http_addr"` // 为空时不启动 HTTP 接口
	MaxValueSize int64  `yaml:"max_value_size"`
}

type LoggerConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

func Default() Config {
	return Config{
		Storage: StorageConfig{
			Path:             filepath.Join(".", "data", "caskdb.data"),
			SyncWrites:       true,
			Index:            "hashmap",
			TruncateTornTail: true,
		},
		Server: ServerConfig{
			RPCAddr:      "localhost:1234",
			HTTPAddr:     "localhost:8080",
			MaxValueSize: 4 << 20,
		},
		Logger: LoggerConfig{Level: "info"},
	}
}

var indexTypes = map[string]caskdb.IndexType{
	"hashmap":  caskdb.HashMap,
	"btree":    caskdb.BTree,
	"art":      caskdb.ART,
	"skiplist": caskdb.SkipList,
}

// Options 转换成存储引擎的配置
func (c Config) Options(logger logrus.FieldLogger) (caskdb.Options, error) {
	typ, ok := indexTypes[strings.ToLower(c.Storage.Index)]
	if !ok {
		return caskdb.Options{}, fmt.Errorf("%w: unknown index %q", caskdb.ErrInvalidOptions, c.Storage.Index)
	}
	opts := caskdb.DefaultOptions
	opts.Path = c.Storage.Path
	opts.SyncWrites = c.Storage.SyncWrites
	opts.IndexType = typ
	opts.TruncateTornTail = c.Storage.TruncateTornTail
	opts.Logger = logger
	return opts, nil
}

// loadConfig 读取 YAML 配置文件，文件不存在时使用 Default()。
// 文件里没有出现的段保留默认值。
func loadConfig(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logrus.WithField("path", path).Info("config file not found, using default config")
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func newLogger(cfg LoggerConfig) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("logger level: %w", err)
	}
	logger.SetLevel(level)
	if cfg.JSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger, nil
}
