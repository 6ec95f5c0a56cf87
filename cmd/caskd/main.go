package main

import (
	"flag"
	"net"
	"os"
	"os/signal"
	"syscall"

	"caskdb"
	"caskdb/rpc"
	"caskdb/server"

	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "caskd.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	logger, err := newLogger(cfg.Logger)
	if err != nil {
		logrus.WithError(err).Fatal("init logger")
	}
	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Fatal("caskd exited")
	}
}

func run(cfg Config, logger *logrus.Logger) error {
	opts, err := cfg.Options(logger)
	if err != nil {
		return err
	}

	// 同一个数据文件只能被一个守护进程打开
	fl, err := server.LockFile(opts.Path)
	if err != nil {
		return err
	}
	defer func() {
		if err := fl.Unlock(); err != nil {
			logger.WithError(err).Warn("release lock")
		}
	}()

	db, err := caskdb.Open(opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.WithError(err).Error("close database")
		}
	}()

	rpcServer, err := rpc.NewServer(db, logger)
	if err != nil {
		return err
	}
	listener, err := net.Listen("tcp", cfg.Server.RPCAddr)
	if err != nil {
		return err
	}

	errCh := make(chan error, 2)
	go func() { errCh <- rpcServer.Serve(listener) }()
	defer rpcServer.Close()

	if cfg.Server.HTTPAddr != "" {
		httpServer := server.NewHTTPServer(db, cfg.Server.HTTPAddr, cfg.Server.MaxValueSize, logger)
		go func() { errCh <- httpServer.ListenAndServe() }()
		defer func() {
			if err := httpServer.Shutdown(); err != nil {
				logger.WithError(err).Warn("shutdown http server")
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.WithField("signal", sig.String()).Info("shutting down")
		return nil
	case err := <-errCh:
		return err
	}
}
