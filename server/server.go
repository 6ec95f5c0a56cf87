package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"caskdb"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
)

const (
	contentTypeJSON        = "application/json"
	defaultShutdownTimeout = 5 * time.Second
	defaultMaxValueSize    = 4 << 20
)

type kvStore interface {
	Put(key, value []byte) error
	Get(key []byte) ([]byte, bool, error)
	Delete(key []byte) error
	ListKeys() [][]byte
	Stat() caskdb.Stat
}

// HTTPServer 把存储引擎暴露成 HTTP 接口
type HTTPServer struct {
	store        kvStore
	addr         string
	maxValueSize int64
	httpServer   *http.Server
	log          logrus.FieldLogger
}

func NewHTTPServer(store kvStore, addr string, maxValueSize int64, logger logrus.FieldLogger) *HTTPServer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if maxValueSize <= 0 {
		maxValueSize = defaultMaxValueSize
	}
	s := &HTTPServer{
		store:        store,
		addr:         addr,
		maxValueSize: maxValueSize,
		log:          logger.WithField("component", "http"),
	}
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: time.Second,
	}
	return s
}

// Handler 构建 chi 路由
func (s *HTTPServer) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequest)

	r.Get("/health", s.handleHealth)
	r.Get("/stat", s.handleStat)
	r.Get("/keys", s.handleKeys)
	r.Put("/kv/{key}", s.handlePut)
	r.Get("/kv/{key}", s.handleGet)
	r.Delete("/kv/{key}", s.handleDelete)
	return r
}

// Serve 在 listener 上提供服务，直到 Shutdown 被调用
func (s *HTTPServer) Serve(listener net.Listener) error {
	s.log.WithField("addr", listener.Addr().String()).Info("http server started")
	if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve http: %w", err)
	}
	return nil
}

func (s *HTTPServer) ListenAndServe() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	return s.Serve(listener)
}

func (s *HTTPServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

func (s *HTTPServer) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.WithFields(logrus.Fields{
			"method":  r.Method,
			"path":    r.URL.Path,
			"status":  ww.Status(),
			"elapsed": time.Since(start),
		}).Debug("request")
	})
}

func (s *HTTPServer) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.WithError(err).Warn("encode response failed")
	}
}

func (s *HTTPServer) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, caskdb.ErrEncoding):
		status = http.StatusBadRequest
	case errors.Is(err, caskdb.ErrDBClosed):
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, NewErrorResponse(err.Error()))
}

// chi 在 RawPath 存在时按转义后的路径路由，此时参数需要再解码一次
func keyParam(r *http.Request) (string, error) {
	key := chi.URLParam(r, "key")
	if r.URL.RawPath == "" {
		return key, nil
	}
	return url.PathUnescape(key)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, NewOKResponse())
}

func (s *HTTPServer) handleStat(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.store.Stat())
}

func (s *HTTPServer) handleKeys(w http.ResponseWriter, r *http.Request) {
	keys := s.store.ListKeys()
	slices.SortFunc(keys, bytes.Compare)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, string(k))
	}
	s.writeJSON(w, http.StatusOK, NewKeysResponse(out))
}

func (s *HTTPServer) handlePut(w http.ResponseWriter, r *http.Request) {
	key, err := keyParam(r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, NewErrorResponse("Invalid key"))
		return
	}
	value, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxValueSize))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.writeJSON(w, http.StatusRequestEntityTooLarge, NewErrorResponse("Value too large"))
			return
		}
		s.writeJSON(w, http.StatusBadRequest, NewErrorResponse("Failed to read body"))
		return
	}
	// 空 value 在日志里就是墓碑，删除请走 DELETE
	if len(value) == 0 {
		s.writeJSON(w, http.StatusBadRequest, NewErrorResponse("Missing value"))
		return
	}

	if err := s.store.Put([]byte(key), value); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, NewSuccessResponse())
}

func (s *HTTPServer) handleGet(w http.ResponseWriter, r *http.Request) {
	key, err := keyParam(r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, NewErrorResponse("Invalid key"))
		return
	}

	value, found, err := s.store.Get([]byte(key))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !found {
		s.writeJSON(w, http.StatusNotFound, NewErrorResponse("Key not found"))
		return
	}
	s.writeJSON(w, http.StatusOK, NewValueResponse(string(value)))
}

func (s *HTTPServer) handleDelete(w http.ResponseWriter, r *http.Request) {
	key, err := keyParam(r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, NewErrorResponse("Invalid key"))
		return
	}

	if err := s.store.Delete([]byte(key)); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, NewSuccessResponse())
}
