package rpc

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"sync"

	"caskdb"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
)

// ServiceName net/rpc 注册的服务名
const ServiceName = "BitcaskService"

// GetReply Get 的返回值，Found 为 false 表示 key 不存在
type GetReply struct {
	Value string
	Found bool
}

type BitcaskService struct {
	db  *caskdb.DB
	log logrus.FieldLogger
}

func NewBitcaskService(db *caskdb.DB, logger logrus.FieldLogger) *BitcaskService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &BitcaskService{db: db, log: logger.WithField("component", "rpc")}
}

// Put 按 map 写入多条数据，遇到第一个错误即返回，之前的写入不会回滚
func (b *BitcaskService) Put(kv map[string]string, reply *string) error {
	for key, value := range kv {
		if err := b.db.Put([]byte(key), []byte(value)); err != nil {
			b.log.WithError(err).WithField("key", key).Error("put failed")
			return err
		}
	}
	*reply = "OK"
	return nil
}

func (b *BitcaskService) Get(key string, reply *GetReply) error {
	v, found, err := b.db.Get([]byte(key))
	if err != nil {
		b.log.WithError(err).WithField("key", key).Error("get failed")
		return err
	}
	*reply = GetReply{Value: string(v), Found: found}
	return nil
}

func (b *BitcaskService) Delete(key string, reply *string) error {
	if err := b.db.Delete([]byte(key)); err != nil {
		b.log.WithError(err).WithField("key", key).Error("delete failed")
		return err
	}
	*reply = "OK"
	return nil
}

// ListKeys 返回按字节序排列的所有 key
func (b *BitcaskService) ListKeys(_ struct{}, keys *[]string) error {
	k := b.db.ListKeys()
	slices.SortFunc(k, bytes.Compare)
	*keys = make([]string, 0, len(k))
	for _, key := range k {
		*keys = append(*keys, string(key))
	}
	return nil
}

func (b *BitcaskService) Stat(_ struct{}, stat *caskdb.Stat) error {
	*stat = b.db.Stat()
	return nil
}

// Server 在一个 listener 上提供 BitcaskService
type Server struct {
	rpcServer *rpc.Server
	mu        sync.Mutex
	listener  net.Listener
	log       logrus.FieldLogger
}

func NewServer(db *caskdb.DB, logger logrus.FieldLogger) (*Server, error) {
	service := NewBitcaskService(db, logger)
	rpcServer := rpc.NewServer()
	if err := rpcServer.RegisterName(ServiceName, service); err != nil {
		return nil, fmt.Errorf("register rpc service: %w", err)
	}
	return &Server{rpcServer: rpcServer, log: service.log}, nil
}

// Serve 阻塞直到 listener 被关闭
func (s *Server) Serve(listener net.Listener) error {
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()
	s.log.WithField("addr", listener.Addr().String()).Info("rpc server started")
	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept rpc connection: %w", err)
		}
		go s.rpcServer.ServeConn(conn)
	}
}

func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}
