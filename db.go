package caskdb

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"caskdb/data"
	"caskdb/index"

	"github.com/sirupsen/logrus"
)

// DB bitcask 存储引擎实例。一个实例独占一个追加写的数据文件和它的内存索引。
// 所有 key 都常驻内存，索引大小随 key 的数量线性增长。
type DB struct {
	options     Options
	mu          *sync.RWMutex
	dataFile    *data.DataFile // 唯一的数据文件，既用于追加写也用于读
	index       index.Indexer  // 内存索引
	reclaimSize int64          // 已经失效的记录占用的字节数
	isClosed    bool
	// 写入失败且回滚也失败时记录下来，此后文件末尾的状态未知，拒绝所有写入直到重新打开
	writeErr    error
	log         logrus.FieldLogger
}

// Stat 存储引擎的统计信息
type Stat struct {
	KeyNum          int   // key 的总数量
	DataFileSize    int64 // 数据文件的大小，即写入位置
	ReclaimableSize int64 // 被覆盖的记录和墓碑占用的字节数
}

// Open 打开bitcask存储引擎实例
func Open(options Options) (*DB, error) {
	// 校验
	if err := checkOptions(options); err != nil {
		return nil, err
	}
	if options.Clock == nil {
		options.Clock = DefaultOptions.Clock
	}
	logger := options.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	logger = logger.WithField("path", options.Path)

	if dir := filepath.Dir(options.Path); dir != "" {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dataFile, err := data.OpenDataFile(options.Path)
	if err != nil {
		return nil, err
	}

	db := &DB{
		options:  options,
		mu:       &sync.RWMutex{},
		dataFile: dataFile,
		index:    index.NewIndexer(options.IndexType),
		log:      logger,
	}

	// 遍历文件中所有记录，并更新到内存索引中
	if err := db.loadIndexFromDataFile(); err != nil {
		_ = dataFile.Close()
		return nil, err
	}

	return db, nil
}

// Put 写入KV数据。value 为空时写入墓碑值，等同于 Delete。
func (db *DB) Put(key []byte, value []byte) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.isClosed {
		return ErrDBClosed
	}
	if db.writeErr != nil {
		return fmt.Errorf("%w: %w", ErrDataFileBroken, db.writeErr)
	}

	ts := db.options.Clock().Unix()
	if ts < 0 {
		return fmt.Errorf("%w: timestamp %d", ErrEncoding, ts)
	}
	encRecord, err := data.EncodeLogRecord(uint64(ts), key, value)
	if err != nil {
		return err
	}

	pos, err := db.appendLogRecord(encRecord)
	if err != nil {
		return err
	}
	pos.Timestamp = uint32(ts)

	// 落盘之后才更新内存索引
	if len(value) == 0 {
		if old, ok := db.index.Delete(key); ok {
			db.reclaimSize += old.Size
		}
		db.reclaimSize += pos.Size
		return nil
	}

	k := make([]byte, len(key))
	copy(k, key)
	if old := db.index.Put(k, pos); old != nil {
		db.reclaimSize += old.Size
	}
	return nil
}

// Delete 根据 key 删除数据，追加一条墓碑记录
func (db *DB) Delete(key []byte) error {
	return db.Put(key, nil)
}

// Get 根据 key 读取数据。key 不存在时返回 found == false 且 err == nil。
// 读不到完整的记录时返回的 error 同时匹配 ErrCorruption 和底层的 I/O 错误
// （io.EOF 或 io.ErrUnexpectedEOF），可以分别用 errors.Is 判断。
func (db *DB) Get(key []byte) ([]byte, bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if db.isClosed {
		return nil, false, ErrDBClosed
	}

	// 从内存中获取key的索引信息，如果内存中无索引则key不存在
	pos := db.index.Get(key)
	if pos == nil {
		return nil, false, nil
	}

	// 根据偏移量读取整条记录
	buf, err := db.dataFile.ReadAt(pos.Offset, pos.Size)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, false, fmt.Errorf("%w: read %d bytes at offset %d: %w", ErrCorruption, pos.Size, pos.Offset, err)
		}
		return nil, false, fmt.Errorf("read record at offset %d: %w", pos.Offset, err)
	}
	logRecord, err := data.DecodeLogRecord(buf, 0)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrCorruption, err)
	}
	return logRecord.Value, true, nil
}

// ListKeys 获取数据库中所有的 key
func (db *DB) ListKeys() [][]byte {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if db.isClosed {
		return nil
	}
	return db.index.Keys()
}

// Stat 返回数据库的相关统计信息
func (db *DB) Stat() Stat {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if db.isClosed {
		return Stat{}
	}
	return Stat{
		KeyNum:          db.index.Size(),
		DataFileSize:    db.dataFile.WriteOff,
		ReclaimableSize: db.reclaimSize,
	}
}

// Sync 持久化数据文件
func (db *DB) Sync() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.isClosed {
		return ErrDBClosed
	}
	if db.writeErr != nil {
		return fmt.Errorf("%w: %w", ErrDataFileBroken, db.writeErr)
	}
	return db.dataFile.Sync()
}

// Close 持久化并关闭数据文件，丢弃内存索引。关闭之后实例不能再使用。
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.isClosed {
		return ErrDBClosed
	}
	db.isClosed = true
	db.index = nil

	syncErr := db.dataFile.Sync()
	if err := db.dataFile.Close(); err != nil {
		db.log.WithError(err).Error("close data file failed")
		return fmt.Errorf("close data file: %w", err)
	}
	return syncErr
}

// 追加写数据到数据文件中，删除也用的这个。调用方必须持有写锁。
// 写入或持久化失败时把文件截断回写入之前的位置，内存索引不会被更新。
// 截断也失败时文件末尾可能残留半条记录，WriteOff 不再等于文件长度，之后的写入全部拒绝。
func (db *DB) appendLogRecord(encRecord []byte) (*data.LogRecordPos, error) {
	writeOff := db.dataFile.WriteOff

	err := db.dataFile.Write(encRecord)
	// 根据用户配置决定是否持久化
	if err == nil && db.options.SyncWrites {
		err = db.dataFile.Sync()
	}
	if err != nil {
		db.rollback(writeOff, err)
		return nil, err
	}

	return &data.LogRecordPos{
		Offset: writeOff,
		Size:   int64(len(encRecord)),
	}, nil
}

func (db *DB) rollback(writeOff int64, cause error) {
	logger := db.log.WithFields(logrus.Fields{
		"offset": writeOff,
		"cause":  cause,
	})
	if err := db.dataFile.Truncate(writeOff); err != nil {
		db.writeErr = fmt.Errorf("roll back append at %d: %w", writeOff, err)
		logger.WithError(err).Error("roll back failed append, rejecting further writes")
		return
	}
	logger.Warn("rolled back failed append")
}

// 遍历文件中所有记录，并更新到内存索引中。
// 记录严格按照偏移量递增的顺序处理，同一个 key 后写入的记录总是覆盖先写入的。
func (db *DB) loadIndexFromDataFile() error {
	var records int
	end, err := db.dataFile.ForEachRecord(func(header *data.LogRecordHeader, key []byte, offset int64) error {
		records++
		size := header.RecordSize()

		if header.ValueSize == 0 {
			if old, ok := db.index.Delete(key); ok {
				db.reclaimSize += old.Size
			}
			db.reclaimSize += size
			return nil
		}

		// key 的缓冲区会被复用，必须拷贝
		k := make([]byte, len(key))
		copy(k, key)
		pos := &data.LogRecordPos{
			Timestamp: header.Timestamp,
			Offset:    offset,
			Size:      size,
		}
		if old := db.index.Put(k, pos); old != nil {
			db.reclaimSize += old.Size
		}
		return nil
	})

	if err != nil {
		if !errors.Is(err, data.ErrTruncatedRecord) || !db.options.TruncateTornTail {
			return err
		}
		db.log.WithFields(logrus.Fields{
			"offset":    end,
			"discarded": db.dataFile.WriteOff - end,
		}).WithError(err).Warn("truncating torn record at the end of the data file")
		if err := db.dataFile.Truncate(end); err != nil {
			return err
		}
	}
	db.dataFile.WriteOff = end

	db.log.WithFields(logrus.Fields{
		"records": records,
		"keys":    db.index.Size(),
		"size":    end,
	}).Info("data file loaded")
	return nil
}

func checkOptions(options Options) error {
	if options.Path == "" {
		return fmt.Errorf("%w: the database file path is empty", ErrInvalidOptions)
	}
	if !index.Valid(options.IndexType) {
		return fmt.Errorf("%w: unsupported index type %d", ErrInvalidOptions, options.IndexType)
	}
	return nil
}
