package data

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
)

const scanBufferSize = 64 * 1024

// RecordFn 在恢复扫描时对每条记录调用。key 只在回调期间有效。
type RecordFn func(header *LogRecordHeader, key []byte, offset int64) error

// File 数据文件用到的文件操作，*os.File 实现了它。写入必须是追加写。
type File interface {
	io.ReaderAt
	io.Writer
	io.Closer
	Name() string
	Stat() (os.FileInfo, error)
	Sync() error
	Truncate(size int64) error
}

// DataFile 唯一的追加写数据文件
type DataFile struct {
	file     File
	WriteOff int64 // 下一次追加写的位置，等于文件长度
}

// OpenDataFile 打开数据文件，不存在则创建
func OpenDataFile(path string) (*DataFile, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open data file %s: %w", path, err)
	}
	df, err := NewDataFile(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return df, nil
}

// NewDataFile 用一个已经以追加模式打开的文件构造 DataFile，写入位置取文件当前长度
func NewDataFile(f File) (*DataFile, error) {
	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat data file %s: %w", f.Name(), err)
	}
	return &DataFile{file: f, WriteOff: stat.Size()}, nil
}

func (df *DataFile) Path() string {
	return df.file.Name()
}

// Write 追加写入，只有完整写入后 WriteOff 才前进
func (df *DataFile) Write(buf []byte) error {
	n, err := df.file.Write(buf)
	if err != nil {
		return fmt.Errorf("append %d bytes at %d: %w", len(buf), df.WriteOff, err)
	}
	if n != len(buf) {
		return fmt.Errorf("append %d bytes at %d: %w", len(buf), df.WriteOff, io.ErrShortWrite)
	}
	df.WriteOff += int64(n)
	return nil
}

// Sync 持久化数据文件
func (df *DataFile) Sync() error {
	if err := df.file.Sync(); err != nil {
		return fmt.Errorf("sync data file: %w", err)
	}
	return nil
}

// ReadAt 从 offset 读取正好 n 个字节，读不满时返回 io.ErrUnexpectedEOF 或 io.EOF
func (df *DataFile) ReadAt(offset, n int64) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(io.NewSectionReader(df.file, offset, n), buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadLogRecord 根据偏移量读取一条完整记录，返回记录和它的长度
func (df *DataFile) ReadLogRecord(offset int64) (*LogRecord, int64, error) {
	headerBuf, err := df.ReadAt(offset, LogRecordHeaderSize)
	if err != nil {
		return nil, 0, err
	}
	header, err := DecodeLogRecordHeader(headerBuf, 0)
	if err != nil {
		return nil, 0, err
	}

	buf, err := df.ReadAt(offset, header.RecordSize())
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, 0, err
	}
	lr, err := DecodeLogRecord(buf, 0)
	if err != nil {
		return nil, 0, err
	}
	return lr, header.RecordSize(), nil
}

// ForEachRecord 从偏移量 0 开始按顺序扫描所有记录，只读取头部和 key，value 直接跳过。
// 返回最后一条完整记录的结束位置。文件末尾存在不完整的记录时，返回的 error 包装了 ErrTruncatedRecord。
func (df *DataFile) ForEachRecord(fn RecordFn) (int64, error) {
	stat, err := df.file.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat data file: %w", err)
	}
	size := stat.Size()

	reader := bufio.NewReaderSize(io.NewSectionReader(df.file, 0, size), scanBufferSize)
	headerBuf := make([]byte, LogRecordHeaderSize)
	var key []byte

	var offset int64
	for offset < size {
		if size-offset < LogRecordHeaderSize {
			return offset, fmt.Errorf("%w: %d trailing bytes at offset %d", ErrTruncatedRecord, size-offset, offset)
		}
		if _, err := io.ReadFull(reader, headerBuf); err != nil {
			return offset, fmt.Errorf("read header at %d: %w", offset, err)
		}
		header, err := DecodeLogRecordHeader(headerBuf, 0)
		if err != nil {
			return offset, err
		}

		recordSize := header.RecordSize()
		if offset+recordSize > size {
			return offset, fmt.Errorf("%w: record at offset %d declares %d bytes, %d available",
				ErrTruncatedRecord, offset, recordSize, size-offset)
		}

		if cap(key) < int(header.KeySize) {
			key = make([]byte, header.KeySize)
		}
		key = key[:header.KeySize]
		if _, err := io.ReadFull(reader, key); err != nil {
			return offset, fmt.Errorf("read key at %d: %w", offset, err)
		}
		if _, err := reader.Discard(int(header.ValueSize)); err != nil {
			return offset, fmt.Errorf("skip value at %d: %w", offset, err)
		}

		if err := fn(header, key, offset); err != nil {
			return offset, err
		}
		offset += recordSize
	}
	return offset, nil
}

// Truncate 把文件截断到 size，用于丢弃末尾不完整的记录
func (df *DataFile) Truncate(size int64) error {
	if err := df.file.Truncate(size); err != nil {
		return fmt.Errorf("truncate data file to %d: %w", size, err)
	}
	if err := df.file.Sync(); err != nil {
		return fmt.Errorf("sync data file: %w", err)
	}
	df.WriteOff = size
	return nil
}

func (df *DataFile) Close() error {
	return df.file.Close()
}
