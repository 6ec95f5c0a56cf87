package data

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// timestamp keySize valueSize
//
//	4    +   4    +    4    = 12
const LogRecordHeaderSize = 12

var (
	ErrEncoding        = errors.New("log record field exceeds 32 bits")
	ErrTruncatedRecord = errors.New("log record truncated")
)

// LogRecord 写入到数据文件的记录。数据文件中的数据是追加写入的，类似日志格式。
// Value 为空的记录是墓碑值，表示 Key 被删除。
type LogRecord struct {
	Timestamp uint32
	Key       []byte
	Value     []byte
}

// LogRecordHeader 是每条记录固定长度的头部
type LogRecordHeader struct {
	Timestamp uint32 // 写入时间，秒
	KeySize   uint32 // key 的长度
	ValueSize uint32 // value 的长度
}

// LogRecordPos 数据的内存索引，描述数据在磁盘上的位置
type LogRecordPos struct {
	Timestamp uint32 // 记录的写入时间
	Offset    int64  // 记录头部在文件中的偏移量
	Size      int64  // 整条记录的长度 header + key + value
}

// RecordSize 头部描述的整条记录的长度
func (h *LogRecordHeader) RecordSize() int64 {
	return LogRecordHeaderSize + int64(h.KeySize) + int64(h.ValueSize)
}

func (lr *LogRecord) Size() int64 {
	return LogRecordHeaderSize + int64(len(lr.Key)) + int64(len(lr.Value))
}

func (lr *LogRecord) IsTombstone() bool {
	return len(lr.Value) == 0
}

// EncodeLogRecordHeader 对头部进行编码，任何一个字段超过 32 位都会返回 ErrEncoding
func EncodeLogRecordHeader(timestamp, keySize, valueSize uint64) ([]byte, error) {
	if err := checkField("timestamp", timestamp); err != nil {
		return nil, err
	}
	if err := checkField("key size", keySize); err != nil {
		return nil, err
	}
	if err := checkField("value size", valueSize); err != nil {
		return nil, err
	}

	buf := make([]byte, LogRecordHeaderSize)
	putHeader(buf, uint32(timestamp), uint32(keySize), uint32(valueSize))
	return buf, nil
}

// EncodeLogRecord 对记录进行编码：header || key || value，key 与 value 之间没有分隔符
func EncodeLogRecord(timestamp uint64, key, value []byte) ([]byte, error) {
	if err := checkField("timestamp", timestamp); err != nil {
		return nil, err
	}
	if err := checkField("key size", uint64(len(key))); err != nil {
		return nil, err
	}
	if err := checkField("value size", uint64(len(value))); err != nil {
		return nil, err
	}

	buf := make([]byte, LogRecordHeaderSize+len(key)+len(value))
	putHeader(buf, uint32(timestamp), uint32(len(key)), uint32(len(value)))
	n := copy(buf[LogRecordHeaderSize:], key)
	copy(buf[LogRecordHeaderSize+n:], value)
	return buf, nil
}

// DecodeLogRecordHeader 只读取 offset 处固定的 12 字节
func DecodeLogRecordHeader(buf []byte, offset int64) (*LogRecordHeader, error) {
	if offset < 0 || offset > int64(len(buf)) || int64(len(buf))-offset < LogRecordHeaderSize {
		return nil, fmt.Errorf("%w: header at offset %d needs %d bytes, buffer has %d",
			ErrTruncatedRecord, offset, LogRecordHeaderSize, len(buf))
	}

	b := buf[offset : offset+LogRecordHeaderSize]
	return &LogRecordHeader{
		Timestamp: binary.LittleEndian.Uint32(b[0:4]),
		KeySize:   binary.LittleEndian.Uint32(b[4:8]),
		ValueSize: binary.LittleEndian.Uint32(b[8:12]),
	}, nil
}

// DecodeLogRecord 解码 offset 处的完整记录。返回的 Key 和 Value 是拷贝，不引用 buf。
func DecodeLogRecord(buf []byte, offset int64) (*LogRecord, error) {
	header, err := DecodeLogRecordHeader(buf, offset)
	if err != nil {
		return nil, err
	}

	end := offset + header.RecordSize()
	if end > int64(len(buf)) {
		return nil, fmt.Errorf("%w: record at offset %d declares %d bytes, buffer has %d",
			ErrTruncatedRecord, offset, header.RecordSize(), int64(len(buf))-offset)
	}

	keyStart := offset + LogRecordHeaderSize
	valueStart := keyStart + int64(header.KeySize)

	lr := &LogRecord{
		Timestamp: header.Timestamp,
		Key:       make([]byte, header.KeySize),
		Value:     make([]byte, header.ValueSize),
	}
	copy(lr.Key, buf[keyStart:valueStart])
	copy(lr.Value, buf[valueStart:end])
	return lr, nil
}

func putHeader(buf []byte, timestamp, keySize, valueSize uint32) {
	binary.LittleEndian.PutUint32(buf[0:4], timestamp)
	binary.LittleEndian.PutUint32(buf[4:8], keySize)
	binary.LittleEndian.PutUint32(buf[8:12], valueSize)
}

func checkField(name string, v uint64) error {
	if v > math.MaxUint32 {
		return fmt.Errorf("%w: %s %d", ErrEncoding, name, v)
	}
	return nil
}
