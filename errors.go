package caskdb

import (
	"errors"

	"caskdb/data"
)

var (
	ErrDBClosed       = errors.New("the database is closed")
	ErrCorruption     = errors.New("the data file does not hold the record the index points to")
	ErrInvalidOptions = errors.New("invalid options")
	// ErrDataFileBroken 一次失败的写入没能回滚，重新打开数据库之前拒绝写入
	ErrDataFileBroken = errors.New("the data file could not be rolled back after a failed write, reopen the database")

	// ErrEncoding 时间戳、key 或 value 的长度超过 32 位，在任何 I/O 之前返回
	ErrEncoding = data.ErrEncoding
	// ErrTruncatedRecord 记录声明的长度超出了可用的字节
	ErrTruncatedRecord = data.ErrTruncatedRecord
)
