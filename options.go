package caskdb

import (
	"os"
	"path/filepath"
	"time"

	"caskdb/index"

	"github.com/sirupsen/logrus"
)

type IndexType = index.IndexType

const (
	HashMap IndexType = index.HashMap // 哈希表索引，KeyDir 默认实现

	BTree = index.Btree // Btree索引

	ART = index.ART // Adaptive Radix Tree索引

	SkipList = index.SkipList // 跳表索引
)

type Options struct {
	Path string // 数据文件路径，父目录不存在时会创建

	// 每次写数据后是否 fsync。关闭后 Put 返回时数据可能还未落盘，进程崩溃会丢失最近的写入。
	SyncWrites bool

	IndexType IndexType // 索引类型

	// 启动时文件末尾有不完整的记录（例如写入过程中崩溃）时，截断到最后一条完整记录；
	// 为 false 时 Open 直接返回 ErrTruncatedRecord
	TruncateTornTail bool

	Clock func() time.Time // 记录时间戳的来源，默认 time.Now

	Logger logrus.FieldLogger // 默认 logrus.StandardLogger()
}

var DefaultOptions = Options{
	Path:             filepath.Join(os.TempDir(), "caskdb", "caskdb.data"),
	SyncWrites:       true,
	IndexType:        HashMap,
	TruncateTornTail: true,
	Clock:            time.Now,
}
