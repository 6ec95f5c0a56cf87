package index

import (
	"bytes"

	"caskdb/data"

	"github.com/google/btree"
)

// Indexer 抽象索引接口，即 KeyDir。key 到它最新一条记录位置的映射，只存在于内存中。
// 实现只需要保证 key 的唯一性，不要求有序，也不支持范围查询。
type Indexer interface {
	// Put 向索引中存储 key 对应的数据的位置信息，返回被覆盖的旧位置
	Put(key []byte, pos *data.LogRecordPos) *data.LogRecordPos

	// Get 根据 key 取出对应的索引位置信息，不存在时返回 nil
	Get(key []byte) *data.LogRecordPos

	// Delete 根据 key 删除对应的索引位置信息，返回被删除的位置
	Delete(key []byte) (*data.LogRecordPos, bool)

	// Size 索引中的数据量
	Size() int

	// Keys 索引中所有 key 的拷贝，顺序由具体实现决定
	Keys() [][]byte
}

type IndexType = int8

const (
	HashMap IndexType = iota + 1 // 哈希表索引，默认

	Btree // Btree索引

	ART // Adaptive Radix Tree索引

	SkipList // 跳表索引
)

// NewIndexer 根据类型初始化索引
func NewIndexer(typ IndexType) Indexer {
	switch typ {
	case HashMap:
		return NewHashMap()
	case Btree:
		return NewBTree()
	case ART:
		return NewART()
	case SkipList:
		return NewSkipList()
	default:
		panic("unsupported index type")
	}
}

// Valid 判断索引类型是否受支持
func Valid(typ IndexType) bool {
	return typ >= HashMap && typ <= SkipList
}

type Item struct {
	key []byte
	pos *data.LogRecordPos
}

// 放入btree的item必须要实现这个Less方法，因为btree需要对item进行排序
func (ai *Item) Less(bi btree.Item) bool {
	return bytes.Compare(ai.key, bi.(*Item).key) == -1
}
