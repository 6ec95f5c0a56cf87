package index

import (
	"bytes"
	"sync"

	"caskdb/data"

	"github.com/zhangyunhao116/skipmap"
)

// SkipListIndex 基于并发跳表的索引
// https://github.com/zhangyunhao116/skipmap
type SkipListIndex struct {
	m *skipmap.FuncMap[[]byte, *data.LogRecordPos]
	// Put 和 Delete 需要原子地返回旧值
	lock *sync.Mutex
}

func NewSkipList() *SkipListIndex {
	return &SkipListIndex{
		m: skipmap.NewFunc[[]byte, *data.LogRecordPos](func(a, b []byte) bool {
			return bytes.Compare(a, b) < 0
		}),
		lock: new(sync.Mutex),
	}
}

func (sl *SkipListIndex) Put(key []byte, pos *data.LogRecordPos) *data.LogRecordPos {
	sl.lock.Lock()
	defer sl.lock.Unlock()

	old, _ := sl.m.Load(key)
	sl.m.Store(key, pos)
	return old
}

func (sl *SkipListIndex) Get(key []byte) *data.LogRecordPos {
	pos, ok := sl.m.Load(key)
	if !ok {
		return nil
	}
	return pos
}

func (sl *SkipListIndex) Delete(key []byte) (*data.LogRecordPos, bool) {
	sl.lock.Lock()
	defer sl.lock.Unlock()
	return sl.m.LoadAndDelete(key)
}

func (sl *SkipListIndex) Size() int {
	return sl.m.Len()
}

func (sl *SkipListIndex) Keys() [][]byte {
	keys := make([][]byte, 0, sl.m.Len())
	sl.m.Range(func(key []byte, _ *data.LogRecordPos) bool {
		keys = append(keys, append([]byte(nil), key...))
		return true
	})
	return keys
}
