package index

import (
	"sync"

	"caskdb/data"

	"github.com/google/btree"
)

// BTree 索引，封装了 google 的 btree kv
// https://github.com/google/btree
type BTree struct {
	tree *btree.BTree
	lock *sync.RWMutex // btree 的写操作不是并发安全的
}

func NewBTree() *BTree {
	return &BTree{
		tree: btree.New(32),
		lock: new(sync.RWMutex),
	}
}

func (bt *BTree) Put(key []byte, pos *data.LogRecordPos) *data.LogRecordPos {
	it := &Item{key: key, pos: pos}
	bt.lock.Lock()
	old := bt.tree.ReplaceOrInsert(it)
	bt.lock.Unlock()
	if old == nil {
		return nil
	}
	return old.(*Item).pos
}

func (bt *BTree) Get(key []byte) *data.LogRecordPos {
	it := &Item{key: key}
	bt.lock.RLock()
	defer bt.lock.RUnlock()

	btreeItem := bt.tree.Get(it)
	if btreeItem == nil {
		return nil
	}
	return btreeItem.(*Item).pos
}

func (bt *BTree) Delete(key []byte) (*data.LogRecordPos, bool) {
	it := &Item{key: key}
	bt.lock.Lock()
	oldItem := bt.tree.Delete(it)
	bt.lock.Unlock()
	if oldItem == nil {
		return nil, false
	}
	return oldItem.(*Item).pos, true
}

func (bt *BTree) Size() int {
	bt.lock.RLock()
	defer bt.lock.RUnlock()
	return bt.tree.Len()
}

func (bt *BTree) Keys() [][]byte {
	bt.lock.RLock()
	defer bt.lock.RUnlock()

	keys := make([][]byte, 0, bt.tree.Len())
	bt.tree.Ascend(func(it btree.Item) bool {
		keys = append(keys, append([]byte(nil), it.(*Item).key...))
		return true
	})
	return keys
}
