package index

import (
	"sync"

	"caskdb/data"
)

// HashMapIndex 基于 Go map 的无序索引
type HashMapIndex struct {
	m    map[string]*data.LogRecordPos
	lock *sync.RWMutex
}

func NewHashMap() *HashMapIndex {
	return &HashMapIndex{
		m:    make(map[string]*data.LogRecordPos),
		lock: new(sync.RWMutex),
	}
}

func (hm *HashMapIndex) Put(key []byte, pos *data.LogRecordPos) *data.LogRecordPos {
	hm.lock.Lock()
	defer hm.lock.Unlock()

	old := hm.m[string(key)]
	hm.m[string(key)] = pos
	return old
}

func (hm *HashMapIndex) Get(key []byte) *data.LogRecordPos {
	hm.lock.RLock()
	defer hm.lock.RUnlock()
	return hm.m[string(key)]
}

func (hm *HashMapIndex) Delete(key []byte) (*data.LogRecordPos, bool) {
	hm.lock.Lock()
	defer hm.lock.Unlock()

	old, ok := hm.m[string(key)]
	if !ok {
		return nil, false
	}
	delete(hm.m, string(key))
	return old, true
}

func (hm *HashMapIndex) Size() int {
	hm.lock.RLock()
	defer hm.lock.RUnlock()
	return len(hm.m)
}

func (hm *HashMapIndex) Keys() [][]byte {
	hm.lock.RLock()
	defer hm.lock.RUnlock()

	keys := make([][]byte, 0, len(hm.m))
	for k := range hm.m {
		keys = append(keys, []byte(k))
	}
	return keys
}
