// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package asset

import "container/list"

// store is the committed half of the cache: an LRU list bounded by entry
// count and total bytes. It is not safe for concurrent use; Cache.mu guards
// it.
type store struct {
	maxEntries int
	maxBytes   int64
	size       int64
	ll         *list.List
	items      map[string]*list.Element
}

type entry struct {
	key  string
	data []byte
}

func newStore() *store {
	return &store{
		ll:    list.New(),
		items: make(map[string]*list.Element),
	}
}

// get returns the bytes for key and marks it most recently used.
func (s *store) get(key string) ([]byte, bool) {
	el, ok := s.items[key]
	if !ok {
		return nil, false
	}
	s.ll.MoveToFront(el)
	return el.Value.(*entry).data, true
}

// add commits data under key and evicts from the back until within bounds.
// It reports whether data was committed and how many entries were evicted.
func (s *store) add(key string, data []byte) (bool, int) {
	n := int64(len(data))
	if s.maxBytes > 0 && n > s.maxBytes {
		return false, 0
	}

	if el, ok := s.items[key]; ok {
		e := el.Value.(*entry)
		s.size += n - int64(len(e.data))
		e.data = data
		s.ll.MoveToFront(el)
	} else {
		s.items[key] = s.ll.PushFront(&entry{key: key, data: data})
		s.size += n
	}

	evicted := 0
	for s.over() {
		s.removeOldest()
		evicted++
	}
	return true, evicted
}

func (s *store) over() bool {
	if s.maxEntries > 0 && s.ll.Len() > s.maxEntries {
		return true
	}
	return s.maxBytes > 0 && s.size > s.maxBytes
}

func (s *store) removeOldest() {
	el := s.ll.Back()
	if el == nil {
		return
	}
	e := s.ll.Remove(el).(*entry)
	delete(s.items, e.key)
	s.size -= int64(len(e.data))
}

func (s *store) len() int {
	return s.ll.Len()
}

func (s *store) purge() {
	s.ll.Init()
	s.items = make(map[string]*list.Element)
	s.size = 0
}
