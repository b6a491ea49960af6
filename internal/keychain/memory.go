package keychain

import (
	"bytes"
	"sync"
)

// Op names a Backend method for failure injection.
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	OpFind   Op = "find"
)

// Record is a stored item as held by MemoryBackend.
type Record struct {
	Class       ItemClass
	Service     string
	AccessGroup string
	Generic     []byte
	Account     []byte
	Data        []byte
	Accessible  Token
}

// MemoryBackend is an in-memory Backend for tests. Unset query attributes
// match any record, except the access group: an empty group matches only
// records written without one, so each namespace and group pair is a
// disjoint partition.
type MemoryBackend struct {
	mu       sync.Mutex
	records  []*Record
	failures map[Op]Status
}

// NewMemoryBackend creates an empty backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{failures: make(map[Op]Status)}
}

// Fail makes every later call to op return status. StatusSuccess clears it.
func (m *MemoryBackend) Fail(op Op, status Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if status == StatusSuccess {
		delete(m.failures, op)
		return
	}
	m.failures[op] = status
}

func (m *MemoryBackend) Insert(q Query) Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.failures[OpInsert]; ok {
		return st
	}

	for _, r := range m.records {
		if r.Class == q.Class && r.Service == q.Service &&
			r.AccessGroup == q.AccessGroup && bytes.Equal(r.Account, q.Account) {
			return StatusDuplicateItem
		}
	}
	m.records = append(m.records, &Record{
		Class:       q.Class,
		Service:     q.Service,
		AccessGroup: q.AccessGroup,
		Generic:     clone(q.Generic),
		Account:     clone(q.Account),
		Data:        clone(q.Data),
		Accessible:  q.Accessible,
	})
	return StatusSuccess
}

func (m *MemoryBackend) Update(match Query, data []byte) Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.failures[OpUpdate]; ok {
		return st
	}

	found := false
	for _, r := range m.records {
		if matches(r, match) {
			r.Data = clone(data)
			found = true
		}
	}
	if !found {
		return StatusItemNotFound
	}
	return StatusSuccess
}

func (m *MemoryBackend) Delete(q Query) Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.failures[OpDelete]; ok {
		return st
	}

	kept := m.records[:0]
	for _, r := range m.records {
		if !matches(r, q) {
			kept = append(kept, r)
		}
	}
	removed := len(m.records) - len(kept)
	for i := len(kept); i < len(m.records); i++ {
		m.records[i] = nil
	}
	m.records = kept
	if removed == 0 {
		return StatusItemNotFound
	}
	return StatusSuccess
}

func (m *MemoryBackend) Find(q Query) (Status, *Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.failures[OpFind]; ok {
		return st, nil
	}

	for _, r := range m.records {
		if !matches(r, q) {
			continue
		}
		res := &Result{}
		if q.ReturnData {
			res.Data = clone(r.Data)
		}
		if q.ReturnAttributes {
			res.Accessible = r.Accessible
		}
		return StatusSuccess, res
	}
	return StatusItemNotFound, nil
}

// Records returns copies of every stored record.
func (m *MemoryBackend) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, 0, len(m.records))
	for _, r := range m.records {
		cp := *r
		cp.Generic = clone(r.Generic)
		cp.Account = clone(r.Account)
		cp.Data = clone(r.Data)
		out = append(out, cp)
	}
	return out
}

func matches(r *Record, q Query) bool {
	if q.Class != "" && r.Class != q.Class {
		return false
	}
	if q.Service != "" && r.Service != q.Service {
		return false
	}
	if r.AccessGroup != q.AccessGroup {
		return false
	}
	if q.Generic != nil && !bytes.Equal(r.Generic, q.Generic) {
		return false
	}
	if q.Account != nil && !bytes.Equal(r.Account, q.Account) {
		return false
	}
	if q.Accessible != "" && r.Accessible != q.Accessible {
		return false
	}
	return true
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
