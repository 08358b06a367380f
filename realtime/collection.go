package realtime

import (
	"slices"
	"sync"
)

// Collection is the ordered local record sequence.
// At most one record per identity. Replacement keeps the position of the
// replaced record so the rendered order does not shuffle on update.
// Mutation happens only via the reconciler.
type Collection struct {
	mutex   sync.Mutex
	records []*Record
}

func NewCollection() *Collection {
	return &Collection{}
}

func (self *Collection) Len() int {
	self.mutex.Lock()
	defer self.mutex.Unlock()
	return len(self.records)
}

func (self *Collection) Get(identity string) *Record {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	i := self.indexOf(identity)
	if i < 0 {
		return nil
	}
	return self.records[i]
}

// makes a copy of the list so readers never see a partial mutation
func (self *Collection) Records() []*Record {
	self.mutex.Lock()
	defer self.mutex.Unlock()
	return slices.Clone(self.records)
}

func (self *Collection) upsert(record *Record) (replaced bool) {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	i := self.indexOf(record.Identity)
	if 0 <= i {
		self.records[i] = record
		return true
	}
	self.records = append(self.records, record)
	return false
}

func (self *Collection) remove(identity string) bool {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	i := self.indexOf(identity)
	if i < 0 {
		// not present
		return false
	}
	self.records = slices.Delete(self.records, i, i+1)
	return true
}

func (self *Collection) indexOf(identity string) int {
	return slices.IndexFunc(self.records, func(record *Record) bool {
		return record.Identity == identity
	})
}
