package detect

import "sync"

// IDGenerator hands out incremental IDs for detections
type IDGenerator struct {
	id int64
	sync.Mutex
}

// NewIDGenerator returns a generator whose first ID is 1
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{}
}

// GetNext returns the next incremental number
func (id *IDGenerator) GetNext() int64 {
	id.Lock()
	defer id.Unlock()
	id.id++
	return id.id
}

// Assign sets an ID on every detection that does not already have one
func (id *IDGenerator) Assign(dets []Detection) {
	for i := range dets {
		if dets[i].ID == 0 {
			dets[i].ID = id.GetNext()
		}
	}
}
