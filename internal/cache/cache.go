package cache

import (
	"sync"
	"time"

	"chargeampsd/internal/models"
)

// ConnectorKey identifies one connector on one charge point.
type ConnectorKey struct {
	ChargePointID string
	ConnectorID   int
}

// Snapshot is a charge point status together with the time it was fetched.
type Snapshot struct {
	Status    models.ChargePointStatus
	FetchedAt time.Time
}

// Cache holds the last known state per charge point. It is written only by
// the poll handler and read by sensors and the HTTP API. Entries live for
// the process lifetime and are replaced wholesale, never merged, so a
// reader always sees a snapshot from a single fetch.
type Cache struct {
	mu         sync.RWMutex
	info       map[string]models.ChargePoint
	status     map[string]Snapshot
	connectors map[ConnectorKey]models.ConnectorStatus
}

func New() *Cache {
	return &Cache{
		info:       make(map[string]models.ChargePoint),
		status:     make(map[string]Snapshot),
		connectors: make(map[ConnectorKey]models.ConnectorStatus),
	}
}

func (c *Cache) SetInfo(cp models.ChargePoint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.info[cp.ID] = cp
}

func (c *Cache) Info(id string) (models.ChargePoint, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cp, ok := c.info[id]
	return cp, ok
}

// SetStatus replaces the status snapshot for one charge point and all of its
// derived per-connector entries under a single lock acquisition.
func (c *Cache) SetStatus(id string, st models.ChargePointStatus, fetchedAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status[id] = Snapshot{Status: st, FetchedAt: fetchedAt}
	for key := range c.connectors {
		if key.ChargePointID == id {
			delete(c.connectors, key)
		}
	}
	for _, cs := range st.ConnectorStatuses {
		c.connectors[ConnectorKey{ChargePointID: id, ConnectorID: cs.ConnectorID}] = cs
	}
}

func (c *Cache) Status(id string) (Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.status[id]
	return s, ok
}

func (c *Cache) ConnectorStatus(id string, connectorID int) (models.ConnectorStatus, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cs, ok := c.connectors[ConnectorKey{ChargePointID: id, ConnectorID: connectorID}]
	return cs, ok
}
