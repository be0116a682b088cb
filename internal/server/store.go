package server

import (
	"sync"

	"github.com/google/uuid"

	"github.com/CK6170/Torquecal-go/models"
)

type configKind string

const (
	kindConfig configKind = "config"
	kindRecord configKind = "record"
)

// ConfigRecord is an uploaded config or a finished calibration record,
// kept verbatim for download.
type ConfigRecord struct {
	ID   string
	Kind configKind
	Raw  []byte
	Cfg  *models.Config
}

type ConfigStore struct {
	mu sync.RWMutex
	m  map[string]*ConfigRecord
}

func NewConfigStore() *ConfigStore {
	return &ConfigStore{m: make(map[string]*ConfigRecord)}
}

// Put stores raw under id, or under a fresh id when id is empty.
func (s *ConfigStore) Put(id string, kind configKind, raw []byte, cfg *models.Config) *ConfigRecord {
	if id == "" {
		id = uuid.NewString()
	}
	rec := &ConfigRecord{ID: id, Kind: kind, Raw: raw, Cfg: cfg}
	s.mu.Lock()
	s.m[id] = rec
	s.mu.Unlock()
	return rec
}

func (s *ConfigStore) Get(id string) (*ConfigRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.m[id]
	return r, ok
}
