package models

import (
	"errors"
	"time"
)

// ErrEntityMismatch is returned when two snapshots from different entities are compared.
var ErrEntityMismatch = errors.New("snapshots belong to different entities")

// Snapshot is a point-in-time capture of one monitored entity's public state.
// It is immutable once persisted.
type Snapshot struct {
	EntityID      string            `json:"entity_id"`
	CapturedAt    time.Time         `json:"captured_at"`
	Services      []string          `json:"services,omitempty"`
	Pricing       map[string]string `json:"pricing,omitempty"`
	Locations     []string          `json:"locations,omitempty"`
	Promotions    []string          `json:"promotions,omitempty"`
	BusinessInfo  map[string]string `json:"business_info,omitempty"`
	RawPageHashes map[string]string `json:"raw_page_hashes,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// Conventional BusinessInfo keys.
const (
	AboutTextHashKey    = "about_text_hash"
	AboutTextPreviewKey = "about_text_preview"
)

// NewSnapshot creates a snapshot for the given entity, stamping the capture
// time if the caller did not provide one.
func NewSnapshot(entityID string) *Snapshot {
	return &Snapshot{
		EntityID:      entityID,
		CapturedAt:    time.Now().UTC(),
		Pricing:       make(map[string]string),
		BusinessInfo:  make(map[string]string),
		RawPageHashes: make(map[string]string),
		Metadata:      make(map[string]string),
	}
}

// Normalize collapses duplicate members of the set-valued fields,
// keeping first occurrence order.
func (s *Snapshot) Normalize() {
	s.Services = dedupe(s.Services)
	s.Locations = dedupe(s.Locations)
	s.Promotions = dedupe(s.Promotions)
}

// AboutTextHash returns the stored hash of the "about" narrative, empty if unset.
func (s *Snapshot) AboutTextHash() string {
	return s.BusinessInfo[AboutTextHashKey]
}

// AboutTextPreview returns the bounded excerpt of the "about" narrative.
func (s *Snapshot) AboutTextPreview() string {
	return s.BusinessInfo[AboutTextPreviewKey]
}

func dedupe(items []string) []string {
	if len(items) < 2 {
		return items
	}
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
