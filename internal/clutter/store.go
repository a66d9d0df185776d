package clutter

import (
	"fmt"
	"sort"

	"github.com/banshee-data/persistent-clutter/internal/monitoring"
	"github.com/banshee-data/persistent-clutter/internal/radx"
)

// Store holds the first pass accumulators, one per AzElev bucket. Buckets
// are registered from the first volume only; after Freeze the bucket set
// never changes.
type Store struct {
	mapping *Mapping
	infos   map[AzElev]*ClutterInfo
	keys    []AzElev
	frozen  bool
}

// NewStore creates an empty store over mapping.
func NewStore(mapping *Mapping) *Store {
	return &Store{mapping: mapping, infos: make(map[AzElev]*ClutterInfo)}
}

// Mapping returns the store's mapping.
func (s *Store) Mapping() *Mapping { return s.mapping }

// Register maps ray to a bucket, creating the accumulator for a newly added
// pointing. Ambiguous pointings share the first registered bucket.
func (s *Store) Register(ray *radx.Ray) (AzElev, AddResult, error) {
	if s.frozen {
		return AzElev{}, Rejected, fmt.Errorf("store is frozen")
	}
	key, res := s.mapping.Add(ray.AzimuthDeg, ray.ElevationDeg)
	switch res {
	case Rejected:
		monitoring.Logf("[Store] WARNING: no fixed elevation within tolerance of ray az=%.2f elev=%.2f", ray.AzimuthDeg, ray.ElevationDeg)
	case Multi:
		monitoring.Logf("[Store] WARNING: ray az=%.2f elev=%.2f collapses onto existing bucket %s", ray.AzimuthDeg, ray.ElevationDeg, key)
	case Added:
		s.infos[key] = NewClutterInfo(key, ray.StartRangeKm, ray.GateSpacingKm, ray.NGates)
		s.keys = append(s.keys, key)
	}
	return key, res, nil
}

// Freeze stops further registration and sorts the bucket keys.
func (s *Store) Freeze() {
	sort.Slice(s.keys, func(i, j int) bool { return s.keys[i].Less(s.keys[j]) })
	s.frozen = true
}

// Lookup returns the accumulator for a pointing.
func (s *Store) Lookup(az, elev float64) (*ClutterInfo, error) {
	key, ok := s.mapping.Match(az, elev)
	if !ok {
		return nil, fmt.Errorf("%w: az=%.2f elev=%.2f", ErrNoMatch, az, elev)
	}
	info, ok := s.infos[key]
	if !ok {
		return nil, fmt.Errorf("%w: bucket %s", ErrNoMatch, key)
	}
	return info, nil
}

// Get returns the accumulator for a canonical key.
func (s *Store) Get(key AzElev) (*ClutterInfo, bool) {
	info, ok := s.infos[key]
	return info, ok
}

// Len returns the number of buckets.
func (s *Store) Len() int { return len(s.keys) }

// Keys returns the bucket keys in AzElev order once frozen.
func (s *Store) Keys() []AzElev { return append([]AzElev(nil), s.keys...) }

// Infos returns the accumulators in key order.
func (s *Store) Infos() []*ClutterInfo {
	out := make([]*ClutterInfo, len(s.keys))
	for i, k := range s.keys {
		out[i] = s.infos[k]
	}
	return out
}

// NumGates returns the total number of gates over all buckets.
func (s *Store) NumGates() int {
	n := 0
	for _, info := range s.infos {
		n += info.NGates
	}
	return n
}

// NumClutter returns the total number of gates currently flagged.
func (s *Store) NumClutter() int {
	n := 0
	for _, info := range s.infos {
		n += info.NumClutter()
	}
	return n
}
