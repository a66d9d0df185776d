package clutter

import (
	"bytes"
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"time"
)

// BucketState is the persisted state of one first pass accumulator.
type BucketState struct {
	Key           AzElev
	StartRangeKm  float64
	GateSpacingKm float64
	Counts        []int
	Clutter       []bool
}

// Snapshot is a compressed copy of the first pass store.
type Snapshot struct {
	TakenAt      time.Time
	Volumes      int
	KStar        int
	Buckets      int
	Gates        int
	ClutterGates int
	Blob         []byte // gob+gzip of []BucketState
}

// Snapshot captures the current accumulators.
func (fp *FirstPass) Snapshot(now time.Time) (*Snapshot, error) {
	infos := fp.store.Infos()
	states := make([]BucketState, len(infos))
	snap := &Snapshot{TakenAt: now, Volumes: fp.nvol, KStar: fp.kstar, Buckets: len(infos)}
	for i, info := range infos {
		states[i] = BucketState{
			Key:           info.Key,
			StartRangeKm:  info.StartRangeKm,
			GateSpacingKm: info.GateSpacingKm,
			Counts:        info.Counts(),
			Clutter:       info.Flags(),
		}
		snap.Gates += info.NGates
		snap.ClutterGates += info.NumClutter()
	}
	blob, err := encodeBuckets(states)
	if err != nil {
		return nil, err
	}
	snap.Blob = blob
	return snap, nil
}

// Decode returns the bucket states held in the snapshot.
func (s *Snapshot) Decode() ([]BucketState, error) {
	return decodeBuckets(s.Blob)
}

func encodeBuckets(states []BucketState) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if err := gob.NewEncoder(gz).Encode(states); err != nil {
		gz.Close()
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeBuckets(blob []byte) ([]BucketState, error) {
	if len(blob) == 0 {
		return nil, fmt.Errorf("empty snapshot blob")
	}
	gz, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gz.Close()
	var states []BucketState
	if err := gob.NewDecoder(gz).Decode(&states); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return states, nil
}
