package store

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a record id is absent from its partition.
	ErrNotFound = errors.New("store: not found")
	// ErrCorrupted is returned when a partition payload cannot be decoded.
	ErrCorrupted = errors.New("store: storage corrupted")
)

// CorruptionPolicy decides what a partition read does with an undecodable payload.
type CorruptionPolicy string

const (
	// PolicyReset logs the corruption and treats the partition as empty. The
	// next successful write replaces the broken payload.
	PolicyReset CorruptionPolicy = "reset"
	// PolicyFail surfaces ErrCorrupted to the caller and never overwrites.
	PolicyFail CorruptionPolicy = "fail"
)

// ParseCorruptionPolicy maps configuration strings onto a policy. Empty means reset.
func ParseCorruptionPolicy(raw string) (CorruptionPolicy, error) {
	switch CorruptionPolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", PolicyReset:
		return PolicyReset, nil
	case PolicyFail:
		return PolicyFail, nil
	default:
		return "", fmt.Errorf("store: unknown corruption policy %q", raw)
	}
}

// CorruptedError carries the partition key and decode failure.
type CorruptedError struct {
	Key string
	Err error
}

func (e *CorruptedError) Error() string {
	return fmt.Sprintf("store: partition %q corrupted: %v", e.Key, e.Err)
}

func (e *CorruptedError) Unwrap() []error { return []error{ErrCorrupted, e.Err} }
