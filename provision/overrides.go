package provision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ruteri/android-provisioning-backend/interfaces"
)

// OverrideTableName is the override table's entry name in package storage.
// The table is pretty-printed JSON colocated with the packages so operators
// can inspect and hand-edit it.
const OverrideTableName = "checksums.json"

// OverrideStore is the durable filename -> checksum mapping that lets an
// operator supply a checksum out-of-band (for example the signing-certificate
// checksum from their build pipeline) instead of the computed file hash.
//
// Writes are mutex-serialized read-modify-writes of the whole table; the file
// backend persists with atomic replace-on-write.
type OverrideStore struct {
	storage interfaces.PackageStorage
	mu      sync.Mutex
	log     *slog.Logger
}

// NewOverrideStore creates an override store persisting through storage.
func NewOverrideStore(storage interfaces.PackageStorage, log *slog.Logger) *OverrideStore {
	return &OverrideStore{storage: storage, log: log}
}

// Get returns the stored checksum for a filename. Returns ErrOverrideNotFound
// when no entry exists; a missing backing table is an empty table, not an
// error.
func (s *OverrideStore) Get(ctx context.Context, filename string) (string, error) {
	table, err := s.load(ctx)
	if err != nil {
		return "", err
	}

	value, ok := table[filename]
	if !ok {
		return "", interfaces.ErrOverrideNotFound
	}
	return value, nil
}

// Set creates or overwrites the entry for a filename. Storage failures
// surface to the caller.
func (s *OverrideStore) Set(ctx context.Context, filename, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	table, err := s.load(ctx)
	if err != nil {
		return err
	}
	table[filename] = value

	encoded, err := json.MarshalIndent(table, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding override table: %w", err)
	}
	if err := s.storage.Write(ctx, OverrideTableName, encoded); err != nil {
		return fmt.Errorf("persisting override table: %w", err)
	}

	s.log.Info("Stored checksum override",
		slog.String("filename", filename))
	return nil
}

func (s *OverrideStore) load(ctx context.Context) (map[string]string, error) {
	data, err := s.storage.Read(ctx, OverrideTableName)
	if errors.Is(err, interfaces.ErrFileNotFound) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading override table: %w", err)
	}

	table := map[string]string{}
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("decoding override table: %w", err)
	}
	return table, nil
}
