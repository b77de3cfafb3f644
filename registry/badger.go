package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v3"
	"github.com/ruteri/android-provisioning-backend/interfaces"
)

const devicePrefix = "devices/"

// BadgerRegistry implements the device registry on an embedded badger store.
// It backs development and test deployments where no Firebase project exists;
// the record layout mirrors the RTDB subtree (one JSON object per device).
type BadgerRegistry struct {
	db  *badger.DB
	log *slog.Logger
}

// NewBadgerRegistry opens (or creates) the store in dir.
func NewBadgerRegistry(dir string, log *slog.Logger) (*BadgerRegistry, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger registry: %w", err)
	}
	return &BadgerRegistry{db: db, log: log}, nil
}

// Close releases the underlying store.
func (r *BadgerRegistry) Close() error {
	return r.db.Close()
}

// AllDevices returns every device record.
func (r *BadgerRegistry) AllDevices(ctx context.Context) (map[interfaces.DeviceID]interfaces.DeviceRecord, error) {
	devices := make(map[interfaces.DeviceID]interfaces.DeviceRecord)

	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(devicePrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			id := strings.TrimPrefix(string(item.Key()), devicePrefix)

			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}

			var record interfaces.DeviceRecord
			if err := json.Unmarshal(value, &record); err != nil {
				return fmt.Errorf("decoding record for device %s: %w", id, err)
			}
			devices[interfaces.DeviceID(id)] = record
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return devices, nil
}

// DeviceStatus returns the device's status field.
func (r *BadgerRegistry) DeviceStatus(ctx context.Context, id interfaces.DeviceID) (string, error) {
	record, err := r.getRecord(id)
	if err != nil {
		return "", err
	}
	return record.Status(), nil
}

// SendCommand writes the command into the device's record, creating the
// record if absent to match the realtime store's implicit-node behavior.
func (r *BadgerRegistry) SendCommand(ctx context.Context, id interfaces.DeviceID, cmd interfaces.Command) error {
	key := []byte(devicePrefix + id.String())

	err := r.db.Update(func(txn *badger.Txn) error {
		record := interfaces.DeviceRecord{}

		item, err := txn.Get(key)
		if err == nil {
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := json.Unmarshal(value, &record); err != nil {
				return fmt.Errorf("decoding record for device %s: %w", id, err)
			}
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		record["command"] = cmd.String()

		encoded, err := json.Marshal(record)
		if err != nil {
			return err
		}
		return txn.Set(key, encoded)
	})
	if err != nil {
		return fmt.Errorf("sending command to device %s: %w", id, err)
	}

	r.log.Info("Command relayed to device",
		slog.String("device_id", id.String()),
		slog.String("command_type", cmd.Type()))
	return nil
}

// DeleteDevice removes the device's record. Deleting an absent device is not
// an error, matching the realtime store.
func (r *BadgerRegistry) DeleteDevice(ctx context.Context, id interfaces.DeviceID) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(devicePrefix + id.String()))
	})
	if err != nil {
		return fmt.Errorf("deleting device %s: %w", id, err)
	}
	return nil
}

// SetRecord replaces a device's whole record. Used by tests and the embedded
// development flow where no device agent reports on its own.
func (r *BadgerRegistry) SetRecord(ctx context.Context, id interfaces.DeviceID, record interfaces.DeviceRecord) error {
	encoded, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(devicePrefix+id.String()), encoded)
	})
}

func (r *BadgerRegistry) getRecord(id interfaces.DeviceID) (interfaces.DeviceRecord, error) {
	var record interfaces.DeviceRecord

	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(devicePrefix + id.String()))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return interfaces.ErrDeviceNotFound
		}
		if err != nil {
			return err
		}

		value, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return json.Unmarshal(value, &record)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}
