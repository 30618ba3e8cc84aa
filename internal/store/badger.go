package store

import (
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/phuslu/log"
)

// BadgerStore keeps values in a Badger database directory
type BadgerStore struct {
	db     *badger.DB
	logger *log.Logger
}

// NewBadgerStore opens (or creates) a Badger database in dir
func NewBadgerStore(dir string, logger *log.Logger) (*BadgerStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Badger's own logger is too chatty for a CLI
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	logger.Debug().Str("path", dir).Msg("Badger state store opened")
	return &BadgerStore{db: db, logger: logger}, nil
}

func (b *BadgerStore) Get(key string) (string, error) {
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get key: %w", err)
	}
	return string(value), nil
}

func (b *BadgerStore) Set(key, value string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("failed to set key: %w", err)
	}
	return nil
}

func (b *BadgerStore) Remove(key string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("failed to remove key: %w", err)
	}
	return nil
}

func (b *BadgerStore) Close() error {
	return b.db.Close()
}
