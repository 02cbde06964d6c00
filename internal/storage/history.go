package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"
)

// ErrNotFound запись отсутствует в хранилище
var ErrNotFound = errors.New("storage: record not found")

// ErrClosed хранилище уже закрыто
var ErrClosed = errors.New("storage: closed")

const (
	gamePrefix  = "game:"
	indexPrefix = "id:"
)

// Standing итоговое место игрока
type Standing struct {
	Symbol string `json:"symbol"`
	Points int    `json:"points"`
}

// GameRecord итог завершённой игры
type GameRecord struct {
	ID         string     `json:"id"`
	FinishedAt time.Time  `json:"finished_at"`
	Arenas     int        `json:"arenas"`
	Standings  []Standing `json:"standings"`
}

// HistoryStore архив завершённых игр в BadgerDB.
// Записи хранятся под ключом game:<время>:<id>, что даёт порядок по времени.
type HistoryStore struct {
	db      *badger.DB
	mutex   sync.RWMutex
	isReady bool
}

// OpenHistory открывает архив в каталоге dir; пустой dir - архив в памяти
func OpenHistory(dir string) (*HistoryStore, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}
	return &HistoryStore{db: db, isReady: true}, nil
}

// Close закрывает хранилище
func (hs *HistoryStore) Close() error {
	hs.mutex.Lock()
	defer hs.mutex.Unlock()

	if !hs.isReady {
		return nil
	}
	hs.isReady = false
	return hs.db.Close()
}

func recordKey(rec GameRecord) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", gamePrefix, rec.FinishedAt.UnixNano(), rec.ID))
}

// Save сохраняет запись; повторное сохранение с тем же ID заменяет её
func (hs *HistoryStore) Save(rec GameRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("пустой ID записи")
	}

	hs.mutex.RLock()
	defer hs.mutex.RUnlock()
	if !hs.isReady {
		return ErrClosed
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("ошибка сериализации записи: %w", err)
	}

	key := recordKey(rec)
	err = hs.db.Update(func(txn *badger.Txn) error {
		index := []byte(indexPrefix + rec.ID)
		if item, err := txn.Get(index); err == nil {
			old, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := txn.Delete(old); err != nil {
				return err
			}
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		if err := txn.Set(key, data); err != nil {
			return err
		}
		return txn.Set(index, key)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}
	return nil
}

// Get возвращает запись по ID
func (hs *HistoryStore) Get(id string) (GameRecord, error) {
	hs.mutex.RLock()
	defer hs.mutex.RUnlock()

	var rec GameRecord
	if !hs.isReady {
		return rec, ErrClosed
	}

	err := hs.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(indexPrefix + id))
		if err != nil {
			return err
		}
		key, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		item, err = txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return rec, ErrNotFound
	}
	if err != nil {
		return rec, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}
	return rec, nil
}

// Recent возвращает до limit последних записей, новые первыми
func (hs *HistoryStore) Recent(limit int) ([]GameRecord, error) {
	hs.mutex.RLock()
	defer hs.mutex.RUnlock()
	if !hs.isReady {
		return nil, ErrClosed
	}

	records := []GameRecord{}
	err := hs.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(gamePrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		// В обратном порядке итерация начинается с конца диапазона префикса
		for it.Seek([]byte(gamePrefix + "\xff")); it.ValidForPrefix(opts.Prefix); it.Next() {
			if limit > 0 && len(records) >= limit {
				break
			}
			var rec GameRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}
	return records, nil
}
