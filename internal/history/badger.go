package history

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

const impressionKeyPrefix = "imp:"

// BadgerStore 基于 badger 的曝光存储，按会话前缀扫描，适合记录量较大的部署
type BadgerStore struct {
	db  *badger.DB
	seq atomic.Uint64
	now func() time.Time
}

// OpenBadger 打开 (或创建) 目录下的 badger 数据库，dir 为空时使用内存模式
func OpenBadger(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	return &BadgerStore{db: db, now: time.Now}, nil
}

// key: imp:<session>:<timestamp>:<seq>，同一会话内按时间有序
func (s *BadgerStore) key(r Record) []byte {
	return []byte(fmt.Sprintf("%s%s:%020d:%010d", impressionKeyPrefix, r.SessionID, r.Timestamp, s.seq.Add(1)))
}

// Save 保存一批曝光记录
func (s *BadgerStore) Save(records []Record) error {
	if len(records) == 0 {
		return nil
	}
	now := s.now().Unix()
	return s.db.Update(func(txn *badger.Txn) error {
		for _, r := range records {
			if r.Timestamp == 0 {
				r.Timestamp = now
			}
			data, err := json.Marshal(r)
			if err != nil {
				return fmt.Errorf("marshal history record: %w", err)
			}
			if err := txn.Set(s.key(r), data); err != nil {
				return fmt.Errorf("set history record: %w", err)
			}
		}
		return nil
	})
}

// Recent 获取会话最近 N 天的曝光记录
func (s *BadgerStore) Recent(sessionID string, days int) ([]Record, error) {
	cutoff := s.now().Unix() - int64(days*24*60*60)
	var result []Record

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(impressionKeyPrefix + sessionID + ":")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var r Record
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			}); err != nil {
				return err
			}
			if r.Timestamp >= cutoff {
				result = append(result, r)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list history records: %w", err)
	}
	return result, nil
}

// Cleanup 删除超过 days 天的记录
func (s *BadgerStore) Cleanup(days int) error {
	cutoff := s.now().Unix() - int64(days*24*60*60)
	var expired [][]byte

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(impressionKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var r Record
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			}); err != nil {
				// 损坏的记录一并删除
				expired = append(expired, item.KeyCopy(nil))
				continue
			}
			if r.Timestamp < cutoff {
				expired = append(expired, item.KeyCopy(nil))
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan history records: %w", err)
	}
	if len(expired) == 0 {
		return nil
	}

	wb := s.db.NewWriteBatch()
	for _, k := range expired {
		if err := wb.Delete(k); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			wb.Cancel()
			return fmt.Errorf("delete history record: %w", err)
		}
	}
	return wb.Flush()
}

// Close 关闭数据库
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
