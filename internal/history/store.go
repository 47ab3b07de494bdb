package history

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// Record 代表一条曝光记录：某一步推荐中展示给用户的一个商品
type Record struct {
	SessionID string  `json:"session_id"`
	Step      int     `json:"step"` // 推荐时购物车中的商品数
	Category  int     `json:"category"`
	Price     float64 `json:"price"`
	Rank      int     `json:"rank"`
	Score     float64 `json:"score"`
	Timestamp int64   `json:"timestamp"`
}

// Store 定义曝光记录存储接口
type Store interface {
	// Recent 获取会话最近 N 天的曝光记录
	Recent(sessionID string, days int) ([]Record, error)
	// Save 保存一批曝光记录
	Save(records []Record) error
}

// FileStore 基于 JSONL 文件的曝光存储实现
type FileStore struct {
	filePath string
	mu       sync.RWMutex
	records  []Record // 内存缓存，用于快速查询
	now      func() time.Time
}

// NewFileStore 创建一个新的 FileStore
// 如果文件不存在，会自动创建
func NewFileStore(filePath string) (*FileStore, error) {
	fs := &FileStore{
		filePath: filePath,
		records:  make([]Record, 0),
		now:      time.Now,
	}

	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history dir: %w", err)
		}
	}
	if err := fs.load(); err != nil {
		return nil, err
	}

	return fs, nil
}

// load 从文件加载所有记录到内存
func (s *FileStore) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.filePath, os.O_RDONLY|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open history file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var record Record
		if err := json.Unmarshal(line, &record); err != nil {
			// 忽略损坏的行
			continue
		}
		s.records = append(s.records, record)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to scan history file: %w", err)
	}

	return nil
}

// Recent 获取会话最近 N 天的曝光记录，按写入顺序返回
func (s *FileStore) Recent(sessionID string, days int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := s.now().Unix() - int64(days*24*60*60)

	var result []Record
	for _, r := range s.records {
		if r.SessionID == sessionID && r.Timestamp >= cutoff {
			result = append(result, r)
		}
	}

	return result, nil
}

// Save 追加记录到文件和内存，未设置时间戳的记录使用当前时间
func (s *FileStore) Save(records []Record) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.filePath, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open history file for appending: %w", err)
	}
	defer f.Close()

	now := s.now().Unix()
	encoder := json.NewEncoder(f)

	for _, record := range records {
		if record.Timestamp == 0 {
			record.Timestamp = now
		}
		if err := encoder.Encode(record); err != nil {
			return fmt.Errorf("failed to write history record: %w", err)
		}
		s.records = append(s.records, record)
	}

	return nil
}

// Cleanup 删除超过 days 天的记录，并重写文件
func (s *FileStore) Cleanup(days int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Unix() - int64(days*24*60*60)

	kept := make([]Record, 0, len(s.records))
	for _, r := range s.records {
		if r.Timestamp >= cutoff {
			kept = append(kept, r)
		}
	}

	// 先写临时文件再 rename，避免写到一半留下损坏的文件
	tmp, err := os.CreateTemp(filepath.Dir(s.filePath), ".history-*.jsonl")
	if err != nil {
		return fmt.Errorf("failed to create temp history file: %w", err)
	}
	tmpName := tmp.Name()

	w := bufio.NewWriter(tmp)
	encoder := json.NewEncoder(w)
	for _, r := range kept {
		if err := encoder.Encode(r); err != nil {
			tmp.Close()
			os.Remove(tmpName)
			return fmt.Errorf("failed to write history record: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to flush history file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close history file: %w", err)
	}
	if err := os.Rename(tmpName, s.filePath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace history file: %w", err)
	}

	s.records = kept
	return nil
}
