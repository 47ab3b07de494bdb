package history

import (
	"fmt"
	"strings"
)

// Backend 是带有清理和关闭能力的曝光存储
type Backend interface {
	Store
	Cleanup(days int) error
	Close() error
}

// Close 文件存储没有需要释放的资源
func (s *FileStore) Close() error { return nil }

// Open 按名称打开曝光存储："file" 使用 JSONL 文件，"badger" 使用 badger 目录
func Open(backend, path string) (Backend, error) {
	switch strings.ToLower(backend) {
	case "", "file":
		return NewFileStore(path)
	case "badger":
		return OpenBadger(path)
	}
	return nil, fmt.Errorf("unknown history backend %q", backend)
}
