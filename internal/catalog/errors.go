package catalog

import (
	"errors"
	"fmt"
)

// ErrEmptyCategory 表示请求的品类在目录中没有任何商品
var ErrEmptyCategory = errors.New("no catalog item in category")

// LoadError 表示目录数据缺失或格式错误，属于启动期致命错误
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load catalog %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// EmptyCategoryError 是可恢复错误：调用方应拒绝本次加购操作
type EmptyCategoryError struct {
	Category int
}

func (e *EmptyCategoryError) Error() string {
	return fmt.Sprintf("%v: %d", ErrEmptyCategory, e.Category)
}

func (e *EmptyCategoryError) Is(target error) bool { return target == ErrEmptyCategory }
