package features

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
)

// ErrSchemaMismatch 特征行不满足模型所需的特征契约
var ErrSchemaMismatch = errors.New("feature schema mismatch")

// SchemaMismatchError 指出缺失或非法的列
type SchemaMismatchError struct {
	Column string
	Reason string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("%v: column %q %s", ErrSchemaMismatch, e.Column, e.Reason)
}

func (e *SchemaMismatchError) Is(target error) bool { return target == ErrSchemaMismatch }

// LoadError 特征契约文件缺失或格式错误
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load feature contract %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Contract 是模型要求的有序特征列，加载后不可变
type Contract struct {
	columns []string
	index   map[string]int
}

// NewContract 校验并创建契约：非空且无重复列
func NewContract(columns []string) (*Contract, error) {
	if len(columns) == 0 {
		return nil, errors.New("feature contract is empty")
	}
	c := &Contract{
		columns: make([]string, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for i, col := range columns {
		col = strings.TrimSpace(col)
		if col == "" {
			return nil, fmt.Errorf("feature contract column %d is blank", i)
		}
		if _, dup := c.index[col]; dup {
			return nil, fmt.Errorf("duplicate feature column %q", col)
		}
		c.columns[i] = col
		c.index[col] = i
	}
	return c, nil
}

// LoadContract 从文件加载契约
// .json 文件为字符串数组，其他格式为每行一个列名
func LoadContract(path string) (*Contract, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	var columns []string
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(data, &columns); err != nil {
			return nil, &LoadError{Path: path, Err: err}
		}
	} else {
		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			columns = append(columns, line)
		}
		if err := scanner.Err(); err != nil {
			return nil, &LoadError{Path: path, Err: err}
		}
	}

	c, err := NewContract(columns)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return c, nil
}

// Columns 返回列名副本
func (c *Contract) Columns() []string {
	out := make([]string, len(c.columns))
	copy(out, c.columns)
	return out
}

// Len 返回列数
func (c *Contract) Len() int { return len(c.columns) }

// Has 判断列是否属于契约
func (c *Contract) Has(col string) bool {
	_, ok := c.index[col]
	return ok
}

// Index 返回列在契约中的位置
func (c *Contract) Index(col string) (int, bool) {
	i, ok := c.index[col]
	return i, ok
}

// Project 按契约顺序选取列，缺失、NaN 或无穷值报错，多余列直接丢弃
func (c *Contract) Project(row map[string]float64) ([]float64, error) {
	out := make([]float64, len(c.columns))
	for i, col := range c.columns {
		v, ok := row[col]
		if !ok {
			return nil, &SchemaMismatchError{Column: col, Reason: "is missing"}
		}
		if math.IsNaN(v) {
			return nil, &SchemaMismatchError{Column: col, Reason: "is null"}
		}
		if math.IsInf(v, 0) {
			return nil, &SchemaMismatchError{Column: col, Reason: "is not finite"}
		}
		out[i] = v
	}
	return out, nil
}

// Project 是 Contract.Project 的函数形式
func Project(row map[string]float64, c *Contract) ([]float64, error) {
	return c.Project(row)
}
