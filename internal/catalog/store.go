package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"addon_engine/internal/model"
)

// Store 持有静态目录数据，加载后只读，可以被多个会话并发读取
type Store struct {
	columns    []string
	items      []*model.CatalogItem
	byCategory map[int][]*model.CatalogItem
}

// Load 从 CSV/TSV 文件加载目录
func Load(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer f.Close()

	comma := ','
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		comma = '\t'
	}
	return parse(f, path, comma)
}

// Parse 从 reader 解析逗号分隔的目录数据，name 仅用于错误信息
func Parse(r io.Reader, name string) (*Store, error) {
	return parse(r, name, ',')
}

func parse(r io.Reader, name string, comma rune) (*Store, error) {
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, &LoadError{Path: name, Err: err}
	}
	if len(rows) == 0 {
		return nil, &LoadError{Path: name, Err: errors.New("empty file")}
	}

	header := make([]string, len(rows[0]))
	for i, cell := range rows[0] {
		header[i] = cleanCell(cell)
	}
	catCol := findColumn(header, model.ColItemCategory)
	priceCol := findColumn(header, model.ColItemPrice)
	if catCol < 0 {
		return nil, &LoadError{Path: name, Err: fmt.Errorf("missing required column %q", model.ColItemCategory)}
	}
	if priceCol < 0 {
		return nil, &LoadError{Path: name, Err: fmt.Errorf("missing required column %q", model.ColItemPrice)}
	}

	s := &Store{
		columns:    header,
		items:      make([]*model.CatalogItem, 0, len(rows)-1),
		byCategory: make(map[int][]*model.CatalogItem),
	}
	for n, row := range rows[1:] {
		line := n + 2
		if catCol >= len(row) || priceCol >= len(row) {
			return nil, &LoadError{Path: name, Err: fmt.Errorf("line %d: too few columns", line)}
		}
		category, err := parseCategory(cleanCell(row[catCol]))
		if err != nil {
			return nil, &LoadError{Path: name, Err: fmt.Errorf("line %d: %w", line, err)}
		}
		price, err := strconv.ParseFloat(cleanCell(row[priceCol]), 64)
		if err != nil || price <= 0 || math.IsInf(price, 0) || math.IsNaN(price) {
			return nil, &LoadError{Path: name, Err: fmt.Errorf("line %d: invalid %s %q", line, model.ColItemPrice, row[priceCol])}
		}

		item := &model.CatalogItem{
			Index:    len(s.items),
			Category: category,
			Price:    price,
			Features: make(map[string]float64, len(header)),
		}
		for i, col := range header {
			if i == catCol || i == priceCol || i >= len(row) || col == "" {
				continue
			}
			// 非数值或空单元格视为缺失
			v, err := strconv.ParseFloat(cleanCell(row[i]), 64)
			if err != nil || math.IsNaN(v) {
				continue
			}
			item.Features[col] = v
		}
		s.items = append(s.items, item)
		s.byCategory[category] = append(s.byCategory[category], item)
	}

	if len(s.items) == 0 {
		return nil, &LoadError{Path: name, Err: errors.New("no data rows")}
	}
	return s, nil
}

// Len 返回商品数量
func (s *Store) Len() int { return len(s.items) }

// Columns 返回源文件的表头
func (s *Store) Columns() []string {
	out := make([]string, len(s.columns))
	copy(out, s.columns)
	return out
}

// Categories 返回目录中出现过的品类编码 (升序)
func (s *Store) Categories() []int {
	out := make([]int, 0, len(s.byCategory))
	for c := range s.byCategory {
		out = append(out, c)
	}
	sort.Ints(out)
	return out
}

// SamplePrice 从指定品类的商品中均匀随机选取一个价格
// 随机源由调用方注入，保证测试可复现
func (s *Store) SamplePrice(category int, rng *rand.Rand) (float64, error) {
	items := s.byCategory[category]
	if len(items) == 0 {
		return 0, &EmptyCategoryError{Category: category}
	}
	return items[rng.Intn(len(items))].Price, nil
}

// SampleCandidates 以给定种子确定性地抽取 n 个候选商品，返回顺序即采样顺序
// 目录商品数少于 n 时返回全部商品 (同样按采样顺序)，不视为错误
func (s *Store) SampleCandidates(n int, seed int64) []*model.CatalogItem {
	if n <= 0 {
		return nil
	}
	perm := rand.New(rand.NewSource(seed)).Perm(len(s.items)) //nolint:gosec // 采样无需加密随机
	if n > len(perm) {
		n = len(perm)
	}
	out := make([]*model.CatalogItem, n)
	for i := 0; i < n; i++ {
		out[i] = s.items[perm[i]]
	}
	return out
}

func parseCategory(cell string) (int, error) {
	if c, err := strconv.Atoi(cell); err == nil && c > 0 && c <= math.MaxInt32 {
		return c, nil
	}
	// 兼容 "2.0" 这种由数据处理工具写出的整数
	f, err := strconv.ParseFloat(cell, 64)
	if err != nil || f <= 0 || f > math.MaxInt32 || f != math.Trunc(f) {
		return 0, fmt.Errorf("invalid %s %q", model.ColItemCategory, cell)
	}
	return int(f), nil
}

func cleanCell(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "\ufeff")
	return v
}

func findColumn(header []string, name string) int {
	for i, col := range header {
		if strings.EqualFold(col, name) {
			return i
		}
	}
	return -1
}
