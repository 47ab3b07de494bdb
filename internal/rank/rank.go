package rank

import (
	"sort"

	"addon_engine/internal/model"
)

// TopK 按分数降序排序并截取前 k 个
// 同分时保持输入顺序 (稳定排序)，k <= 0 返回空结果，不修改输入切片
func TopK(cands []*model.Candidate, k int) []*model.Candidate {
	if k <= 0 || len(cands) == 0 {
		return []*model.Candidate{}
	}
	sorted := make([]*model.Candidate, len(cands))
	copy(sorted, cands)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	if k < len(sorted) {
		sorted = sorted[:k]
	}
	return sorted
}
