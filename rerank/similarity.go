package rerank

import (
	"math"

	"github.com/rushteam/divrec/core"
)

// SimilarityMatrix 是 N×N 的物品两两余弦相似度矩阵，取值 [-1, 1]。
// 行主序扁平存储；构造完成后只读，可在用户间无锁并发共享。
// 不变式：At(i,j) == At(j,i)；非零向量时 At(i,i) == 1（浮点误差内）。
type SimilarityMatrix struct {
	data []float64
	n    int
}

// Len 返回物品数 N。
func (s *SimilarityMatrix) Len() int { return s.n }

// At 返回物品 i 与物品 j 的余弦相似度。
func (s *SimilarityMatrix) At(i, j int64) float64 {
	return s.data[i*int64(s.n)+j]
}

// CosineSimilarity 由目录构造相似度矩阵：先对每行做 L2 归一化，再做
// 归一化矩阵与其转置的乘积。目录不随用户变化，一次重排批次内只构造一次。
//
// 零范数向量的余弦相似度无定义，此处选择显式报 DEGENERATE_VECTOR，
// 而不是静默产出 NaN 或回退为 0；上游应在训练/导入时规避全零 embedding。
//
// 复杂度 O(N²·D)，大目录下是整个重排的主要开销。
func CosineSimilarity(catalog *core.ItemCatalog) (*SimilarityMatrix, error) {
	if catalog == nil {
		return nil, core.NewDomainError(core.ModuleRerank, core.ErrorCodeInvalidInput, "item catalog is nil")
	}

	n, dim := catalog.Len(), catalog.Dim()
	if n == 0 {
		return &SimilarityMatrix{n: 0}, nil
	}

	// L2 归一化，norm 为零的行直接报错
	normalized := make([]float64, n*dim)
	for i := 0; i < n; i++ {
		v := catalog.Vector(i)
		var sq float64
		for _, x := range v {
			sq += x * x
		}
		if sq == 0 {
			return nil, core.NewDomainErrorf(core.ModuleRerank, core.ErrorCodeDegenerateVector,
				"item %d has zero-norm vector, cosine similarity undefined", i)
		}
		inv := 1 / math.Sqrt(sq)
		row := normalized[i*dim : (i+1)*dim]
		for k, x := range v {
			row[k] = x * inv
		}
	}

	// sim = normalized · normalizedᵀ，只算上三角后对称填充
	sim := &SimilarityMatrix{data: make([]float64, n*n), n: n}
	for i := 0; i < n; i++ {
		ri := normalized[i*dim : (i+1)*dim]
		sim.data[i*n+i] = 1
		for j := i + 1; j < n; j++ {
			rj := normalized[j*dim : (j+1)*dim]
			var dot float64
			for k := 0; k < dim; k++ {
				dot += ri[k] * rj[k]
			}
			sim.data[i*n+j] = dot
			sim.data[j*n+i] = dot
		}
	}
	return sim, nil
}
