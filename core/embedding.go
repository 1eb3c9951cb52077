package core

// ItemCatalog 是物品 embedding 目录：N 个定长实数向量，行号即物品 ID。
// 行主序扁平存储，重排批次内只读共享，构造完成后不可再修改。
type ItemCatalog struct {
	data []float64
	n    int // 物品数
	dim  int // 向量维度
}

// NewItemCatalog 由二维切片构造目录，要求所有向量维度一致且非空。
// 维度不一致返回 DIMENSION_MISMATCH。
func NewItemCatalog(vectors [][]float64) (*ItemCatalog, error) {
	if len(vectors) == 0 {
		return &ItemCatalog{}, nil
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, NewDomainError(ModuleRerank, ErrorCodeDimensionMismatch, "item vector dimension must be >= 1")
	}
	data := make([]float64, 0, len(vectors)*dim)
	for i, v := range vectors {
		if len(v) != dim {
			return nil, NewDomainErrorf(ModuleRerank, ErrorCodeDimensionMismatch,
				"item %d has dimension %d, expected %d", i, len(v), dim)
		}
		data = append(data, v...)
	}
	return &ItemCatalog{data: data, n: len(vectors), dim: dim}, nil
}

// NewItemCatalogFromFlat 由行主序扁平数据构造目录（零拷贝，调用方不得再写入 data）。
func NewItemCatalogFromFlat(data []float64, n, dim int) (*ItemCatalog, error) {
	if n < 0 || dim <= 0 || len(data) != n*dim {
		return nil, NewDomainErrorf(ModuleRerank, ErrorCodeDimensionMismatch,
			"flat catalog size %d does not match %d x %d", len(data), n, dim)
	}
	return &ItemCatalog{data: data, n: n, dim: dim}, nil
}

// Len 返回物品数 N。
func (c *ItemCatalog) Len() int { return c.n }

// Dim 返回向量维度 D。
func (c *ItemCatalog) Dim() int { return c.dim }

// Vector 返回物品 i 的 embedding 向量（对底层数据的切片，调用方只读）。
func (c *ItemCatalog) Vector(i int) []float64 {
	return c.data[i*c.dim : (i+1)*c.dim]
}

// ScoreMatrix 是 U×N 的相关性分数矩阵：行是用户，列是物品。
// 每次请求新建，消费后丢弃，不做持久化。
type ScoreMatrix struct {
	data  []float64
	users int
	items int
}

// NewScoreMatrix 创建全零的 U×N 分数矩阵。
func NewScoreMatrix(users, items int) *ScoreMatrix {
	return &ScoreMatrix{
		data:  make([]float64, users*items),
		users: users,
		items: items,
	}
}

// Users 返回用户数 U。
func (m *ScoreMatrix) Users() int { return m.users }

// Items 返回物品数 N（列数）。
func (m *ScoreMatrix) Items() int { return m.items }

// Row 返回用户 u 的分数行（对底层数据的切片）。
func (m *ScoreMatrix) Row(u int) []float64 {
	return m.data[u*m.items : (u+1)*m.items]
}

// ValidateAgainst 校验分数矩阵的列数与目录的物品数一致。
func (m *ScoreMatrix) ValidateAgainst(catalog *ItemCatalog) error {
	if catalog == nil {
		return NewDomainError(ModuleRerank, ErrorCodeInvalidInput, "item catalog is nil")
	}
	if m.items != catalog.Len() {
		return NewDomainErrorf(ModuleRerank, ErrorCodeDimensionMismatch,
			"score matrix has %d columns, catalog has %d items", m.items, catalog.Len())
	}
	return nil
}
