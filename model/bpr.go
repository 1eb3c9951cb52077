package model

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"

	"github.com/rushteam/divrec/core"
	"github.com/rushteam/divrec/dataset"
)

// BPRModel 是基于 BPR（Bayesian Personalized Ranking）成对损失的矩阵分解模型。
//
// 核心思想：
//   - 用户与物品各一张 embedding 表，分数 = 用户向量与物品向量的内积
//   - 训练时最大化 正例分数 > 负例分数 的对数似然（成对损失 + L2 正则）
//
// 工程特征：
//   - 实时性：好（离线训练，在线点积）
//   - 计算复杂度：低（向量内积）
//   - 物品 embedding 表直接作为 MMR 重排的相似度目录
type BPRModel struct {
	EmbeddingSize int

	numUsers int64
	numItems int64

	// 行主序扁平 embedding 表
	userEmb []float64
	itemEmb []float64

	rng *rand.Rand
}

// TrainOptions 是 BPR 训练配置。
type TrainOptions struct {
	Epochs       int     `yaml:"epochs" json:"epochs"`
	LearningRate float64 `yaml:"learning_rate" json:"learning_rate"`
	Reg          float64 `yaml:"reg" json:"reg"` // L2 正则系数
	Seed         int64   `yaml:"seed" json:"seed"`

	// OnEpoch 每个 epoch 结束时回调（epoch 序号、平均损失），用于上层打日志。
	OnEpoch func(epoch int, loss float64) `yaml:"-" json:"-"`
}

// DefaultTrainOptions 返回默认训练配置。
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		Epochs:       10,
		LearningRate: 0.05,
		Reg:          0.01,
		Seed:         2024,
	}
}

// NewBPRModel 创建 BPR 模型并按 seed 初始化 embedding（xavier 风格幅度）。
// 相同 seed 的两次构造产出相同的初始参数。
func NewBPRModel(numUsers, numItems int64, embeddingSize int, seed int64) (*BPRModel, error) {
	if numUsers <= 0 || numItems <= 0 {
		return nil, core.NewDomainErrorf(core.ModuleModel, core.ErrorCodeInvalidParameter,
			"user/item counts must be > 0, got %d/%d", numUsers, numItems)
	}
	if embeddingSize <= 0 {
		return nil, core.NewDomainErrorf(core.ModuleModel, core.ErrorCodeInvalidParameter,
			"embedding size must be > 0, got %d", embeddingSize)
	}

	m := &BPRModel{
		EmbeddingSize: embeddingSize,
		numUsers:      numUsers,
		numItems:      numItems,
		userEmb:       make([]float64, numUsers*int64(embeddingSize)),
		itemEmb:       make([]float64, numItems*int64(embeddingSize)),
		rng:           rand.New(rand.NewSource(seed)),
	}
	scale := 1.0 / math.Sqrt(float64(embeddingSize))
	for i := range m.userEmb {
		m.userEmb[i] = m.rng.NormFloat64() * scale
	}
	for i := range m.itemEmb {
		m.itemEmb[i] = m.rng.NormFloat64() * scale
	}
	return m, nil
}

func (m *BPRModel) Name() string { return "bpr" }

// UserEmbedding 返回用户 u 的 embedding 向量（底层数据切片，调用方只读）。
func (m *BPRModel) UserEmbedding(u int64) ([]float64, error) {
	if u < 0 || u >= m.numUsers {
		return nil, core.NewDomainErrorf(core.ModuleModel, core.ErrorCodeNotFound,
			"user %d out of range [0, %d)", u, m.numUsers)
	}
	d := int64(m.EmbeddingSize)
	return m.userEmb[u*d : (u+1)*d], nil
}

// ItemEmbedding 返回物品 i 的 embedding 向量。
func (m *BPRModel) ItemEmbedding(i int64) ([]float64, error) {
	if i < 0 || i >= m.numItems {
		return nil, core.NewDomainErrorf(core.ModuleModel, core.ErrorCodeNotFound,
			"item %d out of range [0, %d)", i, m.numItems)
	}
	d := int64(m.EmbeddingSize)
	return m.itemEmb[i*d : (i+1)*d], nil
}

// Catalog 把物品 embedding 表导出为重排目录（共享底层数据，导出后不应再训练）。
func (m *BPRModel) Catalog() (*core.ItemCatalog, error) {
	return core.NewItemCatalogFromFlat(m.itemEmb, int(m.numItems), m.EmbeddingSize)
}

// FullSortPredict 计算 userIdx 中每个用户对全部物品的内积分数。
func (m *BPRModel) FullSortPredict(ctx context.Context, userIdx []int64) (*core.ScoreMatrix, error) {
	scores := core.NewScoreMatrix(len(userIdx), int(m.numItems))
	d := int64(m.EmbeddingSize)
	for row, u := range userIdx {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ue, err := m.UserEmbedding(u)
		if err != nil {
			return nil, err
		}
		out := scores.Row(row)
		for i := int64(0); i < m.numItems; i++ {
			out[i] = dotProduct(ue, m.itemEmb[i*d:(i+1)*d])
		}
	}
	return scores, nil
}

// Fit 在数据集上做 BPR 成对 SGD 训练。
// 每个 epoch：打乱训练交互，对每条 (u, pos) 采一个负例 neg，按
//
//	x = score(u,pos) − score(u,neg)
//	loss = −log σ(x) + reg·(‖u‖² + ‖pos‖² + ‖neg‖²)
//
// 做一步梯度下降。相同 seed、相同数据两次训练产出相同参数。
func (m *BPRModel) Fit(ctx context.Context, ds *dataset.Dataset, opts TrainOptions) error {
	if ds == nil {
		return core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput, "dataset is nil")
	}
	if ds.NumUsers > m.numUsers || ds.NumItems > m.numItems {
		return core.NewDomainErrorf(core.ModuleModel, core.ErrorCodeDimensionMismatch,
			"dataset %dx%d exceeds model %dx%d", ds.NumUsers, ds.NumItems, m.numUsers, m.numItems)
	}
	if opts.Epochs <= 0 || opts.LearningRate <= 0 {
		return core.NewDomainErrorf(core.ModuleModel, core.ErrorCodeInvalidParameter,
			"epochs and learning_rate must be > 0, got %d/%v", opts.Epochs, opts.LearningRate)
	}

	d := int64(m.EmbeddingSize)
	lr, reg := opts.LearningRate, opts.Reg

	for epoch := 0; epoch < opts.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		sampler := dataset.NewNegativeSampler(ds, opts.Seed+int64(epoch))
		shuffled := sampler.Shuffle(ds.Train)

		var totalLoss float64
		for _, in := range shuffled {
			u, pos := in.UserID, in.ItemID
			neg := sampler.Sample(u)

			ue := m.userEmb[u*d : (u+1)*d]
			pe := m.itemEmb[pos*d : (pos+1)*d]
			ne := m.itemEmb[neg*d : (neg+1)*d]

			x := dotProduct(ue, pe) - dotProduct(ue, ne)
			g := sigmoid(-x) // d(−log σ(x))/dx 的负值
			totalLoss += math.Log1p(math.Exp(-x))

			for k := int64(0); k < d; k++ {
				du := g*(pe[k]-ne[k]) - reg*ue[k]
				dp := g*ue[k] - reg*pe[k]
				dn := -g*ue[k] - reg*ne[k]
				ue[k] += lr * du
				pe[k] += lr * dp
				ne[k] += lr * dn
			}
		}

		if opts.OnEpoch != nil {
			avg := 0.0
			if len(shuffled) > 0 {
				avg = totalLoss / float64(len(shuffled))
			}
			opts.OnEpoch(epoch, avg)
		}
	}
	return nil
}

// bprCheckpoint 是 JSON 检查点的持久化结构。
type bprCheckpoint struct {
	EmbeddingSize int       `json:"embedding_size"`
	NumUsers      int64     `json:"num_users"`
	NumItems      int64     `json:"num_items"`
	UserEmb       []float64 `json:"user_embeddings"`
	ItemEmb       []float64 `json:"item_embeddings"`
}

// Save 把模型参数以 JSON 检查点写入 path。
func (m *BPRModel) Save(path string) error {
	data, err := json.Marshal(bprCheckpoint{
		EmbeddingSize: m.EmbeddingSize,
		NumUsers:      m.numUsers,
		NumItems:      m.numItems,
		UserEmb:       m.userEmb,
		ItemEmb:       m.itemEmb,
	})
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	return nil
}

// LoadBPRModel 从 JSON 检查点恢复模型。
func LoadBPRModel(path string) (*BPRModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}
	var ckpt bprCheckpoint
	if err := json.Unmarshal(data, &ckpt); err != nil {
		return nil, fmt.Errorf("parse checkpoint: %w", err)
	}
	if int64(len(ckpt.UserEmb)) != ckpt.NumUsers*int64(ckpt.EmbeddingSize) ||
		int64(len(ckpt.ItemEmb)) != ckpt.NumItems*int64(ckpt.EmbeddingSize) {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeDimensionMismatch,
			"checkpoint embedding sizes do not match declared shape")
	}
	return &BPRModel{
		EmbeddingSize: ckpt.EmbeddingSize,
		numUsers:      ckpt.NumUsers,
		numItems:      ckpt.NumItems,
		userEmb:       ckpt.UserEmb,
		itemEmb:       ckpt.ItemEmb,
		rng:           rand.New(rand.NewSource(0)),
	}, nil
}

// 确保 BPRModel 实现 core.ScoreProducer 与 EmbeddingModel
var (
	_ core.ScoreProducer = (*BPRModel)(nil)
	_ EmbeddingModel     = (*BPRModel)(nil)
)
