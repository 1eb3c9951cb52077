// Package dataset 提供交互数据的加载、切分与采样，供模型训练与全量排序评估使用。
package dataset

import (
	"sort"

	"github.com/rushteam/divrec/core"
)

// Interaction 是一条用户-物品交互记录。
type Interaction struct {
	UserID int64
	ItemID int64
	Rating float64
	Ts     int64
}

// Dataset 是切分好的交互数据集。
// NumUsers/NumItems 即 embedding 表的行数；所有交互的 ID 必须落在范围内。
type Dataset struct {
	NumUsers int64
	NumItems int64

	Train []Interaction
	Test  []Interaction

	// trainHistory 是每个用户在训练集中交互过的物品集合，
	// 评估时用于屏蔽已交互物品（全量排序不推荐已看过的物品）。
	trainHistory map[int64]map[int64]bool

	// testItems 是每个用户在测试集中的物品列表（ground truth）。
	testItems map[int64][]int64
}

// New 构建数据集并建立每用户索引；越界 ID 返回 INVALID_INPUT。
func New(numUsers, numItems int64, train, test []Interaction) (*Dataset, error) {
	d := &Dataset{
		NumUsers:     numUsers,
		NumItems:     numItems,
		Train:        train,
		Test:         test,
		trainHistory: make(map[int64]map[int64]bool),
		testItems:    make(map[int64][]int64),
	}

	for _, in := range train {
		if err := d.checkRange(in); err != nil {
			return nil, err
		}
		h, ok := d.trainHistory[in.UserID]
		if !ok {
			h = make(map[int64]bool)
			d.trainHistory[in.UserID] = h
		}
		h[in.ItemID] = true
	}
	for _, in := range test {
		if err := d.checkRange(in); err != nil {
			return nil, err
		}
		d.testItems[in.UserID] = append(d.testItems[in.UserID], in.ItemID)
	}
	return d, nil
}

func (d *Dataset) checkRange(in Interaction) error {
	if in.UserID < 0 || in.UserID >= d.NumUsers {
		return core.NewDomainErrorf(core.ModuleDataset, core.ErrorCodeInvalidInput,
			"user id %d out of range [0, %d)", in.UserID, d.NumUsers)
	}
	if in.ItemID < 0 || in.ItemID >= d.NumItems {
		return core.NewDomainErrorf(core.ModuleDataset, core.ErrorCodeInvalidInput,
			"item id %d out of range [0, %d)", in.ItemID, d.NumItems)
	}
	return nil
}

// TrainHistory 返回用户 u 在训练集中交互过的物品集合（只读，可能为 nil）。
func (d *Dataset) TrainHistory(u int64) map[int64]bool {
	return d.trainHistory[u]
}

// HasTrainInteraction 判断 (u, i) 是否出现在训练集中。
func (d *Dataset) HasTrainInteraction(u, i int64) bool {
	return d.trainHistory[u][i]
}

// TestItems 返回用户 u 的测试集物品列表（ground truth）。
func (d *Dataset) TestItems(u int64) []int64 {
	return d.testItems[u]
}

// EvalUsers 返回所有拥有测试交互的用户，按 ID 升序（保证评估顺序可复现）。
func (d *Dataset) EvalUsers() []int64 {
	users := make([]int64, 0, len(d.testItems))
	for u := range d.testItems {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	return users
}

// ItemPopularity 统计训练集中每个物品的交互次数，用于长尾指标与采样。
func (d *Dataset) ItemPopularity() []int64 {
	pop := make([]int64, d.NumItems)
	for _, in := range d.Train {
		pop[in.ItemID]++
	}
	return pop
}
