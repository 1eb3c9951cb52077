package dataset

import (
	"math/rand"
	"sort"
)

// NegativeSampler 为 BPR 等成对损失采样负例：对用户 u 采出一个
// 训练集中未交互过的物品。采样序列由 seed 决定，可复现。
type NegativeSampler struct {
	ds  *Dataset
	rng *rand.Rand
}

// NewNegativeSampler 创建负采样器。
func NewNegativeSampler(ds *Dataset, seed int64) *NegativeSampler {
	return &NegativeSampler{
		ds:  ds,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Sample 为用户 u 采一个负例物品。
// 拒绝采样：命中已交互物品则重采；用户交互过全部物品时退化为均匀随机。
func (s *NegativeSampler) Sample(u int64) int64 {
	history := s.ds.TrainHistory(u)
	if int64(len(history)) >= s.ds.NumItems {
		return s.rng.Int63n(s.ds.NumItems)
	}
	for {
		item := s.rng.Int63n(s.ds.NumItems)
		if !history[item] {
			return item
		}
	}
}

// Shuffle 返回训练交互的一个确定性乱序副本（按 epoch 变化 seed 即可）。
func (s *NegativeSampler) Shuffle(interactions []Interaction) []Interaction {
	out := make([]Interaction, len(interactions))
	copy(out, interactions)
	s.rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// OversampleTail 按比例复制长尾物品的交互：流行度处于后 ratio 分位的物品，
// 其训练交互被整体复制一份。ratio <= 0 时原样返回。
// 用于校正长尾物品在 BPR 损失中的欠曝光。
func OversampleTail(ds *Dataset, ratio float64, seed int64) []Interaction {
	if ratio <= 0 {
		return ds.Train
	}
	tail := tailItems(ds, ratio)

	out := make([]Interaction, 0, len(ds.Train)+len(ds.Train)/4)
	out = append(out, ds.Train...)
	for _, in := range ds.Train {
		if tail[in.ItemID] {
			out = append(out, in)
		}
	}
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// UndersampleHead 按比例丢弃头部物品的交互：流行度处于前 ratio 分位的物品，
// 其每条训练交互以 1/2 概率被丢弃。ratio <= 0 时原样返回。
func UndersampleHead(ds *Dataset, ratio float64, seed int64) []Interaction {
	if ratio <= 0 {
		return ds.Train
	}
	head := headItems(ds, ratio)

	rng := rand.New(rand.NewSource(seed))
	out := make([]Interaction, 0, len(ds.Train))
	for _, in := range ds.Train {
		if head[in.ItemID] && rng.Intn(2) == 0 {
			continue
		}
		out = append(out, in)
	}
	return out
}

// tailItems 返回流行度后 ratio 分位的物品集合。
func tailItems(ds *Dataset, ratio float64) map[int64]bool {
	return itemsByPopularity(ds, ratio, true)
}

// headItems 返回流行度前 ratio 分位的物品集合。
func headItems(ds *Dataset, ratio float64) map[int64]bool {
	return itemsByPopularity(ds, ratio, false)
}

func itemsByPopularity(ds *Dataset, ratio float64, tail bool) map[int64]bool {
	if ratio > 1 {
		ratio = 1
	}
	pop := ds.ItemPopularity()
	ids := make([]int64, len(pop))
	for i := range ids {
		ids[i] = int64(i)
	}
	sort.Slice(ids, func(i, j int) bool {
		if pop[ids[i]] != pop[ids[j]] {
			if tail {
				return pop[ids[i]] < pop[ids[j]]
			}
			return pop[ids[i]] > pop[ids[j]]
		}
		return ids[i] < ids[j]
	})

	n := int(float64(len(ids)) * ratio)
	out := make(map[int64]bool, n)
	for _, id := range ids[:n] {
		out[id] = true
	}
	return out
}
