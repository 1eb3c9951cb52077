// Package divrec 是一个兼顾相关性与多样性的推荐重排工具包
// （Diversity-aware Recommendation）。
//
// 设计要点：
// - MMR-first: 核心是 λ 加权的 Maximal Marginal Relevance 贪心重排
//   （rerank 包），批量接口与 Pipeline Node 形态并存
// - Pipeline-first: 在线链路通过 Node 串联（Recall → Filter → Rank → ReRank）
// - 离线评估: dataset/model/metrics/runner 组成可复现的训练评估闭环
package divrec

import "github.com/rushteam/divrec/pipeline"

// 轻量 facade：便于用户直接 import "divrec" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
