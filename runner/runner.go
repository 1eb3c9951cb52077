// Package runner 把数据加载、模型训练、全量打分、多样性重排、指标评估
// 串成一次可复现的实验（类似一次离线 eval run）。
//
// 典型用法：
//
//	cfg, _ := runner.LoadRunConfig("run.yaml")
//	r, _ := runner.New(cfg, logger)
//	report, _ := r.Run(ctx)
package runner

import (
	"context"
	"fmt"
	"math"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/rushteam/divrec/core"
	"github.com/rushteam/divrec/dataset"
	"github.com/rushteam/divrec/filter"
	"github.com/rushteam/divrec/metrics"
	"github.com/rushteam/divrec/model"
	"github.com/rushteam/divrec/rerank"
)

// Trainable 是可训练模型的可选能力接口。
type Trainable interface {
	Fit(ctx context.Context, ds *dataset.Dataset, opts model.TrainOptions) error
}

// Checkpointable 是支持保存检查点的可选能力接口。
type Checkpointable interface {
	Save(path string) error
}

// Runner 执行一次完整的实验：训练（或加载）模型 → 全量打分 →
// 屏蔽训练历史 → MMR 重排 → 评估 → 持久化指标。
type Runner struct {
	cfg *RunConfig
	log *zap.Logger

	// Model 可选：非 nil 时跳过注册表构建，直接使用（便于注入已训练模型）
	Model core.ScoreProducer

	// Dataset 可选：非 nil 时跳过文件加载
	Dataset *dataset.Dataset
}

// New 创建 Runner。logger 为 nil 时使用 zap.NewNop()。
func New(cfg *RunConfig, logger *zap.Logger) (*Runner, error) {
	if cfg == nil {
		return nil, core.NewDomainError(core.ModuleRunner, core.ErrorCodeInvalidParameter, "run config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{cfg: cfg, log: logger}, nil
}

// Run 执行实验并返回指标报告。
// 配置了 lambda_grid 时返回基础 λ 的报告，网格结果单独落盘（见 GridSearch）。
func (r *Runner) Run(ctx context.Context) (metrics.Report, error) {
	ds, err := r.loadDataset()
	if err != nil {
		return nil, err
	}
	r.log.Info("dataset ready",
		zap.Int64("num_users", ds.NumUsers),
		zap.Int64("num_items", ds.NumItems),
		zap.Int("train", len(ds.Train)),
		zap.Int("test", len(ds.Test)),
	)

	producer, err := r.prepareModel(ctx, ds)
	if err != nil {
		return nil, err
	}

	rankings, users, sim, err := r.scoreAndRerank(ctx, ds, producer, r.cfg.Rerank.RerankConfig)
	if err != nil {
		return nil, err
	}

	eval := &metrics.Evaluator{TopK: r.cfg.Eval.TopK, TailRatio: r.cfg.Eval.TailRatio}
	report := eval.Evaluate(rankings, users, ds, sim)
	r.logReport("eval done", report)

	if r.cfg.Output != "" {
		if err := report.SaveJSON(r.cfg.Output); err != nil {
			return nil, fmt.Errorf("save metrics: %w", err)
		}
		r.log.Info("metrics saved", zap.String("path", r.cfg.Output))
	}
	return report, nil
}

// GridSearch 对 lambda_grid 中的每个 λ 重排并评估，复用同一相似度矩阵与打分。
// 返回 λ → 报告；配置了 Output 时，整体结果以 "lambda=<λ>/<metric>" 为键落盘。
func (r *Runner) GridSearch(ctx context.Context) (map[float64]metrics.Report, error) {
	if len(r.cfg.Rerank.LambdaGrid) == 0 {
		return nil, core.NewDomainError(core.ModuleRunner, core.ErrorCodeInvalidParameter, "lambda_grid is empty")
	}

	ds, err := r.loadDataset()
	if err != nil {
		return nil, err
	}
	producer, err := r.prepareModel(ctx, ds)
	if err != nil {
		return nil, err
	}

	catalog, err := producer.Catalog()
	if err != nil {
		return nil, err
	}
	sim, err := rerank.CosineSimilarity(catalog)
	if err != nil {
		return nil, err
	}

	users := ds.EvalUsers()
	scores, err := r.predictMasked(ctx, ds, producer, users)
	if err != nil {
		return nil, err
	}

	eval := &metrics.Evaluator{TopK: r.cfg.Eval.TopK, TailRatio: r.cfg.Eval.TailRatio}
	out := make(map[float64]metrics.Report, len(r.cfg.Rerank.LambdaGrid))
	merged := make(metrics.Report)

	for _, lambda := range r.cfg.Rerank.LambdaGrid {
		cfg := r.cfg.Rerank.RerankConfig
		cfg.LambdaMMR = lambda
		reranker, err := rerank.NewMMRReranker(cfg)
		if err != nil {
			return nil, err
		}
		rankings, err := reranker.RerankWithSimilarity(ctx, sim, scores)
		if err != nil {
			return nil, err
		}
		report := eval.Evaluate(rankings, users, ds, sim)
		out[lambda] = report
		r.logReport(fmt.Sprintf("grid lambda=%v", lambda), report)

		prefix := "lambda=" + strconv.FormatFloat(lambda, 'g', -1, 64) + "/"
		for name, v := range report {
			merged[prefix+name] = v
		}
	}

	if r.cfg.Output != "" {
		if err := merged.SaveJSON(r.cfg.Output); err != nil {
			return nil, fmt.Errorf("save grid metrics: %w", err)
		}
		r.log.Info("grid metrics saved", zap.String("path", r.cfg.Output))
	}
	return out, nil
}

// loadDataset 按配置加载并切分数据集；注入了 Dataset 时直接返回。
func (r *Runner) loadDataset() (*dataset.Dataset, error) {
	if r.Dataset != nil {
		return r.Dataset, nil
	}
	dc := r.cfg.Dataset
	if dc.Path == "" {
		return nil, core.NewDomainError(core.ModuleRunner, core.ErrorCodeInvalidParameter, "dataset.path is empty")
	}

	interactions, err := dataset.LoadInteractions(dc.Path)
	if err != nil {
		return nil, err
	}

	var train, test []dataset.Interaction
	if dc.Split == "leave_one_out" {
		train, test = dataset.SplitLeaveOneOut(interactions)
	} else {
		train, test = dataset.SplitRatio(interactions, dc.Ratio, dc.Seed)
	}

	numUsers, numItems := countEntities(interactions)
	ds, err := dataset.New(numUsers, numItems, train, test)
	if err != nil {
		return nil, err
	}

	// 长尾重采样只作用于训练集
	if dc.OversampleTail > 0 {
		resampled := dataset.OversampleTail(ds, dc.OversampleTail, dc.Seed)
		return dataset.New(numUsers, numItems, resampled, test)
	}
	if dc.UndersampleHead > 0 {
		resampled := dataset.UndersampleHead(ds, dc.UndersampleHead, dc.Seed)
		return dataset.New(numUsers, numItems, resampled, test)
	}
	return ds, nil
}

// prepareModel 加载检查点或从注册表构建并训练模型。
func (r *Runner) prepareModel(ctx context.Context, ds *dataset.Dataset) (core.ScoreProducer, error) {
	if r.Model != nil {
		return r.Model, nil
	}

	mc := r.cfg.Model
	method, err := lookupMethod(mc.Method)
	if err != nil {
		return nil, err
	}

	if mc.Checkpoint != "" && method.Load != nil {
		if _, statErr := os.Stat(mc.Checkpoint); statErr == nil {
			r.log.Info("loading checkpoint", zap.String("path", mc.Checkpoint))
			return method.Load(mc.Checkpoint)
		}
	}

	producer, err := method.Build(mc, ds)
	if err != nil {
		return nil, err
	}

	if trainable, ok := producer.(Trainable); ok {
		opts := model.TrainOptions{
			Epochs:       mc.Epochs,
			LearningRate: mc.LearningRate,
			Reg:          mc.Reg,
			Seed:         mc.Seed,
			OnEpoch: func(epoch int, loss float64) {
				r.log.Info("epoch done", zap.Int("epoch", epoch), zap.Float64("loss", loss))
			},
		}
		r.log.Info("training model",
			zap.String("method", mc.Method),
			zap.Int("epochs", mc.Epochs),
			zap.Int("embedding_size", mc.EmbeddingSize),
		)
		if err := trainable.Fit(ctx, ds, opts); err != nil {
			return nil, err
		}
	}

	if mc.Checkpoint != "" {
		if ckpt, ok := producer.(Checkpointable); ok {
			if err := ckpt.Save(mc.Checkpoint); err != nil {
				return nil, fmt.Errorf("save checkpoint: %w", err)
			}
			r.log.Info("checkpoint saved", zap.String("path", mc.Checkpoint))
		}
	}
	return producer, nil
}

// scoreAndRerank 全量打分 + 历史屏蔽 + MMR 重排，返回重排结果与相似度矩阵。
func (r *Runner) scoreAndRerank(
	ctx context.Context,
	ds *dataset.Dataset,
	producer core.ScoreProducer,
	cfg core.RerankConfig,
) ([]rerank.UserRanking, []int64, *rerank.SimilarityMatrix, error) {
	catalog, err := producer.Catalog()
	if err != nil {
		return nil, nil, nil, err
	}
	sim, err := rerank.CosineSimilarity(catalog)
	if err != nil {
		return nil, nil, nil, err
	}
	reranker, err := rerank.NewMMRReranker(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	users := ds.EvalUsers()
	batchSize := r.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 512
	}

	rankings := make([]rerank.UserRanking, 0, len(users))
	for start := 0; start < len(users); start += batchSize {
		end := start + batchSize
		if end > len(users) {
			end = len(users)
		}
		batch := users[start:end]

		scores, err := r.predictMasked(ctx, ds, producer, batch)
		if err != nil {
			return nil, nil, nil, err
		}
		part, err := reranker.RerankWithSimilarity(ctx, sim, scores)
		if err != nil {
			return nil, nil, nil, err
		}
		rankings = append(rankings, part...)
		r.log.Debug("batch reranked", zap.Int("done", end), zap.Int("total", len(users)))
	}
	return rankings, users, sim, nil
}

// predictMasked 对一批用户全量打分，并把训练集中交互过的物品分数置为 -Inf，
// 避免把用户已经看过的物品再次排进推荐列表。
func (r *Runner) predictMasked(
	ctx context.Context,
	ds *dataset.Dataset,
	producer core.ScoreProducer,
	users []int64,
) (*core.ScoreMatrix, error) {
	scores, err := producer.FullSortPredict(ctx, users)
	if err != nil {
		return nil, err
	}

	history := make(map[int64]map[int64]bool, len(users))
	for _, u := range users {
		if h := ds.TrainHistory(u); h != nil {
			history[u] = h
		}
	}
	mask := filter.NewHistoryFilterFromSets(history)

	for bi, u := range users {
		rctx := core.NewRecommendContext(strconv.FormatInt(u, 10))
		rctx.UserIndex = u
		row := scores.Row(bi)
		for itemID := range row {
			hit, err := mask.ShouldFilter(ctx, rctx, core.NewItem(int64(itemID)))
			if err != nil {
				return nil, err
			}
			if hit {
				row[itemID] = math.Inf(-1)
			}
		}
	}
	return scores, nil
}

// logReport 按指标名排序输出报告。
func (r *Runner) logReport(msg string, report metrics.Report) {
	fields := make([]zap.Field, 0, len(report))
	for _, name := range report.Names() {
		fields = append(fields, zap.Float64(name, report[name]))
	}
	r.log.Info(msg, fields...)
}

// countEntities 根据交互推断用户数与物品数（最大 ID + 1）。
func countEntities(interactions []dataset.Interaction) (numUsers, numItems int64) {
	for _, in := range interactions {
		if in.UserID >= numUsers {
			numUsers = in.UserID + 1
		}
		if in.ItemID >= numItems {
			numItems = in.ItemID + 1
		}
	}
	return numUsers, numItems
}
