package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rushteam/divrec/core"
)

// stubNode 是测试用 Node：追加一个固定 ID 的物品。
type stubNode struct {
	name string
	id   int64
	err  error
}

func (n *stubNode) Name() string { return n.name }
func (n *stubNode) Kind() Kind   { return KindRecall }

func (n *stubNode) Process(_ context.Context, _ *core.RecommendContext, items []*core.Item) ([]*core.Item, error) {
	if n.err != nil {
		return nil, n.err
	}
	return append(items, core.NewItem(n.id)), nil
}

func TestPipeline_RunChainsNodes(t *testing.T) {
	p := &Pipeline{Nodes: []Node{
		&stubNode{name: "a", id: 1},
		&stubNode{name: "b", id: 2},
	}}
	out, err := p.Run(context.Background(), core.NewRecommendContext("u"), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(out) != 2 || out[0].ID != 1 || out[1].ID != 2 {
		t.Fatalf("Run output = %v", out)
	}
}

func TestPipeline_RunStopsOnError(t *testing.T) {
	wantErr := errors.New("boom")
	p := &Pipeline{Nodes: []Node{
		&stubNode{name: "a", id: 1},
		&stubNode{name: "b", err: wantErr},
		&stubNode{name: "c", id: 3},
	}}
	if _, err := p.Run(context.Background(), core.NewRecommendContext("u"), nil); !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped boom, got %v", err)
	}
}

func TestNodeFactory(t *testing.T) {
	f := NewNodeFactory()
	f.Register("stub", func(cfg map[string]interface{}) (Node, error) {
		return &stubNode{name: "stub", id: 7}, nil
	})

	node, err := f.Build("stub", nil)
	if err != nil || node.Name() != "stub" {
		t.Fatalf("Build = (%v, %v)", node, err)
	}
	if _, err := f.Build("missing", nil); err == nil {
		t.Fatal("expected error for unknown node type")
	}
}

func TestConfig_LoadYAMLAndBuild(t *testing.T) {
	yamlContent := `
pipeline:
  name: test
  nodes:
    - type: stub
      config:
        id: 7
`
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	if err := os.WriteFile(path, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}

	cfg, err := LoadFromYAML(path)
	if err != nil {
		t.Fatalf("LoadFromYAML: %v", err)
	}
	if cfg.Pipeline.Name != "test" || len(cfg.Pipeline.Nodes) != 1 {
		t.Fatalf("parsed config = %+v", cfg)
	}
	if cfg.Pipeline.Nodes[0].Type != "stub" {
		t.Fatalf("node type = %q", cfg.Pipeline.Nodes[0].Type)
	}

	f := NewNodeFactory()
	f.Register("stub", func(nc map[string]interface{}) (Node, error) {
		return &stubNode{name: "stub", id: 7}, nil
	})
	p, err := cfg.BuildPipeline(f)
	if err != nil {
		t.Fatalf("BuildPipeline: %v", err)
	}
	if len(p.Nodes) != 1 {
		t.Fatalf("pipeline nodes = %d, want 1", len(p.Nodes))
	}
}

func TestConfig_BuildPipelineUnknownType(t *testing.T) {
	var cfg Config
	cfg.Pipeline.Nodes = []NodeConfig{{Type: "nope"}}
	if _, err := cfg.BuildPipeline(NewNodeFactory()); err == nil {
		t.Fatal("expected error for unregistered node type")
	}
}
