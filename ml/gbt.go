package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// GradientBoostedTrees is an additive ensemble of regression trees. The
// artifact is produced by an offline training pipeline; this package only
// loads and evaluates it.
type GradientBoostedTrees struct {
	baseScore    float64
	featureNames []string
	trees        []regressionTree
}

type regressionTree struct {
	Nodes []TreeNode `json:"nodes"`
}

type TreeNode struct {
	FeatureIdx int     `json:"feature_idx"`
	Threshold  float64 `json:"threshold"`
	LeftChild  int     `json:"left_child"`
	RightChild int     `json:"right_child"`
	Value      float64 `json:"value"`
	IsLeaf     bool    `json:"is_leaf"`
}

type gbtArtifact struct {
	BaseScore    float64          `json:"base_score"`
	FeatureNames []string         `json:"feature_names,omitempty"`
	Trees        []regressionTree `json:"trees"`
}

// Predict scores a batch of feature vectors, one score per row.
func (m *GradientBoostedTrees) Predict(batch [][]float64) ([]float64, error) {
	if len(m.trees) == 0 {
		return nil, errors.New("model not loaded")
	}
	scores := make([]float64, len(batch))
	for i, features := range batch {
		score := m.baseScore
		for _, tree := range m.trees {
			leaf, err := tree.evaluate(features)
			if err != nil {
				return nil, err
			}
			score += leaf
		}
		scores[i] = score
	}
	return scores, nil
}

func (t *regressionTree) evaluate(features []float64) (float64, error) {
	if len(t.Nodes) == 0 {
		return 0, errors.New("empty tree")
	}
	idx := 0
	for {
		node := t.Nodes[idx]
		if node.IsLeaf {
			return node.Value, nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(features) {
			return 0, fmt.Errorf("feature index %d out of range", node.FeatureIdx)
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(t.Nodes) {
			return 0, errors.New("invalid tree state")
		}
	}
}

// FeatureNames returns the ordered feature names recorded in the artifact,
// or nil when the artifact carries none.
func (m *GradientBoostedTrees) FeatureNames() []string {
	return m.featureNames
}

func (m *GradientBoostedTrees) Save(path string) error {
	if len(m.trees) == 0 {
		return errors.New("model is empty")
	}
	payload, err := json.Marshal(gbtArtifact{
		BaseScore:    m.baseScore,
		FeatureNames: m.featureNames,
		Trees:        m.trees,
	})
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

func (m *GradientBoostedTrees) Load(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var artifact gbtArtifact
	if err := json.Unmarshal(payload, &artifact); err != nil {
		return err
	}
	if len(artifact.Trees) == 0 {
		return errors.New("model artifact has no trees")
	}
	for i := range artifact.Trees {
		if len(artifact.Trees[i].Nodes) == 0 {
			return fmt.Errorf("tree %d has no nodes", i)
		}
	}
	m.baseScore = artifact.BaseScore
	m.featureNames = artifact.FeatureNames
	m.trees = artifact.Trees
	return nil
}
