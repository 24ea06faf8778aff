package ml

// RegressionModel scores batches of ordered feature vectors.
type RegressionModel interface {
	Predict(batch [][]float64) ([]float64, error)
}

// FeatureNamer is implemented by models whose artifact records the ordered
// feature names they were trained on.
type FeatureNamer interface {
	FeatureNames() []string
}
