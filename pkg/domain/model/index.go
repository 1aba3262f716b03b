package model

import (
	"regexp"

	"github.com/m-mizutani/goerr/v2"
)

// Metric is the similarity measure of a vector index
type Metric string

const (
	// MetricCosine is the only metric used when creating an index
	MetricCosine Metric = "cosine"
)

var indexNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,44}$`)

// IndexSpec describes an index to be created
type IndexSpec struct {
	Name      string
	Dimension int
	Metric    Metric
}

// Validate checks if the IndexSpec is valid
func (s *IndexSpec) Validate() error {
	if err := ValidateIndexName(s.Name); err != nil {
		return err
	}
	if s.Dimension <= 0 {
		return goerr.New("index dimension must be positive", goerr.V("dimension", s.Dimension))
	}
	if s.Metric != MetricCosine {
		return goerr.New("unsupported index metric", goerr.V("metric", s.Metric))
	}
	return nil
}

// ValidateIndexName checks name is lowercase alphanumeric with hyphens
func ValidateIndexName(name string) error {
	if !indexNamePattern.MatchString(name) {
		return goerr.New("invalid index name", goerr.V("name", name))
	}
	return nil
}

// IndexStatus is the observed state of an existing index
type IndexStatus struct {
	Name      string
	Dimension int
	Metric    Metric
	Ready     bool
}
