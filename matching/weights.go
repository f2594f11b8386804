// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package matching

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const weightTolerance = 1e-6

// Weights are the blending factors of the hybrid score and of the legacy
// weighted search.
//
// Hybrid: final = vector*Vector + relevance*Relevance + business*Business.
// Weighted search: rank = similarity*SearchVector + coverage*SearchFilter.
type Weights struct {
	Vector       float64 `koanf:"vector"`
	Relevance    float64 `koanf:"relevance"`
	Business     float64 `koanf:"business"`
	SearchVector float64 `koanf:"search_vector"`
	SearchFilter float64 `koanf:"search_filter"`
}

// DefaultWeights returns 0.3/0.4/0.3 for the hybrid and 0.7/0.3 for the
// weighted search.
func DefaultWeights() Weights {
	return Weights{
		Vector:       0.3,
		Relevance:    0.4,
		Business:     0.3,
		SearchVector: 0.7,
		SearchFilter: 0.3,
	}
}

// Validate checks that every weight is non-negative and both groups sum to 1.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"vector": w.Vector, "relevance": w.Relevance, "business": w.Business,
		"search_vector": w.SearchVector, "search_filter": w.SearchFilter,
	} {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("%w: %s is %v", ErrInvalidWeights, name, v)
		}
	}
	if sum := w.Vector + w.Relevance + w.Business; math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("%w: hybrid weights sum to %v", ErrInvalidWeights, sum)
	}
	if sum := w.SearchVector + w.SearchFilter; math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("%w: search weights sum to %v", ErrInvalidWeights, sum)
	}
	return nil
}

// LoadWeights reads weights from a YAML calibration file. Keys missing from
// the file keep their defaults. An empty path returns the defaults. On error
// the defaults are returned alongside it.
//
// Example file:
//
//	weights:
//	  vector: 0.2
//	  relevance: 0.5
//	  business: 0.3
func LoadWeights(path string) (Weights, error) {
	defaults := DefaultWeights()
	if path == "" {
		return defaults, nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		slog.Warn("failed to read weights file, using defaults", "path", path, "err", err)
		return defaults, fmt.Errorf("failed to read weights file: %w", err)
	}

	w := defaults
	if err := k.Unmarshal("weights", &w); err != nil {
		return defaults, fmt.Errorf("failed to parse weights file: %w", err)
	}
	if err := w.Validate(); err != nil {
		return defaults, err
	}

	if w != defaults {
		slog.Info("weights overridden from file", "path", path,
			"vector", w.Vector, "relevance", w.Relevance, "business", w.Business,
			"search_vector", w.SearchVector, "search_filter", w.SearchFilter)
	}
	return w, nil
}
