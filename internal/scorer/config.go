// Package scorer aggregates per-field reconciliation outcomes into a match
// percentage, a risk score and a verdict.
package scorer

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/docverify/reconcile-cli/internal/model"
)

// DefaultPassThreshold is the minimum match percentage for a Verified verdict.
const DefaultPassThreshold = 70.0

// Weights assigns a scoring weight to each field. Fields with weight zero
// (or absent from the map) do not take part in scoring.
type Weights map[model.Field]float64

// Weight implements Policy.
func (w Weights) Weight(f model.Field) float64 {
	return w[f]
}

// DefaultWeights gives every comparable field weight 1 and the presence-only
// fields weight 0: the unweighted eleven-field rule.
func DefaultWeights() Weights {
	w := make(Weights, len(model.AllFields))
	for _, f := range model.ComparableFields {
		w[f] = 1
	}
	for _, f := range model.PresenceFields {
		w[f] = 0
	}
	return w
}

// WeightSum returns the sum of all field weights.
func WeightSum(w Weights) float64 {
	var sum float64
	for _, f := range model.AllFields {
		sum += w[f]
	}
	return sum
}

// ValidateWeights checks that a weight table is usable.
func ValidateWeights(w Weights) error {
	var errs []string

	keys := make([]string, 0, len(w))
	for f := range w {
		keys = append(keys, string(f))
	}
	sort.Strings(keys)
	for _, k := range keys {
		f := model.Field(k)
		if !f.Valid() {
			errs = append(errs, fmt.Sprintf("unknown field %q", k))
			continue
		}
		if w[f] < 0 {
			errs = append(errs, fmt.Sprintf("%s weight must be >= 0", k))
		}
	}

	if WeightSum(w) <= 0 {
		errs = append(errs, "weight sum must be > 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("scorer: weights validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// PolicyFile is the YAML layout of a scoring policy file.
type PolicyFile struct {
	PassThreshold float64            `yaml:"pass_threshold"`
	Weights       map[string]float64 `yaml:"weights"`
}

// LoadWeights reads a scoring policy from a YAML file with a top-level
// "scoring" key. Fields not listed keep their default weight. A zero
// pass_threshold means "use the default".
func LoadWeights(path string) (Weights, float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, eris.Wrapf(err, "scorer: read policy %s", path)
	}

	var wrapper struct {
		Scoring PolicyFile `yaml:"scoring"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, 0, eris.Wrap(err, "scorer: parse policy")
	}

	w := DefaultWeights()
	for k, v := range wrapper.Scoring.Weights {
		w[model.Field(k)] = v
	}
	if err := ValidateWeights(w); err != nil {
		return nil, 0, err
	}

	threshold := wrapper.Scoring.PassThreshold
	if threshold == 0 {
		threshold = DefaultPassThreshold
	}
	if threshold < 0 || threshold > 100 {
		return nil, 0, eris.Errorf("scorer: pass_threshold must be between 0 and 100, got %.1f", threshold)
	}
	return w, threshold, nil
}
