package sculpt

import (
	"fmt"
	"math"
	"runtime"
)

// Params holds the static design constants of the engine.
// All fields are exposed so they can be loaded from configuration files.
type Params struct {
	// BlockSize is the side length of the square tiles matched independently.
	// The solver is cubic in BlockSize², so keep it small.
	BlockSize int `yaml:"blockSize" json:"blockSize"`

	// SpatialWeight penalizes moving a pixel far from its slot.
	SpatialWeight float64 `yaml:"spatialWeight" json:"spatialWeight"`

	// FeatureWeight penalizes gradient-magnitude disagreement.
	FeatureWeight float64 `yaml:"featureWeight" json:"featureWeight"`

	// MultiScale enables the half-resolution pass.
	MultiScale bool `yaml:"multiScale" json:"multiScale"`

	// FullWeight and HalfWeight blend the full- and half-scale results.
	FullWeight float64 `yaml:"fullWeight" json:"fullWeight"`
	HalfWeight float64 `yaml:"halfWeight" json:"halfWeight"`

	// Refine enables the smoothing and contrast pass after blending.
	Refine         bool    `yaml:"refine" json:"refine"`
	SmoothSigma    float64 `yaml:"smoothSigma" json:"smoothSigma"`
	ContrastFactor float64 `yaml:"contrastFactor" json:"contrastFactor"`

	// QualityThreshold is the SSIM acceptance threshold.
	// It only gates the result when EnforceThreshold is set.
	QualityThreshold float64 `yaml:"qualityThreshold" json:"qualityThreshold"`
	EnforceThreshold bool    `yaml:"enforceThreshold" json:"enforceThreshold"`

	// Workers bounds block-level parallelism (0 = GOMAXPROCS).
	Workers int `yaml:"workers" json:"workers"`
}

// DefaultParams returns the engine's design constants.
func DefaultParams() Params {
	return Params{
		BlockSize:        8,
		SpatialWeight:    3.0,
		FeatureWeight:    1.5,
		MultiScale:       true,
		FullWeight:       0.7,
		HalfWeight:       0.3,
		Refine:           true,
		SmoothSigma:      0.4,
		ContrastFactor:   1.05,
		QualityThreshold: 0.70,
		EnforceThreshold: false,
		Workers:          0,
	}
}

// Validate checks parameter ranges.
func (p Params) Validate() error {
	if p.BlockSize <= 0 {
		return &ParamError{Field: "BlockSize", Reason: fmt.Sprintf("must be positive, got %d", p.BlockSize)}
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"SpatialWeight", p.SpatialWeight},
		{"FeatureWeight", p.FeatureWeight},
		{"FullWeight", p.FullWeight},
		{"HalfWeight", p.HalfWeight},
		{"SmoothSigma", p.SmoothSigma},
		{"ContrastFactor", p.ContrastFactor},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) || f.v < 0 {
			return &ParamError{Field: f.name, Reason: fmt.Sprintf("must be finite and non-negative, got %v", f.v)}
		}
	}
	if p.MultiScale && p.FullWeight+p.HalfWeight == 0 {
		return &ParamError{Field: "FullWeight", Reason: "blend weights cannot both be zero"}
	}
	if p.QualityThreshold < -1 || p.QualityThreshold > 1 {
		return &ParamError{Field: "QualityThreshold", Reason: fmt.Sprintf("must be within [-1, 1], got %v", p.QualityThreshold)}
	}
	if p.Workers < 0 {
		return &ParamError{Field: "Workers", Reason: "cannot be negative"}
	}
	return nil
}

// CostWeights returns the cost-function weights.
func (p Params) CostWeights() CostWeights {
	return CostWeights{Spatial: p.SpatialWeight, Feature: p.FeatureWeight}
}

// Gate returns the acceptance policy described by p.
func (p Params) Gate() Gate {
	return Gate{Threshold: p.QualityThreshold, Enforce: p.EnforceThreshold}
}

func (p Params) workers() int {
	if p.Workers > 0 {
		return p.Workers
	}
	return runtime.GOMAXPROCS(0)
}
