package sculpt

import "image"

// Gate is the acceptance policy applied to a quality score.
// With Enforce unset every result is emitted and the score is informational.
type Gate struct {
	Threshold float64
	Enforce   bool
}

// Verdict is the gate's decision for one (output, target) pair.
type Verdict struct {
	Score     float64 `json:"score"`
	Threshold float64 `json:"threshold"`
	Passed    bool    `json:"passed"`
	Emit      bool    `json:"emit"`
}

// Judge applies the policy to a precomputed score.
func (g Gate) Judge(score float64) Verdict {
	passed := score >= g.Threshold
	return Verdict{
		Score:     score,
		Threshold: g.Threshold,
		Passed:    passed,
		Emit:      passed || !g.Enforce,
	}
}

// Evaluate scores output against target and judges the score.
func (g Gate) Evaluate(output, target *image.NRGBA) (Verdict, error) {
	score, err := SSIM(output, target)
	if err != nil {
		return Verdict{}, err
	}
	return g.Judge(score), nil
}
