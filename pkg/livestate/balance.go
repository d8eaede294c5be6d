package livestate

import (
	"encoding/json"
	"math"

	"github.com/samber/lo"
)

type Balance int

const (
	Neutral Balance = iota
	Understeer
	Oversteer
)

const (
	steerThreshold = 0.08
	slipThreshold  = 0.05
	slipCeiling    = 0.7
	steerCeiling   = 0.9
	latGCeiling    = 2.8
	latGFloor      = 0.2
)

func (b Balance) String() string {
	switch b {
	case Understeer:
		return "understeer"
	case Oversteer:
		return "oversteer"
	default:
		return "neutral"
	}
}

func (b Balance) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

type BalanceState struct {
	Balance    Balance `json:"balance"`
	Confidence float64 `json:"confidence"`
}

// ClassifyBalance derives the handling balance from the axle slip ratios.
// Below the steering threshold the car is always neutral.
func ClassifyBalance(frontSlip, rearSlip, steer, latG float64) BalanceState {
	delta := frontSlip - rearSlip
	ret := BalanceState{
		Balance: Neutral,
		Confidence: factor(math.Abs(delta), slipCeiling) *
			factor(math.Abs(steer), steerCeiling) *
			math.Max(factor(math.Abs(latG), latGCeiling), latGFloor),
	}
	if math.Abs(steer) <= steerThreshold {
		return ret
	}
	switch {
	case delta > slipThreshold:
		ret.Balance = Understeer
	case delta < -slipThreshold:
		ret.Balance = Oversteer
	}
	return ret
}

func factor(v, ceiling float64) float64 {
	return lo.Clamp(v/ceiling, 0, 1)
}

func (b Balance) MarshalYAML() (any, error) {
	return b.String(), nil
}
