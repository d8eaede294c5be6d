package model

import (
	"fmt"
	"time"
)

// LapRecord is a completed lap of one vehicle.
// Trace is only filled for the player car and ordered by Distance.
type LapRecord struct {
	SessionUID   uint64            `json:"sessionUid"`
	VehicleIndex uint8             `json:"vehicleIndex"`
	LapNumber    uint8             `json:"lapNumber"`
	LapTimeMS    uint32            `json:"lapTimeMs"`
	Sector1MS    uint32            `json:"sector1Ms"`
	Sector2MS    uint32            `json:"sector2Ms"`
	Sector3MS    uint32            `json:"sector3Ms"`
	Valid        bool              `json:"valid"`
	CompletedAt  time.Time         `json:"completedAt"`
	Trace        []TelemetrySample `json:"trace,omitempty"`
}

func (l *LapRecord) Key() string {
	return fmt.Sprintf("%s/%d/%d", SessionKey(l.SessionUID), l.VehicleIndex, l.LapNumber)
}

// TelemetrySample is one point of a lap trace.
// Distance is the fraction (0..1) of the lap.
type TelemetrySample struct {
	Distance  float64 `json:"distance"`
	Speed     float64 `json:"speed"`
	Throttle  float64 `json:"throttle"` // percent
	Brake     float64 `json:"brake"`    // percent
	Gear      int8    `json:"gear"`
	RPM       uint16  `json:"rpm"`
	Steer     float64 `json:"steer"`
	LatG      float64 `json:"latG"`
	LongG     float64 `json:"longG"`
	FrontSlip float64 `json:"frontSlip"`
	RearSlip  float64 `json:"rearSlip"`
}

// SessionKey renders a session uid the way all stores use it in keys.
func SessionKey(uid uint64) string {
	return fmt.Sprintf("%016x", uid)
}
