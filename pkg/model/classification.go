package model

import "fmt"

// Classification is the final result of one vehicle in a session.
type Classification struct {
	SessionUID    uint64  `json:"sessionUid"`
	VehicleIndex  uint8   `json:"vehicleIndex"`
	DriverName    string  `json:"driverName"`
	TeamID        uint8   `json:"teamId"`
	Position      uint8   `json:"position"`
	NumLaps       uint8   `json:"numLaps"`
	GridPosition  uint8   `json:"gridPosition"`
	Points        uint8   `json:"points"`
	NumPitStops   uint8   `json:"numPitStops"`
	ResultStatus  uint8   `json:"resultStatus"`
	BestLapTimeMS uint32  `json:"bestLapTimeMs"`
	TotalRaceTime float64 `json:"totalRaceTime"` // seconds
	PenaltiesTime uint8   `json:"penaltiesTime"`
	NumPenalties  uint8   `json:"numPenalties"`
	Stints        []Stint `json:"stints"`
}

type Stint struct {
	StintIndex     uint8 `json:"stintIndex"`
	ActualCompound uint8 `json:"actualCompound"`
	VisualCompound uint8 `json:"visualCompound"`
	EndLap         uint8 `json:"endLap"`
}

func (c *Classification) Key() string {
	return fmt.Sprintf("%s/%d", SessionKey(c.SessionUID), c.VehicleIndex)
}
