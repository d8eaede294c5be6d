package model

import (
	"fmt"
	"time"
)

type WeatherSample struct {
	SessionUID      uint64     `json:"sessionUid"`
	CapturedAt      time.Time  `json:"capturedAt"`
	SessionTime     float32    `json:"sessionTime"`
	TimeLeft        uint16     `json:"timeLeft"`
	Weather         uint8      `json:"weather"`
	TrackTemp       int8       `json:"trackTemp"`
	AirTemp         int8       `json:"airTemp"`
	SafetyCarStatus uint8      `json:"safetyCarStatus"`
	Forecast        []Forecast `json:"forecast,omitempty"`
}

type Forecast struct {
	TimeOffsetMinutes uint8 `json:"timeOffsetMinutes"`
	Weather           uint8 `json:"weather"`
	TrackTemp         int8  `json:"trackTemp"`
	AirTemp           int8  `json:"airTemp"`
}

func (w *WeatherSample) Key() string {
	return fmt.Sprintf("%s/%d", SessionKey(w.SessionUID), w.CapturedAt.UnixNano())
}
