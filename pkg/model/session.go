package model

import "time"

// SessionInfo describes one race session, identified by SessionUID.
type SessionInfo struct {
	SessionUID      uint64    `json:"sessionUid"`
	SessionType     uint8     `json:"sessionType"`
	TrackID         int8      `json:"trackId"`
	TrackLength     uint16    `json:"trackLength"`
	TotalLaps       uint8     `json:"totalLaps"`
	SessionDuration uint16    `json:"sessionDuration"`
	NetworkGame     bool      `json:"networkGame"`
	PlayerCarIndex  uint8     `json:"playerCarIndex"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Key returns the natural key of the session.
func (s *SessionInfo) Key() string {
	return SessionKey(s.SessionUID)
}
