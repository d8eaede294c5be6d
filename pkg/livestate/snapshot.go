package livestate

import (
	"slices"
	"time"

	"github.com/samber/lo"

	"github.com/mpapenbr/f1telemetry-service-go/pkg/model"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/packet"
)

const forecastInSnapshot = 5

// Snapshot is an immutable view of the live state.
// Slices in a Snapshot are shared between snapshots and must not be modified.
type Snapshot struct {
	Session        SessionView            `json:"session"`
	Player         PlayerView             `json:"player"`
	Lap            LapView                `json:"lap"`
	Balance        BalanceState           `json:"balance"`
	History        History                `json:"history"`
	Standings      []StandingEntry        `json:"standings"`
	Classification []model.Classification `json:"classification,omitempty"`
	Packets        map[string]uint64      `json:"packets"`
	Dropped        uint64                 `json:"dropped"`
	Connected      bool                   `json:"connected"`
	LastUpdate     time.Time              `json:"lastUpdate"`
}

type SessionView struct {
	SessionUID      uint64            `json:"sessionUid"`
	TrackID         int8              `json:"trackId"`
	SessionType     uint8             `json:"sessionType"`
	Weather         uint8             `json:"weather"`
	AirTemp         int8              `json:"airTemp"`
	TrackTemp       int8              `json:"trackTemp"`
	TotalLaps       uint8             `json:"totalLaps"`
	TrackLength     uint16            `json:"trackLength"`
	TimeLeft        uint16            `json:"timeLeft"`
	SessionDuration uint16            `json:"sessionDuration"`
	SafetyCarStatus uint8             `json:"safetyCarStatus"`
	NetworkGame     bool              `json:"networkGame"`
	Forecast        []model.Forecast  `json:"forecast"`
	NumActiveCars   uint8             `json:"numActiveCars"`
	Participants    []ParticipantView `json:"participants"`
	PlayerCarIndex  uint8             `json:"playerCarIndex"`
}

type ParticipantView struct {
	VehicleIndex uint8  `json:"vehicleIndex"`
	Name         string `json:"name"`
	TeamID       uint8  `json:"teamId"`
	RaceNumber   uint8  `json:"raceNumber"`
	Nationality  uint8  `json:"nationality"`
	AI           bool   `json:"ai"`
}

type PlayerView struct {
	Speed          uint16     `json:"speed"`
	Gear           int8       `json:"gear"`
	RPM            uint16     `json:"rpm"`
	MaxRPM         uint16     `json:"maxRpm"`
	Throttle       float64    `json:"throttle"` // percent
	Brake          float64    `json:"brake"`    // percent
	Clutch         uint8      `json:"clutch"`
	Steer          float64    `json:"steer"`
	DRSActive      bool       `json:"drsActive"`
	DRSAllowed     bool       `json:"drsAllowed"`
	EngineTemp     uint16     `json:"engineTemp"`
	TyreSurface    [4]uint8   `json:"tyreSurfaceTemp"`
	TyreInner      [4]uint8   `json:"tyreInnerTemp"`
	BrakeTemp      [4]uint16  `json:"brakeTemp"`
	TyrePressure   [4]float32 `json:"tyrePressure"`
	FuelInTank     float32    `json:"fuelInTank"`
	FuelCapacity   float32    `json:"fuelCapacity"`
	FuelLaps       float32    `json:"fuelRemainingLaps"`
	TyreCompound   string     `json:"tyreCompound"`
	TyreAge        uint8      `json:"tyreAge"`
	ERSStoreEnergy float32    `json:"ersStoreEnergy"`
	ERSDeployMode  string     `json:"ersDeployMode"`
	Damage         DamageView `json:"damage"`
	Motion         MotionView `json:"motion"`
}

type DamageView struct {
	TyreWear   [4]float32 `json:"tyreWear"`
	TyreDamage [4]uint8   `json:"tyreDamage"`
	Brake      [4]uint8   `json:"brake"`
	FrontWing  uint8      `json:"frontWing"`
	RearWing   uint8      `json:"rearWing"`
	Floor      uint8      `json:"floor"`
	Diffuser   uint8      `json:"diffuser"`
	Sidepod    uint8      `json:"sidepod"`
	GearBox    uint8      `json:"gearBox"`
	Engine     uint8      `json:"engine"`
}

type MotionView struct {
	LatG   float32 `json:"latG"`
	LongG  float32 `json:"longG"`
	VertG  float32 `json:"vertG"`
	Yaw    float32 `json:"yaw"`
	Pitch  float32 `json:"pitch"`
	Roll   float32 `json:"roll"`
	WorldX float32 `json:"worldX"`
	WorldZ float32 `json:"worldZ"`
	Bounds Bounds  `json:"bounds"`
}

// Bounds is the area covered by the player car in world coordinates.
type Bounds struct {
	MinX  float32 `json:"minX"`
	MaxX  float32 `json:"maxX"`
	MinZ  float32 `json:"minZ"`
	MaxZ  float32 `json:"maxZ"`
	Valid bool    `json:"valid"`
}

func (b *Bounds) extend(x, z float32) {
	if !b.Valid {
		*b = Bounds{MinX: x, MaxX: x, MinZ: z, MaxZ: z, Valid: true}
		return
	}
	b.MinX = min(b.MinX, x)
	b.MaxX = max(b.MaxX, x)
	b.MinZ = min(b.MinZ, z)
	b.MaxZ = max(b.MaxZ, z)
}

type LapView struct {
	CurrentLap     uint8            `json:"currentLap"`
	Position       uint8            `json:"position"`
	LapDistance    float32          `json:"lapDistance"`
	Phase          LapPhase         `json:"phase"`
	LastLapTime    string           `json:"lastLapTime"`
	CurrentLapTime string           `json:"currentLapTime"`
	Sector1        string           `json:"sector1"`
	Sector2        string           `json:"sector2"`
	GapToLeader    string           `json:"gapToLeader"`
	GapToFront     string           `json:"gapToFront"`
	GapToBehind    string           `json:"gapToBehind"`
	Invalid        bool             `json:"invalid"`
	LastCompleted  *model.LapRecord `json:"lastCompleted,omitempty"`
}

type History struct {
	Speed     []HistorySample `json:"speed"`
	Throttle  []HistorySample `json:"throttle"`
	Brake     []HistorySample `json:"brake"`
	LatG      []HistorySample `json:"latG"`
	LongG     []HistorySample `json:"longG"`
	FrontSlip []HistorySample `json:"frontSlip"`
	RearSlip  []HistorySample `json:"rearSlip"`
}

// StandingEntry is one row of the live order, sorted by position.
type StandingEntry struct {
	Position     uint8  `json:"position"`
	VehicleIndex uint8  `json:"vehicleIndex"`
	Name         string `json:"name"`
	CurrentLap   uint8  `json:"currentLap"`
	LastLapTime  string `json:"lastLapTime"`
	GapToLeader  string `json:"gapToLeader"`
	Pit          bool   `json:"pit"`
}

func (a *Aggregator) buildSnapshot() *Snapshot {
	s := &Snapshot{
		Session:        a.sessionView(),
		Balance:        a.balance,
		History:        a.history.view(),
		Standings:      a.standings(),
		Classification: a.classification,
		Packets:        make(map[string]uint64, len(a.counters)),
		Dropped:        a.dropped,
		LastUpdate:     a.lastUpdate,
	}
	for id, n := range a.counters {
		if n > 0 {
			s.Packets[packet.PacketID(id).String()] = n
		}
	}
	if a.playerIdx < packet.MaxCars {
		s.Player = a.playerView()
		s.Lap = a.lapView()
	}
	return s
}

func (a *Aggregator) sessionView() SessionView {
	sp := &a.session.packet
	v := SessionView{
		SessionUID:      a.session.uid,
		TrackID:         sp.TrackID,
		SessionType:     sp.SessionType,
		Weather:         sp.Weather,
		AirTemp:         sp.AirTemp,
		TrackTemp:       sp.TrackTemp,
		TotalLaps:       sp.TotalLaps,
		TrackLength:     sp.TrackLength,
		TimeLeft:        sp.TimeLeft,
		SessionDuration: sp.SessionDuration,
		SafetyCarStatus: sp.SafetyCarStatus,
		NetworkGame:     sp.NetworkGame == 1,
		Forecast:        forecast(sp.Forecast, forecastInSnapshot),
		NumActiveCars:   a.session.participants.NumActiveCars,
		PlayerCarIndex:  a.playerIdx,
	}
	if a.session.hasParticipants {
		n := min(int(a.session.participants.NumActiveCars), packet.MaxCars)
		v.Participants = make([]ParticipantView, 0, n)
		for i := range n {
			p := &a.session.participants.Cars[i]
			v.Participants = append(v.Participants, ParticipantView{
				VehicleIndex: uint8(i),
				Name:         p.Name,
				TeamID:       p.TeamID,
				RaceNumber:   p.RaceNumber,
				Nationality:  p.Nationality,
				AI:           p.IsAI(),
			})
		}
	}
	return v
}

func forecast(in []packet.WeatherForecast, limit int) []model.Forecast {
	if limit > 0 && len(in) > limit {
		in = in[:limit]
	}
	return lo.Map(in, func(f packet.WeatherForecast, _ int) model.Forecast {
		return model.Forecast{
			TimeOffsetMinutes: f.TimeOffset,
			Weather:           f.Weather,
			TrackTemp:         f.TrackTemp,
			AirTemp:           f.AirTemp,
		}
	})
}

func (a *Aggregator) playerView() PlayerView {
	c := &a.cars[a.playerIdx]
	t, st, d, m := &c.telemetry, &c.status, &c.damage, &c.motion
	return PlayerView{
		Speed:          t.Speed,
		Gear:           t.Gear,
		RPM:            t.EngineRPM,
		MaxRPM:         st.MaxRPM,
		Throttle:       float64(t.Throttle) * 100,
		Brake:          float64(t.Brake) * 100,
		Clutch:         t.Clutch,
		Steer:          float64(t.Steer),
		DRSActive:      t.DRS == 1,
		DRSAllowed:     st.DRSAllowed == 1,
		EngineTemp:     t.EngineTemperature,
		TyreSurface:    t.TyresSurfaceTemperature,
		TyreInner:      t.TyresInnerTemperature,
		BrakeTemp:      t.BrakesTemperature,
		TyrePressure:   t.TyresPressure,
		FuelInTank:     st.FuelInTank,
		FuelCapacity:   st.FuelCapacity,
		FuelLaps:       st.FuelRemainingLaps,
		TyreCompound:   CompoundName(st.VisualTyreCompound),
		TyreAge:        st.TyresAgeLaps,
		ERSStoreEnergy: st.ERSStoreEnergy,
		ERSDeployMode:  ERSModeName(st.ERSDeployMode),
		Damage: DamageView{
			TyreWear:   d.TyresWear,
			TyreDamage: d.TyresDamage,
			Brake:      d.BrakesDamage,
			FrontWing:  d.FrontWingDamage(),
			RearWing:   d.RearWingDamage,
			Floor:      d.FloorDamage,
			Diffuser:   d.DiffuserDamage,
			Sidepod:    d.SidepodDamage,
			GearBox:    d.GearBoxDamage,
			Engine:     d.EngineDamage,
		},
		Motion: MotionView{
			LatG:   m.GForceLateral,
			LongG:  m.GForceLongitudinal,
			VertG:  m.GForceVertical,
			Yaw:    m.Yaw,
			Pitch:  m.Pitch,
			Roll:   m.Roll,
			WorldX: m.WorldPositionX,
			WorldZ: m.WorldPositionZ,
			Bounds: a.bounds,
		},
	}
}

func (a *Aggregator) lapView() LapView {
	c := &a.cars[a.playerIdx]
	l := &c.lap
	return LapView{
		CurrentLap:     l.CurrentLapNum,
		Position:       l.CarPosition,
		LapDistance:    l.LapDistance,
		Phase:          c.phase,
		LastLapTime:    FormatLapTime(l.LastLapTimeMS),
		CurrentLapTime: FormatLapTime(l.CurrentLapTimeMS),
		Sector1:        FormatLapTime(l.Sector1MS()),
		Sector2:        FormatLapTime(l.Sector2MS()),
		GapToLeader:    FormatGap(int64(l.DeltaToRaceLeaderMS())),
		GapToFront:     FormatGap(int64(l.DeltaToCarInFrontMS())),
		GapToBehind:    FormatGap(a.gapToBehindMS()),
		Invalid:        l.LapInvalid(),
		LastCompleted:  a.lastCompleted,
	}
}

// gapToBehindMS derives the gap to the car one position behind the player
// from both delta to leader values. It is zero if there is no such car.
func (a *Aggregator) gapToBehindMS() int64 {
	player := &a.cars[a.playerIdx].lap
	if player.CarPosition == 0 {
		return 0
	}
	for i := range a.cars {
		other := &a.cars[i].lap
		if uint8(i) != a.playerIdx && other.CarPosition == player.CarPosition+1 {
			return int64(other.DeltaToRaceLeaderMS()) - int64(player.DeltaToRaceLeaderMS())
		}
	}
	return 0
}

func (a *Aggregator) standings() []StandingEntry {
	ret := make([]StandingEntry, 0, packet.MaxCars)
	for i := range a.cars {
		l := &a.cars[i].lap
		if l.CarPosition == 0 {
			continue
		}
		e := StandingEntry{
			Position:     l.CarPosition,
			VehicleIndex: uint8(i),
			CurrentLap:   l.CurrentLapNum,
			LastLapTime:  FormatLapTime(l.LastLapTimeMS),
			GapToLeader:  FormatGap(int64(l.DeltaToRaceLeaderMS())),
			Pit:          l.PitStatus != 0,
		}
		if a.session.hasParticipants {
			e.Name = a.session.participants.Cars[i].Name
		}
		ret = append(ret, e)
	}
	slices.SortFunc(ret, func(x, y StandingEntry) int {
		return int(x.Position) - int(y.Position)
	})
	return ret
}
