// Package livestate reconstructs the live session, car and lap state from
// decoded packets.
//
// The Aggregator has a single writer: packets are applied strictly in
// arrival order either by Run or by calling Apply from one goroutine.
// Snapshot may be called from any goroutine.
package livestate

import (
	"context"
	"encoding/json"
	"maps"
	"slices"
	"sync/atomic"
	"time"

	"github.com/samber/lo"

	"github.com/mpapenbr/f1telemetry-service-go/log"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/model"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/packet"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/persistence"
	"github.com/mpapenbr/f1telemetry-service-go/pkg/utils/broadcast"
)

const (
	DefaultHistoryCapacity = 160
	DefaultWeatherInterval = 20 * time.Second
	numPacketIDs           = int(packet.TimeTrialID) + 1
)

type LapPhase int

const (
	NoActiveLap LapPhase = iota
	LapInProgress
	// LapJustCompleted is set by the packet that completed a lap and
	// replaced by LapInProgress on the next update of that car.
	LapJustCompleted
)

func (p LapPhase) String() string {
	switch p {
	case LapInProgress:
		return "inProgress"
	case LapJustCompleted:
		return "justCompleted"
	default:
		return "noActiveLap"
	}
}

func (p LapPhase) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p LapPhase) MarshalYAML() (any, error) {
	return p.String(), nil
}

type lapKey struct {
	vehicle uint8
	lap     uint8
}

type sectorSnapshot struct {
	s1      uint32
	s2      uint32
	invalid bool
}

type carState struct {
	telemetry packet.CarTelemetry
	status    packet.CarStatusData
	damage    packet.CarDamage
	motion    packet.CarMotion
	lap       packet.CarLapData
	phase     LapPhase
}

type sessionState struct {
	uid             uint64
	packet          packet.SessionPacket
	participants    packet.ParticipantsPacket
	hasParticipants bool
	info            model.SessionInfo
	lastWeather     time.Time
}

type slipState struct {
	front float64
	rear  float64
	valid bool
}

type history struct {
	speed     *ring
	throttle  *ring
	brake     *ring
	latG      *ring
	longG     *ring
	frontSlip *ring
	rearSlip  *ring
}

func newHistory(capacity int) history {
	return history{
		speed:     newRing(capacity),
		throttle:  newRing(capacity),
		brake:     newRing(capacity),
		latG:      newRing(capacity),
		longG:     newRing(capacity),
		frontSlip: newRing(capacity),
		rearSlip:  newRing(capacity),
	}
}

func (h *history) all() []*ring {
	return []*ring{h.speed, h.throttle, h.brake, h.latG, h.longG, h.frontSlip, h.rearSlip}
}

func (h *history) view() History {
	return History{
		Speed:     h.speed.values(),
		Throttle:  h.throttle.values(),
		Brake:     h.brake.values(),
		LatG:      h.latG.values(),
		LongG:     h.longG.values(),
		FrontSlip: h.frontSlip.values(),
		RearSlip:  h.rearSlip.values(),
	}
}

// Aggregator owns the authoritative live state.
type Aggregator struct {
	gateway         persistence.Gateway
	log             *log.Logger
	historyCapacity int
	weatherInterval time.Duration
	now             func() time.Time
	ctx             context.Context

	session        sessionState
	cars           [packet.MaxCars]carState
	playerIdx      uint8
	sectors        map[lapKey]sectorSnapshot
	prevLap        [packet.MaxCars]uint8
	trace          []model.TelemetrySample
	history        history
	slip           slipState
	balance        BalanceState
	bounds         Bounds
	classification []model.Classification
	lastCompleted  *model.LapRecord
	counters       [numPacketIDs]uint64
	dropped        uint64
	lastUpdate     time.Time

	snap      atomic.Pointer[Snapshot]
	connected atomic.Bool
	changes   chan *Snapshot
	bcst      broadcast.BroadcastServer[*Snapshot]
}

type Option func(*Aggregator)

func WithGateway(g persistence.Gateway) Option {
	return func(a *Aggregator) {
		a.gateway = g
	}
}

func WithLogger(l *log.Logger) Option {
	return func(a *Aggregator) {
		a.log = l
	}
}

func WithHistoryCapacity(capacity int) Option {
	return func(a *Aggregator) {
		a.historyCapacity = capacity
	}
}

// WithWeatherInterval sets the minimum time between two weather samples.
func WithWeatherInterval(d time.Duration) Option {
	return func(a *Aggregator) {
		a.weatherInterval = d
	}
}

func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		a.now = now
	}
}

func New(opts ...Option) *Aggregator {
	a := &Aggregator{
		gateway:         persistence.Discard{},
		log:             log.Default().Named("livestate"),
		historyCapacity: DefaultHistoryCapacity,
		weatherInterval: DefaultWeatherInterval,
		now:             time.Now,
		ctx:             context.Background(),
		playerIdx:       packet.MaxCars,
		sectors:         make(map[lapKey]sectorSnapshot),
		changes:         make(chan *Snapshot, 1),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.history = newHistory(a.historyCapacity)
	a.bcst = broadcast.NewBroadcastServer("livestate", a.changes,
		broadcast.WithTelemetry[*Snapshot]("snapshot"),
		broadcast.WithLogger[*Snapshot](a.log))
	a.snap.Store(a.buildSnapshot())
	return a
}

// Run applies packets from in until in is closed or ctx is done.
func (a *Aggregator) Run(ctx context.Context, in <-chan packet.Packet) error {
	a.ctx = ctx
	for {
		select {
		case <-ctx.Done():
			return nil
		case p, ok := <-in:
			if !ok {
				return nil
			}
			a.Apply(p)
		}
	}
}

// Snapshot returns the latest state. Never nil.
func (a *Aggregator) Snapshot() *Snapshot {
	s := *a.snap.Load()
	s.Connected = a.connected.Load()
	return &s
}

// Changes returns a channel that receives a snapshot after state changes.
// Intermediate snapshots are skipped for slow readers.
func (a *Aggregator) Changes() <-chan *Snapshot {
	return a.bcst.Subscribe()
}

func (a *Aggregator) CancelChanges(ch <-chan *Snapshot) {
	a.bcst.CancelSubscription(ch)
}

// SetConnected records the liveness of the feed. A transition is sent to
// subscribers along with the last published state.
func (a *Aggregator) SetConnected(connected bool) {
	if a.connected.Swap(connected) == connected {
		return
	}
	s := *a.snap.Load()
	s.Connected = connected
	a.notify(&s)
}

func (a *Aggregator) Close() {
	a.bcst.Close()
}

// Apply mutates the state with one packet.
//
//nolint:cyclop // dispatch
func (a *Aggregator) Apply(p packet.Packet) {
	h := p.GetHeader()
	if int(h.PacketID) < numPacketIDs {
		a.counters[h.PacketID]++
	}
	if !h.PlayerIndexValid() {
		a.dropped++
		a.log.Debug("dropping packet",
			log.Stringer("packet", h.PacketID),
			log.Uint8("playerCarIndex", h.PlayerCarIndex),
			log.ErrorField(packet.ErrPlayerIndex))
		a.publish()
		return
	}
	now := a.now()
	a.checkSession(&h, now)
	a.playerIdx = h.PlayerCarIndex

	switch v := p.(type) {
	case *packet.MotionPacket:
		a.applyMotion(v, now)
	case *packet.MotionExPacket:
		a.applyMotionEx(v, now)
	case *packet.SessionPacket:
		a.applySession(v, now)
	case *packet.LapDataPacket:
		a.applyLapData(v, now)
	case *packet.ParticipantsPacket:
		a.session.participants = *v
		a.session.hasParticipants = true
	case *packet.CarTelemetryPacket:
		a.applyTelemetry(v, now)
	case *packet.CarStatusPacket:
		for i := range v.Cars {
			a.cars[i].status = v.Cars[i]
		}
	case *packet.CarDamagePacket:
		for i := range v.Cars {
			a.cars[i].damage = v.Cars[i]
		}
	case *packet.FinalClassificationPacket:
		a.applyFinalClassification(v)
	}
	a.lastUpdate = now
	a.publish()
}

func (a *Aggregator) publish() {
	s := a.buildSnapshot()
	s.Connected = a.connected.Load()
	a.snap.Store(s)
	a.notify(s)
}

func (a *Aggregator) notify(s *Snapshot) {
	select {
	case a.changes <- s:
	default:
	}
}

// checkSession replaces all session bound state when a new non-zero
// session uid shows up.
func (a *Aggregator) checkSession(h *packet.Header, now time.Time) {
	if h.SessionUID == 0 || h.SessionUID == a.session.uid {
		return
	}
	if a.session.uid != 0 {
		a.log.Info("session changed",
			log.Uint64("old", a.session.uid),
			log.Uint64("new", h.SessionUID))
	} else {
		a.log.Info("session started", log.Uint64("sessionUid", h.SessionUID))
	}
	a.session = sessionState{uid: h.SessionUID}
	a.cars = [packet.MaxCars]carState{}
	a.prevLap = [packet.MaxCars]uint8{}
	clear(a.sectors)
	a.trace = nil
	a.slip = slipState{}
	a.balance = BalanceState{}
	a.bounds = Bounds{}
	a.classification = nil
	a.lastCompleted = nil
	for _, r := range a.history.all() {
		r.reset()
	}

	a.session.info = model.SessionInfo{
		SessionUID:     h.SessionUID,
		PlayerCarIndex: h.PlayerCarIndex,
		CreatedAt:      now,
	}
	a.gateway.UpsertSession(a.ctx, a.session.info)
}

func (a *Aggregator) applySession(s *packet.SessionPacket, now time.Time) {
	a.session.packet = *s
	if a.session.uid == 0 {
		return
	}

	info := a.session.info
	info.SessionType = s.SessionType
	info.TrackID = s.TrackID
	info.TrackLength = s.TrackLength
	info.TotalLaps = s.TotalLaps
	info.SessionDuration = s.SessionDuration
	info.NetworkGame = s.NetworkGame == 1
	info.PlayerCarIndex = s.PlayerCarIndex
	if info != a.session.info {
		a.session.info = info
		a.gateway.UpsertSession(a.ctx, info)
	}

	if !a.session.lastWeather.IsZero() &&
		now.Sub(a.session.lastWeather) < a.weatherInterval {
		return
	}
	a.session.lastWeather = now
	a.gateway.WeatherSampled(a.ctx, model.WeatherSample{
		SessionUID:      a.session.uid,
		CapturedAt:      now,
		SessionTime:     s.SessionTime,
		TimeLeft:        s.TimeLeft,
		Weather:         s.Weather,
		TrackTemp:       s.TrackTemp,
		AirTemp:         s.AirTemp,
		SafetyCarStatus: s.SafetyCarStatus,
		Forecast:        forecast(s.Forecast, 0),
	})
}

func (a *Aggregator) applyMotion(m *packet.MotionPacket, now time.Time) {
	for i := range m.Cars {
		a.cars[i].motion = m.Cars[i]
	}
	pm := &m.Cars[m.PlayerCarIndex]
	a.history.latG.push(now, float64(pm.GForceLateral))
	a.history.longG.push(now, float64(pm.GForceLongitudinal))
	a.bounds.extend(pm.WorldPositionX, pm.WorldPositionZ)

	if a.slip.valid {
		steer := float64(a.cars[m.PlayerCarIndex].telemetry.Steer)
		a.balance = ClassifyBalance(a.slip.front, a.slip.rear, steer,
			float64(pm.GForceLateral))
	}
}

func (a *Aggregator) applyMotionEx(m *packet.MotionExPacket, now time.Time) {
	a.slip = slipState{
		front: float64(m.FrontSlip()),
		rear:  float64(m.RearSlip()),
		valid: true,
	}
	a.history.frontSlip.push(now, a.slip.front)
	a.history.rearSlip.push(now, a.slip.rear)
}

func (a *Aggregator) applyTelemetry(t *packet.CarTelemetryPacket, now time.Time) {
	for i := range t.Cars {
		a.cars[i].telemetry = t.Cars[i]
	}
	pt := &t.Cars[t.PlayerCarIndex]
	a.history.speed.push(now, float64(pt.Speed))
	a.history.throttle.push(now, float64(pt.Throttle)*100)
	a.history.brake.push(now, float64(pt.Brake)*100)
	a.addTraceSample(t.PlayerCarIndex)
}

// addTraceSample appends a sample for the player car while a lap is in
// progress. Without a known track length no sample is taken.
func (a *Aggregator) addTraceSample(idx uint8) {
	c := &a.cars[idx]
	trackLength := a.session.packet.TrackLength
	if trackLength == 0 || c.lap.CurrentLapNum == 0 || c.lap.LapDistance < 0 {
		return
	}
	t := &c.telemetry
	a.trace = append(a.trace, model.TelemetrySample{
		Distance:  lo.Clamp(float64(c.lap.LapDistance)/float64(trackLength), 0, 1),
		Speed:     float64(t.Speed),
		Throttle:  float64(t.Throttle) * 100,
		Brake:     float64(t.Brake) * 100,
		Gear:      t.Gear,
		RPM:       t.EngineRPM,
		Steer:     float64(t.Steer),
		LatG:      float64(c.motion.GForceLateral),
		LongG:     float64(c.motion.GForceLongitudinal),
		FrontSlip: a.slip.front,
		RearSlip:  a.slip.rear,
	})
}

func (a *Aggregator) applyLapData(l *packet.LapDataPacket, now time.Time) {
	for i := range l.Cars {
		c := &a.cars[i]
		cur := &l.Cars[i]
		c.lap = *cur
		if cur.CurrentLapNum == 0 {
			c.phase = NoActiveLap
			continue
		}
		vehicle := uint8(i)
		prev := a.prevLap[i]
		if cur.CurrentLapNum < prev {
			a.pruneSectors(vehicle, cur.CurrentLapNum)
		}

		key := lapKey{vehicle: vehicle, lap: cur.CurrentLapNum}
		snap := a.sectors[key]
		if s1 := cur.Sector1MS(); s1 != 0 {
			snap.s1 = s1
		}
		if s2 := cur.Sector2MS(); s2 != 0 {
			snap.s2 = s2
		}
		snap.invalid = cur.LapInvalid()
		a.sectors[key] = snap

		c.phase = LapInProgress
		a.prevLap[i] = cur.CurrentLapNum
		if prev != 0 && cur.CurrentLapNum > prev {
			a.completeLap(vehicle, prev, cur.LastLapTimeMS, now)
			c.phase = LapJustCompleted
		}
	}
}

// pruneSectors forgets the sectors of laps after lap that were never
// completed, e.g. after a flashback.
func (a *Aggregator) pruneSectors(vehicle, lap uint8) {
	maps.DeleteFunc(a.sectors, func(k lapKey, _ sectorSnapshot) bool {
		return k.vehicle == vehicle && k.lap > lap
	})
}

func (a *Aggregator) completeLap(vehicle, lapNum uint8, total uint32, now time.Time) {
	key := lapKey{vehicle: vehicle, lap: lapNum}
	snap := a.sectors[key]
	delete(a.sectors, key)

	isPlayer := vehicle == a.playerIdx
	var trace []model.TelemetrySample
	if isPlayer {
		trace = a.trace
		a.trace = nil
	}
	if total == 0 {
		a.log.Debug("skipping lap without time",
			log.Uint8("vehicle", vehicle), log.Uint8("lap", lapNum))
		return
	}

	rec := model.LapRecord{
		SessionUID:   a.session.uid,
		VehicleIndex: vehicle,
		LapNumber:    lapNum,
		LapTimeMS:    total,
		Sector1MS:    snap.s1,
		Sector2MS:    snap.s2,
		Sector3MS:    sector3(total, snap.s1, snap.s2),
		Valid:        !snap.invalid,
		CompletedAt:  now,
	}
	if isPlayer {
		slices.SortStableFunc(trace, func(x, y model.TelemetrySample) int {
			switch {
			case x.Distance < y.Distance:
				return -1
			case x.Distance > y.Distance:
				return 1
			default:
				return 0
			}
		})
		rec.Trace = trace
		summary := rec
		summary.Trace = nil
		a.lastCompleted = &summary
		a.log.Info("lap completed",
			log.Uint8("lap", lapNum),
			log.String("time", FormatLapTime(total)),
			log.Bool("valid", rec.Valid),
			log.Int("samples", len(trace)))
	}
	if a.session.uid != 0 {
		a.gateway.LapCompleted(a.ctx, rec)
	}
}

// sector3 is not transmitted, it is whatever remains of the lap time.
func sector3(total, s1, s2 uint32) uint32 {
	switch {
	case s1+s2 <= total:
		return total - s1 - s2
	case s1 <= total:
		return total - s1
	default:
		return 0
	}
}

func (a *Aggregator) applyFinalClassification(f *packet.FinalClassificationPacket) {
	n := min(int(f.NumCars), packet.MaxCars)
	ret := make([]model.Classification, 0, n)
	for i := range n {
		c := &f.Cars[i]
		entry := model.Classification{
			SessionUID:    a.session.uid,
			VehicleIndex:  uint8(i),
			Position:      c.Position,
			NumLaps:       c.NumLaps,
			GridPosition:  c.GridPosition,
			Points:        c.Points,
			NumPitStops:   c.NumPitStops,
			ResultStatus:  c.ResultStatus,
			BestLapTimeMS: c.BestLapTimeMS,
			TotalRaceTime: c.TotalRaceTime,
			PenaltiesTime: c.PenaltiesTime,
			NumPenalties:  c.NumPenalties,
			Stints: lo.Map(c.Stints(), func(s packet.Stint, idx int) model.Stint {
				return model.Stint{
					StintIndex:     uint8(idx),
					ActualCompound: s.ActualCompound,
					VisualCompound: s.VisualCompound,
					EndLap:         s.EndLap,
				}
			}),
		}
		if a.session.hasParticipants {
			entry.DriverName = a.session.participants.Cars[i].Name
			entry.TeamID = a.session.participants.Cars[i].TeamID
		}
		ret = append(ret, entry)
	}
	slices.SortFunc(ret, func(x, y model.Classification) int {
		return int(x.Position) - int(y.Position)
	})
	a.classification = ret
	if a.session.uid == 0 {
		return
	}
	for i := range ret {
		a.gateway.ClassificationFinal(a.ctx, ret[i])
	}
}
