package sim

import (
	"container/heap"
	"math/rand"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/tracefec/tracefec/sim/decoder"
	"github.com/tracefec/tracefec/sim/fec"
	"github.com/tracefec/tracefec/sim/trace"
)

// eventHeap implements heap.Interface, ordering events by timestamp with
// insertion-sequence tie-breaking (spec.md §5).
type eventHeap []Event

func (h eventHeap) Len() int { return len(h) }
func (h eventHeap) Less(i, j int) bool {
	if h[i].Timestamp() != h[j].Timestamp() {
		return h[i].Timestamp() < h[j].Timestamp()
	}
	return h[i].Seq() < h[j].Seq()
}
func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) { *h = append(*h, x.(Event)) }

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// lostRegistry tracks real packets currently believed lost, keyed by
// sim_id, and implements decoder.LostLookup directly.
type lostRegistry map[int]*trace.Packet

func (r lostRegistry) IsLost(simID int) bool { _, ok := r[simID]; return ok }

// Simulator replays one annotated trace over the lossy link model described
// in spec.md §4.3. A Simulator is single-use: construct one per trace via
// New, then call Run once.
type Simulator struct {
	cfg     Config
	lossRNG *rand.Rand

	packets     []*trace.Packet
	traceIdx    int
	currentTime float64

	queue     eventHeap
	seq       int64
	inflight  [2]int
	nextSimID [2]int

	lost     [2]lostRegistry
	decoders [2]*decoder.Decoder

	received []trace.Received
	stats    Stats
}

// New constructs a Simulator over packets that have already passed through
// the FEC injector (sim/fec.Run). cfg is validated before any event is
// scheduled.
func New(cfg Config, packets []*trace.Packet) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rng := NewPartitionedRNG(NewSimulationKey(cfg.Seed))
	s := &Simulator{
		cfg:     cfg,
		lossRNG: rng.ForSubsystem(SubsystemLoss),
		packets: packets,
		lost:    [2]lostRegistry{make(lostRegistry), make(lostRegistry)},
		decoders: [2]*decoder.Decoder{
			decoder.New(cfg.Injector.BlockSize),
			decoder.New(cfg.Injector.BlockSize),
		},
	}
	for _, p := range packets {
		switch {
		case p.IsReal():
			s.stats.TotalReal++
		case p.Meta.IsRepair():
			s.stats.TotalFEC++
		default:
			s.stats.TotalDummy++
		}
	}
	return s, nil
}

// Simulate is the package's top-level entrypoint (spec.md §5:
// "simulate(trace) → (received_trace, stats)"). It runs FEC injection and
// the transport simulator in one pass.
func Simulate(packets []*trace.Packet, cfg Config) ([]trace.Received, Stats, error) {
	if err := cfg.Validate(); err != nil {
		return nil, Stats{}, err
	}
	injectRNG := NewPartitionedRNG(NewSimulationKey(cfg.Seed))
	if cfg.ExternalFECRate > 0 {
		fec.ApplyExternalFECRate(packets, cfg.ExternalFECRate, injectRNG.ForSubsystem(SubsystemExternalFEC))
	}
	if err := fec.Run(packets, cfg.Injector, injectRNG.ForSubsystem(SubsystemInject)); err != nil {
		return nil, Stats{}, err
	}
	s, err := New(cfg, packets)
	if err != nil {
		return nil, Stats{}, err
	}
	s.Run()
	return s.received, s.stats, nil
}

func (s *Simulator) schedule(ev Event) {
	heap.Push(&s.queue, ev)
}

func (s *Simulator) nextSeq() int64 {
	s.seq++
	return s.seq
}

// Run drives the event loop to completion (spec.md §4.3).
func (s *Simulator) Run() {
	for s.traceIdx < len(s.packets) || s.queue.Len() > 0 {
		if s.trySend() {
			continue
		}
		ev := heap.Pop(&s.queue).(Event)
		s.currentTime = ev.Timestamp()
		logrus.Debugf("[t=%.6f] executing %T", s.currentTime, ev)
		ev.Execute(s)
	}
	sort.SliceStable(s.received, func(i, j int) bool {
		return s.received[i].Timestamp < s.received[j].Timestamp
	})
}

// trySend admits the next trace packet if its direction has spare capacity
// and its effective send time does not exceed the earliest pending event
// (spec.md §4.3 "Admission and scheduling"). Returns false if it could not
// send, meaning the caller should drain an event instead.
func (s *Simulator) trySend() bool {
	if s.traceIdx >= len(s.packets) {
		return false
	}
	pkt := s.packets[s.traceIdx]
	dir := pkt.Direction()
	if s.inflight[dir] >= s.cfg.MaxInflight {
		return false
	}
	effSend := pkt.OriginalTS
	if s.currentTime > effSend {
		effSend = s.currentTime
	}
	if s.queue.Len() > 0 && effSend > s.queue[0].Timestamp() {
		return false
	}

	s.traceIdx++
	s.currentTime = effSend
	s.send(pkt, dir)
	return true
}

func (s *Simulator) send(pkt *trace.Packet, dir trace.Direction) {
	if pkt.IsReal() && pkt.SimID == 0 {
		s.nextSimID[dir]++
		pkt.SimID = s.nextSimID[dir]
	}
	s.inflight[dir]++

	lost := s.lossRNG.Float64() < s.cfg.LossRate
	if !lost {
		s.schedule(&arrivalEvent{baseEvent{s.currentTime + s.cfg.RTT/2, s.nextSeq()}, pkt})
		return
	}

	if pkt.IsReal() {
		s.stats.LostReal++
		s.lost[dir][pkt.SimID] = pkt
		s.schedule(&timeoutEvent{baseEvent{s.currentTime + 1.5*s.cfg.RTT, s.nextSeq()}, pkt})
		return
	}
	s.schedule(&ackClearEvent{baseEvent{s.currentTime + s.cfg.RTT, s.nextSeq()}, pkt})
}

func (s *Simulator) onArrival(t float64, pkt *trace.Packet) {
	dir := pkt.Direction()

	if pkt.IsReal() {
		if _, wasLost := s.lost[dir][pkt.SimID]; wasLost {
			delete(s.lost[dir], pkt.SimID)
			s.decoders[dir].Forget(pkt.SimID)
		}
		// A stale retransmission can still be in flight after this packet was
		// already recovered via FEC; record and count the delivery only once.
		if !pkt.Delivered {
			pkt.Delivered = true
			s.received = append(s.received, trace.Received{Timestamp: t, Length: pkt.Length, Meta: pkt.Meta})
			s.stats.RecordRealDelivery(t, pkt.OriginalTS)
		}
		s.schedule(&ackEvent{baseEvent{t + s.cfg.RTT/2, s.nextSeq()}, pkt})
		return
	}

	s.received = append(s.received, trace.Received{Timestamp: t, Length: pkt.Length, Meta: pkt.Meta})

	if pkt.Meta.IsRepair() {
		recoveredIDs := s.decoders[dir].OnRepair(pkt.Meta, s.lost[dir])
		for _, simID := range recoveredIDs {
			rp, ok := s.lost[dir][simID]
			if !ok || rp.Delivered {
				continue
			}
			delete(s.lost[dir], simID)
			rp.Delivered = true
			s.received = append(s.received, trace.Received{Timestamp: t, Length: rp.Length, Meta: trace.Metadata{}})
			s.stats.RecordRealDelivery(t, rp.OriginalTS)
			s.stats.RecoveredReal++
			s.releaseSlot(rp)
		}
	}
	s.schedule(&ackClearEvent{baseEvent{t + s.cfg.RTT/2, s.nextSeq()}, pkt})
}

func (s *Simulator) releaseSlot(pkt *trace.Packet) {
	if pkt.AckAccounted {
		return
	}
	pkt.AckAccounted = true
	s.inflight[pkt.Direction()]--
}

func (s *Simulator) onTimeout(t float64, pkt *trace.Packet) {
	if pkt.Delivered || pkt.AckAccounted {
		return
	}
	pkt.RetransCount++
	s.stats.RetransmittedReal++

	lost := s.lossRNG.Float64() < s.cfg.LossRate
	if !lost {
		s.schedule(&arrivalEvent{baseEvent{t + s.cfg.RTT/2, s.nextSeq()}, pkt})
		return
	}
	s.schedule(&timeoutEvent{baseEvent{t + 1.5*s.cfg.RTT, s.nextSeq()}, pkt})
}

// StatsLine returns the exact statistics line spec.md §6 requires.
func (s *Simulator) StatsLine() string { return s.stats.Line() }
