package sim

import "github.com/tracefec/tracefec/sim/trace"

// Event is anything the simulator's priority queue can order and execute.
// Timestamp breaks ties via seq, assigned at schedule time in submission
// order, so dequeue order is fully deterministic (spec.md §5).
type Event interface {
	Timestamp() float64
	Seq() int64
	Execute(*Simulator)
}

type baseEvent struct {
	time float64
	seq  int64
}

func (e baseEvent) Timestamp() float64 { return e.time }
func (e baseEvent) Seq() int64         { return e.seq }

// arrivalEvent fires rtt/2 after a packet is sent without being lost.
type arrivalEvent struct {
	baseEvent
	pkt *trace.Packet
}

func (e *arrivalEvent) Execute(s *Simulator) { s.onArrival(e.time, e.pkt) }

// ackEvent fires rtt/2 after a real packet's ARRIVAL, releasing its
// in-flight slot.
type ackEvent struct {
	baseEvent
	pkt *trace.Packet
}

func (e *ackEvent) Execute(s *Simulator) { s.releaseSlot(e.pkt) }

// ackClearEvent releases the in-flight slot of a repair/dummy packet, whether
// it was lost on the wire or arrived. Lost real packets get a timeoutEvent
// instead.
type ackClearEvent struct {
	baseEvent
	pkt *trace.Packet
}

func (e *ackClearEvent) Execute(s *Simulator) { s.releaseSlot(e.pkt) }

// timeoutEvent fires 1.5*rtt after a real packet is declared lost, driving
// retransmission.
type timeoutEvent struct {
	baseEvent
	pkt *trace.Packet
}

func (e *timeoutEvent) Execute(s *Simulator) { s.onTimeout(e.time, e.pkt) }
