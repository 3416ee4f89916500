package session

import "sync/atomic"

// Ticket identifies one upstream request
type Ticket uint64

// Guard hands out increasing tickets. Only the most recent ticket is
// current; results carried by older tickets must be discarded.
type Guard struct {
	seq atomic.Uint64
}

// Begin issues a new ticket and supersedes every earlier one
func (g *Guard) Begin() Ticket {
	return Ticket(g.seq.Add(1))
}

// Current reports whether t is the newest ticket issued
func (g *Guard) Current(t Ticket) bool {
	return uint64(t) == g.seq.Load()
}

// Last returns the newest ticket without superseding it
func (g *Guard) Last() Ticket {
	return Ticket(g.seq.Load())
}

// GenerateTicket pins a document request to the analysis it was built
// from. A newer analysis or a newer document request makes it stale.
type GenerateTicket struct {
	Analysis Ticket
	Generate Ticket
}
