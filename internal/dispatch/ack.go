package dispatch

import "sync"

// ackRelay hands the first payload published by an incremental command
// handler over to the dispatcher. The publishing handler stays blocked
// until the dispatcher has sent the acknowledgement, so no handler side
// effect can be observed before the acknowledgement is on the wire.
// Payloads published after the first are discarded.
type ackRelay struct {
	once    sync.Once
	payload chan interface{}
	sent    chan struct{}
}

func newAckRelay() *ackRelay {
	return &ackRelay{
		payload: make(chan interface{}),
		sent:    make(chan struct{}),
	}
}

// sink is handed to the handler as its plugin.AckSink.
func (a *ackRelay) sink(p interface{}) {
	a.once.Do(func() {
		a.payload <- p
		<-a.sent
	})
}

// confirm unblocks the publishing handler after the acknowledgement has
// been sent.
func (a *ackRelay) confirm() {
	close(a.sent)
}
