package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"golang.org/x/sync/errgroup"
)

// Router wires the routing state to its concurrent tasks: the listener,
// the periodic advertiser (which also drives the failure detector), and
// the command dispatcher fed by the CLI adapter. It is the single owner
// of the routing state; every other task holds only a reference to it.
type Router struct {
	state    *RoutingState
	top      *Topology
	cfg      *Config
	log      *slog.Logger
	metrics  *metrics
	selfAddr Address

	stepCh  chan struct{}
	crashed chan struct{}

	ln net.Listener
}

// NewRouter builds a Router ready to Run. It does not bind any socket or
// start any goroutine.
func NewRouter(top *Topology, self NodeID, cfg *Config, log *slog.Logger, m *metrics) *Router {
	return &Router{
		state:    newRoutingState(top, self, cfg.DedupCap, m),
		top:      top,
		cfg:      cfg,
		log:      log,
		metrics:  m,
		selfAddr: top.Nodes[self],
		stepCh:   make(chan struct{}, 1),
		crashed:  make(chan struct{}),
	}
}

// Run starts the listener, the advertiser/failure-detector loop, and the
// interactive command dispatcher, and blocks until crash is issued, ctx is
// cancelled, or a task fails. It returns the first error encountered, if
// any task failed to start.
func (r *Router) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ln, err := listen(ctx, r.selfAddr.String(), r.cfg.ReadTimeout, r.log, r.handleInbound)
	if err != nil {
		return fmt.Errorf("router: %w", err)
	}
	r.ln = ln

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		r.runAdvertiser(gctx)
		return nil
	})

	g.Go(func() error {
		runCLI(gctx, r)
		return nil
	})

	g.Go(func() error {
		select {
		case <-gctx.Done():
			return nil
		case <-r.crashed:
			cancel()
			return nil
		}
	})

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case err := <-done:
		return err
	case <-gctx.Done():
		select {
		case err := <-done:
			return err
		case <-time.After(r.cfg.ShutdownTimeout):
			return fmt.Errorf("router: shutdown exceeded %s", r.cfg.ShutdownTimeout)
		}
	}
}

// handleInbound is the listener's single entry point for decoded frames.
// It applies the message to the routing state under the lock and performs
// any resulting network I/O (a triggered advertisement) after releasing
// it.
func (r *Router) handleInbound(msg Message) {
	// Every decoded control message counts as received; advertisements are
	// counted by handleAdvertisement once their sender checks pass.
	if _, isAdv := msg.(*Advertisement); !isAdv {
		r.state.mu.Lock()
		r.state.packetsReceived++
		if r.metrics != nil {
			r.metrics.packetsReceived.Inc()
		}
		r.state.mu.Unlock()
	}

	switch m := msg.(type) {
	case *Advertisement:
		r.handleAdvertisement(m)
	case *LinkUpdateMsg:
		if r.applyControlUpdate(m.A, m.B, m.NewCost) {
			r.advertiseOnce()
		}
	case *LinkDisableMsg:
		if r.applyControlUpdate(m.A, m.B, infCap) {
			r.advertiseOnce()
		}
	case *CrashNotifyMsg:
		r.handleCrashNotify(m)
	}
}

func (r *Router) handleAdvertisement(m *Advertisement) {
	r.state.mu.Lock()
	if _, ok := r.state.neighborLinkCost[m.SenderID]; !ok {
		r.state.mu.Unlock()
		r.log.Debug("dropped advertisement from unknown neighbor", "sender", m.SenderID)
		return
	}
	want := r.top.Nodes[m.SenderID]
	if want.Host != m.SenderHost || want.Port != m.SenderPort {
		r.state.mu.Unlock()
		r.log.Debug("dropped advertisement with mismatched sender address",
			"sender", m.SenderID, "claimed", fmt.Sprintf("%s:%d", m.SenderHost, m.SenderPort), "want", want.String())
		return
	}

	restored := r.state.restoreFromFailure(m.SenderID)
	r.state.packetsReceived++
	r.state.setNeighborView(m.SenderID, m.Entries)
	recompute(r.state)
	if r.metrics != nil {
		r.metrics.packetsReceived.Inc()
	}
	if r.cfg.Debug {
		if err := checkInvariants(r.state); err != nil {
			r.log.Error("invariant violation after advertisement", "error", err)
		}
	}
	r.state.mu.Unlock()

	if restored {
		r.log.Info("neighbor recovered", "neighbor", m.SenderID)
	}
}

func (r *Router) handleCrashNotify(m *CrashNotifyMsg) {
	r.state.mu.Lock()
	if _, ok := r.state.neighborLinkCost[m.Origin]; !ok {
		r.state.mu.Unlock()
		return
	}
	r.state.disableNeighbor(m.Origin)
	recompute(r.state)
	if r.cfg.Debug {
		if err := checkInvariants(r.state); err != nil {
			r.log.Error("invariant violation after crash-notify", "error", err)
		}
	}
	r.state.mu.Unlock()

	r.log.Info("neighbor crashed", "neighbor", m.Origin)
	r.advertiseOnce()
}
