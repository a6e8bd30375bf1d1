package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// command is one parsed operator instruction from the CLI adapter.
type command struct {
	name string
	args []string
}

// parseCommand splits one line of operator input into a command. Matching
// is case-insensitive.
func parseCommand(line string) (command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return command{}, fmt.Errorf("empty command")
	}
	return command{name: strings.ToLower(fields[0]), args: fields[1:]}, nil
}

func parseNodeIDArg(s string) (NodeID, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("expected a positive server id, got %q", s)
	}
	return NodeID(n), nil
}

// parseCostArg accepts a non-negative integer or the literal "inf"/"infinity".
func parseCostArg(s string) (int, error) {
	switch strings.ToLower(s) {
	case "inf", "infinity":
		return infCap, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("expected a non-negative cost or 'inf', got %q", s)
	}
	return n, nil
}

// dispatch executes cmd atomically against the routing state and returns
// the operator-facing output. Operator errors are returned as err and
// never mutate state.
func (r *Router) dispatch(cmd command) (string, error) {
	switch cmd.name {
	case "display":
		return r.cmdDisplay(), nil
	case "step":
		return r.cmdStep(), nil
	case "packets":
		return r.cmdPackets(), nil
	case "update":
		return r.cmdUpdate(cmd.args)
	case "disable":
		return r.cmdDisable(cmd.args)
	case "crash":
		return r.cmdCrash()
	default:
		return "", fmt.Errorf("unknown command: %q", cmd.name)
	}
}

func (r *Router) cmdDisplay() string {
	r.state.mu.Lock()
	dests := make([]NodeID, 0, len(r.state.best))
	for d := range r.state.best {
		dests = append(dests, d)
	}
	sort.Slice(dests, func(i, j int) bool { return dests[i] < dests[j] })

	var b strings.Builder
	fmt.Fprintf(&b, "%-10s %-10s %-10s\n", "dest", "nextHop", "cost")
	for _, d := range dests {
		hop := "none"
		if r.state.nextHop[d] != noHop {
			hop = r.state.nextHop[d].String()
		}
		cost := "inf"
		if r.state.best[d] < infCap {
			cost = strconv.Itoa(r.state.best[d])
		}
		fmt.Fprintf(&b, "%-10s %-10s %-10s\n", d.String(), hop, cost)
	}
	r.state.mu.Unlock()
	return strings.TrimRight(b.String(), "\n")
}

func (r *Router) cmdStep() string {
	r.stepCh <- struct{}{}
	return "advertisement round forced"
}

func (r *Router) cmdPackets() string {
	r.state.mu.Lock()
	n := r.state.packetsReceived
	r.state.mu.Unlock()
	return fmt.Sprintf("packetsReceived=%d", n)
}

func (r *Router) cmdUpdate(args []string) (string, error) {
	if len(args) != 3 {
		return "", fmt.Errorf("usage: update <serverA> <serverB> <newCost>")
	}
	a, err := parseNodeIDArg(args[0])
	if err != nil {
		return "", fmt.Errorf("update: %w", err)
	}
	b, err := parseNodeIDArg(args[1])
	if err != nil {
		return "", fmt.Errorf("update: %w", err)
	}
	cost, err := parseCostArg(args[2])
	if err != nil {
		return "", fmt.Errorf("update: %w", err)
	}
	if _, ok := r.top.Nodes[a]; !ok {
		return "", fmt.Errorf("update: unknown server %d", a)
	}
	if _, ok := r.top.Nodes[b]; !ok {
		return "", fmt.Errorf("update: unknown server %d", b)
	}
	if a == b {
		return "", fmt.Errorf("update: a link must join two distinct servers")
	}

	changed := r.applyControlUpdate(a, b, cost)

	msg := &LinkUpdateMsg{A: a, B: b, NewCost: cost, Origin: r.state.self}
	for _, endpoint := range [2]NodeID{a, b} {
		if endpoint == r.state.self {
			continue
		}
		send(r.top.Nodes[endpoint].String(), msg, r.cfg.ConnectTimeout, r.log)
	}
	if changed {
		r.advertiseOnce()
	}
	return fmt.Sprintf("update applied: link(%d,%d)=%d", a, b, cost), nil
}

func (r *Router) cmdDisable(args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("usage: disable <serverId>")
	}
	n, err := parseNodeIDArg(args[0])
	if err != nil {
		return "", fmt.Errorf("disable: %w", err)
	}

	r.state.mu.Lock()
	if _, ok := r.state.neighborLinkCost[n]; !ok {
		r.state.mu.Unlock()
		return "", fmt.Errorf("disable: %d is not a neighbor of this router", n)
	}
	r.state.dedup.seenOrAdd(r.state.self, n, infCap)
	r.state.applyOperatorLinkCost(n, infCap)
	changed := recompute(r.state)
	if r.cfg.Debug {
		if ierr := checkInvariants(r.state); ierr != nil {
			r.log.Error("invariant violation after disable", "error", ierr)
		}
	}
	r.state.mu.Unlock()

	send(r.top.Nodes[n].String(), &LinkDisableMsg{A: r.state.self, B: n, Origin: r.state.self}, r.cfg.ConnectTimeout, r.log)
	if changed {
		r.advertiseOnce()
	}
	return fmt.Sprintf("disabled link to %d", n), nil
}

func (r *Router) cmdCrash() (string, error) {
	r.state.mu.Lock()
	neighbors := r.state.activeNeighbors()
	self := r.state.self
	r.state.mu.Unlock()

	for _, n := range neighbors {
		send(r.top.Nodes[n].String(), &CrashNotifyMsg{Origin: self}, r.cfg.ConnectTimeout, r.log)
	}
	close(r.crashed)
	return "crashing", nil
}

// applyControlUpdate applies a link-update triple exactly once (the dedup
// set absorbs repeats) and only if this router is one of the link's
// endpoints — otherwise it has nothing local to change. It returns whether
// the routing table changed.
func (r *Router) applyControlUpdate(a, b NodeID, cost int) bool {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	if r.state.dedup.seenOrAdd(a, b, cost) {
		return false
	}
	var other NodeID
	switch r.state.self {
	case a:
		other = b
	case b:
		other = a
	default:
		return false
	}
	r.state.applyOperatorLinkCost(other, cost)
	changed := recompute(r.state)
	if r.cfg.Debug {
		if err := checkInvariants(r.state); err != nil {
			r.log.Error("invariant violation after link update", "error", err)
		}
	}
	return changed
}
