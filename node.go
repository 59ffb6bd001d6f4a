package chordnode

import "net"

// Neighbor identifies a peer on the ring. It is immutable once assigned;
// replacing a node's predecessor or successor means installing a new
// Neighbor value wholesale, never mutating one in place.
type Neighbor struct {
	ID   uint16
	Host net.IP
	Port uint16
}

// Equal reports whether two neighbors identify the same peer, comparing
// the full (id, ip, port) tuple.
func (n Neighbor) Equal(o Neighbor) bool {
	return n.ID == o.ID && n.Port == o.Port && n.Host.Equal(o.Host)
}

// MembershipStatus is a node's place in the join/stabilize state machine.
type MembershipStatus int

const (
	StatusJoining MembershipStatus = iota
	StatusStabilizing
	StatusOk
)

func (s MembershipStatus) String() string {
	switch s {
	case StatusJoining:
		return "joining"
	case StatusStabilizing:
		return "stabilizing"
	case StatusOk:
		return "ok"
	default:
		return "unknown"
	}
}

// Node is this process's view of its position and neighbors on the ring.
// Exactly one Node exists per process; it is owned exclusively by the
// event loop (loop.go) and never shared across goroutines.
type Node struct {
	ID     uint16
	Pred   *Neighbor
	Succ   *Neighbor
	Status MembershipStatus
	Cache  *LookupCache

	// Participant is false for a node that never engages the ring at
	// all (no anchor, no bootstrap predecessor/successor configured):
	// such a node serves every request locally regardless of hash,
	// distinct from the Alone case below where the node has joined a
	// one-member ring and RespSelf already covers every hash.
	Participant bool

	// Host/Port are this node's own address, used to stamp outbound
	// packets and redirect Location headers.
	Host net.IP
	Port uint16
}

// NewNode constructs a Node with the given id and address. Status starts
// at StatusOk; callers that configure an anchor should set Status to
// StatusJoining afterward.
func NewNode(id uint16, host net.IP, port uint16) *Node {
	return &Node{
		ID:     id,
		Status: StatusOk,
		Cache:  NewLookupCache(),
		Host:   host,
		Port:   port,
	}
}

// Alone reports whether this node believes it is the only ring member.
func (n *Node) Alone() bool {
	return n.Pred != nil && n.Succ != nil && n.Pred.ID == n.ID && n.Succ.ID == n.ID
}

// Responsibility classifies hash against this node's current predecessor
// and successor, delegating to the pure ring predicate (ring.go). Neither
// neighbor is substituted with a placeholder when unknown: a node that
// hasn't yet learned its predecessor or successor has nowhere to forward
// or redirect to, so it answers every hash itself until both are known.
func (n *Node) Responsibility(hash uint16) Responsibility {
	if n.Pred == nil || n.Succ == nil {
		return RespSelf
	}
	return ResponsibilityFor(n.Pred.ID, n.ID, n.Succ.ID, hash)
}

// Self returns this node's own address as a Neighbor.
func (n *Node) Self() Neighbor {
	return Neighbor{ID: n.ID, Host: n.Host, Port: n.Port}
}
