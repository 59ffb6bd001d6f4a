package chordnode

// ActionKind tags what the caller should do on the wire after
// HandlePacket returns. Any state mutation (installing a new predecessor
// or successor) has already been applied to Node by the time HandlePacket
// returns; ActionKind only describes the network side-effect, if any.
type ActionKind int

const (
	// ActionDrop means nothing is sent.
	ActionDrop ActionKind = iota
	// ActionForward means Packet should be sent unchanged to Dest.
	ActionForward
	// ActionReply means Packet (a newly built outbound packet) should be
	// sent to Dest.
	ActionReply
)

// Action is the outcome of handling one inbound UDP packet.
type Action struct {
	Kind   ActionKind
	Dest   Neighbor
	Packet Packet
}

func dropAction() Action { return Action{Kind: ActionDrop} }

func forwardAction(dest Neighbor, p Packet) Action {
	return Action{Kind: ActionForward, Dest: dest, Packet: p}
}

func replyAction(dest Neighbor, p Packet) Action {
	return Action{Kind: ActionReply, Dest: dest, Packet: p}
}

// originOf recovers the Neighbor that sent in, from the packet's own
// self-reported identity fields, not the UDP socket's source address:
// replies always go to the address the sender claims, not the address the
// kernel observed.
func originOf(in Packet) Neighbor {
	return Neighbor{ID: in.NodeID, Host: in.NodeIP, Port: in.NodePort}
}

// HandlePacket consumes one inbound packet against n's current state and
// returns the single outbound action to take, mutating n in place for
// absorb-style outcomes (installing a new predecessor or successor).
func HandlePacket(n *Node, in Packet) Action {
	switch in.Kind {
	case KindLookup:
		return handleLookup(n, in)
	case KindJoin:
		return handleJoin(n, in)
	case KindStabilize:
		return handleStabilize(n, in)
	case KindNotify:
		return handleNotify(n, in)
	case KindReply:
		return handleReply(n, in)
	default:
		return dropAction()
	}
}

func handleLookup(n *Node, in Packet) Action {
	switch n.Responsibility(in.Hash) {
	case RespSelf:
		self := n.Self()
		return replyAction(originOf(in), Packet{
			Kind: KindReply, Hash: in.Hash,
			NodeID: self.ID, NodeIP: self.Host, NodePort: self.Port,
		})
	case RespSuccessor:
		s := *n.Succ
		return replyAction(originOf(in), Packet{
			Kind: KindReply, Hash: in.Hash,
			NodeID: s.ID, NodeIP: s.Host, NodePort: s.Port,
		})
	default: // RespNeither
		return forwardAction(*n.Succ, in)
	}
}

func handleJoin(n *Node, in Packet) Action {
	switch n.Responsibility(in.Hash) {
	case RespSelf:
		joiner := originOf(in)
		n.Pred = &joiner
		if n.Succ == nil {
			n.Succ = &joiner
		}
		self := n.Self()
		return replyAction(joiner, Packet{
			Kind: KindNotify, Hash: in.Hash,
			NodeID: self.ID, NodeIP: self.Host, NodePort: self.Port,
		})
	default: // RespSuccessor or RespNeither: forward one hop further
		return forwardAction(*n.Succ, in)
	}
}

func handleStabilize(n *Node, in Packet) Action {
	sender := originOf(in)
	if n.Pred == nil {
		n.Pred = &sender
	}
	// The Notify reply's node fields carry the identity the sender
	// should consider adopting as its new successor — here, this node's
	// current predecessor — not this node's own identity. The wire format
	// carries only one identity per message, so it carries the single
	// most useful one: our predecessor.
	pred := *n.Pred
	notify := Packet{Kind: KindNotify, Hash: in.Hash, NodeID: pred.ID, NodeIP: pred.Host, NodePort: pred.Port}
	return replyAction(sender, notify)
}

func handleNotify(n *Node, in Packet) Action {
	sender := originOf(in)
	if sender.ID != n.ID {
		n.Succ = &sender
	}
	return dropAction()
}

func handleReply(n *Node, in Packet) Action {
	neighbor := originOf(in)
	if idx, ok := n.Cache.FindPending(); ok {
		n.Cache.Resolve(idx, neighbor)
	}
	return dropAction()
}
