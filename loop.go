package chordnode

import (
	"io"

	"golang.org/x/sys/unix"
)

// LoopConfig bundles the event loop's tunables.
type LoopConfig struct {
	// StabilizeInterval is the number of ticks between periodic
	// stabilizations (default 15).
	StabilizeInterval uint64
	// MaxClientSlots bounds concurrently accepted, unhandled TCP client
	// descriptors: once this many are outstanding, the loop stops
	// accepting until one frees up.
	MaxClientSlots int
	// NoStabilize disables the periodic stabilization tick entirely.
	NoStabilize bool
	// ReceiveAttempts is not read by the loop: fdConn.Read retries a
	// client read interrupted by EINTR exactly once, whatever this holds.
	ReceiveAttempts int
}

// DefaultLoopConfig returns the loop's stated defaults.
func DefaultLoopConfig() LoopConfig {
	return LoopConfig{
		StabilizeInterval: 15,
		MaxClientSlots:    32,
		ReceiveAttempts:   1,
	}
}

// pollTimeoutMS is the fixed multiplexed-wait timeout: long enough to avoid
// busy-looping, short enough that a quiet server still notices its own
// stabilization schedule promptly.
const pollTimeoutMS = 100

// Loop is the single-threaded cooperative event loop. One Loop instance
// owns exactly one Node, one Store, and every socket descriptor for the
// process; all mutation happens on the goroutine that calls Run.
type Loop struct {
	node  *Node
	store *Store
	cfg   LoopConfig

	poll    *PollSet
	tcpSock *PollSocket
	udpSock *PollSocket
	clients map[int]*PollSocket

	udpFD int

	tick uint64

	// anchor is where the first Join packet goes when status starts at
	// StatusJoining.
	anchor *Neighbor
}

// NewLoop binds the TCP and UDP sockets at host:port and returns a Loop
// ready to Run. If anchor is non-nil, node.Status should already be
// StatusJoining.
func NewLoop(node *Node, store *Store, cfg LoopConfig, anchor *Neighbor) (*Loop, error) {
	tcpFD, err := listenTCP(node.Host, node.Port)
	if err != nil {
		return nil, err
	}
	udpFD, err := bindUDP(node.Host, node.Port)
	if err != nil {
		unix.Close(tcpFD)
		return nil, err
	}

	l := &Loop{
		node:    node,
		store:   store,
		cfg:     cfg,
		poll:    NewPollSet(),
		clients: make(map[int]*PollSocket),
		udpFD:   udpFD,
		anchor:  anchor,
	}
	l.tcpSock = l.poll.Add(tcpFD, RoleServerTCP, false, false)
	l.udpSock = l.poll.Add(udpFD, RoleServerUDP, true, false)
	return l, nil
}

// Close releases every descriptor the loop owns.
func (l *Loop) Close() {
	for _, s := range l.poll.Sockets() {
		unix.Close(s.FD)
	}
}

// TCPPort returns the kernel-assigned TCP listen port, useful when the
// node was constructed with port 0 (tests, ephemeral binding).
func (l *Loop) TCPPort() (uint16, error) {
	return localPort(l.tcpSock.FD)
}

// UDPPort returns the kernel-assigned UDP port, useful when the node was
// constructed with port 0.
func (l *Loop) UDPPort() (uint16, error) {
	return localPort(l.udpFD)
}

// Run executes ticks until stop is closed.
func (l *Loop) Run(stop <-chan struct{}) error {
	for {
		select {
		case <-stop:
			return nil
		default:
		}
		if err := l.Tick(); err != nil {
			return err
		}
	}
}

// Tick executes exactly one iteration of the event loop: poll, service
// whatever is ready, then advance the tick counter and membership status.
func (l *Loop) Tick() error {
	l.setInterestForStatus()

	if err := l.poll.Wait(pollTimeoutMS); err != nil {
		return err
	}

	if l.tcpSock.Ready() {
		l.acceptOne()
	}
	if l.udpSock.Ready() {
		l.handleUDPReadable()
	}
	if l.udpSock.WritableNow() {
		l.handleUDPWritable()
	}

	for fd, cs := range l.clients {
		if cs.Ready() || cs.Errored() {
			l.serviceClient(fd, cs)
		}
	}

	l.tick++
	if !l.cfg.NoStabilize && l.node.Status == StatusOk &&
		l.cfg.StabilizeInterval > 0 && l.tick%l.cfg.StabilizeInterval == 0 {
		l.node.Status = StatusStabilizing
	}

	return nil
}

// setInterestForStatus sets the server sockets' poll interest for the
// current membership status: while joining or stabilizing, only the UDP
// socket is armed for writing (to emit the pending control packet) and the
// TCP listener stays disabled for the tick; once Ok, the TCP listener is
// armed for reading and writing and the UDP socket for reading only. The
// UDP socket is readable in every status.
func (l *Loop) setInterestForStatus() {
	switch l.node.Status {
	case StatusJoining, StatusStabilizing:
		l.tcpSock.Readable = false
		l.tcpSock.Writable = false
		l.udpSock.Writable = true
	case StatusOk:
		l.tcpSock.Readable = true
		l.tcpSock.Writable = true
		l.udpSock.Writable = false
	}
	l.udpSock.Readable = true
}

func (l *Loop) acceptOne() {
	if len(l.clients) >= l.cfg.MaxClientSlots {
		return
	}
	fd, _, err := unix.Accept(l.tcpSock.FD)
	if err != nil {
		switch classifyErrno(err) {
		case faultTimeout, faultReset:
			// nothing pending, or the connecting peer gave up first
		default:
			logWarn("tcp accept failed: %v", err)
		}
		return
	}
	l.clients[fd] = l.poll.Add(fd, RoleClientTCP, true, false)
}

func (l *Loop) serviceClient(fd int, cs *PollSocket) {
	defer l.closeClient(fd, cs)

	conn := newFDConn(fd)
	req, err := ParseRequest(conn)
	if err != nil {
		if classifyErrno(err) == faultReset {
			// peer reset the connection mid-read; close quietly, there
			// is nothing left to write a response to.
			return
		}
		logWarn("tcp read failed: %v", err)
		WriteResponse(conn, Response{Status: 400})
		return
	}

	resp := Route(l.node, req, l.store, l)
	if err := WriteResponse(conn, resp); err != nil {
		if classifyErrno(err) == faultReset {
			return
		}
		logWarn("tcp write failed: %v", err)
	}
}

func (l *Loop) closeClient(fd int, cs *PollSocket) {
	l.poll.Remove(cs)
	delete(l.clients, fd)
	unix.Close(fd)
}

func (l *Loop) handleUDPReadable() {
	buf := make([]byte, PacketSize)
	n, _, err := unix.Recvfrom(l.udpFD, buf, 0)
	if err != nil {
		switch classifyErrno(err) {
		case faultTimeout, faultReset:
			// no datagram ready, or the sending peer is gone
		default:
			logWarn("udp recv failed: %v", err)
		}
		return
	}
	if n != PacketSize {
		return // malformed: dropped silently
	}
	pkt, err := DecodePacket(buf[:n])
	if err != nil {
		return // malformed: dropped silently
	}

	action := HandlePacket(l.node, pkt)
	l.dispatchAction(action)
}

func (l *Loop) dispatchAction(a Action) {
	switch a.Kind {
	case ActionForward:
		if err := l.SendPacket(a.Dest, a.Packet); err != nil {
			logWarn("udp forward failed: %v", err)
		}
	case ActionReply:
		if err := l.SendPacket(a.Dest, a.Packet); err != nil {
			logWarn("udp reply failed: %v", err)
		}
	case ActionDrop:
		// nothing to send
	}
}

func (l *Loop) handleUDPWritable() {
	switch l.node.Status {
	case StatusJoining:
		if l.anchor == nil {
			l.node.Status = StatusOk
			return
		}
		self := l.node.Self()
		join := Packet{Kind: KindJoin, Hash: 0, NodeID: self.ID, NodeIP: self.Host, NodePort: self.Port}
		if err := l.SendPacket(*l.anchor, join); err != nil {
			logWarn("join send failed: %v", err)
		}
		l.node.Status = StatusOk
		logInfo("node %d: joined via anchor %v", l.node.ID, l.anchor)

	case StatusStabilizing:
		// A node that is its own predecessor and successor has no one to
		// stabilize with; skip the round trip rather than mail a Stabilize
		// packet to itself.
		if l.node.Succ != nil && !l.node.Alone() {
			self := l.node.Self()
			stab := Packet{Kind: KindStabilize, Hash: self.ID, NodeID: self.ID, NodeIP: self.Host, NodePort: self.Port}
			if err := l.SendPacket(*l.node.Succ, stab); err != nil {
				logErr("stabilize send to %v failed: %v", *l.node.Succ, err)
			}
		}
		l.node.Status = StatusOk
	}
}

// SendPacket implements UDPSender for the HTTP routing shim and is also
// used internally by the UDP handler dispatch.
func (l *Loop) SendPacket(dest Neighbor, p Packet) error {
	wire, err := p.Encode()
	if err != nil {
		return err
	}
	addr, err := sockaddr4(dest.Host, dest.Port)
	if err != nil {
		return err
	}
	return unix.Sendto(l.udpFD, wire[:], 0, addr)
}

// fdConn adapts a raw blocking file descriptor to io.Reader/io.Writer for
// ParseRequest/WriteResponse, since the loop talks to client sockets via
// golang.org/x/sys/unix rather than net.Conn — these descriptors stay owned
// by the single event-loop thread for their whole lifetime, never handed
// to the net package's own background poller.
type fdConn struct {
	fd int
}

func newFDConn(fd int) *fdConn { return &fdConn{fd: fd} }

// Read retries once on EINTR (a signal interrupting the blocking read)
// before giving up on a client that makes no progress.
func (c *fdConn) Read(p []byte) (int, error) {
	for attempt := 0; ; attempt++ {
		n, err := unix.Read(c.fd, p)
		if err == unix.EINTR && attempt < 1 {
			continue
		}
		if err != nil {
			return 0, err
		}
		if n == 0 {
			return 0, io.EOF
		}
		return n, nil
	}
}

func (c *fdConn) Write(p []byte) (int, error) {
	total := 0
	for total < len(p) {
		n, err := unix.Write(c.fd, p[total:])
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
