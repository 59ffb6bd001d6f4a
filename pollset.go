package chordnode

import "golang.org/x/sys/unix"

// SocketRole tags what a descriptor is for: a single tagged sequence the
// multiplexer can read interest masks directly off of, rather than
// parallel arrays keyed by raw descriptor.
type SocketRole int

const (
	RoleServerTCP SocketRole = iota
	RoleServerUDP
	RoleClientTCP
)

// PollSocket is one descriptor tracked by the event loop, together with
// its current interest mask and the events unix.Poll last reported for
// it.
type PollSocket struct {
	FD       int
	Role     SocketRole
	Readable bool // interest: wake this loop iteration on read-ready
	Writable bool // interest: wake this loop iteration on write-ready

	gotRead  bool // result: was actually readable after Poll returned
	gotWrite bool // result: was actually writable after Poll returned
	gotErr   bool // result: POLLERR/POLLHUP/POLLNVAL was set
}

// PollSet multiplexes a set of PollSockets with a single unix.Poll call.
// Exactly one goroutine owns every descriptor in the set, which rules out
// handing connections off to other goroutines the way idiomatic Go network
// code normally would.
type PollSet struct {
	socks []*PollSocket
}

// NewPollSet returns an empty PollSet.
func NewPollSet() *PollSet {
	return &PollSet{}
}

// Add registers a descriptor with the given initial interest.
func (p *PollSet) Add(fd int, role SocketRole, readable, writable bool) *PollSocket {
	s := &PollSocket{FD: fd, Role: role, Readable: readable, Writable: writable}
	p.socks = append(p.socks, s)
	return s
}

// Remove drops a descriptor from the set (e.g. a client connection that
// has been closed).
func (p *PollSet) Remove(s *PollSocket) {
	for i, cur := range p.socks {
		if cur == s {
			p.socks = append(p.socks[:i], p.socks[i+1:]...)
			return
		}
	}
}

// Sockets returns the currently tracked descriptors.
func (p *PollSet) Sockets() []*PollSocket {
	return p.socks
}

// Wait blocks for up to timeoutMS milliseconds waiting for any tracked
// descriptor to become ready, then records the result events on each
// PollSocket.
func (p *PollSet) Wait(timeoutMS int) error {
	fds := make([]unix.PollFd, len(p.socks))
	for i, s := range p.socks {
		var ev int16
		if s.Readable {
			ev |= unix.POLLIN
		}
		if s.Writable {
			ev |= unix.POLLOUT
		}
		fds[i] = unix.PollFd{Fd: int32(s.FD), Events: ev}
	}

	_, err := unix.Poll(fds, timeoutMS)
	if err != nil && err != unix.EINTR {
		return err
	}

	for i, s := range p.socks {
		s.gotRead = fds[i].Revents&unix.POLLIN != 0
		s.gotWrite = fds[i].Revents&unix.POLLOUT != 0
		s.gotErr = fds[i].Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0
	}
	return nil
}

// Ready reports whether Wait found s readable.
func (s *PollSocket) Ready() bool { return s.gotRead }

// WritableNow reports whether Wait found s writable.
func (s *PollSocket) WritableNow() bool { return s.gotWrite }

// Errored reports whether Wait found s in an error/hangup state.
func (s *PollSocket) Errored() bool { return s.gotErr }
