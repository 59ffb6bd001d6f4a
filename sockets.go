package chordnode

import (
	"errors"
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// listenTCP creates, binds, and listens on a non-blocking IPv4 TCP
// socket. The socket family is fixed at AF_INET; there is no IPv6 support.
func listenTCP(ip net.IP, port uint16) (int, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return -1, fmt.Errorf("socket: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("setsockopt: %w", err)
	}
	addr, err := sockaddr4(ip, port)
	if err != nil {
		unix.Close(fd)
		return -1, err
	}
	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("bind: %w", err)
	}
	if err := unix.Listen(fd, 64); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("listen: %w", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("nonblock: %w", err)
	}
	return fd, nil
}

// bindUDP creates and binds a non-blocking IPv4 UDP socket.
func bindUDP(ip net.IP, port uint16) (int, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM, 0)
	if err != nil {
		return -1, fmt.Errorf("socket: %w", err)
	}
	addr, err := sockaddr4(ip, port)
	if err != nil {
		unix.Close(fd)
		return -1, err
	}
	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("bind: %w", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("nonblock: %w", err)
	}
	return fd, nil
}

// localPort returns the port the kernel assigned a socket bound with
// port 0, via getsockname(2). Used by tests that bind ephemeral ports.
func localPort(fd int) (uint16, error) {
	sa, err := unix.Getsockname(fd)
	if err != nil {
		return 0, err
	}
	sa4, ok := sa.(*unix.SockaddrInet4)
	if !ok {
		return 0, fmt.Errorf("unexpected sockaddr type %T", sa)
	}
	return uint16(sa4.Port), nil
}

func sockaddr4(ip net.IP, port uint16) (*unix.SockaddrInet4, error) {
	addr := &unix.SockaddrInet4{Port: int(port)}
	if ip == nil || ip.IsUnspecified() {
		return addr, nil
	}
	v4 := ip.To4()
	if v4 == nil {
		return nil, fmt.Errorf("%w: bind address is not ipv4", ErrBadRequest)
	}
	copy(addr.Addr[:], v4)
	return addr, nil
}

// readFault classifies a transport read/write error into a small closed
// set of kinds the event loop matches on and decides per kind, instead of
// inspecting a raw errno after every call: a reset connection is closed
// quietly, while other faults are logged before the descriptor is closed.
type readFault int

const (
	faultNone readFault = iota
	faultReset
	faultTimeout
	faultInterrupted
	faultOther
)

// classifyErrno unwraps err looking for a recognized errno, so it
// classifies correctly whether err is the bare syscall error (as at the
// accept/recv call sites) or one wrapped by ParseRequest/WriteResponse
// further up the call stack.
func classifyErrno(err error) readFault {
	switch {
	case err == nil:
		return faultNone
	case errors.Is(err, unix.ECONNRESET), errors.Is(err, unix.EPIPE):
		return faultReset
	case errors.Is(err, unix.EAGAIN):
		return faultTimeout
	case errors.Is(err, unix.EINTR):
		return faultInterrupted
	default:
		return faultOther
	}
}
