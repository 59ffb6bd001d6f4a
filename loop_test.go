package chordnode

import (
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// TestLoop_httpRoundTrip exercises the event loop end to end over real
// loopback sockets: accept, read a full HTTP request, route it through
// the store, write the response, and close the client descriptor, all
// within ticks driven by Run.
func TestLoop_httpRoundTrip(t *testing.T) {
	node := NewNode(1, net.IPv4(127, 0, 0, 1), 0)
	node.Participant = false // force local serving regardless of hash
	store := NewStore()
	require.NoError(t, store.PutStatic("/static/foo", []byte("Foo")))

	cfg := DefaultLoopConfig()
	loop, err := NewLoop(node, store, cfg, nil)
	require.NoError(t, err)
	defer loop.Close()

	port, err := loop.TCPPort()
	require.NoError(t, err)

	stop := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- loop.Run(stop) }()
	defer func() {
		close(stop)
		<-done
	}()

	conn, err := net.DialTimeout("tcp", fmt.Sprintf("127.0.0.1:%d", port), 2*time.Second)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("GET /static/foo HTTP/1.1\r\nHost: x\r\n\r\n"))
	require.NoError(t, err)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 512)
	n, err := conn.Read(buf)
	require.NoError(t, err)
	resp := string(buf[:n])

	require.Contains(t, resp, "200")
	require.Contains(t, resp, "Foo")
}

// TestLoop_udpLookupIsProcessed drives the UDP half of the loop: a
// Lookup packet addressed to this node, for a hash this node is
// responsible for, must produce a Reply visible on the socket.
func TestLoop_udpLookupIsProcessed(t *testing.T) {
	node := NewNode(0x4000, net.IPv4(127, 0, 0, 1), 0)
	node.Pred = &Neighbor{ID: 0x0000}
	node.Succ = &Neighbor{ID: 0x8000}
	node.Participant = true

	cfg := DefaultLoopConfig()
	cfg.NoStabilize = true
	loop, err := NewLoop(node, NewStore(), cfg, nil)
	require.NoError(t, err)
	defer loop.Close()

	udpPort, err := loop.UDPPort()
	require.NoError(t, err)

	clientConn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
	require.NoError(t, err)
	defer clientConn.Close()
	clientPort := clientConn.LocalAddr().(*net.UDPAddr).Port

	lookup := Packet{
		Kind: KindLookup, Hash: 0x1234,
		NodeID: 0x9999, NodeIP: net.IPv4(127, 0, 0, 1), NodePort: uint16(clientPort),
	}
	wire, err := lookup.Encode()
	require.NoError(t, err)

	_, err = clientConn.WriteToUDP(wire[:], &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: int(udpPort)})
	require.NoError(t, err)

	require.NoError(t, loop.Tick())

	clientConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, PacketSize)
	n, _, err := clientConn.ReadFromUDP(buf)
	require.NoError(t, err)
	require.Equal(t, PacketSize, n)

	got, err := DecodePacket(buf[:n])
	require.NoError(t, err)
	require.Equal(t, KindReply, got.Kind)
	require.Equal(t, node.ID, got.NodeID)
}

// TestLoop_aloneNodeSkipsSelfStabilize verifies a one-member ring doesn't
// mail itself a Stabilize packet over its own UDP socket.
func TestLoop_aloneNodeSkipsSelfStabilize(t *testing.T) {
	node := NewNode(0x4000, net.IPv4(127, 0, 0, 1), 0)
	node.Participant = true

	cfg := DefaultLoopConfig()
	loop, err := NewLoop(node, NewStore(), cfg, nil)
	require.NoError(t, err)
	defer loop.Close()

	udpPort, err := loop.UDPPort()
	require.NoError(t, err)
	self := Neighbor{ID: node.ID, Host: net.IPv4(127, 0, 0, 1), Port: udpPort}
	node.Pred = &self
	node.Succ = &self
	require.True(t, node.Alone())

	node.Status = StatusStabilizing
	loop.handleUDPWritable()
	require.Equal(t, StatusOk, node.Status)

	buf := make([]byte, PacketSize)
	_, _, err = unix.Recvfrom(loop.udpFD, buf, unix.MSG_DONTWAIT)
	require.ErrorIs(t, err, unix.EAGAIN)
}
