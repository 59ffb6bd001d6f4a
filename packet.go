package chordnode

import (
	"encoding/binary"
	"errors"
	"net"
)

// PacketKind tags a UDP control message as one of a small closed set.
type PacketKind byte

const (
	KindLookup    PacketKind = 0
	KindReply     PacketKind = 1
	KindStabilize PacketKind = 2
	KindNotify    PacketKind = 3
	KindJoin      PacketKind = 4
)

func (k PacketKind) String() string {
	switch k {
	case KindLookup:
		return "Lookup"
	case KindReply:
		return "Reply"
	case KindStabilize:
		return "Stabilize"
	case KindNotify:
		return "Notify"
	case KindJoin:
		return "Join"
	default:
		return "Unknown"
	}
}

func (k PacketKind) valid() bool {
	return k <= KindJoin
}

// PacketSize is the fixed wire size of a Packet, in bytes.
const PacketSize = 11

// ErrMalformedPacket is returned by DecodePacket when the buffer is the
// wrong length or carries an unrecognized kind byte.
var ErrMalformedPacket = errors.New("chordnode: malformed udp packet")

// ErrNotIPv4 is returned by Encode when a Packet's NodeIP is not a valid
// 4-byte IPv4 address. The wire format has no room for anything else;
// the original C implementation (src/lib/udp.c) used inet_aton/inet_ntoa
// directly for the same reason, never a hostname resolver.
var ErrNotIPv4 = errors.New("chordnode: packet node ip is not ipv4")

// Packet is the 11-byte UDP control message exchanged between ring peers.
type Packet struct {
	Kind     PacketKind
	Hash     uint16
	NodeID   uint16
	NodeIP   net.IP
	NodePort uint16
}

// Encode serializes p into the fixed 11-byte wire layout:
//
//	offset 0  size 1  kind      raw byte
//	offset 1  size 2  hash      big-endian uint16
//	offset 3  size 2  node_id   big-endian uint16
//	offset 5  size 4  node_ip   ipv4, network order
//	offset 9  size 2  node_port big-endian uint16
func (p Packet) Encode() ([PacketSize]byte, error) {
	var out [PacketSize]byte
	ip4 := p.NodeIP.To4()
	if ip4 == nil {
		return out, ErrNotIPv4
	}
	out[0] = byte(p.Kind)
	binary.BigEndian.PutUint16(out[1:3], p.Hash)
	binary.BigEndian.PutUint16(out[3:5], p.NodeID)
	copy(out[5:9], ip4)
	binary.BigEndian.PutUint16(out[9:11], p.NodePort)
	return out, nil
}

// DecodePacket parses an 11-byte buffer into a Packet. It rejects any
// buffer whose length is not exactly PacketSize and any kind byte greater
// than KindJoin.
func DecodePacket(buf []byte) (Packet, error) {
	if len(buf) != PacketSize {
		return Packet{}, ErrMalformedPacket
	}
	kind := PacketKind(buf[0])
	if !kind.valid() {
		return Packet{}, ErrMalformedPacket
	}
	ip := make(net.IP, 4)
	copy(ip, buf[5:9])
	return Packet{
		Kind:     kind,
		Hash:     binary.BigEndian.Uint16(buf[1:3]),
		NodeID:   binary.BigEndian.Uint16(buf[3:5]),
		NodeIP:   ip,
		NodePort: binary.BigEndian.Uint16(buf[9:11]),
	}, nil
}
