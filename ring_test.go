package chordnode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResponsibilityFor_basicArcs(t *testing.T) {
	// Node id=0x4000, pred=0x0000, succ=0x8000.
	require.Equal(t, RespSelf, ResponsibilityFor(0x0000, 0x4000, 0x8000, 0x1234))
	require.Equal(t, RespSuccessor, ResponsibilityFor(0x0000, 0x4000, 0x8000, 0x5678))
	require.Equal(t, RespNeither, ResponsibilityFor(0x0000, 0x4000, 0x8000, 0xC000))
}

func TestResponsibilityFor_wraparound(t *testing.T) {
	// pred=0xFF00, self=0x0100, succ=0x0200: the responsibility arc wraps across 0.
	require.Equal(t, RespSelf, ResponsibilityFor(0xFF00, 0x0100, 0x0200, 0xFFC0))
	require.Equal(t, RespSuccessor, ResponsibilityFor(0xFF00, 0x0100, 0x0200, 0x0180))
	require.Equal(t, RespNeither, ResponsibilityFor(0xFF00, 0x0100, 0x0200, 0x0500))
}

func TestResponsibilityFor_alone(t *testing.T) {
	for _, h := range []uint16{0, 1, 0x7FFF, 0xFFFF} {
		require.Equal(t, RespSelf, ResponsibilityFor(0x2000, 0x2000, 0x2000, h))
	}
}

func TestResponsibilityFor_totalOverArc(t *testing.T) {
	pred, self, succ := uint16(100), uint16(200), uint16(300)
	for h := 0; h < 65536; h++ {
		got := ResponsibilityFor(pred, self, succ, uint16(h))
		inSelfArc := inArc(pred, self, uint16(h))
		inSuccArc := inArc(self, succ, uint16(h))
		switch {
		case inSelfArc:
			require.Equal(t, RespSelf, got, "hash=%d", h)
		case inSuccArc:
			require.Equal(t, RespSuccessor, got, "hash=%d", h)
		default:
			require.Equal(t, RespNeither, got, "hash=%d", h)
		}
	}
}

func TestResponsibilityFor_rotationInvariant(t *testing.T) {
	pred, self, succ, hash := uint16(10), uint16(20), uint16(30), uint16(15)
	base := ResponsibilityFor(pred, self, succ, hash)
	for _, k := range []uint16{1, 100, 40000, 65535} {
		got := ResponsibilityFor(pred+k, self+k, succ+k, hash+k)
		require.Equal(t, base, got, "rotation by %d", k)
	}
}
