package chordnode

import (
	"fmt"
	"net"
	"os"
	"strconv"
)

// BootstrapConfig holds the environment-derived knobs: an optional
// bootstrap predecessor/successor pair, and whether periodic stabilization
// is disabled. A plain struct with a loader function rather than a
// config-file library — see DESIGN.md for why no config/CLI framework is
// introduced here.
type BootstrapConfig struct {
	Pred        *Neighbor
	Succ        *Neighbor
	NoStabilize bool
}

// LoadBootstrapConfig reads PRED_ID/PRED_IP/PRED_PORT, SUCC_ID/SUCC_IP/
// SUCC_PORT, and NO_STABILIZE from the process environment. Any partially
// specified triple (one or two of the three set, but not all three) is a
// configuration fault and fails fast.
func LoadBootstrapConfig() (BootstrapConfig, error) {
	var cfg BootstrapConfig

	pred, err := loadNeighborTriple("PRED_ID", "PRED_IP", "PRED_PORT")
	if err != nil {
		return cfg, err
	}
	cfg.Pred = pred

	succ, err := loadNeighborTriple("SUCC_ID", "SUCC_IP", "SUCC_PORT")
	if err != nil {
		return cfg, err
	}
	cfg.Succ = succ

	if _, set := os.LookupEnv("NO_STABILIZE"); set {
		cfg.NoStabilize = true
	}

	return cfg, nil
}

func loadNeighborTriple(idVar, ipVar, portVar string) (*Neighbor, error) {
	idStr, idSet := os.LookupEnv(idVar)
	ipStr, ipSet := os.LookupEnv(ipVar)
	portStr, portSet := os.LookupEnv(portVar)

	set := boolCount(idSet, ipSet, portSet)
	if set == 0 {
		return nil, nil
	}
	if set != 3 {
		return nil, fmt.Errorf("%w: %s/%s/%s must all be set together", ErrBadRequest, idVar, ipVar, portVar)
	}

	id, err := strconv.ParseUint(idStr, 10, 16)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBadRequest, idVar, err)
	}
	ip := net.ParseIP(ipStr)
	if ip == nil || ip.To4() == nil {
		return nil, fmt.Errorf("%w: %s is not a valid ipv4 address", ErrBadRequest, ipVar)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBadRequest, portVar, err)
	}

	return &Neighbor{ID: uint16(id), Host: ip, Port: uint16(port)}, nil
}

func boolCount(bs ...bool) int {
	n := 0
	for _, b := range bs {
		if b {
			n++
		}
	}
	return n
}
