// Command chordnode runs a single ring node: an HTTP server over TCP and
// a Chord-style control protocol over UDP, both multiplexed by a single
// event loop.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/golang/glog"

	"github.com/rudolphmax/chordnode"
)

// usage is strictly positional, not flag-based. flag.Parse is still called
// (only to let glog's -v and friends register) but the five positional
// arguments are read straight from flag.Args().
func usage() {
	fmt.Fprintln(os.Stderr, "usage: chordnode <host> <port> <node_id> [<anchor_host> <anchor_port>]")
}

func main() {
	flag.Parse()
	defer glog.Flush()

	args := flag.Args()
	if len(args) != 3 && len(args) != 5 {
		usage()
		os.Exit(2)
	}

	host := net.ParseIP(args[0])
	if host == nil || host.To4() == nil {
		fmt.Fprintf(os.Stderr, "invalid host %q: must be an ipv4 literal\n", args[0])
		os.Exit(2)
	}

	port, err := strconv.ParseUint(args[1], 10, 16)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid port %q: %v\n", args[1], err)
		os.Exit(2)
	}

	nodeID, err := strconv.ParseUint(args[2], 10, 16)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid node_id %q: %v\n", args[2], err)
		os.Exit(2)
	}

	var anchor *chordnode.Neighbor
	if len(args) == 5 {
		anchorIP := net.ParseIP(args[3])
		if anchorIP == nil || anchorIP.To4() == nil {
			fmt.Fprintf(os.Stderr, "invalid anchor_host %q: must be an ipv4 literal\n", args[3])
			os.Exit(2)
		}
		anchorPort, err := strconv.ParseUint(args[4], 10, 16)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid anchor_port %q: %v\n", args[4], err)
			os.Exit(2)
		}
		anchor = &chordnode.Neighbor{Host: anchorIP, Port: uint16(anchorPort)}
	}

	bootstrap, err := chordnode.LoadBootstrapConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	node := chordnode.NewNode(uint16(nodeID), host, uint16(port))
	node.Pred = bootstrap.Pred
	node.Succ = bootstrap.Succ
	node.Participant = anchor != nil || bootstrap.Pred != nil || bootstrap.Succ != nil
	if anchor != nil {
		node.Status = chordnode.StatusJoining
	}

	store := chordnode.NewStore()

	loopCfg := chordnode.DefaultLoopConfig()
	loopCfg.NoStabilize = bootstrap.NoStabilize

	loop, err := chordnode.NewLoop(node, store, loopCfg, anchor)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to bind sockets: %v\n", err)
		os.Exit(1)
	}
	defer loop.Close()

	glog.Infof("chordnode %d listening on %s:%d", node.ID, host, port)

	if err := loop.Run(nil); err != nil {
		fmt.Fprintf(os.Stderr, "event loop terminated: %v\n", err)
		os.Exit(1)
	}
}
