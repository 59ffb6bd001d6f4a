package chordnode

import (
	"errors"
	"fmt"
)

// UDPSender is the outbound half of the UDP socket, as seen by the HTTP
// routing shim: it only ever needs to fire a single Lookup packet at a
// neighbor, never to read.
type UDPSender interface {
	SendPacket(dest Neighbor, p Packet) error
}

// Route decides whether to serve a request locally, redirect it to the
// successor, or kick off an asynchronous lookup and return 503. req.URI is
// hashed with HashURI; the hash is checked against n's current
// responsibility and, on a miss, against the pending/resolved lookup
// cache.
func Route(n *Node, req Request, store *Store, udp UDPSender) Response {
	if !n.Participant {
		return serveLocal(store, req)
	}

	hash := HashURI(req.URI)
	switch n.Responsibility(hash) {
	case RespSelf:
		return serveLocal(store, req)

	case RespSuccessor:
		return redirectTo(*n.Succ, req.URI)

	default: // RespNeither
		if neighbor, ok := n.Cache.Lookup(hash); ok {
			return redirectTo(neighbor, req.URI)
		}

		self := n.Self()
		lookup := Packet{
			Kind: KindLookup, Hash: hash,
			NodeID: self.ID, NodeIP: self.Host, NodePort: self.Port,
		}
		if err := udp.SendPacket(*n.Succ, lookup); err != nil {
			logWarn("udp lookup send failed: %v", err)
		}
		n.Cache.AddPending(hash)

		return Response{
			Status: 503,
			Header: map[string]string{"Retry-After": "1"},
		}
	}
}

func redirectTo(dest Neighbor, uri string) Response {
	loc := fmt.Sprintf("http://%s:%d%s", dest.Host.String(), dest.Port, uri)
	return Response{
		Status: 303,
		Header: map[string]string{"Location": loc},
	}
}

func serveLocal(store *Store, req Request) Response {
	switch req.Method {
	case "GET":
		v, err := store.Get(req.URI)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return Response{Status: 404}
			}
			return Response{Status: 400}
		}
		return Response{Status: 200, Body: v}

	case "PUT":
		_, getErr := store.Get(req.URI)
		existed := getErr == nil
		if err := store.Put(req.URI, req.Body); err != nil {
			return statusForStoreErr(err)
		}
		if existed {
			return Response{Status: 200}
		}
		return Response{Status: 201}

	case "DELETE":
		if err := store.Delete(req.URI); err != nil {
			return statusForStoreErr(err)
		}
		return Response{Status: 204}

	default:
		return statusForStoreErr(fmt.Errorf("%s: %w", req.Method, ErrNotImplemented))
	}
}

func statusForStoreErr(err error) Response {
	switch {
	case errors.Is(err, ErrForbidden):
		return Response{Status: 403}
	case errors.Is(err, ErrNotFound):
		return Response{Status: 404}
	case errors.Is(err, ErrNotImplemented):
		return Response{Status: 501}
	default:
		return Response{Status: 400}
	}
}
