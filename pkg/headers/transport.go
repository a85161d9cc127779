package headers

import (
	"strconv"
	"strings"

	"github.com/tidecam/rtspcat/pkg/base"
)

// Transport is a Transport header, as sent in a SETUP request. This client
// only ever writes one (it never needs to parse a server's echoed value:
// the state machine advances on status code alone, per spec).
type Transport struct {
	// TCP-interleaved: RTP/AVP/TCP;unicast;interleaved=<rtp>-<rtcp>
	InterleavedIDs *[2]int

	// UDP: RTP/AVP;unicast;client_port=<rtp>-<rtcp>
	ClientPorts *[2]int
}

// Write encodes a Transport header.
func (h Transport) Write() base.HeaderValue {
	var parts []string

	if h.InterleavedIDs != nil {
		parts = append(parts, "RTP/AVP/TCP", "unicast",
			"interleaved="+strconv.Itoa(h.InterleavedIDs[0])+"-"+strconv.Itoa(h.InterleavedIDs[1]))
	} else {
		parts = append(parts, "RTP/AVP", "unicast",
			"client_port="+strconv.Itoa(h.ClientPorts[0])+"-"+strconv.Itoa(h.ClientPorts[1]))
	}

	return base.HeaderValue{strings.Join(parts, ";")}
}
