package rtspclient

import "github.com/tidecam/rtspcat/pkg/headers"

// Protocol selects the transport variant used for the media session,
// mirroring the factory the Python original dispatches on
// (RtspClient.__init__ picking RtspClientTcp vs RtspClientUdp).
type Protocol int

// Transport variants.
const (
	ProtocolTCP Protocol = iota
	ProtocolUDP
)

func (p Protocol) String() string {
	if p == ProtocolUDP {
		return "UDP"
	}
	return "TCP"
}

// transport owns whatever sockets carry RTP/RTCP once PLAY succeeds, and
// knows how to build the Transport header for SETUP.
type transport interface {
	// open prepares any transport-owned resources needed before SETUP is
	// sent. It is a no-op for TCP, since the control socket already
	// carries the media.
	open(c *Client) error

	// transportHeader returns the Transport header value sent with SETUP.
	transportHeader() headers.Transport

	// startReading launches the goroutine(s) that decode RTP once the
	// session reaches Playing.
	startReading(c *Client)

	// close releases transport-owned sockets. Idempotent.
	close()
}
