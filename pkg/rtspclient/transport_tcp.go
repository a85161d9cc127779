package rtspclient

import (
	"time"

	"github.com/tidecam/rtspcat/pkg/base"
	"github.com/tidecam/rtspcat/pkg/headers"
)

// TCP channel assignment fixed by spec §6: interleaved=0-1.
const (
	tcpChannelRTP  = 0
	tcpChannelRTCP = 1

	// tcpMaxInterleavedPayload bounds a single interleaved frame body;
	// well above any single RTP packet (max UDP datagram is 64KiB).
	tcpMaxInterleavedPayload = 65535
)

// tcpTransport carries RTP/RTCP inside the RTSP TCP session, interleaved
// with text replies behind the '$' magic byte (spec §4.5).
type tcpTransport struct{}

func (t *tcpTransport) open(c *Client) error {
	return nil
}

func (t *tcpTransport) transportHeader() headers.Transport {
	return headers.Transport{InterleavedIDs: &[2]int{tcpChannelRTP, tcpChannelRTCP}}
}

func (t *tcpTransport) startReading(c *Client) {
	c.wg.Add(1)
	go c.tcpReadLoop()
}

func (t *tcpTransport) close() {}

// tcpReadLoop is the single reader task of spec §4.5's TCP-interleaved
// mode: it is the only goroutine that ever reads the control socket past
// PLAY, so control writes (none occur here, post-PLAY) and reads never
// race.
func (c *Client) tcpReadLoop() {
	defer c.wg.Done()

	var frame base.InterleavedFrame
	var res base.Response
	var req base.Request

	for {
		if c.conf.ReadTimeout > 0 {
			c.conn.SetReadDeadline(time.Now().Add(c.conf.ReadTimeout)) //nolint:errcheck
		}

		out, err := base.ReadInterleavedFrameOrMessage(&frame, tcpMaxInterleavedPayload, &res, &req, c.br)
		if err != nil {
			c.terminate(err)
			return
		}

		switch v := out.(type) {
		case *base.InterleavedFrame:
			switch v.Channel {
			case tcpChannelRTP:
				c.handleRTP(v.Payload)
			case tcpChannelRTCP:
				c.validateRTCPOnce(v.Payload)
			}

		case *base.Request:
			// the only server-initiated request possible here is ANNOUNCE;
			// accepted and ignored, per spec §4.4.

		case *base.Response:
			// an unsolicited reply with no outstanding request; ignore.
		}
	}
}
