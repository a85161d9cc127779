package rtspclient

import (
	"fmt"
	"net"
	"time"

	"golang.org/x/net/ipv4"

	"github.com/tidecam/rtspcat/pkg/headers"
)

const (
	// udpRTPReadBufferSize is the kernel receive buffer requested on the
	// RTP socket: spec §4.5 requires >=1MiB so a burst of video packets
	// does not overrun the kernel queue between consumer reads.
	udpRTPReadBufferSize = 1 << 20

	udpMaxDatagramSize = 65536
)

// udpTransport carries RTP and RTCP over a dedicated datagram pair
// alongside the control-only TCP session (spec §4.5 "UDP").
type udpTransport struct {
	rtpConn     *net.UDPConn
	rtcpConn    *net.UDPConn
	clientPorts [2]int
}

func (t *udpTransport) open(c *Client) error {
	t.clientPorts = c.conf.ClientPorts

	rtpPC, err := c.conf.ListenPacket("udp", fmt.Sprintf(":%d", t.clientPorts[0]))
	if err != nil {
		return err
	}
	rtpConn := rtpPC.(*net.UDPConn)

	if rawConn, err := rtpConn.SyscallConn(); err == nil {
		var setErr error
		_ = rawConn.Control(func(fd uintptr) {
			setErr = setReuseAddrAndBuffer(fd, udpRTPReadBufferSize)
		})
		if setErr != nil {
			rtpConn.Close()
			return setErr
		}
	}

	// Mirrors the teacher's ipv4 socket-option path for its UDP listener;
	// this client's UDP mode stays unicast, so TTL is the only applicable
	// knob (multicast group join is out of scope, see DESIGN.md).
	_ = ipv4.NewPacketConn(rtpConn).SetTTL(64)

	rtcpPort := t.clientPorts[1]
	if t.clientPorts[0] == 0 {
		// an ephemeral RTP port was requested; keep the RTCP port paired
		// with whatever the kernel actually handed back.
		rtcpPort = rtpConn.LocalAddr().(*net.UDPAddr).Port + 1
	}

	rtcpPC, err := c.conf.ListenPacket("udp", fmt.Sprintf(":%d", rtcpPort))
	if err != nil {
		rtpConn.Close()
		return err
	}

	t.clientPorts = [2]int{rtpConn.LocalAddr().(*net.UDPAddr).Port, rtcpPort}
	t.rtpConn = rtpConn
	t.rtcpConn = rtcpPC.(*net.UDPConn)
	return nil
}

func (t *udpTransport) transportHeader() headers.Transport {
	return headers.Transport{ClientPorts: &t.clientPorts}
}

func (t *udpTransport) startReading(c *Client) {
	c.wg.Add(1)
	go c.udpRTPReadLoop(t)

	c.wg.Add(1)
	go c.udpControlReadLoop()
}

func (t *udpTransport) close() {
	if t.rtpConn != nil {
		t.rtpConn.Close()
	}
	if t.rtcpConn != nil {
		t.rtcpConn.Close()
	}
}

// udpRTPReadLoop treats each datagram as one complete RTP packet, per
// spec §4.5.
func (c *Client) udpRTPReadLoop(t *udpTransport) {
	defer c.wg.Done()

	buf := make([]byte, udpMaxDatagramSize)
	for {
		if c.conf.ReadTimeout > 0 {
			t.rtpConn.SetReadDeadline(time.Now().Add(c.conf.ReadTimeout)) //nolint:errcheck
		}

		n, _, err := t.rtpConn.ReadFrom(buf)
		if err != nil {
			c.terminate(err)
			return
		}

		payload := make([]byte, n)
		copy(payload, buf[:n])
		c.handleRTP(payload)
	}
}

// udpControlReadLoop keeps draining the control TCP socket after PLAY so a
// server-initiated ANNOUNCE (spec §4.4) doesn't wedge the connection; no
// further requests are ever written from this goroutine.
func (c *Client) udpControlReadLoop() {
	defer c.wg.Done()

	for {
		if c.conf.ReadTimeout > 0 {
			c.conn.SetReadDeadline(time.Now().Add(c.conf.ReadTimeout)) //nolint:errcheck
		}

		msg, err := c.readControlMessage()
		if err != nil {
			c.terminate(err)
			return
		}
		_ = msg // ANNOUNCE or an unsolicited reply; accepted and ignored.
	}
}
