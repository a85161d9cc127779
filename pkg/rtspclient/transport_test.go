package rtspclient

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTcpTransportHeader(t *testing.T) {
	tr := &tcpTransport{}
	hv := tr.transportHeader().Write()
	require.Equal(t, "RTP/AVP/TCP;unicast;interleaved=0-1", hv[0])
}

func TestUdpTransportOpenBindsBothSockets(t *testing.T) {
	c := &Client{conf: ClientConf{ClientPorts: [2]int{0, 0}}}
	c.conf.setDefaults()
	// port 0 lets the kernel pick a free ephemeral RTP port, and the RTCP
	// socket takes the port right after it, avoiding the fixed default pair.
	c.conf.ClientPorts = [2]int{0, 0}

	tr := &udpTransport{}
	err := tr.open(c)
	require.NoError(t, err)
	defer tr.close()

	require.NotNil(t, tr.rtpConn)
	require.NotNil(t, tr.rtcpConn)

	hv := tr.transportHeader().Write()
	require.Contains(t, hv[0], "RTP/AVP;unicast;client_port=")
}
