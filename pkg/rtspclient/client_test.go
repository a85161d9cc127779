package rtspclient

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeServer replies to the fixed OPTIONS/DESCRIBE/SETUP/PLAY sequence over
// one end of a net.Pipe, recording the CSeq of every request it sees so
// tests can assert property 5 (exactly one of each method, in order).
type fakeServer struct {
	conn     net.Conn
	br       *bufio.Reader
	seenCSeq []string
}

func newFakeServer(conn net.Conn) *fakeServer {
	return &fakeServer{conn: conn, br: bufio.NewReader(conn)}
}

func (s *fakeServer) serveHandshake(t *testing.T, sessionID string, timeout string) {
	t.Helper()

	for i := 0; i < 4; i++ {
		line, err := s.br.ReadString('\n')
		require.NoError(t, err)
		_ = line // request line, e.g. "OPTIONS rtsp://h:554/p RTSP/1.0\r\n"

		var cseq string
		for {
			h, err := s.br.ReadString('\n')
			require.NoError(t, err)
			if h == "\r\n" {
				break
			}
			if len(h) > 6 && h[:6] == "CSeq: " {
				cseq = h[6 : len(h)-2]
			}
		}
		s.seenCSeq = append(s.seenCSeq, cseq)

		reply := "RTSP/1.0 200 OK\r\nCSeq: " + cseq + "\r\n"
		if i == 2 { // SETUP reply carries Session
			reply += "Session: " + sessionID + ";timeout=" + timeout + "\r\n"
		}
		reply += "\r\n"
		_, err = s.conn.Write([]byte(reply))
		require.NoError(t, err)
	}
}

func newTestClient(t *testing.T, conn net.Conn) *Client {
	t.Helper()
	c, err := New(ProtocolTCP, "rtsp://h:554/p", ClientConf{
		DialTimeout: func(network, address string, timeout time.Duration) (net.Conn, error) {
			return conn, nil
		},
	})
	require.NoError(t, err)
	return c
}

func TestClientConnectIssuesFixedCSeqSequence(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer serverConn.Close()

	srv := newFakeServer(serverConn)
	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.serveHandshake(t, "abc", "60")
	}()

	c := newTestClient(t, clientConn)
	err := c.Connect()
	require.NoError(t, err)
	<-done

	require.Equal(t, []string{"1", "2", "3", "5"}, srv.seenCSeq)
	require.Equal(t, "abc", c.sessionID)
	require.NotNil(t, c.sessionTimeout)
	require.Equal(t, uint(60), *c.sessionTimeout)
	require.Equal(t, "Playing", c.State())

	c.Disconnect()
}

func TestClientConnectFailsOnNon200(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer serverConn.Close()

	go func() {
		br := bufio.NewReader(serverConn)
		// OPTIONS
		for {
			line, err := br.ReadString('\n')
			if err != nil || line == "\r\n" {
				break
			}
		}
		serverConn.Write([]byte("RTSP/1.0 404 Not Found\r\nCSeq: 1\r\n\r\n"))
	}()

	c := newTestClient(t, clientConn)
	err := c.Connect()
	require.Error(t, err)
	require.Equal(t, "Closed", c.State())
}

func TestClientMalformedURLFailsConstruction(t *testing.T) {
	_, err := New(ProtocolTCP, "not-a-url", ClientConf{})
	require.Error(t, err)

	_, err = New(ProtocolTCP, "rtsp://host-without-port", ClientConf{})
	require.Error(t, err)
}
