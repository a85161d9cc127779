package rtspclient

import (
	"bufio"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pion/rtcp"

	"github.com/tidecam/rtspcat/pkg/base"
	"github.com/tidecam/rtspcat/pkg/h264"
	"github.com/tidecam/rtspcat/pkg/headers"
	"github.com/tidecam/rtspcat/pkg/ringbuffer"
	"github.com/tidecam/rtspcat/pkg/rtp"
	"github.com/tidecam/rtspcat/pkg/rtsperrors"
)

// Fixed CSeq values per spec §4.4. SETUP_AUDIO is reserved but never sent.
const (
	cseqOptions    = 1
	cseqDescribe   = 2
	cseqSetupVideo = 3
	cseqSetupAudio = 4
	cseqPlay       = 5
)

// userAgent is the fixed identifier every request carries, matching the
// wire format spelled out in spec §6.
const userAgent = "Lavf57.83.100"

// videoTrackSuffix is appended to the base URL for SETUP, per spec §6
// (literal "<url>/trackID=1", not a path replacement).
const videoTrackSuffix = "/trackID=1"

const defaultFrameQueueSize = 256 // must stay a power of two, see pkg/ringbuffer

// defaultClientPorts matches the UDP default named in spec §4.4.
var defaultClientPorts = [2]int{61234, 61235}

// ClientConf configures a Client. Every field has a working default; it is
// valid to pass a zero-value ClientConf to New.
type ClientConf struct {
	// ReadTimeout and WriteTimeout bound every socket operation. Zero
	// selects the default: 10s for reads, 5s for writes.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// ClientPorts is the UDP client_port pair requested in SETUP; unused
	// in TCP mode.
	ClientPorts [2]int

	// FrameQueueSize is the capacity of the bounded output FIFO (spec
	// §4.6); must be a power of two.
	FrameQueueSize uint64

	// DialTimeout opens the control TCP connection. Defaults to
	// net.DialTimeout.
	DialTimeout func(network, address string, timeout time.Duration) (net.Conn, error)

	// ListenPacket opens UDP sockets in ProtocolUDP mode. Defaults to
	// net.ListenPacket.
	ListenPacket func(network, address string) (net.PacketConn, error)
}

func (c *ClientConf) setDefaults() {
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 5 * time.Second
	}
	if c.ClientPorts == ([2]int{}) {
		c.ClientPorts = defaultClientPorts
	}
	if c.FrameQueueSize == 0 {
		c.FrameQueueSize = defaultFrameQueueSize
	}
	if c.DialTimeout == nil {
		c.DialTimeout = net.DialTimeout
	}
	if c.ListenPacket == nil {
		c.ListenPacket = net.ListenPacket
	}
}

// AccessUnitFragment is the OutputFrame of spec §3: an Annex-B-prefixed
// partial or full NAL slice, with the RTP header-extension words attached
// only for the fragment that started the access unit.
type AccessUnitFragment struct {
	Data      []byte
	Extension []uint32
}

// Client is the facade of spec §4.6 (C6), wired to the control state
// machine (C4) and transport adapter (C5). It is not safe for concurrent
// use from multiple goroutines beyond one caller driving Connect/ReadFrame
// /Disconnect, matching the single-owning-reader model of spec §9.
type Client struct {
	conf     ClientConf
	protocol Protocol
	url      *base.URL

	conn net.Conn
	br   *bufio.Reader
	bw   *bufio.Writer

	mutex          sync.Mutex
	state          clientState
	sessionID      string
	sessionTimeout *uint

	transport   transport
	reassembler *h264.Reassembler
	queue       *ringbuffer.RingBuffer

	wg           sync.WaitGroup
	closeOnce    sync.Once
	terminateErr error

	rtcpValidateOnce sync.Once
	rtcpInvalidCount atomic.Uint64
}

// New parses url and returns a Client ready for Connect. It performs no
// I/O: a malformed URL fails construction without opening any socket,
// per spec §7.
func New(protocol Protocol, rawURL string, conf ClientConf) (*Client, error) {
	u, err := base.ParseURL(rawURL)
	if err != nil {
		return nil, rtsperrors.ErrMalformedURL{URL: rawURL, Err: err}
	}

	conf.setDefaults()

	var t transport
	if protocol == ProtocolUDP {
		t = &udpTransport{}
	} else {
		t = &tcpTransport{}
	}

	return &Client{
		conf:      conf,
		protocol:  protocol,
		url:       u,
		state:     stateIdle,
		transport: t,
	}, nil
}

// Connect drives the session from Idle to Playing: dial, OPTIONS,
// DESCRIBE, SETUP, PLAY, in that fixed order (spec §4.4, property 5). It
// returns once PLAY succeeds or the handshake fails; on failure the
// client is left Closed and Connect's error is final (no retry, per
// spec §7).
func (c *Client) Connect() error {
	c.setState(stateConnecting)

	addr := net.JoinHostPort(c.url.Hostname(), c.url.Port())
	conn, err := c.conf.DialTimeout("tcp", addr, c.conf.WriteTimeout)
	if err != nil {
		c.setState(stateClosed)
		return rtsperrors.ErrConnectFailed{Addr: addr, Err: err}
	}
	c.conn = conn
	c.br = bufio.NewReaderSize(conn, 4096)
	c.bw = bufio.NewWriterSize(conn, 4096)

	if err := c.transport.open(c); err != nil {
		c.conn.Close()
		c.setState(stateClosed)
		return err
	}

	queue, err := ringbuffer.New(c.conf.FrameQueueSize)
	if err != nil {
		c.conn.Close()
		c.setState(stateClosed)
		return err
	}
	c.queue = queue
	c.reassembler = h264.NewReassembler()

	if err := c.doOptions(); err != nil {
		c.fail(err)
		return err
	}
	if err := c.doDescribe(); err != nil {
		c.fail(err)
		return err
	}
	if err := c.doSetupVideo(); err != nil {
		c.fail(err)
		return err
	}
	if err := c.doPlay(); err != nil {
		c.fail(err)
		return err
	}

	c.setState(statePlaying)
	c.transport.startReading(c)
	return nil
}

// ReadFrame blocks until a fragment is available, the client is closed, or
// the producer side terminates; it never returns a partial fragment.
func (c *Client) ReadFrame() (AccessUnitFragment, error) {
	v, ok := c.queue.Pull()
	if !ok {
		if err := c.terminationError(); err != nil {
			return AccessUnitFragment{}, err
		}
		return AccessUnitFragment{}, rtsperrors.ErrTerminated{}
	}
	return v.(AccessUnitFragment), nil
}

// Disconnect closes every socket and unblocks ReadFrame. It is idempotent,
// and does not send TEARDOWN, per spec's explicit non-goal.
func (c *Client) Disconnect() {
	c.closeOnce.Do(func() {
		c.setState(stateClosed)
		if c.conn != nil {
			c.conn.Close()
		}
		c.transport.close()
		if c.queue != nil {
			c.queue.Close()
		}
	})
	c.wg.Wait()
}

// InvalidRTCPCount reports how many times the single RTCP validation pass
// (see validateRTCPOnce) decoded a malformed packet: 0 or 1, since it fires
// at most once per connection, and only in TCP-interleaved mode. UDP mode
// never reads its RTCP socket, per spec §4.5, so this is always 0 there.
func (c *Client) InvalidRTCPCount() uint64 {
	return c.rtcpInvalidCount.Load()
}

func (c *Client) setState(s clientState) {
	c.mutex.Lock()
	c.state = s
	c.mutex.Unlock()
}

func (c *Client) State() string {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.state.String()
}

// fail transitions to Closed and records err so ReadFrame can surface it
// once the queue drains, per spec §7's "terminal signal" policy.
func (c *Client) fail(err error) {
	c.mutex.Lock()
	c.state = stateClosed
	if c.terminateErr == nil {
		c.terminateErr = err
	}
	c.mutex.Unlock()

	if c.conn != nil {
		c.conn.Close()
	}
	if c.queue != nil {
		c.queue.Close()
	}
}

// terminate is fail's counterpart for the reader goroutines.
func (c *Client) terminate(err error) {
	c.fail(err)
}

func (c *Client) terminationError() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.terminateErr
}

// do sends req with the fixed CSeq of its method and returns
// the parsed reply. Requests are written and their replies read from the
// same goroutine that calls Connect, honoring spec §9's single-owning-
// reader rule for the handshake phase.
func (c *Client) do(method base.Method, cseq int, rawURL string, extra base.Header) (*base.Response, error) {
	header := base.Header{}
	for k, v := range extra {
		header[k] = v
	}
	header["CSeq"] = base.HeaderValue{strconv.Itoa(cseq)}
	header["User-Agent"] = base.HeaderValue{userAgent}
	if c.sessionID != "" {
		header["Session"] = base.HeaderValue{c.sessionID}
	}

	req := base.Request{Method: method, URL: rawURL, Header: header}

	if c.conf.WriteTimeout > 0 {
		c.conn.SetWriteDeadline(time.Now().Add(c.conf.WriteTimeout)) //nolint:errcheck
	}
	if err := req.Write(c.bw); err != nil {
		return nil, err
	}

	if c.conf.ReadTimeout > 0 {
		c.conn.SetReadDeadline(time.Now().Add(c.conf.ReadTimeout)) //nolint:errcheck
	}
	var res base.Response
	if err := res.Read(c.br); err != nil {
		return nil, err
	}

	if got, err := strconv.Atoi(firstHeaderValue(res.Header, "CSeq")); err != nil || got != cseq {
		return nil, rtsperrors.ErrUnexpectedCSeq{Expected: cseq, Got: got}
	}

	if res.StatusCode != base.StatusOK {
		return nil, rtsperrors.ErrNon200{Method: method, StatusCode: res.StatusCode, Message: res.StatusMessage}
	}

	if v, ok := res.Header["Session"]; ok {
		var sh headers.Session
		if err := sh.Read(v); err != nil {
			return nil, err
		}
		c.sessionID = sh.Session
		c.sessionTimeout = sh.Timeout
	}

	return &res, nil
}

func (c *Client) doOptions() error {
	c.setState(stateOptionsSent)
	_, err := c.do(base.Options, cseqOptions, c.url.String(), nil)
	return err
}

func (c *Client) doDescribe() error {
	c.setState(stateDescribeSent)
	// the DESCRIBE body (SDP) is treated as opaque, per spec §4.4/DESIGN.md:
	// the video track and path are fixed, not negotiated from SDP.
	_, err := c.do(base.Describe, cseqDescribe, c.url.String(), nil)
	return err
}

func (c *Client) doSetupVideo() error {
	c.setState(stateSetupVideoSent)
	setupURL := c.url.WithSuffix(videoTrackSuffix).String()
	transportHeader := c.transport.transportHeader().Write()
	if _, err := c.do(base.Setup, cseqSetupVideo, setupURL, base.Header{"Transport": transportHeader}); err != nil {
		return err
	}
	if c.sessionID == "" {
		return rtsperrors.ErrSessionMissing{Method: base.Setup}
	}
	return nil
}

func (c *Client) doPlay() error {
	_, err := c.do(base.Play, cseqPlay, c.url.String(), base.Header{"Range": base.HeaderValue{"npt=0.000-"}})
	return err
}

// readControlMessage reads one RTSP text message (a reply or a
// server-initiated ANNOUNCE) off the control connection, used by the UDP
// transport's post-PLAY drain loop.
func (c *Client) readControlMessage() (interface{}, error) {
	b, err := c.br.Peek(1)
	if err != nil {
		return nil, err
	}

	if b[0] == 'A' {
		var req base.Request
		req.Header = make(base.Header)
		if err := req.Read(c.br); err != nil {
			return nil, err
		}
		return &req, nil
	}

	var res base.Response
	res.Header = make(base.Header)
	if err := res.Read(c.br); err != nil {
		return nil, err
	}
	return &res, nil
}

// handleRTP decodes one RTP packet and pushes every fragment the
// reassembler produces onto the output queue, per the C1->C2->queue data
// flow of spec §2.
func (c *Client) handleRTP(payload []byte) {
	var pkt rtp.Packet
	if err := pkt.Unmarshal(payload); err != nil {
		return
	}

	var ext []uint32
	if pkt.Extension {
		ext = pkt.ExtensionPayload
	}

	fragments, err := c.reassembler.Process(pkt.Payload, ext)
	if err != nil {
		return
	}

	for _, f := range fragments {
		c.queue.Push(AccessUnitFragment{Data: f.Data, Extension: f.Extension})
	}
}

// validateRTCPOnce exercises rtcp.Unmarshal a single time against the first
// RTCP bytes the TCP-interleaved demux hands it off channel 1, counting a
// malformed packet; it never surfaces or acts on the RTCP contents
// otherwise. Called only from tcpReadLoop: in UDP mode the RTCP socket is
// opened and never read at all, honoring spec §4.5's non-goal verbatim.
func (c *Client) validateRTCPOnce(payload []byte) {
	c.rtcpValidateOnce.Do(func() {
		if _, err := rtcp.Unmarshal(payload); err != nil {
			c.rtcpInvalidCount.Add(1)
		}
	})
}

func firstHeaderValue(h base.Header, key string) string {
	v, ok := h[key]
	if !ok || len(v) == 0 {
		return ""
	}
	return v[0]
}
