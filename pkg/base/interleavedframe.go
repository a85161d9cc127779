package base

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// InterleavedFrameMagicByte is the first byte of an interleaved frame,
// distinguishing it from an RTSP text message on a shared TCP connection.
const InterleavedFrameMagicByte = 0x24

// InterleavedFrame carries binary RTP/RTCP data multiplexed into the RTSP
// TCP connection, framed as '$' | channel | length(u16 BE) | payload.
type InterleavedFrame struct {
	Channel int
	Payload []byte
}

// Read reads an interleaved frame, assuming the magic byte has already
// been peeked by the caller.
func (f *InterleavedFrame) Read(maxPayloadSize int, br *bufio.Reader) error {
	var header [4]byte
	_, err := io.ReadFull(br, header[:])
	if err != nil {
		return err
	}

	if header[0] != InterleavedFrameMagicByte {
		return fmt.Errorf("invalid magic byte (0x%.2x)", header[0])
	}

	payloadLen := int(binary.BigEndian.Uint16(header[2:]))
	if payloadLen > maxPayloadSize {
		return fmt.Errorf("payload size (%d) greater than maximum allowed (%d)", payloadLen, maxPayloadSize)
	}

	f.Channel = int(header[1])
	f.Payload = make([]byte, payloadLen)

	_, err = io.ReadFull(br, f.Payload)
	return err
}

// Write writes an interleaved frame.
func (f InterleavedFrame) Write(w io.Writer) error {
	buf := make([]byte, 4+len(f.Payload))
	buf[0] = InterleavedFrameMagicByte
	buf[1] = byte(f.Channel)
	binary.BigEndian.PutUint16(buf[2:4], uint16(len(f.Payload)))
	copy(buf[4:], f.Payload)
	_, err := w.Write(buf)
	return err
}

// ReadInterleavedFrameOrMessage reads either a binary interleaved frame or a
// complete RTSP text message (a Response, or a server-initiated Request
// such as ANNOUNCE) from br.
//
// Because br is a bufio.Reader shared across calls, and Response.Read /
// Request.Read consume exactly their own headers and Content-Length body,
// any bytes following a text message in the same underlying socket read
// (including a subsequent '$'-framed RTP packet) remain buffered for the
// next call instead of being discarded.
func ReadInterleavedFrameOrMessage(
	frame *InterleavedFrame,
	maxPayloadSize int,
	res *Response,
	req *Request,
	br *bufio.Reader,
) (interface{}, error) {
	b, err := br.Peek(1)
	if err != nil {
		return nil, err
	}

	if b[0] == InterleavedFrameMagicByte {
		err := frame.Read(maxPayloadSize, br)
		if err != nil {
			return nil, err
		}
		return frame, nil
	}

	// The only server-initiated request this client ever sees on the
	// shared connection is ANNOUNCE; every other message starting with
	// 'A' is impossible here, so the first byte is enough to decide.
	if b[0] == 'A' {
		req.Header = make(Header)
		err := req.Read(br)
		if err != nil {
			return nil, err
		}
		return req, nil
	}

	res.Header = make(Header)
	err = res.Read(br)
	if err != nil {
		return nil, err
	}
	return res, nil
}
