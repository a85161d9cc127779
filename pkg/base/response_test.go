package base

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResponseReadWrite(t *testing.T) {
	raw := "RTSP/1.0 200 OK\r\nCSeq: 1\r\n\r\n"

	var res Response
	err := res.Read(bufio.NewReader(bytes.NewBufferString(raw)))
	require.NoError(t, err)
	require.Equal(t, StatusOK, res.StatusCode)
	require.Equal(t, "OK", res.StatusMessage)
	require.Equal(t, HeaderValue{"1"}, res.Header["CSeq"])

	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)
	res.Header = Header{"CSeq": HeaderValue{"1"}}
	require.NoError(t, res.Write(bw))
	require.Equal(t, "RTSP/1.0 200 OK\r\nCSeq: 1\r\n\r\n", buf.String())
}

func TestResponseReadWithSessionHeader(t *testing.T) {
	raw := "RTSP/1.0 200 OK\r\nCSeq: 3\r\nSession: abc;timeout=60\r\n\r\n"

	var res Response
	err := res.Read(bufio.NewReader(bytes.NewBufferString(raw)))
	require.NoError(t, err)
	require.Equal(t, HeaderValue{"abc;timeout=60"}, res.Header["Session"])
}

func TestResponseReadHonorsContentLengthLeavingTrailingBytes(t *testing.T) {
	// a reply followed immediately by an interleaved binary frame in the
	// same logical buffer: reading the response must consume exactly its
	// own bytes, leaving the frame intact for the next read. This is the
	// fix for the naive whole-buffer-clear behavior of the source client.
	raw := "RTSP/1.0 200 OK\r\nCSeq: 2\r\nContent-Length: 4\r\n\r\nBODY" +
		string([]byte{InterleavedFrameMagicByte, 0x00, 0x00, 0x02}) + "XY"

	br := bufio.NewReader(bytes.NewBufferString(raw))

	var res Response
	require.NoError(t, res.Read(br))
	require.Equal(t, []byte("BODY"), res.Body)

	var frame InterleavedFrame
	require.NoError(t, frame.Read(65535, br))
	require.Equal(t, 0, frame.Channel)
	require.Equal(t, []byte("XY"), frame.Payload)
}

func TestResponseStatusCodeSet(t *testing.T) {
	raw := "RTSP/1.0 404 Not Found\r\nCSeq: 1\r\n\r\n"
	var res Response
	require.NoError(t, res.Read(bufio.NewReader(bytes.NewBufferString(raw))))
	require.Equal(t, StatusNotFound, res.StatusCode)
}
