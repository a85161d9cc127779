package rtp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPacketUnmarshalBasic(t *testing.T) {
	buf := []byte{
		0x80, 0x60, 0x00, 0x01, // V=2,P=0,X=0,CC=0 | M=0,PT=96 | seq=1
		0x00, 0x00, 0x00, 0x64, // timestamp=100
		0x00, 0x00, 0x00, 0x2a, // ssrc=42
		0x01, 0x02, 0x03, // payload
	}

	var p Packet
	err := p.Unmarshal(buf)
	require.NoError(t, err)
	require.Equal(t, uint8(2), p.Version)
	require.False(t, p.Extension)
	require.Equal(t, uint8(96), p.PayloadType)
	require.Equal(t, uint16(1), p.SequenceNumber)
	require.Equal(t, uint32(100), p.Timestamp)
	require.Equal(t, uint32(42), p.SSRC)
	require.Equal(t, []byte{0x01, 0x02, 0x03}, p.Payload)
}

func TestPacketUnmarshalExtension(t *testing.T) {
	buf := []byte{
		0x90, 0x60, 0x00, 0x02, // X=1
		0x00, 0x00, 0x00, 0x64,
		0x00, 0x00, 0x00, 0x2a,
		0xbe, 0xde, 0x00, 0x02, // profile=0xBEDE, length=2 words
		0x00, 0x00, 0x00, 0x11,
		0x00, 0x00, 0x00, 0x22,
		0xaa, 0xbb,
	}

	var p Packet
	err := p.Unmarshal(buf)
	require.NoError(t, err)
	require.True(t, p.Extension)
	require.Equal(t, uint16(0xbede), p.ExtensionProfile)
	require.Equal(t, []uint32{0x11, 0x22}, p.ExtensionPayload)
	require.Equal(t, []byte{0xaa, 0xbb}, p.Payload)
}

func TestPacketUnmarshalCSRC(t *testing.T) {
	buf := []byte{
		0x82, 0x60, 0x00, 0x03, // CC=2
		0x00, 0x00, 0x00, 0x64,
		0x00, 0x00, 0x00, 0x2a,
		0x00, 0x00, 0x00, 0x01,
		0x00, 0x00, 0x00, 0x02,
		0xff,
	}

	var p Packet
	err := p.Unmarshal(buf)
	require.NoError(t, err)
	require.Equal(t, []uint32{1, 2}, p.CSRC)
	require.Equal(t, []byte{0xff}, p.Payload)
}

func TestPacketUnmarshalTooShort(t *testing.T) {
	var p Packet
	err := p.Unmarshal([]byte{0x80, 0x60, 0x00})
	require.Error(t, err)
}
