package h264

import "fmt"

// annexBStartCode is prepended to every NALU this reassembler emits.
var annexBStartCode = []byte{0x00, 0x00, 0x00, 0x01}

// Fragment is one Annex-B-prefixed chunk of an access unit, together with
// the extension words (if any) carried by the RTP packet that produced it.
type Fragment struct {
	Data      []byte
	Extension []uint32
}

// Reassembler applies the FU-A start/end rules of RFC 6184 §5.8 and gates
// output on the first IDR seen, for the lifetime of one connection.
//
// It additionally buffers the most recent SPS and PPS single-NALU packets
// seen before the latch is set, and flushes them once, immediately before
// the first IDR start fragment it emits: a bare IDR without its parameter sets
// is not decodable by most H.264 decoders, and the upstream server may
// have sent SPS/PPS once, well before the first IDR.
type Reassembler struct {
	idrSeen bool
	sps     []byte
	pps     []byte
}

// NewReassembler returns a Reassembler with its IDR latch cleared.
func NewReassembler() *Reassembler {
	return &Reassembler{}
}

// IDRSeen reports whether the latch has fired. It never clears once set.
func (r *Reassembler) IDRSeen() bool {
	return r.idrSeen
}

// Process decodes one RTP/H264 payload and returns the Fragments it
// produces, if any. extension carries the RTP packet's own header-extension
// words (nil if it had none); it is attached only to the fragment that
// represents the start of an access unit's NAL data — never to a FU-A
// continuation fragment, nor to parameter sets flushed ahead of an IDR,
// per spec Testable Property 3. An empty payload, or one whose NALU type is
// outside 1..=23 (single NAL) and 28 (FU-A), is dropped silently; a FU-A
// payload shorter than its two header bytes returns an error.
func (r *Reassembler) Process(payload []byte, extension []uint32) ([]Fragment, error) {
	if len(payload) == 0 {
		return nil, nil
	}

	typ := NALUType(payload[0] & 0x1f)

	switch {
	case typ >= NALUTypeNonIDR && typ <= NALUTypeReserved23:
		return r.processSingleNALU(typ, payload, extension)

	case typ == NALUTypeFUA:
		return r.processFUA(payload, extension)

	default:
		return nil, nil
	}
}

func (r *Reassembler) processSingleNALU(typ NALUType, payload []byte, extension []uint32) ([]Fragment, error) {
	if !r.idrSeen {
		switch typ {
		case NALUTypeSPS:
			r.sps = append([]byte(nil), payload...)

		case NALUTypePPS:
			r.pps = append([]byte(nil), payload...)
		}
		return nil, nil
	}

	frame, err := AnnexBMarshal([][]byte{payload})
	if err != nil {
		return nil, err
	}
	return []Fragment{{Data: frame, Extension: extension}}, nil
}

func (r *Reassembler) processFUA(payload []byte, extension []uint32) ([]Fragment, error) {
	if len(payload) < 2 {
		return nil, fmt.Errorf("h264: FU-A payload too short")
	}

	indicator := payload[0]
	fuHeader := payload[1]

	nri := (indicator >> 5) & 0x03
	start := fuHeader&0x80 != 0
	nalType := NALUType(fuHeader & 0x1f)

	if nalType == NALUTypeIDR {
		r.idrSeen = true
	}

	if !r.idrSeen {
		return nil, nil
	}

	if !start {
		return []Fragment{{Data: append([]byte(nil), payload[2:]...)}}, nil
	}

	nalHeader := (indicator & 0x80) | (nri << 5) | byte(nalType)

	var out []Fragment
	if nalType == NALUTypeIDR {
		out = append(out, r.flushParameterSets()...)
	}

	nalu := make([]byte, 0, 1+len(payload)-2)
	nalu = append(nalu, nalHeader)
	nalu = append(nalu, payload[2:]...)

	frame, err := AnnexBMarshal([][]byte{nalu})
	if err != nil {
		return nil, err
	}

	out = append(out, Fragment{Data: frame, Extension: extension})
	return out, nil
}

// flushParameterSets returns the buffered SPS/PPS as Annex-B fragments, in
// that order, and clears the buffer so they are only ever emitted once.
func (r *Reassembler) flushParameterSets() []Fragment {
	var out []Fragment
	if r.sps != nil {
		frame, _ := AnnexBMarshal([][]byte{r.sps})
		out = append(out, Fragment{Data: frame})
		r.sps = nil
	}
	if r.pps != nil {
		frame, _ := AnnexBMarshal([][]byte{r.pps})
		out = append(out, Fragment{Data: frame})
		r.pps = nil
	}
	return out
}
