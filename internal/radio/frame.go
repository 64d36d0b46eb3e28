package radio

import "encoding/binary"

// maxFrameSize bounds a simulated over-the-air frame: header + padding,
// generously sized for the small fixed-format payloads this simulator
// exchanges (spec §1: frame content itself is out of scope).
const maxFrameSize = 256

// frameHeaderSize is the wire header every simulated frame carries,
// ahead of whatever synthetic payload follows: a 4-byte origin tag
// (so a driver can recognize and discard its own transmissions once
// the multicast group loops them back to every local listener,
// itself included), channel, subnet (rxq[2] in spec terms), flags,
// and a 2-byte BE length. The flags byte is not passed on to the MAC
// filter: the receiving driver reports a fixed rxq[1] instead.
const frameHeaderSize = 9

// frame is one simulated over-the-air transmission.
type frame struct {
	origin  uint32
	channel uint8
	subnet  uint8
	flags   uint8
	payload []byte
}

func encodeFrame(f frame) []byte {
	buf := make([]byte, frameHeaderSize+len(f.payload))
	binary.BigEndian.PutUint32(buf[0:4], f.origin)
	buf[4] = f.channel
	buf[5] = f.subnet
	buf[6] = f.flags
	binary.BigEndian.PutUint16(buf[7:9], uint16(len(f.payload)))
	copy(buf[frameHeaderSize:], f.payload)
	return buf
}

func decodeFrame(buf []byte) (frame, bool) {
	if len(buf) < frameHeaderSize {
		return frame{}, false
	}
	n := int(binary.BigEndian.Uint16(buf[7:9]))
	if frameHeaderSize+n > len(buf) {
		return frame{}, false
	}
	return frame{
		origin:  binary.BigEndian.Uint32(buf[0:4]),
		channel: buf[4],
		subnet:  buf[5],
		flags:   buf[6],
		payload: buf[frameHeaderSize : frameHeaderSize+n],
	}, true
}
