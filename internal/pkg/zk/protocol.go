package zk

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Command codes of the ZK standalone protocol.
const (
	CmdConnect       uint16 = 1000
	CmdExit          uint16 = 1001
	CmdEnableDevice  uint16 = 1002
	CmdDisableDevice uint16 = 1003
	CmdPrepareData   uint16 = 1500
	CmdData          uint16 = 1501
	CmdFreeData      uint16 = 1502
	CmdPrepareBuffer uint16 = 1503
	CmdReadBuffer    uint16 = 1504
	CmdGetFreeSizes  uint16 = 50
	CmdUserTempRRQ   uint16 = 9
	CmdAttLogRRQ     uint16 = 13

	CmdAckOK     uint16 = 2000
	CmdAckError  uint16 = 2001
	CmdAckData   uint16 = 2002
	CmdAckUnauth uint16 = 2005
)

const (
	fctUser   uint32 = 5
)

const (
	tcpMagic1 uint16 = 0x5050
	tcpMagic2 uint16 = 0x7d82

	ushrtMax = 65535

	headerSize    = 8
	tcpHeaderSize = 8
	maxChunk      = 0xFFc0
	maxFrameSize  = 16 << 20
)

var (
	ErrBadFrame     = errors.New("zk: malformed frame")
	ErrUnauthorized = errors.New("zk: device requires a comm key")
	ErrRejected     = errors.New("zk: command rejected by device")
)

// packet is one decoded reply from the device.
type packet struct {
	Command   uint16
	Checksum  uint16
	SessionID uint16
	ReplyID   uint16
	Payload   []byte
}

// checksum is the protocol's 16-bit one's complement style sum over buf.
func checksum(buf []byte) uint16 {
	sum := 0
	for len(buf) > 1 {
		sum += int(binary.LittleEndian.Uint16(buf))
		buf = buf[2:]
		if sum > ushrtMax {
			sum -= ushrtMax
		}
	}
	if len(buf) == 1 {
		sum += int(buf[0])
	}
	for sum > ushrtMax {
		sum -= ushrtMax
	}
	sum = ^sum
	for sum < 0 {
		sum += ushrtMax
	}
	return uint16(sum)
}

// encodeCommand builds a TCP frame. The checksum covers the header with the current
// reply id, while the header itself carries the incremented one.
func encodeCommand(cmd, sessionID, replyID uint16, data []byte) []byte {
	body := make([]byte, headerSize+len(data))
	binary.LittleEndian.PutUint16(body[0:], cmd)
	binary.LittleEndian.PutUint16(body[4:], sessionID)
	binary.LittleEndian.PutUint16(body[6:], replyID)
	copy(body[headerSize:], data)

	sum := checksum(body)
	next := int(replyID) + 1
	if next >= ushrtMax {
		next -= ushrtMax
	}
	binary.LittleEndian.PutUint16(body[2:], sum)
	binary.LittleEndian.PutUint16(body[6:], uint16(next))

	frame := make([]byte, tcpHeaderSize+len(body))
	binary.LittleEndian.PutUint16(frame[0:], tcpMagic1)
	binary.LittleEndian.PutUint16(frame[2:], tcpMagic2)
	binary.LittleEndian.PutUint32(frame[4:], uint32(len(body)))
	copy(frame[tcpHeaderSize:], body)
	return frame
}

// readPacket reads one TCP frame from r.
func readPacket(r io.Reader) (packet, error) {
	var hdr [tcpHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return packet{}, err
	}
	if binary.LittleEndian.Uint16(hdr[0:]) != tcpMagic1 || binary.LittleEndian.Uint16(hdr[2:]) != tcpMagic2 {
		return packet{}, ErrBadFrame
	}
	size := binary.LittleEndian.Uint32(hdr[4:])
	if size < headerSize || size > maxFrameSize {
		return packet{}, fmt.Errorf("%w: length %d", ErrBadFrame, size)
	}

	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return packet{}, err
	}
	return packet{
		Command:   binary.LittleEndian.Uint16(body[0:]),
		Checksum:  binary.LittleEndian.Uint16(body[2:]),
		SessionID: binary.LittleEndian.Uint16(body[4:]),
		ReplyID:   binary.LittleEndian.Uint16(body[6:]),
		Payload:   body[headerSize:],
	}, nil
}

func prepareBufferArgs(cmd uint16, fct uint32) []byte {
	// <bhii: flag, command, function, ext
	buf := make([]byte, 11)
	buf[0] = 1
	binary.LittleEndian.PutUint16(buf[1:], cmd)
	binary.LittleEndian.PutUint32(buf[3:], fct)
	return buf
}

func readBufferArgs(start, size int) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf[0:], uint32(start))
	binary.LittleEndian.PutUint32(buf[4:], uint32(size))
	return buf
}
