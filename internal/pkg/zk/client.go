package zk

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"time"
)

// Client is a single TCP session with a ZK attendance terminal. It is not safe for
// concurrent use.
type Client struct {
	conn      net.Conn
	timeout   time.Duration
	loc       *time.Location
	sessionID uint16
	replyID   uint16
	stop      func() bool
}

// Dial opens a session with the device at address. Timestamps read from the device
// are interpreted in loc.
func Dial(ctx context.Context, address string, timeout time.Duration, loc *time.Location) (*Client, error) {
	if loc == nil {
		loc = time.Local
	}
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("zk: dial %s: %w", address, err)
	}

	c := &Client{
		conn:    conn,
		timeout: timeout,
		loc:     loc,
		replyID: ushrtMax - 1,
	}
	// unblock pending reads once ctx is cancelled
	c.stop = context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})

	reply, err := c.command(ctx, CmdConnect, nil)
	if err != nil {
		c.abort()
		return nil, fmt.Errorf("zk: connect %s: %w", address, err)
	}
	switch reply.Command {
	case CmdAckOK:
	case CmdAckUnauth:
		c.abort()
		return nil, ErrUnauthorized
	default:
		c.abort()
		return nil, fmt.Errorf("%w: connect returned %d", ErrRejected, reply.Command)
	}
	c.sessionID = reply.SessionID
	return c, nil
}

func (c *Client) abort() {
	c.stop()
	_ = c.conn.Close()
}

// Close ends the session and closes the connection.
func (c *Client) Close() error {
	c.stop()
	_ = c.conn.SetDeadline(time.Now().Add(c.timeout))
	_, exitErr := c.conn.Write(encodeCommand(CmdExit, c.sessionID, c.replyID, nil))
	if exitErr == nil {
		_, exitErr = readPacket(c.conn)
	}
	return errors.Join(exitErr, c.conn.Close())
}

func (c *Client) arm(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	return c.conn.SetDeadline(deadline)
}

func (c *Client) command(ctx context.Context, cmd uint16, data []byte) (packet, error) {
	if err := c.arm(ctx); err != nil {
		return packet{}, err
	}
	if _, err := c.conn.Write(encodeCommand(cmd, c.sessionID, c.replyID, data)); err != nil {
		return packet{}, fmt.Errorf("zk: send command %d: %w", cmd, err)
	}
	reply, err := readPacket(c.conn)
	if err != nil {
		return packet{}, fmt.Errorf("zk: read reply to %d: %w", cmd, err)
	}
	c.replyID = reply.ReplyID
	return reply, nil
}

func (c *Client) exec(ctx context.Context, cmd uint16, data []byte) (packet, error) {
	reply, err := c.command(ctx, cmd, data)
	if err != nil {
		return packet{}, err
	}
	switch reply.Command {
	case CmdAckOK, CmdPrepareData, CmdData:
		return reply, nil
	case CmdAckUnauth:
		return packet{}, ErrUnauthorized
	default:
		return packet{}, fmt.Errorf("%w: command %d returned %d", ErrRejected, cmd, reply.Command)
	}
}

// DisableDevice locks the terminal keypad while data is being read.
func (c *Client) DisableDevice(ctx context.Context) error {
	_, err := c.exec(ctx, CmdDisableDevice, nil)
	return err
}

func (c *Client) EnableDevice(ctx context.Context) error {
	_, err := c.exec(ctx, CmdEnableDevice, nil)
	return err
}

type sizes struct {
	users   int
	records int
}

func (c *Client) readSizes(ctx context.Context) (sizes, error) {
	reply, err := c.exec(ctx, CmdGetFreeSizes, nil)
	if err != nil {
		return sizes{}, err
	}
	if len(reply.Payload) < 80 {
		return sizes{}, fmt.Errorf("%w: free sizes payload %d bytes", ErrBadFrame, len(reply.Payload))
	}
	field := func(i int) int {
		return int(int32(binary.LittleEndian.Uint32(reply.Payload[i*4:])))
	}
	return sizes{users: field(4), records: field(8)}, nil
}

// readWithBuffer asks the device to stage a data set and pulls it in chunks.
func (c *Client) readWithBuffer(ctx context.Context, cmd uint16, fct uint32) ([]byte, error) {
	reply, err := c.exec(ctx, CmdPrepareBuffer, prepareBufferArgs(cmd, fct))
	if err != nil {
		return nil, err
	}
	if reply.Command == CmdData {
		return reply.Payload, nil
	}
	if len(reply.Payload) < 5 {
		return nil, fmt.Errorf("%w: prepare buffer payload %d bytes", ErrBadFrame, len(reply.Payload))
	}

	size := int(binary.LittleEndian.Uint32(reply.Payload[1:5]))
	data := make([]byte, 0, size)
	for start := 0; start < size; {
		n := min(maxChunk, size-start)
		chunk, err := c.readChunk(ctx, start, n)
		if err != nil {
			return nil, err
		}
		data = append(data, chunk...)
		start += n
	}

	if _, err := c.exec(ctx, CmdFreeData, nil); err != nil {
		return nil, fmt.Errorf("zk: free data: %w", err)
	}
	return data, nil
}

func (c *Client) readChunk(ctx context.Context, start, size int) ([]byte, error) {
	reply, err := c.exec(ctx, CmdReadBuffer, readBufferArgs(start, size))
	if err != nil {
		return nil, err
	}
	if reply.Command == CmdData {
		return reply.Payload, nil
	}
	if len(reply.Payload) < 4 {
		return nil, fmt.Errorf("%w: prepare data payload %d bytes", ErrBadFrame, len(reply.Payload))
	}

	want := int(binary.LittleEndian.Uint32(reply.Payload))
	data := make([]byte, 0, want)
	for len(data) < want {
		if err := c.arm(ctx); err != nil {
			return nil, err
		}
		p, err := readPacket(c.conn)
		if err != nil {
			return nil, fmt.Errorf("zk: read chunk at %d: %w", start, err)
		}
		if p.Command != CmdData {
			return nil, fmt.Errorf("%w: expected data, got %d", ErrBadFrame, p.Command)
		}
		data = append(data, p.Payload...)
	}

	ack, err := readPacket(c.conn)
	if err != nil {
		return nil, fmt.Errorf("zk: read chunk ack: %w", err)
	}
	if ack.Command != CmdAckOK {
		return nil, fmt.Errorf("%w: chunk ended with %d", ErrBadFrame, ack.Command)
	}
	return data, nil
}

// Users returns every user enrolled on the device.
func (c *Client) Users(ctx context.Context) ([]User, error) {
	s, err := c.readSizes(ctx)
	if err != nil {
		return nil, err
	}
	if s.users == 0 {
		return nil, nil
	}
	data, err := c.readWithBuffer(ctx, CmdUserTempRRQ, fctUser)
	if err != nil {
		return nil, fmt.Errorf("zk: read users: %w", err)
	}
	return parseUsers(data, s.users)
}

// Attendance returns the full punch log stored on the device.
func (c *Client) Attendance(ctx context.Context) ([]Attendance, error) {
	s, err := c.readSizes(ctx)
	if err != nil {
		return nil, err
	}
	if s.records == 0 {
		return nil, nil
	}
	// compact 8 byte records only carry the internal uid
	users, err := c.Users(ctx)
	if err != nil {
		return nil, err
	}
	data, err := c.readWithBuffer(ctx, CmdAttLogRRQ, 0)
	if err != nil {
		return nil, fmt.Errorf("zk: read attendance: %w", err)
	}
	return parseAttendance(data, s.records, users, c.loc)
}
