package device

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/cmlabs-hris/attendance-sync/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-sync/internal/pkg/zk"
)

const defaultPort = 4370

// session is the part of a terminal connection the source needs.
type session interface {
	DisableDevice(ctx context.Context) error
	EnableDevice(ctx context.Context) error
	Users(ctx context.Context) ([]zk.User, error)
	Attendance(ctx context.Context) ([]zk.Attendance, error)
	Close() error
}

type dialFunc func(ctx context.Context, address string, timeout time.Duration, loc *time.Location) (session, error)

func dialZK(ctx context.Context, address string, timeout time.Duration, loc *time.Location) (session, error) {
	c, err := zk.Dial(ctx, address, timeout, loc)
	if err != nil {
		return nil, err
	}
	return c, nil
}

type zkSource struct {
	dial    dialFunc
	timeout time.Duration
	loc     *time.Location
}

// NewZKSource reads rosters and punch logs from ZK terminals over TCP. Each call opens
// its own session bounded by timeout.
func NewZKSource(timeout time.Duration, loc *time.Location) punch.DeviceSource {
	if loc == nil {
		loc = time.Local
	}
	return &zkSource{dial: dialZK, timeout: timeout, loc: loc}
}

func address(d punch.Device) string {
	port := d.Port
	if port == 0 {
		port = defaultPort
	}
	return net.JoinHostPort(d.Address, strconv.Itoa(port))
}

// withSession keeps the terminal disabled while fn runs and always re-enables it.
func (s *zkSource) withSession(ctx context.Context, d punch.Device, fn func(session) error) error {
	addr := address(d)
	conn, err := s.dial(ctx, addr, s.timeout, s.loc)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", punch.ErrDeviceUnreachable, addr, err)
	}
	defer func() {
		if err := conn.EnableDevice(context.WithoutCancel(ctx)); err != nil {
			slog.Warn("Device: failed to re-enable terminal", "device", addr, "error", err)
		}
		if err := conn.Close(); err != nil {
			slog.Warn("Device: failed to close session", "device", addr, "error", err)
		}
	}()

	if err := conn.DisableDevice(ctx); err != nil {
		return fmt.Errorf("failed to disable device %s: %w", addr, err)
	}
	return fn(conn)
}

func (s *zkSource) ListEmployees(ctx context.Context, d punch.Device) (punch.Roster, error) {
	roster := punch.Roster{}
	err := s.withSession(ctx, d, func(conn session) error {
		users, err := conn.Users(ctx)
		if err != nil {
			return fmt.Errorf("failed to read users from %s: %w", d.Address, err)
		}
		for _, u := range users {
			if u.UserID == "" {
				continue
			}
			roster[u.UserID] = u.Name
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return roster, nil
}

func (s *zkSource) ListPunchEvents(ctx context.Context, d punch.Device) ([]punch.Event, error) {
	var events []punch.Event
	err := s.withSession(ctx, d, func(conn session) error {
		logs, err := conn.Attendance(ctx)
		if err != nil {
			return fmt.Errorf("failed to read attendance from %s: %w", d.Address, err)
		}
		events = make([]punch.Event, 0, len(logs))
		for _, l := range logs {
			if l.UserID == "" {
				continue
			}
			events = append(events, punch.Event{
				EmployeeID:    l.UserID,
				Timestamp:     l.Timestamp,
				DeviceAddress: d.Address,
				Direction:     d.Direction,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}
