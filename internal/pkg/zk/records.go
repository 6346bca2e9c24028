package zk

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// User is one enrolled person on the device.
type User struct {
	UID    uint16
	UserID string
	Name   string
}

// Attendance is one stored punch.
type Attendance struct {
	UserID    string
	Timestamp time.Time
	Status    uint8
	Punch     uint8
}

// decodeTime unpacks the device's packed timestamp. Months are treated as 31 days.
func decodeTime(v uint32, loc *time.Location) time.Time {
	second := int(v % 60)
	v /= 60
	minute := int(v % 60)
	v /= 60
	hour := int(v % 24)
	v /= 24
	day := int(v%31) + 1
	v /= 31
	month := time.Month(v%12 + 1)
	v /= 12
	year := int(v) + 2000
	return time.Date(year, month, day, hour, minute, second, 0, loc)
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return strings.ToValidUTF8(string(b), "")
}

// recordSize derives the per-record size from the total announced in the first four
// bytes of a buffer and the count reported by the device.
func recordSize(data []byte, count int) (int, []byte) {
	if len(data) < 4 || count <= 0 {
		return 0, nil
	}
	total := int(binary.LittleEndian.Uint32(data))
	return total / count, data[4:]
}

func parseUsers(data []byte, count int) ([]User, error) {
	size, data := recordSize(data, count)
	if size == 0 {
		return nil, nil
	}

	users := make([]User, 0, count)
	switch size {
	case 28:
		for ; len(data) >= 28; data = data[28:] {
			u := User{
				UID:    binary.LittleEndian.Uint16(data[0:]),
				Name:   strings.TrimSpace(cString(data[8:16])),
				UserID: strconv.FormatUint(uint64(binary.LittleEndian.Uint32(data[24:])), 10),
			}
			users = append(users, withPlaceholderName(u))
		}
	case 72:
		for ; len(data) >= 72; data = data[72:] {
			u := User{
				UID:    binary.LittleEndian.Uint16(data[0:]),
				Name:   strings.TrimSpace(cString(data[11:35])),
				UserID: cString(data[48:72]),
			}
			users = append(users, withPlaceholderName(u))
		}
	default:
		return nil, fmt.Errorf("%w: user record size %d", ErrBadFrame, size)
	}
	return users, nil
}

func withPlaceholderName(u User) User {
	if u.Name == "" {
		u.Name = "NN-" + u.UserID
	}
	return u
}

func parseAttendance(data []byte, count int, users []User, loc *time.Location) ([]Attendance, error) {
	size, data := recordSize(data, count)
	if size == 0 {
		return nil, nil
	}

	byUID := make(map[uint16]string, len(users))
	for _, u := range users {
		byUID[u.UID] = u.UserID
	}

	records := make([]Attendance, 0, count)
	switch size {
	case 8:
		for ; len(data) >= 8; data = data[8:] {
			uid := binary.LittleEndian.Uint16(data[0:])
			userID, ok := byUID[uid]
			if !ok {
				userID = strconv.FormatUint(uint64(uid), 10)
			}
			records = append(records, Attendance{
				UserID:    userID,
				Status:    data[2],
				Timestamp: decodeTime(binary.LittleEndian.Uint32(data[3:]), loc),
				Punch:     data[7],
			})
		}
	case 16:
		for ; len(data) >= 16; data = data[16:] {
			records = append(records, Attendance{
				UserID:    strconv.FormatUint(uint64(binary.LittleEndian.Uint32(data[0:])), 10),
				Timestamp: decodeTime(binary.LittleEndian.Uint32(data[4:]), loc),
				Status:    data[8],
				Punch:     data[9],
			})
		}
	case 40:
		for ; len(data) >= 40; data = data[40:] {
			records = append(records, Attendance{
				UserID:    cString(data[2:26]),
				Status:    data[26],
				Timestamp: decodeTime(binary.LittleEndian.Uint32(data[27:]), loc),
				Punch:     data[31],
			})
		}
	default:
		return nil, fmt.Errorf("%w: attendance record size %d", ErrBadFrame, size)
	}
	return records, nil
}
