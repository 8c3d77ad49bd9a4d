package reportsink

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/streamvalidate/scenario/internal/logging"
)

// remoteStream is the length-prefixed-JSON-over-TCP connection described
// in spec §4.3: a 4-byte big-endian length header followed by the UTF-8
// JSON body. Writes that would block are retried on the next tick rather
// than blocking the caller.
type remoteStream struct {
	mu      sync.Mutex
	conn    net.Conn
	pending [][]byte
	log     *logging.Logger
}

// dialRemote parses a `tcp://host:port` URL, connects, and writes the
// startup handshake `{uuid, started:true}` (spec §4.3).
func dialRemote(rawURL, sessionUUID string, log *logging.Logger) (*remoteStream, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("reportsink: invalid remote url %q: %w", rawURL, err)
	}
	if u.Scheme != "tcp" {
		return nil, fmt.Errorf("reportsink: unsupported remote scheme %q (only tcp is supported)", u.Scheme)
	}

	conn, err := net.DialTimeout("tcp", u.Host, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("reportsink: dialing remote %q: %w", u.Host, err)
	}

	rs := &remoteStream{conn: conn, log: log}
	handshake, _ := json.Marshal(map[string]any{"uuid": sessionUUID, "started": true})
	if err := rs.writeFrame(handshake); err != nil {
		conn.Close()
		return nil, err
	}
	return rs, nil
}

func (rs *remoteStream) writeFrame(body []byte) error {
	header := make([]byte, 4)
	binary.BigEndian.PutUint32(header, uint32(len(body)))

	if err := rs.conn.SetWriteDeadline(time.Now().Add(100 * time.Millisecond)); err != nil {
		return err
	}
	if _, err := rs.conn.Write(header); err != nil {
		return err
	}
	_, err := rs.conn.Write(body)
	return err
}

// Send writes frame immediately; on a busy/would-block condition it is
// queued for the next Flush call instead of being dropped (spec §4.3 —
// "retried on the next idle tick"); any other error is logged and the
// frame is dropped.
func (rs *remoteStream) Send(frame map[string]any) {
	body, err := json.Marshal(frame)
	if err != nil {
		rs.log.WithError(err).Warn("reportsink: failed to marshal frame")
		return
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()

	if err := rs.writeFrame(body); err != nil {
		if isBusy(err) {
			rs.pending = append(rs.pending, body)
			return
		}
		rs.log.WithError(err).Warn("reportsink: dropping frame after write error")
	}
}

// Flush retries any frames queued by a prior busy write; called once per
// idle engine tick.
func (rs *remoteStream) Flush() {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if len(rs.pending) == 0 {
		return
	}
	remaining := rs.pending[:0]
	for _, body := range rs.pending {
		if err := rs.writeFrame(body); err != nil {
			if isBusy(err) {
				remaining = append(remaining, body)
				continue
			}
			rs.log.WithError(err).Warn("reportsink: dropping queued frame after write error")
			continue
		}
	}
	rs.pending = remaining
}

func isBusy(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}

func (rs *remoteStream) Close() error {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.conn.Close()
}
