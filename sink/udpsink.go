package sink

import (
	"net"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
)

// defaultBucketMultiple caps the token bucket at this many payloads'
// worth of bytes, mirroring udpsink.c's rf_udp_send TOKENS_CAP (payload*6.0).
const defaultBucketMultiple = 6

// UDP is a paced, connected-UDP-socket Sink: it chunks writes into
// payloadBytes-sized datagrams and, when a bitrate is configured, paces
// sends with a byte token bucket so the stream does not exceed it.
//
// Grounded on ausocean-av/revid/senders.go's rtpSender (net.Dial("udp",
// addr) connected-socket construction) and original_source/src/udpsink.c's
// rf_udp_send (token-bucket pacing loop, chunking a write into
// payload-sized datagrams): the deficit-driven sleep has no floor beyond
// the clock's resolution, matching rf_udp_send's nanosleep call exactly.
type UDP struct {
	conn    net.Conn
	payload int

	mu         sync.Mutex
	bitrateBps uint64
	tokens     float64
	last       time.Time

	logger      *log.Logger
	previewOnce sync.Once
}

// NewUDP dials a connected UDP socket to addr ("host:port") and returns a
// UDP sink chunking writes into payloadBytes-sized datagrams. payloadBytes
// outside [1,9000) is rejected with an error. A nil logger disables
// preview logging.
func NewUDP(addr string, payloadBytes int, logger *log.Logger) (*UDP, error) {
	if payloadBytes <= 0 || payloadBytes >= 9000 {
		return nil, errors.Errorf("sink: payloadBytes must be in [1,9000), got %d", payloadBytes)
	}
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "sink: dialing udp %s", addr)
	}
	return &UDP{
		conn:    conn,
		payload: payloadBytes,
		last:    time.Now(),
		logger:  logger,
	}, nil
}

// SetBitrate configures the pacing rate in bits per second. Zero disables
// pacing: writes are sent as fast as the socket accepts them.
func (u *UDP) SetBitrate(bps uint64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.bitrateBps = bps
}

// Write sends p over the UDP socket, split into payload-sized datagrams
// and paced to the configured bitrate. It implements Sink.
func (u *UDP) Write(p []byte) (int, error) {
	u.previewOnce.Do(func() { u.logPreview(p) })

	sent := 0
	for sent < len(p) {
		end := sent + u.payload
		if end > len(p) {
			end = len(p)
		}
		chunk := p[sent:end]

		u.waitForTokens(len(chunk))

		n, err := u.conn.Write(chunk)
		if err != nil {
			return sent, errors.Wrap(err, "sink: udp write")
		}
		sent += n
	}
	return sent, nil
}

// waitForTokens blocks until the byte token bucket holds at least n
// tokens, consuming them before returning. A zero configured bitrate
// disables pacing entirely.
func (u *UDP) waitForTokens(n int) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.bitrateBps == 0 {
		return
	}

	need := float64(n)
	for {
		u.refillTokensLocked()
		if u.tokens >= need {
			break
		}
		shortfall := need - u.tokens
		waitSecs := (shortfall * 8) / float64(u.bitrateBps)
		wait := time.Duration(waitSecs * float64(time.Second))
		if wait > 0 {
			u.mu.Unlock()
			time.Sleep(wait)
			u.mu.Lock()
		}
	}
	u.tokens -= need
}

// refillTokensLocked adds tokens accrued since the last call at the
// configured bitrate, capped at defaultBucketMultiple payloads worth.
// Caller must hold u.mu.
func (u *UDP) refillTokensLocked() {
	now := time.Now()
	dt := now.Sub(u.last)
	if dt <= 0 {
		return
	}
	u.last = now

	add := (float64(u.bitrateBps) / 8) * dt.Seconds()
	u.tokens += add

	bucketCap := float64(u.payload * defaultBucketMultiple)
	if u.tokens > bucketCap {
		u.tokens = bucketCap
	}
}

// Close closes the underlying socket. It implements Sink.
func (u *UDP) Close() error {
	return u.conn.Close()
}

func (u *UDP) logPreview(buf []byte) {
	if u.logger == nil {
		return
	}
	shown := len(buf)
	if shown > previewBytes {
		shown = previewBytes
	}
	u.logger.Debug("udp sink: sending preview", "bytes", len(buf), "preview_bytes", shown, "payload", u.payload)
}
