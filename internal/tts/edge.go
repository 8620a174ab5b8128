// Package tts synthesizes speech through the Edge read-aloud websocket
// service: one connection per utterance, a JSON speech.config frame, an SSML
// frame, then binary audio frames until turn.end.
package tts

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	defaultEndpoint = "wss://speech.platform.bing.com/consumer/speech/synthesize/readaloud/edge/v1"
	trustedToken    = "6A5AA1D4EAFF4E9FB37E23D68491D6F4"
	outputFormat    = "audio-24khz-48kbitrate-mono-mp3"

	defaultSynthTimeout = 20 * time.Second
)

type ClientOptions struct {
	Endpoint string
	Timeout  time.Duration
	Dialer   *websocket.Dialer
}

type Client struct {
	endpoint string
	timeout  time.Duration
	dialer   *websocket.Dialer
}

func NewClient(opts ClientOptions) *Client {
	if opts.Endpoint == "" {
		opts.Endpoint = defaultEndpoint
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultSynthTimeout
	}
	if opts.Dialer == nil {
		opts.Dialer = &websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	}
	return &Client{
		endpoint: opts.Endpoint,
		timeout:  opts.Timeout,
		dialer:   opts.Dialer,
	}
}

// Synthesize sends the SSML document and collects the MP3 stream. It returns
// an error on any protocol hiccup; callers treat synthesis as best-effort.
func (c *Client) Synthesize(ctx context.Context, ssml string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := fmt.Sprintf("%s?TrustedClientToken=%s&ConnectionId=%s",
		c.endpoint, trustedToken, strings.ReplaceAll(uuid.NewString(), "-", ""))
	header := http.Header{}
	header.Set("Origin", "chrome-extension://jdiccldimpdaibmpdkjnbmckianbfold")

	conn, resp, err := c.dialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("tts dial http %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("tts dial: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
		_ = conn.SetWriteDeadline(deadline)
	}

	ts := time.Now().UTC().Format("Mon Jan 02 2006 15:04:05 GMT+0000 (Coordinated Universal Time)")
	configMsg := "X-Timestamp:" + ts + "\r\n" +
		"Content-Type:application/json; charset=utf-8\r\n" +
		"Path:speech.config\r\n\r\n" +
		`{"context":{"synthesis":{"audio":{"metadataoptions":{"sentenceBoundaryEnabled":"false","wordBoundaryEnabled":"false"},"outputFormat":"` + outputFormat + `"}}}}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(configMsg)); err != nil {
		return nil, fmt.Errorf("tts send config: %w", err)
	}

	requestID := strings.ReplaceAll(uuid.NewString(), "-", "")
	ssmlMsg := "X-RequestId:" + requestID + "\r\n" +
		"Content-Type:application/ssml+xml\r\n" +
		"X-Timestamp:" + ts + "\r\n" +
		"Path:ssml\r\n\r\n" + ssml
	if err := conn.WriteMessage(websocket.TextMessage, []byte(ssmlMsg)); err != nil {
		return nil, fmt.Errorf("tts send ssml: %w", err)
	}

	var audio bytes.Buffer
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("tts read: %w", err)
		}
		switch msgType {
		case websocket.TextMessage:
			if strings.Contains(string(data), "Path:turn.end") {
				if audio.Len() == 0 {
					return nil, fmt.Errorf("tts returned no audio")
				}
				return audio.Bytes(), nil
			}
		case websocket.BinaryMessage:
			payload, ok := audioPayload(data)
			if ok {
				audio.Write(payload)
			}
		}
	}
}

// audioPayload splits a binary frame into its textual header (length-prefixed
// with two big-endian bytes) and the audio bytes that follow, keeping only
// frames whose header marks them as audio.
func audioPayload(frame []byte) ([]byte, bool) {
	if len(frame) < 2 {
		return nil, false
	}
	headerLen := int(binary.BigEndian.Uint16(frame[:2]))
	if len(frame) < 2+headerLen {
		return nil, false
	}
	header := string(frame[2 : 2+headerLen])
	if !strings.Contains(header, "Path:audio") {
		return nil, false
	}
	return frame[2+headerLen:], true
}
