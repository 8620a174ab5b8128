package voice

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/bwmarrin/discordgo"
	"layeh.com/gopus"
)

const (
	sampleRate = 48000
	channels   = 2
	frameSize  = 960 // 20ms at 48kHz
	maxOpus    = frameSize * channels * 2
)

// playMP3 decodes the MP3 stream through ffmpeg into raw PCM, opus-encodes
// it frame by frame, and pushes it onto the voice connection until the
// stream ends or stop is closed.
func playMP3(ctx context.Context, conn *discordgo.VoiceConnection, mp3 []byte, stop <-chan struct{}) error {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", "pipe:0",
		"-f", "s16le",
		"-ar", fmt.Sprint(sampleRate),
		"-ac", fmt.Sprint(channels),
		"-vn",
		"pipe:1",
	)
	cmd.Stdin = bytes.NewReader(mp3)
	out, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start: %w", err)
	}
	defer func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	}()

	enc, err := gopus.NewEncoder(sampleRate, channels, gopus.Audio)
	if err != nil {
		return fmt.Errorf("opus encoder: %w", err)
	}

	_ = conn.Speaking(true)
	defer func() { _ = conn.Speaking(false) }()

	reader := bufio.NewReaderSize(out, 16384)
	pcm := make([]int16, frameSize*channels)
	for {
		select {
		case <-stop:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := binary.Read(reader, binary.LittleEndian, &pcm); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return fmt.Errorf("pcm read: %w", err)
		}

		frame, err := enc.Encode(pcm, frameSize, maxOpus)
		if err != nil {
			return fmt.Errorf("opus encode: %w", err)
		}

		select {
		case conn.OpusSend <- frame:
		case <-stop:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
			return fmt.Errorf("voice send stalled")
		}
	}
}
