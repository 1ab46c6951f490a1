package audio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const wavHeaderSize = 44

// WriteWAV writes samples as a 16-bit PCM RIFF/WAVE stream.
func WriteWAV(w io.Writer, samples []int16, rate int) error {
	if rate <= 0 {
		return fmt.Errorf("write wav: invalid sample rate %d", rate)
	}
	dataSize := uint32(len(samples) * 2)
	blockAlign := uint16(Channels * 2)

	bw := bufio.NewWriter(w)
	header := make([]byte, wavHeaderSize)
	copy(header[0:], "RIFF")
	binary.LittleEndian.PutUint32(header[4:], 36+dataSize)
	copy(header[8:], "WAVE")
	copy(header[12:], "fmt ")
	binary.LittleEndian.PutUint32(header[16:], 16)
	binary.LittleEndian.PutUint16(header[20:], 1)
	binary.LittleEndian.PutUint16(header[22:], Channels)
	binary.LittleEndian.PutUint32(header[24:], uint32(rate))
	binary.LittleEndian.PutUint32(header[28:], uint32(rate)*uint32(blockAlign))
	binary.LittleEndian.PutUint16(header[32:], blockAlign)
	binary.LittleEndian.PutUint16(header[34:], 16)
	copy(header[36:], "data")
	binary.LittleEndian.PutUint32(header[40:], dataSize)
	if _, err := bw.Write(header); err != nil {
		return fmt.Errorf("write wav header: %w", err)
	}
	if _, err := bw.Write(SamplesToBytes(samples)); err != nil {
		return fmt.Errorf("write wav data: %w", err)
	}
	return bw.Flush()
}

// WAVInfo is the decoded header of a canonical PCM WAV file.
type WAVInfo struct {
	SampleRate int
	Channels   int
	Frames     int
}

// ReadWAV parses a canonical 44-byte-header PCM WAV written by WriteWAV.
func ReadWAV(r io.Reader) (WAVInfo, []int16, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return WAVInfo{}, nil, fmt.Errorf("read wav: %w", err)
	}
	if len(data) < wavHeaderSize || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return WAVInfo{}, nil, errors.New("read wav: not a RIFF/WAVE stream")
	}
	channels := int(binary.LittleEndian.Uint16(data[22:]))
	rate := int(binary.LittleEndian.Uint32(data[24:]))
	size := int(binary.LittleEndian.Uint32(data[40:]))
	if channels != Channels || wavHeaderSize+size > len(data) {
		return WAVInfo{}, nil, errors.New("read wav: unsupported layout")
	}
	samples := BytesToSamples(data[wavHeaderSize : wavHeaderSize+size])
	return WAVInfo{SampleRate: rate, Channels: channels, Frames: Frames(samples)}, samples, nil
}
