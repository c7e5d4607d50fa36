package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

const wavHeaderSize = 44

// EncodeWAV packs interleaved 16-bit PCM samples into a RIFF/WAVE container.
func EncodeWAV(samples []int16, sampleRate, channels int) []byte {
	if channels <= 0 {
		channels = 1
	}

	var buf bytes.Buffer

	dataSize := len(samples) * 2
	fileSize := 36 + dataSize
	blockAlign := channels * 2

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, int32(fileSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, int32(16))
	binary.Write(&buf, binary.LittleEndian, int16(1))
	binary.Write(&buf, binary.LittleEndian, int16(channels))
	binary.Write(&buf, binary.LittleEndian, int32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, int32(sampleRate*blockAlign))
	binary.Write(&buf, binary.LittleEndian, int16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, int16(16))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, int32(dataSize))
	binary.Write(&buf, binary.LittleEndian, samples)

	return buf.Bytes()
}

// checkWAV verifies that path holds a RIFF/WAVE file with at least a header.
func checkWAV(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening recording: %w", err)
	}
	defer f.Close()

	header := make([]byte, wavHeaderSize)
	if _, err := io.ReadFull(f, header); err != nil {
		return fmt.Errorf("reading wav header %s: %w", path, err)
	}

	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return fmt.Errorf("%s is not a wav file", path)
	}

	return nil
}
