package audio_test

import (
	"encoding/binary"
	"testing"

	"voice-companion/internal/infra/audio"
)

func TestEncodeWAV_Header(t *testing.T) {
	samples := []int16{0, 1000, -1000, 32767}
	data := audio.EncodeWAV(samples, 44100, 2)

	if len(data) != 44+len(samples)*2 {
		t.Fatalf("length: got %d, want %d", len(data), 44+len(samples)*2)
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" || string(data[36:40]) != "data" {
		t.Fatal("missing RIFF/WAVE/data markers")
	}

	le := binary.LittleEndian
	if ch := le.Uint16(data[22:24]); ch != 2 {
		t.Errorf("channels: got %d, want 2", ch)
	}
	if rate := le.Uint32(data[24:28]); rate != 44100 {
		t.Errorf("sample rate: got %d, want 44100", rate)
	}
	if byteRate := le.Uint32(data[28:32]); byteRate != 44100*4 {
		t.Errorf("byte rate: got %d, want %d", byteRate, 44100*4)
	}
	if align := le.Uint16(data[32:34]); align != 4 {
		t.Errorf("block align: got %d, want 4", align)
	}
	if size := le.Uint32(data[40:44]); size != uint32(len(samples)*2) {
		t.Errorf("data size: got %d", size)
	}
	if s := int16(le.Uint16(data[46:48])); s != 1000 {
		t.Errorf("second sample: got %d, want 1000", s)
	}
}
