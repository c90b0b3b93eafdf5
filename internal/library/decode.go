package library

import (
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	mp3 "github.com/hajimehoshi/go-mp3"
)

// decodeFile decodes a WAV or MP3 file into per-channel float32 buffers in
// [-1, 1] plus the source sample rate. The voice resamples at playback time,
// so no rate conversion happens here.
func decodeFile(path string) ([][]float32, float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return decodeWAV(f, path)
	case ".mp3":
		return decodeMP3(f, path)
	default:
		return nil, 0, fmt.Errorf("unsupported audio format: %s", filepath.Ext(path))
	}
}

func decodeWAV(f *os.File, path string) ([][]float32, float64, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("invalid WAV file")
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, 0, err
	}
	format := dec.Format()
	bitDepth := int(dec.SampleBitDepth())
	if bitDepth == 0 {
		return nil, 0, fmt.Errorf("unknown WAV bit depth")
	}
	bytesPerSample := (bitDepth-1)/8 + 1
	nsamples := int(dec.PCMLen()) / bytesPerSample
	nchannels := format.NumChannels
	if nchannels <= 0 || nsamples <= 0 {
		return nil, 0, fmt.Errorf("empty WAV data")
	}

	buf := &audio.IntBuffer{
		Format:         format,
		Data:           make([]int, nsamples),
		SourceBitDepth: bitDepth,
	}
	if _, err := dec.PCMBuffer(buf); err != nil {
		return nil, 0, err
	}

	slog.Debug("decoded wav file",
		"path", path,
		"sampleRate", format.SampleRate,
		"channels", nchannels,
		"bitDepth", bitDepth,
		"frames", nsamples/nchannels)

	factor := float32(math.Pow(2, float64(bitDepth-1)))
	nframes := nsamples / nchannels
	out := makeChannels(nchannels, nframes)
	for frame := 0; frame < nframes; frame++ {
		for ch := 0; ch < nchannels; ch++ {
			out[ch][frame] = float32(buf.Data[frame*nchannels+ch]) / factor
		}
	}
	return out, float64(format.SampleRate), nil
}

func decodeMP3(f *os.File, path string) ([][]float32, float64, error) {
	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, 0, err
	}
	// go-mp3 always produces 16-bit LE stereo.
	const nchannels = 2
	nbytes := dec.Length()
	if nbytes <= 0 {
		return nil, 0, fmt.Errorf("cannot determine MP3 length")
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, 0, err
	}
	nframes := len(raw) / (2 * nchannels)
	out := makeChannels(nchannels, nframes)
	for frame := 0; frame < nframes; frame++ {
		for ch := 0; ch < nchannels; ch++ {
			s := int16(binary.LittleEndian.Uint16(raw[(frame*nchannels+ch)*2:]))
			out[ch][frame] = float32(s) / 32768
		}
	}

	slog.Debug("decoded mp3 file",
		"path", path,
		"sampleRate", dec.SampleRate(),
		"frames", nframes)

	return out, float64(dec.SampleRate()), nil
}

func makeChannels(nchannels, nframes int) [][]float32 {
	out := make([][]float32, nchannels)
	for i := range out {
		out[i] = make([]float32, nframes)
	}
	return out
}

func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
