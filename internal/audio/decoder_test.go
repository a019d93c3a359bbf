package audio

import (
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/stretchr/testify/assert"
)

func TestDownmixIntBuffer16BitStereoTakesChannelZero(t *testing.T) {
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 2, SampleRate: SampleRate},
		SourceBitDepth: 16,
		Data:           []int{16384, -16384, -16384, 16384}, // frame0: L=16384 R=-16384; frame1: L=-16384 R=16384
	}

	out := downmixIntBuffer(buf)

	assert.Len(t, out, 2)
	assert.InDelta(t, 0.5, out[0], 1e-9)
	assert.InDelta(t, -0.5, out[1], 1e-9)
}

func TestDownmixIntBuffer8BitRecentersAt128(t *testing.T) {
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: SampleRate},
		SourceBitDepth: 8,
		Data:           []int{128, 0, 255},
	}

	out := downmixIntBuffer(buf)

	assert.Len(t, out, 3)
	assert.InDelta(t, 0.0, out[0], 1e-9)
	assert.InDelta(t, -1.0, out[1], 1e-9)
	assert.InDelta(t, 127.0/128.0, out[2], 1e-9)
}

func TestDownmixIntBufferMonoPassesThrough(t *testing.T) {
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: SampleRate},
		SourceBitDepth: 16,
		Data:           []int{32767, -32768},
	}

	out := downmixIntBuffer(buf)

	assert.Len(t, out, 2)
	assert.InDelta(t, 1.0, out[0], 1e-4)
	assert.InDelta(t, -1.0, out[1], 1e-4)
}
