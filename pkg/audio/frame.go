package audio

import (
	"encoding/binary"
	"sync"
	"time"
)

// Frame is a chunk of interleaved little-endian 16-bit PCM.
type Frame struct {
	Data       []byte
	SampleRate int
	Channels   int
	PTS        time.Duration
}

// NewFrame copies data into a pooled buffer.
func NewFrame(data []byte, rate, channels int, pts time.Duration) Frame {
	buf := AcquireBuf(len(data))
	copy(buf, data)
	return Frame{Data: buf, SampleRate: rate, Channels: channels, PTS: pts}
}

// Samples returns the number of samples per channel.
func (f Frame) Samples() int {
	ch := f.Channels
	if ch <= 0 {
		ch = 1
	}
	return len(f.Data) / 2 / ch
}

// Duration is the playback length of the frame.
func (f Frame) Duration() time.Duration {
	if f.SampleRate <= 0 {
		return 0
	}
	return time.Duration(f.Samples()) * time.Second / time.Duration(f.SampleRate)
}

// Release returns the frame buffer to the pool. The frame must not be used
// afterwards.
func (f Frame) Release() {
	if f.Data != nil {
		ReleaseBuf(f.Data)
	}
}

// EncodePCM16 writes samples into dst as little-endian bytes, growing dst as
// needed.
func EncodePCM16(dst []byte, samples []int16) []byte {
	need := len(samples) * 2
	if cap(dst) < need {
		dst = make([]byte, need)
	}
	dst = dst[:need]
	for i, s := range samples {
		binary.LittleEndian.PutUint16(dst[i*2:], uint16(s))
	}
	return dst
}

// DecodePCM16 reads little-endian samples from src into dst. A trailing odd
// byte is ignored.
func DecodePCM16(dst []int16, src []byte) []int16 {
	n := len(src) / 2
	if cap(dst) < n {
		dst = make([]int16, n)
	}
	dst = dst[:n]
	for i := 0; i < n; i++ {
		dst[i] = int16(binary.LittleEndian.Uint16(src[i*2:]))
	}
	return dst
}

var bufPool = sync.Pool{
	New: func() any {
		return make([]byte, 0, 4096)
	},
}

func AcquireBuf(size int) []byte {
	b := bufPool.Get().([]byte)
	if cap(b) < size {
		return make([]byte, size)
	}
	return b[:size]
}

func ReleaseBuf(b []byte) {
	bufPool.Put(b[:0])
}
