// Package portaudio connects the assistant to the local sound card.
package portaudio

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Baishnab1708/MyChatBot/pkg/audio"
	"github.com/Baishnab1708/MyChatBot/pkg/logging"
	"github.com/gordonklaus/portaudio"
)

var (
	initMu   sync.Mutex
	initRefs int
)

// acquire initializes the PortAudio library on first use.
func acquire() error {
	initMu.Lock()
	defer initMu.Unlock()
	if initRefs == 0 {
		if err := portaudio.Initialize(); err != nil {
			return err
		}
	}
	initRefs++
	return nil
}

func release() {
	initMu.Lock()
	defer initMu.Unlock()
	if initRefs == 0 {
		return
	}
	initRefs--
	if initRefs == 0 {
		if err := portaudio.Terminate(); err != nil {
			slog.Default().Warn("portaudio_terminate_failed", slog.Any("error", err))
		}
	}
}

type Config struct {
	SampleRate      int
	FramesPerBuffer int
}

func (c Config) withDefaults() Config {
	if c.SampleRate <= 0 {
		c.SampleRate = 16000
	}
	if c.FramesPerBuffer <= 0 {
		c.FramesPerBuffer = c.SampleRate / 50
	}
	return c
}

// Microphone reads mono PCM from the default input device.
type Microphone struct {
	cfg    Config
	logger *slog.Logger

	mu     sync.Mutex
	stream *portaudio.Stream
	cancel context.CancelFunc
	done   chan struct{}
}

func NewMicrophone(cfg Config) *Microphone {
	return &Microphone{
		cfg:    cfg.withDefaults(),
		logger: logging.NewComponentLogger(slog.Default(), "portaudio_mic"),
	}
}

func (m *Microphone) Name() string { return "portaudio_mic" }

func (m *Microphone) Start(ctx context.Context) (<-chan audio.Frame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stream != nil {
		return nil, errors.New("microphone already started")
	}
	if err := acquire(); err != nil {
		return nil, err
	}
	in := make([]int16, m.cfg.FramesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(m.cfg.SampleRate), len(in), in)
	if err != nil {
		release()
		return nil, err
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		release()
		return nil, err
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.stream = stream
	m.cancel = cancel
	m.done = make(chan struct{})

	out := make(chan audio.Frame, 32)
	go m.read(runCtx, stream, in, out, m.done)
	m.logger.Debug("microphone_started", slog.Int("sample_rate", m.cfg.SampleRate))
	return out, nil
}

func (m *Microphone) read(ctx context.Context, stream *portaudio.Stream, in []int16, out chan<- audio.Frame, done chan struct{}) {
	defer close(done)
	defer close(out)
	var pts time.Duration
	var scratch []byte
	for ctx.Err() == nil {
		if err := stream.Read(); err != nil {
			if ctx.Err() == nil {
				m.logger.Warn("microphone_read_failed", slog.Any("error", err))
			}
			return
		}
		scratch = audio.EncodePCM16(scratch, in)
		f := audio.NewFrame(scratch, m.cfg.SampleRate, 1, pts)
		pts += f.Duration()
		select {
		case out <- f:
		case <-ctx.Done():
			f.Release()
			return
		default:
			f.Release()
			m.logger.Debug("microphone_frame_dropped")
		}
	}
}

func (m *Microphone) Stop() error {
	m.mu.Lock()
	stream, cancel, done := m.stream, m.cancel, m.done
	m.stream, m.cancel, m.done = nil, nil, nil
	m.mu.Unlock()
	if stream == nil {
		return nil
	}
	cancel()
	err := stream.Stop()
	<-done
	if cerr := stream.Close(); cerr != nil && err == nil {
		err = cerr
	}
	release()
	m.logger.Debug("microphone_stopped")
	return err
}

// Speaker writes mono PCM to the default output device.
type Speaker struct {
	cfg    Config
	logger *slog.Logger

	mu     sync.Mutex
	stream *portaudio.Stream
	out    []int16
}

// NewSpeaker opens the default output device.
func NewSpeaker(cfg Config) (*Speaker, error) {
	cfg = cfg.withDefaults()
	if err := acquire(); err != nil {
		return nil, err
	}
	out := make([]int16, cfg.FramesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(0, 1, float64(cfg.SampleRate), len(out), out)
	if err != nil {
		release()
		return nil, err
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		release()
		return nil, err
	}
	return &Speaker{
		cfg:    cfg,
		logger: logging.NewComponentLogger(slog.Default(), "portaudio_speaker"),
		stream: stream,
		out:    out,
	}, nil
}

func (s *Speaker) Name() string    { return "portaudio_speaker" }
func (s *Speaker) SampleRate() int { return s.cfg.SampleRate }

// Play writes f in device-sized chunks and checks ctx between chunks, so a
// cancelled utterance stops within one buffer.
func (s *Speaker) Play(ctx context.Context, f audio.Frame) error {
	defer f.Release()
	samples := audio.DecodePCM16(nil, f.Data)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream == nil {
		return errors.New("speaker closed")
	}
	for len(samples) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := copy(s.out, samples)
		for i := n; i < len(s.out); i++ {
			s.out[i] = 0
		}
		samples = samples[n:]
		if err := s.stream.Write(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Speaker) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream == nil {
		return nil
	}
	err := s.stream.Stop()
	if cerr := s.stream.Close(); cerr != nil && err == nil {
		err = cerr
	}
	s.stream = nil
	release()
	return err
}

var (
	_ audio.Source = (*Microphone)(nil)
	_ audio.Sink   = (*Speaker)(nil)
)
