package media

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Seeksy-app/studio-engine/internal/core/ports"
	"github.com/Seeksy-app/studio-engine/pkg/optimize"
)

const (
	chunkBufferSize  = 256 * 1024
	chunkChannelSize = 32
)

// Recorder assembles RTP payloads from a capture stream into timed chunks.
// Every flush interval the accumulated payload bytes are emitted as one chunk
// on the output channel, mirroring timesliced capture.
type Recorder struct {
	keyframeInterval time.Duration
	pool             *optimize.BytePool
	logger           *zap.SugaredLogger

	mu      sync.Mutex
	buffer  []byte
	out     chan []byte
	cancel  context.CancelFunc
	readers sync.WaitGroup
	running bool
}

// NewRecorder creates a recorder. keyframeInterval controls how often the
// publisher is asked for a fresh keyframe so each chunk stays decodable.
func NewRecorder(keyframeInterval time.Duration, logger *zap.SugaredLogger) *Recorder {
	return &Recorder{
		keyframeInterval: keyframeInterval,
		pool:             optimize.NewBytePool(chunkBufferSize),
		logger:           logger,
	}
}

// Start begins reading the stream's tracks and emitting chunks every
// flushInterval. The returned channel closes after Stop.
func (r *Recorder) Start(ctx context.Context, stream *ports.CaptureStream, flushInterval time.Duration) (<-chan []byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return nil, errors.New("recorder already running")
	}
	if stream == nil || (stream.Video == nil && stream.Audio == nil) {
		return nil, errors.New("capture stream has no tracks")
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.out = make(chan []byte, chunkChannelSize)
	r.buffer = r.pool.Get()[:0]
	r.running = true

	for _, track := range []ports.Track{stream.Video, stream.Audio} {
		rt, ok := track.(*remoteTrack)
		if !ok {
			continue
		}
		r.readers.Add(1)
		go r.readTrack(ctx, rt)
	}

	r.readers.Add(1)
	go r.flushLoop(ctx, flushInterval)

	if rt, ok := stream.Video.(*remoteTrack); ok {
		r.readers.Add(1)
		go r.keyframeLoop(ctx, rt)
	}

	return r.out, nil
}

// Stop halts the readers, flushes the remaining buffer and closes the chunk
// channel. Idempotent.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = false
	cancel := r.cancel
	r.mu.Unlock()

	cancel()
	r.readers.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.flushLocked()
	close(r.out)
	if r.buffer != nil {
		r.pool.Put(r.buffer)
		r.buffer = nil
	}
	return nil
}

func (r *Recorder) readTrack(ctx context.Context, track *remoteTrack) {
	defer r.readers.Done()

	for {
		if ctx.Err() != nil {
			return
		}

		payload, err := track.readPayload()
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				r.logger.Warnw("track read failed",
					"kind", track.Kind(),
					"error", err)
			}
			return
		}
		if len(payload) == 0 {
			continue
		}

		r.mu.Lock()
		if r.running {
			r.buffer = append(r.buffer, payload...)
		}
		r.mu.Unlock()
	}
}

func (r *Recorder) flushLoop(ctx context.Context, interval time.Duration) {
	defer r.readers.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.mu.Lock()
			if r.running {
				r.flushLocked()
			}
			r.mu.Unlock()
		case <-ctx.Done():
			return
		}
	}
}

// flushLocked hands off the current buffer as one chunk. A full output
// channel drops the chunk rather than stalling the capture path.
func (r *Recorder) flushLocked() {
	if len(r.buffer) == 0 {
		return
	}

	chunk := make([]byte, len(r.buffer))
	copy(chunk, r.buffer)
	r.buffer = r.buffer[:0]

	select {
	case r.out <- chunk:
	default:
		r.logger.Warnw("chunk channel full, dropping chunk", "size", len(chunk))
	}
}

func (r *Recorder) keyframeLoop(ctx context.Context, track *remoteTrack) {
	defer r.readers.Done()

	ticker := time.NewTicker(r.keyframeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := track.requestKeyframe(); err != nil {
				r.logger.Debugw("keyframe request failed", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
