package media

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pion/rtcp"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v3"
	"go.uber.org/zap"

	"github.com/Seeksy-app/studio-engine/internal/core/ports"
)

// receiveMTU bounds one RTP datagram read off the wire.
const receiveMTU = 1500

// screenStreamID is the msid the capturing client uses when publishing a
// screen-capture track, distinguishing it from the camera.
const screenStreamID = "screen"

// Config holds the WebRTC ingest configuration.
type Config struct {
	ICEServers     []webrtc.ICEServer
	AcquireTimeout time.Duration
}

// Engine is the platform media boundary implemented over WebRTC ingest. The
// capturing client publishes its camera/microphone to the engine; "acquiring
// a device" means waiting for the corresponding remote track to arrive on the
// negotiated peer connection.
type Engine struct {
	config Config
	logger *zap.SugaredLogger

	mu     sync.Mutex
	pc     *webrtc.PeerConnection
	video  chan *remoteTrack
	audio  chan *remoteTrack
	screen chan *remoteTrack
}

// NewEngine creates the WebRTC ingest engine.
func NewEngine(config Config, logger *zap.SugaredLogger) *Engine {
	return &Engine{
		config: config,
		logger: logger,
		video:  make(chan *remoteTrack, 1),
		audio:  make(chan *remoteTrack, 1),
		screen: make(chan *remoteTrack, 1),
	}
}

// HandleOffer answers the capturing client's SDP offer. One offer carries
// both camera and microphone, so a single exchange serves both kinds.
func (e *Engine) HandleOffer(ctx context.Context, offerSDP string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pc != nil {
		if err := e.pc.Close(); err != nil {
			e.logger.Debugw("failed to close previous peer connection", "error", err)
		}
	}

	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{ICEServers: e.config.ICEServers})
	if err != nil {
		return "", fmt.Errorf("failed to create peer connection: %w", err)
	}

	pc.OnTrack(e.handleTrack(pc))
	pc.OnICEConnectionStateChange(func(state webrtc.ICEConnectionState) {
		e.logger.Debugw("ice connection state changed", "state", state.String())
	})

	offer := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: offerSDP}
	if err := pc.SetRemoteDescription(offer); err != nil {
		pc.Close()
		return "", fmt.Errorf("failed to set remote description: %w", err)
	}

	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		pc.Close()
		return "", fmt.Errorf("failed to create answer: %w", err)
	}

	gatherComplete := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(answer); err != nil {
		pc.Close()
		return "", fmt.Errorf("failed to set local description: %w", err)
	}

	select {
	case <-gatherComplete:
	case <-ctx.Done():
		pc.Close()
		return "", ctx.Err()
	}

	e.pc = pc
	e.logger.Infow("ingest peer connection negotiated")

	return pc.LocalDescription().SDP, nil
}

func (e *Engine) handleTrack(pc *webrtc.PeerConnection) func(*webrtc.TrackRemote, *webrtc.RTPReceiver) {
	return func(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
		rt := newRemoteTrack(track, pc)

		e.logger.Infow("remote track arrived",
			"kind", track.Kind().String(),
			"stream_id", track.StreamID(),
			"ssrc", track.SSRC())

		var target chan *remoteTrack
		switch {
		case track.StreamID() == screenStreamID:
			target = e.screen
		case track.Kind() == webrtc.RTPCodecTypeVideo:
			target = e.video
		default:
			target = e.audio
		}

		select {
		case target <- rt:
		default:
			e.logger.Warnw("dropping unexpected duplicate track",
				"kind", track.Kind().String())
			rt.Close()
		}
	}
}

// AcquireUserMedia waits for the requested kinds from the negotiated
// connection. The client declining or a negotiation timeout surfaces as a
// device error, mirroring a denied permission prompt.
func (e *Engine) AcquireUserMedia(ctx context.Context, video, audio bool) (*ports.CaptureStream, error) {
	ctx, cancel := context.WithTimeout(ctx, e.config.AcquireTimeout)
	defer cancel()

	stream := &ports.CaptureStream{}

	if video {
		track, err := e.waitForTrack(ctx, e.video)
		if err != nil {
			return nil, fmt.Errorf("no camera track published: %w", err)
		}
		stream.Video = track
	}

	if audio {
		track, err := e.waitForTrack(ctx, e.audio)
		if err != nil {
			if stream.Video != nil {
				stream.Video.Close()
			}
			return nil, fmt.Errorf("no microphone track published: %w", err)
		}
		stream.Audio = track
	}

	return stream, nil
}

// AcquireDisplayMedia waits for a screen track published under the screen
// stream id.
func (e *Engine) AcquireDisplayMedia(ctx context.Context) (ports.Track, error) {
	ctx, cancel := context.WithTimeout(ctx, e.config.AcquireTimeout)
	defer cancel()

	track, err := e.waitForTrack(ctx, e.screen)
	if err != nil {
		return nil, fmt.Errorf("no screen track published: %w", err)
	}
	return track, nil
}

func (e *Engine) waitForTrack(ctx context.Context, ch chan *remoteTrack) (ports.Track, error) {
	select {
	case track := <-ch:
		return track, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close tears down the peer connection.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pc == nil {
		return nil
	}
	err := e.pc.Close()
	e.pc = nil
	return err
}

// remoteTrack adapts a pion remote track to the engine's track handle.
// Enable/disable gates the packet flow; no renegotiation happens.
type remoteTrack struct {
	remote  *webrtc.TrackRemote
	pc      *webrtc.PeerConnection
	readBuf []byte
	enabled atomic.Bool
	closed  atomic.Bool
}

func newRemoteTrack(remote *webrtc.TrackRemote, pc *webrtc.PeerConnection) *remoteTrack {
	t := &remoteTrack{
		remote:  remote,
		pc:      pc,
		readBuf: make([]byte, receiveMTU),
	}
	t.enabled.Store(true)
	return t
}

func (t *remoteTrack) Kind() ports.TrackKind {
	if t.remote.Kind() == webrtc.RTPCodecTypeAudio {
		return ports.TrackAudio
	}
	return ports.TrackVideo
}

func (t *remoteTrack) SetEnabled(enabled bool) {
	t.enabled.Store(enabled)
}

func (t *remoteTrack) Enabled() bool {
	return t.enabled.Load()
}

func (t *remoteTrack) Close() error {
	t.closed.Store(true)
	return nil
}

// readPayload reads the next RTP datagram and returns its payload. Disabled
// tracks keep draining the receive buffer but report no data. Malformed
// datagrams are skipped, not fatal.
func (t *remoteTrack) readPayload() ([]byte, error) {
	if t.closed.Load() {
		return nil, fmt.Errorf("track closed")
	}

	n, _, err := t.remote.Read(t.readBuf)
	if err != nil {
		return nil, err
	}

	payload, err := depacketize(t.readBuf[:n])
	if err != nil {
		return nil, nil
	}

	if !t.enabled.Load() {
		return nil, nil
	}
	return payload, nil
}

// depacketize parses one RTP datagram and extracts its payload.
func depacketize(datagram []byte) ([]byte, error) {
	var packet rtp.Packet
	if err := packet.Unmarshal(datagram); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rtp packet: %w", err)
	}
	return packet.Payload, nil
}

// requestKeyframe asks the publisher for a fresh keyframe via RTCP PLI.
func (t *remoteTrack) requestKeyframe() error {
	return t.pc.WriteRTCP([]rtcp.Packet{
		&rtcp.PictureLossIndication{MediaSSRC: uint32(t.remote.SSRC())},
	})
}
