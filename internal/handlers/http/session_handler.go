package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Seeksy-app/studio-engine/internal/core/domain"
	"github.com/Seeksy-app/studio-engine/internal/core/ports"
	"github.com/Seeksy-app/studio-engine/internal/infrastructure/media"
	"github.com/Seeksy-app/studio-engine/internal/infrastructure/monitoring"
	"github.com/Seeksy-app/studio-engine/internal/infrastructure/realtime"
	apperrors "github.com/Seeksy-app/studio-engine/pkg/errors"
	"github.com/Seeksy-app/studio-engine/pkg/utils"
	"github.com/Seeksy-app/studio-engine/pkg/validation"
)

// SessionHandler exposes the studio session surface: devices, recording,
// markers, scenes, live state, presence and the save pipeline.
type SessionHandler struct {
	devices     ports.DeviceService
	recording   ports.RecordingService
	scenes      ports.SceneService
	live        ports.LiveService
	persistence ports.PersistenceService
	monitor     ports.PresenceMonitor
	presence    ports.PresenceRepository
	profiles    ports.ProfileRepository
	feed        realtime.PresenceBroadcaster
	engine      *media.Engine
	socket      *realtime.SessionSocket
	metrics     *monitoring.PrometheusCollector
	logger      *zap.SugaredLogger
}

type SessionHandlerDeps struct {
	Devices     ports.DeviceService
	Recording   ports.RecordingService
	Scenes      ports.SceneService
	Live        ports.LiveService
	Persistence ports.PersistenceService
	Monitor     ports.PresenceMonitor
	Presence    ports.PresenceRepository
	Profiles    ports.ProfileRepository
	Feed        realtime.PresenceBroadcaster
	Engine      *media.Engine
	Metrics     *monitoring.PrometheusCollector
	Logger      *zap.SugaredLogger
}

func NewSessionHandler(deps SessionHandlerDeps) *SessionHandler {
	h := &SessionHandler{
		devices:     deps.Devices,
		recording:   deps.Recording,
		scenes:      deps.Scenes,
		live:        deps.Live,
		persistence: deps.Persistence,
		monitor:     deps.Monitor,
		presence:    deps.Presence,
		profiles:    deps.Profiles,
		feed:        deps.Feed,
		engine:      deps.Engine,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
	}
	h.socket = realtime.NewSessionSocket(h.Snapshot, time.Second, deps.Logger)
	return h
}

func (h *SessionHandler) SetupRoutes(router *gin.Engine, auth, optionalAuth gin.HandlerFunc) {
	api := router.Group("/api/v1")

	studio := api.Group("/studio", auth)
	{
		studio.GET("/devices", h.GetDevices)
		studio.POST("/devices/camera", h.SetCamera)
		studio.POST("/devices/mic", h.SetMic)
		studio.POST("/devices/screen-share", h.ShareScreen)
		studio.POST("/signal/offer", h.HandleOffer)

		studio.GET("/recording", h.GetRecording)
		studio.POST("/recording/start", h.StartRecording)
		studio.POST("/recording/stop", h.StopRecording)
		studio.POST("/recording/discard", h.DiscardRecording)

		studio.GET("/markers", h.ListMarkers)
		studio.POST("/markers", h.AddMarker)
		studio.POST("/ad", h.SelectAd)

		studio.GET("/scenes", h.ListScenes)
		studio.POST("/scenes", h.UpsertScene)
		studio.POST("/scenes/:id/activate", h.ActivateScene)

		studio.GET("/live", h.GetLive)
		studio.POST("/live", h.GoLive)
		studio.POST("/live/stop", h.StopLive)
		studio.GET("/live/viewers", h.GetViewers)

		studio.POST("/save", h.Save)

		studio.GET("/ws", h.HandleSocket)
	}

	public := api.Group("/profiles", optionalAuth)
	{
		public.GET("/:user_id/live", h.GetPublicLive)
		public.POST("/:user_id/presence", h.Heartbeat)
	}
}

// Snapshot assembles the session state pushed over the studio WebSocket.
func (h *SessionHandler) Snapshot() interface{} {
	var activeScene *domain.Scene
	if scene := h.scenes.Active(); scene != nil {
		activeScene = scene
	}

	return gin.H{
		"devices":         h.devices.State(),
		"recording":       h.recording.Status(),
		"elapsed_seconds": h.recording.Elapsed(),
		"clock":           utils.FormatClock(h.recording.Elapsed()),
		"markers":         h.recording.Markers(),
		"active_scene":    activeScene,
		"is_live":         h.live.IsLive(),
		"viewers":         h.monitor.Viewers(),
	}
}

// respondError routes app errors through the error middleware and maps
// domain sentinels to HTTP statuses.
func (h *SessionHandler) respondError(c *gin.Context, err error) {
	if apperrors.GetAppError(err) != nil {
		c.Error(err)
		return
	}

	switch {
	case errors.Is(err, domain.ErrNoCurrentUser):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrSceneNotFound),
		errors.Is(err, domain.ErrAssetNotFound),
		errors.Is(err, domain.ErrProfileNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrAlreadyRecording),
		errors.Is(err, domain.ErrNotRecording):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNoPendingBlob),
		errors.Is(err, domain.ErrNoCaptureStream):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// --- Devices ---

type toggleRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

func (h *SessionHandler) GetDevices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"devices": h.devices.State()})
}

func (h *SessionHandler) SetCamera(c *gin.Context) {
	var req toggleRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	state, err := h.devices.SetCameraEnabled(c.Request.Context(), *req.Enabled)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.socket.Broadcast()
	c.JSON(http.StatusOK, gin.H{"devices": state})
}

func (h *SessionHandler) SetMic(c *gin.Context) {
	var req toggleRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	state, err := h.devices.SetMicEnabled(c.Request.Context(), *req.Enabled)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.socket.Broadcast()
	c.JSON(http.StatusOK, gin.H{"devices": state})
}

func (h *SessionHandler) ShareScreen(c *gin.Context) {
	state := h.devices.ShareScreen(c.Request.Context())
	h.socket.Broadcast()
	c.JSON(http.StatusOK, gin.H{"devices": state})
}

type offerRequest struct {
	SDP string `json:"sdp" binding:"required"`
}

// HandleOffer answers the capturing client's WebRTC offer carrying its
// camera and microphone tracks.
func (h *SessionHandler) HandleOffer(c *gin.Context) {
	var req offerRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	answer, err := h.engine.HandleOffer(c.Request.Context(), req.SDP)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"sdp": answer})
}

// --- Recording ---

func (h *SessionHandler) GetRecording(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":          h.recording.Status(),
		"elapsed_seconds": h.recording.Elapsed(),
		"clock":           utils.FormatClock(h.recording.Elapsed()),
		"has_pending":     h.recording.PendingBlob() != nil,
	})
}

func (h *SessionHandler) StartRecording(c *gin.Context) {
	if err := h.recording.Start(c.Request.Context()); err != nil {
		h.respondError(c, err)
		return
	}

	h.metrics.RecordRecordingStarted()
	h.socket.Broadcast()
	c.JSON(http.StatusOK, gin.H{"status": h.recording.Status()})
}

func (h *SessionHandler) StopRecording(c *gin.Context) {
	blob, err := h.recording.Stop(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.metrics.RecordRecordingStopped(time.Duration(blob.DurationSeconds) * time.Second)
	h.socket.Broadcast()
	c.JSON(http.StatusOK, gin.H{
		"status":           h.recording.Status(),
		"duration_seconds": blob.DurationSeconds,
		"size_bytes":       blob.Size(),
	})
}

func (h *SessionHandler) DiscardRecording(c *gin.Context) {
	h.recording.Discard()
	h.socket.Broadcast()
	c.JSON(http.StatusOK, gin.H{"status": h.recording.Status()})
}

// --- Markers ---

type markerRequest struct {
	Type  string `json:"type" binding:"required"`
	Label string `json:"label"`
}

func (h *SessionHandler) ListMarkers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"markers": h.recording.Markers()})
}

func (h *SessionHandler) AddMarker(c *gin.Context) {
	var req markerRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.recording.AddMarker(domain.MarkerType(req.Type), req.Label)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.metrics.RecordMarker(req.Type)
	h.socket.Broadcast()
	c.JSON(http.StatusCreated, result)
}

type adRequest struct {
	ID       string `json:"id"`
	Kind     string `json:"kind" binding:"required"`
	Script   string `json:"script"`
	VideoURL string `json:"video_url"`
}

func (h *SessionHandler) SelectAd(c *gin.Context) {
	var req adRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	kind := domain.AdCreativeKind(req.Kind)
	if kind != domain.AdCreativeScript && kind != domain.AdCreativeVideo {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ad kind must be script or video"})
		return
	}

	h.recording.SetSelectedAd(&domain.AdCreative{
		ID:       req.ID,
		Kind:     kind,
		Script:   req.Script,
		VideoURL: req.VideoURL,
	})
	c.JSON(http.StatusOK, gin.H{"selected": h.recording.SelectedAd()})
}

// --- Scenes ---

type sceneRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name" binding:"required"`
	Layout   string `json:"layout" binding:"required"`
	VideoURL string `json:"video_url"`
}

func (h *SessionHandler) ListScenes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"scenes": h.scenes.List(),
		"active": h.scenes.Active(),
	})
}

func (h *SessionHandler) UpsertScene(c *gin.Context) {
	var req sceneRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := validation.ValidateSceneName(req.Name); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.VideoURL != "" {
		if err := validation.ValidateURL(req.VideoURL); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	scene := &domain.Scene{
		ID:       domain.SceneID(req.ID),
		Name:     req.Name,
		Layout:   domain.SceneLayout(req.Layout),
		VideoURL: req.VideoURL,
	}
	h.scenes.Upsert(scene)
	c.JSON(http.StatusOK, gin.H{"scene": scene})
}

func (h *SessionHandler) ActivateScene(c *gin.Context) {
	activation, err := h.scenes.Activate(c.Request.Context(), domain.SceneID(c.Param("id")))
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.socket.Broadcast()
	c.JSON(http.StatusOK, activation)
}

// --- Live ---

func (h *SessionHandler) GetLive(c *gin.Context) {
	state, err := h.live.State(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *SessionHandler) GoLive(c *gin.Context) {
	var input domain.GoLiveInput
	if err := c.BindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.live.GoLive(c.Request.Context(), input)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if userID, ok := c.Get("user_id"); ok {
		if id, ok := userID.(domain.UserID); ok {
			if err := h.monitor.Start(c.Request.Context(), id); err != nil {
				h.logger.Warnw("failed to start presence monitor", "error", err)
			}
		}
	}

	h.metrics.RecordLiveStarted()
	h.socket.Broadcast()
	c.JSON(http.StatusOK, result)
}

func (h *SessionHandler) StopLive(c *gin.Context) {
	if err := h.live.StopLive(c.Request.Context()); err != nil {
		h.respondError(c, err)
		return
	}

	h.monitor.Stop()
	if userID, ok := c.Get("user_id"); ok {
		if id, ok := userID.(domain.UserID); ok {
			h.metrics.RecordLiveStopped(string(id))
		}
	}
	h.socket.Broadcast()
	c.JSON(http.StatusOK, gin.H{"is_live": h.live.IsLive()})
}

func (h *SessionHandler) GetViewers(c *gin.Context) {
	count := h.monitor.Viewers()
	if userID, ok := c.Get("user_id"); ok {
		if id, ok := userID.(domain.UserID); ok {
			h.metrics.RecordViewers(string(id), count)
		}
	}
	c.JSON(http.StatusOK, gin.H{"viewers": count})
}

// --- Save ---

type saveRequest struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	SaveAsTemplate  bool   `json:"save_as_template"`
	SaveAsRecording bool   `json:"save_as_recording"`
	Podcast         *struct {
		PodcastID string `json:"podcast_id"`
		Title     string `json:"title"`
	} `json:"podcast"`
}

func (h *SessionHandler) Save(c *gin.Context) {
	var req saveRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Name != "" {
		if err := validation.ValidateAssetName(req.Name); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	opts := domain.SaveOptions{
		Name:            req.Name,
		Description:     req.Description,
		SaveAsTemplate:  req.SaveAsTemplate,
		SaveAsRecording: req.SaveAsRecording,
	}

	var podcast *domain.PodcastContext
	if req.Podcast != nil {
		podcast = &domain.PodcastContext{
			PodcastID: req.Podcast.PodcastID,
			Title:     req.Podcast.Title,
		}
	}

	started := time.Now()
	result, err := h.persistence.RequestSave(c.Request.Context(), h.recording.PendingBlob(), opts, podcast)
	if err != nil {
		h.metrics.RecordSaveFailure("save")
		h.respondError(c, err)
		return
	}

	var uploaded int64
	if result.Asset != nil {
		uploaded = result.Asset.SizeBytes
		// The blob is durable now; the session copy is no longer needed
		h.recording.Discard()
	}
	h.metrics.RecordSaveCompleted(uploaded, time.Since(started))
	h.socket.Broadcast()
	c.JSON(http.StatusOK, result)
}

// --- Realtime ---

func (h *SessionHandler) HandleSocket(c *gin.Context) {
	h.socket.HandleConnection(c.Writer, c.Request)
	h.metrics.RecordStudioClients(h.socket.ConnectionCount())
}

// --- Public profile surface ---

func (h *SessionHandler) GetPublicLive(c *gin.Context) {
	userID := domain.UserID(c.Param("user_id"))

	state, err := h.profiles.GetLiveState(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			// Never-live profiles read as a stable offline state
			c.JSON(http.StatusOK, gin.H{"state": &domain.LiveProfileState{UserID: userID}})
			return
		}
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"state": state})
}

type heartbeatRequest struct {
	ViewerID string `json:"viewer_id" binding:"required,max=128"`
}

// Heartbeat records a viewer's last-seen time and notifies presence
// subscribers.
func (h *SessionHandler) Heartbeat(c *gin.Context) {
	userID := c.Param("user_id")

	var req heartbeatRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	row := &domain.PresenceRow{
		ViewerID:   req.ViewerID,
		UserID:     domain.UserID(userID),
		LastSeenAt: time.Now(),
	}
	if err := h.presence.Touch(c.Request.Context(), row); err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.feed.Publish(c.Request.Context(), userID); err != nil {
		h.logger.Debugw("presence publish failed", "error", err)
	}

	c.JSON(http.StatusAccepted, gin.H{"ok": true})
}
