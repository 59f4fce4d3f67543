package domain

import "errors"

var (
	ErrAssetNotFound    = errors.New("media asset not found")
	ErrTemplateNotFound = errors.New("template not found")
	ErrSceneNotFound    = errors.New("scene not found")
	ErrProfileNotFound  = errors.New("profile not found")
	ErrNoVideoSource    = errors.New("no video source selected")
	ErrNoPendingBlob    = errors.New("no pending recording blob")
	ErrAlreadyRecording = errors.New("recording already in progress")
	ErrNotRecording     = errors.New("no recording in progress")
	ErrNoCaptureStream  = errors.New("no capture stream")
	ErrNoCurrentUser    = errors.New("no current user")
)
