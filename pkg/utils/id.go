package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GenerateSessionID generates a unique session ID
func GenerateSessionID() string {
	return GenerateID("session")
}

// GenerateMarkerID generates a unique timeline marker ID
func GenerateMarkerID() string {
	return GenerateID("marker")
}

// GenerateSceneID generates a unique scene ID
func GenerateSceneID() string {
	return GenerateID("scene")
}

// GenerateAssetID generates a unique media asset ID
func GenerateAssetID() string {
	return uuid.NewString()
}

// GenerateTemplateID generates a unique template ID
func GenerateTemplateID() string {
	return uuid.NewString()
}

// GenerateRequestID generates a unique request ID
func GenerateRequestID() string {
	timestamp := time.Now().UnixNano()
	b := make([]byte, 4)
	rand.Read(b)
	return fmt.Sprintf("req_%d_%s", timestamp, hex.EncodeToString(b))
}
