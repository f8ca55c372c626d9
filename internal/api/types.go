package api

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
)

// HealthResponseStatus defines model for HealthResponse.Status.
type HealthResponseStatus string

const (
	Healthy HealthResponseStatus = "healthy"
)

// StatusResponseStatus defines model for StatusResponse.Status.
type StatusResponseStatus string

const (
	Running StatusResponseStatus = "running"
)

// RecordingState defines model for RecordingState.
type RecordingState string

const (
	Idle       RecordingState = "idle"
	Recording  RecordingState = "recording"
	Finalizing RecordingState = "finalizing"
)

// GalleryItemKind defines model for GalleryItem.Kind.
type GalleryItemKind string

const (
	Image GalleryItemKind = "image"
	Video GalleryItemKind = "video"
)

// HealthResponse defines model for HealthResponse.
type HealthResponse struct {
	Status    HealthResponseStatus `json:"status"`
	Timestamp time.Time            `json:"timestamp"`
}

// ServerInfo defines model for ServerInfo.
type ServerInfo struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// StatusResponse defines model for StatusResponse.
type StatusResponse struct {
	Status       StatusResponseStatus `json:"status"`
	Server       ServerInfo           `json:"server"`
	StreamActive bool                 `json:"stream_active"`
	Recording    RecordingState       `json:"recording"`
	GalleryItems int                  `json:"gallery_items"`
	Timestamp    time.Time            `json:"timestamp"`
}

// Camera defines model for Camera.
type Camera struct {
	Id     string  `json:"id"`
	Label  string  `json:"label"`
	Kind   string  `json:"kind"`
	Facing *string `json:"facing,omitempty"`
}

// CamerasResponse defines model for CamerasResponse.
type CamerasResponse struct {
	Cameras []Camera `json:"cameras"`
}

// StartSessionRequest defines model for StartSessionRequest.
type StartSessionRequest struct {
	DeviceId *string `json:"device_id,omitempty" binding:"omitempty,max=128"`
}

// SelectOption defines model for SelectOption.
type SelectOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Selection defines model for Selection.
type Selection struct {
	Options []SelectOption `json:"options"`
	Value   string         `json:"value"`
}

// Controls defines model for Controls.
type Controls struct {
	Capture bool `json:"capture"`
	Record  bool `json:"record"`
	Stop    bool `json:"stop"`
}

// StreamInfo defines model for StreamInfo.
type StreamInfo struct {
	Id       string `json:"id"`
	DeviceId string `json:"device_id"`
	Label    string `json:"label"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// GalleryItem defines model for GalleryItem.
type GalleryItem struct {
	Id           openapi_types.UUID `json:"id"`
	Kind         GalleryItemKind    `json:"kind"`
	Url          string             `json:"url"`
	ObjectUrl    string             `json:"object_url"`
	MimeType     string             `json:"mime_type"`
	Size         int                `json:"size"`
	CreatedAt    time.Time          `json:"created_at"`
	DownloadName string             `json:"download_name"`
}

// GalleryResponse defines model for GalleryResponse.
type GalleryResponse struct {
	Items []GalleryItem `json:"items"`
}

// SessionState defines model for SessionState.
type SessionState struct {
	Selection Selection      `json:"selection"`
	Controls  Controls       `json:"controls"`
	Recording RecordingState `json:"recording"`
	Stream    *StreamInfo    `json:"stream,omitempty"`
	Items     []GalleryItem  `json:"items"`
}

// ErrorResponse defines model for ErrorResponse.
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Details   *string   `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ItemId defines model for ItemId.
type ItemId = openapi_types.UUID

// GetGalleryItemParams defines parameters for GetGalleryItem.
type GetGalleryItemParams struct {
	Download *bool `form:"download,omitempty" json:"download,omitempty"`
}

// GetPreviewParams defines parameters for GetPreview.
type GetPreviewParams struct {
	Stream *string `form:"stream,omitempty" json:"stream,omitempty"`
}

// StartSessionJSONRequestBody defines body for StartSession for application/json ContentType.
type StartSessionJSONRequestBody = StartSessionRequest
