package server

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"snapbooth/internal/api"
	"snapbooth/internal/camera"
	"snapbooth/internal/config"
	"snapbooth/internal/gallery"
	"snapbooth/internal/session"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SSEの接続維持間隔
const keepAliveInterval = 15 * time.Second

// SnapboothHandler は api.ServerInterface を実装する
type SnapboothHandler struct {
	config  *config.Config
	session *session.Controller
	hub     *Hub
	logger  *slog.Logger
}

// HealthCheck はヘルスチェックエンドポイントの実装
func (h *SnapboothHandler) HealthCheck(c *gin.Context) {
	response := api.HealthResponse{
		Status:    api.Healthy,
		Timestamp: time.Now(),
	}

	c.JSON(http.StatusOK, response)
}

// GetStatus はシステム状態取得エンドポイントの実装
func (h *SnapboothHandler) GetStatus(c *gin.Context) {
	snapshot := h.session.Snapshot()

	response := api.StatusResponse{
		Status: api.Running,
		Server: api.ServerInfo{
			Host: h.config.Server.Host,
			Port: h.config.Server.Port,
		},
		StreamActive: snapshot.Stream != nil,
		Recording:    api.RecordingState(snapshot.Recording),
		GalleryItems: len(snapshot.Items),
		Timestamp:    time.Now(),
	}

	c.JSON(http.StatusOK, response)
}

// GetCameras は映像入力デバイス一覧取得エンドポイントの実装
// 列挙に失敗した場合もアラートを送ったうえで空の一覧を返す
func (h *SnapboothHandler) GetCameras(c *gin.Context) {
	devices := h.session.GetCameras(c.Request.Context())
	cameras := make([]api.Camera, 0, len(devices))

	for _, d := range devices {
		cam := api.Camera{
			Id:    d.ID,
			Label: d.Label,
			Kind:  string(d.Kind),
		}
		if d.Facing != camera.FacingUnknown {
			cam.Facing = stringPtr(string(d.Facing))
		}
		cameras = append(cameras, cam)
	}

	c.JSON(http.StatusOK, api.CamerasResponse{Cameras: cameras})
}

// GetSession はセッション状態取得エンドポイントの実装
func (h *SnapboothHandler) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, toSessionState(h.session.Snapshot()))
}

// StartSession はカメラ起動エンドポイントの実装
func (h *SnapboothHandler) StartSession(c *gin.Context) {
	var req api.StartSessionJSONRequestBody
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		sendError(c, http.StatusBadRequest, "invalid_request", "リクエストが不正です", err)
		return
	}

	deviceID := ""
	if req.DeviceId != nil {
		deviceID = *req.DeviceId
	}

	if err := h.session.StartCamera(c.Request.Context(), deviceID); err != nil {
		status, code, message := startErrorStatus(err)
		sendError(c, status, code, message, err)
		return
	}

	c.JSON(http.StatusOK, toSessionState(h.session.Snapshot()))
}

// startErrorStatus はカメラ起動エラーをHTTPステータスに対応付ける
func startErrorStatus(err error) (int, string, string) {
	switch {
	case errors.Is(err, session.ErrSuperseded):
		return http.StatusConflict, "superseded", "より新しいカメラ起動要求があったため中止しました"
	case errors.Is(err, camera.ErrNotAllowed):
		return http.StatusForbidden, "not_allowed", "カメラの使用が許可されていません"
	case errors.Is(err, camera.ErrNotFound):
		return http.StatusNotFound, "camera_not_found", "カメラが見つかりません"
	case errors.Is(err, camera.ErrOverconstrained):
		return http.StatusUnprocessableEntity, "overconstrained", "指定されたカメラが存在しません"
	case errors.Is(err, session.ErrClosed):
		return http.StatusServiceUnavailable, "session_closed", "セッションは終了しています"
	default:
		return http.StatusServiceUnavailable, "camera_not_readable", "カメラを起動できませんでした"
	}
}

// StopSession はカメラ停止エンドポイントの実装
func (h *SnapboothHandler) StopSession(c *gin.Context) {
	h.session.StopCamera()
	c.JSON(http.StatusOK, toSessionState(h.session.Snapshot()))
}

// GetPreview はMJPEGプレビューエンドポイントの実装
func (h *SnapboothHandler) GetPreview(c *gin.Context, _ api.GetPreviewParams) {
	stream := h.session.ActiveStream()
	if stream == nil {
		sendError(c, http.StatusServiceUnavailable, "camera_not_active", "カメラが起動していません", nil)
		return
	}

	h.streamMJPEG(c, stream)
}

// TakePhoto は写真撮影エンドポイントの実装
func (h *SnapboothHandler) TakePhoto(c *gin.Context) {
	item, err := h.session.TakePhoto()
	if err != nil {
		if errors.Is(err, session.ErrNoFrame) {
			sendError(c, http.StatusServiceUnavailable, "no_frame", "まだ映像が届いていません", err)
			return
		}
		h.logger.Error("server: 写真の撮影に失敗しました", "error", err)
		sendError(c, http.StatusInternalServerError, "capture_failed", "写真を撮影できませんでした", err)
		return
	}

	// ストリームがない場合は何もしない
	if item == nil {
		c.Status(http.StatusNoContent)
		return
	}

	c.JSON(http.StatusCreated, toGalleryItem(*item))
}

// StartRecording は録画開始エンドポイントの実装
// レコーダーを作成できなかった場合もログに残すだけで状態を返す
func (h *SnapboothHandler) StartRecording(c *gin.Context) {
	if err := h.session.StartRecording(); err != nil {
		h.logger.Warn("server: 録画を開始できませんでした", "error", err)
	}
	c.JSON(http.StatusOK, toSessionState(h.session.Snapshot()))
}

// StopRecording は録画停止エンドポイントの実装
func (h *SnapboothHandler) StopRecording(c *gin.Context) {
	h.session.StopRecording()
	c.JSON(http.StatusOK, toSessionState(h.session.Snapshot()))
}

// GetGallery はギャラリー一覧取得エンドポイントの実装
func (h *SnapboothHandler) GetGallery(c *gin.Context) {
	items := h.session.Gallery().Items()
	response := api.GalleryResponse{Items: make([]api.GalleryItem, 0, len(items))}
	for _, item := range items {
		response.Items = append(response.Items, toGalleryItem(item))
	}

	c.JSON(http.StatusOK, response)
}

// GetGalleryItem は成果物取得エンドポイントの実装
func (h *SnapboothHandler) GetGalleryItem(c *gin.Context, itemId api.ItemId, params api.GetGalleryItemParams) {
	item, blob, err := h.session.Gallery().Open(itemId.String())
	if err != nil {
		sendError(c, http.StatusNotFound, "item_not_found", "指定された項目が見つかりません", nil)
		return
	}

	// 中身から判定し、判定できなければ記録された型を使う
	contentType := item.MIMEType
	if detected := mimetype.Detect(blob.Data); detected.String() != "application/octet-stream" {
		contentType = detected.String()
	}
	c.Header("Content-Type", contentType)

	if params.Download != nil && *params.Download {
		c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
			"filename": gallery.DownloadName(item),
		}))
	}

	http.ServeContent(c.Writer, c.Request, gallery.DownloadName(item), item.CreatedAt, bytes.NewReader(blob.Data))
}

// DeleteGalleryItem は項目削除エンドポイントの実装
func (h *SnapboothHandler) DeleteGalleryItem(c *gin.Context, itemId api.ItemId) {
	if err := h.session.RemoveItem(itemId.String()); err != nil {
		sendError(c, http.StatusNotFound, "item_not_found", "指定された項目が見つかりません", nil)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetEvents はServer-Sent Eventsエンドポイントの実装
func (h *SnapboothHandler) GetEvents(c *gin.Context) {
	events, unsubscribe := h.hub.Subscribe()
	defer unsubscribe()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	// 接続直後に現在の状態を送る
	c.Render(-1, sse.Event{Event: eventState, Data: toSessionState(h.session.Snapshot())})
	c.Writer.Flush()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	clientGone := c.Request.Context().Done()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			return false

		case event, ok := <-events:
			if !ok {
				return false
			}
			c.Render(-1, sse.Event{Event: event.Name, Data: event.Data})
			return true

		case <-keepAlive.C:
			// コメント行で接続を維持する
			_, err := w.Write([]byte(": keep-alive\n\n"))
			return err == nil
		}
	})
}

// ヘルパー関数

// sendError はエラーレスポンスを返す
func sendError(c *gin.Context, status int, code, message string, err error) {
	response := api.ErrorResponse{
		Error:     code,
		Message:   message,
		Timestamp: time.Now(),
	}
	if err != nil {
		response.Details = stringPtr(err.Error())
	}
	c.JSON(status, response)
}

// stringPtr は文字列のポインタを返すヘルパー関数
func stringPtr(s string) *string {
	return &s
}

// toGalleryItem はギャラリー項目をAPIの型に変換する
func toGalleryItem(item gallery.Item) api.GalleryItem {
	id, _ := uuid.Parse(item.ID)

	return api.GalleryItem{
		Id:           id,
		Kind:         api.GalleryItemKind(item.Kind),
		Url:          "/api/gallery/" + item.ID,
		ObjectUrl:    item.URL,
		MimeType:     item.MIMEType,
		Size:         item.Size,
		CreatedAt:    item.CreatedAt,
		DownloadName: gallery.DownloadName(item),
	}
}

// toSessionState はセッション状態をAPIの型に変換する
func toSessionState(snapshot session.Snapshot) api.SessionState {
	state := api.SessionState{
		Selection: api.Selection{
			Options: make([]api.SelectOption, 0, len(snapshot.Selection.Options)),
			Value:   snapshot.Selection.Value,
		},
		Controls: api.Controls{
			Capture: snapshot.Controls.Capture,
			Record:  snapshot.Controls.Record,
			Stop:    snapshot.Controls.Stop,
		},
		Recording: api.RecordingState(snapshot.Recording),
		Items:     make([]api.GalleryItem, 0, len(snapshot.Items)),
	}

	for _, opt := range snapshot.Selection.Options {
		state.Selection.Options = append(state.Selection.Options, api.SelectOption{
			Value: opt.Value,
			Label: opt.Label,
		})
	}

	if s := snapshot.Stream; s != nil {
		state.Stream = &api.StreamInfo{
			Id:       s.ID,
			DeviceId: s.DeviceID,
			Label:    s.Label,
			Width:    s.Width,
			Height:   s.Height,
		}
	}

	for _, item := range snapshot.Items {
		state.Items = append(state.Items, toGalleryItem(item))
	}

	return state
}

// streamMJPEG はMJPEGストリームを配信する
// ストリームが終了するか切り替わると応答を終える
func (h *SnapboothHandler) streamMJPEG(c *gin.Context, stream camera.Stream) {
	// レスポンスヘッダーを設定
	c.Header("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	// レスポンスライターを取得
	writer := c.Writer
	flusher, ok := writer.(http.Flusher)
	if !ok {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	frameChan, unsubscribe := stream.Subscribe()
	defer unsubscribe()

	writeFrame := func(frame []byte) bool {
		if _, err := writer.Write([]byte("--frame\r\nContent-Type: image/jpeg\r\n\r\n")); err != nil {
			return false
		}
		if _, err := writer.Write(frame); err != nil {
			return false
		}
		if _, err := writer.Write([]byte("\r\n")); err != nil {
			return false
		}

		// バッファをフラッシュ
		flusher.Flush()
		return true
	}

	// 直近のフレームがあれば先に送る
	if frame, ok := stream.LatestFrame(); ok {
		if !writeFrame(frame) {
			return
		}
	} else {
		c.Status(http.StatusOK)
		flusher.Flush()
	}

	// クライアント切断を検知するためのコンテキスト
	clientGone := c.Request.Context().Done()

	// ストリーミングループ
	for {
		select {
		case <-clientGone:
			// クライアントが切断された
			return

		case frame, ok := <-frameChan:
			if !ok {
				// ストリームが停止した
				return
			}
			if !writeFrame(frame) {
				return
			}
		}
	}
}
