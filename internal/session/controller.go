package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"snapbooth/internal/camera"
	"snapbooth/internal/gallery"
	"snapbooth/internal/media"
)

var (
	// ErrSuperseded は後から来たカメラ要求に置き換えられた
	ErrSuperseded = errors.New("新しいカメラ要求に置き換えられました")

	// ErrNoFrame はまだフレームが届いていない
	ErrNoFrame = errors.New("フレームがまだ届いていません")

	// ErrClosed はセッションが終了している
	ErrClosed = errors.New("セッションは終了しています")
)

// 利用者に表示するメッセージ
const (
	PlaceholderLabel    = "カメラを選択"
	MsgEnumerateFailed  = "カメラにアクセスできませんでした。カメラの使用が許可されているか確認してください。"
	MsgStartFailed      = "カメラを起動できませんでした。カメラの使用が許可されているか確認してください。"
	MsgCameraDisconnect = "カメラとの接続が切れました。"
)

// VideoMIMEType は確定した動画の型
const VideoMIMEType = "video/webm"

// RecordingState は録画の状態
type RecordingState string

const (
	RecordingIdle       RecordingState = "idle"
	RecordingActive     RecordingState = "recording"
	RecordingFinalizing RecordingState = "finalizing" // 停止要求後、レコーダーの停止完了待ち
)

// Option はカメラ選択肢の1項目
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Selection はカメラ選択コントロールの状態
// Options の先頭は常に値が空のプレースホルダ
type Selection struct {
	Options []Option `json:"options"`
	Value   string   `json:"value"`
}

// Controls は各操作ボタンが有効かどうか
type Controls struct {
	Capture bool `json:"capture"`
	Record  bool `json:"record"`
	Stop    bool `json:"stop"`
}

// StreamInfo は動作中のストリームの情報
type StreamInfo struct {
	ID       string `json:"id"`
	DeviceID string `json:"device_id"`
	Label    string `json:"label"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// Snapshot はセッション全体の状態
type Snapshot struct {
	Selection Selection      `json:"selection"`
	Controls  Controls       `json:"controls"`
	Recording RecordingState `json:"recording"`
	Stream    *StreamInfo    `json:"stream,omitempty"`
	Items     []gallery.Item `json:"items"`
}

// Notifier は利用者への通知を担う
type Notifier interface {
	// Alert は利用者が確認するまで表示される通知
	Alert(message string)

	// StateChanged は状態が変わるたびに呼ばれる
	StateChanged(snapshot Snapshot)
}

type noopNotifier struct{}

func (noopNotifier) Alert(string) {}

func (noopNotifier) StateChanged(Snapshot) {}

// Options はControllerの設定
type Options struct {
	Devices     camera.MediaDevices
	NewRecorder media.RecorderFactory
	Store       *gallery.ObjectStore
	Gallery     *gallery.Gallery
	Notifier    Notifier
	Logger      *slog.Logger

	IdealWidth    int
	IdealHeight   int
	FacingMode    camera.FacingMode // デバイス未指定時に優先する向き
	RecordingMIME string
	Timeslice     time.Duration
}

// Controller は1つのキャプチャセッションを管理する
// ストリームとレコーダーはそれぞれ最大1つ
type Controller struct {
	opts     Options
	notifier Notifier
	logger   *slog.Logger

	mu         sync.Mutex
	selection  Selection
	controls   Controls
	stream     camera.Stream
	generation uint64
	closed     bool

	recording  RecordingState
	recorder   media.Recorder
	recorderID uint64
	chunks     []media.Blob

	canvasMu sync.Mutex
	canvas   *media.Canvas

	notifyMu sync.Mutex
}

// NewController は新しいControllerを作成する
func NewController(opts Options) *Controller {
	if opts.IdealWidth <= 0 || opts.IdealHeight <= 0 {
		opts.IdealWidth, opts.IdealHeight = 1280, 720
	}
	if opts.FacingMode == camera.FacingUnknown {
		opts.FacingMode = camera.FacingEnvironment
	}
	if opts.RecordingMIME == "" {
		opts.RecordingMIME = "video/webm;codecs=vp9"
	}
	if opts.Timeslice <= 0 {
		opts.Timeslice = media.DefaultTimeslice
	}
	if opts.Store == nil {
		opts.Store = gallery.NewObjectStore()
	}
	if opts.Gallery == nil {
		opts.Gallery = gallery.New(opts.Store)
	}

	notifier := opts.Notifier
	if notifier == nil {
		notifier = noopNotifier{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Controller{
		opts:      opts,
		notifier:  notifier,
		logger:    logger.With("component", "session"),
		selection: Selection{Options: []Option{{Value: "", Label: PlaceholderLabel}}},
		recording: RecordingIdle,
		canvas:    media.NewCanvas(),
	}
}

// Init はカメラを列挙し、見つかれば最初のカメラを起動する
func (c *Controller) Init(ctx context.Context) error {
	devices := c.GetCameras(ctx)
	if len(devices) == 0 {
		return nil
	}
	return c.StartCamera(ctx, devices[0].ID)
}

// GetCameras は映像入力デバイスを列挙し、選択肢を作り直す
// 失敗した場合は利用者に通知し、空の一覧を返す
func (c *Controller) GetCameras(ctx context.Context) []camera.Device {
	devices, err := c.opts.Devices.EnumerateDevices(ctx)
	if err != nil {
		c.logger.Error("session: カメラの列挙に失敗しました", "error", err)
		c.notifier.Alert(MsgEnumerateFailed)
		return []camera.Device{}
	}

	videoDevices := make([]camera.Device, 0, len(devices))
	for _, d := range devices {
		if d.Kind == camera.KindVideoInput {
			videoDevices = append(videoDevices, d)
		}
	}

	c.mu.Lock()
	c.selection = buildSelection(videoDevices, c.selection.Value)
	c.mu.Unlock()

	c.logger.Info("session: カメラを列挙しました", "count", len(videoDevices))
	c.notifyState()
	return videoDevices
}

// buildSelection はプレースホルダを先頭にした選択肢を作る
// ラベルのないデバイスには映像入力中の通し番号でラベルを付ける
func buildSelection(devices []camera.Device, current string) Selection {
	selection := Selection{Options: make([]Option, 0, len(devices)+1)}
	selection.Options = append(selection.Options, Option{Value: "", Label: PlaceholderLabel})

	for i, d := range devices {
		label := d.Label
		if label == "" {
			label = fmt.Sprintf("カメラ %d", i+1)
		}
		selection.Options = append(selection.Options, Option{Value: d.ID, Label: label})
		if d.ID == current {
			selection.Value = current
		}
	}
	return selection
}

// StartCamera は現在のストリームを解放してから新しいストリームを取得する
// deviceID が空の場合は既定の向きを優先して選ぶ
// 取得中に別の要求が来た場合、古い要求のストリームは解放され ErrSuperseded を返す
func (c *Controller) StartCamera(ctx context.Context, deviceID string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}

	rec := c.beginStopRecordingLocked()
	c.releaseStreamLocked()
	c.generation++
	generation := c.generation
	c.mu.Unlock()

	if rec != nil {
		rec.Stop()
	}
	c.notifyState()

	constraints := camera.Constraints{
		DeviceID: deviceID,
		Width:    c.opts.IdealWidth,
		Height:   c.opts.IdealHeight,
	}
	if deviceID == "" {
		constraints.FacingMode = c.opts.FacingMode
	}

	stream, err := c.opts.Devices.GetUserMedia(ctx, constraints)

	c.mu.Lock()
	if generation != c.generation || c.closed {
		c.mu.Unlock()
		camera.StopAllTracks(stream)
		c.logger.Info("session: 古いカメラ要求を破棄しました", "device", deviceID, "generation", generation)
		return ErrSuperseded
	}

	if err != nil {
		c.mu.Unlock()
		c.logger.Error("session: カメラの起動に失敗しました", "device", deviceID, "error", err)
		if !errors.Is(err, context.Canceled) {
			c.notifier.Alert(MsgStartFailed)
		}
		return fmt.Errorf("カメラの起動に失敗: %w", err)
	}

	c.stream = stream
	c.controls.Capture = true
	c.controls.Record = c.recording == RecordingIdle
	c.controls.Stop = false

	if deviceID != "" {
		c.selection.Value = deviceID
	} else if tracks := stream.VideoTracks(); len(tracks) > 0 {
		if activeID := tracks[0].Settings().DeviceID; activeID != "" {
			c.selection.Value = activeID
		}
	}
	selected := c.selection.Value
	c.mu.Unlock()

	go c.watchStream(stream)

	c.logger.Info("session: カメラを起動しました", "stream", stream.ID(), "device", selected)
	c.notifyState()
	return nil
}

// StopCamera は動作中のストリームの全トラックを停止する
func (c *Controller) StopCamera() {
	c.mu.Lock()
	rec := c.beginStopRecordingLocked()
	hadStream := c.stream != nil
	c.releaseStreamLocked()
	c.generation++
	c.mu.Unlock()

	if rec != nil {
		rec.Stop()
	}
	if hadStream {
		c.logger.Info("session: カメラを停止しました")
		c.notifyState()
	}
}

// releaseStreamLocked はストリームの全トラックを止めて手放す
func (c *Controller) releaseStreamLocked() {
	camera.StopAllTracks(c.stream)
	c.stream = nil
	c.controls.Capture = false
	c.controls.Record = false
}

// watchStream はストリームが外部要因で終了したことを検知する
func (c *Controller) watchStream(stream camera.Stream) {
	frames, unsubscribe := stream.Subscribe()
	defer unsubscribe()

	for range frames {
	}

	c.mu.Lock()
	if c.stream != stream {
		c.mu.Unlock()
		return
	}
	rec := c.beginStopRecordingLocked()
	c.releaseStreamLocked()
	c.generation++
	c.mu.Unlock()

	if rec != nil {
		rec.Stop()
	}
	c.logger.Warn("session: ストリームが終了しました", "stream", stream.ID())
	c.notifier.Alert(MsgCameraDisconnect)
	c.notifyState()
}

// ActiveStream は動作中のストリームを返す。なければ nil
func (c *Controller) ActiveStream() camera.Stream {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stream
}

// TakePhoto は最新フレームをPNGにしてギャラリーの先頭に追加する
// ストリームがない場合は何もせず nil を返す
func (c *Controller) TakePhoto() (*gallery.Item, error) {
	stream := c.ActiveStream()
	if stream == nil {
		return nil, nil
	}

	frame, ok := stream.LatestFrame()
	if !ok {
		return nil, ErrNoFrame
	}

	c.canvasMu.Lock()
	err := c.canvas.DrawFrame(frame)
	var blob media.Blob
	if err == nil {
		blob, err = c.canvas.ToBlob("image/png")
	}
	c.canvasMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("写真の作成に失敗: %w", err)
	}

	item, err := c.addToGallery(blob, gallery.KindImage)
	if err != nil {
		return nil, err
	}

	c.logger.Info("session: 写真を撮影しました", "item", item.ID, "size", item.Size)
	c.notifyState()
	return &item, nil
}

// StartRecording は動作中のストリームの録画を開始する
// ストリームがない場合と録画中の場合は何もしない
// レコーダーを作成できない場合はログに残すだけで利用者には通知しない
func (c *Controller) StartRecording() error {
	c.mu.Lock()
	if c.stream == nil || c.recording != RecordingIdle {
		c.mu.Unlock()
		return nil
	}

	c.chunks = nil
	c.recorderID++
	id := c.recorderID

	rec, err := c.opts.NewRecorder(c.stream, media.RecorderOptions{
		MIMEType: c.opts.RecordingMIME,
		Handlers: media.RecorderHandlers{
			OnDataAvailable: func(chunk media.Blob) { c.handleDataAvailable(id, chunk) },
			OnStop:          func() { c.handleRecorderStop(id) },
			OnError:         func(err error) { c.handleRecorderError(id, err) },
		},
	})
	if err == nil {
		err = rec.Start(c.opts.Timeslice)
	}
	if err != nil {
		c.mu.Unlock()
		c.logger.Error("session: レコーダーの作成に失敗しました", "mime", c.opts.RecordingMIME, "error", err)
		return fmt.Errorf("録画を開始できません: %w", err)
	}

	c.recorder = rec
	c.recording = RecordingActive
	c.controls.Record = false
	c.controls.Stop = true
	c.mu.Unlock()

	c.logger.Info("session: 録画を開始しました", "recorder", id)
	c.notifyState()
	return nil
}

// StopRecording は録画の停止を要求する。録画中でなければ何もしない
// 動画はレコーダーの停止完了時に確定する
func (c *Controller) StopRecording() {
	c.mu.Lock()
	rec := c.beginStopRecordingLocked()
	c.mu.Unlock()

	if rec == nil {
		return
	}
	rec.Stop()
	c.notifyState()
}

// beginStopRecordingLocked は録画中なら確定待ちに移り、停止すべきレコーダーを返す
func (c *Controller) beginStopRecordingLocked() media.Recorder {
	if c.recording != RecordingActive {
		return nil
	}
	c.recording = RecordingFinalizing
	c.controls.Record = false
	c.controls.Stop = false
	return c.recorder
}

func (c *Controller) handleDataAvailable(id uint64, chunk media.Blob) {
	if chunk.Size() == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if id != c.recorderID || c.recording == RecordingIdle {
		return
	}
	c.chunks = append(c.chunks, chunk)
}

// handleRecorderStop はチャンクを連結して動画を確定する
func (c *Controller) handleRecorderStop(id uint64) {
	c.mu.Lock()
	if id != c.recorderID || c.recording == RecordingIdle {
		c.mu.Unlock()
		return
	}
	chunks := c.chunks
	c.chunks = nil
	c.recorder = nil
	c.recording = RecordingIdle
	c.controls.Record = c.stream != nil
	c.controls.Stop = false
	c.mu.Unlock()

	blob := media.NewBlob(chunks, VideoMIMEType)
	if blob.Size() == 0 {
		c.logger.Warn("session: 録画データが空のため破棄しました", "recorder", id)
		c.notifyState()
		return
	}

	item, err := c.addToGallery(blob, gallery.KindVideo)
	if err != nil {
		c.logger.Error("session: 動画の追加に失敗しました", "error", err)
		c.notifyState()
		return
	}

	c.logger.Info("session: 動画を保存しました", "item", item.ID, "size", item.Size, "chunks", len(chunks))
	c.notifyState()
}

func (c *Controller) handleRecorderError(id uint64, err error) {
	c.logger.Error("session: 録画中にエラーが発生しました", "recorder", id, "error", err)
}

func (c *Controller) addToGallery(blob media.Blob, kind gallery.Kind) (gallery.Item, error) {
	url := c.opts.Store.CreateObjectURL(blob)
	item, err := c.opts.Gallery.Add(url, kind)
	if err != nil {
		c.opts.Store.RevokeObjectURL(url)
		return gallery.Item{}, fmt.Errorf("ギャラリーへの追加に失敗: %w", err)
	}
	return item, nil
}

// RemoveItem はギャラリーから項目を削除し、参照を解放する
func (c *Controller) RemoveItem(id string) error {
	if err := c.opts.Gallery.Remove(id); err != nil {
		return err
	}
	c.logger.Info("session: 項目を削除しました", "item", id)
	c.notifyState()
	return nil
}

// Gallery はセッションのギャラリーを返す
func (c *Controller) Gallery() *gallery.Gallery {
	return c.opts.Gallery
}

// Snapshot は現在の状態を返す
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	snapshot := Snapshot{
		Selection: Selection{
			Options: append([]Option(nil), c.selection.Options...),
			Value:   c.selection.Value,
		},
		Controls:  c.controls,
		Recording: c.recording,
	}
	if c.stream != nil {
		info := &StreamInfo{ID: c.stream.ID()}
		if tracks := c.stream.VideoTracks(); len(tracks) > 0 {
			settings := tracks[0].Settings()
			info.DeviceID = settings.DeviceID
			info.Label = tracks[0].Label()
			info.Width = settings.Width
			info.Height = settings.Height
		}
		snapshot.Stream = info
	}
	c.mu.Unlock()

	snapshot.Items = c.opts.Gallery.Items()
	return snapshot
}

// notifyState は最新の状態を通知する。通知は呼び出し順に直列化される
func (c *Controller) notifyState() {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	c.notifier.StateChanged(c.Snapshot())
}

// Close はストリームの全トラックを停止し、以降の要求を拒否する
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.releaseStreamLocked()
	c.generation++
	c.mu.Unlock()

	c.logger.Info("session: セッションを終了しました")
}
