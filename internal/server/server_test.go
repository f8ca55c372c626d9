package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"snapbooth/internal/api"
	"snapbooth/internal/camera"
	"snapbooth/internal/config"
	"snapbooth/internal/gallery"
	"snapbooth/internal/media"
	"snapbooth/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	server    *Server
	http      *httptest.Server
	devices   *camera.MockMediaDevices
	recorders *media.MockRecorderFactory
	hub       *Hub
	session   *session.Controller
}

// newTestServer はモックのカメラとレコーダーでサーバーを作成する
func newTestServer(t *testing.T, devices ...camera.Device) *testServer {
	t.Helper()

	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0

	ts := &testServer{
		devices:   camera.NewMockMediaDevices(devices...),
		recorders: media.NewMockRecorderFactory(),
		hub:       NewHub(nil),
	}
	store := gallery.NewObjectStore()
	ts.session = session.NewController(session.Options{
		Devices:     ts.devices,
		NewRecorder: ts.recorders.New,
		Store:       store,
		Gallery:     gallery.New(store),
		Notifier:    ts.hub,
	})

	srv, err := New(cfg, ts.session, ts.hub, nil)
	if err != nil {
		t.Fatalf("サーバーの作成に失敗しました: %v", err)
	}
	ts.server = srv
	ts.http = httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.hub.Close()
		ts.session.Close()
		ts.http.Close()
	})

	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, ts.http.URL+path, reader)
	if err != nil {
		t.Fatalf("リクエストの作成に失敗しました: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("HTTPリクエストでエラーが発生しました: %v", err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("レスポンスの解析に失敗しました: %v", err)
	}
	return v
}

func videoDevice(id, label string) camera.Device {
	return camera.Device{ID: id, Label: label, Kind: camera.KindVideoInput}
}

func testFrame(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	for y := 0; y < 24; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), G: 100, B: uint8(y * 10), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("JPEGの作成に失敗しました: %v", err)
	}
	return buf.Bytes()
}

func (ts *testServer) lastStream(t *testing.T) *camera.MockStream {
	t.Helper()
	streams := ts.devices.Streams()
	if len(streams) == 0 {
		t.Fatal("ストリームが取得されていません")
	}
	return streams[len(streams)-1]
}

// TestServerStartAndShutdown はサーバーの起動とシャットダウンをテストする
func TestServerStartAndShutdown(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0 // ランダムポートを使用

	devices := camera.NewMockMediaDevices(videoDevice("a", "Front"))
	store := gallery.NewObjectStore()
	hub := NewHub(nil)
	controller := session.NewController(session.Options{
		Devices:     devices,
		NewRecorder: media.NewMockRecorderFactory().New,
		Store:       store,
		Gallery:     gallery.New(store),
		Notifier:    hub,
	})

	srv, err := New(cfg, controller, hub, nil)
	if err != nil {
		t.Fatalf("サーバーの作成に失敗しました: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	// 起動時に先頭のカメラが開かれる
	select {
	case <-devices.Requested():
	case <-time.After(2 * time.Second):
		t.Fatal("カメラの自動起動が行われませんでした")
	}

	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("サーバーの起動/停止でエラーが発生しました: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("サーバーの停止がタイムアウトしました")
	}

	// シャットダウン後はトラックが停止している
	deadline := time.Now().Add(2 * time.Second)
	for {
		active := 0
		for _, s := range devices.Streams() {
			if s.Active() {
				active++
			}
		}
		if active == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("シャットダウン後も %d 本のストリームが動作しています", active)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// TestServerEndpoints は各エンドポイントのステータスをテストする
func TestServerEndpoints(t *testing.T) {
	ts := newTestServer(t, videoDevice("a", "Front"))

	testCases := []struct {
		name           string
		method         string
		endpoint       string
		expectedStatus int
	}{
		{"ルートエンドポイント", http.MethodGet, "/", http.StatusOK},
		{"スクリプト", http.MethodGet, "/assets/app.js", http.StatusOK},
		{"スタイル", http.MethodGet, "/assets/style.css", http.StatusOK},
		{"ヘルスチェックエンドポイント", http.MethodGet, "/health", http.StatusOK},
		{"ステータスエンドポイント", http.MethodGet, "/api/status", http.StatusOK},
		{"カメラ一覧", http.MethodGet, "/api/cameras", http.StatusOK},
		{"セッション状態", http.MethodGet, "/api/session", http.StatusOK},
		{"ギャラリー", http.MethodGet, "/api/gallery", http.StatusOK},
		{"カメラ未起動のプレビュー", http.MethodGet, "/api/session/preview", http.StatusServiceUnavailable},
		{"カメラ未起動の撮影", http.MethodPost, "/api/photos", http.StatusNoContent},
		{"不正な項目ID", http.MethodGet, "/api/gallery/not-a-uuid", http.StatusBadRequest},
		{"存在しない項目", http.MethodGet, "/api/gallery/" + uuid.NewString(), http.StatusNotFound},
		{"存在しない項目の削除", http.MethodDelete, "/api/gallery/" + uuid.NewString(), http.StatusNotFound},
		{"不正なクエリ", http.MethodGet, "/api/gallery/" + uuid.NewString() + "?download=maybe", http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp := ts.do(t, tc.method, tc.endpoint, "")
			defer resp.Body.Close()

			if resp.StatusCode != tc.expectedStatus {
				t.Errorf("予期しないステータスコード: got %d, want %d",
					resp.StatusCode, tc.expectedStatus)
			}
		})
	}
}

func TestGetCameras(t *testing.T) {
	ts := newTestServer(t,
		camera.Device{ID: "a", Label: "Front", Kind: camera.KindVideoInput, Facing: camera.FacingUser},
		camera.Device{ID: "m", Label: "Mic", Kind: camera.KindAudioInput},
		videoDevice("b", ""),
	)

	got := decode[api.CamerasResponse](t, ts.do(t, http.MethodGet, "/api/cameras", ""))
	if len(got.Cameras) != 2 {
		t.Fatalf("映像入力のみが返るはず: %+v", got.Cameras)
	}
	if got.Cameras[0].Facing == nil || *got.Cameras[0].Facing != "user" {
		t.Errorf("向きが返されていません: %+v", got.Cameras[0])
	}
	if got.Cameras[1].Facing != nil {
		t.Errorf("不明な向きは省略されるはず: %+v", got.Cameras[1])
	}

	// 列挙結果は選択肢に反映される
	state := decode[api.SessionState](t, ts.do(t, http.MethodGet, "/api/session", ""))
	labels := make([]string, 0, len(state.Selection.Options))
	for _, opt := range state.Selection.Options {
		labels = append(labels, opt.Label)
	}
	want := []string{session.PlaceholderLabel, "Front", "カメラ 2"}
	if strings.Join(labels, ",") != strings.Join(want, ",") {
		t.Errorf("選択肢が一致しません: got %v, want %v", labels, want)
	}
}

func TestStartSession(t *testing.T) {
	t.Run("指定したカメラで起動する", func(t *testing.T) {
		ts := newTestServer(t, videoDevice("a", "Front"), videoDevice("b", "Rear"))

		resp := ts.do(t, http.MethodPost, "/api/session", `{"device_id":"b"}`)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("予期しないステータスコード: %d", resp.StatusCode)
		}
		state := decode[api.SessionState](t, resp)

		if state.Stream == nil || state.Stream.DeviceId != "b" {
			t.Fatalf("ストリームが起動していません: %+v", state.Stream)
		}
		if !state.Controls.Capture || !state.Controls.Record || state.Controls.Stop {
			t.Errorf("予期しないコントロール状態: %+v", state.Controls)
		}
		if state.Selection.Value != "b" {
			t.Errorf("選択値が一致しません: %q", state.Selection.Value)
		}
	})

	t.Run("本文なしは既定の向きで起動する", func(t *testing.T) {
		ts := newTestServer(t, videoDevice("a", "Front"))

		resp := ts.do(t, http.MethodPost, "/api/session", "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("予期しないステータスコード: %d", resp.StatusCode)
		}
		resp.Body.Close()

		requests := ts.devices.Requests()
		if len(requests) != 1 || requests[0].FacingMode != camera.FacingEnvironment {
			t.Errorf("予期しない制約: %+v", requests)
		}
	})

	t.Run("停止するとコントロールが無効になる", func(t *testing.T) {
		ts := newTestServer(t, videoDevice("a", "Front"))
		ts.do(t, http.MethodPost, "/api/session", `{"device_id":"a"}`).Body.Close()

		state := decode[api.SessionState](t, ts.do(t, http.MethodDelete, "/api/session", ""))
		if state.Stream != nil || state.Controls.Capture || state.Controls.Record {
			t.Errorf("停止後の状態が不正です: %+v", state)
		}
		if ts.lastStream(t).Active() {
			t.Error("トラックが停止していません")
		}
	})

	errorCases := []struct {
		name       string
		body       string
		setup      func(ts *testServer)
		wantStatus int
		wantCode   string
	}{
		{"存在しないID", `{"device_id":"zzz"}`, nil, http.StatusUnprocessableEntity, "overconstrained"},
		{"権限なし", `{"device_id":"a"}`, func(ts *testServer) {
			ts.devices.SetGetUserMediaError(camera.ErrNotAllowed)
		}, http.StatusForbidden, "not_allowed"},
		{"読み取り不可", `{"device_id":"a"}`, func(ts *testServer) {
			ts.devices.SetGetUserMediaError(camera.ErrNotReadable)
		}, http.StatusServiceUnavailable, "camera_not_readable"},
		{"型が不正", `{"device_id":42}`, nil, http.StatusBadRequest, "invalid_request"},
		{"長すぎるID", fmt.Sprintf(`{"device_id":%q}`, strings.Repeat("x", 200)), nil, http.StatusBadRequest, "invalid_request"},
	}

	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTestServer(t, videoDevice("a", "Front"))
			if tc.setup != nil {
				tc.setup(ts)
			}

			resp := ts.do(t, http.MethodPost, "/api/session", tc.body)
			if resp.StatusCode != tc.wantStatus {
				t.Errorf("予期しないステータスコード: got %d, want %d", resp.StatusCode, tc.wantStatus)
			}
			got := decode[api.ErrorResponse](t, resp)
			if got.Error != tc.wantCode {
				t.Errorf("予期しないエラーコード: got %q, want %q", got.Error, tc.wantCode)
			}
		})
	}

	t.Run("起動失敗はアラートとして配信される", func(t *testing.T) {
		ts := newTestServer(t, videoDevice("a", "Front"))
		events, unsubscribe := ts.hub.Subscribe()
		defer unsubscribe()

		ts.devices.SetGetUserMediaError(camera.ErrNotAllowed)
		ts.do(t, http.MethodPost, "/api/session", `{"device_id":"a"}`).Body.Close()

		if !waitEvent(events, eventAlert, session.MsgStartFailed) {
			t.Error("起動失敗のアラートが届きませんでした")
		}
	})
}

// waitEvent は指定したイベントが届くまで待つ
func waitEvent(events <-chan Event, name string, data any) bool {
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return false
			}
			if ev.Name == name && (data == nil || ev.Data == data) {
				return true
			}
		case <-timeout:
			return false
		}
	}
}

func TestPhotoFlow(t *testing.T) {
	ts := newTestServer(t, videoDevice("a", "Front"))
	ts.do(t, http.MethodPost, "/api/session", `{"device_id":"a"}`).Body.Close()

	// フレーム到着前は撮影できない
	resp := ts.do(t, http.MethodPost, "/api/photos", "")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("予期しないステータスコード: got %d, want %d", resp.StatusCode, http.StatusServiceUnavailable)
	}
	resp.Body.Close()

	ts.lastStream(t).PushFrame(testFrame(t))

	resp = ts.do(t, http.MethodPost, "/api/photos", "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("予期しないステータスコード: %d", resp.StatusCode)
	}
	item := decode[api.GalleryItem](t, resp)

	if item.Kind != api.Image || item.MimeType != "image/png" {
		t.Errorf("予期しない項目: %+v", item)
	}
	if !strings.HasPrefix(item.ObjectUrl, "blob:") {
		t.Errorf("参照URLの形式が不正です: %q", item.ObjectUrl)
	}
	wantName := fmt.Sprintf("photo-%s.png", item.CreatedAt.UTC().Format(time.DateOnly))
	if item.DownloadName != wantName {
		t.Errorf("ダウンロード名が一致しません: got %q, want %q", item.DownloadName, wantName)
	}

	t.Run("成果物の取得", func(t *testing.T) {
		resp := ts.do(t, http.MethodGet, item.Url, "")
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("予期しないステータスコード: %d", resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
			t.Errorf("予期しないContent-Type: %q", ct)
		}
		if cd := resp.Header.Get("Content-Disposition"); cd != "" {
			t.Errorf("表示用の取得に添付指定は不要: %q", cd)
		}
		data, _ := io.ReadAll(resp.Body)
		if len(data) != item.Size {
			t.Errorf("サイズが一致しません: got %d, want %d", len(data), item.Size)
		}
	})

	t.Run("ダウンロード", func(t *testing.T) {
		resp := ts.do(t, http.MethodGet, item.Url+"?download=true", "")
		defer resp.Body.Close()

		cd := resp.Header.Get("Content-Disposition")
		if !strings.HasPrefix(cd, "attachment") || !strings.Contains(cd, wantName) {
			t.Errorf("予期しないContent-Disposition: %q", cd)
		}
	})

	t.Run("一覧は新しい順", func(t *testing.T) {
		resp := ts.do(t, http.MethodPost, "/api/photos", "")
		second := decode[api.GalleryItem](t, resp)

		got := decode[api.GalleryResponse](t, ts.do(t, http.MethodGet, "/api/gallery", ""))
		if len(got.Items) != 2 || got.Items[0].Id != second.Id || got.Items[1].Id != item.Id {
			t.Errorf("並び順が不正です: %+v", got.Items)
		}
	})

	t.Run("削除", func(t *testing.T) {
		resp := ts.do(t, http.MethodDelete, item.Url, "")
		resp.Body.Close()
		if resp.StatusCode != http.StatusNoContent {
			t.Fatalf("予期しないステータスコード: %d", resp.StatusCode)
		}

		resp = ts.do(t, http.MethodGet, item.Url, "")
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("削除後も取得できます: %d", resp.StatusCode)
		}

		resp = ts.do(t, http.MethodDelete, item.Url, "")
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("二度目の削除は404のはず: %d", resp.StatusCode)
		}
	})
}

func TestRecordingFlow(t *testing.T) {
	t.Run("停止完了後に動画が追加される", func(t *testing.T) {
		ts := newTestServer(t, videoDevice("a", "Front"))
		ts.do(t, http.MethodPost, "/api/session", `{"device_id":"a"}`).Body.Close()

		state := decode[api.SessionState](t, ts.do(t, http.MethodPost, "/api/recording", ""))
		if state.Recording != api.Recording || state.Controls.Record || !state.Controls.Stop {
			t.Fatalf("録画が開始されていません: %+v", state)
		}

		rec := ts.recorders.Last()
		rec.EmitSize(5000, 0x1a)
		rec.EmitSize(3000, 0x45)

		state = decode[api.SessionState](t, ts.do(t, http.MethodDelete, "/api/recording", ""))
		if state.Recording != api.Finalizing || len(state.Items) != 0 {
			t.Fatalf("停止完了前に確定しています: %+v", state)
		}

		rec.Ack()

		state = decode[api.SessionState](t, ts.do(t, http.MethodGet, "/api/session", ""))
		if state.Recording != api.Idle || !state.Controls.Record {
			t.Errorf("録画状態が戻っていません: %+v", state)
		}
		if len(state.Items) != 1 || state.Items[0].Kind != api.Video || state.Items[0].Size != 8000 {
			t.Fatalf("動画が追加されていません: %+v", state.Items)
		}

		resp := ts.do(t, http.MethodGet, state.Items[0].Url+"?download=true", "")
		defer resp.Body.Close()
		if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "video/webm") {
			t.Errorf("予期しないContent-Type: %q", ct)
		}
		if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, ".webm") {
			t.Errorf("予期しないContent-Disposition: %q", cd)
		}
	})

	t.Run("レコーダーを作成できない場合は状態を変えない", func(t *testing.T) {
		ts := newTestServer(t, videoDevice("a", "Front"))
		ts.do(t, http.MethodPost, "/api/session", `{"device_id":"a"}`).Body.Close()
		ts.recorders.SetError(media.ErrNotSupported)

		resp := ts.do(t, http.MethodPost, "/api/recording", "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("予期しないステータスコード: %d", resp.StatusCode)
		}
		state := decode[api.SessionState](t, resp)
		if state.Recording != api.Idle || !state.Controls.Record {
			t.Errorf("予期しない状態: %+v", state)
		}
	})

	t.Run("録画していない停止は何もしない", func(t *testing.T) {
		ts := newTestServer(t, videoDevice("a", "Front"))

		state := decode[api.SessionState](t, ts.do(t, http.MethodDelete, "/api/recording", ""))
		if state.Recording != api.Idle || len(ts.recorders.Recorders()) != 0 {
			t.Errorf("予期しない状態: %+v", state)
		}
	})
}

func TestPreview(t *testing.T) {
	ts := newTestServer(t, videoDevice("a", "Front"))
	ts.do(t, http.MethodPost, "/api/session", `{"device_id":"a"}`).Body.Close()

	frame := testFrame(t)
	ts.lastStream(t).PushFrame(frame)

	resp := ts.do(t, http.MethodGet, "/api/session/preview?stream=x", "")
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "multipart/x-mixed-replace; boundary=frame" {
		t.Fatalf("予期しないContent-Type: %q", ct)
	}

	// 直近のフレームが最初に届く
	want := append([]byte("--frame\r\nContent-Type: image/jpeg\r\n\r\n"), frame...)
	got := make([]byte, len(want))
	if _, err := io.ReadFull(resp.Body, got); err != nil {
		t.Fatalf("フレームの読み込みに失敗しました: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Error("最初のパートが一致しません")
	}

	// カメラを停止すると応答が終わる
	ts.do(t, http.MethodDelete, "/api/session", "").Body.Close()

	done := make(chan error, 1)
	go func() {
		_, err := io.ReadAll(resp.Body)
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("応答の終了でエラー: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ストリーム停止後もプレビューが終わりません")
	}
}

func TestEventsEndpoint(t *testing.T) {
	ts := newTestServer(t, videoDevice("a", "Front"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.http.URL+"/api/events", nil)
	if err != nil {
		t.Fatalf("リクエストの作成に失敗しました: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("HTTPリクエストでエラーが発生しました: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("予期しないContent-Type: %q", ct)
	}

	lines := make(chan string, 64)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	// 接続直後は現在の状態
	name, data := readSSE(t, lines)
	if name != eventState {
		t.Fatalf("最初のイベントは state のはず: %q", name)
	}
	var state api.SessionState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		t.Fatalf("状態の解析に失敗しました: %v", err)
	}
	if state.Recording != api.Idle {
		t.Errorf("予期しない状態: %+v", state)
	}

	waitClients(t, ts.hub, 1)
	ts.hub.Alert("テスト通知")

	name, data = readSSE(t, lines)
	if name != eventAlert || data != "テスト通知" {
		t.Errorf("予期しないイベント: %q %q", name, data)
	}

	// 状態変化も配信される
	ts.do(t, http.MethodPost, "/api/session", `{"device_id":"a"}`).Body.Close()
	name, _ = readSSE(t, lines)
	if name != eventState {
		t.Errorf("予期しないイベント: %q", name)
	}
}

// readSSE は1件のイベントを読み取る
func readSSE(t *testing.T, lines <-chan string) (name, data string) {
	t.Helper()

	timeout := time.After(2 * time.Second)
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				t.Fatal("イベントストリームが終了しました")
			}
			switch {
			case strings.HasPrefix(line, "event:"):
				name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:"):
				data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			case line == "" && name != "":
				return name, data
			}
		case <-timeout:
			t.Fatal("イベントが届きませんでした")
		}
	}
}

func waitClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() < n {
		if time.Now().After(deadline) {
			t.Fatal("クライアントが接続されませんでした")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
