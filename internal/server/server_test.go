package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"multicam/internal/camera"
	"multicam/internal/config"
	"multicam/internal/generated"
	"multicam/internal/protocol"
	"multicam/internal/settings"
	"multicam/internal/store"
	"multicam/internal/transport"
)

type stubStats struct {
	stats transport.Stats
}

func (s stubStats) Stats() transport.Stats { return s.stats }

func newTestServer(t *testing.T) (*Server, *camera.DefaultCameraManager, *camera.MockTransport) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0

	tr := camera.NewMockTransport()
	m := camera.NewDefaultCameraManager(cfg, tr, store.NewMockRepository())
	srv, err := New(cfg, m, stubStats{stats: transport.Stats{Sent: 3, Queued: 1}})
	if err != nil {
		t.Fatalf("サーバーの作成に失敗しました: %v", err)
	}
	return srv, m, tr
}

func doRequest(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("レスポンスのデコードに失敗しました: %v (%s)", err, w.Body.String())
	}
	return v
}

// TestServerStartAndShutdown はサーバーの起動とシャットダウンをテストする
func TestServerStartAndShutdown(t *testing.T) {
	srv, _, _ := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	// サーバーが起動するまで少し待つ
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("サーバーの起動/停止でエラーが発生しました: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("サーバーの停止がタイムアウトしました")
	}
}

// TestServerEndpoints はサーバーのエンドポイントをテストする
func TestServerEndpoints(t *testing.T) {
	srv, _, _ := newTestServer(t)

	testCases := []struct {
		name           string
		endpoint       string
		expectedStatus int
	}{
		{"ルートエンドポイント", "/", http.StatusOK},
		{"ヘルスチェックエンドポイント", "/health", http.StatusOK},
		{"ステータスエンドポイント", "/api/status", http.StatusOK},
		{"カメラ一覧", "/api/cameras", http.StatusOK},
		{"カメラ1台", "/api/cameras/rep1", http.StatusOK},
		{"存在しないカメラ", "/api/cameras/rep9", http.StatusNotFound},
		{"設定", "/api/cameras/rep8/settings", http.StatusOK},
		{"デバイススケールの設定", "/api/cameras/rep8/settings/device", http.StatusOK},
		{"存在しないカメラの設定", "/api/cameras/rep9/settings", http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(t, srv, http.MethodGet, tc.endpoint, "")
			if w.Code != tc.expectedStatus {
				t.Errorf("予期しないステータスコード: got %d, want %d", w.Code, tc.expectedStatus)
			}
		})
	}
}

func TestGetStatus(t *testing.T) {
	srv, m, _ := newTestServer(t)
	if err := m.Focus("rep3"); err != nil {
		t.Fatal(err)
	}

	status := decode[generated.StatusResponse](t, doRequest(t, srv, http.MethodGet, "/api/status", ""))
	if status.Status != generated.StatusResponseStatusRunning {
		t.Errorf("status = %q, want running", status.Status)
	}
	if status.Cameras != 8 || status.Online != 8 {
		t.Errorf("cameras = %d, online = %d, want 8/8", status.Cameras, status.Online)
	}
	if status.Focused == nil || *status.Focused != "rep3" {
		t.Errorf("focused = %v, want rep3", status.Focused)
	}
	if status.Transport.Sent != 3 || status.Transport.Queued != 1 {
		t.Errorf("unexpected transport stats: %+v", status.Transport)
	}
}

func TestGetDeviceSettings(t *testing.T) {
	srv, m, _ := newTestServer(t)
	if _, err := m.UpdateSettings(context.Background(), "rep1", settings.Update{Brightness: intPtr(50)}); err != nil {
		t.Fatal(err)
	}

	device := decode[settings.DeviceSettings](t, doRequest(t, srv, http.MethodGet, "/api/cameras/rep1/settings/device", ""))
	if device.Brightness != 0.5 || device.Contrast != 1.0 || device.AnalogueGain != 4.0 {
		t.Errorf("unexpected device settings: %+v", device)
	}
}

func TestUpdateSettings(t *testing.T) {
	srv, _, tr := newTestServer(t)

	testCases := []struct {
		name           string
		path           string
		body           string
		expectedStatus int
		expectedField  string
	}{
		{"正常", "/api/cameras/rep1/settings", `{"iso": 800, "white_balance": "daylight"}`, http.StatusOK, ""},
		{"ISOが範囲外", "/api/cameras/rep1/settings", `{"iso": 7000}`, http.StatusBadRequest, settings.FieldISO},
		{"不正な回転角", "/api/cameras/rep1/settings", `{"rotation_degrees": 45}`, http.StatusBadRequest, settings.FieldRotation},
		{"変更なし", "/api/cameras/rep1/settings", `{}`, http.StatusBadRequest, ""},
		{"壊れたJSON", "/api/cameras/rep1/settings", `{"iso":`, http.StatusBadRequest, ""},
		{"存在しないカメラ", "/api/cameras/rep9/settings", `{"iso": 800}`, http.StatusNotFound, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(t, srv, http.MethodPatch, tc.path, tc.body)
			if w.Code != tc.expectedStatus {
				t.Fatalf("予期しないステータスコード: got %d, want %d (%s)", w.Code, tc.expectedStatus, w.Body.String())
			}
			if tc.expectedField != "" {
				if e := decode[generated.ErrorResponse](t, w); e.Field == nil || *e.Field != tc.expectedField {
					t.Errorf("field = %v, want %q", e.Field, tc.expectedField)
				}
			}
		})
	}

	cmd, ok := tr.Last()
	if !ok {
		t.Fatal("設定が送信されていません")
	}
	sent, isSet := cmd.Command.(protocol.SetAllSettings)
	if !isSet || sent.Settings.ISO != 800 || sent.Settings.WhiteBalance != settings.WhiteBalanceDaylight || cmd.CameraID != "rep1" {
		t.Errorf("unexpected command: %+v", cmd)
	}
	if len(tr.Commands()) != 1 {
		t.Errorf("Expected exactly 1 command, got %d", len(tr.Commands()))
	}
}

func TestSetCrop(t *testing.T) {
	srv, _, _ := newTestServer(t)

	w := doRequest(t, srv, http.MethodPost, "/api/cameras/rep1/crop", `{"x":100,"y":100,"width":200,"height":150}`)
	if w.Code != http.StatusOK {
		t.Fatalf("予期しないステータスコード: got %d (%s)", w.Code, w.Body.String())
	}
	result := decode[generated.CropResult](t, w)
	want := generated.Rect{X: 634, Y: 633, Width: 1268, Height: 950}
	if result.Sensor != want {
		t.Errorf("Sensor = %v, want %v", result.Sensor, want)
	}

	w = doRequest(t, srv, http.MethodPost, "/api/cameras/rep1/crop", `{"x":10,"y":10,"width":0,"height":10}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("面積0のクロップ: got %d, want 400", w.Code)
	}
	if e := decode[generated.ErrorResponse](t, w); e.Error != "invalid_crop" {
		t.Errorf("error = %q, want invalid_crop", e.Error)
	}
}

// TestRequestValidation はOpenAPI定義に合わないリクエストが
// ハンドラーに届く前に400になることをテストする
func TestRequestValidation(t *testing.T) {
	srv, _, tr := newTestServer(t)

	testCases := []struct {
		name          string
		method        string
		path          string
		body          string
		expectedCode  string
		expectedField string
	}{
		{"型の不一致", http.MethodPatch, "/api/cameras/rep1/settings", `{"iso": "high"}`, "invalid_request", "iso"},
		{"未知の項目", http.MethodPatch, "/api/cameras/rep1/settings", `{"hdr": true}`, "invalid_request", ""},
		{"ボディなし", http.MethodPatch, "/api/cameras/rep1/settings", "", "invalid_request", ""},
		{"空の表示名", http.MethodPut, "/api/cameras/rep1/name", `{"name": ""}`, "invalid_request", "name"},
		{"クロップの項目欠落", http.MethodPost, "/api/cameras/rep1/crop", `{"x": 1, "y": 1}`, "invalid_request", ""},
		{"範囲外の値はドメインで検証", http.MethodPatch, "/api/cameras/rep1/settings", `{"iso": 7000}`, "validation_error", settings.FieldISO},
		{"未知のホワイトバランスもドメインで検証", http.MethodPatch, "/api/cameras/rep1/settings", `{"white_balance": "sunset"}`, "validation_error", settings.FieldWhiteBalance},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(t, srv, tc.method, tc.path, tc.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("予期しないステータスコード: got %d, want 400 (%s)", w.Code, w.Body.String())
			}
			e := decode[generated.ErrorResponse](t, w)
			if e.Error != tc.expectedCode {
				t.Errorf("error = %q, want %q", e.Error, tc.expectedCode)
			}
			if tc.expectedField != "" && (e.Field == nil || *e.Field != tc.expectedField) {
				t.Errorf("field = %v, want %q", e.Field, tc.expectedField)
			}
		})
	}

	if n := len(tr.Commands()); n != 0 {
		t.Errorf("拒否されたリクエストでコマンドが送信されました: %d", n)
	}
}

func TestUpdateSettings_MixedCaseEnum(t *testing.T) {
	srv, _, _ := newTestServer(t)

	w := doRequest(t, srv, http.MethodPatch, "/api/cameras/rep2/settings", `{"white_balance": "Daylight", "clear_crop": true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("予期しないステータスコード: got %d (%s)", w.Code, w.Body.String())
	}
	if s := decode[generated.CameraSettings](t, w); s.WhiteBalance != string(settings.WhiteBalanceDaylight) || s.Crop != nil {
		t.Errorf("unexpected settings: %+v", s)
	}
}

func TestRunCommand(t *testing.T) {
	srv, _, _ := newTestServer(t)

	steps := []struct {
		name           string
		path           string
		expectedStatus int
		expectedState  camera.State
	}{
		{"ストリーム開始", "/api/cameras/rep2/commands/start_stream", http.StatusAccepted, camera.StateStreaming},
		{"撮影", "/api/cameras/rep2/commands/capture", http.StatusAccepted, camera.StateCapturing},
		{"撮影中の撮影", "/api/cameras/rep2/commands/capture", http.StatusConflict, ""},
		{"不明なアクション", "/api/cameras/rep2/commands/explode", http.StatusBadRequest, ""},
		{"存在しないカメラ", "/api/cameras/rep9/commands/start_stream", http.StatusNotFound, ""},
		{"電源断", "/api/cameras/rep3/commands/shutdown", http.StatusAccepted, camera.StateOffline},
		{"オフラインのカメラ", "/api/cameras/rep3/commands/start_stream", http.StatusServiceUnavailable, ""},
		{"初期化", "/api/cameras/rep4/commands/factory_reset", http.StatusAccepted, camera.StateIdle},
	}

	for _, step := range steps {
		t.Run(step.name, func(t *testing.T) {
			w := doRequest(t, srv, http.MethodPost, step.path, "")
			if w.Code != step.expectedStatus {
				t.Fatalf("予期しないステータスコード: got %d, want %d (%s)", w.Code, step.expectedStatus, w.Body.String())
			}
			if step.expectedState != "" {
				if cam := decode[camera.Camera](t, w); cam.State != step.expectedState {
					t.Errorf("state = %s, want %s", cam.State, step.expectedState)
				}
			}
		})
	}
}

func TestCaptureAll(t *testing.T) {
	srv, m, _ := newTestServer(t)
	if err := m.Capture(context.Background(), "rep5"); err != nil {
		t.Fatal(err)
	}

	w := doRequest(t, srv, http.MethodPost, "/api/capture", "")
	if w.Code != http.StatusAccepted {
		t.Fatalf("予期しないステータスコード: got %d", w.Code)
	}
	resp := decode[generated.CaptureAllResponse](t, w)
	if len(resp.Results) != 8 {
		t.Fatalf("Expected 8 results, got %d", len(resp.Results))
	}
	for id, r := range resp.Results {
		if id == "rep5" {
			if r.Ok || r.Error == nil {
				t.Errorf("rep5 should report capture in progress: %+v", r)
			}
			continue
		}
		if !r.Ok {
			t.Errorf("%s: unexpected failure %v", id, *r.Error)
		}
	}
}

func TestRenameAndFocus(t *testing.T) {
	srv, m, _ := newTestServer(t)

	w := doRequest(t, srv, http.MethodPut, "/api/cameras/rep6/name", `{"name":"正面玄関"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("予期しないステータスコード: got %d (%s)", w.Code, w.Body.String())
	}
	if cam := decode[camera.Camera](t, w); cam.Name != "正面玄関" {
		t.Errorf("name = %q, want 正面玄関", cam.Name)
	}
	if w := doRequest(t, srv, http.MethodPut, "/api/cameras/rep6/name", `{}`); w.Code != http.StatusBadRequest {
		t.Errorf("名前なし: got %d, want 400", w.Code)
	}

	w = doRequest(t, srv, http.MethodPost, "/api/cameras/rep6/focus", "")
	if w.Code != http.StatusOK {
		t.Fatalf("予期しないステータスコード: got %d", w.Code)
	}
	if cam := decode[camera.Camera](t, w); !cam.Focused {
		t.Error("camera should be focused")
	}
	if w := doRequest(t, srv, http.MethodPost, "/api/cameras/rep9/focus", ""); w.Code != http.StatusNotFound {
		t.Errorf("存在しないカメラ: got %d, want 404", w.Code)
	}

	if w := doRequest(t, srv, http.MethodDelete, "/api/focus", ""); w.Code != http.StatusNoContent {
		t.Errorf("単独表示の解除: got %d, want 204", w.Code)
	}
	if m.Focused() != "" {
		t.Errorf("focus was not cleared: %s", m.Focused())
	}
}

func TestEventStream(t *testing.T) {
	srv, m, _ := newTestServer(t)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("WebSocketの接続に失敗しました: %v", err)
	}
	defer conn.Close()

	if err := m.StartCamera(context.Background(), "rep1"); err != nil {
		t.Fatalf("StartCamera failed: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var e camera.Event
	if err := conn.ReadJSON(&e); err != nil {
		t.Fatalf("イベントの受信に失敗しました: %v", err)
	}
	if e.Type != camera.EventStateChanged || e.CameraID != "rep1" || e.State != camera.StateStreaming {
		t.Errorf("unexpected event: %+v", e)
	}

	// マネージャーの停止で配信も終了する
	if err := m.Stop(context.Background()); err != nil {
		t.Fatal(err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Errorf("expected close frame, got %v", err)
	}
}

func intPtr(v int) *int { return &v }
