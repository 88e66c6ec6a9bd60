package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"multicam/internal/camera"
	"multicam/internal/config"
	"multicam/internal/generated"
	"multicam/internal/geometry"
	"multicam/internal/settings"
	"multicam/internal/transport"
)

// wsWriteWait はWebSocketへの書き込みの期限
const wsWriteWait = 5 * time.Second

// MulticamHandler は生成されたServerInterfaceを実装する
type MulticamHandler struct {
	config   *config.Config
	manager  camera.Manager
	stats    StatsProvider
	upgrader websocket.Upgrader
}

var _ generated.ServerInterface = (*MulticamHandler)(nil)

// Index は埋め込みの操作画面を返す
func (h *MulticamHandler) Index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", getIndexHTML())
}

// HealthCheck はヘルスチェックエンドポイントの実装
func (h *MulticamHandler) HealthCheck(c *gin.Context) {
	response := generated.HealthResponse{
		Status:    generated.HealthResponseStatusHealthy,
		Timestamp: time.Now(),
	}

	c.JSON(http.StatusOK, response)
}

// GetStatus はシステム状態取得エンドポイントの実装
func (h *MulticamHandler) GetStatus(c *gin.Context) {
	cameras := h.manager.GetCameras()
	online := 0
	for _, cam := range cameras {
		if cam.State != camera.StateOffline {
			online++
		}
	}

	response := generated.StatusResponse{
		Status: generated.StatusResponseStatusRunning,
		Server: generated.ServerInfo{
			Host: h.config.Server.Host,
			Port: h.config.Server.Port,
		},
		Cameras:   len(cameras),
		Online:    online,
		Mock:      h.config.Network.Mock,
		Timestamp: time.Now(),
	}
	if focused := h.manager.Focused(); focused != "" {
		response.Focused = &focused
	}
	if h.stats != nil {
		response.Transport = convertTransportStats(h.stats.Stats())
	}

	c.JSON(http.StatusOK, response)
}

// GetCameras はカメラ一覧取得エンドポイントの実装
func (h *MulticamHandler) GetCameras(c *gin.Context) {
	managedCameras := h.manager.GetCameras()
	cameras := make([]generated.Camera, 0, len(managedCameras))
	for _, cam := range managedCameras {
		cameras = append(cameras, convertCamera(cam))
	}

	c.JSON(http.StatusOK, generated.CamerasResponse{Cameras: cameras})
}

// GetCamera はカメラ1台の取得エンドポイントの実装
func (h *MulticamHandler) GetCamera(c *gin.Context, id string) {
	cam, ok := h.lookup(c, id)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, convertCamera(*cam))
}

// RenameCamera は表示名変更エンドポイントの実装
func (h *MulticamHandler) RenameCamera(c *gin.Context, id string) {
	var req generated.RenameCameraJSONRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err.Error(), "name")
		return
	}

	if err := h.manager.Rename(c.Request.Context(), id, req.Name); err != nil {
		h.handleError(c, err)
		return
	}
	h.respondCamera(c, id, http.StatusOK)
}

// GetSettings は設定取得エンドポイントの実装
func (h *MulticamHandler) GetSettings(c *gin.Context, id string) {
	cam, ok := h.lookup(c, id)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, convertSettings(cam.Settings))
}

// GetDeviceSettings はカメラAPI向けスケールに変換した設定を返す
func (h *MulticamHandler) GetDeviceSettings(c *gin.Context, id string) {
	cam, ok := h.lookup(c, id)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, convertDeviceSettings(settings.ToDeviceScale(cam.Settings)))
}

// UpdateSettings は設定の部分更新エンドポイントの実装
func (h *MulticamHandler) UpdateSettings(c *gin.Context, id string) {
	var req generated.UpdateSettingsJSONRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err.Error(), "")
		return
	}
	u := toUpdate(req)
	if u.IsEmpty() {
		writeError(c, http.StatusBadRequest, "invalid_request", "変更する設定がありません", "")
		return
	}

	updated, err := h.manager.UpdateSettings(c.Request.Context(), id, u)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, convertSettings(updated))
}

// SetCrop はプレビュー座標でのクロップ指定エンドポイントの実装
func (h *MulticamHandler) SetCrop(c *gin.Context, id string) {
	var req generated.SetCropJSONRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err.Error(), settings.FieldCrop)
		return
	}

	result, err := h.manager.SetCrop(c.Request.Context(), id, toRect(req))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, convertCropResult(result))
}

// FocusCamera は単独表示エンドポイントの実装
func (h *MulticamHandler) FocusCamera(c *gin.Context, id string) {
	if err := h.manager.Focus(id); err != nil {
		h.handleError(c, err)
		return
	}
	h.respondCamera(c, id, http.StatusOK)
}

// ClearFocus は単独表示を解除する
func (h *MulticamHandler) ClearFocus(c *gin.Context) {
	if err := h.manager.Focus(""); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// commandActions はコマンドAPIのアクション名と操作の対応
var commandActions = map[string]func(m camera.Manager, ctx context.Context, id string) error{
	"start_stream":  camera.Manager.StartCamera,
	"stop_stream":   camera.Manager.StopCamera,
	"restart":       camera.Manager.RestartCamera,
	"capture":       camera.Manager.Capture,
	"reboot":        camera.Manager.Reboot,
	"shutdown":      camera.Manager.Shutdown,
	"factory_reset": resetSettings,
}

func resetSettings(m camera.Manager, ctx context.Context, id string) error {
	_, err := m.ResetSettings(ctx, id)
	return err
}

// RunCommand はカメラ1台へのコマンド送信エンドポイントの実装
func (h *MulticamHandler) RunCommand(c *gin.Context, id string, action string) {
	run, ok := commandActions[action]
	if !ok {
		writeError(c, http.StatusBadRequest, "unknown_action", "不明なコマンドです: "+action, "")
		return
	}

	if err := run(h.manager, c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}

	log.WithFields(log.Fields{"camera": id, "action": action}).Info("コマンドを受け付けました")
	h.respondCamera(c, id, http.StatusAccepted)
}

// CaptureAll は全カメラ一斉撮影エンドポイントの実装
// 一部のカメラが撮影できなくても他のカメラの結果と合わせて返す
func (h *MulticamHandler) CaptureAll(c *gin.Context) {
	results := h.manager.CaptureAll(c.Request.Context())

	response := generated.CaptureAllResponse{Results: make(map[string]generated.CaptureResult, len(results))}
	for id, err := range results {
		if err != nil {
			message := err.Error()
			response.Results[id] = generated.CaptureResult{Error: &message}
			continue
		}
		response.Results[id] = generated.CaptureResult{Ok: true}
	}

	c.JSON(http.StatusAccepted, response)
}

// EventStream はカメラのイベントをWebSocketで配信する
func (h *MulticamHandler) EventStream(c *gin.Context) {
	// 接続直後のイベントを取りこぼさないよう、アップグレード前に購読する
	events, cancel := h.manager.Subscribe()
	defer cancel()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warnf("WebSocketへのアップグレードに失敗: %v", err)
		return
	}
	defer conn.Close()

	logger := log.WithField("remote", c.Request.RemoteAddr)
	logger.Info("イベント配信を開始しました")

	// クライアントからのメッセージは読み捨てて切断だけを検出する
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			logger.Info("イベント配信を終了しました")
			return
		case e, ok := <-events:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
					time.Now().Add(wsWriteWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(e); err != nil {
				logger.Warnf("イベントの送信に失敗: %v", err)
				return
			}
		}
	}
}

// ヘルパー関数

// lookup はカメラを取得する。見つからなければ404を返してfalseを返す
func (h *MulticamHandler) lookup(c *gin.Context, id string) (*camera.Camera, bool) {
	cam, found := h.manager.GetCamera(id)
	if !found {
		writeError(c, http.StatusNotFound, "camera_not_found", "指定されたカメラが見つかりません: "+id, "")
		return nil, false
	}
	return cam, true
}

// respondCamera は操作後のカメラのスナップショットを返す
func (h *MulticamHandler) respondCamera(c *gin.Context, id string, status int) {
	cam, ok := h.lookup(c, id)
	if !ok {
		return
	}
	c.JSON(status, convertCamera(*cam))
}

// handleError はドメインのエラーをHTTPステータスに変換して返す
func (h *MulticamHandler) handleError(c *gin.Context, err error) {
	var (
		vErr    *settings.ValidationError
		cropErr *geometry.InvalidCropError
	)

	switch {
	case errors.As(err, &vErr):
		writeError(c, http.StatusBadRequest, "validation_error", err.Error(), vErr.Field)
	case errors.As(err, &cropErr):
		writeError(c, http.StatusBadRequest, "invalid_crop", err.Error(), settings.FieldCrop)
	case errors.Is(err, geometry.ErrInvalidGeometry):
		writeError(c, http.StatusBadRequest, "invalid_geometry", err.Error(), "")
	case errors.Is(err, camera.ErrCameraNotFound):
		writeError(c, http.StatusNotFound, "camera_not_found", err.Error(), "")
	case errors.Is(err, camera.ErrCaptureInProgress):
		writeError(c, http.StatusConflict, "capture_in_progress", err.Error(), "")
	case errors.Is(err, camera.ErrCameraOffline):
		writeError(c, http.StatusServiceUnavailable, "camera_offline", err.Error(), "")
	case errors.Is(err, transport.ErrQueueFull), errors.Is(err, transport.ErrStopped):
		writeError(c, http.StatusServiceUnavailable, "transport_unavailable", err.Error(), "")
	default:
		log.Errorf("リクエストの処理に失敗: %v", err)
		writeError(c, http.StatusInternalServerError, "internal_error", err.Error(), "")
	}
}

func writeError(c *gin.Context, status int, code, message, field string) {
	response := generated.ErrorResponse{
		Error:     code,
		Message:   message,
		Timestamp: time.Now(),
	}
	if field != "" {
		response.Field = &field
	}
	c.JSON(status, response)
}

// writeParamError は生成されたラッパーがパスパラメータを解釈できなかった場合の応答
func writeParamError(c *gin.Context, err error, status int) {
	writeError(c, status, "invalid_request", err.Error(), "")
}
