package camera

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"multicam/internal/config"
	"multicam/internal/geometry"
	"multicam/internal/protocol"
	"multicam/internal/settings"
	"multicam/internal/store"
	"multicam/internal/transport"
)

// cameraService は1台のカメラの状態遷移と設定を管理する
// 同じカメラへの操作は mu で直列化される（後勝ち）
type cameraService struct {
	device    config.CameraDevice
	ports     config.Ports
	limits    settings.Limits
	tolerance float64
	transport Transport
	store     store.Repository
	emit      func(Event)
	logger    *log.Entry

	mu             sync.Mutex
	name           string
	state          State
	prevState      State // 撮影開始前の状態
	captureID      string
	captureStarted time.Time
	lastSeen       time.Time
	settings       settings.CameraSettings
}

// serviceDeps は cameraService の生成に必要な依存
type serviceDeps struct {
	ports     config.Ports
	limits    settings.Limits
	tolerance float64
	transport Transport
	store     store.Repository
	emit      func(Event)
}

func newCameraService(device config.CameraDevice, deps serviceDeps) *cameraService {
	return &cameraService{
		device:    device,
		ports:     deps.ports,
		limits:    deps.limits,
		tolerance: deps.tolerance,
		transport: deps.transport,
		store:     deps.store,
		emit:      deps.emit,
		logger:    log.WithField("camera", device.ID),
		name:      device.Name,
		state:     StateIdle,
		settings:  settings.Defaults(),
	}
}

// load は保存済みの表示名と設定を読み込む
func (s *cameraService) load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name, err := s.store.LoadName(ctx, s.device.ID)
	if err != nil {
		return err
	}
	if name != "" {
		s.name = name
	}

	saved, err := s.store.LoadSettings(ctx, s.device.ID)
	if err != nil {
		// 範囲設定の変更などで読めない場合は既定値で起動する
		s.logger.Warnf("保存済み設定を使用できません。既定値を使用します: %v", err)
		return nil
	}
	if saved != nil {
		s.settings = *saved
	}
	return nil
}

func (s *cameraService) snapshot(focused bool) Camera {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Camera{
		ID:       s.device.ID,
		Name:     s.name,
		IP:       s.device.IP,
		Local:    s.device.Local,
		State:    s.state,
		Focused:  focused,
		LastSeen: s.lastSeen,
		Geometry: s.device.Geometry(),
		Settings: s.settings.Clone(),
	}
}

// startStream はプレビューストリームを開始する
func (s *cameraService) startStream() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkCommandableLocked(); err != nil {
		return err
	}
	if _, err := s.sendLocked(protocol.StartStream{}); err != nil {
		return err
	}
	s.setStateLocked(StateStreaming, "")
	return nil
}

// stopStream はプレビューストリームを停止する
func (s *cameraService) stopStream() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkCommandableLocked(); err != nil {
		return err
	}
	if _, err := s.sendLocked(protocol.StopStream{}); err != nil {
		return err
	}
	s.setStateLocked(StateIdle, "")
	return nil
}

// restartStream は現在の設定を添えてストリームを再起動する
func (s *cameraService) restartStream() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkCommandableLocked(); err != nil {
		return err
	}
	current := s.settings.Clone()
	if _, err := s.sendLocked(protocol.RestartWithSettings{Settings: &current}); err != nil {
		return err
	}
	s.setStateLocked(StateStreaming, "")
	return nil
}

// capture は撮影を開始する。送信結果を受けるまで撮影中のまま
func (s *cameraService) capture(now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkCommandableLocked(); err != nil {
		return err
	}
	id, err := s.sendLocked(protocol.CaptureStill{})
	if err != nil {
		return err
	}
	s.prevState = s.state
	s.captureID = id
	s.captureStarted = now
	s.setStateLocked(StateCapturing, "")
	return nil
}

// finishCapture は撮影コマンドの送信結果を反映する
func (s *cameraService) finishCapture(messageID string, sendErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateCapturing || s.captureID != messageID {
		return
	}
	detail := ""
	if sendErr != nil {
		detail = sendErr.Error()
	}
	s.endCaptureLocked(detail)
}

func (s *cameraService) endCaptureLocked(detail string) {
	s.captureID = ""
	s.setStateLocked(s.prevState, detail)
}

// system は再起動・電源断を送る
func (s *cameraService) system(cmd protocol.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateCapturing {
		return fmt.Errorf("カメラ %s: %w", s.device.ID, ErrCaptureInProgress)
	}
	if _, err := s.sendLocked(cmd); err != nil {
		return err
	}

	switch cmd.(type) {
	case protocol.Shutdown:
		s.setStateLocked(StateOffline, "shutdown")
	case protocol.Reboot:
		s.setStateLocked(StateIdle, "reboot")
	}
	return nil
}

// resetSettings は工場出荷時設定に戻すよう指示し、保存済み設定も既定値にする
func (s *cameraService) resetSettings(ctx context.Context) (settings.CameraSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkCommandableLocked(); err != nil {
		return settings.CameraSettings{}, err
	}

	defaults := settings.Defaults()
	if err := s.commitSettingsLocked(ctx, defaults, protocol.ResetToFactoryDefaults{}); err != nil {
		return settings.CameraSettings{}, err
	}
	s.emitLocked(EventSettingsChanged, "reset")
	return defaults.Clone(), nil
}

// updateSettings は部分更新をマージして検証し、保存してから送信する
// オフライン中は保存のみ行い、復帰時に再送する
func (s *cameraService) updateSettings(ctx context.Context, u settings.Update) (settings.CameraSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateCapturing {
		return settings.CameraSettings{}, fmt.Errorf("カメラ %s: %w", s.device.ID, ErrCaptureInProgress)
	}

	next, err := s.limits.Validate(settings.Merge(s.settings, u))
	if err != nil {
		return settings.CameraSettings{}, err
	}
	if err := s.checkCropBoundsLocked(next.Crop); err != nil {
		return settings.CameraSettings{}, err
	}

	var cmd protocol.Command
	if s.state == StateOffline {
		s.logger.Info("オフラインのため設定は復帰時に送信します")
	} else {
		cmd = protocol.SetAllSettings{Settings: next.Clone()}
	}
	if err := s.commitSettingsLocked(ctx, next, cmd); err != nil {
		return settings.CameraSettings{}, err
	}
	s.emitLocked(EventSettingsChanged, "")
	return next.Clone(), nil
}

// commitSettingsLocked は next を保存してから cmd を送信キューに積み、両方成功したときだけ反映する
// 送信に失敗した場合は保存した設定を元に戻す。cmd が nil なら保存のみ行う
func (s *cameraService) commitSettingsLocked(ctx context.Context, next settings.CameraSettings, cmd protocol.Command) error {
	if err := s.store.SaveSettings(ctx, s.device.ID, next); err != nil {
		return fmt.Errorf("カメラ %s の設定の保存に失敗: %w", s.device.ID, err)
	}

	if cmd != nil {
		if _, err := s.sendLocked(cmd); err != nil {
			if rbErr := s.store.SaveSettings(context.WithoutCancel(ctx), s.device.ID, s.settings); rbErr != nil {
				s.logger.Errorf("送信失敗後の設定の巻き戻しに失敗しました: %v", rbErr)
			}
			return err
		}
	}

	s.settings = next
	return nil
}

// checkCropBoundsLocked はセンサー座標のクロップがセンサー内に収まるか検証する
func (s *cameraService) checkCropBoundsLocked(crop *geometry.Rect) error {
	if crop == nil {
		return nil
	}
	g := s.device.Geometry()
	if crop.X+crop.Width > g.SensorWidth || crop.Y+crop.Height > g.SensorHeight {
		return &settings.ValidationError{
			Field: settings.FieldCrop,
			Value: *crop,
			Bound: fmt.Sprintf("sensor %dx%d", g.SensorWidth, g.SensorHeight),
		}
	}
	return nil
}

// setCrop はプレビュー座標の矩形をセンサー座標に変換して適用する
func (s *cameraService) setCrop(ctx context.Context, preview geometry.Rect) (*CropResult, error) {
	g := s.device.Geometry()
	sensor, err := geometry.PreviewToSensor(preview, g)
	if err != nil {
		return nil, err
	}

	warning := geometry.CheckAspect(g, s.tolerance)
	if warning != nil {
		s.logger.Warn(warning.Error())
	}

	if _, err := s.updateSettings(ctx, settings.Update{Crop: &sensor}); err != nil {
		return nil, err
	}

	back, err := geometry.SensorToPreview(sensor, g)
	if err != nil {
		return nil, err
	}
	return &CropResult{Sensor: sensor, Preview: back, Warning: warning}, nil
}

// rename は表示名を変更して保存する
func (s *cameraService) rename(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.SaveName(ctx, s.device.ID, name); err != nil {
		return fmt.Errorf("カメラ %s の表示名の保存に失敗: %w", s.device.ID, err)
	}
	s.name = name
	s.emitLocked(EventNameChanged, name)
	return nil
}

// markSeen は生存通知を記録する。オフラインから復帰した場合は設定を再送する
func (s *cameraService) markSeen(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastSeen = now
	if s.state != StateOffline {
		return
	}

	s.setStateLocked(StateIdle, "heartbeat")
	if _, err := s.sendLocked(protocol.SetAllSettings{Settings: s.settings.Clone()}); err != nil {
		s.logger.Warnf("復帰時の設定の再送に失敗しました: %v", err)
	}
}

// checkTimeout は生存通知の途絶と撮影の長期化を検出する
func (s *cameraService) checkTimeout(now time.Time, heartbeatTimeout, captureTimeout time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateCapturing && captureTimeout > 0 && now.Sub(s.captureStarted) > captureTimeout {
		s.logger.Warn("撮影が完了しないため撮影中の状態を解除します")
		s.endCaptureLocked("capture timeout")
	}

	if s.lastSeen.IsZero() || s.state == StateOffline {
		return
	}
	if now.Sub(s.lastSeen) > heartbeatTimeout {
		s.logger.Warnf("%v 以上生存通知がありません", heartbeatTimeout)
		s.captureID = ""
		s.setStateLocked(StateOffline, "heartbeat timeout")
	}
}

func (s *cameraService) checkCommandableLocked() error {
	switch s.state {
	case StateCapturing:
		return fmt.Errorf("カメラ %s: %w", s.device.ID, ErrCaptureInProgress)
	case StateOffline:
		return fmt.Errorf("カメラ %s: %w", s.device.ID, ErrCameraOffline)
	}
	return nil
}

func (s *cameraService) sendLocked(cmd protocol.Command) (string, error) {
	addr := transport.Address(s.device.IP, cmd, s.ports)
	id, err := s.transport.Enqueue(s.device.ID, addr, cmd, transport.DefaultPriority(cmd))
	if err != nil {
		return "", fmt.Errorf("カメラ %s への %s の送信に失敗: %w", s.device.ID, cmd.Name(), err)
	}
	s.logger.WithField("command", cmd.Name()).Debug("コマンドを送信キューに追加しました")
	return id, nil
}

func (s *cameraService) setStateLocked(state State, detail string) {
	if s.state == state {
		return
	}
	s.logger.Infof("状態が変化しました: %s -> %s", s.state, state)
	s.state = state
	s.emitLocked(EventStateChanged, detail)
}

func (s *cameraService) emitLocked(t EventType, detail string) {
	if s.emit == nil {
		return
	}
	s.emit(Event{Type: t, CameraID: s.device.ID, State: s.state, Detail: detail, Time: time.Now()})
}
