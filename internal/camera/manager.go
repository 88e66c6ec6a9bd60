package camera

import (
	"context"
	"fmt"
	"sort"
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

// DefaultCaptureTimeout は撮影中の状態を強制的に解除するまでの時間
const DefaultCaptureTimeout = 10 * time.Second

// subscriberBuffer は購読者ごとのイベントバッファ
const subscriberBuffer = 64

// DefaultCameraManager はCamera Managerのデフォルト実装
type DefaultCameraManager struct {
	services map[string]*cameraService
	byIP     map[string]string // IPアドレス → カメラID
	mu       sync.RWMutex

	focused string

	subMu       sync.Mutex
	subscribers map[chan Event]struct{}

	// 制御用
	stopCh chan struct{}
	wg     sync.WaitGroup

	// 生存監視の設定
	heartbeatTimeout time.Duration
	captureTimeout   time.Duration
	scanInterval     time.Duration
	now              func() time.Time
}

// NewDefaultCameraManager は設定に書かれたカメラを登録したManagerを作成する
func NewDefaultCameraManager(cfg *config.Config, t Transport, repo store.Repository) *DefaultCameraManager {
	m := &DefaultCameraManager{
		services:         make(map[string]*cameraService, len(cfg.Cameras)),
		byIP:             make(map[string]string, len(cfg.Cameras)),
		subscribers:      make(map[chan Event]struct{}),
		stopCh:           make(chan struct{}),
		heartbeatTimeout: cfg.Network.HeartbeatTimeout,
		captureTimeout:   DefaultCaptureTimeout,
		scanInterval:     cfg.Network.ScanInterval,
		now:              time.Now,
	}
	if m.scanInterval <= 0 {
		m.scanInterval = time.Second
	}

	for _, device := range cfg.Cameras {
		m.services[device.ID] = newCameraService(device, serviceDeps{
			ports:     cfg.PortsFor(device),
			limits:    cfg.Settings.Limits(),
			tolerance: cfg.Settings.AspectTolerance,
			transport: t,
			store:     repo,
			emit:      m.publish,
		})
		m.byIP[device.IP] = device.ID
	}

	return m
}

// Start は保存済みの状態を読み込み、生存監視を開始する
func (m *DefaultCameraManager) Start(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for id, svc := range m.services {
		if err := svc.load(ctx); err != nil {
			return fmt.Errorf("カメラ %s の読み込みに失敗: %w", id, err)
		}
	}

	m.wg.Add(1)
	go m.backgroundScan(ctx)

	log.Infof("%d 台のカメラの管理を開始しました", len(m.services))
	return nil
}

// Stop は生存監視を停止し、購読者を全て解除する
func (m *DefaultCameraManager) Stop(_ context.Context) error {
	close(m.stopCh)
	m.wg.Wait()

	m.subMu.Lock()
	for ch := range m.subscribers {
		delete(m.subscribers, ch)
		close(ch)
	}
	m.subMu.Unlock()

	m.stopCh = make(chan struct{})
	return nil
}

// GetCameras は全カメラのスナップショットをID順に返す
func (m *DefaultCameraManager) GetCameras() []Camera {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cameras := make([]Camera, 0, len(m.services))
	for id, svc := range m.services {
		cameras = append(cameras, svc.snapshot(id == m.focused))
	}
	sort.Slice(cameras, func(i, j int) bool { return cameras[i].ID < cameras[j].ID })

	return cameras
}

// GetCamera は指定されたIDのカメラを取得する
func (m *DefaultCameraManager) GetCamera(id string) (*Camera, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	svc, exists := m.services[id]
	if !exists {
		return nil, false
	}
	cam := svc.snapshot(id == m.focused)
	return &cam, true
}

// StartCamera はプレビューストリームを開始する
func (m *DefaultCameraManager) StartCamera(_ context.Context, id string) error {
	svc, err := m.service(id)
	if err != nil {
		return err
	}
	return svc.startStream()
}

// StopCamera はプレビューストリームを停止する
func (m *DefaultCameraManager) StopCamera(_ context.Context, id string) error {
	svc, err := m.service(id)
	if err != nil {
		return err
	}
	return svc.stopStream()
}

// RestartCamera は現在の設定でストリームを再起動する
func (m *DefaultCameraManager) RestartCamera(_ context.Context, id string) error {
	svc, err := m.service(id)
	if err != nil {
		return err
	}
	return svc.restartStream()
}

// Capture は静止画を撮影する
func (m *DefaultCameraManager) Capture(_ context.Context, id string) error {
	svc, err := m.service(id)
	if err != nil {
		return err
	}
	return svc.capture(m.now())
}

// CaptureAll は全カメラで静止画を撮影し、カメラごとの結果を返す
// 撮影中やオフラインのカメラはエラーとして結果に含め、他のカメラの撮影は続ける
func (m *DefaultCameraManager) CaptureAll(_ context.Context) map[string]error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make(map[string]error, len(m.services))
	now := m.now()
	for id, svc := range m.services {
		results[id] = svc.capture(now)
	}
	return results
}

// Reboot はカメラユニットを再起動する
func (m *DefaultCameraManager) Reboot(_ context.Context, id string) error {
	svc, err := m.service(id)
	if err != nil {
		return err
	}
	return svc.system(protocol.Reboot{})
}

// Shutdown はカメラユニットの電源を切る
func (m *DefaultCameraManager) Shutdown(_ context.Context, id string) error {
	svc, err := m.service(id)
	if err != nil {
		return err
	}
	return svc.system(protocol.Shutdown{})
}

// ResetSettings は設定を初期化する
func (m *DefaultCameraManager) ResetSettings(ctx context.Context, id string) (settings.CameraSettings, error) {
	svc, err := m.service(id)
	if err != nil {
		return settings.CameraSettings{}, err
	}
	return svc.resetSettings(ctx)
}

// UpdateSettings は部分更新を適用し、検証済みの設定を返す
func (m *DefaultCameraManager) UpdateSettings(ctx context.Context, id string, u settings.Update) (settings.CameraSettings, error) {
	svc, err := m.service(id)
	if err != nil {
		return settings.CameraSettings{}, err
	}
	return svc.updateSettings(ctx, u)
}

// SetCrop はプレビュー座標のクロップ矩形をセンサー座標に変換して適用する
func (m *DefaultCameraManager) SetCrop(ctx context.Context, id string, preview geometry.Rect) (*CropResult, error) {
	svc, err := m.service(id)
	if err != nil {
		return nil, err
	}
	return svc.setCrop(ctx, preview)
}

// Rename は表示名を変更する
func (m *DefaultCameraManager) Rename(ctx context.Context, id, name string) error {
	svc, err := m.service(id)
	if err != nil {
		return err
	}
	return svc.rename(ctx, name)
}

// Focus は指定したカメラを単独表示の対象にする。空文字列で解除する
// 単独表示できるカメラは常に1台まで
func (m *DefaultCameraManager) Focus(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id != "" {
		if _, exists := m.services[id]; !exists {
			return fmt.Errorf("%w: %s", ErrCameraNotFound, id)
		}
	}
	if m.focused == id {
		return nil
	}
	m.focused = id
	m.publish(Event{Type: EventFocusChanged, CameraID: id, Time: m.now()})
	return nil
}

// Focused は単独表示中のカメラIDを返す
func (m *DefaultCameraManager) Focused() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.focused
}

// MarkSeen は送信元IPに対応するカメラの生存を記録する
func (m *DefaultCameraManager) MarkSeen(ip string) {
	m.mu.RLock()
	id, known := m.byIP[ip]
	svc := m.services[id]
	m.mu.RUnlock()

	if !known {
		log.WithField("ip", ip).Debug("未登録のアドレスからの生存通知を無視しました")
		return
	}
	svc.markSeen(m.now())
}

// HandleResult は送信結果を反映する
// 撮影コマンドの結果で撮影中の状態を解除し、失敗はイベントとして通知する
func (m *DefaultCameraManager) HandleResult(r transport.Result) {
	svc, err := m.service(r.Message.CameraID)
	if err != nil {
		return
	}

	if _, ok := r.Message.Command.(protocol.CaptureStill); ok {
		svc.finishCapture(r.Message.ID, r.Err)
	}
	if r.Err != nil {
		m.publish(Event{
			Type:     EventSendFailed,
			CameraID: r.Message.CameraID,
			Detail:   fmt.Sprintf("%s: %v", r.Message.Command.Name(), r.Err),
			Time:     m.now(),
		})
	}
}

// Subscribe はイベントの購読を開始する。戻り値の関数で解除する
// 受信が追いつかない購読者へのイベントは破棄する
func (m *DefaultCameraManager) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.subMu.Lock()
			defer m.subMu.Unlock()
			if _, ok := m.subscribers[ch]; ok {
				delete(m.subscribers, ch)
				close(ch)
			}
		})
	}
	return ch, cancel
}

func (m *DefaultCameraManager) publish(e Event) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for ch := range m.subscribers {
		select {
		case ch <- e:
		default:
			log.WithField("camera", e.CameraID).Debug("購読者のバッファが満杯のためイベントを破棄しました")
		}
	}
}

func (m *DefaultCameraManager) service(id string) (*cameraService, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	svc, exists := m.services[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrCameraNotFound, id)
	}
	return svc, nil
}

// backgroundScan は定期的に生存通知の途絶を確認する
func (m *DefaultCameraManager) backgroundScan(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.scanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.scan()
		}
	}
}

// scan は全カメラのタイムアウトを確認する
func (m *DefaultCameraManager) scan() {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := m.now()
	for _, svc := range m.services {
		svc.checkTimeout(now, m.heartbeatTimeout, m.captureTimeout)
	}
}

// SetCaptureTimeout は撮影中の状態を強制的に解除するまでの時間を設定する
func (m *DefaultCameraManager) SetCaptureTimeout(timeout time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.captureTimeout = timeout
}
