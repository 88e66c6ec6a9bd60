package camera

import (
	"context"
	"errors"
	"time"

	"multicam/internal/geometry"
	"multicam/internal/protocol"
	"multicam/internal/settings"
	"multicam/internal/transport"
)

// State はカメラの動作状態を表す
type State string

const (
	StateIdle      State = "idle"      // 接続済み、ストリーム停止中
	StateStreaming State = "streaming" // プレビュー配信中
	StateCapturing State = "capturing" // 静止画撮影中
	StateOffline   State = "offline"   // 生存通知が途絶えている
)

var (
	// ErrCameraNotFound は存在しないカメラIDが指定された場合のエラー
	ErrCameraNotFound = errors.New("カメラが見つかりません")
	// ErrCaptureInProgress は撮影中に状態を変える操作が要求された場合のエラー
	ErrCaptureInProgress = errors.New("撮影中です")
	// ErrCameraOffline はオフラインのカメラにコマンドを送ろうとした場合のエラー
	ErrCameraOffline = errors.New("カメラがオフラインです")
)

// Camera は1台のカメラの状態のスナップショット
type Camera struct {
	ID       string                   `json:"id"`
	Name     string                   `json:"name"`
	IP       string                   `json:"ip"`
	Local    bool                     `json:"local"`
	State    State                    `json:"state"`
	Focused  bool                     `json:"focused"`
	LastSeen time.Time                `json:"last_seen"` // 最後に生存通知を受けた時刻（未受信ならゼロ値）
	Geometry geometry.PreviewGeometry `json:"geometry"`
	Settings settings.CameraSettings  `json:"settings"`
}

// CropResult はプレビュー座標で指定したクロップの適用結果
type CropResult struct {
	Sensor  geometry.Rect                     `json:"sensor"`
	Preview geometry.Rect                     `json:"preview"` // センサー矩形をプレビューに戻したもの
	Warning *geometry.GeometryMismatchWarning `json:"warning,omitempty"`
}

// EventType はイベントの種類
type EventType string

const (
	EventStateChanged    EventType = "state_changed"
	EventSettingsChanged EventType = "settings_changed"
	EventNameChanged     EventType = "name_changed"
	EventFocusChanged    EventType = "focus_changed"
	EventSendFailed      EventType = "send_failed"
)

// Event はカメラの状態変化の通知
type Event struct {
	Type     EventType `json:"type"`
	CameraID string    `json:"camera_id"`
	State    State     `json:"state,omitempty"`
	Detail   string    `json:"detail,omitempty"`
	Time     time.Time `json:"time"`
}

// Transport はコマンドを送信キューに積む
// transport.Dispatcher が実装する
type Transport interface {
	Enqueue(cameraID, addr string, cmd protocol.Command, prio transport.Priority) (string, error)
}

// Manager は全カメラの管理を担うインターフェース
type Manager interface {
	// Start は保存済みの状態を読み込み、生存監視を開始する
	Start(ctx context.Context) error

	// Stop は生存監視を停止する
	Stop(ctx context.Context) error

	// GetCameras は全カメラのスナップショットをID順に返す
	GetCameras() []Camera

	// GetCamera は指定されたIDのカメラを取得する
	GetCamera(id string) (*Camera, bool)

	// StartCamera はプレビューストリームを開始する
	StartCamera(ctx context.Context, id string) error

	// StopCamera はプレビューストリームを停止する
	StopCamera(ctx context.Context, id string) error

	// RestartCamera は現在の設定でストリームを再起動する
	RestartCamera(ctx context.Context, id string) error

	// Capture は静止画を撮影する
	Capture(ctx context.Context, id string) error

	// CaptureAll は撮影可能な全カメラで静止画を撮影し、カメラごとの結果を返す
	CaptureAll(ctx context.Context) map[string]error

	// Reboot はカメラユニットを再起動する
	Reboot(ctx context.Context, id string) error

	// Shutdown はカメラユニットの電源を切る
	Shutdown(ctx context.Context, id string) error

	// ResetSettings は設定を初期化する
	ResetSettings(ctx context.Context, id string) (settings.CameraSettings, error)

	// UpdateSettings は部分更新を適用し、検証済みの設定を返す
	UpdateSettings(ctx context.Context, id string, u settings.Update) (settings.CameraSettings, error)

	// SetCrop はプレビュー座標のクロップ矩形をセンサー座標に変換して適用する
	SetCrop(ctx context.Context, id string, preview geometry.Rect) (*CropResult, error)

	// Rename は表示名を変更する
	Rename(ctx context.Context, id, name string) error

	// Focus は指定したカメラを単独表示の対象にする。空文字列で解除する
	Focus(id string) error

	// Focused は単独表示中のカメラIDを返す
	Focused() string

	// MarkSeen は送信元IPに対応するカメラの生存を記録する
	MarkSeen(ip string)

	// HandleResult は送信結果を反映する
	HandleResult(r transport.Result)

	// Subscribe はイベントの購読を開始する。戻り値の関数で解除する
	Subscribe() (<-chan Event, func())
}
