package protocol

import (
	"multicam/internal/settings"
)

// Class はコマンドの分類。送信先ポートと優先度の決定に使う
type Class string

const (
	ClassCapture      Class = "capture"
	ClassVideoControl Class = "video_control"
	ClassSettings     Class = "settings"
	ClassTransform    Class = "transform"
	ClassSystem       Class = "system"
	ClassHeartbeat    Class = "heartbeat"
)

// Command はプロトコルメッセージ1件を表す閉じた直和型
// 実装はこのパッケージ内の型に限られる
type Command interface {
	// Name はワイヤ上のトークン（ペイロードを除く）を返す
	Name() string
	// Class はコマンドの分類を返す
	Class() Class

	isCommand()
}

// StartStream はプレビューストリームの開始要求
type StartStream struct{}

// StopStream はプレビューストリームの停止要求
type StopStream struct{}

// RestartWithSettings は設定を適用してストリームを再起動する要求
// Settings が nil の場合はカメラ側の現在設定で再起動する
type RestartWithSettings struct {
	Settings *settings.CameraSettings
}

// CaptureStill は高解像度静止画の撮影要求
type CaptureStill struct{}

// SetAllSettings は全設定の一括適用要求
type SetAllSettings struct {
	Settings settings.CameraSettings
}

// SetFlipHorizontal は左右反転の切り替え
type SetFlipHorizontal struct {
	Enabled bool
}

// SetFlipVertical は上下反転の切り替え
type SetFlipVertical struct {
	Enabled bool
}

// SetRotation は回転角度の設定
type SetRotation struct {
	Degrees int
}

// SetGrayscale はグレースケールの切り替え
type SetGrayscale struct {
	Enabled bool
}

// ResetToFactoryDefaults はカメラ設定の初期化要求
type ResetToFactoryDefaults struct{}

// Reboot はカメラユニットの再起動要求
type Reboot struct{}

// Shutdown はカメラユニットの電源断要求
type Shutdown struct{}

// Heartbeat はカメラユニットからマスターへの生存通知
type Heartbeat struct{}

func (StartStream) Name() string            { return tokenStartStream }
func (StopStream) Name() string             { return tokenStopStream }
func (RestartWithSettings) Name() string    { return tokenRestartStream }
func (CaptureStill) Name() string           { return tokenCaptureStill }
func (SetAllSettings) Name() string         { return tokenSetAllSettings }
func (SetFlipHorizontal) Name() string      { return tokenSetFlipHorizontal }
func (SetFlipVertical) Name() string        { return tokenSetFlipVertical }
func (SetRotation) Name() string            { return tokenSetRotation }
func (SetGrayscale) Name() string           { return tokenSetGrayscale }
func (ResetToFactoryDefaults) Name() string { return tokenFactoryReset }
func (Reboot) Name() string                 { return tokenReboot }
func (Shutdown) Name() string               { return tokenShutdown }
func (Heartbeat) Name() string              { return tokenHeartbeat }

func (StartStream) Class() Class            { return ClassVideoControl }
func (StopStream) Class() Class             { return ClassVideoControl }
func (RestartWithSettings) Class() Class    { return ClassVideoControl }
func (CaptureStill) Class() Class           { return ClassCapture }
func (SetAllSettings) Class() Class         { return ClassSettings }
func (SetFlipHorizontal) Class() Class      { return ClassTransform }
func (SetFlipVertical) Class() Class        { return ClassTransform }
func (SetRotation) Class() Class            { return ClassTransform }
func (SetGrayscale) Class() Class           { return ClassTransform }
func (ResetToFactoryDefaults) Class() Class { return ClassSystem }
func (Reboot) Class() Class                 { return ClassSystem }
func (Shutdown) Class() Class               { return ClassSystem }
func (Heartbeat) Class() Class              { return ClassHeartbeat }

func (StartStream) isCommand()            {}
func (StopStream) isCommand()             {}
func (RestartWithSettings) isCommand()    {}
func (CaptureStill) isCommand()           {}
func (SetAllSettings) isCommand()         {}
func (SetFlipHorizontal) isCommand()      {}
func (SetFlipVertical) isCommand()        {}
func (SetRotation) isCommand()            {}
func (SetGrayscale) isCommand()           {}
func (ResetToFactoryDefaults) isCommand() {}
func (Reboot) isCommand()                 {}
func (Shutdown) isCommand()               {}
func (Heartbeat) isCommand()              {}
