package geometry

import (
	"errors"
	"fmt"
	"math"
)

// DefaultAspectTolerance はアスペクト比の差を警告とみなす既定の閾値（相対値）
const DefaultAspectTolerance = 0.01

// ErrInvalidGeometry は解像度が正の整数でない場合のエラー
var ErrInvalidGeometry = errors.New("無効な解像度")

// Rect はピクセル座標系の矩形を表す
type Rect struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// String は矩形を "x,y wxh" 形式で返す
func (r Rect) String() string {
	return fmt.Sprintf("%d,%d %dx%d", r.X, r.Y, r.Width, r.Height)
}

// PreviewGeometry は1台のカメラのプレビュー解像度とセンサー解像度の組
type PreviewGeometry struct {
	PreviewWidth  int `json:"preview_width" yaml:"preview_width"`
	PreviewHeight int `json:"preview_height" yaml:"preview_height"`
	SensorWidth   int `json:"sensor_width" yaml:"sensor_width"`
	SensorHeight  int `json:"sensor_height" yaml:"sensor_height"`
}

// Validate は全ての解像度が正であることを検証する
func (g PreviewGeometry) Validate() error {
	if g.PreviewWidth <= 0 || g.PreviewHeight <= 0 {
		return fmt.Errorf("%w: プレビュー %dx%d", ErrInvalidGeometry, g.PreviewWidth, g.PreviewHeight)
	}
	if g.SensorWidth <= 0 || g.SensorHeight <= 0 {
		return fmt.Errorf("%w: センサー %dx%d", ErrInvalidGeometry, g.SensorWidth, g.SensorHeight)
	}
	return nil
}

// PreviewAspect はプレビューのアスペクト比を返す
func (g PreviewGeometry) PreviewAspect() float64 {
	return float64(g.PreviewWidth) / float64(g.PreviewHeight)
}

// SensorAspect はセンサーのアスペクト比を返す
func (g PreviewGeometry) SensorAspect() float64 {
	return float64(g.SensorWidth) / float64(g.SensorHeight)
}

// InvalidCropError は面積が0以下になるクロップ矩形を表す
type InvalidCropError struct {
	Rect Rect
}

func (e *InvalidCropError) Error() string {
	return fmt.Sprintf("無効なクロップ矩形: %s (最低1x1ピクセルが必要)", e.Rect)
}

// GeometryMismatchWarning はプレビューとセンサーのアスペクト比の不一致を知らせる
// 変換自体は軸ごとに定義されているため、呼び出し側への通知のみに使う
type GeometryMismatchWarning struct {
	PreviewAspect float64 `json:"preview_aspect"`
	SensorAspect  float64 `json:"sensor_aspect"`
	Tolerance     float64 `json:"tolerance"`
}

func (w *GeometryMismatchWarning) Error() string {
	return fmt.Sprintf("アスペクト比が一致しません: プレビュー %.4f, センサー %.4f (許容差 %.2f%%)",
		w.PreviewAspect, w.SensorAspect, w.Tolerance*100)
}

// CheckAspect はアスペクト比の相対差が tolerance を超える場合に警告を返す
// 差が許容範囲内なら nil を返す
func CheckAspect(g PreviewGeometry, tolerance float64) *GeometryMismatchWarning {
	if g.Validate() != nil {
		return nil
	}
	preview := g.PreviewAspect()
	sensor := g.SensorAspect()
	if math.Abs(preview-sensor)/sensor <= tolerance {
		return nil
	}
	return &GeometryMismatchWarning{
		PreviewAspect: preview,
		SensorAspect:  sensor,
		Tolerance:     tolerance,
	}
}

// PreviewToSensor はプレビュー座標の矩形をセンサー座標へ変換する
func PreviewToSensor(rect Rect, g PreviewGeometry) (Rect, error) {
	if err := g.Validate(); err != nil {
		return Rect{}, err
	}
	scaleX := float64(g.SensorWidth) / float64(g.PreviewWidth)
	scaleY := float64(g.SensorHeight) / float64(g.PreviewHeight)

	return scaleAndClamp(rect, scaleX, scaleY, g.SensorWidth, g.SensorHeight)
}

// SensorToPreview はセンサー座標の矩形をプレビュー座標へ変換する
// リサイズ後のプレビューに保存済みクロップを再描画する用途で使う
func SensorToPreview(rect Rect, g PreviewGeometry) (Rect, error) {
	if err := g.Validate(); err != nil {
		return Rect{}, err
	}
	if rect.Width <= 0 || rect.Height <= 0 {
		return Rect{}, &InvalidCropError{Rect: rect}
	}
	scaleX := float64(g.PreviewWidth) / float64(g.SensorWidth)
	scaleY := float64(g.PreviewHeight) / float64(g.SensorHeight)

	scaled := Rect{
		X:      round(float64(rect.X) * scaleX),
		Y:      round(float64(rect.Y) * scaleY),
		Width:  round(float64(rect.Width) * scaleX),
		Height: round(float64(rect.Height) * scaleY),
	}

	// 縮小方向では1ピクセル未満に丸められることがあるため、有効なクロップは最低1ピクセルで描画する
	if scaled.Width < 1 {
		scaled.Width = 1
	}
	if scaled.Height < 1 {
		scaled.Height = 1
	}

	clamped := clamp(scaled, g.PreviewWidth, g.PreviewHeight)
	if clamped.Width <= 0 || clamped.Height <= 0 {
		return Rect{}, &InvalidCropError{Rect: rect}
	}
	return clamped, nil
}

// scaleAndClamp は矩形をスケーリングし、縮退チェックの後に範囲内へクランプする
func scaleAndClamp(rect Rect, scaleX, scaleY float64, boundW, boundH int) (Rect, error) {
	scaled := Rect{
		X:      round(float64(rect.X) * scaleX),
		Y:      round(float64(rect.Y) * scaleY),
		Width:  round(float64(rect.Width) * scaleX),
		Height: round(float64(rect.Height) * scaleY),
	}

	if scaled.Width <= 0 || scaled.Height <= 0 {
		return Rect{}, &InvalidCropError{Rect: rect}
	}

	// 全体が範囲の左や上にある矩形は切り詰めると面積が残らない
	clamped := clamp(scaled, boundW, boundH)
	if clamped.Width <= 0 || clamped.Height <= 0 {
		return Rect{}, &InvalidCropError{Rect: rect}
	}
	return clamped, nil
}

// clamp は矩形を [0, bound) の範囲に収める
// 負の原点は範囲外にはみ出した分だけ幅と高さを削り、右下へのはみ出しは残りの領域に切り詰める
func clamp(r Rect, boundW, boundH int) Rect {
	if r.X < 0 {
		r.Width += r.X
		r.X = 0
	}
	if r.Y < 0 {
		r.Height += r.Y
		r.Y = 0
	}
	r.X = clampInt(r.X, 0, boundW-1)
	r.Y = clampInt(r.Y, 0, boundH-1)
	if r.X+r.Width > boundW {
		r.Width = boundW - r.X
	}
	if r.Y+r.Height > boundH {
		r.Height = boundH - r.Y
	}
	return r
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// round は四捨五入（0から遠い方向）で整数に丸める
func round(v float64) int {
	return int(math.Round(v))
}
