package settings

import (
	"fmt"
	"slices"
	"strings"
)

// フィールド名（ワイヤ形式のキーと一致する）
const (
	FieldBrightness     = "brightness"
	FieldContrast       = "contrast"
	FieldSaturation     = "saturation"
	FieldISO            = "iso"
	FieldShutterSpeedUS = "shutter_speed_us"
	FieldWhiteBalance   = "white_balance"
	FieldExposureMode   = "exposure_mode"
	FieldJPEGQuality    = "jpeg_quality"
	FieldFlipHorizontal = "flip_horizontal"
	FieldFlipVertical   = "flip_vertical"
	FieldRotation       = "rotation_degrees"
	FieldGrayscale      = "grayscale"
	FieldCrop           = "crop"
)

// Range は閉区間 [Min, Max]
type Range struct {
	Min int
	Max int
}

func (r Range) String() string {
	return fmt.Sprintf("[%d, %d]", r.Min, r.Max)
}

// Contains は v が区間内かを返す
func (r Range) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

// ValidationError は設定値が範囲・列挙値に違反していることを表す
// Bound は Range または許容値のスライス
type ValidationError struct {
	Field string
	Value any
	Bound any
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("設定値が範囲外です: %s=%v (許容: %v)", e.Field, e.Value, e.Bound)
}

// Limits は検証に使う範囲
// 明るさの範囲だけは設定で差し替えられる
type Limits struct {
	Brightness Range
}

// DefaultLimits は既定の範囲を返す
func DefaultLimits() Limits {
	return Limits{Brightness: Range{Min: DefaultBrightnessMin, Max: DefaultBrightnessMax}}
}

// Validate は既定の範囲で設定を検証する
func Validate(s CameraSettings) (CameraSettings, error) {
	return DefaultLimits().Validate(s)
}

// Validate は設定を検証し、問題なければ独立したコピーを返す
// 検証順: brightness, contrast, saturation, iso, shutter_speed_us, white_balance,
// exposure_mode, jpeg_quality, rotation_degrees, crop
func (l Limits) Validate(s CameraSettings) (CameraSettings, error) {
	checks := []struct {
		field string
		value int
		bound Range
	}{
		{FieldBrightness, s.Brightness, l.Brightness},
		{FieldContrast, s.Contrast, Range{ContrastMin, ContrastMax}},
		{FieldSaturation, s.Saturation, Range{SaturationMin, SaturationMax}},
		{FieldISO, s.ISO, Range{ISOMin, ISOMax}},
		{FieldShutterSpeedUS, s.ShutterSpeedUS, Range{ShutterSpeedMin, ShutterSpeedMax}},
	}
	for _, c := range checks {
		if !c.bound.Contains(c.value) {
			return CameraSettings{}, &ValidationError{Field: c.field, Value: c.value, Bound: c.bound}
		}
	}

	if !slices.Contains(WhiteBalances, s.WhiteBalance) {
		return CameraSettings{}, &ValidationError{Field: FieldWhiteBalance, Value: string(s.WhiteBalance), Bound: WhiteBalances}
	}
	if !slices.Contains(ExposureModes, s.ExposureMode) {
		return CameraSettings{}, &ValidationError{Field: FieldExposureMode, Value: string(s.ExposureMode), Bound: ExposureModes}
	}
	if quality := (Range{JPEGQualityMin, JPEGQualityMax}); !quality.Contains(s.JPEGQuality) {
		return CameraSettings{}, &ValidationError{Field: FieldJPEGQuality, Value: s.JPEGQuality, Bound: quality}
	}
	if !slices.Contains(Rotations, s.Rotation) {
		return CameraSettings{}, &ValidationError{Field: FieldRotation, Value: s.Rotation, Bound: Rotations}
	}
	if err := validateCrop(s); err != nil {
		return CameraSettings{}, err
	}

	return s.Clone(), nil
}

// validateCrop はクロップ矩形の原点が非負で、面積が正であることを検証する
// センサーサイズとの比較は geometry パッケージの責務
func validateCrop(s CameraSettings) error {
	if s.Crop == nil {
		return nil
	}
	c := *s.Crop
	if c.X < 0 || c.Y < 0 || c.Width < 1 || c.Height < 1 {
		return &ValidationError{Field: FieldCrop, Value: c, Bound: "x>=0, y>=0, width>=1, height>=1"}
	}
	return nil
}

// ParseWhiteBalance は大文字小文字を区別せずにホワイトバランスを解釈する
// 旧GUIは "Auto" のような表記を送るため
func ParseWhiteBalance(v string) (WhiteBalance, error) {
	wb := NormalizeWhiteBalance(v)
	if !slices.Contains(WhiteBalances, wb) {
		return "", &ValidationError{Field: FieldWhiteBalance, Value: v, Bound: WhiteBalances}
	}
	return wb, nil
}

// ParseExposureMode は大文字小文字を区別せずに露出モードを解釈する
func ParseExposureMode(v string) (ExposureMode, error) {
	mode := NormalizeExposureMode(v)
	if !slices.Contains(ExposureModes, mode) {
		return "", &ValidationError{Field: FieldExposureMode, Value: v, Bound: ExposureModes}
	}
	return mode, nil
}

// NormalizeWhiteBalance は表記を小文字にそろえる。値が既知かどうかは Validate で検証する
func NormalizeWhiteBalance(v string) WhiteBalance {
	return WhiteBalance(strings.ToLower(strings.TrimSpace(v)))
}

// NormalizeExposureMode は表記を小文字にそろえる
func NormalizeExposureMode(v string) ExposureMode {
	return ExposureMode(strings.ToLower(strings.TrimSpace(v)))
}
