package settings

import "multicam/internal/geometry"

// Update は部分更新を表す。nil のフィールドは変更しない
// クロップを解除する場合は ClearCrop を使う
type Update struct {
	Brightness     *int           `json:"brightness,omitempty"`
	Contrast       *int           `json:"contrast,omitempty"`
	Saturation     *int           `json:"saturation,omitempty"`
	ISO            *int           `json:"iso,omitempty"`
	ShutterSpeedUS *int           `json:"shutter_speed_us,omitempty"`
	WhiteBalance   *WhiteBalance  `json:"white_balance,omitempty"`
	ExposureMode   *ExposureMode  `json:"exposure_mode,omitempty"`
	JPEGQuality    *int           `json:"jpeg_quality,omitempty"`
	FlipHorizontal *bool          `json:"flip_horizontal,omitempty"`
	FlipVertical   *bool          `json:"flip_vertical,omitempty"`
	Rotation       *int           `json:"rotation_degrees,omitempty"`
	Grayscale      *bool          `json:"grayscale,omitempty"`
	Crop           *geometry.Rect `json:"crop,omitempty"`
	ClearCrop      bool           `json:"clear_crop,omitempty"`
}

// IsEmpty は変更が一つも含まれていないかを返す
func (u Update) IsEmpty() bool {
	return u == Update{}
}

// Merge は base に u の指定フィールドだけを反映した新しいスナップショットを返す
// 結果は検証されていないため、呼び出し側で Validate を通すこと
func Merge(base CameraSettings, u Update) CameraSettings {
	out := base.Clone()

	if u.Brightness != nil {
		out.Brightness = *u.Brightness
	}
	if u.Contrast != nil {
		out.Contrast = *u.Contrast
	}
	if u.Saturation != nil {
		out.Saturation = *u.Saturation
	}
	if u.ISO != nil {
		out.ISO = *u.ISO
	}
	if u.ShutterSpeedUS != nil {
		out.ShutterSpeedUS = *u.ShutterSpeedUS
	}
	if u.WhiteBalance != nil {
		out.WhiteBalance = *u.WhiteBalance
	}
	if u.ExposureMode != nil {
		out.ExposureMode = *u.ExposureMode
	}
	if u.JPEGQuality != nil {
		out.JPEGQuality = *u.JPEGQuality
	}
	if u.FlipHorizontal != nil {
		out.FlipHorizontal = *u.FlipHorizontal
	}
	if u.FlipVertical != nil {
		out.FlipVertical = *u.FlipVertical
	}
	if u.Rotation != nil {
		out.Rotation = *u.Rotation
	}
	if u.Grayscale != nil {
		out.Grayscale = *u.Grayscale
	}
	if u.ClearCrop {
		out.Crop = nil
	} else if u.Crop != nil {
		crop := *u.Crop
		out.Crop = &crop
	}

	return out
}
