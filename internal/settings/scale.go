package settings

import "math"

// デバイススケールへの換算係数
const (
	// BrightnessScale: ドメイン [-100,100] → デバイス [-1.0,1.0]
	BrightnessScale = 100.0
	// ColorScale: ドメイン [0,100]（50が中立）→ デバイス [0.0,2.0]（1.0が中立）
	ColorScale = 50.0
	// ISOPerGain: ISO100 をアナログゲイン1.0とみなす
	ISOPerGain = 100.0
)

// ToDeviceScale はドメインスケールの設定をカメラAPI向けに変換する
// ISOとシャッター速度はそのまま渡す
func ToDeviceScale(s CameraSettings) DeviceSettings {
	s = s.Clone()
	return DeviceSettings{
		Brightness:     float64(s.Brightness) / BrightnessScale,
		Contrast:       float64(s.Contrast) / ColorScale,
		Saturation:     float64(s.Saturation) / ColorScale,
		ISO:            s.ISO,
		AnalogueGain:   float64(s.ISO) / ISOPerGain,
		ShutterSpeedUS: s.ShutterSpeedUS,
		WhiteBalance:   s.WhiteBalance,
		ExposureMode:   s.ExposureMode,
		JPEGQuality:    s.JPEGQuality,
		FlipHorizontal: s.FlipHorizontal,
		FlipVertical:   s.FlipVertical,
		Rotation:       s.Rotation,
		Grayscale:      s.Grayscale,
		Crop:           s.Crop,
	}
}

// ToDomainScale は ToDeviceScale の逆変換
// 有効な整数値であれば ToDomainScale(ToDeviceScale(s)) == s が成り立つ
func ToDomainScale(d DeviceSettings) CameraSettings {
	s := CameraSettings{
		Brightness:     int(math.Round(d.Brightness * BrightnessScale)),
		Contrast:       int(math.Round(d.Contrast * ColorScale)),
		Saturation:     int(math.Round(d.Saturation * ColorScale)),
		ISO:            d.ISO,
		ShutterSpeedUS: d.ShutterSpeedUS,
		WhiteBalance:   d.WhiteBalance,
		ExposureMode:   d.ExposureMode,
		JPEGQuality:    d.JPEGQuality,
		FlipHorizontal: d.FlipHorizontal,
		FlipVertical:   d.FlipVertical,
		Rotation:       d.Rotation,
		Grayscale:      d.Grayscale,
		Crop:           d.Crop,
	}
	return s.Clone()
}
