package settings

import (
	"multicam/internal/geometry"
)

// WhiteBalance はホワイトバランスのモード
type WhiteBalance string

const (
	WhiteBalanceAuto         WhiteBalance = "auto"
	WhiteBalanceDaylight     WhiteBalance = "daylight"
	WhiteBalanceCloudy       WhiteBalance = "cloudy"
	WhiteBalanceTungsten     WhiteBalance = "tungsten"
	WhiteBalanceFluorescent  WhiteBalance = "fluorescent"
	WhiteBalanceIncandescent WhiteBalance = "incandescent"
	WhiteBalanceFlash        WhiteBalance = "flash"
	WhiteBalanceHorizon      WhiteBalance = "horizon"
)

// WhiteBalances は有効なホワイトバランスの一覧
var WhiteBalances = []WhiteBalance{
	WhiteBalanceAuto, WhiteBalanceDaylight, WhiteBalanceCloudy, WhiteBalanceTungsten,
	WhiteBalanceFluorescent, WhiteBalanceIncandescent, WhiteBalanceFlash, WhiteBalanceHorizon,
}

// ExposureMode は露出モード
type ExposureMode string

const (
	ExposureAuto     ExposureMode = "auto"
	ExposureManual   ExposureMode = "manual"
	ExposureNight    ExposureMode = "night"
	ExposureSports   ExposureMode = "sports"
	ExposureSnow     ExposureMode = "snow"
	ExposureBeach    ExposureMode = "beach"
	ExposureVeryLong ExposureMode = "verylong"
	ExposureFixedFPS ExposureMode = "fixedfps"
)

// ExposureModes は有効な露出モードの一覧
var ExposureModes = []ExposureMode{
	ExposureAuto, ExposureManual, ExposureNight, ExposureSports,
	ExposureSnow, ExposureBeach, ExposureVeryLong, ExposureFixedFPS,
}

// Rotations は有効な回転角度（度）
var Rotations = []int{0, 90, 180, 270}

// ドメインスケールの範囲
const (
	// DefaultBrightnessMin/Max は明るさの既定範囲
	// 旧GUIは -50..50 を使っていたため Limits で差し替えられるようにしている
	DefaultBrightnessMin = -100
	DefaultBrightnessMax = 100

	ContrastMin, ContrastMax         = 0, 100
	SaturationMin, SaturationMax     = 0, 100
	ISOMin, ISOMax                   = 100, 6400
	ShutterSpeedMin, ShutterSpeedMax = 1, 1_000_000
	JPEGQualityMin, JPEGQualityMax   = 1, 100

	NeutralBrightness = 0
	NeutralContrast   = 50
	NeutralSaturation = 50
)

// CameraSettings は1台のカメラの設定スナップショット（ドメインスケール）
// Crop はセンサー座標で、nil はセンサー全体を意味する
type CameraSettings struct {
	Brightness     int            `json:"brightness"`
	Contrast       int            `json:"contrast"`
	Saturation     int            `json:"saturation"`
	ISO            int            `json:"iso"`
	ShutterSpeedUS int            `json:"shutter_speed_us"`
	WhiteBalance   WhiteBalance   `json:"white_balance"`
	ExposureMode   ExposureMode   `json:"exposure_mode"`
	JPEGQuality    int            `json:"jpeg_quality"`
	FlipHorizontal bool           `json:"flip_horizontal"`
	FlipVertical   bool           `json:"flip_vertical"`
	Rotation       int            `json:"rotation_degrees"`
	Grayscale      bool           `json:"grayscale"`
	Crop           *geometry.Rect `json:"crop"`
}

// Defaults はニュートラルな既定設定を返す
func Defaults() CameraSettings {
	return CameraSettings{
		Brightness:     NeutralBrightness,
		Contrast:       NeutralContrast,
		Saturation:     NeutralSaturation,
		ISO:            400,
		ShutterSpeedUS: 10000,
		WhiteBalance:   WhiteBalanceAuto,
		ExposureMode:   ExposureAuto,
		JPEGQuality:    95,
		Rotation:       0,
	}
}

// Clone はクロップ矩形も含めて独立したコピーを返す
func (s CameraSettings) Clone() CameraSettings {
	if s.Crop != nil {
		crop := *s.Crop
		s.Crop = &crop
	}
	return s
}

// DeviceSettings はカメラAPIへ渡すデバイススケールの設定
type DeviceSettings struct {
	Brightness     float64        `json:"brightness"`
	Contrast       float64        `json:"contrast"`
	Saturation     float64        `json:"saturation"`
	ISO            int            `json:"iso"`
	AnalogueGain   float64        `json:"analogue_gain"`
	ShutterSpeedUS int            `json:"shutter_speed_us"`
	WhiteBalance   WhiteBalance   `json:"white_balance"`
	ExposureMode   ExposureMode   `json:"exposure_mode"`
	JPEGQuality    int            `json:"jpeg_quality"`
	FlipHorizontal bool           `json:"flip_horizontal"`
	FlipVertical   bool           `json:"flip_vertical"`
	Rotation       int            `json:"rotation_degrees"`
	Grayscale      bool           `json:"grayscale"`
	Crop           *geometry.Rect `json:"crop"`
}
