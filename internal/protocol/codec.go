package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"sort"
	"strconv"
	"strings"

	"multicam/internal/geometry"
	"multicam/internal/settings"
)

// ワイヤ上のトークン
const (
	tokenStartStream       = "START_STREAM"
	tokenStopStream        = "STOP_STREAM"
	tokenRestartStream     = "RESTART_STREAM_WITH_SETTINGS"
	tokenCaptureStill      = "CAPTURE_STILL"
	tokenSetAllSettings    = "SET_ALL_SETTINGS_"
	tokenSetFlipHorizontal = "SET_FLIP_HORIZONTAL_"
	tokenSetFlipVertical   = "SET_FLIP_VERTICAL_"
	tokenSetRotation       = "SET_ROTATION_"
	tokenSetGrayscale      = "SET_GRAYSCALE_"
	tokenFactoryReset      = "RESET_TO_FACTORY_DEFAULTS"
	tokenReboot            = "REBOOT"
	tokenShutdown          = "SHUTDOWN"
	tokenHeartbeat         = "HEARTBEAT"
)

// UnknownCommandError は既知のプレフィックスに一致しない受信文字列を表す
type UnknownCommandError struct {
	Raw string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("不明なコマンド: %q", e.Raw)
}

// PayloadError はペイロードが構文的に解釈できない場合のエラー
// 値の範囲違反は settings.ValidationError で返す
type PayloadError struct {
	Command string
	Err     error
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("%s のペイロードが不正です: %v", e.Command, e.Err)
}

func (e *PayloadError) Unwrap() error {
	return e.Err
}

// parser はトークン以降の残りを解釈する
type parser func(c *Codec, raw, payload string) (Command, error)

type rule struct {
	token string
	parse parser
}

// rules は最長一致の順に並べたトークン表
// SET_CAMERA_* は旧マスターが送っていた表記で、復号のみ受け付ける
var rules = sortedRules([]rule{
	{tokenStartStream, exact(StartStream{})},
	{tokenStopStream, exact(StopStream{})},
	{tokenRestartStream, parseRestart},
	{tokenCaptureStill, exact(CaptureStill{})},
	{tokenSetAllSettings, parseSetAll},
	{tokenSetFlipHorizontal, parseFlipHorizontal},
	{tokenSetFlipVertical, parseFlipVertical},
	{tokenSetRotation, parseRotation},
	{tokenSetGrayscale, parseGrayscale},
	{tokenFactoryReset, exact(ResetToFactoryDefaults{})},
	{tokenReboot, exact(Reboot{})},
	{tokenShutdown, exact(Shutdown{})},
	{tokenHeartbeat, exact(Heartbeat{})},
	{"SET_CAMERA_FLIP_HORIZONTAL_", parseFlipHorizontal},
	{"SET_CAMERA_FLIP_VERTICAL_", parseFlipVertical},
	{"SET_CAMERA_ROTATION_", parseRotation},
	{"SET_CAMERA_GRAYSCALE_", parseGrayscale},
})

func sortedRules(rs []rule) []rule {
	sort.SliceStable(rs, func(i, j int) bool {
		return len(rs[i].token) > len(rs[j].token)
	})
	return rs
}

// Codec はコマンドの符号化・復号を行う
// Limits は SET_ALL_SETTINGS などのペイロード検証に使う
type Codec struct {
	Limits settings.Limits
}

// NewCodec は指定した範囲で検証するCodecを作成する
func NewCodec(limits settings.Limits) *Codec {
	return &Codec{Limits: limits}
}

var defaultCodec = NewCodec(settings.DefaultLimits())

// Encode は既定のCodecでコマンドを符号化する
func Encode(cmd Command) string {
	return defaultCodec.Encode(cmd)
}

// Decode は既定のCodecで受信文字列を復号する
func Decode(raw string) (Command, error) {
	return defaultCodec.Decode(raw)
}

// Encode はコマンドを1データグラム分の文字列に符号化する
func (c *Codec) Encode(cmd Command) string {
	switch v := cmd.(type) {
	case SetAllSettings:
		return tokenSetAllSettings + encodeSettings(v.Settings)
	case RestartWithSettings:
		if v.Settings == nil {
			return tokenRestartStream
		}
		return tokenRestartStream + encodeSettings(*v.Settings)
	case SetFlipHorizontal:
		return tokenSetFlipHorizontal + strconv.FormatBool(v.Enabled)
	case SetFlipVertical:
		return tokenSetFlipVertical + strconv.FormatBool(v.Enabled)
	case SetGrayscale:
		return tokenSetGrayscale + strconv.FormatBool(v.Enabled)
	case SetRotation:
		return tokenSetRotation + strconv.Itoa(v.Degrees)
	default:
		return cmd.Name()
	}
}

// Decode は受信文字列を最長一致のトークンで識別し、ペイロードを検証して復号する
func (c *Codec) Decode(raw string) (Command, error) {
	msg := strings.TrimSpace(raw)
	for _, r := range rules {
		if strings.HasPrefix(msg, r.token) {
			return r.parse(c, raw, msg[len(r.token):])
		}
	}
	return nil, &UnknownCommandError{Raw: raw}
}

// exact はペイロードを持たないコマンドのパーサーを返す
// 余分な文字列が続く場合は未知のコマンドとして扱う
func exact(cmd Command) parser {
	return func(_ *Codec, raw, payload string) (Command, error) {
		if payload != "" {
			return nil, &UnknownCommandError{Raw: raw}
		}
		return cmd, nil
	}
}

func parseRestart(c *Codec, _, payload string) (Command, error) {
	if payload == "" {
		return RestartWithSettings{}, nil
	}
	s, err := c.decodeSettings(tokenRestartStream, strings.TrimPrefix(payload, "_"))
	if err != nil {
		return nil, err
	}
	return RestartWithSettings{Settings: &s}, nil
}

func parseSetAll(c *Codec, _, payload string) (Command, error) {
	s, err := c.decodeSettings(tokenSetAllSettings, payload)
	if err != nil {
		return nil, err
	}
	return SetAllSettings{Settings: s}, nil
}

func parseFlipHorizontal(_ *Codec, _, payload string) (Command, error) {
	v, err := parseBool(settings.FieldFlipHorizontal, payload)
	if err != nil {
		return nil, err
	}
	return SetFlipHorizontal{Enabled: v}, nil
}

func parseFlipVertical(_ *Codec, _, payload string) (Command, error) {
	v, err := parseBool(settings.FieldFlipVertical, payload)
	if err != nil {
		return nil, err
	}
	return SetFlipVertical{Enabled: v}, nil
}

func parseGrayscale(_ *Codec, _, payload string) (Command, error) {
	v, err := parseBool(settings.FieldGrayscale, payload)
	if err != nil {
		return nil, err
	}
	return SetGrayscale{Enabled: v}, nil
}

func parseRotation(_ *Codec, _, payload string) (Command, error) {
	degrees, err := strconv.Atoi(payload)
	if err != nil || !slices.Contains(settings.Rotations, degrees) {
		return nil, &settings.ValidationError{Field: settings.FieldRotation, Value: payload, Bound: settings.Rotations}
	}
	return SetRotation{Degrees: degrees}, nil
}

// parseBool は true/false を大文字小文字を区別せずに解釈する（旧形式は TRUE/FALSE）
func parseBool(field, payload string) (bool, error) {
	switch {
	case strings.EqualFold(payload, "true"):
		return true, nil
	case strings.EqualFold(payload, "false"):
		return false, nil
	default:
		return false, &settings.ValidationError{Field: field, Value: payload, Bound: []string{"true", "false"}}
	}
}

// wireSettings はペイロードの受信用。キーの欠落を検出するため全てポインタで受ける
type wireSettings struct {
	Brightness     *int            `json:"brightness"`
	Contrast       *int            `json:"contrast"`
	Saturation     *int            `json:"saturation"`
	ISO            *int            `json:"iso"`
	ShutterSpeedUS *int            `json:"shutter_speed_us"`
	WhiteBalance   *string         `json:"white_balance"`
	ExposureMode   *string         `json:"exposure_mode"`
	JPEGQuality    *int            `json:"jpeg_quality"`
	FlipHorizontal *bool           `json:"flip_horizontal"`
	FlipVertical   *bool           `json:"flip_vertical"`
	Rotation       *int            `json:"rotation_degrees"`
	Grayscale      *bool           `json:"grayscale"`
	Crop           json.RawMessage `json:"crop"`
}

func encodeSettings(s settings.CameraSettings) string {
	// CameraSettings は数値・文字列・bool・矩形のみで構成されるため Marshal は失敗しない
	data, _ := json.Marshal(s)
	return string(data)
}

func (c *Codec) decodeSettings(command, payload string) (settings.CameraSettings, error) {
	dec := json.NewDecoder(strings.NewReader(payload))
	dec.DisallowUnknownFields()

	var w wireSettings
	if err := dec.Decode(&w); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return settings.CameraSettings{}, &settings.ValidationError{Field: typeErr.Field, Value: typeErr.Value, Bound: typeErr.Type.String()}
		}
		return settings.CameraSettings{}, &PayloadError{Command: command, Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return settings.CameraSettings{}, &PayloadError{Command: command, Err: errors.New("JSONオブジェクトの後に余分なデータがあります")}
	}

	s, cropErr, err := w.toSettings()
	if err != nil {
		return settings.CameraSettings{}, err
	}
	// crop は検証順の最後なので、解釈できないクロップは他の項目の検証後に報告する
	validated, err := c.Limits.Validate(s)
	if err != nil {
		return settings.CameraSettings{}, err
	}
	if cropErr != nil {
		return settings.CameraSettings{}, cropErr
	}
	return validated, nil
}

// toSettings は全キーが揃っていることを確認して CameraSettings を組み立てる
// 値の範囲と列挙値は検証しない。欠落したキーは検証順に報告する
// 解釈できないクロップは cropErr として返し、Crop は nil のままにする
func (w wireSettings) toSettings() (s settings.CameraSettings, cropErr error, err error) {
	required := []struct {
		field   string
		present bool
	}{
		{settings.FieldBrightness, w.Brightness != nil},
		{settings.FieldContrast, w.Contrast != nil},
		{settings.FieldSaturation, w.Saturation != nil},
		{settings.FieldISO, w.ISO != nil},
		{settings.FieldShutterSpeedUS, w.ShutterSpeedUS != nil},
		{settings.FieldWhiteBalance, w.WhiteBalance != nil},
		{settings.FieldExposureMode, w.ExposureMode != nil},
		{settings.FieldJPEGQuality, w.JPEGQuality != nil},
		{settings.FieldRotation, w.Rotation != nil},
		{settings.FieldFlipHorizontal, w.FlipHorizontal != nil},
		{settings.FieldFlipVertical, w.FlipVertical != nil},
		{settings.FieldGrayscale, w.Grayscale != nil},
		{settings.FieldCrop, w.Crop != nil},
	}
	for _, f := range required {
		if !f.present {
			return settings.CameraSettings{}, nil, missing(f.field)
		}
	}

	s = settings.CameraSettings{
		Brightness:     *w.Brightness,
		Contrast:       *w.Contrast,
		Saturation:     *w.Saturation,
		ISO:            *w.ISO,
		ShutterSpeedUS: *w.ShutterSpeedUS,
		WhiteBalance:   settings.NormalizeWhiteBalance(*w.WhiteBalance),
		ExposureMode:   settings.NormalizeExposureMode(*w.ExposureMode),
		JPEGQuality:    *w.JPEGQuality,
		FlipHorizontal: *w.FlipHorizontal,
		FlipVertical:   *w.FlipVertical,
		Rotation:       *w.Rotation,
		Grayscale:      *w.Grayscale,
	}

	if !bytes.Equal(bytes.TrimSpace(w.Crop), []byte("null")) {
		var crop geometry.Rect
		if err := json.Unmarshal(w.Crop, &crop); err != nil {
			return s, &settings.ValidationError{Field: settings.FieldCrop, Value: string(w.Crop), Bound: "{x, y, width, height}"}, nil
		}
		s.Crop = &crop
	}

	return s, nil, nil
}

func missing(field string) error {
	return &settings.ValidationError{Field: field, Value: nil, Bound: "required"}
}
