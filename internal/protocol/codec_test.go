package protocol

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"multicam/internal/geometry"
	"multicam/internal/settings"
)

func customSettings() settings.CameraSettings {
	s := settings.Defaults()
	s.Brightness = -35
	s.Contrast = 70
	s.ISO = 1600
	s.ShutterSpeedUS = 33333
	s.WhiteBalance = settings.WhiteBalanceTungsten
	s.ExposureMode = settings.ExposureNight
	s.FlipVertical = true
	s.Rotation = 270
	s.Crop = &geometry.Rect{X: 634, Y: 633, Width: 1268, Height: 950}
	return s
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	s := customSettings()
	commands := []Command{
		StartStream{},
		StopStream{},
		RestartWithSettings{},
		RestartWithSettings{Settings: &s},
		CaptureStill{},
		SetAllSettings{Settings: settings.Defaults()},
		SetAllSettings{Settings: customSettings()},
		SetFlipHorizontal{Enabled: true},
		SetFlipHorizontal{Enabled: false},
		SetFlipVertical{Enabled: true},
		SetRotation{Degrees: 0},
		SetRotation{Degrees: 90},
		SetRotation{Degrees: 180},
		SetRotation{Degrees: 270},
		SetGrayscale{Enabled: true},
		ResetToFactoryDefaults{},
		Reboot{},
		Shutdown{},
		Heartbeat{},
	}

	for _, cmd := range commands {
		wire := Encode(cmd)
		t.Run(wire, func(t *testing.T) {
			got, err := Decode(wire)
			if err != nil {
				t.Fatalf("Decode(%q) failed: %v", wire, err)
			}
			if !reflect.DeepEqual(got, cmd) {
				t.Errorf("Decode(Encode(%#v)) = %#v", cmd, got)
			}
		})
	}
}

func TestEncode_Wire(t *testing.T) {
	testCases := []struct {
		cmd  Command
		want string
	}{
		{StartStream{}, "START_STREAM"},
		{StopStream{}, "STOP_STREAM"},
		{CaptureStill{}, "CAPTURE_STILL"},
		{RestartWithSettings{}, "RESTART_STREAM_WITH_SETTINGS"},
		{SetFlipHorizontal{Enabled: true}, "SET_FLIP_HORIZONTAL_true"},
		{SetFlipVertical{Enabled: false}, "SET_FLIP_VERTICAL_false"},
		{SetRotation{Degrees: 90}, "SET_ROTATION_90"},
		{SetGrayscale{Enabled: true}, "SET_GRAYSCALE_true"},
		{ResetToFactoryDefaults{}, "RESET_TO_FACTORY_DEFAULTS"},
		{Reboot{}, "REBOOT"},
		{Shutdown{}, "SHUTDOWN"},
		{Heartbeat{}, "HEARTBEAT"},
	}

	for _, tc := range testCases {
		t.Run(tc.want, func(t *testing.T) {
			if got := Encode(tc.cmd); got != tc.want {
				t.Errorf("Encode = %q, want %q", got, tc.want)
			}
			if got := tc.cmd.Name(); !strings.HasPrefix(tc.want, got) {
				t.Errorf("Name = %q is not a prefix of %q", got, tc.want)
			}
		})
	}
}

func TestEncode_SetAllSettingsPayload(t *testing.T) {
	wire := Encode(SetAllSettings{Settings: settings.Defaults()})
	if !strings.HasPrefix(wire, "SET_ALL_SETTINGS_{") {
		t.Fatalf("unexpected prefix: %q", wire)
	}
	for _, key := range []string{
		`"brightness":0`, `"contrast":50`, `"saturation":50`, `"iso":400`,
		`"shutter_speed_us":10000`, `"white_balance":"auto"`, `"exposure_mode":"auto"`,
		`"jpeg_quality":95`, `"flip_horizontal":false`, `"flip_vertical":false`,
		`"rotation_degrees":0`, `"grayscale":false`, `"crop":null`,
	} {
		if !strings.Contains(wire, key) {
			t.Errorf("payload に %s が含まれていません: %s", key, wire)
		}
	}
}

func TestDecode_Unknown(t *testing.T) {
	inputs := []string{
		"FOO_BAR",
		"",
		"start_stream",
		"START_STREAMX",
		"REBOOT_NOW",
		"HEARTBEAT 1",
	}

	for _, raw := range inputs {
		t.Run(raw, func(t *testing.T) {
			_, err := Decode(raw)
			var uErr *UnknownCommandError
			if !errors.As(err, &uErr) {
				t.Fatalf("UnknownCommandError が期待されましたが %v でした", err)
			}
			if uErr.Raw != raw {
				t.Errorf("Raw = %q, want %q", uErr.Raw, raw)
			}
		})
	}
}

func TestDecode_TrimsWhitespace(t *testing.T) {
	got, err := Decode("  CAPTURE_STILL\n")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if _, ok := got.(CaptureStill); !ok {
		t.Errorf("got %#v, want CaptureStill", got)
	}
}

func TestDecode_LegacyForms(t *testing.T) {
	testCases := []struct {
		raw  string
		want Command
	}{
		{"SET_CAMERA_FLIP_HORIZONTAL_TRUE", SetFlipHorizontal{Enabled: true}},
		{"SET_CAMERA_FLIP_VERTICAL_FALSE", SetFlipVertical{Enabled: false}},
		{"SET_CAMERA_ROTATION_180", SetRotation{Degrees: 180}},
		{"SET_CAMERA_GRAYSCALE_True", SetGrayscale{Enabled: true}},
		{"SET_FLIP_HORIZONTAL_TRUE", SetFlipHorizontal{Enabled: true}},
	}

	for _, tc := range testCases {
		t.Run(tc.raw, func(t *testing.T) {
			got, err := Decode(tc.raw)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("got %#v, want %#v", got, tc.want)
			}
		})
	}
}

func TestDecode_RestartWithUnderscorePayload(t *testing.T) {
	s := settings.Defaults()
	wire := "RESTART_STREAM_WITH_SETTINGS_" + strings.TrimPrefix(Encode(SetAllSettings{Settings: s}), "SET_ALL_SETTINGS_")

	got, err := Decode(wire)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	r, ok := got.(RestartWithSettings)
	if !ok || r.Settings == nil || !reflect.DeepEqual(*r.Settings, s) {
		t.Errorf("got %#v", got)
	}
}

func TestDecode_ScalarValidation(t *testing.T) {
	testCases := []struct {
		raw   string
		field string
	}{
		{"SET_FLIP_HORIZONTAL_yes", settings.FieldFlipHorizontal},
		{"SET_FLIP_VERTICAL_", settings.FieldFlipVertical},
		{"SET_GRAYSCALE_1", settings.FieldGrayscale},
		{"SET_ROTATION_45", settings.FieldRotation},
		{"SET_ROTATION_-90", settings.FieldRotation},
		{"SET_ROTATION_ninety", settings.FieldRotation},
	}

	for _, tc := range testCases {
		t.Run(tc.raw, func(t *testing.T) {
			_, err := Decode(tc.raw)
			var vErr *settings.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("ValidationError が期待されましたが %v でした", err)
			}
			if vErr.Field != tc.field {
				t.Errorf("Field = %q, want %q", vErr.Field, tc.field)
			}
		})
	}
}

func TestDecode_SettingsPayloadValidation(t *testing.T) {
	valid := strings.TrimPrefix(Encode(SetAllSettings{Settings: settings.Defaults()}), "SET_ALL_SETTINGS_")

	testCases := []struct {
		name    string
		payload string
		field   string
	}{
		{"ISO範囲外", strings.Replace(valid, `"iso":400`, `"iso":7000`, 1), settings.FieldISO},
		{"明るさ範囲外", strings.Replace(valid, `"brightness":0`, `"brightness":150`, 1), settings.FieldBrightness},
		{"キー欠落", strings.Replace(valid, `"jpeg_quality":95,`, ``, 1), settings.FieldJPEGQuality},
		{"null値", strings.Replace(valid, `"grayscale":false`, `"grayscale":null`, 1), settings.FieldGrayscale},
		{"型不一致", strings.Replace(valid, `"contrast":50`, `"contrast":"high"`, 1), settings.FieldContrast},
		{"未知のホワイトバランス", strings.Replace(valid, `"white_balance":"auto"`, `"white_balance":"sunset"`, 1), settings.FieldWhiteBalance},
		{"回転角度", strings.Replace(valid, `"rotation_degrees":0`, `"rotation_degrees":45`, 1), settings.FieldRotation},
		{"クロップ欠落", strings.Replace(valid, `,"crop":null`, ``, 1), settings.FieldCrop},
		{"クロップ面積0", strings.Replace(valid, `"crop":null`, `"crop":{"x":0,"y":0,"width":0,"height":10}`, 1), settings.FieldCrop},
		{"複数の違反は検証順で先の項目を報告", strings.NewReplacer(`"brightness":0`, `"brightness":500`, `"white_balance":"auto"`, `"white_balance":"bogus"`).Replace(valid), settings.FieldBrightness},
		{"不明な露出モードより先にISO", strings.NewReplacer(`"iso":400`, `"iso":7000`, `"exposure_mode":"auto"`, `"exposure_mode":"bogus"`).Replace(valid), settings.FieldISO},
		{"壊れたクロップより先に回転角度", strings.NewReplacer(`"rotation_degrees":0`, `"rotation_degrees":45`, `"crop":null`, `"crop":"wide"`).Replace(valid), settings.FieldRotation},
		{"壊れたクロップ", strings.Replace(valid, `"crop":null`, `"crop":"wide"`, 1), settings.FieldCrop},
		{"欠落も検証順", strings.NewReplacer(`"brightness":0,`, ``, `"white_balance":"auto",`, ``).Replace(valid), settings.FieldBrightness},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode("SET_ALL_SETTINGS_" + tc.payload)
			var vErr *settings.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("ValidationError が期待されましたが %v でした", err)
			}
			if vErr.Field != tc.field {
				t.Errorf("Field = %q, want %q", vErr.Field, tc.field)
			}
		})
	}
}

func TestDecode_MalformedPayload(t *testing.T) {
	valid := strings.TrimPrefix(Encode(SetAllSettings{Settings: settings.Defaults()}), "SET_ALL_SETTINGS_")

	testCases := []struct {
		name string
		raw  string
	}{
		{"空", "SET_ALL_SETTINGS_"},
		{"壊れたJSON", "SET_ALL_SETTINGS_{\"iso\":"},
		{"未知のキー", "SET_ALL_SETTINGS_" + strings.Replace(valid, `{`, `{"hdr":true,`, 1)},
		{"後続データ", "SET_ALL_SETTINGS_" + valid + "{}"},
		{"余分な閉じ括弧", "SET_ALL_SETTINGS_" + valid + "}"},
		{"余分な閉じ角括弧", "SET_ALL_SETTINGS_" + valid + "]"},
		{"再起動の壊れたJSON", "RESTART_STREAM_WITH_SETTINGS{"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.raw)
			var pErr *PayloadError
			if !errors.As(err, &pErr) {
				t.Fatalf("PayloadError が期待されましたが %v でした", err)
			}
			if pErr.Unwrap() == nil {
				t.Error("原因のエラーが保持されていません")
			}
		})
	}
}

func TestCodec_CustomLimits(t *testing.T) {
	s := settings.Defaults()
	s.Brightness = 80
	wire := Encode(SetAllSettings{Settings: s})

	if _, err := Decode(wire); err != nil {
		t.Fatalf("既定範囲では受理されるはずです: %v", err)
	}

	legacy := NewCodec(settings.Limits{Brightness: settings.Range{Min: -50, Max: 50}})
	_, err := legacy.Decode(wire)
	var vErr *settings.ValidationError
	if !errors.As(err, &vErr) || vErr.Field != settings.FieldBrightness {
		t.Errorf("旧範囲では brightness が拒否されるはずです: %v", err)
	}
}

func TestCommand_Class(t *testing.T) {
	testCases := []struct {
		cmd  Command
		want Class
	}{
		{StartStream{}, ClassVideoControl},
		{RestartWithSettings{}, ClassVideoControl},
		{CaptureStill{}, ClassCapture},
		{SetAllSettings{}, ClassSettings},
		{SetRotation{}, ClassTransform},
		{Reboot{}, ClassSystem},
		{Heartbeat{}, ClassHeartbeat},
	}

	for _, tc := range testCases {
		if got := tc.cmd.Class(); got != tc.want {
			t.Errorf("%s.Class() = %q, want %q", tc.cmd.Name(), got, tc.want)
		}
	}
}
