package server

import (
	"multicam/internal/camera"
	"multicam/internal/generated"
	"multicam/internal/geometry"
	"multicam/internal/settings"
	"multicam/internal/transport"
)

// ドメインの型と生成されたAPIスキーマの型の変換

func convertCamera(cam camera.Camera) generated.Camera {
	return generated.Camera{
		Id:       cam.ID,
		Name:     cam.Name,
		Ip:       cam.IP,
		Local:    cam.Local,
		State:    convertCameraState(cam.State),
		Focused:  cam.Focused,
		LastSeen: cam.LastSeen,
		Geometry: generated.PreviewGeometry{
			PreviewWidth:  cam.Geometry.PreviewWidth,
			PreviewHeight: cam.Geometry.PreviewHeight,
			SensorWidth:   cam.Geometry.SensorWidth,
			SensorHeight:  cam.Geometry.SensorHeight,
		},
		Settings: convertSettings(cam.Settings),
	}
}

func convertCameraState(state camera.State) generated.CameraState {
	switch state {
	case camera.StateStreaming:
		return generated.CameraStateStreaming
	case camera.StateCapturing:
		return generated.CameraStateCapturing
	case camera.StateOffline:
		return generated.CameraStateOffline
	default:
		return generated.CameraStateIdle
	}
}

func convertSettings(s settings.CameraSettings) generated.CameraSettings {
	return generated.CameraSettings{
		Brightness:      s.Brightness,
		Contrast:        s.Contrast,
		Saturation:      s.Saturation,
		Iso:             s.ISO,
		ShutterSpeedUs:  s.ShutterSpeedUS,
		WhiteBalance:    string(s.WhiteBalance),
		ExposureMode:    string(s.ExposureMode),
		JpegQuality:     s.JPEGQuality,
		FlipHorizontal:  s.FlipHorizontal,
		FlipVertical:    s.FlipVertical,
		RotationDegrees: s.Rotation,
		Grayscale:       s.Grayscale,
		Crop:            convertRectPtr(s.Crop),
	}
}

func convertDeviceSettings(d settings.DeviceSettings) generated.DeviceSettings {
	return generated.DeviceSettings{
		Brightness:      d.Brightness,
		Contrast:        d.Contrast,
		Saturation:      d.Saturation,
		Iso:             d.ISO,
		AnalogueGain:    d.AnalogueGain,
		ShutterSpeedUs:  d.ShutterSpeedUS,
		WhiteBalance:    string(d.WhiteBalance),
		ExposureMode:    string(d.ExposureMode),
		JpegQuality:     d.JPEGQuality,
		FlipHorizontal:  d.FlipHorizontal,
		FlipVertical:    d.FlipVertical,
		RotationDegrees: d.Rotation,
		Grayscale:       d.Grayscale,
		Crop:            convertRectPtr(d.Crop),
	}
}

func convertCropResult(r *camera.CropResult) generated.CropResult {
	result := generated.CropResult{
		Sensor:  convertRect(r.Sensor),
		Preview: convertRect(r.Preview),
	}
	if r.Warning != nil {
		result.Warning = &generated.GeometryWarning{
			PreviewAspect: r.Warning.PreviewAspect,
			SensorAspect:  r.Warning.SensorAspect,
			Tolerance:     r.Warning.Tolerance,
		}
	}
	return result
}

func convertRect(r geometry.Rect) generated.Rect {
	return generated.Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

func convertRectPtr(r *geometry.Rect) *generated.Rect {
	if r == nil {
		return nil
	}
	rect := convertRect(*r)
	return &rect
}

func convertTransportStats(s transport.Stats) generated.TransportStats {
	return generated.TransportStats{
		Sent:   s.Sent,
		Failed: s.Failed,
		Bytes:  s.Bytes,
		Queued: s.Queued,
	}
}

func toRect(r generated.Rect) geometry.Rect {
	return geometry.Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

// toUpdate はリクエストの部分更新をドメインの Update に変換する
// 列挙値は表記をそろえるだけで、値の検証は settings.Limits に任せる
func toUpdate(req generated.SettingsUpdate) settings.Update {
	u := settings.Update{
		Brightness:     req.Brightness,
		Contrast:       req.Contrast,
		Saturation:     req.Saturation,
		ISO:            req.Iso,
		ShutterSpeedUS: req.ShutterSpeedUs,
		JPEGQuality:    req.JpegQuality,
		FlipHorizontal: req.FlipHorizontal,
		FlipVertical:   req.FlipVertical,
		Rotation:       req.RotationDegrees,
		Grayscale:      req.Grayscale,
		ClearCrop:      req.ClearCrop != nil && *req.ClearCrop,
	}
	if req.WhiteBalance != nil {
		wb := settings.NormalizeWhiteBalance(*req.WhiteBalance)
		u.WhiteBalance = &wb
	}
	if req.ExposureMode != nil {
		mode := settings.NormalizeExposureMode(*req.ExposureMode)
		u.ExposureMode = &mode
	}
	if req.Crop != nil {
		crop := toRect(*req.Crop)
		u.Crop = &crop
	}
	return u
}
