package transport

import (
	"net"
	"strconv"

	"multicam/internal/config"
	"multicam/internal/protocol"
)

// PortFor はコマンド分類に対応する送信先ポートを返す
// 撮影は静止画ポート、ストリーム制御はストリーム制御ポート、それ以外は制御ポート
func PortFor(class protocol.Class, p config.Ports) int {
	switch class {
	case protocol.ClassCapture:
		return p.Still
	case protocol.ClassVideoControl:
		return p.VideoControl
	case protocol.ClassHeartbeat:
		return p.Heartbeat
	default:
		return p.Control
	}
}

// Address はカメラとコマンドから送信先の "host:port" を組み立てる
func Address(ip string, cmd protocol.Command, p config.Ports) string {
	return net.JoinHostPort(ip, strconv.Itoa(PortFor(cmd.Class(), p)))
}

// DefaultPriority はコマンドごとの既定の優先度を返す
func DefaultPriority(cmd protocol.Command) Priority {
	switch cmd.(type) {
	case protocol.Shutdown, protocol.Reboot:
		return PriorityCritical
	case protocol.CaptureStill, protocol.StopStream:
		return PriorityHigh
	case protocol.Heartbeat:
		return PriorityLow
	default:
		return PriorityNormal
	}
}
