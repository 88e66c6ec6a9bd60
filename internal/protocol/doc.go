// Package protocol マスターとカメラユニット間のテキストコマンドを符号化・復号する
//
// # 責務
// - Command（閉じた直和型）と1データグラム分の文字列の相互変換
// - 受信文字列の最長一致プレフィックスによる識別と、ペイロードの検証
//
// # 仕様
//
//	START_STREAM
//	STOP_STREAM
//	RESTART_STREAM_WITH_SETTINGS[<json>]
//	CAPTURE_STILL
//	SET_ALL_SETTINGS_<json>
//	SET_FLIP_HORIZONTAL_<true|false>
//	SET_FLIP_VERTICAL_<true|false>
//	SET_ROTATION_<0|90|180|270>
//	SET_GRAYSCALE_<true|false>
//	RESET_TO_FACTORY_DEFAULTS
//	REBOOT
//	SHUTDOWN
//	HEARTBEAT
//
// - JSONのキーは settings.CameraSettings のフィールド名と一致する
// - Decode(Encode(c)) == c が全てのコマンドで成り立つ
// - 送受信は行わない（トランスポートは transport パッケージが担う）
package protocol
