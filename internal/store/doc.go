// Package store カメラごとの設定と表示名をSQLiteに永続化する
//
// # 責務
// - 検証済み設定スナップショットの保存と読み込み
// - 表示名の保存と読み込み
//
// # 仕様
// - テーブル cameras(id, display_name, settings_json, updated_at)
// - 読み込んだ設定は保存時と異なる範囲設定でも安全なように再検証する
// - 見つからない場合はエラーではなく nil を返す
package store
