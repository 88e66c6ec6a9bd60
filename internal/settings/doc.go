// Package settings カメラ設定スナップショットの検証・変換・マージを担う
//
// # 責務
// - CameraSettings の各フィールドを範囲・列挙値で検証する
// - GUI側のドメインスケールとカメラAPI側のデバイススケールを相互変換する
// - 部分更新を既存スナップショットにマージする
//
// # 仕様
// - スナップショットは値型で、更新は常に新しいスナップショットを返す
// - 検証は固定の順序で行い、最初の違反を ValidationError として返す
// - クランプは行わない（採否は呼び出し側が決める）
// - 共有状態を持たないため並行呼び出しに同期は不要
package settings
