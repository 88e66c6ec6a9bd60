// Package api はHTTP APIのOpenAPI定義を提供する
package api

import _ "embed"

// Spec は openapi.yaml の内容
//
//go:embed openapi.yaml
var Spec []byte
