// Package api はHTTP APIの契約を定義する
//
// openapi.yaml を埋め込み、リクエスト検証ミドルウェアとハンドラの登録を提供する。
// 型とルーティングは oapi-codegen の gin サーバー出力と同じ形をしている。
package api
