// Package gallery はキャプチャした写真と動画をメモリ上で管理する
//
// 成果物は ObjectStore に保存され、一時的な参照URL（blob:<uuid>）で参照される。
// Gallery は新しいものを先頭に並べ、項目の削除時には参照URLも破棄する。
package gallery
