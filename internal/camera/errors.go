package camera

import "errors"

var (
	// ErrNotFound は要求を満たす映像入力デバイスがないことを表す
	ErrNotFound = errors.New("映像入力デバイスが見つかりません")

	// ErrOverconstrained は完全一致で指定されたデバイスが存在しないことを表す
	ErrOverconstrained = errors.New("指定されたデバイスが存在しません")

	// ErrNotAllowed はデバイスへのアクセス権限がないことを表す
	ErrNotAllowed = errors.New("デバイスへのアクセスが許可されていません")

	// ErrNotReadable はデバイスを開けない（使用中・故障など）ことを表す
	ErrNotReadable = errors.New("デバイスから映像を読み取れません")
)
