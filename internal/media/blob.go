package media

// Blob は型付きの不変バイト列
type Blob struct {
	Data []byte
	Type string // MIMEタイプ（例: image/png）
}

// NewBlob は parts を順番に連結した新しいBlobを作成する
func NewBlob(parts []Blob, mimeType string) Blob {
	size := 0
	for _, p := range parts {
		size += len(p.Data)
	}

	data := make([]byte, 0, size)
	for _, p := range parts {
		data = append(data, p.Data...)
	}
	return Blob{Data: data, Type: mimeType}
}

// Size はバイト数を返す
func (b Blob) Size() int {
	return len(b.Data)
}
