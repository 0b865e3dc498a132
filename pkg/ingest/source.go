package ingest

// Source は取り込み元を表します。FileSource と URLSource のいずれかです。
type Source interface {
	describe() string
}

// FileSource はアップロードされたファイルです。
type FileSource struct {
	Data        []byte
	ContentType string
}

func (FileSource) describe() string { return "upload" }

// URLSource はリモートの画像 URL です。
type URLSource struct {
	URL string
}

func (s URLSource) describe() string { return s.URL }
