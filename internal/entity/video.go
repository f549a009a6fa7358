package entity

// VideoDetails is the raw metadata reported by the extraction client.
type VideoDetails struct {
	Title     string
	Duration  float64
	Uploader  string
	Thumbnail string
	Formats   []SourceFormat
}

// SourceFormat is one stream variant as the extractor sees it.
type SourceFormat struct {
	FormatID string
	Ext      string
	VCodec   string
	Height   int
	Filesize int64
}

// VideoInfo is the shaped metadata served to clients.
type VideoInfo struct {
	Title     string         `json:"title"`
	Duration  float64        `json:"duration"`
	Uploader  string         `json:"uploader"`
	Thumbnail string         `json:"thumbnail"`
	Formats   []FormatOption `json:"formats"`
}

type FormatOption struct {
	Quality  string `json:"quality"`
	FormatID string `json:"format_id"`
	Ext      string `json:"ext"`
	Filesize int64  `json:"filesize"`
}
