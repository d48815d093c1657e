package boosty

// Content block type tags used by the API.
const (
	TypeImage = "image"
	TypeVideo = "ok_video"
	TypeAudio = "audio_file"
	TypeFile  = "file"
	TypeText  = "text"
	TypeLink  = "link"
)

// VideoQualityRank maps known playback quality tags to their preference rank.
// URLs with a tag outside this map are ignored.
var VideoQualityRank = map[string]int{
	"low":      0,
	"medium":   1,
	"high":     2,
	"full_hd":  3,
	"ultra_hd": 4,
}

// PageExtra carries pagination info on every list response.
type PageExtra struct {
	IsLast bool   `json:"isLast"`
	Offset string `json:"offset"`
}

// PlayerURL is one quality-tagged playback URL of a video.
type PlayerURL struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// MediaItem is one media record inside a media-album entry.
type MediaItem struct {
	ID         string      `json:"id"`
	URL        string      `json:"url"`
	Width      int         `json:"width"`
	Height     int         `json:"height"`
	Size       int64       `json:"size"`
	Title      string      `json:"title"`
	Preview    string      `json:"preview"`
	PlayerURLs []PlayerURL `json:"playerUrls"`
}

// MediaPostInfo is the owning-post envelope of a media-album entry.
type MediaPostInfo struct {
	HasAccess   bool   `json:"hasAccess"`
	SignedQuery string `json:"signedQuery"`
}

// MediaPost is one entry of a media-album page: the post envelope plus its
// media records.
type MediaPost struct {
	Post  MediaPostInfo `json:"post"`
	Media []MediaItem   `json:"media"`
}

// MediaPage is one page of the media-album stream.
type MediaPage struct {
	Data struct {
		MediaPosts []MediaPost `json:"mediaPosts"`
	} `json:"data"`
	Extra PageExtra `json:"extra"`
}

// ContentBlock is one typed block of a post's body. Which fields are set
// depends on Type.
type ContentBlock struct {
	Type        string      `json:"type"`
	ID          string      `json:"id"`
	URL         string      `json:"url"`
	Width       int         `json:"width"`
	Height      int         `json:"height"`
	Size        int64       `json:"size"`
	Title       string      `json:"title"`
	Content     string      `json:"content"`
	Modificator string      `json:"modificator"`
	Preview     string      `json:"preview"`
	PlayerURLs  []PlayerURL `json:"playerUrls"`
}

// Tag is a post tag.
type Tag struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// PostEntry is one post of the post stream.
type PostEntry struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	PublishTime int64          `json:"publishTime"`
	HasAccess   bool           `json:"hasAccess"`
	SignedQuery string         `json:"signedQuery"`
	Data        []ContentBlock `json:"data"`
	Tags        []Tag          `json:"tags"`
}

// PostPage is one page of the post stream.
type PostPage struct {
	Data  []PostEntry `json:"data"`
	Extra PageExtra   `json:"extra"`
}

// Counters holds the creator's public media counts.
type Counters struct {
	Photos int64
	Videos int64
	Audios int64
}

type countersResponse struct {
	Data struct {
		MediaCounters struct {
			Image     int64 `json:"image"`
			OkVideo   int64 `json:"okVideo"`
			AudioFile int64 `json:"audioFile"`
		} `json:"mediaCounters"`
	} `json:"data"`
}
