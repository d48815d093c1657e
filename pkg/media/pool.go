package media

// Flags selects which media kinds a pool accepts. A disabled kind is dropped
// at insertion time and never stored.
type Flags struct {
	Photos bool
	Videos bool
	Audios bool
	Files  bool
}

// AllFlags enables every media kind.
func AllFlags() Flags {
	return Flags{Photos: true, Videos: true, Audios: true, Files: true}
}

// VideoMeta is optional metadata carried along with a video record and
// embedded into the downloaded container.
type VideoMeta struct {
	Title      string
	PreviewURL string
}

// Image is a retained image record. TotalWeight is width*height of the
// retained rendition.
type Image struct {
	ID          string
	URL         string
	TotalWeight int
}

// Video is a retained video record at the best quality rank seen so far.
type Video struct {
	ID   string
	URL  string
	Rank int
	Meta *VideoMeta
}

// Audio is a retained audio record.
type Audio struct {
	ID   string
	URL  string
	Size int64
}

// File is a retained attached-file record. Title is used as the saved filename.
type File struct {
	ID    string
	URL   string
	Size  int64
	Title string
}

// Pool accumulates media records across pages, de-duplicating by id within
// each kind. Pools are not safe for concurrent use; each fetch stream owns
// its pool (or shares one pool from a single goroutine at a time via the
// syncer's per-stream split).
type Pool struct {
	flags Flags

	images map[string]*Image
	videos map[string]*Video
	audios map[string]*Audio
	files  map[string]*File

	imageOrder []string
	videoOrder []string
	audioOrder []string
	fileOrder  []string
}

// NewPool creates a pool accepting the enabled kinds.
func NewPool(flags Flags) *Pool {
	return &Pool{
		flags:  flags,
		images: make(map[string]*Image),
		videos: make(map[string]*Video),
		audios: make(map[string]*Audio),
		files:  make(map[string]*File),
	}
}

// AddImage records an image rendition. For a repeated id the record is
// replaced unless the new width*height is strictly lower than the stored one;
// equal-rank repeats overwrite, so the newest URL wins a tie.
func (p *Pool) AddImage(id, url string, width, height int) {
	if !p.flags.Photos {
		return
	}
	weight := width * height
	if current, ok := p.images[id]; ok {
		if weight < current.TotalWeight {
			return
		}
	} else {
		p.imageOrder = append(p.imageOrder, id)
	}
	p.images[id] = &Image{ID: id, URL: url, TotalWeight: weight}
}

// AddVideo records a video rendition with its quality rank, same replacement
// rule as AddImage.
func (p *Pool) AddVideo(id, url string, rank int, meta *VideoMeta) {
	if !p.flags.Videos {
		return
	}
	if current, ok := p.videos[id]; ok {
		if rank < current.Rank {
			return
		}
	} else {
		p.videoOrder = append(p.videoOrder, id)
	}
	p.videos[id] = &Video{ID: id, URL: url, Rank: rank, Meta: meta}
}

// AddAudio records an audio file, replacing by size with the same rule.
func (p *Pool) AddAudio(id, url string, size int64) {
	if !p.flags.Audios {
		return
	}
	if current, ok := p.audios[id]; ok {
		if size < current.Size {
			return
		}
	} else {
		p.audioOrder = append(p.audioOrder, id)
	}
	p.audios[id] = &Audio{ID: id, URL: url, Size: size}
}

// AddFile records an attached file. A repeated id is never replaced; the
// first record wins because its signed query belongs to the post that first
// referenced the file.
func (p *Pool) AddFile(id, url string, size int64, title string) {
	if !p.flags.Files {
		return
	}
	if _, ok := p.files[id]; ok {
		return
	}
	p.fileOrder = append(p.fileOrder, id)
	p.files[id] = &File{ID: id, URL: url, Size: size, Title: title}
}

// Images returns retained images in insertion order.
func (p *Pool) Images() []Image {
	res := make([]Image, 0, len(p.imageOrder))
	for _, id := range p.imageOrder {
		res = append(res, *p.images[id])
	}
	return res
}

// Videos returns retained videos in insertion order.
func (p *Pool) Videos() []Video {
	res := make([]Video, 0, len(p.videoOrder))
	for _, id := range p.videoOrder {
		res = append(res, *p.videos[id])
	}
	return res
}

// Audios returns retained audios in insertion order.
func (p *Pool) Audios() []Audio {
	res := make([]Audio, 0, len(p.audioOrder))
	for _, id := range p.audioOrder {
		res = append(res, *p.audios[id])
	}
	return res
}

// Files returns retained files in insertion order.
func (p *Pool) Files() []File {
	res := make([]File, 0, len(p.fileOrder))
	for _, id := range p.fileOrder {
		res = append(res, *p.files[id])
	}
	return res
}
