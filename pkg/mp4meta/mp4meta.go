package mp4meta

import (
	"errors"
	"fmt"
	"os"

	"github.com/abema/go-mp4"

	"boostysync/pkg/logger"
)

// iTunes-style metadata atom data types.
const (
	dataTypeUTF8 = 1
	dataTypeJPEG = 13
)

var (
	boxTypeName  = mp4.BoxType{0xA9, 'n', 'a', 'm'}
	boxTypeCover = mp4.StrToBoxType("covr")
)

// ErrUnsupportedLayout means the file stores moov before mdat; appending
// metadata would shift the media data and break the chunk offset tables, so
// such files are left untagged.
var ErrUnsupportedLayout = errors.New("moov precedes mdat, tagging would corrupt chunk offsets")

// Tags holds the metadata written into a downloaded video container.
type Tags struct {
	Title string
	Cover []byte // JPEG bytes, optional
}

// WriteTags rewrites the MP4 at path with an iTunes-style metadata block
// (title, optional cover art) appended to moov. Best effort: callers log and
// continue on failure, the downloaded media is intact either way.
func WriteTags(path string, tags Tags) error {
	if tags.Title == "" && len(tags.Cover) == 0 {
		return nil
	}

	in, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open video: %w", err)
	}
	defer in.Close()

	if err := checkLayout(in); err != nil {
		return err
	}
	if _, err := in.Seek(0, 0); err != nil {
		return fmt.Errorf("failed to rewind video: %w", err)
	}

	tempPath := path + ".tagged"
	out, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temp video: %w", err)
	}
	defer out.Close()

	if err := rewriteWithTags(in, out, tags); err != nil {
		os.Remove(tempPath)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to flush temp video: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace video: %w", err)
	}
	return nil
}

// checkLayout verifies mdat comes before moov at the top level.
func checkLayout(in *os.File) error {
	sawMdat := false
	bis, err := mp4.ExtractBoxes(in, nil, []mp4.BoxPath{
		{mp4.BoxTypeMdat()},
		{mp4.BoxTypeMoov()},
	})
	if err != nil {
		return fmt.Errorf("failed to probe video structure: %w", err)
	}
	for _, bi := range bis {
		switch bi.Type {
		case mp4.BoxTypeMdat():
			sawMdat = true
		case mp4.BoxTypeMoov():
			if !sawMdat {
				return ErrUnsupportedLayout
			}
		}
	}
	return nil
}

func rewriteWithTags(in *os.File, out *os.File, tags Tags) error {
	w := mp4.NewWriter(out)

	_, err := mp4.ReadBoxStructure(in, func(h *mp4.ReadHandle) (interface{}, error) {
		switch h.BoxInfo.Type {
		case mp4.BoxTypeMoov():
			if _, err := w.StartBox(&h.BoxInfo); err != nil {
				return nil, err
			}
			if _, err := h.Expand(); err != nil {
				return nil, err
			}
			if err := writeMetaBlock(w, tags); err != nil {
				return nil, err
			}
			_, err := w.EndBox()
			return nil, err
		case mp4.BoxTypeUdta():
			// Drop any existing udta under moov; a fresh one is appended.
			return nil, nil
		default:
			return nil, w.CopyBox(in, &h.BoxInfo)
		}
	})
	return err
}

// writeMetaBlock appends moov/udta/meta/(hdlr,ilst) with the tag items.
func writeMetaBlock(w *mp4.Writer, tags Tags) error {
	var ctx mp4.Context

	if _, err := w.StartBox(&mp4.BoxInfo{Type: mp4.BoxTypeUdta(), Context: ctx}); err != nil {
		return err
	}
	ctx.UnderUdta = true

	if _, err := w.StartBox(&mp4.BoxInfo{Type: mp4.BoxTypeMeta(), Context: ctx}); err != nil {
		return err
	}
	ctx.UnderIlstMeta = true
	if _, err := mp4.Marshal(w, &mp4.Meta{}, ctx); err != nil {
		return err
	}

	if _, err := w.StartBox(&mp4.BoxInfo{Type: mp4.BoxTypeHdlr(), Context: ctx}); err != nil {
		return err
	}
	if _, err := mp4.Marshal(w, &mp4.Hdlr{
		HandlerType: [4]byte{'m', 'd', 'i', 'r'},
	}, ctx); err != nil {
		return err
	}
	if _, err := w.EndBox(); err != nil {
		return err
	}

	if _, err := w.StartBox(&mp4.BoxInfo{Type: mp4.BoxTypeIlst(), Context: ctx}); err != nil {
		return err
	}
	ctx.UnderIlst = true

	if tags.Title != "" {
		if err := writeDataItem(w, ctx, boxTypeName, dataTypeUTF8, []byte(tags.Title)); err != nil {
			return err
		}
	}
	if len(tags.Cover) > 0 {
		if err := writeDataItem(w, ctx, boxTypeCover, dataTypeJPEG, tags.Cover); err != nil {
			return err
		}
	}

	for i := 0; i < 3; i++ { // close ilst, meta, udta
		if _, err := w.EndBox(); err != nil {
			return err
		}
	}
	return nil
}

func writeDataItem(w *mp4.Writer, ctx mp4.Context, item mp4.BoxType, dataType uint32, payload []byte) error {
	if _, err := w.StartBox(&mp4.BoxInfo{Type: item, Context: ctx}); err != nil {
		return err
	}
	if _, err := w.StartBox(&mp4.BoxInfo{Type: mp4.StrToBoxType("data"), Context: ctx}); err != nil {
		return err
	}
	if _, err := mp4.Marshal(w, &mp4.Data{
		DataType: dataType,
		Data:     payload,
	}, ctx); err != nil {
		return err
	}
	if _, err := w.EndBox(); err != nil {
		return err
	}
	_, err := w.EndBox()
	return err
}

// BestEffortWrite wraps WriteTags with logging; tagging failures never fail a
// download.
func BestEffortWrite(path string, tags Tags) {
	log := logger.GetLogger()
	if err := WriteTags(path, tags); err != nil {
		if errors.Is(err, ErrUnsupportedLayout) {
			log.DebugWithFields("skipping video metadata", map[string]interface{}{
				"path":   path,
				"reason": err.Error(),
			})
			return
		}
		log.WarnWithFields("failed to write video metadata", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
	}
}
