package boosty

import (
	"fmt"
	"net/url"
	"strconv"
)

// DefaultBaseURL is the production API host.
const DefaultBaseURL = "https://api.boosty.to"

const (
	defaultLimit   = 50
	defaultLimitBy = "media"
)

// mediaAlbumURL builds the media-album page URL for one media type.
// The audio stream pages by post instead of by media.
func mediaAlbumURL(baseURL, creator, mediaType string, offset string) string {
	limitBy := defaultLimitBy
	if mediaType == "audio" {
		limitBy = "post"
	}

	params := url.Values{}
	params.Set("type", mediaType)
	params.Set("limit", strconv.Itoa(defaultLimit))
	params.Set("limit_by", limitBy)
	if offset != "" {
		params.Set("offset", offset)
	}

	return fmt.Sprintf("%s/v1/blog/%s/media_album/?%s",
		baseURL, url.PathEscape(creator), params.Encode())
}

// postListURL builds the post-stream page URL. Replies and comments are
// capped because only the post bodies matter here.
func postListURL(baseURL, creator string, offset string) string {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(defaultLimit))
	params.Set("limit_by", defaultLimitBy)
	params.Set("reply_limit", "1")
	params.Set("comments_limit", "0")
	if offset != "" {
		params.Set("offset", offset)
	}

	return fmt.Sprintf("%s/v1/blog/%s/post/?%s",
		baseURL, url.PathEscape(creator), params.Encode())
}

// postURL builds the single-post URL.
func postURL(baseURL, creator, postID string) string {
	return fmt.Sprintf("%s/v1/blog/%s/post/%s",
		baseURL, url.PathEscape(creator), url.PathEscape(postID))
}

// countersURL builds the public media-counters URL.
func countersURL(baseURL, creator string) string {
	return fmt.Sprintf("%s/v1/blog/%s/media_album/counters/",
		baseURL, url.PathEscape(creator))
}
