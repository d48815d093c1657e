package post

import "errors"

// ErrPoolClosed is returned when a post is added to a closed pool.
var ErrPoolClosed = errors.New("post pool is closed")

// Pool accumulates posts across pages. A post id observed twice keeps the
// last observed version. Once closed, the pool rejects further insertions;
// the downloader consumes it read-only from that point.
type Pool struct {
	posts  map[string]*Post
	order  []string
	byTag  map[string][]string
	closed bool

	// NextOffset is the cursor for the next page of the post stream.
	NextOffset string
}

// NewPool creates an empty post pool.
func NewPool() *Pool {
	return &Pool{
		posts: make(map[string]*Post),
		byTag: make(map[string][]string),
	}
}

// AddPost inserts a post, overwriting any earlier version with the same id.
func (p *Pool) AddPost(post *Post) error {
	if p.closed {
		return ErrPoolClosed
	}
	if _, ok := p.posts[post.ID]; !ok {
		p.order = append(p.order, post.ID)
	}
	p.posts[post.ID] = post
	return nil
}

// Get returns the post with the given id, or nil.
func (p *Pool) Get(id string) *Post {
	return p.posts[id]
}

// Posts returns all posts in first-seen order.
func (p *Pool) Posts() []*Post {
	res := make([]*Post, 0, len(p.order))
	for _, id := range p.order {
		res = append(res, p.posts[id])
	}
	return res
}

// Tag indexes a post id under a tag.
func (p *Pool) Tag(tag, postID string) {
	for _, id := range p.byTag[tag] {
		if id == postID {
			return
		}
	}
	p.byTag[tag] = append(p.byTag[tag], postID)
}

// PostsByTag returns the posts indexed under a tag, skipping ids that were
// never (or no longer) present.
func (p *Pool) PostsByTag(tag string) []*Post {
	var res []*Post
	for _, id := range p.byTag[tag] {
		if post, ok := p.posts[id]; ok {
			res = append(res, post)
		}
	}
	return res
}

// Close marks the pool complete. Further AddPost calls fail.
func (p *Pool) Close() {
	p.closed = true
}

// Closed reports whether the pool has been closed.
func (p *Pool) Closed() bool {
	return p.closed
}

// Len returns the number of posts in the pool.
func (p *Pool) Len() int {
	return len(p.order)
}
