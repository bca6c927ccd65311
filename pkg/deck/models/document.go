// Package models defines data structures for presentation extraction and editing.
package models

import (
	"github.com/tiendc/go-deepcopy"
)

// Document is the in-memory representation of one presentation package.
// It owns its Slides and the ProjectRecord derived from the first slide's
// activity table. A Document is rebuilt wholesale on reload.
type Document struct {
	// Name is the source file name (no path), empty when parsed from bytes.
	Name string `json:"name,omitempty"`
	// Slides is the ordered slide list, package order preserved.
	Slides []*Slide `json:"slides"`
	// Projects is the semantic payload extracted from the first slide's
	// activity table. Nil when the deck carries no such table.
	Projects *ProjectRecord `json:"projects,omitempty"`

	// media maps package media paths to their raw bytes. It backs image
	// content items for the lifetime of the Document and is dropped when
	// the Document is released.
	media map[string][]byte
}

// Slide is one slide: a title plus ordered content items.
type Slide struct {
	// ID is the 1-based slide number within the package.
	ID int `json:"slide_number"`
	// Title is the resolved slide title (see parser title precedence).
	Title string `json:"title"`
	// Items is the ordered content of the slide body. The title is tracked
	// separately and never appears here.
	Items []*ContentItem `json:"items"`
}

// AttachMedia registers a media part's bytes under its package path.
func (d *Document) AttachMedia(path string, data []byte) {
	if d.media == nil {
		d.media = make(map[string][]byte)
	}
	d.media[path] = data
}

// Media returns the bytes of a media part previously attached, or nil.
func (d *Document) Media(path string) []byte {
	return d.media[path]
}

// MediaPaths returns the attached media part paths in unspecified order.
func (d *Document) MediaPaths() []string {
	paths := make([]string, 0, len(d.media))
	for p := range d.media {
		paths = append(paths, p)
	}
	return paths
}

// ReleaseMedia drops all attached media bytes. Image items keep their
// source paths but their renderable bytes are gone afterwards.
func (d *Document) ReleaseMedia() {
	d.media = nil
}

// Clone returns a deep copy of the Document, media included. Edits on the
// copy never touch the receiver.
func (d *Document) Clone() (*Document, error) {
	out := &Document{}
	if err := deepcopy.Copy(out, d); err != nil {
		return nil, err
	}
	if d.media != nil {
		out.media = make(map[string][]byte, len(d.media))
		for p, b := range d.media {
			cp := make([]byte, len(b))
			copy(cp, b)
			out.media[p] = cp
		}
	}
	return out, nil
}
