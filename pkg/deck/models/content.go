package models

// ItemKind discriminates the ContentItem union.
type ItemKind string

const (
	// KindText is a block of body text.
	KindText ItemKind = "text"
	// KindTable is a native table shape.
	KindTable ItemKind = "table"
	// KindImage is a picture reference resolved from the slide relationships.
	KindImage ItemKind = "image"
)

// ContentItem is a tagged union over text, table and image content.
// Exactly the variant named by Kind is populated; consumers switch on Kind
// and must handle all three.
type ContentItem struct {
	// Kind selects the populated variant.
	Kind ItemKind `json:"kind"`
	// Text is set when Kind == KindText.
	Text *TextItem `json:"text,omitempty"`
	// Table is set when Kind == KindTable.
	Table *Table `json:"table,omitempty"`
	// Image is set when Kind == KindImage.
	Image *ImageItem `json:"image,omitempty"`
}

// TextItem is a body text block.
type TextItem struct {
	// Content is the text, possibly carrying tier color tags.
	Content string `json:"content"`
	// IsTitle marks the distinguished title item when one is materialized.
	IsTitle bool `json:"is_title,omitempty"`
	// Formatted reports whether Content embeds color/style markup rather
	// than plain escaped text.
	Formatted bool `json:"formatted,omitempty"`
}

// ImageItem is a picture reference.
type ImageItem struct {
	// SourcePath is the package path of the media part (e.g. ppt/media/image1.png).
	SourcePath string `json:"source_path"`
	// RelID is the relationship id the slide used to reference the image.
	RelID string `json:"rel_id,omitempty"`
}

// NewTextItem wraps a text block as a ContentItem.
func NewTextItem(content string, formatted bool) *ContentItem {
	return &ContentItem{Kind: KindText, Text: &TextItem{Content: content, Formatted: formatted}}
}

// NewTableItem wraps a table as a ContentItem.
func NewTableItem(t *Table) *ContentItem {
	return &ContentItem{Kind: KindTable, Table: t}
}

// NewImageItem wraps an image reference as a ContentItem.
func NewImageItem(sourcePath, relID string) *ContentItem {
	return &ContentItem{Kind: KindImage, Image: &ImageItem{SourcePath: sourcePath, RelID: relID}}
}
