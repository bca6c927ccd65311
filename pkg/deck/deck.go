package deck

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/openlabollioules/ACRA/pkg/deck/models"
	"github.com/openlabollioules/ACRA/pkg/deck/opc"
	"github.com/openlabollioules/ACRA/pkg/deck/parser"
)

const slidePartPrefix = "ppt/slides/slide"

// placeholderBody replaces the content of a slide that failed to parse.
const placeholderBody = "(slide content could not be read)"

// ParseFile reads a presentation package from disk.
func ParseFile(path string, opts Options) (*models.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := Parse(data, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc.Name = filepath.Base(path)
	return doc, nil
}

// Parse opens a package and builds the Document: every slide part in
// numeric order, each with its tables, text items and image references.
// A malformed slide degrades to a placeholder; only a corrupt container
// fails the whole load.
func Parse(data []byte, opts Options) (*models.Document, error) {
	pkg, err := opc.Open(data)
	if err != nil {
		return nil, err
	}
	palette := opts.palette()
	logger := opts.logger()

	doc := &models.Document{}
	for i, part := range pkg.ListParts(slidePartPrefix, ".xml") {
		n := i + 1
		slideXML, err := pkg.ReadPart(part)
		if err != nil {
			// Listed parts always read back; keep the guard anyway.
			doc.Slides = append(doc.Slides, placeholderSlide(n))
			continue
		}
		rels, _ := pkg.Relationships(part)

		slide, err := parser.ParseSlide(slideXML, rels, n, palette)
		if err != nil {
			logger.Warn("slide degraded to placeholder",
				"part", part, "error", (&MalformedSlideError{Part: part, Err: err}).Error())
			slide = placeholderSlide(n)
		}
		doc.Slides = append(doc.Slides, slide)

		if !opts.SkipMedia {
			attachSlideMedia(doc, pkg, slide, part, logger)
		}
	}

	deriveProjects(doc)
	return doc, nil
}

// placeholderSlide is the degraded form of an unreadable slide.
func placeholderSlide(n int) *models.Slide {
	return &models.Slide{
		ID:    n,
		Title: fmt.Sprintf("Slide %d", n),
		Items: []*models.ContentItem{models.NewTextItem(placeholderBody, false)},
	}
}

// attachSlideMedia pulls the bytes of every image the slide references
// into the Document. A missing media part is logged and skipped; the
// image item keeps its path.
func attachSlideMedia(doc *models.Document, pkg *opc.Package, slide *models.Slide, part string, logger *slog.Logger) {
	for _, item := range slide.Items {
		if item.Kind != models.KindImage {
			continue
		}
		if doc.Media(item.Image.SourcePath) != nil {
			continue
		}
		data, err := pkg.ReadPart(item.Image.SourcePath)
		if err != nil {
			if errors.Is(err, opc.ErrPartNotFound) {
				logger.Warn("image part missing", "slide", part, "media", item.Image.SourcePath)
				continue
			}
			continue
		}
		doc.AttachMedia(item.Image.SourcePath, data)
	}
}

// deriveProjects reduces the first slide's first table to the semantic
// project payload. Decks without such a table carry no Projects.
func deriveProjects(doc *models.Document) {
	if len(doc.Slides) == 0 {
		return
	}
	first := doc.Slides[0]
	for _, item := range first.Items {
		if item.Kind == models.KindTable {
			doc.Projects = models.ProjectsFromTable(item.Table, first.Title)
			return
		}
	}
}
