// Package writer serializes the structured document model back into a
// valid presentation package.
package writer

import (
	"archive/zip"
	"bytes"
	"fmt"
	"path"
	"strings"

	"github.com/openlabollioules/ACRA/pkg/deck/alerts"
	"github.com/openlabollioules/ACRA/pkg/deck/models"
)

// Layout constants in EMU. One content column, items stacked top to
// bottom under the title.
const (
	marginX      = 838200
	titleY       = 365125
	titleHeight  = 1325563
	contentY     = 1825625
	contentWidth = slideWidth - 2*marginX
	itemGap      = 182880
	textHeight   = 800000
	imageHeight  = 2743200
	rowHeight    = 370840
)

// Render serializes a Document into package bytes. Slides keep their
// order; each gets a title box, its body items and its images, with media
// bytes copied from the parsed source. Styling the model does not capture
// is dropped.
func Render(doc *models.Document, palette alerts.Palette) ([]byte, error) {
	if palette == nil {
		palette = alerts.DefaultPalette()
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	media := newMediaRegistry(doc)

	write := func(name, content string) error {
		w, err := zw.Create(name)
		if err != nil {
			return err
		}
		_, err = w.Write([]byte(content))
		return err
	}

	slideCount := len(doc.Slides)
	parts := []struct{ name, content string }{
		{"[Content_Types].xml", contentTypesXML(slideCount, media.names())},
		{"_rels/.rels", rootRelsXML()},
		{"ppt/presentation.xml", presentationXML(slideCount)},
		{"ppt/_rels/presentation.xml.rels", presentationRelsXML(slideCount)},
		{"ppt/slideMasters/slideMaster1.xml", slideMasterXML()},
		{"ppt/slideMasters/_rels/slideMaster1.xml.rels", slideMasterRelsXML()},
		{"ppt/slideLayouts/slideLayout1.xml", slideLayoutXML()},
		{"ppt/slideLayouts/_rels/slideLayout1.xml.rels", slideLayoutRelsXML()},
		{"ppt/theme/theme1.xml", themeXML()},
	}
	for _, p := range parts {
		if err := write(p.name, p.content); err != nil {
			return nil, fmt.Errorf("write %s: %w", p.name, err)
		}
	}

	for i, slide := range doc.Slides {
		n := i + 1
		refs := slideImageRefs(slide, media)
		slideName := fmt.Sprintf("ppt/slides/slide%d.xml", n)
		if err := write(slideName, slideXML(slide, refs, palette)); err != nil {
			return nil, fmt.Errorf("write %s: %w", slideName, err)
		}
		relsName := fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", n)
		if err := write(relsName, slideRelsXML(refs)); err != nil {
			return nil, fmt.Errorf("write %s: %w", relsName, err)
		}
	}

	for _, m := range media.entries {
		if m.data == nil {
			continue
		}
		w, err := zw.Create("ppt/media/" + m.name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(m.data); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// mediaRegistry assigns package-unique names under ppt/media to every
// image source path the document references.
type mediaRegistry struct {
	byPath  map[string]string
	entries []mediaEntry
}

type mediaEntry struct {
	name string
	data []byte
}

func newMediaRegistry(doc *models.Document) *mediaRegistry {
	reg := &mediaRegistry{byPath: make(map[string]string)}
	used := make(map[string]bool)
	for _, slide := range doc.Slides {
		for _, item := range slide.Items {
			if item.Kind != models.KindImage {
				continue
			}
			src := item.Image.SourcePath
			if src == "" || reg.byPath[src] != "" {
				continue
			}
			name := path.Base(src)
			for i := 2; used[name]; i++ {
				ext := path.Ext(src)
				name = fmt.Sprintf("%s_%d%s", strings.TrimSuffix(path.Base(src), ext), i, ext)
			}
			used[name] = true
			reg.byPath[src] = name
			reg.entries = append(reg.entries, mediaEntry{name: name, data: doc.Media(src)})
		}
	}
	return reg
}

func (r *mediaRegistry) names() []string {
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.name)
	}
	return out
}

// imageRef binds one image item to its per-slide relationship id.
type imageRef struct {
	relID string
	name  string // file name under ppt/media
}

// slideImageRefs assigns rIds to a slide's images in item order. rId1 is
// reserved for the layout.
func slideImageRefs(slide *models.Slide, media *mediaRegistry) map[int]imageRef {
	refs := make(map[int]imageRef)
	next := 2
	for i, item := range slide.Items {
		if item.Kind != models.KindImage || item.Image.SourcePath == "" {
			continue
		}
		refs[i] = imageRef{
			relID: fmt.Sprintf("rId%d", next),
			name:  media.byPath[item.Image.SourcePath],
		}
		next++
	}
	return refs
}

func slideRelsXML(refs map[int]imageRef) string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	fmt.Fprintf(&b, `<Relationships xmlns=%q>`, nsPR)
	fmt.Fprintf(&b, `<Relationship Id="rId1" Type=%q Target="../slideLayouts/slideLayout1.xml"/>`, relTypeSlideLayout)
	// Emit in item order so the part is deterministic.
	for i := 0; i <= maxKey(refs); i++ {
		if ref, ok := refs[i]; ok {
			fmt.Fprintf(&b, `<Relationship Id=%q Type=%q Target="../media/%s"/>`, ref.relID, relTypeImage, ref.name)
		}
	}
	b.WriteString(`</Relationships>`)
	return b.String()
}

func maxKey(refs map[int]imageRef) int {
	max := -1
	for k := range refs {
		if k > max {
			max = k
		}
	}
	return max
}

// slideXML emits one slide part: title placeholder, body items, images.
// The slide name attribute carries the title so it survives a reparse.
func slideXML(slide *models.Slide, refs map[int]imageRef, palette alerts.Palette) string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	fmt.Fprintf(&b, `<p:sld xmlns:a=%q xmlns:r=%q xmlns:p=%q>`, nsA, nsR, nsP)
	fmt.Fprintf(&b, `<p:cSld name=%q><p:spTree>`, xmlEscape(slide.Title))
	b.WriteString(emptyGroupShapeProps)

	shapeID := 2
	b.WriteString(titleShapeXML(shapeID, slide.Title))
	shapeID++

	y := int64(contentY)
	for i, item := range slide.Items {
		switch item.Kind {
		case models.KindText:
			b.WriteString(textShapeXML(shapeID, item.Text, y, palette))
			y += textHeight + itemGap
		case models.KindTable:
			b.WriteString(tableFrameXML(shapeID, item.Table, y, palette))
			y += int64(len(item.Table.Rows))*rowHeight + itemGap
		case models.KindImage:
			if ref, ok := refs[i]; ok {
				b.WriteString(pictureXML(shapeID, ref, y))
				y += imageHeight + itemGap
			}
		}
		shapeID++
	}

	b.WriteString(`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`)
	return b.String()
}

func titleShapeXML(id int, title string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="Title %d"/>`, id, id-1)
	b.WriteString(`<p:cNvSpPr><a:spLocks noGrp="1"/></p:cNvSpPr><p:nvPr><p:ph type="title"/></p:nvPr></p:nvSpPr>`)
	fmt.Fprintf(&b, `<p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm>`,
		marginX, titleY, contentWidth, titleHeight)
	b.WriteString(`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr>`)
	b.WriteString(`<p:txBody><a:bodyPr/><a:lstStyle/>`)
	b.WriteString(paragraphsXML(title, models.CellStyle{}, nil))
	b.WriteString(`</p:txBody></p:sp>`)
	return b.String()
}

func textShapeXML(id int, text *models.TextItem, y int64, palette alerts.Palette) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="TextBox %d"/>`, id, id-1)
	b.WriteString(`<p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr>`)
	fmt.Fprintf(&b, `<p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm>`,
		marginX, y, contentWidth, textHeight)
	b.WriteString(`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr>`)
	b.WriteString(`<p:txBody><a:bodyPr wrap="square"><a:spAutoFit/></a:bodyPr><a:lstStyle/>`)
	b.WriteString(paragraphsXML(text.Content, models.CellStyle{}, palette))
	b.WriteString(`</p:txBody></p:sp>`)
	return b.String()
}

func pictureXML(id int, ref imageRef, y int64) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<p:pic><p:nvPicPr><p:cNvPr id="%d" name="Picture %d"/>`, id, id-1)
	b.WriteString(`<p:cNvPicPr/><p:nvPr/></p:nvPicPr>`)
	fmt.Fprintf(&b, `<p:blipFill><a:blip r:embed=%q/><a:stretch><a:fillRect/></a:stretch></p:blipFill>`, ref.relID)
	fmt.Fprintf(&b, `<p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm>`,
		marginX, y, contentWidth/2, imageHeight)
	b.WriteString(`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr></p:pic>`)
	return b.String()
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func xmlEscape(s string) string {
	return xmlEscaper.Replace(s)
}
