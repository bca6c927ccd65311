package deck

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"

	"github.com/openlabollioules/ACRA/pkg/deck/models"
)

func packZip(t *testing.T, parts map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range parts {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

const slidePrefix = `<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">`

func activitySlideXML(title string) string {
	return slidePrefix + `<p:cSld name="` + title + `"><p:spTree>` +
		`<p:graphicFrame><a:graphic><a:graphicData><a:tbl>` +
		`<a:tblGrid><a:gridCol w="1"/><a:gridCol w="1"/><a:gridCol w="1"/></a:tblGrid>` +
		`<a:tr><a:tc><a:txBody><a:p><a:r><a:rPr b="1"/><a:t>Project</a:t></a:r></a:p></a:txBody></a:tc>` +
		`<a:tc><a:txBody><a:p><a:r><a:rPr b="1"/><a:t>Information</a:t></a:r></a:p></a:txBody></a:tc>` +
		`<a:tc><a:txBody><a:p><a:r><a:rPr b="1"/><a:t>Upcoming events</a:t></a:r></a:p></a:txBody></a:tc></a:tr>` +
		`<a:tr><a:tc><a:txBody><a:p><a:r><a:t>Alpha</a:t></a:r></a:p></a:txBody></a:tc>` +
		`<a:tc><a:txBody><a:p><a:r><a:rPr><a:solidFill><a:srgbClr val="00B050"/></a:solidFill></a:rPr><a:t>Shipped v2</a:t></a:r></a:p></a:txBody></a:tc>` +
		`<a:tc><a:txBody><a:p><a:r><a:t>Review Friday</a:t></a:r></a:p></a:txBody></a:tc></a:tr>` +
		`</a:tbl></a:graphicData></a:graphic></p:graphicFrame>` +
		`</p:spTree></p:cSld></p:sld>`
}

func textSlideXML(title, body string) string {
	return slidePrefix + `<p:cSld name="` + title + `"><p:spTree>` +
		`<p:sp><p:txBody><a:p><a:r><a:t>` + body + `</a:t></a:r></a:p></p:txBody></p:sp>` +
		`</p:spTree></p:cSld></p:sld>`
}

func TestParse(t *testing.T) {
	data := packZip(t, map[string]string{
		"ppt/slides/slide1.xml": activitySlideXML("Weekly Report"),
		"ppt/slides/slide2.xml": textSlideXML("Details", "Body text"),
	})

	doc, err := Parse(data, DefaultOptions())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(doc.Slides) != 2 {
		t.Fatalf("got %d slides, want 2", len(doc.Slides))
	}
	if doc.Slides[0].Title != "Weekly Report" || doc.Slides[1].Title != "Details" {
		t.Errorf("titles = %q, %q", doc.Slides[0].Title, doc.Slides[1].Title)
	}

	if doc.Projects == nil {
		t.Fatal("no project payload derived from the activity table")
	}
	if doc.Projects.Metadata.Title != "Weekly Report" {
		t.Errorf("Metadata.Title = %q", doc.Projects.Metadata.Title)
	}
	act := doc.Projects.Activities["Alpha"]
	if act == nil {
		t.Fatal("Alpha missing from activities")
	}
	if act.Information != "<green>Shipped v2</green>" {
		t.Errorf("Information = %q", act.Information)
	}
	if len(act.Alerts.Advancements) != 1 || act.Alerts.Advancements[0] != "Shipped v2" {
		t.Errorf("Advancements = %v", act.Alerts.Advancements)
	}
	if doc.Projects.UpcomingEvents != "Review Friday" {
		t.Errorf("UpcomingEvents = %q", doc.Projects.UpcomingEvents)
	}
}

func TestParseCorrupt(t *testing.T) {
	if _, err := Parse([]byte("not a package"), DefaultOptions()); !errors.Is(err, ErrCorruptPackage) {
		t.Errorf("Parse(garbage) = %v, want ErrCorruptPackage", err)
	}
}

func TestParseMalformedSlideDegrades(t *testing.T) {
	data := packZip(t, map[string]string{
		"ppt/slides/slide1.xml": textSlideXML("Good", "fine"),
		"ppt/slides/slide2.xml": slidePrefix + "<p:cSld><broken",
		"ppt/slides/slide3.xml": textSlideXML("Also good", "fine too"),
	})

	doc, err := Parse(data, DefaultOptions())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(doc.Slides) != 3 {
		t.Fatalf("got %d slides, want 3", len(doc.Slides))
	}
	bad := doc.Slides[1]
	if bad.Title != "Slide 2" {
		t.Errorf("placeholder title = %q", bad.Title)
	}
	if len(bad.Items) != 1 || bad.Items[0].Kind != models.KindText || bad.Items[0].Text.Content != placeholderBody {
		t.Errorf("placeholder items = %+v", bad.Items)
	}
	if doc.Slides[2].Title != "Also good" {
		t.Errorf("later slide lost: %q", doc.Slides[2].Title)
	}
}

func TestParseAttachesMedia(t *testing.T) {
	rels := `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="../media/image1.png"/>` +
		`</Relationships>`
	data := packZip(t, map[string]string{
		"ppt/slides/slide1.xml":            textSlideXML("Pics", "caption"),
		"ppt/slides/_rels/slide1.xml.rels": rels,
		"ppt/media/image1.png":             "PNGDATA",
	})

	doc, err := Parse(data, DefaultOptions())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := doc.Media("ppt/media/image1.png"); string(got) != "PNGDATA" {
		t.Errorf("media bytes = %q", got)
	}

	skip, err := Parse(data, Options{SkipMedia: true})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if skip.Media("ppt/media/image1.png") != nil {
		t.Error("SkipMedia still attached media bytes")
	}
	// The image item itself is kept either way.
	var images int
	for _, item := range skip.Slides[0].Items {
		if item.Kind == models.KindImage {
			images++
		}
	}
	if images != 1 {
		t.Errorf("got %d image items, want 1", images)
	}
}
