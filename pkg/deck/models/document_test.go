package models

import "testing"

func TestDocumentClone(t *testing.T) {
	doc := &Document{
		Name: "report.pptx",
		Slides: []*Slide{{
			ID:    1,
			Title: "Status",
			Items: []*ContentItem{NewTextItem("hello", false)},
		}},
		Projects: &ProjectRecord{
			Activities: map[string]*Activity{"Alpha": {Information: "info"}},
			Order:      []string{"Alpha"},
		},
	}
	doc.AttachMedia("ppt/media/image1.png", []byte{1, 2, 3})

	cp, err := doc.Clone()
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}

	cp.Slides[0].Title = "Changed"
	cp.Slides[0].Items[0].Text.Content = "bye"
	cp.Projects.Activities["Alpha"].Information = "changed"
	cp.Media("ppt/media/image1.png")[0] = 9

	if doc.Slides[0].Title != "Status" || doc.Slides[0].Items[0].Text.Content != "hello" {
		t.Error("clone shares slide state with the source")
	}
	if doc.Projects.Activities["Alpha"].Information != "info" {
		t.Error("clone shares the project payload with the source")
	}
	if doc.Media("ppt/media/image1.png")[0] != 1 {
		t.Error("clone shares media bytes with the source")
	}
}

func TestMediaLifecycle(t *testing.T) {
	doc := &Document{}
	if doc.Media("x") != nil {
		t.Error("empty document returned media")
	}
	doc.AttachMedia("a", []byte("one"))
	doc.AttachMedia("b", []byte("two"))
	if len(doc.MediaPaths()) != 2 {
		t.Errorf("MediaPaths = %v", doc.MediaPaths())
	}
	doc.ReleaseMedia()
	if doc.Media("a") != nil || len(doc.MediaPaths()) != 0 {
		t.Error("ReleaseMedia left media behind")
	}
}
