package opc

import (
	"encoding/xml"
	"path"
	"strings"
)

// Relationship is one declared reference from a part to another resource.
type Relationship struct {
	// ID is the relationship id (rId1, rId2, ...).
	ID string
	// Type is the relationship type URI.
	Type string
	// Target is the referenced part path, normalized against the owning
	// part's base directory.
	Target string
}

// IsImage reports whether the relationship targets an image part.
func (r Relationship) IsImage() bool {
	return strings.HasSuffix(r.Type, "/image")
}

// RelsPath returns the relationship part path for a part, e.g.
// ppt/slides/slide1.xml -> ppt/slides/_rels/slide1.xml.rels.
func RelsPath(partPath string) string {
	return path.Join(path.Dir(partPath), "_rels", path.Base(partPath)+".rels")
}

// Relationships parses a part's relationship file and returns its entries
// in declaration order, targets resolved relative to the part. A missing
// relationship part yields an empty list, not an error: parts without
// references simply have no .rels sibling.
func (p *Package) Relationships(partPath string) ([]Relationship, error) {
	data, err := p.ReadPart(RelsPath(partPath))
	if err != nil {
		return nil, nil
	}
	baseDir := path.Dir(partPath)

	var rels []Relationship
	decoder := xml.NewDecoder(strings.NewReader(string(data)))
	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		se, ok := token.(xml.StartElement)
		if !ok || se.Name.Local != "Relationship" {
			continue
		}
		var rel Relationship
		for _, attr := range se.Attr {
			switch attr.Name.Local {
			case "Id":
				rel.ID = attr.Value
			case "Type":
				rel.Type = attr.Value
			case "Target":
				rel.Target = resolveTarget(baseDir, attr.Value)
			}
		}
		if rel.ID != "" {
			rels = append(rels, rel)
		}
	}
	return rels, nil
}

// RelationshipMap returns the part's relationships keyed by id.
func (p *Package) RelationshipMap(partPath string) (map[string]Relationship, error) {
	rels, err := p.Relationships(partPath)
	if err != nil {
		return nil, err
	}
	m := make(map[string]Relationship, len(rels))
	for _, r := range rels {
		m[r.ID] = r
	}
	return m, nil
}

// resolveTarget normalizes a relationship target against the owning
// part's directory. Absolute targets are package-rooted already.
func resolveTarget(baseDir, target string) string {
	if target == "" {
		return ""
	}
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return path.Clean(path.Join(baseDir, target))
}
