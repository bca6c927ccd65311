// Package opc reads zip-packaged OOXML containers: named parts, part
// enumeration and relationship resolution.
package opc

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// ErrCorruptPackage indicates the bytes are not a readable zip container.
var ErrCorruptPackage = errors.New("corrupt package")

// ErrPartNotFound indicates a named part is missing from the package.
var ErrPartNotFound = errors.New("part not found")

// Package is an open container. All parts are materialized at open time;
// presentation packages are small enough that lazy reads buy nothing.
type Package struct {
	parts map[string][]byte
	names []string
}

// Open reads a zip container from memory.
func Open(data []byte) (*Package, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptPackage, err)
	}
	p := &Package{parts: make(map[string][]byte, len(zr.File))}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrCorruptPackage, f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrCorruptPackage, f.Name, err)
		}
		name := strings.TrimPrefix(f.Name, "/")
		p.parts[name] = content
		p.names = append(p.names, name)
	}
	return p, nil
}

// ReadPart returns the bytes of one part.
func (p *Package) ReadPart(name string) ([]byte, error) {
	content, ok := p.parts[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPartNotFound, name)
	}
	return content, nil
}

// HasPart reports whether a part exists.
func (p *Package) HasPart(name string) bool {
	_, ok := p.parts[name]
	return ok
}

// ListParts returns the part names matching prefix and suffix, ordered by
// the numeric run between them ascending (slide2 before slide10). Names
// without a numeric run sort after the numbered ones, lexically.
func (p *Package) ListParts(prefix, suffix string) []string {
	var matched []string
	for _, name := range p.names {
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, suffix) && len(name) > len(prefix)+len(suffix) {
			matched = append(matched, name)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		ni, oki := numericInfix(matched[i], prefix, suffix)
		nj, okj := numericInfix(matched[j], prefix, suffix)
		switch {
		case oki && okj:
			return ni < nj
		case oki:
			return true
		case okj:
			return false
		default:
			return matched[i] < matched[j]
		}
	})
	return matched
}

func numericInfix(name, prefix, suffix string) (int, bool) {
	infix := strings.TrimSuffix(strings.TrimPrefix(name, prefix), suffix)
	n, err := strconv.Atoi(infix)
	return n, err == nil
}
