package writer

import (
	"fmt"
	"path"
	"sort"
	"strings"
)

// OOXML namespaces used in generated parts.
const (
	nsA  = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsR  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsP  = "http://schemas.openxmlformats.org/presentationml/2006/main"
	nsCT = "http://schemas.openxmlformats.org/package/2006/content-types"
	nsPR = "http://schemas.openxmlformats.org/package/2006/relationships"

	relTypeOfficeDocument = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	relTypeSlideMaster    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster"
	relTypeSlideLayout    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout"
	relTypeSlide          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide"
	relTypeTheme          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme"
	relTypeImage          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"

	tableGraphicURI = "http://schemas.openxmlformats.org/drawingml/2006/table"
)

// Slide geometry in EMU (16:9).
const (
	slideWidth  = 12192000
	slideHeight = 6858000
)

var mediaContentTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".tiff": "image/tiff",
	".emf":  "image/x-emf",
	".wmf":  "image/x-wmf",
}

// contentTypesXML builds [Content_Types].xml for the given slide count and
// media part paths.
func contentTypesXML(slideCount int, mediaPaths []string) string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	fmt.Fprintf(&b, `<Types xmlns=%q>`, nsCT)
	b.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	b.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)

	exts := make(map[string]string)
	for _, p := range mediaPaths {
		ext := strings.ToLower(path.Ext(p))
		if ct, ok := mediaContentTypes[ext]; ok {
			exts[strings.TrimPrefix(ext, ".")] = ct
		}
	}
	names := make([]string, 0, len(exts))
	for ext := range exts {
		names = append(names, ext)
	}
	sort.Strings(names)
	for _, ext := range names {
		fmt.Fprintf(&b, `<Default Extension=%q ContentType=%q/>`, ext, exts[ext])
	}

	b.WriteString(`<Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>`)
	b.WriteString(`<Override PartName="/ppt/slideMasters/slideMaster1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"/>`)
	b.WriteString(`<Override PartName="/ppt/slideLayouts/slideLayout1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"/>`)
	b.WriteString(`<Override PartName="/ppt/theme/theme1.xml" ContentType="application/vnd.openxmlformats-officedocument.theme+xml"/>`)
	for i := 1; i <= slideCount; i++ {
		fmt.Fprintf(&b, `<Override PartName="/ppt/slides/slide%d.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>`, i)
	}
	b.WriteString(`</Types>`)
	return b.String()
}

// rootRelsXML is the package-level relationship part.
func rootRelsXML() string {
	return xmlHeader + fmt.Sprintf(
		`<Relationships xmlns=%q><Relationship Id="rId1" Type=%q Target="ppt/presentation.xml"/></Relationships>`,
		nsPR, relTypeOfficeDocument)
}

// presentationXML declares the master and the slide list in final order.
func presentationXML(slideCount int) string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	fmt.Fprintf(&b, `<p:presentation xmlns:a=%q xmlns:r=%q xmlns:p=%q>`, nsA, nsR, nsP)
	b.WriteString(`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>`)
	b.WriteString(`<p:sldIdLst>`)
	for i := 0; i < slideCount; i++ {
		fmt.Fprintf(&b, `<p:sldId id="%d" r:id="rId%d"/>`, 256+i, i+2)
	}
	b.WriteString(`</p:sldIdLst>`)
	fmt.Fprintf(&b, `<p:sldSz cx="%d" cy="%d"/><p:notesSz cx="6858000" cy="9144000"/>`, slideWidth, slideHeight)
	b.WriteString(`</p:presentation>`)
	return b.String()
}

func presentationRelsXML(slideCount int) string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	fmt.Fprintf(&b, `<Relationships xmlns=%q>`, nsPR)
	fmt.Fprintf(&b, `<Relationship Id="rId1" Type=%q Target="slideMasters/slideMaster1.xml"/>`, relTypeSlideMaster)
	for i := 1; i <= slideCount; i++ {
		fmt.Fprintf(&b, `<Relationship Id="rId%d" Type=%q Target="slides/slide%d.xml"/>`, i+1, relTypeSlide, i)
	}
	b.WriteString(`</Relationships>`)
	return b.String()
}

func slideMasterXML() string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	fmt.Fprintf(&b, `<p:sldMaster xmlns:a=%q xmlns:r=%q xmlns:p=%q>`, nsA, nsR, nsP)
	b.WriteString(`<p:cSld><p:spTree>` + emptyGroupShapeProps + `</p:spTree></p:cSld>`)
	b.WriteString(`<p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/>`)
	b.WriteString(`<p:sldLayoutIdLst><p:sldLayoutId id="2147483649" r:id="rId1"/></p:sldLayoutIdLst>`)
	b.WriteString(`</p:sldMaster>`)
	return b.String()
}

func slideMasterRelsXML() string {
	return xmlHeader + fmt.Sprintf(
		`<Relationships xmlns=%q>`+
			`<Relationship Id="rId1" Type=%q Target="../slideLayouts/slideLayout1.xml"/>`+
			`<Relationship Id="rId2" Type=%q Target="../theme/theme1.xml"/>`+
			`</Relationships>`,
		nsPR, relTypeSlideLayout, relTypeTheme)
}

func slideLayoutXML() string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	fmt.Fprintf(&b, `<p:sldLayout xmlns:a=%q xmlns:r=%q xmlns:p=%q type="blank">`, nsA, nsR, nsP)
	b.WriteString(`<p:cSld name="Blank"><p:spTree>` + emptyGroupShapeProps + `</p:spTree></p:cSld>`)
	b.WriteString(`<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr>`)
	b.WriteString(`</p:sldLayout>`)
	return b.String()
}

func slideLayoutRelsXML() string {
	return xmlHeader + fmt.Sprintf(
		`<Relationships xmlns=%q><Relationship Id="rId1" Type=%q Target="../slideMasters/slideMaster1.xml"/></Relationships>`,
		nsPR, relTypeSlideMaster)
}

// emptyGroupShapeProps is the mandatory spTree preamble.
const emptyGroupShapeProps = `<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>` +
	`<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>`

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\r\n"

// themeXML is a minimal but complete theme part: color scheme, font
// scheme and the three-entry format scheme lists the schema requires.
func themeXML() string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	fmt.Fprintf(&b, `<a:theme xmlns:a=%q name="Office Theme"><a:themeElements>`, nsA)
	b.WriteString(`<a:clrScheme name="Office">` +
		`<a:dk1><a:sysClr val="windowText" lastClr="000000"/></a:dk1>` +
		`<a:lt1><a:sysClr val="window" lastClr="FFFFFF"/></a:lt1>` +
		`<a:dk2><a:srgbClr val="44546A"/></a:dk2>` +
		`<a:lt2><a:srgbClr val="E7E6E6"/></a:lt2>` +
		`<a:accent1><a:srgbClr val="4472C4"/></a:accent1>` +
		`<a:accent2><a:srgbClr val="ED7D31"/></a:accent2>` +
		`<a:accent3><a:srgbClr val="A5A5A5"/></a:accent3>` +
		`<a:accent4><a:srgbClr val="FFC000"/></a:accent4>` +
		`<a:accent5><a:srgbClr val="5B9BD5"/></a:accent5>` +
		`<a:accent6><a:srgbClr val="70AD47"/></a:accent6>` +
		`<a:hlink><a:srgbClr val="0563C1"/></a:hlink>` +
		`<a:folHlink><a:srgbClr val="954F72"/></a:folHlink>` +
		`</a:clrScheme>`)
	b.WriteString(`<a:fontScheme name="Office">` +
		`<a:majorFont><a:latin typeface="Calibri Light"/><a:ea typeface=""/><a:cs typeface=""/></a:majorFont>` +
		`<a:minorFont><a:latin typeface="Calibri"/><a:ea typeface=""/><a:cs typeface=""/></a:minorFont>` +
		`</a:fontScheme>`)
	b.WriteString(`<a:fmtScheme name="Office">` +
		`<a:fillStyleLst>` + solidSchemeFill + solidSchemeFill + solidSchemeFill + `</a:fillStyleLst>` +
		`<a:lnStyleLst>` + schemeLine + schemeLine + schemeLine + `</a:lnStyleLst>` +
		`<a:effectStyleLst><a:effectStyle><a:effectLst/></a:effectStyle><a:effectStyle><a:effectLst/></a:effectStyle><a:effectStyle><a:effectLst/></a:effectStyle></a:effectStyleLst>` +
		`<a:bgFillStyleLst>` + solidSchemeFill + solidSchemeFill + solidSchemeFill + `</a:bgFillStyleLst>` +
		`</a:fmtScheme>`)
	b.WriteString(`</a:themeElements></a:theme>`)
	return b.String()
}

const (
	solidSchemeFill = `<a:solidFill><a:schemeClr val="phClr"/></a:solidFill>`
	schemeLine      = `<a:ln w="9525" cap="flat" cmpd="sng" algn="ctr"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:prstDash val="solid"/></a:ln>`
)
