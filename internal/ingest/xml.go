package ingest

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

// cropLine is a parsed line before page metadata is attached
type cropLine struct {
	Image  string `json:"image"`
	Text   string `json:"text"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"w,omitempty"`
	Height int    `json:"h,omitempty"`
}

// xmlNode is a generic element tree; NDL and ALTO share no schema
type xmlNode struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Text    string     `xml:",chardata"`
	Nodes   []xmlNode  `xml:",any"`
}

func (n *xmlNode) attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if strings.EqualFold(a.Name.Local, name) {
			return a.Value, true
		}
	}
	return "", false
}

// findAll collects descendants with the given local name, in document order
func (n *xmlNode) findAll(local string) []*xmlNode {
	var out []*xmlNode
	var walk func(*xmlNode)
	walk = func(cur *xmlNode) {
		for i := range cur.Nodes {
			child := &cur.Nodes[i]
			if child.XMLName.Local == local {
				out = append(out, child)
			}
			walk(child)
		}
	}
	walk(n)
	return out
}

func parseXML(path string, data []byte) ([]cropLine, error) {
	var root xmlNode
	if err := xml.NewDecoder(bytes.NewReader(data)).Decode(&root); err != nil {
		return nil, malformed(path, "invalid XML", err)
	}

	lines, err := parseNDL(path, &root)
	if err != nil {
		return nil, err
	}
	if len(lines) > 0 {
		return lines, nil
	}
	return parseALTO(path, &root)
}

// parseNDL reads PAGE[@IMAGENAME]/LINE[@STRING,@X,@Y] documents
func parseNDL(path string, root *xmlNode) ([]cropLine, error) {
	pages := root.findAll("PAGE")
	if root.XMLName.Local == "PAGE" {
		pages = append([]*xmlNode{root}, pages...)
	}

	var lines []cropLine
	for _, page := range pages {
		for _, line := range page.findAll("LINE") {
			text, ok := line.attr("STRING")
			if !ok || strings.TrimSpace(text) == "" {
				text = line.Text
			}
			text = strings.TrimSpace(text)
			if text == "" {
				continue
			}

			image, ok := page.attr("IMAGENAME")
			if !ok || strings.TrimSpace(image) == "" {
				return nil, malformed(path, "PAGE without IMAGENAME", nil)
			}
			cl, err := coords(path, line, "X", "Y", "WIDTH", "HEIGHT")
			if err != nil {
				return nil, err
			}
			cl.Image = strings.TrimSpace(image)
			cl.Text = text
			lines = append(lines, cl)
		}
	}
	return lines, nil
}

// parseALTO reads every String element as one line, positioned by its own
// HPOS and VPOS
func parseALTO(path string, root *xmlNode) ([]cropLine, error) {
	image := ""
	for _, fn := range root.findAll("fileName") {
		if s := strings.TrimSpace(fn.Text); s != "" {
			image = s
			break
		}
	}

	var lines []cropLine
	for _, s := range root.findAll("String") {
		content, _ := s.attr("CONTENT")
		text := strings.TrimSpace(content)
		if text == "" {
			continue
		}
		if image == "" {
			return nil, malformed(path, "ALTO document without sourceImageInformation/fileName", nil)
		}
		cl, err := coords(path, s, "HPOS", "VPOS", "WIDTH", "HEIGHT")
		if err != nil {
			return nil, err
		}
		cl.Image = image
		cl.Text = text
		lines = append(lines, cl)
	}
	return lines, nil
}

// coords reads the required position attributes and the optional extent
func coords(path string, n *xmlNode, xAttr, yAttr, wAttr, hAttr string) (cropLine, error) {
	var cl cropLine
	var err error
	if cl.X, err = requiredInt(n, xAttr); err != nil {
		return cl, malformed(path, fmt.Sprintf("%s line coordinate", n.XMLName.Local), err)
	}
	if cl.Y, err = requiredInt(n, yAttr); err != nil {
		return cl, malformed(path, fmt.Sprintf("%s line coordinate", n.XMLName.Local), err)
	}
	cl.Width = optionalInt(n, wAttr)
	cl.Height = optionalInt(n, hAttr)
	return cl, nil
}

func requiredInt(n *xmlNode, name string) (int, error) {
	v, ok := n.attr(name)
	if !ok || strings.TrimSpace(v) == "" {
		return 0, fmt.Errorf("missing %s", name)
	}
	return parseCoord(v)
}

func optionalInt(n *xmlNode, name string) int {
	v, ok := n.attr(name)
	if !ok {
		return 0
	}
	i, err := parseCoord(v)
	if err != nil {
		return 0
	}
	return i
}

// parseCoord accepts integer or float pixel values
func parseCoord(v string) (int, error) {
	v = strings.TrimSpace(v)
	if i, err := strconv.Atoi(v); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("bad coordinate %q", v)
	}
	return int(f), nil
}
