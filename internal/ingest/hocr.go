package ingest

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// parseHOCR reads ocr_page / ocr_line elements from an hOCR document
func parseHOCR(path string, data []byte) ([]cropLine, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, malformed(path, "invalid hOCR", err)
	}

	var lines []cropLine
	var walkErr error
	var walk func(n *html.Node, image string)
	walk = func(n *html.Node, image string) {
		if walkErr != nil {
			return
		}
		if n.Type == html.ElementNode {
			classes := strings.Fields(attrOf(n, "class"))
			switch {
			case hasClass(classes, "ocr_page"):
				image = titleImage(attrOf(n, "title"))
			case hasClass(classes, "ocr_line"), hasClass(classes, "ocrx_line"):
				text := strings.TrimSpace(textOf(n))
				if text == "" {
					return
				}
				if image == "" {
					walkErr = malformed(path, "ocr_line outside an ocr_page with an image", nil)
					return
				}
				x0, y0, x1, y1, err := titleBBox(attrOf(n, "title"))
				if err != nil {
					walkErr = malformed(path, "ocr_line coordinate", err)
					return
				}
				lines = append(lines, cropLine{
					Image:  image,
					Text:   text,
					X:      x0,
					Y:      y0,
					Width:  x1 - x0,
					Height: y1 - y0,
				})
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, image)
		}
	}
	walk(doc, "")

	if walkErr != nil {
		return nil, walkErr
	}
	return lines, nil
}

func attrOf(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(classes []string, want string) bool {
	for _, c := range classes {
		if c == want {
			return true
		}
	}
	return false
}

// textOf concatenates the text nodes under n; words of vertical Japanese
// lines carry no separators.
func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(cur *html.Node) {
		if cur.Type == html.TextNode {
			sb.WriteString(strings.TrimSpace(cur.Data))
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// titleProps splits an hOCR title ("image x.jpg; bbox 0 0 10 10") into properties
func titleProps(title string) map[string]string {
	props := make(map[string]string)
	for _, part := range strings.Split(title, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, val, _ := strings.Cut(part, " ")
		props[key] = strings.TrimSpace(val)
	}
	return props
}

func titleImage(title string) string {
	img := titleProps(title)["image"]
	img = strings.Trim(img, `"'`)
	if img == "" {
		return ""
	}
	// Keep the crop file name, not the absolute path the engine saw
	if i := strings.LastIndexAny(img, `/\`); i >= 0 {
		img = img[i+1:]
	}
	return img
}

func titleBBox(title string) (x0, y0, x1, y1 int, err error) {
	bbox, ok := titleProps(title)["bbox"]
	if !ok {
		return 0, 0, 0, 0, fmt.Errorf("missing bbox")
	}
	fields := strings.Fields(bbox)
	if len(fields) != 4 {
		return 0, 0, 0, 0, fmt.Errorf("bbox %q needs 4 values", bbox)
	}
	vals := make([]int, 4)
	for i, f := range fields {
		if vals[i], err = parseCoord(f); err != nil {
			return 0, 0, 0, 0, err
		}
	}
	return vals[0], vals[1], vals[2], vals[3], nil
}
