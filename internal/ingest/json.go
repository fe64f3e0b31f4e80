package ingest

import (
	"encoding/json"
	"strings"
)

// jsonLine mirrors the line arrays written by the layout labeller
type jsonLine struct {
	Text        string `json:"text"`
	ImageName   string `json:"image_name"`
	PageName    string `json:"page_name"`
	BoundingBox *struct {
		X      *float64 `json:"x"`
		Y      *float64 `json:"y"`
		Width  float64  `json:"width"`
		Height float64  `json:"height"`
	} `json:"bounding_box"`
}

func parseJSON(path string, data []byte) ([]cropLine, error) {
	var entries []jsonLine
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, malformed(path, "invalid JSON line array", err)
	}

	lines := make([]cropLine, 0, len(entries))
	for _, e := range entries {
		text := strings.TrimSpace(e.Text)
		if text == "" {
			continue
		}
		if strings.TrimSpace(e.ImageName) == "" {
			return nil, malformed(path, "line without image_name", nil)
		}
		if e.BoundingBox == nil || e.BoundingBox.X == nil || e.BoundingBox.Y == nil {
			return nil, malformed(path, "line without bounding_box x/y", nil)
		}
		lines = append(lines, cropLine{
			Image:  strings.TrimSpace(e.ImageName),
			Text:   text,
			X:      int(*e.BoundingBox.X),
			Y:      int(*e.BoundingBox.Y),
			Width:  int(e.BoundingBox.Width),
			Height: int(e.BoundingBox.Height),
		})
	}
	return lines, nil
}
