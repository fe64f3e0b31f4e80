package ingest

import "sort"

// sortColumns regroups lines of one crop into vertical columns read right
// to left, each column top to bottom. Lines join the first column whose
// mean centre is within tolerance pixels of their own centre.
func sortColumns(lines []cropLine, tolerance int) []cropLine {
	if len(lines) < 2 {
		return lines
	}

	byX := make([]cropLine, len(lines))
	copy(byX, lines)
	sort.SliceStable(byX, func(i, j int) bool { return byX[i].X > byX[j].X })

	type column struct {
		lines   []cropLine
		centres float64 // sum of centre x
		xs      int     // sum of left x
	}
	var columns []*column

	for _, l := range byX {
		centre := float64(l.X) + float64(l.Width)/2
		placed := false
		for _, col := range columns {
			mean := col.centres / float64(len(col.lines))
			if abs(centre-mean) < float64(tolerance) {
				col.lines = append(col.lines, l)
				col.centres += centre
				col.xs += l.X
				placed = true
				break
			}
		}
		if !placed {
			columns = append(columns, &column{lines: []cropLine{l}, centres: centre, xs: l.X})
		}
	}

	sort.SliceStable(columns, func(i, j int) bool {
		mi := float64(columns[i].xs) / float64(len(columns[i].lines))
		mj := float64(columns[j].xs) / float64(len(columns[j].lines))
		return mi > mj
	})

	out := make([]cropLine, 0, len(lines))
	for _, col := range columns {
		sort.SliceStable(col.lines, func(i, j int) bool { return col.lines[i].Y < col.lines[j].Y })
		out = append(out, col.lines...)
	}
	return out
}

// sortByCrop applies sortColumns to each crop image, keeping crops in
// first-appearance order.
func sortByCrop(lines []cropLine, tolerance int) []cropLine {
	var order []string
	groups := make(map[string][]cropLine)
	for _, l := range lines {
		if _, ok := groups[l.Image]; !ok {
			order = append(order, l.Image)
		}
		groups[l.Image] = append(groups[l.Image], l)
	}

	out := make([]cropLine, 0, len(lines))
	for _, img := range order {
		out = append(out, sortColumns(groups[img], tolerance)...)
	}
	return out
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
