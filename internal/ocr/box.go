package ocr

// BoundingBox is an axis-aligned rectangle locating a detected text block
// in image coordinates. Origin is the top-left corner of the image with x
// growing right and y growing down.
type BoundingBox struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NewBoundingBox constructs a box from its top-left corner and size.
func NewBoundingBox(left, top, width, height float64) BoundingBox {
	return BoundingBox{Left: left, Top: top, Width: width, Height: height}
}

// FromNormalized converts normalized [0,1] coordinates into pixel
// coordinates for an image of the given size. Engines that report boxes in
// a bottom-left-origin space (e.g. Vision-style bridges) set flipY to
// mirror the vertical axis.
func FromNormalized(nx, ny, nw, nh float64, imgWidth, imgHeight int, flipY bool) BoundingBox {
	w := float64(imgWidth)
	h := float64(imgHeight)
	top := ny * h
	if flipY {
		top = (1 - ny - nh) * h
	}
	return BoundingBox{
		Left:   nx * w,
		Top:    top,
		Width:  nw * w,
		Height: nh * h,
	}
}

// Right returns the x coordinate of the right edge.
func (b BoundingBox) Right() float64 { return b.Left + b.Width }

// Bottom returns the y coordinate of the bottom edge.
func (b BoundingBox) Bottom() float64 { return b.Top + b.Height }

// CenterX returns the x coordinate of the box center.
func (b BoundingBox) CenterX() float64 { return b.Left + b.Width/2 }

// CenterY returns the y coordinate of the box center.
func (b BoundingBox) CenterY() float64 { return b.Top + b.Height/2 }

// Area returns width*height, or 0 for invalid boxes.
func (b BoundingBox) Area() float64 {
	if !b.IsValid() {
		return 0
	}
	return b.Width * b.Height
}

// IsValid reports whether the box has positive extent in both dimensions.
func (b BoundingBox) IsValid() bool { return b.Width > 0 && b.Height > 0 }

// Contains reports whether the point (x, y) lies inside the box.
// Edges count as inside.
func (b BoundingBox) Contains(x, y float64) bool {
	return x >= b.Left && x <= b.Right() && y >= b.Top && y <= b.Bottom()
}

// Intersects reports whether the two boxes overlap with positive area.
func (b BoundingBox) Intersects(other BoundingBox) bool {
	return b.IntersectionArea(other) > 0
}

// IntersectionArea returns the area of overlap between the two boxes,
// 0 when they are disjoint or either box is invalid.
func (b BoundingBox) IntersectionArea(other BoundingBox) float64 {
	if !b.IsValid() || !other.IsValid() {
		return 0
	}
	left := maxFloat(b.Left, other.Left)
	top := maxFloat(b.Top, other.Top)
	right := minFloat(b.Right(), other.Right())
	bottom := minFloat(b.Bottom(), other.Bottom())
	if right <= left || bottom <= top {
		return 0
	}
	return (right - left) * (bottom - top)
}

// Expand grows the box by margin on every side. A negative margin shrinks
// it; the result may become invalid if shrunk past zero extent.
func (b BoundingBox) Expand(margin float64) BoundingBox {
	return BoundingBox{
		Left:   b.Left - margin,
		Top:    b.Top - margin,
		Width:  b.Width + 2*margin,
		Height: b.Height + 2*margin,
	}
}

// Scale resizes the box by factor, anchored at its center.
func (b BoundingBox) Scale(factor float64) BoundingBox {
	newW := b.Width * factor
	newH := b.Height * factor
	return BoundingBox{
		Left:   b.CenterX() - newW/2,
		Top:    b.CenterY() - newH/2,
		Width:  newW,
		Height: newH,
	}
}

// Clamp restricts the box to lie within outer. Boxes entirely outside
// collapse to zero extent on the nearest edge.
func (b BoundingBox) Clamp(outer BoundingBox) BoundingBox {
	left := clampFloat(b.Left, outer.Left, outer.Right())
	top := clampFloat(b.Top, outer.Top, outer.Bottom())
	right := clampFloat(b.Right(), outer.Left, outer.Right())
	bottom := clampFloat(b.Bottom(), outer.Top, outer.Bottom())
	return BoundingBox{Left: left, Top: top, Width: right - left, Height: bottom - top}
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
