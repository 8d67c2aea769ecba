package render

import (
	"image"
	"image/color"
	"sync"
)

// ShadowOptions configures the drop shadow painted under generated UI cards.
type ShadowOptions struct {
	Radius  int
	Offset  image.Point
	Opacity float64
}

// DefaultShadowOptions returns a soft shadow that reads on dark and light
// canvases alike.
func DefaultShadowOptions() ShadowOptions {
	return ShadowOptions{
		Radius:  12,
		Offset:  image.Pt(6, 8),
		Opacity: 0.45,
	}
}

// Shadow is a blurred alpha mask ready to be composited. Origin is where
// the mask's top-left lands relative to the top-left of the box that cast
// it.
type Shadow struct {
	Mask   *image.Alpha
	Origin image.Point
}

type shadowKey struct {
	size image.Point
	opts ShadowOptions
}

// ShadowCache memoises masks by box size. Cards keep their size across
// frames, so most paints hit the cache.
type ShadowCache struct {
	mu    sync.Mutex
	masks map[shadowKey]Shadow
	limit int
}

// NewShadowCache returns a cache holding at most limit masks.
func NewShadowCache(limit int) *ShadowCache {
	return &ShadowCache{masks: make(map[shadowKey]Shadow), limit: limit}
}

// Get returns the shadow of a size.X by size.Y box.
func (c *ShadowCache) Get(size image.Point, opts ShadowOptions) Shadow {
	k := shadowKey{size, opts}
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.masks[k]; ok {
		return s
	}
	s := BoxShadow(size, opts)
	if c.limit > 0 && len(c.masks) >= c.limit {
		clear(c.masks)
	}
	c.masks[k] = s
	return s
}

// BoxShadow builds the shadow of an opaque size.X by size.Y box. The mask
// is padded by the blur radius on every side.
func BoxShadow(size image.Point, opts ShadowOptions) Shadow {
	if size.X <= 0 || size.Y <= 0 || opts.Opacity <= 0 {
		return Shadow{}
	}
	opacity := opts.Opacity
	if opacity > 1 {
		opacity = 1
	}
	radius := opts.Radius
	if radius < 0 {
		radius = 0
	}

	alpha := uint8(opacity*255 + 0.5)
	mask := image.NewAlpha(image.Rect(0, 0, size.X+2*radius, size.Y+2*radius))
	for y := radius; y < radius+size.Y; y++ {
		row := mask.Pix[y*mask.Stride:]
		for x := radius; x < radius+size.X; x++ {
			row[x] = alpha
		}
	}
	return Shadow{
		Mask:   blurAlpha(mask, radius),
		Origin: opts.Offset.Sub(image.Pt(radius, radius)),
	}
}

// At reports the shadow alpha at a point relative to the casting box.
func (s Shadow) At(p image.Point) uint8 {
	if s.Mask == nil {
		return 0
	}
	q := p.Sub(s.Origin)
	if !q.In(s.Mask.Bounds()) {
		return 0
	}
	return s.Mask.AlphaAt(q.X, q.Y).A
}

// blurAlpha is a separable box blur using running prefix sums.
func blurAlpha(src *image.Alpha, radius int) *image.Alpha {
	if radius <= 0 {
		out := image.NewAlpha(src.Bounds())
		copy(out.Pix, src.Pix)
		return out
	}
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	tmp := image.NewAlpha(bounds)
	dst := image.NewAlpha(bounds)

	pass := func(n, stride int, get func(i int) uint8, set func(i int, v uint8)) {
		prefix := make([]int, n+1)
		for i := 0; i < n; i++ {
			prefix[i+1] = prefix[i] + int(get(i*stride))
		}
		for i := 0; i < n; i++ {
			lo := max(i-radius, 0)
			hi := min(i+radius, n-1)
			set(i*stride, uint8((prefix[hi+1]-prefix[lo])/(hi-lo+1)))
		}
	}
	for y := 0; y < h; y++ {
		base := y * src.Stride
		pass(w, 1,
			func(i int) uint8 { return src.Pix[base+i] },
			func(i int, v uint8) { tmp.Pix[base+i] = v })
	}
	for x := 0; x < w; x++ {
		pass(h, tmp.Stride,
			func(i int) uint8 { return tmp.Pix[x+i] },
			func(i int, v uint8) { dst.Pix[x+i] = v })
	}
	return dst
}

var shadowColor = image.NewUniform(color.Black)
