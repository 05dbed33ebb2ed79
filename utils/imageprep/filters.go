package imageprep

import (
	"image"
	"image/color"
	"math"
)

// luma reads the gray level of an image whose channels are already equal.
func luma(src *image.NRGBA, x, y int) uint8 {
	return src.Pix[src.PixOffset(x, y)]
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Median3x3 replaces every pixel with the median of its 3x3 neighborhood.
// Borders are extended.
func Median3x3(src *image.NRGBA) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(b)
	var win [9]uint8
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			n := 0
			for dy := -1; dy <= 1; dy++ {
				yy := clamp(y+dy, b.Min.Y, b.Max.Y-1)
				for dx := -1; dx <= 1; dx++ {
					xx := clamp(x+dx, b.Min.X, b.Max.X-1)
					win[n] = luma(src, xx, yy)
					n++
				}
			}
			for i := 1; i < len(win); i++ {
				for j := i; j > 0 && win[j-1] > win[j]; j-- {
					win[j-1], win[j] = win[j], win[j-1]
				}
			}
			dst.SetGray(x, y, colorGray(win[4]))
		}
	}
	return dst
}

// Bilateral smooths flat regions while keeping strokes sharp. Each neighbor
// within radius is weighted by its distance and by its gray level difference.
func Bilateral(src *image.NRGBA, radius int, sigmaColor, sigmaSpace float64) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(b)

	size := 2*radius + 1
	spatial := make([]float64, size*size)
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			d2 := float64(dx*dx + dy*dy)
			spatial[(dy+radius)*size+dx+radius] = math.Exp(-d2 / (2 * sigmaSpace * sigmaSpace))
		}
	}
	var rangeW [256]float64
	for i := range rangeW {
		d := float64(i)
		rangeW[i] = math.Exp(-d * d / (2 * sigmaColor * sigmaColor))
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			center := int(luma(src, x, y))
			var sum, norm float64
			for dy := -radius; dy <= radius; dy++ {
				yy := clamp(y+dy, b.Min.Y, b.Max.Y-1)
				for dx := -radius; dx <= radius; dx++ {
					xx := clamp(x+dx, b.Min.X, b.Max.X-1)
					v := int(luma(src, xx, yy))
					diff := v - center
					if diff < 0 {
						diff = -diff
					}
					w := spatial[(dy+radius)*size+dx+radius] * rangeW[diff]
					sum += w * float64(v)
					norm += w
				}
			}
			dst.SetGray(x, y, colorGray(uint8(math.Round(sum/norm))))
		}
	}
	return dst
}

// AdaptiveMeanThreshold binarizes src against the mean of a block x block
// window around each pixel minus c. Pixels brighter than the local
// threshold become white.
func AdaptiveMeanThreshold(src *image.Gray, block, c int) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewGray(b)
	if w == 0 || h == 0 {
		return dst
	}

	// Summed-area table with a zero row and column.
	integral := make([]int64, (w+1)*(h+1))
	for y := 0; y < h; y++ {
		var row int64
		for x := 0; x < w; x++ {
			row += int64(src.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			integral[(y+1)*(w+1)+x+1] = integral[y*(w+1)+x+1] + row
		}
	}

	half := block / 2
	for y := 0; y < h; y++ {
		y0, y1 := clamp(y-half, 0, h-1), clamp(y+half, 0, h-1)+1
		for x := 0; x < w; x++ {
			x0, x1 := clamp(x-half, 0, w-1), clamp(x+half, 0, w-1)+1
			area := int64((x1 - x0) * (y1 - y0))
			sum := integral[y1*(w+1)+x1] - integral[y0*(w+1)+x1] - integral[y1*(w+1)+x0] + integral[y0*(w+1)+x0]
			v := int64(src.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			if v*area > sum-int64(c)*area {
				dst.SetGray(b.Min.X+x, b.Min.Y+y, colorGray(255))
			} else {
				dst.SetGray(b.Min.X+x, b.Min.Y+y, colorGray(0))
			}
		}
	}
	return dst
}

func colorGray(v uint8) color.Gray { return color.Gray{Y: v} }
