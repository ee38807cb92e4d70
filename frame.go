package amg8833

import (
	"image"
	"image/color"
	"math"
)

// Frame is one complete sweep of the 64 pixel registers, decoded to degrees
// Celsius. Pix is in read order: row-major from the top-left pixel along
// the sensor's line of sight. Raw holds the samples as they came off the
// bus, before any byte swap or decoding.
type Frame struct {
	Pix [PixelCount]float64
	Raw [PixelCount]uint16
}

// At returns the temperature at zero-based grid coordinates, x increasing
// to the right and y increasing downward.
func (f *Frame) At(x, y int) float64 {
	return f.Pix[y*Cols+x]
}

// Stats summarizes one frame. Min and Max are the exact extrema; Avg is
// the mean rounded to two decimals. Hi and Lo are the display banding
// thresholds derived from the rounded mean:
//
//	Hi = Avg + (Max-Avg)/2
//	Lo = Avg - (Min-Avg)/2
//
// Lo sits above Avg whenever Min is below it.
type Stats struct {
	Min float64
	Max float64
	Avg float64
	Hi  float64
	Lo  float64
}

// Stats computes fresh statistics for the frame. Nothing is carried over
// between frames.
func (f *Frame) Stats() Stats {
	min, max := f.Pix[0], f.Pix[0]
	sum := 0.0
	for _, v := range f.Pix {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += v
	}
	avg := math.Round(sum/PixelCount*100) / 100
	return Stats{
		Min: min,
		Max: max,
		Avg: avg,
		Hi:  avg + (max-avg)/2,
		Lo:  avg - (min-avg)/2,
	}
}

// Image maps the frame onto a Gray16, one sensor pixel per image pixel.
// Each 0.25°C step is one count, offset so that 0°C lands mid-scale, then
// shifted into the full 16-bit range.
func (f *Frame) Image() *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, Cols, Rows))
	for i, t := range f.Pix {
		counts := int(math.Round(t/PixelResolution)) + 2048
		img.SetGray16(i%Cols, i/Cols, color.Gray16{Y: uint16(counts&0xFFF) << 4})
	}
	return img
}
