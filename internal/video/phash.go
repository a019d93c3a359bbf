package video

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"
)

// Perceptual hash parameters (spec.md §4.5): a 64-bit DCT hash rendered
// as 16 lowercase hex characters.
const (
	dctSize      = 32 // luminance is resampled to dctSize x dctSize before the DCT
	hashBlock    = 8  // the low-frequency corner of the DCT this hash is built from
	HashBits     = hashBlock * hashBlock
	HashHexWidth = HashBits / 4
)

// Hash computes the DCT-based perceptual hash of img's luminance
// channel: downsample to dctSize×dctSize grayscale, take the 2D DCT-II,
// keep the hashBlock×hashBlock low-frequency corner, and set one bit per
// coefficient based on whether it's above the block's median. Hamming
// distance between two hashes stays small under re-encoding, minor
// resolution changes, and luminance shifts because those perturbations
// concentrate energy in high frequencies this hash discards.
func Hash(img image.Image) string {
	luma := downsampleLuma(img, dctSize, dctSize)
	coeffs := dct2D(luma)
	bits := lowFrequencyBits(coeffs)
	return bitsToHex(bits)
}

// downsampleLuma nearest-neighbor samples img down to w×h grayscale
// values, with no anti-aliasing filter.
func downsampleLuma(img image.Image, w, h int) [][]float64 {
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()

	out := make([][]float64, h)
	for y := 0; y < h; y++ {
		out[y] = make([]float64, w)
		srcY := bounds.Min.Y + y*srcH/h
		for x := 0; x < w; x++ {
			srcX := bounds.Min.X + x*srcW/w
			r, g, b, _ := img.At(srcX, srcY).RGBA()
			gray := color.GrayModel.Convert(color.RGBA{
				R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 255,
			}).(color.Gray)
			out[y][x] = float64(gray.Y)
		}
	}
	return out
}

// dct2D applies a separable 2D DCT-II: 1D DCT along rows, then along
// columns of the result. No third-party DCT implementation exists
// across the example pack (go-dsp exposes FFT, not DCT), so this is a
// direct stdlib (math.Cos) implementation of the standard formula —
// acceptable here since it's the one part of the domain stack with no
// library home anywhere in the corpus.
func dct2D(matrix [][]float64) [][]float64 {
	n := len(matrix)

	rowTransformed := make([][]float64, n)
	for y := 0; y < n; y++ {
		rowTransformed[y] = dct1D(matrix[y])
	}

	out := make([][]float64, n)
	for y := 0; y < n; y++ {
		out[y] = make([]float64, n)
	}
	for x := 0; x < n; x++ {
		col := make([]float64, n)
		for y := 0; y < n; y++ {
			col[y] = rowTransformed[y][x]
		}
		col = dct1D(col)
		for y := 0; y < n; y++ {
			out[y][x] = col[y]
		}
	}
	return out
}

func dct1D(x []float64) []float64 {
	n := len(x)
	out := make([]float64, n)
	for k := 0; k < n; k++ {
		var sum float64
		for i := 0; i < n; i++ {
			sum += x[i] * math.Cos(math.Pi/float64(n)*(float64(i)+0.5)*float64(k))
		}
		if k == 0 {
			sum *= 1 / math.Sqrt2
		}
		out[k] = sum
	}
	return out
}

// lowFrequencyBits reads the hashBlock×hashBlock low-frequency corner of
// coeffs in row-major order and sets one bit per coefficient: 1 if the
// value is above the block's median, 0 otherwise. Thresholding on the
// median (rather than the mean) makes the hash robust to a DC offset
// from overall brightness.
func lowFrequencyBits(coeffs [][]float64) []bool {
	vals := make([]float64, 0, HashBits)
	for y := 0; y < hashBlock; y++ {
		for x := 0; x < hashBlock; x++ {
			vals = append(vals, coeffs[y][x])
		}
	}

	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	median := sorted[len(sorted)/2]
	if len(sorted)%2 == 0 {
		median = (sorted[len(sorted)/2-1] + sorted[len(sorted)/2]) / 2
	}

	bits := make([]bool, len(vals))
	for i, v := range vals {
		bits[i] = v > median
	}
	return bits
}

func bitsToHex(bits []bool) string {
	var v uint64
	for i, b := range bits {
		if b {
			v |= 1 << uint(len(bits)-1-i)
		}
	}
	return fmt.Sprintf("%0*x", HashHexWidth, v)
}
