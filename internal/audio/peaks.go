package audio

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// Fixed STFT parameters (spec.md §4.2).
const (
	WindowSize = 4096
	HopSize    = 2048
	MagFloor   = 10.0
)

// bands are the four fixed frequency bands peaks are picked from,
// inclusive-lower/exclusive-upper bin indices (spec.md §4.2).
var bands = [4][2]int{
	{10, 40},
	{40, 80},
	{80, 160},
	{160, 511},
}

// Peak is a banded local spectral maximum: window index (time) and bin
// index (frequency).
type Peak struct {
	Window int
	Bin    int
}

// ExtractPeaks slides a WindowSize/HopSize STFT over samples and emits
// one peak per band per window whose magnitude exceeds MagFloor. No
// window function is applied, matching the spec's reference behavior.
// Peaks are emitted in ascending window order and, within a window, in
// band order — an order C3's anchor/target scan depends on.
func ExtractPeaks(samples []float64) []Peak {
	n := len(samples)
	if n < WindowSize {
		return nil
	}

	var peaks []Peak
	lastWindow := (n - WindowSize) / HopSize

	for w := 0; w <= lastWindow; w++ {
		start := w * HopSize
		frame := make([]complex128, WindowSize)
		for i := 0; i < WindowSize; i++ {
			frame[i] = complex(samples[start+i], 0)
		}

		spectrum := fft.FFT(frame)

		for _, band := range bands {
			bestBin := -1
			bestMag := 0.0
			hi := band[1]
			if hi > len(spectrum) {
				hi = len(spectrum)
			}
			for bin := band[0]; bin < hi; bin++ {
				mag := cmplx.Abs(spectrum[bin])
				if mag > bestMag {
					bestMag = mag
					bestBin = bin
				}
			}
			if bestBin >= 0 && bestMag > MagFloor {
				peaks = append(peaks, Peak{Window: w, Bin: bestBin})
			}
		}
	}

	return peaks
}
