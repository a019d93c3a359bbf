package audio

// Anchor/target pairing parameters (spec.md §4.3, window counts).
const (
	AnchorOffset   = 1
	TargetZoneSize = 5
)

// Landmark is one audio constellation hash: a 64-bit packed (f1, f2, Δt)
// triple keyed by the anchor's window index.
type Landmark struct {
	Hash       uint64
	TimeOffset uint32
}

// PackLandmark packs an anchor/target bin pair and their time delta into
// the 64-bit layout spec.md §3 fixes: (f1 << 23) | (f2 << 9) | Δt. f1/f2
// fit in 14 bits (bin indices are bounded by WindowSize/2 = 2048); Δt
// fits in 9 bits (it's at most TargetZoneSize + AnchorOffset = 6).
func PackLandmark(f1, f2, deltaT int) uint64 {
	return (uint64(f1) << 23) | (uint64(f2) << 9) | uint64(deltaT)
}

// UnpackLandmark reverses PackLandmark, splitting a packed hash back
// into its (f1, f2, Δt) components. Used by the report serializer to
// impose the debug ordering spec.md §5 requires (time_offset, f1, f2,
// Δt) without needing a parallel unpacked representation carried
// alongside every landmark.
func UnpackLandmark(hash uint64) (f1, f2, deltaT int) {
	f1 = int(hash >> 23)
	f2 = int((hash >> 9) & 0x3FFF)
	deltaT = int(hash & 0x1FF)
	return f1, f2, deltaT
}

// GenerateLandmarks pairs each peak as an anchor with subsequent peaks
// (in emission order) falling within the forward time cone
// [AnchorOffset, TargetZoneSize + AnchorOffset]. Fan-out per anchor is
// bounded by TargetZoneSize's window, not by the total peak count,
// because peaks are monotone in window index (spec.md §4.3) and the
// inner scan breaks as soon as Δt exceeds the window.
func GenerateLandmarks(peaks []Peak) []Landmark {
	var out []Landmark

	for i, anchor := range peaks {
		for j := i + 1; j < len(peaks); j++ {
			target := peaks[j]
			deltaT := target.Window - anchor.Window

			if deltaT < AnchorOffset {
				continue
			}
			if deltaT > TargetZoneSize+AnchorOffset {
				break
			}

			out = append(out, Landmark{
				Hash:       PackLandmark(anchor.Bin, target.Bin, deltaT),
				TimeOffset: uint32(anchor.Window),
			})
		}
	}

	return out
}
