// Package geometry reconciles image boxes coming from independent sources.
package geometry

import (
	"math"

	"github.com/Abraxas-365/pagelift/pkg/slide"
)

// DuplicateThreshold is the overlap above which a candidate box is considered
// the same region as a trusted one.
const DuplicateThreshold = 0.5

// Overlap returns the intersection area divided by the smaller of the two
// areas. A tight crop nested in a loose one scores 1 regardless of how much
// larger the loose one is. The result is symmetric and lies in [0,1].
func Overlap(a, b slide.Box) float64 {
	smaller := math.Min(a.Area(), b.Area())
	if smaller <= 0 {
		return 0
	}
	inter := a.Intersect(b)
	if inter <= 0 {
		return 0
	}
	return math.Min(inter/smaller, 1)
}

// Deduplicate returns the indices of the candidates that do not overlap any
// trusted box by more than DuplicateThreshold, in their original order.
// Trusted boxes are never filtered.
func Deduplicate(trusted, candidates []slide.Box) []int {
	keep := make([]int, 0, len(candidates))
	for i, c := range candidates {
		if !overlapsAny(c, trusted) {
			keep = append(keep, i)
		}
	}
	return keep
}

// DeduplicateImages drops every cropped image that duplicates a native one.
func DeduplicateImages(native, cropped []slide.ImageElement) []slide.ImageElement {
	if len(cropped) == 0 {
		return nil
	}

	trusted := make([]slide.Box, len(native))
	for i, img := range native {
		trusted[i] = img.Box
	}
	candidates := make([]slide.Box, len(cropped))
	for i, img := range cropped {
		candidates[i] = img.Box
	}

	kept := make([]slide.ImageElement, 0, len(cropped))
	for _, i := range Deduplicate(trusted, candidates) {
		kept = append(kept, cropped[i])
	}
	return kept
}

func overlapsAny(c slide.Box, trusted []slide.Box) bool {
	for _, t := range trusted {
		if Overlap(c, t) > DuplicateThreshold {
			return true
		}
	}
	return false
}
