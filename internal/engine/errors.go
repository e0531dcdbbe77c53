package engine

import "github.com/rotisserie/eris"

// Per-SKU failure conditions. Both degrade to "omit the derived field and keep
// going"; one bad SKU never aborts the cycle for the rest.
var (
	// ErrMissingCanonicalSource means the WMS quantity is absent for a SKU.
	// Callers must skip risk and forecast computation for that SKU rather
	// than substitute a default.
	ErrMissingCanonicalSource = eris.New("missing canonical source")

	// ErrInsufficientHistory means the velocity series has fewer than two
	// points, so no forecast can be derived.
	ErrInsufficientHistory = eris.New("insufficient velocity history")
)
