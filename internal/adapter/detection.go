package adapter

// Detection is the confidence-scored result of asking one adapter whether
// its manager governs a project directory. Multiple managers can share a
// manifest filename (pyproject.toml most of all), so adapters rank
// themselves instead of claiming exclusivity.
type Detection struct {
	Confidence    float64                // [0,1]
	ManifestFiles []string               // matched manifest paths
	LockFiles     []string               // matched lock file paths
	Metadata      map[string]interface{} // signals that contributed to the score
}

// Signal weights. Only the relative ordering is contractual
// (lock > manager-specific config > bare manifest > competing signal); the
// exact values are tunable except where a test pins one.
const (
	signalManifest    = 0.5  // any recognized manifest file exists
	signalLock        = 0.45 // manager-specific lock file exists
	signalToolConfig  = 0.2  // manager-specific section inside a shared manifest
	signalOwnManifest = 0.3  // manifest format exclusive to this manager
	competingPenalty  = 0.2  // subtracted when a competing manager's marker is present
)

func newDetection() Detection {
	return Detection{Metadata: make(map[string]interface{})}
}

// add records a named signal and its weight.
func (d *Detection) add(signal string, weight float64) {
	d.Confidence += weight
	d.Metadata[signal] = weight
}

// penalize subtracts a competing-manager signal.
func (d *Detection) penalize(signal string, weight float64) {
	d.Confidence -= weight
	d.Metadata[signal] = -weight
}

// clamp bounds confidence to [0,1]; additive scoring can drift past either
// edge when several signals stack.
func (d *Detection) clamp() {
	if d.Confidence < 0 {
		d.Confidence = 0
	}
	if d.Confidence > 1 {
		d.Confidence = 1
	}
}
