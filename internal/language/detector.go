// Package language guesses the spoken language of a clip from coarse acoustic
// statistics. It is a fuzzy heuristic, not a speech recognizer: each language
// has a profile of typical pitch, spectral centroid, flatness and zero-crossing
// rate, and the clip is matched against all of them with Gaussian memberships.
package language

import (
	"cmp"
	"math"
	"slices"

	"github.com/tphakala/callguard/internal/features"
)

// Unknown is reported when no profile matches well enough.
const Unknown = "Unknown"

// Sources of a Result
const (
	SourceDetected = "detected"
	SourceRequest  = "request"
)

const (
	minPrimaryScore     = 0.25
	minSecondaryScore   = 0.4
	maxSecondaryGap     = 0.15
	unknownConfidence   = 0.1
	confidenceScale     = 1.5
	maxConfidence       = 0.99
	maxDetectedLanguage = 2
)

// Feature weights in the overall membership score
const (
	weightPitch    = 0.4
	weightCentroid = 0.3
	weightFlatness = 0.2
	weightZCR      = 0.1
)

// gaussian is a mean and standard deviation pair.
type gaussian struct {
	mean, std float64
}

// membership returns exp(-z²/2) for v, or a crisp 0/1 when std is zero.
func (g gaussian) membership(v float64) float64 {
	if g.std == 0 {
		if v == g.mean {
			return 1
		}
		return 0
	}
	z := (v - g.mean) / g.std
	return math.Exp(-0.5 * z * z)
}

// Profile describes the typical acoustics of one language.
type Profile struct {
	Name     string
	pitch    gaussian
	centroid gaussian
	flatness gaussian
	zcr      gaussian
}

// DefaultProfiles are the built-in language profiles.
var DefaultProfiles = []Profile{
	{Name: "Tamil", pitch: gaussian{210, 30}, centroid: gaussian{2800, 400}, flatness: gaussian{0.28, 0.1}, zcr: gaussian{0.07, 0.02}},
	{Name: "English", pitch: gaussian{145, 30}, centroid: gaussian{2200, 500}, flatness: gaussian{0.45, 0.1}, zcr: gaussian{0.05, 0.02}},
	{Name: "Hindi", pitch: gaussian{185, 30}, centroid: gaussian{2200, 300}, flatness: gaussian{0.35, 0.1}, zcr: gaussian{0.045, 0.02}},
	{Name: "Malayalam", pitch: gaussian{200, 30}, centroid: gaussian{2400, 400}, flatness: gaussian{0.50, 0.1}, zcr: gaussian{0.06, 0.02}},
	{Name: "Telugu", pitch: gaussian{195, 35}, centroid: gaussian{2350, 350}, flatness: gaussian{0.32, 0.1}, zcr: gaussian{0.05, 0.02}},
}

// Result is the outcome of language identification.
type Result struct {
	PrimaryLanguage   string   `json:"primary_language"`
	DetectedLanguages []string `json:"detected_languages"`
	IsMultilingual    bool     `json:"is_multilingual"`
	Confidence        float64  `json:"confidence"`
	Source            string   `json:"source"`
}

// Detector scores acoustic profiles against language profiles.
type Detector struct {
	profiles []Profile
}

// NewDetector returns a detector over DefaultProfiles.
func NewDetector() *Detector {
	return &Detector{profiles: DefaultProfiles}
}

type scored struct {
	name  string
	score float64
}

// Detect identifies the language of a clip.
func (d *Detector) Detect(p features.AcousticProfile) Result {
	scores := make([]scored, 0, len(d.profiles))
	for _, prof := range d.profiles {
		scores = append(scores, scored{name: prof.Name, score: prof.score(p)})
	}
	slices.SortStableFunc(scores, func(a, b scored) int {
		return cmp.Compare(b.score, a.score)
	})

	if len(scores) == 0 || scores[0].score < minPrimaryScore {
		return Result{
			PrimaryLanguage:   Unknown,
			DetectedLanguages: []string{Unknown},
			Confidence:        unknownConfidence,
			Source:            SourceDetected,
		}
	}

	primary := scores[0]
	detected := []string{primary.name}
	for _, s := range scores[1:] {
		if len(detected) == maxDetectedLanguage {
			break
		}
		if s.score > minSecondaryScore && primary.score-s.score < maxSecondaryGap {
			detected = append(detected, s.name)
		}
	}

	return Result{
		PrimaryLanguage:   primary.name,
		DetectedLanguages: detected,
		IsMultilingual:    len(detected) > 1,
		Confidence:        math.Round(min(primary.score*confidenceScale, maxConfidence)*100) / 100,
		Source:            SourceDetected,
	}
}

// FromHint wraps a caller-supplied language.
func FromHint(language string) Result {
	return Result{
		PrimaryLanguage:   language,
		DetectedLanguages: []string{language},
		Confidence:        1,
		Source:            SourceRequest,
	}
}

func (prof Profile) score(p features.AcousticProfile) float64 {
	return weightPitch*prof.pitch.membership(p.PitchMean) +
		weightCentroid*prof.centroid.membership(p.CentroidMean) +
		weightFlatness*prof.flatness.membership(p.SpectralFlatness) +
		weightZCR*prof.zcr.membership(p.ZeroCrossingRate)
}
