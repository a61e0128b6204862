package core

// Params holds the tuning constants of the simulation. The defaults are
// tuned for visual plausibility, not physical accuracy.
type Params struct {
	// Sizing: diameter = clamp(|percentChange|*SizeFactor + BaseSize, MinSize, MaxSize).
	BaseSize   float64
	SizeFactor float64
	MinSize    float64
	MaxSize    float64

	// HeaderOffset is the reserved band at the top of the container.
	HeaderOffset float64

	// Layout.
	JitterFraction float64 // of the cell width/height
	MinInitSpeed   float64
	MaxInitSpeed   float64
	DriftRadiusMin float64
	DriftRadiusMax float64
	DriftSpeedMin  float64
	DriftSpeedMax  float64

	// Stepping.
	MaxSpeed             float64
	WallRestitution      float64
	CollisionRestitution float64
	OverlapSplit         float64
	StallThreshold       float64
	StallKick            float64 // full width of the uniform kick, centred on zero
	DriftTimeScale       float64 // drift phase advance per frame, in DriftSpeed units
	Epsilon              float64

	// Interaction.
	InteractionRadius float64
	MaxForce          float64
	ForceScale        float64
	SelfJitter        float64 // full width of the uniform jitter, centred on zero
}

// DefaultParams returns the reference tuning.
func DefaultParams() Params {
	return Params{
		BaseSize:   80,
		SizeFactor: 2,
		MinSize:    80,
		MaxSize:    120,

		HeaderOffset: 60,

		JitterFraction: 0.3,
		MinInitSpeed:   0.5,
		MaxInitSpeed:   2.0,
		DriftRadiusMin: 10,
		DriftRadiusMax: 30,
		DriftSpeedMin:  0.0002,
		DriftSpeedMax:  0.0007,

		MaxSpeed:             3,
		WallRestitution:      0.8,
		CollisionRestitution: 0.8,
		OverlapSplit:         0.5,
		StallThreshold:       0.2,
		StallKick:            0.4,
		DriftTimeScale:       1000.0 / 60.0,
		Epsilon:              1e-6,

		InteractionRadius: 150,
		MaxForce:          100,
		ForceScale:        0.3,
		SelfJitter:        8,
	}
}
