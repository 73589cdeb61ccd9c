package models

// Direction of a detection or signal.
type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
	DirectionNone  Direction = "NONE"
)

// DetectionType identifies which detector produced an event.
type DetectionType string

const (
	DetectEarlyExpansion    DetectionType = "EARLY_EXPANSION"
	DetectPriceAccel        DetectionType = "PRICE_ACCELERATION"
	DetectVolumeAccel       DetectionType = "VOLUME_ACCELERATION"
	DetectRunner            DetectionType = "SUSTAINED_RUNNER"
	DetectOIBuildup         DetectionType = "OI_BUILDUP"
	DetectOptionRangeExp    DetectionType = "OPTION_RANGE_EXPANSION"
)

// OIClass is the open-interest/price combination classification.
type OIClass string

const (
	OILongBuildup   OIClass = "LONG_BUILDUP"
	OIShortBuildup  OIClass = "SHORT_BUILDUP"
	OIShortCovering OIClass = "SHORT_COVERING"
	OILongUnwinding OIClass = "LONG_UNWINDING"
)

// DetectionEvent is produced by a single detector. Strength is in [0,1].
// Events from different detectors for one instrument in one cycle are
// independent and combinable.
type DetectionEvent struct {
	Type      DetectionType
	Direction Direction
	Strength  float64
	OIClass   OIClass `json:",omitempty"`
}

// CompositeDetection is the weighted combination of all detector events
// for one instrument in one scan cycle.
type CompositeDetection struct {
	Token      string
	Events     []DetectionEvent
	Severity   float64
	Direction  Direction
	Actionable bool
}
