package transit

type Location struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

type BoundingBox struct {
	MinLongitude float64 `json:"minLongitude"`
	MinLatitude  float64 `json:"minLatitude"`
	MaxLongitude float64 `json:"maxLongitude"`
	MaxLatitude  float64 `json:"maxLatitude"`
}

// Union grows the box to also cover other. A zero box adopts other
// unchanged so unions can be folded from an empty starting value.
func (b BoundingBox) Union(other BoundingBox) BoundingBox {
	if b.IsZero() {
		return other
	}
	if other.IsZero() {
		return b
	}

	if other.MinLongitude < b.MinLongitude {
		b.MinLongitude = other.MinLongitude
	}
	if other.MinLatitude < b.MinLatitude {
		b.MinLatitude = other.MinLatitude
	}
	if other.MaxLongitude > b.MaxLongitude {
		b.MaxLongitude = other.MaxLongitude
	}
	if other.MaxLatitude > b.MaxLatitude {
		b.MaxLatitude = other.MaxLatitude
	}

	return b
}

func (b BoundingBox) IsZero() bool {
	return b.MinLongitude == 0 && b.MinLatitude == 0 && b.MaxLongitude == 0 && b.MaxLatitude == 0
}
