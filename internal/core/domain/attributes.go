package domain

// =============================================================================
// Buildable Amount
// =============================================================================

// Buildable is the number of complete pack instances that can be assembled
// from current stock. A pack with no components is buildable an unbounded
// number of times.
type Buildable struct {
	Count     int
	Unbounded bool
}

// Unbounded returns the buildable amount of a pack with no constraining
// component.
func Unbounded() Buildable {
	return Buildable{Unbounded: true}
}

// Bounded returns a finite buildable amount.
func Bounded(n int) Buildable {
	return Buildable{Count: n}
}

// Min returns the smaller of b and other. Unbounded loses to any finite value.
func (b Buildable) Min(other Buildable) Buildable {
	switch {
	case b.Unbounded:
		return other
	case other.Unbounded:
		return b
	case other.Count < b.Count:
		return other
	default:
		return b
	}
}

// Per returns how many times selected units fit into b, using floor
// division. selected must be positive. Unbounded stays unbounded.
func (b Buildable) Per(selected int) Buildable {
	if b.Unbounded {
		return b
	}
	return Bounded(b.Count / selected)
}

// =============================================================================
// Attributes
// =============================================================================

// Attributes are the derived totals of a pack.
type Attributes struct {
	PackID    int64
	Name      string
	Function  string
	Weight    float64
	Volume    float64
	Price     float64
	Buildable Buildable
}

// =============================================================================
// Form Defaults
// =============================================================================

// Units are the display labels for the opaque numeric attributes.
type Units struct {
	Weight string `json:"weight"`
	Volume string `json:"volume"`
	Price  string `json:"price"`
}

// ItemDefaults are the prefill values of a new-item form.
type ItemDefaults struct {
	Name     string  `json:"name"`
	Function string  `json:"function"`
	Weight   float64 `json:"weight"`
	Volume   float64 `json:"volume"`
	Price    float64 `json:"price"`
	Amount   int     `json:"amount"`
}

// PackDefaults are the prefill values of a new-pack form.
type PackDefaults struct {
	Name     string `json:"name"`
	Function string `json:"function"`
}

// Defaults groups everything a UI collaborator needs to render empty forms.
type Defaults struct {
	Units Units        `json:"units"`
	Item  ItemDefaults `json:"item"`
	Pack  PackDefaults `json:"pack"`
}
