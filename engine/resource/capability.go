package resource

// Capability tags what a resource supports.
type Capability string

const (
	CapOne    Capability = "ONE"
	CapMany   Capability = "MANY"
	CapCreate Capability = "POST"
	CapUpdate Capability = "PUT"
	CapDelete Capability = "DELETE"
)

// Known reports whether c is one of the declared capabilities.
// Unknown tags are tolerated everywhere and simply never match.
func (c Capability) Known() bool {
	switch c {
	case CapOne, CapMany, CapCreate, CapUpdate, CapDelete:
		return true
	}
	return false
}

// Capabilities is the supports list of a schema.
type Capabilities []Capability

func (cs Capabilities) Has(c Capability) bool {
	for _, have := range cs {
		if have == c {
			return true
		}
	}
	return false
}
