// Package content implements the streaming content matcher: a prefix rolling
// hash over a bounded window of the input, a small pattern language compiled
// into filter queues, and per-pattern state machines driven one byte at a time.
package content

// Default hash parameters. The modulus is prime and small enough that
// (byte+1) * base never overflows an int64.
const (
	DefaultPrime   int64 = 313
	DefaultModulus int64 = 1_000_000_007

	// MaxModulus bounds custom moduli: products of two residues, or of a
	// residue and (byte+1), then stay below 2^62.
	MaxModulus int64 = 1 << 31
)

// Hasher tracks the positional weight prime^index mod modulus for one byte
// stream. It is owned by a single ContentSearcher and is never shared across
// files.
type Hasher struct {
	prime       int64
	modulus     int64
	currentBase int64
	index       int64
}

// NewHasher returns a hasher positioned at index 0. Parameters are not
// checked; prime must be below modulus and modulus at most MaxModulus.
func NewHasher(prime, modulus int64) *Hasher {
	return &Hasher{
		prime:       prime,
		modulus:     modulus,
		currentBase: 1,
	}
}

// Prime returns the polynomial base.
func (h *Hasher) Prime() int64 { return h.prime }

// Modulus returns the hash modulus.
func (h *Hasher) Modulus() int64 { return h.modulus }

// Index returns the position of the byte currently being consumed.
func (h *Hasher) Index() int64 { return h.index }

// Reset rewinds the hasher to index 0.
func (h *Hasher) Reset() {
	h.currentBase = 1
	h.index = 0
}

// Increment advances to the next stream position.
func (h *Hasher) Increment() {
	h.currentBase = (h.currentBase * h.prime) % h.modulus
	h.index++
}

// UpdateHash folds b into a prefix hash at the current position. The +1 keeps
// runs of zero bytes from hashing to zero.
func (h *Hasher) UpdateHash(oldHash int64, b byte) int64 {
	return (oldHash + (int64(b)+1)*h.currentBase%h.modulus) % h.modulus
}

// literalHash computes the unshifted reference hash of value, i.e. the hash
// the literal would have if it started at stream position 0.
func (h *Hasher) literalHash(value []byte) int64 {
	var hash int64
	base := int64(1)
	for _, b := range value {
		hash = (hash + (int64(b)+1)*base%h.modulus) % h.modulus
		base = (base * h.prime) % h.modulus
	}
	return hash
}
