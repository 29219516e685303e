package content

// shortKeyLength is the longest literal compared byte-by-byte without hashing.
const shortKeyLength = 5

// SearchKey is the hash target of one literal. Its hash is kept equal to the
// hash the literal would produce in the window if it ended offset bytes
// before the byte currently being consumed.
type SearchKey struct {
	hasher    *Hasher
	value     []byte
	hash      int64
	offset    int64
	lastIndex int64
}

// NewSearchKey precomputes the reference hash of value. offset is the number
// of bytes between the end of the literal and the stream head when the
// literal is evaluated.
func NewSearchKey(value []byte, hasher *Hasher, offset int64) *SearchKey {
	k := &SearchKey{
		hasher:    hasher,
		value:     value,
		offset:    offset,
		lastIndex: -1,
	}
	if !k.short() {
		k.hash = hasher.literalHash(value)
	}
	return k
}

// Bytes returns the literal.
func (k *SearchKey) Bytes() []byte { return k.value }

// Len returns the literal length.
func (k *SearchKey) Len() int64 { return int64(len(k.value)) }

// Offset returns the distance from the literal end to the stream head.
func (k *SearchKey) Offset() int64 { return k.offset }

// Hash returns the current shifted hash.
func (k *SearchKey) Hash() int64 { return k.hash }

func (k *SearchKey) short() bool { return len(k.value) <= shortKeyLength }

// Advance shifts the hash by one position for stream index idx. Repeated
// calls with the same index are no-ops. The shift starts once the literal
// could first fit in the stream at its offset.
func (k *SearchKey) Advance(idx int64) {
	if k.short() || idx == k.lastIndex {
		return
	}
	k.lastIndex = idx
	if idx < k.Len()+k.offset {
		return
	}
	k.hash = (k.hash * k.hasher.prime) % k.hasher.modulus
}
