package iccimage

// Ownership tells whether an Image owns its pixel buffer.
type Ownership int

const (
	// OwnershipOwned buffers were copied in and are dropped with the image.
	OwnershipOwned Ownership = iota
	// OwnershipBorrowed buffers belong to the caller, who must keep them
	// alive and unmodified while the image exists.
	OwnershipBorrowed
)

func (o Ownership) String() string {
	if o == OwnershipBorrowed {
		return "borrowed"
	}
	return "owned"
}

// Storage holds an image's pixel bytes. Its only implementations are
// *Owned and *Borrowed.
type Storage interface {
	storage()
}

// Owned is pixel storage allocated by the image.
type Owned struct {
	buf []byte
}

// Borrowed is pixel storage supplied by the caller. The image reads and, on
// conversion, writes it in place but never frees or clears it.
type Borrowed struct {
	buf []byte
}

func (*Owned) storage()    {}
func (*Borrowed) storage() {}

func storageBytes(s Storage) []byte {
	switch s := s.(type) {
	case *Owned:
		return s.buf
	case *Borrowed:
		return s.buf
	case nil:
		return nil
	default:
		panic("iccimage: unknown storage")
	}
}

func storageOwnership(s Storage) Ownership {
	switch s.(type) {
	case *Owned, nil:
		return OwnershipOwned
	case *Borrowed:
		return OwnershipBorrowed
	default:
		panic("iccimage: unknown storage")
	}
}

// releaseStorage drops the image's reference to the bytes in s. Borrowed
// bytes are never written.
func releaseStorage(s Storage) {
	switch s := s.(type) {
	case *Owned:
		s.buf = nil
	case *Borrowed:
		s.buf = nil
	case nil:
	default:
		panic("iccimage: unknown storage")
	}
}
