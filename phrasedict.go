package phrasedict

import "errors"

var magic = []byte{241, 104, 122, 39, 156, 17, 211, 66}

const (
	blockNoCompression     = 0
	blockSnappyCompression = 1
)

// InfoKey is the reserved key under which a table carries store metadata.
// Values stored under it are not phrase records and are skipped by the
// dictionary layer.
const InfoKey = "INFO"

// ErrDuplicatePhrase is returned by AddPhrase when a non-tombstoned entry
// with the same syllable key and phrase text already exists.
var ErrDuplicatePhrase = errors.New("phrasedict: duplicate phrase")

// ErrPhraseTooLong is returned when a phrase text cannot be represented
// as a record because it exceeds 255 bytes of UTF-8.
var ErrPhraseTooLong = errors.New("phrasedict: phrase text exceeds record limit")

var (
	errClosed         = errors.New("phrasedict: is closed")
	errBadMagic       = errors.New("phrasedict: bad magic byte sequence")
	errBadIndex       = errors.New("phrasedict: corrupted block index")
	errBadCompression = errors.New("phrasedict: bad compression codec")
)

// DictionaryUpdateError wraps a lower-layer failure surfaced by a mutation.
// The in-memory overlay never produces one; only persistent store
// implementations populate Cause with their I/O errors.
type DictionaryUpdateError struct {
	Cause error
}

func (e *DictionaryUpdateError) Error() string {
	if e.Cause != nil {
		return "phrasedict: dictionary update failed: " + e.Cause.Error()
	}
	return "phrasedict: dictionary update failed"
}

func (e *DictionaryUpdateError) Unwrap() error { return e.Cause }

type blockInfo struct {
	MaxKey []byte // maximum key in the block
	Offset int64  // block offset position
}

// --------------------------------------------------------------------

// Compression is the compression codec
type Compression byte

func (c Compression) isValid() bool {
	return c >= SnappyCompression && c <= unknownCompression
}

// Supported compression codecs
const (
	SnappyCompression Compression = iota
	NoCompression
	unknownCompression
)
