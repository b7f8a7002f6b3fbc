package phrasedict

import (
	"encoding/binary"
	"unicode/utf8"
)

// Syllable is a single phonetic syllable code. The mapping between codes
// and actual syllables belongs to the input method's encoding tables and
// is opaque to this package.
type Syllable uint16

// EncodeSyllables concatenates the 2-byte little-endian code of each
// syllable into a syllable key. Equal byte strings denote equal syllable
// sequences and keys compare lexicographically on bytes.
func EncodeSyllables(syllables []Syllable) []byte {
	key := make([]byte, 0, 2*len(syllables))
	for _, s := range syllables {
		key = append(key, byte(s), byte(s>>8))
	}
	return key
}

// DecodeSyllables recovers the syllable sequence from a syllable key.
// A trailing odd byte is dropped.
func DecodeSyllables(key []byte) []Syllable {
	syllables := make([]Syllable, 0, len(key)/2)
	for ; len(key) >= 2; key = key[2:] {
		syllables = append(syllables, Syllable(binary.LittleEndian.Uint16(key)))
	}
	return syllables
}

// Phrase is a unit of output text with its usage statistics. A LastUsed
// of zero means the phrase has never been used; records read back from a
// store or the overlay always carry an explicit value.
type Phrase struct {
	Text     string
	Freq     uint32
	LastUsed uint64
}

// maxPhrase picks the surviving duplicate: higher frequency wins, ties are
// broken by the later LastUsed, full ties keep b.
func maxPhrase(a, b Phrase) Phrase {
	if a.Freq != b.Freq {
		if a.Freq > b.Freq {
			return a
		}
		return b
	}
	if a.LastUsed > b.LastUsed {
		return a
	}
	return b
}

// --------------------------------------------------------------------

// Phrase record layout:
//
//   +---------------+-------------------+------------------+--------------------+
//   | freq (4B, LE) | last-used (8B,LE) | text length (1B) | UTF-8 text (varlen)|
//   +---------------+-------------------+------------------+--------------------+
const phraseRecordHeader = 13

// DecodePhraseRecord interprets a raw store value as a phrase record.
// It returns false for malformed records; readers skip those silently so
// a single bad record cannot break a whole query.
func DecodePhraseRecord(rec []byte) (Phrase, bool) {
	if len(rec) <= phraseRecordHeader-1 {
		return Phrase{}, false
	}
	tlen := int(rec[phraseRecordHeader-1])
	if phraseRecordHeader+tlen > len(rec) {
		return Phrase{}, false
	}
	text := rec[phraseRecordHeader : phraseRecordHeader+tlen]
	if !utf8.Valid(text) {
		return Phrase{}, false
	}
	return Phrase{
		Text:     string(text),
		Freq:     binary.LittleEndian.Uint32(rec),
		LastUsed: binary.LittleEndian.Uint64(rec[4:]),
	}, true
}

// EncodePhraseRecord renders a phrase in record form for table writers.
// Queries never encode; this exists for the persistence side only.
func EncodePhraseRecord(p Phrase) ([]byte, error) {
	if len(p.Text) > 255 {
		return nil, ErrPhraseTooLong
	}
	rec := make([]byte, phraseRecordHeader, phraseRecordHeader+len(p.Text))
	binary.LittleEndian.PutUint32(rec, p.Freq)
	binary.LittleEndian.PutUint64(rec[4:], p.LastUsed)
	rec[phraseRecordHeader-1] = byte(len(p.Text))
	return append(rec, p.Text...), nil
}
