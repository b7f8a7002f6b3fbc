package phrasedict

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/golang/snappy"
)

// WriterOptions define writer specific options.
type WriterOptions struct {
	// BlockSize is the minimum uncompressed size in bytes of each table block.
	// Default: 4KiB.
	BlockSize int

	// BlockRestartInterval is the number of cells between restart points
	// for shared-prefix compression of keys.
	//
	// Default: 16.
	BlockRestartInterval int

	// The compression codec to use.
	// Default: SnappyCompression.
	Compression Compression
}

func (o *WriterOptions) norm() *WriterOptions {
	var oo WriterOptions
	if o != nil {
		oo = *o
	}

	if oo.BlockSize < 1 {
		oo.BlockSize = 1 << 12
	}
	if oo.BlockRestartInterval < 1 {
		oo.BlockRestartInterval = 16
	}
	if !oo.Compression.isValid() {
		oo.Compression = SnappyCompression
	}

	return &oo
}

// Writer instances write a phrase table. Cells must be appended in
// ascending (syllable key, decoded phrase text) order; a single key may
// hold any number of phrase records.
type Writer struct {
	w io.Writer
	o *WriterOptions

	block blockInfo // the current block info
	blen  int       // the number of cells in the current block
	soffs []int     // section offsets in the current block

	buf []byte // plain buffer
	snp []byte // snappy  buffer
	tmp []byte // scratch buffer

	prevKey    []byte // prefix-compression base within the current section
	lastKey    []byte
	lastText   string
	lastTextOK bool
	started    bool

	index []blockInfo
}

// NewWriter wraps a writer and returns a Writer.
func NewWriter(w io.Writer, o *WriterOptions) *Writer {
	return &Writer{
		w:   w,
		o:   o.norm(),
		tmp: make([]byte, 3*binary.MaxVarintLen64),
	}
}

// AppendPhrase encodes phrase as a record and appends it under the
// syllable key.
func (w *Writer) AppendPhrase(key []byte, phrase Phrase) error {
	rec, err := EncodePhraseRecord(phrase)
	if err != nil {
		return err
	}
	return w.Append(key, rec)
}

// Append appends a raw cell to the table. Values under a repeated key
// must arrive in strictly ascending decoded-text order, so one table
// never holds two records for the same (key, text) pair; values that do
// not decode as phrase records (e.g. InfoKey metadata) are exempt from
// the text ordering check.
func (w *Writer) Append(key, value []byte) error {
	if w.tmp == nil {
		return errClosed
	}

	keyChanged := !w.started || !bytes.Equal(key, w.lastKey)
	if w.started {
		if c := bytes.Compare(key, w.lastKey); c < 0 {
			return fmt.Errorf("phrasedict: attempted an out-of-order append, key %q must be >= %q", key, w.lastKey)
		}
	}
	phrase, decodable := DecodePhraseRecord(value)
	if !keyChanged && decodable && w.lastTextOK && phrase.Text <= w.lastText {
		return fmt.Errorf("phrasedict: attempted an out-of-order append, phrase %q must be > %q", phrase.Text, w.lastText)
	}

	if len(w.buf) != 0 && len(w.buf)+len(key)+len(value)+3*binary.MaxVarintLen64 > w.o.BlockSize {
		if err := w.flush(); err != nil {
			return err
		}
	}

	shared := 0
	if w.blen%w.o.BlockRestartInterval == 0 { // new section?
		w.soffs = append(w.soffs, len(w.buf))
	} else {
		shared = sharedPrefixLen(w.prevKey, key)
	}

	n := binary.PutUvarint(w.tmp[0:], uint64(shared))
	n += binary.PutUvarint(w.tmp[n:], uint64(len(key)-shared))
	n += binary.PutUvarint(w.tmp[n:], uint64(len(value)))
	w.buf = append(w.buf, w.tmp[:n]...)
	w.buf = append(w.buf, key[shared:]...)
	w.buf = append(w.buf, value...)

	w.blen++
	w.prevKey = append(w.prevKey[:0], key...)
	w.lastKey = append(w.lastKey[:0], key...)
	if keyChanged {
		w.lastTextOK = false
	}
	if decodable {
		w.lastText, w.lastTextOK = phrase.Text, true
	}
	w.block.MaxKey = append(w.block.MaxKey[:0], key...)
	w.started = true

	return nil
}

// Close closes the writer
func (w *Writer) Close() error {
	if w.tmp == nil {
		return errClosed
	}
	if err := w.flush(); err != nil {
		return err
	}

	indexOffset := w.block.Offset
	if err := w.writeIndex(); err != nil {
		return err
	}

	if err := w.writeFooter(indexOffset); err != nil {
		return err
	}
	w.tmp = nil
	return nil
}

func (w *Writer) writeIndex() error {
	var prevOffset int64

	for i, ent := range w.index {
		off := ent.Offset
		if i != 0 { // delta-encode
			off -= prevOffset
		}
		prevOffset = ent.Offset

		n := binary.PutUvarint(w.tmp[0:], uint64(len(ent.MaxKey)))
		n += binary.PutUvarint(w.tmp[n:], uint64(off))

		if err := w.writeRaw(w.tmp[:n]); err != nil {
			return err
		}
		if err := w.writeRaw(ent.MaxKey); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeFooter(indexOffset int64) error {
	binary.LittleEndian.PutUint64(w.tmp[0:], uint64(indexOffset))
	if err := w.writeRaw(w.tmp[:8]); err != nil {
		return err
	}
	if err := w.writeRaw(magic); err != nil {
		return err
	}
	return nil
}

func (w *Writer) writeRaw(p []byte) error {
	n, err := w.w.Write(p)
	w.block.Offset += int64(n)
	return err
}

func (w *Writer) flush() error {
	if len(w.buf) == 0 {
		return nil
	}

	for _, o := range w.soffs {
		if o > 0 {
			binary.LittleEndian.PutUint32(w.tmp, uint32(o))
			w.buf = append(w.buf, w.tmp[:4]...)
		}
	}
	binary.LittleEndian.PutUint32(w.tmp, uint32(len(w.soffs)))
	w.buf = append(w.buf, w.tmp[:4]...)

	var block []byte
	switch w.o.Compression {
	case SnappyCompression:
		w.snp = snappy.Encode(w.snp[:cap(w.snp)], w.buf)
		if len(w.snp) < len(w.buf)-len(w.buf)/4 {
			block = append(w.snp, blockSnappyCompression)
		} else {
			block = append(w.buf, blockNoCompression)
		}
	default:
		block = append(w.buf, blockNoCompression)
	}

	w.index = append(w.index, w.block)
	w.block = blockInfo{Offset: w.block.Offset} // MaxKey buffer now owned by the index
	w.buf = w.buf[:0]
	w.soffs = w.soffs[:0]
	w.blen = 0
	w.prevKey = w.prevKey[:0]

	return w.writeRaw(block)
}

func sharedPrefixLen(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}
