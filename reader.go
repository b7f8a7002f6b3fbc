package phrasedict

import (
	"bytes"
	"encoding/binary"
	"io"
	"sort"
	"sync"

	"github.com/golang/snappy"
)

// Reader reads a phrase table and implements KVStore over it. The table
// is the persistent backing-store provider: Find serves exact-key
// lookups, Iter walks every cell in ascending (key, text) order.
type Reader struct {
	r io.ReaderAt

	index     []blockInfo
	maxOffset int64
}

// NewReader opens a reader.
func NewReader(r io.ReaderAt, size int64) (*Reader, error) {
	if size < 16 {
		return nil, errBadMagic
	}

	// read footer
	tmp := make([]byte, 16)
	footerOffset := size - 16
	if _, err := r.ReadAt(tmp, footerOffset); err != nil {
		return nil, err
	}

	// parse footer
	if !bytes.Equal(tmp[8:16], magic) {
		return nil, errBadMagic
	}
	indexOffset := int64(binary.LittleEndian.Uint64(tmp[:8]))
	if indexOffset < 0 || indexOffset > footerOffset {
		return nil, errBadIndex
	}

	// read index
	raw := make([]byte, footerOffset-indexOffset)
	if len(raw) != 0 {
		if _, err := r.ReadAt(raw, indexOffset); err != nil {
			return nil, err
		}
	}

	// parse index
	var index []blockInfo
	var offset int64

	for pos := 0; pos < len(raw); {
		klen, n := binary.Uvarint(raw[pos:])
		if n <= 0 {
			return nil, errBadIndex
		}
		pos += n

		delta, n := binary.Uvarint(raw[pos:])
		if n <= 0 {
			return nil, errBadIndex
		}
		pos += n

		if pos+int(klen) > len(raw) {
			return nil, errBadIndex
		}
		key := raw[pos : pos+int(klen)]
		pos += int(klen)

		offset += int64(delta)
		index = append(index, blockInfo{MaxKey: key, Offset: offset})
	}

	return &Reader{
		r: r,

		index:     index, // block offsets
		maxOffset: indexOffset,
	}, nil
}

// NumBlocks returns the number of stored blocks.
func (r *Reader) NumBlocks() int {
	return len(r.index)
}

// Find implements KVStore. It returns every raw value stored under
// exactly key, in table order. Runs of one key may span block
// boundaries; the iterator follows them.
func (r *Reader) Find(key []byte) ValueIterator {
	bpos := sort.Search(len(r.index), func(i int) bool {
		return bytes.Compare(r.index[i].MaxKey, key) >= 0
	})
	if bpos >= len(r.index) {
		return emptyIterator{}
	}

	b, err := r.readBlock(bpos)
	if err != nil {
		return &findIterator{it: &tableIterator{err: err}}
	}
	return &findIterator{
		it:  &tableIterator{r: r, b: b, s: b.seekSection(key)},
		key: key,
	}
}

// Iter implements KVStore. It walks the whole table in append order,
// including any InfoKey metadata cell.
func (r *Reader) Iter() EntryIterator {
	if len(r.index) == 0 {
		return emptyIterator{}
	}
	b, err := r.readBlock(0)
	if err != nil {
		return &tableIterator{err: err}
	}
	return &tableIterator{r: r, b: b, s: b.getSection(0)}
}

func (r *Reader) readBlock(bpos int) (*blockReader, error) {
	min := r.index[bpos].Offset
	max := r.maxOffset
	if next := bpos + 1; next < len(r.index) {
		max = r.index[next].Offset
	}

	raw := fetchBuffer(int(max - min))
	if _, err := r.r.ReadAt(raw, min); err != nil {
		releaseBuffer(raw)
		return nil, err
	}

	var block []byte
	switch cBitPos := len(raw) - 1; raw[cBitPos] {
	case blockNoCompression:
		block = raw[:cBitPos]
	case blockSnappyCompression:
		defer releaseBuffer(raw)

		sz, err := snappy.DecodedLen(raw[:cBitPos])
		if err != nil {
			return nil, err
		}

		plain := fetchBuffer(sz)
		if block, err = snappy.Decode(plain, raw[:cBitPos]); err != nil {
			releaseBuffer(plain)
			return nil, err
		}
	default:
		releaseBuffer(raw)
		return nil, errBadCompression
	}

	return &blockReader{
		block:  block,
		bpos:   bpos,
		scnt:   int(binary.LittleEndian.Uint32(block[len(block)-4:])),
		maxKey: r.index[bpos].MaxKey,
	}, nil
}

// --------------------------------------------------------------------

// blockReader reads a single block.
type blockReader struct {
	block  []byte
	bpos   int // the current block position
	scnt   int // the section count
	maxKey []byte
}

func (b *blockReader) getSection(spos int) *sectionReader {
	if spos < 0 {
		spos = 0
	}
	if spos >= b.scnt {
		return &sectionReader{spos: b.scnt}
	}

	min := b.sectionOffset(spos)
	max := b.sectionOffset(spos + 1)
	return &sectionReader{section: b.block[min:max], spos: spos}
}

// seekSection returns the section whose restart key is the last one <= key.
func (b *blockReader) seekSection(key []byte) *sectionReader {
	if bytes.Compare(key, b.maxKey) > 0 {
		return b.getSection(b.scnt)
	}

	spos := sort.Search(b.scnt, func(i int) bool {
		return bytes.Compare(b.sectionFirstKey(i), key) > 0
	}) - 1
	return b.getSection(spos)
}

// sectionFirstKey parses the full restart key at the head of a section.
func (b *blockReader) sectionFirstKey(spos int) []byte {
	s := b.block[b.sectionOffset(spos):]
	_, n := binary.Uvarint(s) // shared length, always zero at a restart
	s = s[n:]
	klen, n := binary.Uvarint(s)
	s = s[n:]
	_, n = binary.Uvarint(s)
	s = s[n:]
	return s[:klen]
}

func (b *blockReader) release() { bufPool.Put(b.block) }

// The starting offset of the section within the block.
func (b *blockReader) sectionOffset(spos int) int {
	if spos < 1 {
		return 0
	} else if spos >= b.scnt {
		return len(b.block) - b.scnt*4
	} else {
		nn := len(b.block) - b.scnt*4 + (spos-1)*4
		return int(binary.LittleEndian.Uint32(b.block[nn:]))
	}
}

// sectionReader reads an individual section within a block.
type sectionReader struct {
	section []byte

	spos int // the section
	read int // bytes read

	key []byte // current key, owned
	val []byte // current value, borrowed from the block
}

func (s *sectionReader) more() bool { return s.read < len(s.section) }

func (s *sectionReader) next() bool {
	if !s.more() {
		return false
	}

	shared, n := binary.Uvarint(s.section[s.read:])
	s.read += n
	unshared, n := binary.Uvarint(s.section[s.read:])
	s.read += n
	vlen, n := binary.Uvarint(s.section[s.read:])
	s.read += n

	s.key = append(s.key[:int(shared)], s.section[s.read:s.read+int(unshared)]...)
	s.read += int(unshared)
	s.val = s.section[s.read : s.read+int(vlen)]
	s.read += int(vlen)
	return true
}

// --------------------------------------------------------------------

// tableIterator walks cells across section and block boundaries. The
// block buffer is released once the iterator is exhausted or fails.
type tableIterator struct {
	r   *Reader
	b   *blockReader
	s   *sectionReader
	err error
}

// Next advances the cursor to the next cell and returns true if successful.
func (i *tableIterator) Next() bool {
	if i.err != nil || i.b == nil {
		return false
	}

	for {
		// more cells in the section
		if i.s.next() {
			return true
		}

		// more sections in the block
		if n := i.s.spos + 1; n < i.b.scnt {
			i.s = i.b.getSection(n)
			continue
		}

		// more blocks
		n := i.b.bpos + 1
		i.b.release()
		if n >= len(i.r.index) {
			i.b = nil
			return false
		}
		if i.b, i.err = i.r.readBlock(n); i.err != nil {
			i.b = nil
			return false
		}
		i.s = i.b.getSection(0)
	}
}

// Key returns the key of the current cell. It remains valid until the
// next cursor move.
func (i *tableIterator) Key() []byte { return i.s.key }

// Value returns the value of the current cell. Values are temporary
// buffers and must be copied if used beyond the next cursor move.
func (i *tableIterator) Value() []byte { return i.s.val }

// Err exposes iterator errors, if any.
func (i *tableIterator) Err() error { return i.err }

// findIterator filters a tableIterator down to the cells of one key.
type findIterator struct {
	it   *tableIterator
	key  []byte
	done bool
}

func (f *findIterator) Next() bool {
	if f.done {
		return false
	}
	for f.it.Next() {
		switch c := bytes.Compare(f.it.Key(), f.key); {
		case c < 0: // before the key run
		case c == 0:
			return true
		default: // past the key run
			f.stop()
			return false
		}
	}
	f.done = true
	return false
}

func (f *findIterator) stop() {
	f.done = true
	if f.it.b != nil {
		f.it.b.release()
		f.it.b = nil
	}
}

func (f *findIterator) Value() []byte { return f.it.Value() }

func (f *findIterator) Err() error { return f.it.err }

// --------------------------------------------------------------------

var bufPool sync.Pool

func fetchBuffer(sz int) []byte {
	if v := bufPool.Get(); v != nil {
		if p := v.([]byte); sz <= cap(p) {
			return p[:sz]
		}
	}
	return make([]byte, sz)
}

func releaseBuffer(p []byte) {
	if cap(p) != 0 {
		bufPool.Put(p)
	}
}
