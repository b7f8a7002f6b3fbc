package phrasedict

import (
	"sort"
	"strings"
)

// phraseKey identifies one dictionary entry. syl holds the raw syllable
// key bytes; string keys keep entries comparable and safe to retain
// after the caller's buffer is reused.
type phraseKey struct {
	syl  string
	text string
}

func (k phraseKey) less(o phraseKey) bool {
	if k.syl != o.syl {
		return k.syl < o.syl
	}
	return k.text < o.text
}

type overlayEntry struct {
	key      phraseKey
	freq     uint32
	lastUsed uint64
}

// Entry is a single merged dictionary entry as exposed to callers.
type Entry struct {
	Syllables []Syllable
	Phrase    Phrase
}

// DictionaryInfo carries static metadata about a dictionary.
type DictionaryInfo struct {
	Name      string
	Copyright string
	License   string
	Version   string
	Software  string
}

// Dictionary layers a mutable in-memory overlay of user edits over a
// read-only backing store. Lookups merge both sources; mutations only
// ever touch the overlay and the graveyard, the store is never written.
//
// A Dictionary performs no internal locking. Callers sharing one across
// goroutines must guard mutations with their own mutual exclusion.
type Dictionary struct {
	store     KVStore
	overlay   []overlayEntry // ascending by (syl, text)
	graveyard map[phraseKey]struct{}
}

// New returns a dictionary backed by store.
func New(store KVStore) *Dictionary {
	return &Dictionary{
		store:     store,
		graveyard: make(map[phraseKey]struct{}),
	}
}

// NewInMemory returns a dictionary with no backing store. All content
// lives in the overlay.
func NewInMemory() *Dictionary {
	return New(EmptyStore{})
}

// FromRawParts builds a dictionary around store while inheriting the
// overlay and graveyard of other. This is the seam by which external
// persistence rewrites the backing store without losing in-flight user
// edits. The returned dictionary takes over other's state; other must
// not be used afterwards.
func FromRawParts(store KVStore, other *Dictionary) *Dictionary {
	d := New(store)
	d.overlay = other.overlay
	if other.graveyard != nil {
		d.graveyard = other.graveyard
	}
	return d
}

// Take detaches and returns the backing-store handle, leaving the
// dictionary overlay-only until Set reattaches one.
func (d *Dictionary) Take() KVStore {
	store := d.store
	d.store = nil
	return store
}

// Set attaches a backing-store handle.
func (d *Dictionary) Set(store KVStore) {
	d.store = store
}

// --------------------------------------------------------------------

// searchOverlay returns the insertion position for key and whether an
// entry with exactly that key is already present.
func (d *Dictionary) searchOverlay(key phraseKey) (int, bool) {
	i := sort.Search(len(d.overlay), func(i int) bool {
		return !d.overlay[i].key.less(key)
	})
	return i, i < len(d.overlay) && d.overlay[i].key == key
}

func (d *Dictionary) upsertOverlay(key phraseKey, freq uint32, lastUsed uint64) {
	i, ok := d.searchOverlay(key)
	if ok {
		d.overlay[i].freq = freq
		d.overlay[i].lastUsed = lastUsed
		return
	}
	d.overlay = append(d.overlay, overlayEntry{})
	copy(d.overlay[i+1:], d.overlay[i:])
	d.overlay[i] = overlayEntry{key: key, freq: freq, lastUsed: lastUsed}
}

func (d *Dictionary) deleteOverlay(key phraseKey) {
	if i, ok := d.searchOverlay(key); ok {
		d.overlay = append(d.overlay[:i], d.overlay[i+1:]...)
	}
}

func (d *Dictionary) tombstoned(key phraseKey) bool {
	_, dead := d.graveyard[key]
	return dead
}

// entriesFor collects every phrase visible under one syllable key: store
// values decoded and validity-filtered, then the overlay range for the
// key, minus tombstoned texts. No dedup or ordering is promised here.
func (d *Dictionary) entriesFor(sylKey []byte) []Phrase {
	syl := string(sylKey)

	var phrases []Phrase
	if d.store != nil {
		iter := d.store.Find(sylKey)
		for iter.Next() {
			if p, ok := DecodePhraseRecord(iter.Value()); ok {
				phrases = append(phrases, p)
			}
		}
	}

	lo, _ := d.searchOverlay(phraseKey{syl: syl})
	for i := lo; i < len(d.overlay) && d.overlay[i].key.syl == syl; i++ {
		e := d.overlay[i]
		phrases = append(phrases, Phrase{Text: e.key.text, Freq: e.freq, LastUsed: e.lastUsed})
	}

	if len(d.graveyard) == 0 {
		return phrases
	}
	kept := phrases[:0]
	for _, p := range phrases {
		if !d.tombstoned(phraseKey{syl: syl, text: p.Text}) {
			kept = append(kept, p)
		}
	}
	return kept
}

// LookupFirstNPhrases returns up to n phrases matching the syllable
// sequence, deduplicated by text. The first occurrence of a text fixes
// its position; a later duplicate only replaces the stored entry when it
// wins on frequency (ties broken by last-used). It never fails; no match
// yields an empty result.
func (d *Dictionary) LookupFirstNPhrases(syllables []Syllable, n int) []Phrase {
	var phrases []Phrase
	seen := make(map[string]int)

	for _, p := range d.entriesFor(EncodeSyllables(syllables)) {
		if i, ok := seen[p.Text]; ok {
			phrases[i] = maxPhrase(p, phrases[i])
		} else {
			seen[p.Text] = len(phrases)
			phrases = append(phrases, p)
		}
	}
	if n < 0 {
		n = 0
	}
	if len(phrases) > n {
		phrases = phrases[:n]
	}
	return phrases
}

// Entries returns the whole merged dictionary in ascending (syllable
// key, text) order, one entry per distinct phrase key. Where the store
// and the overlay both hold a key, the higher-frequency variant
// survives; the overlay wins ties so its fresher last-used value is the
// one reported. Tombstoned keys are dropped.
func (d *Dictionary) Entries() []Entry {
	var entries []Entry

	st := &recordStream{}
	if d.store != nil {
		st.it = d.store.Iter()
	}
	st.advance()
	oi := 0

	for st.ok || oi < len(d.overlay) {
		var syl string
		var p Phrase

		switch {
		case !st.ok:
			e := d.overlay[oi]
			syl, p = e.key.syl, Phrase{Text: e.key.text, Freq: e.freq, LastUsed: e.lastUsed}
			oi++
		case oi >= len(d.overlay):
			syl, p = string(st.key), st.phrase
			st.advance()
		default:
			e := d.overlay[oi]
			c := strings.Compare(string(st.key), e.key.syl)
			if c == 0 {
				c = strings.Compare(st.phrase.Text, e.key.text)
			}
			switch {
			case c < 0:
				syl, p = string(st.key), st.phrase
				st.advance()
			case c > 0:
				syl, p = e.key.syl, Phrase{Text: e.key.text, Freq: e.freq, LastUsed: e.lastUsed}
				oi++
			default:
				// Same phrase key in both sources: the store copy is
				// stale unless it holds a strictly higher frequency.
				syl = e.key.syl
				if st.phrase.Freq <= e.freq {
					p = Phrase{Text: e.key.text, Freq: e.freq, LastUsed: e.lastUsed}
				} else {
					p = st.phrase
				}
				st.advance()
				oi++
			}
		}

		if d.tombstoned(phraseKey{syl: syl, text: p.Text}) {
			continue
		}
		entries = append(entries, Entry{Syllables: DecodeSyllables([]byte(syl)), Phrase: p})
	}
	return entries
}

// recordStream drains a store EntryIterator, skipping the InfoKey and
// malformed records, and exposes a peekable decoded head.
type recordStream struct {
	it     EntryIterator
	key    []byte
	phrase Phrase
	ok     bool
}

func (s *recordStream) advance() {
	if s.it == nil {
		s.ok = false
		return
	}
	for s.it.Next() {
		k := s.it.Key()
		if string(k) == InfoKey {
			continue
		}
		p, ok := DecodePhraseRecord(s.it.Value())
		if !ok {
			continue
		}
		s.key = append(s.key[:0], k...)
		s.phrase = p
		s.ok = true
		return
	}
	s.ok = false
}

// --------------------------------------------------------------------

// AddPhrase inserts a new user phrase into the overlay. It fails with
// ErrDuplicatePhrase when a non-tombstoned entry with the same syllable
// key and text is already visible from either source.
//
// A tombstone left behind by an earlier RemovePhrase of the same key is
// not cleared: the freshly added phrase stays suppressed until external
// persistence compacts the graveyard.
func (d *Dictionary) AddPhrase(syllables []Syllable, phrase Phrase) error {
	sylKey := EncodeSyllables(syllables)
	for _, p := range d.entriesFor(sylKey) {
		if p.Text == phrase.Text {
			return ErrDuplicatePhrase
		}
	}
	d.upsertOverlay(phraseKey{syl: string(sylKey), text: phrase.Text}, phrase.Freq, phrase.LastUsed)
	return nil
}

// UpdatePhrase upserts the phrase into the overlay with the given
// frequency and timestamp, regardless of whether the key exists
// anywhere. It never fails at this layer.
func (d *Dictionary) UpdatePhrase(syllables []Syllable, phrase Phrase, freq uint32, time uint64) error {
	sylKey := EncodeSyllables(syllables)
	d.upsertOverlay(phraseKey{syl: string(sylKey), text: phrase.Text}, freq, time)
	return nil
}

// RemovePhrase deletes the phrase from the overlay if present and
// tombstones its key, suppressing any copy the read-only backing store
// may hold. It never fails at this layer.
func (d *Dictionary) RemovePhrase(syllables []Syllable, text string) error {
	key := phraseKey{syl: string(EncodeSyllables(syllables)), text: text}
	d.deleteOverlay(key)
	if d.graveyard == nil {
		d.graveyard = make(map[phraseKey]struct{})
	}
	d.graveyard[key] = struct{}{}
	return nil
}

// About returns static dictionary metadata.
func (d *Dictionary) About() DictionaryInfo {
	return DictionaryInfo{Software: "phrasedict"}
}

// Reopen is a no-op at this layer; dictionaries with real persistence
// delegate to their store collaborator.
func (d *Dictionary) Reopen() error { return nil }

// Flush is a no-op at this layer; writing the overlay back to disk is an
// external persistence concern.
func (d *Dictionary) Flush() error { return nil }
