package phrasedict_test

import (
	"strings"

	"github.com/imkit/phrasedict"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("phrase record codec", func() {
	It("should round-trip records", func() {
		rec, err := phrasedict.EncodePhraseRecord(phrasedict.Phrase{Text: "你好", Freq: 5, LastUsed: 9})
		Expect(err).NotTo(HaveOccurred())

		p, ok := phrasedict.DecodePhraseRecord(rec)
		Expect(ok).To(BeTrue())
		Expect(p).To(Equal(phrasedict.Phrase{Text: "你好", Freq: 5, LastUsed: 9}))
	})

	It("should reject records that are too short", func() {
		_, ok := phrasedict.DecodePhraseRecord(make([]byte, 12))
		Expect(ok).To(BeFalse())

		_, ok = phrasedict.DecodePhraseRecord(nil)
		Expect(ok).To(BeFalse())
	})

	It("should reject records with a declared length beyond the slice", func() {
		rec := make([]byte, 20)
		rec[12] = 200
		_, ok := phrasedict.DecodePhraseRecord(rec)
		Expect(ok).To(BeFalse())
	})

	It("should reject records with invalid UTF-8 text", func() {
		rec := make([]byte, 15)
		rec[12] = 2
		rec[13], rec[14] = 0xff, 0xfe
		_, ok := phrasedict.DecodePhraseRecord(rec)
		Expect(ok).To(BeFalse())
	})

	It("should tolerate trailing bytes after the declared length", func() {
		rec, err := phrasedict.EncodePhraseRecord(phrasedict.Phrase{Text: "ok", Freq: 3, LastUsed: 4})
		Expect(err).NotTo(HaveOccurred())
		rec = append(rec, "garbage"...)

		p, ok := phrasedict.DecodePhraseRecord(rec)
		Expect(ok).To(BeTrue())
		Expect(p.Text).To(Equal("ok"))
	})

	It("should refuse to encode oversized texts", func() {
		_, err := phrasedict.EncodePhraseRecord(phrasedict.Phrase{Text: strings.Repeat("x", 256)})
		Expect(err).To(MatchError(phrasedict.ErrPhraseTooLong))
	})
})

var _ = Describe("syllable keys", func() {
	It("should encode codes as little-endian pairs", func() {
		key := phrasedict.EncodeSyllables([]phrasedict.Syllable{0x0201, 0x0403})
		Expect(key).To(Equal([]byte{0x01, 0x02, 0x03, 0x04}))
	})

	It("should round-trip sequences", func() {
		syllables := []phrasedict.Syllable{0x2488, 0x4165, 0x0001}
		Expect(phrasedict.DecodeSyllables(phrasedict.EncodeSyllables(syllables))).To(Equal(syllables))
	})

	It("should drop a trailing odd byte", func() {
		Expect(phrasedict.DecodeSyllables([]byte{0x01, 0x02, 0x03})).To(Equal([]phrasedict.Syllable{0x0201}))
	})
})
