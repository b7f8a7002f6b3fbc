package phrasedict_test

import (
	"bytes"
	"fmt"

	"github.com/imkit/phrasedict"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Reader", func() {
	var subject *phrasedict.Reader

	// 30 syllable keys, 2 phrases each, forced into many small blocks.
	seedKey := func(i int) []byte {
		return phrasedict.EncodeSyllables([]phrasedict.Syllable{phrasedict.Syllable(0x0100 + i)})
	}

	BeforeEach(func() {
		var err error
		subject, err = seedReader(&phrasedict.WriterOptions{
			BlockSize:            64,
			BlockRestartInterval: 2,
			Compression:          phrasedict.NoCompression,
		}, func(w *phrasedict.Writer) error {
			for i := 0; i < 30; i++ {
				for j := 0; j < 2; j++ {
					p := phrasedict.Phrase{Text: fmt.Sprintf("p%d", j), Freq: uint32(i + 1), LastUsed: uint64(j)}
					if err := w.AppendPhrase(seedKey(i), p); err != nil {
						return err
					}
				}
			}
			return nil
		})
		Expect(err).NotTo(HaveOccurred())
	})

	It("should init", func() {
		Expect(subject.NumBlocks()).To(BeNumerically(">", 1))
	})

	It("should find exact keys", func() {
		for _, i := range []int{0, 13, 29} {
			texts, err := findTexts(subject, seedKey(i))
			Expect(err).NotTo(HaveOccurred())
			Expect(texts).To(Equal([]string{"p0", "p1"}), "for key %d", i)
		}
	})

	It("should find nothing for missing keys", func() {
		for _, key := range [][]byte{
			phrasedict.EncodeSyllables([]phrasedict.Syllable{0x0000}), // before all
			phrasedict.EncodeSyllables([]phrasedict.Syllable{0x40ff}), // after all
			phrasedict.EncodeSyllables([]phrasedict.Syllable{0x0100, 0x0100}), // longer than any
			{},
		} {
			texts, err := findTexts(subject, key)
			Expect(err).NotTo(HaveOccurred())
			Expect(texts).To(BeEmpty(), "for key %x", key)
		}
	})

	It("should iterate all cells in order", func() {
		var prevKey []byte
		var count int

		iter := subject.Iter()
		for iter.Next() {
			Expect(bytes.Compare(prevKey, iter.Key())).To(BeNumerically("<=", 0))
			prevKey = append(prevKey[:0], iter.Key()...)

			_, ok := phrasedict.DecodePhraseRecord(iter.Value())
			Expect(ok).To(BeTrue())
			count++
		}
		Expect(iter.Err()).NotTo(HaveOccurred())
		Expect(count).To(Equal(60))
	})

	It("should follow a key run across block boundaries", func() {
		run, err := seedReader(&phrasedict.WriterOptions{
			BlockSize:            64,
			BlockRestartInterval: 2,
			Compression:          phrasedict.NoCompression,
		}, func(w *phrasedict.Writer) error {
			key := phrasedict.EncodeSyllables([]phrasedict.Syllable{0x0101})
			for i := 0; i < 40; i++ {
				p := phrasedict.Phrase{Text: fmt.Sprintf("q%02d", i), Freq: 1}
				if err := w.AppendPhrase(key, p); err != nil {
					return err
				}
			}
			return nil
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(run.NumBlocks()).To(BeNumerically(">", 1))

		texts, err := findTexts(run, phrasedict.EncodeSyllables([]phrasedict.Syllable{0x0101}))
		Expect(err).NotTo(HaveOccurred())
		Expect(texts).To(HaveLen(40))
		Expect(texts[0]).To(Equal("q00"))
		Expect(texts[39]).To(Equal("q39"))
	})

	It("should read snappy-compressed tables", func() {
		compressed, err := seedReader(&phrasedict.WriterOptions{
			Compression: phrasedict.SnappyCompression,
		}, func(w *phrasedict.Writer) error {
			for i := 0; i < 30; i++ {
				for j := 0; j < 2; j++ {
					p := phrasedict.Phrase{Text: fmt.Sprintf("p%d", j), Freq: uint32(i + 1)}
					if err := w.AppendPhrase(seedKey(i), p); err != nil {
						return err
					}
				}
			}
			return nil
		})
		Expect(err).NotTo(HaveOccurred())

		texts, err := findTexts(compressed, seedKey(17))
		Expect(err).NotTo(HaveOccurred())
		Expect(texts).To(Equal([]string{"p0", "p1"}))

		var count int
		iter := compressed.Iter()
		for iter.Next() {
			count++
		}
		Expect(iter.Err()).NotTo(HaveOccurred())
		Expect(count).To(Equal(60))
	})

	It("should open empty tables", func() {
		empty, err := seedReader(nil, func(w *phrasedict.Writer) error { return nil })
		Expect(err).NotTo(HaveOccurred())
		Expect(empty.NumBlocks()).To(Equal(0))

		texts, err := findTexts(empty, seedKey(0))
		Expect(err).NotTo(HaveOccurred())
		Expect(texts).To(BeEmpty())
		Expect(empty.Iter().Next()).To(BeFalse())
	})

	It("should reject tables with a bad magic sequence", func() {
		junk := bytes.Repeat([]byte{0x42}, 32)
		_, err := phrasedict.NewReader(bytes.NewReader(junk), int64(len(junk)))
		Expect(err).To(MatchError("phrasedict: bad magic byte sequence"))

		_, err = phrasedict.NewReader(bytes.NewReader(junk[:8]), 8)
		Expect(err).To(MatchError("phrasedict: bad magic byte sequence"))
	})
})
