package extraction

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("StripPageMarkers", func() {
	It("collapses a marker between pages into one newline", func() {
		Expect(StripPageMarkers("first\n--- Page 1 ---\nsecond")).To(Equal("first\nsecond"))
	})

	It("matches regardless of case and dash count", func() {
		Expect(StripPageMarkers("a\n-----  page 12 --\nb")).To(Equal("a\nb"))
	})

	It("leaves ordinary dashed lines alone", func() {
		Expect(StripPageMarkers("Qty -- 2 --")).To(Equal("Qty -- 2 --"))
	})
})

var _ = Describe("CleanForDateMatching", func() {
	It("replaces I, l and O with digits", func() {
		Expect(CleanForDateMatching("O5/l2/2OI4")).To(Equal("05/12/2014"))
	})

	It("does not touch lowercase o or uppercase L", func() {
		Expect(CleanForDateMatching("oL")).To(Equal("oL"))
	})
})

var _ = Describe("NormalizeLineEndings", func() {
	It("turns carriage returns into newlines", func() {
		Expect(NormalizeLineEndings("a\r\nb\rc")).To(Equal("a\nb\nc"))
	})
})
