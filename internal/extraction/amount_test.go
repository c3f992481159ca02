package extraction

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ExtractTotal", func() {
	var (
		text       string
		gap        int
		total      string
		candidates []string
	)

	BeforeEach(func() {
		gap = DefaultGapMaxChars
	})

	JustBeforeEach(func() {
		total, candidates = ExtractTotal(text, gap)
	})

	When("a labeled total follows a subtotal", func() {
		BeforeEach(func() {
			text = "Subtotal: $80.00\nTax: $10.00\nTOTAL DUE $123.45"
		})

		It("returns the labeled total", func() {
			Expect(total).To(Equal("123.45"))
		})

		It("records the labeled token", func() {
			Expect(candidates).To(Equal([]string{"123.45"}))
		})
	})

	When("there is no label", func() {
		BeforeEach(func() {
			text = "$1,234.56 and $999.00"
		})

		It("returns the largest amount", func() {
			Expect(total).To(Equal("1234.56"))
		})

		It("lists every amount seen", func() {
			Expect(candidates).To(Equal([]string{"1,234.56", "999.00"}))
		})
	})

	When("there are no amounts", func() {
		BeforeEach(func() {
			text = "no numbers here, only 42 apples"
		})

		It("returns Not found with no candidates", func() {
			Expect(total).To(Equal(NotFound))
			Expect(candidates).NotTo(BeNil())
			Expect(candidates).To(BeEmpty())
		})
	})

	When("the total uses European separators", func() {
		BeforeEach(func() {
			text = "Rechnung\nTotal: 1.234,56 EUR"
		})

		It("normalizes it", func() {
			Expect(total).To(Equal("1234.56"))
		})
	})

	When("the total has no thousands separator", func() {
		BeforeEach(func() {
			text = "Total 1234.56"
		})

		It("keeps every digit", func() {
			Expect(total).To(Equal("1234.56"))
		})
	})

	When("an unlabeled number is longer than a group", func() {
		BeforeEach(func() {
			text = "Ref 1234.56"
		})

		It("is read whole", func() {
			Expect(total).To(Equal("1234.56"))
		})
	})

	When("an earlier total label has no amount", func() {
		BeforeEach(func() {
			text = "Total items: 3\nGrand Total: $50.00\nPaid 70.00"
		})

		It("uses the next label that does", func() {
			Expect(total).To(Equal("50.00"))
		})
	})

	When("the amount is farther from the label than the gap allows", func() {
		BeforeEach(func() {
			text = "Total" + strings.Repeat(" ", 100) + "5.00 and 9.00"
		})

		It("falls back to the largest amount", func() {
			Expect(total).To(Equal("9.00"))
		})

		When("the gap is widened", func() {
			BeforeEach(func() {
				gap = 200
			})

			It("uses the labeled amount", func() {
				Expect(total).To(Equal("5.00"))
			})
		})

		When("the gap is wider than a regexp repeat count allows", func() {
			BeforeEach(func() {
				gap = 1500
			})

			It("uses the labeled amount without panicking", func() {
				Expect(func() { total, candidates = ExtractTotal(text, gap) }).NotTo(Panic())
				Expect(total).To(Equal("5.00"))
			})

			It("accepts a gap longer than a thousand characters", func() {
				far := "Total" + strings.Repeat(" ", 1200) + "5.00 and 9.00"
				got, _ := ExtractTotal(far, gap)
				Expect(got).To(Equal("5.00"))
			})
		})
	})

	When("a second label sits inside a gap that is too long", func() {
		BeforeEach(func() {
			text = "Total" + strings.Repeat(" ", 100) + "amount due 7.00 and 9.00"
		})

		It("uses the inner label", func() {
			Expect(total).To(Equal("7.00"))
			Expect(candidates).To(Equal([]string{"7.00"}))
		})
	})

	When("unlabeled amounts are joined by a separator", func() {
		BeforeEach(func() {
			text = "Items 10.00,20.00"
		})

		It("reads each amount and returns the largest", func() {
			Expect(total).To(Equal("20.00"))
			Expect(candidates).To(Equal([]string{"10.00", "20.00"}))
		})
	})

	When("a grouped number has no fraction", func() {
		BeforeEach(func() {
			text = "Qty 1.234"
		})

		It("is not read as money", func() {
			Expect(total).To(Equal(NotFound))
			Expect(candidates).To(BeEmpty())
		})
	})

	When("the labeled amount cannot be normalized", func() {
		BeforeEach(func() {
			text = "Total: 1,234,56 and 7.00"
		})

		It("falls back to the largest usable amount", func() {
			Expect(total).To(Equal("7.00"))
		})

		It("keeps the labeled token and every scanned token", func() {
			Expect(candidates).To(Equal([]string{"1,234,56", "1,234,56", "7.00"}))
		})
	})
})

var _ = Describe("ParseAmount", func() {
	DescribeTable("valid amounts",
		func(raw, expected string) {
			amt, ok := ParseAmount(raw)
			Expect(ok).To(BeTrue())
			Expect(amt.String()).To(Equal(expected))
		},
		Entry("comma decimal last", "1.234,56", "1234.56"),
		Entry("period decimal last", "1,234.56", "1234.56"),
		Entry("comma with two trailing digits", "1,23", "1.23"),
		Entry("comma as thousands", "1,234", "1234"),
		Entry("currency and spaces", "$ 99.90", "99.9"),
		Entry("negative", "-12.50", "-12.5"),
	)

	DescribeTable("unusable amounts",
		func(raw string) {
			_, ok := ParseAmount(raw)
			Expect(ok).To(BeFalse())
		},
		Entry("empty", ""),
		Entry("letters only", "abc"),
		Entry("several decimal points", "1.2.3"),
		Entry("bare minus", "-"),
	)

	It("round-trips every chosen total", func() {
		for _, text := range []string{"TOTAL DUE $123.45", "$1,234.56 and $999.00", "Total: 1.234,56"} {
			chosen, _ := ExtractTotal(text, DefaultGapMaxChars)
			amt, ok := ParseAmount(chosen)
			Expect(ok).To(BeTrue())
			Expect(FormatAmount(amt)).To(Equal(chosen))
		}
	})
})
