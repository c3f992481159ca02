package extraction

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ExtractVendor", func() {
	var (
		text       string
		topN       int
		vendor     string
		candidates []string
	)

	BeforeEach(func() {
		topN = DefaultTopNLines
	})

	JustBeforeEach(func() {
		vendor, candidates = ExtractVendor(text, topN)
	})

	When("a company line follows the invoice header", func() {
		BeforeEach(func() {
			text = "INVOICE #123\nAcme Corp LLC\n123 Main St"
		})

		It("picks the company line", func() {
			Expect(vendor).To(Equal("Acme Corp LLC"))
		})

		It("ranks the remaining lines after it", func() {
			Expect(candidates).To(Equal([]string{"Acme Corp LLC", "123 Main St"}))
		})
	})

	When("every line is filtered out", func() {
		BeforeEach(func() {
			text = "\n  Invoice 42\nTotal: 5.00\n----\n"
		})

		It("falls back to the first non-blank line", func() {
			Expect(vendor).To(Equal("Invoice 42"))
		})

		It("returns no candidates", func() {
			Expect(candidates).NotTo(BeNil())
			Expect(candidates).To(BeEmpty())
		})
	})

	When("the text has no lines", func() {
		BeforeEach(func() {
			text = " \n\t\n"
		})

		It("returns Unknown", func() {
			Expect(vendor).To(Equal(Unknown))
			Expect(candidates).To(BeEmpty())
		})
	})

	When("the vendor line is below the top lines", func() {
		BeforeEach(func() {
			text = strings.Repeat("12345\n", 8) + "Acme Inc"
		})

		It("is not considered", func() {
			Expect(vendor).To(Equal("12345"))
			Expect(candidates).To(BeEmpty())
		})

		When("the window is widened", func() {
			BeforeEach(func() {
				topN = 9
			})

			It("is found", func() {
				Expect(vendor).To(Equal("Acme Inc"))
			})
		})
	})

	When("two lines score the same", func() {
		BeforeEach(func() {
			text = "Blue Sky\nGreen Field"
		})

		It("keeps the earlier line first", func() {
			Expect(candidates).To(Equal([]string{"Blue Sky", "Green Field"}))
		})
	})

	When("contact lines precede the name", func() {
		BeforeEach(func() {
			text = "billing@acme.example\nWWW.ACME.EXAMPLE\nhttps://acme.example\nAcme Ltd"
		})

		It("skips them", func() {
			Expect(vendor).To(Equal("Acme Ltd"))
			Expect(candidates).To(Equal([]string{"Acme Ltd"}))
		})
	})

	When("lines are separated by carriage returns", func() {
		BeforeEach(func() {
			text = "INVOICE\rBeta Company"
		})

		It("splits on them", func() {
			Expect(vendor).To(Equal("Beta Company"))
		})
	})

	When("a company hint is only part of a word", func() {
		BeforeEach(func() {
			text = "Cocoa Bean Roasters\nNorthwind Co"
		})

		It("only rewards the whole word", func() {
			Expect(vendor).To(Equal("Northwind Co"))
		})
	})
})
