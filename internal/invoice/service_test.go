package invoice

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/invoice-parser/internal/report"
)

var _ = Describe("Service", func() {
	var (
		ctx     context.Context
		db      *mockDB
		storage *mockStorage
		scanner *mockScanner
		idGen   *mockIDGenerator
		timeSrc *mockTimeSource
		service *Service
	)

	BeforeEach(func() {
		ctx = context.Background()
		db = newMockDB()
		storage = newMockStorage()
		scanner = newMockScanner()
		idGen = &mockIDGenerator{id: "key-123"}
		timeSrc = &mockTimeSource{now: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)}
		service = NewServiceWithDeps(db, scanner, storage, nil, idGen, timeSrc)
	})

	Describe("ParseDocument", func() {
		var (
			filename    string
			data        []byte
			contentType string
			result      *ParseResult
			err         error
		)

		BeforeEach(func() {
			filename = "March Invoice (1).pdf"
			data = []byte("%PDF-1.4 fake")
			contentType = "application/pdf"
		})

		JustBeforeEach(func() {
			result, err = service.ParseDocument(ctx, filename, data, contentType)
		})

		When("processing succeeds", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("returns the extracted fields", func() {
				Expect(result.Vendor).To(Equal("Acme Corp LLC"))
				Expect(result.Date).To(Equal("2014-05-01"))
				Expect(result.Total).To(Equal("123.45"))
				Expect(result.TotalCandidates).To(Equal([]string{"123.45"}))
			})

			It("reports the original filename and size", func() {
				Expect(result.Filename).To(Equal("March Invoice (1).pdf"))
				Expect(result.SizeBytes).To(Equal(len(data)))
			})

			It("assigns the stored ID", func() {
				Expect(result.ID).To(Equal(uint64(1)))
			})

			It("passes the content type to the scanner", func() {
				Expect(scanner.lastContentType).To(Equal("application/pdf"))
			})

			It("archives the upload under a sanitized key", func() {
				Expect(storage.files).To(HaveKey("key-123_March Invoice 1.pdf"))
			})

			It("saves the invoice to the database", func() {
				saved, getErr := db.GetInvoice(ctx, 1)
				Expect(getErr).NotTo(HaveOccurred())
				Expect(saved.Filename).To(Equal("March Invoice (1).pdf"))
				Expect(saved.Vendor).To(Equal("Acme Corp LLC"))
				Expect(saved.StoredFile).To(Equal("key-123_March Invoice 1.pdf"))
				Expect(saved.CreatedAt).To(Equal(timeSrc.now))
			})
		})

		When("the text carries page markers", func() {
			BeforeEach(func() {
				scanner.text = "\n--- Page 1 ---\nAcme Corp LLC\n\n--- Page 2 ---\nTotal 9.99"
			})

			It("stores the text without them", func() {
				Expect(result.ExtractedText).To(Equal("Acme Corp LLC\n\nTotal 9.99"))
				Expect(result.ExtractedText).NotTo(ContainSubstring("Page"))
			})
		})

		When("storage save fails", func() {
			var setupErr error

			BeforeEach(func() {
				setupErr = errors.New("storage error")
				storage.saveErr = setupErr
			})

			It("returns the error", func() {
				Expect(err).To(MatchError(setupErr))
			})
		})

		When("scanner fails", func() {
			var setupErr error

			BeforeEach(func() {
				setupErr = errors.New("scan error")
				scanner.scanErr = setupErr
			})

			It("returns the error", func() {
				Expect(err).To(MatchError(setupErr))
			})

			It("cleans up the saved file", func() {
				Expect(storage.files).To(BeEmpty())
			})
		})

		When("database save fails", func() {
			var setupErr error

			BeforeEach(func() {
				setupErr = errors.New("database error")
				db.saveErr = setupErr
			})

			It("returns the error", func() {
				Expect(err).To(MatchError(setupErr))
			})

			It("cleans up the saved file", func() {
				Expect(storage.files).To(BeEmpty())
			})
		})
	})

	Describe("GetInvoice", func() {
		var (
			id  uint64
			inv *Invoice
			err error
		)

		JustBeforeEach(func() {
			inv, err = service.GetInvoice(ctx, id)
		})

		When("invoice exists", func() {
			BeforeEach(func() {
				id = 7
				db.invoices[7] = &Invoice{ID: 7, Vendor: "Acme"}
			})

			It("returns the invoice", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(inv.Vendor).To(Equal("Acme"))
			})
		})

		When("invoice does not exist", func() {
			BeforeEach(func() {
				id = 99
			})

			It("returns ErrNotFound", func() {
				Expect(err).To(MatchError(ErrNotFound))
			})
		})
	})

	Describe("ListInvoices", func() {
		When("the database fails", func() {
			BeforeEach(func() {
				db.listErr = errors.New("list error")
			})

			It("returns the error", func() {
				_, err := service.ListInvoices(ctx)
				Expect(err).To(MatchError(db.listErr))
			})
		})

		When("invoices exist", func() {
			BeforeEach(func() {
				db.invoices[2] = &Invoice{ID: 2}
				db.invoices[1] = &Invoice{ID: 1}
			})

			It("returns them all", func() {
				invoices, err := service.ListInvoices(ctx)
				Expect(err).NotTo(HaveOccurred())
				Expect(invoices).To(HaveLen(2))
			})
		})
	})

	Describe("GetInvoiceFile", func() {
		BeforeEach(func() {
			db.invoices[1] = &Invoice{ID: 1, StoredFile: "k_a.pdf", ContentType: "application/pdf"}
			storage.files["k_a.pdf"] = []byte("pdf bytes")
		})

		It("returns the archived bytes and content type", func() {
			data, contentType, err := service.GetInvoiceFile(ctx, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("pdf bytes"))
			Expect(contentType).To(Equal("application/pdf"))
		})

		It("returns ErrNotFound for unknown invoices", func() {
			_, _, err := service.GetInvoiceFile(ctx, 2)
			Expect(err).To(MatchError(ErrNotFound))
		})
	})

	Describe("DeleteInvoice", func() {
		var err error

		BeforeEach(func() {
			db.invoices[1] = &Invoice{ID: 1, StoredFile: "k_a.pdf"}
			storage.files["k_a.pdf"] = []byte("pdf bytes")
		})

		When("the invoice exists", func() {
			JustBeforeEach(func() {
				err = service.DeleteInvoice(ctx, 1)
			})

			It("removes the record and the archived file", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(db.invoices).To(BeEmpty())
				Expect(storage.files).To(BeEmpty())
			})
		})

		When("the archived file is already gone", func() {
			BeforeEach(func() {
				delete(storage.files, "k_a.pdf")
			})

			It("still removes the record", func() {
				Expect(service.DeleteInvoice(ctx, 1)).To(Succeed())
				Expect(db.invoices).To(BeEmpty())
			})
		})

		When("the invoice does not exist", func() {
			It("returns ErrNotFound", func() {
				Expect(service.DeleteInvoice(ctx, 5)).To(MatchError(ErrNotFound))
			})
		})
	})

	Describe("ExportInvoices", func() {
		BeforeEach(func() {
			db.invoices[1] = &Invoice{ID: 1, Filename: "a.pdf", Vendor: "Acme", Date: "2024-01-02", Total: "10.00"}
			db.invoices[2] = &Invoice{ID: 2, Filename: "b.pdf", Vendor: "Unknown", Date: "Not found", Total: "Not found"}
		})

		It("writes one CSV row per invoice in ID order", func() {
			var buf bytes.Buffer
			Expect(service.ExportInvoices(ctx, &buf, report.CSV)).To(Succeed())

			records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(Equal([][]string{
				report.Header,
				{"a.pdf", "Acme", "2024-01-02", "10.00"},
				{"b.pdf", "Unknown", "Not found", "Not found"},
			}))
		})
	})
})

var _ = Describe("sanitizeFilename", func() {
	DescribeTable("cleaning names",
		func(in, want string) {
			Expect(sanitizeFilename(in)).To(Equal(want))
		},
		Entry("plain", "invoice.pdf", "invoice.pdf"),
		Entry("special characters", "inv#(2024)!.pdf", "inv2024.pdf"),
		Entry("directories", "../../etc/passwd", "passwd"),
		Entry("empty base", "!!!.pdf", "invoice.pdf"),
		Entry("long names", strings.Repeat("a", 80)+".pdf", strings.Repeat("a", 50)+".pdf"),
	)
})
