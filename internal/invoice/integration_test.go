package invoice_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/invoice-parser/internal/invoice"
)

// fakeScanner returns canned OCR text for every document
type fakeScanner struct {
	text string
}

func (f *fakeScanner) ScanText(ctx context.Context, data []byte, contentType string) (string, error) {
	return f.text, nil
}

func (f *fakeScanner) Close() error {
	return nil
}

const scannedInvoice = "\n--- Page 1 ---\nNorthwind Traders Inc\n42 Harbor Road\nInvoice No 1001\nDate: March 3, 2023\n" +
	"\n--- Page 2 ---\nSubtotal 1,100.00\nTax 134.56\nGrand Total: $1,234.56\nThank you\n"

var _ = Describe("Integration", func() {
	stores := map[string]func(path string) (invoice.DB, error){
		"bolt": func(path string) (invoice.DB, error) {
			return invoice.NewBoltDB(path)
		},
		"sqlite": func(path string) (invoice.DB, error) {
			return invoice.NewSQLiteDB(path)
		},
	}

	for driver, open := range stores {
		Describe("with the "+driver+" store", func() {
			var (
				db      invoice.DB
				store   invoice.Storage
				server  *invoice.Server
				httpSrv *httptest.Server
				apiKey  = "integration-key"
			)

			BeforeEach(func() {
				tempDir := GinkgoT().TempDir()

				var err error
				db, err = open(filepath.Join(tempDir, "invoices.db"))
				Expect(err).NotTo(HaveOccurred())

				store, err = invoice.NewLocalStorage(filepath.Join(tempDir, "uploads"))
				Expect(err).NotTo(HaveOccurred())

				service := invoice.NewService(db, &fakeScanner{text: scannedInvoice}, store)
				server = invoice.NewServer(service, apiKey)
				httpSrv = httptest.NewServer(server)
			})

			AfterEach(func() {
				httpSrv.Close()
				db.Close()
			})

			request := func(method, path string, body io.Reader, contentType string) *http.Response {
				req, err := http.NewRequest(method, httpSrv.URL+path, body)
				Expect(err).NotTo(HaveOccurred())
				req.Header.Set(invoice.APIKeyHeader, apiKey)
				if contentType != "" {
					req.Header.Set("Content-Type", contentType)
				}
				resp, err := http.DefaultClient.Do(req)
				Expect(err).NotTo(HaveOccurred())
				return resp
			}

			uploadInvoice := func() map[string]any {
				var buf bytes.Buffer
				mw := multipart.NewWriter(&buf)
				part, err := mw.CreateFormFile("file", "northwind.pdf")
				Expect(err).NotTo(HaveOccurred())
				_, err = part.Write([]byte("%PDF-1.4 northwind"))
				Expect(err).NotTo(HaveOccurred())
				Expect(mw.Close()).To(Succeed())

				resp := request("POST", "/parse", &buf, mw.FormDataContentType())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusOK))

				var result map[string]any
				Expect(json.NewDecoder(resp.Body).Decode(&result)).To(Succeed())
				return result
			}

			It("parses, lists, fetches, exports and deletes an invoice", func() {
				result := uploadInvoice()
				Expect(result).To(HaveKeyWithValue("vendor", "Northwind Traders Inc"))
				Expect(result).To(HaveKeyWithValue("date", "2023-03-03"))
				Expect(result).To(HaveKeyWithValue("total", "1234.56"))
				Expect(result["total_candidates"]).To(Equal([]any{"1,234.56"}))
				Expect(result["extracted_text"]).NotTo(ContainSubstring("--- Page"))

				id := int(result["id"].(float64))
				path := "/invoices/" + jsonNumber(id)

				By("listing")
				resp := request("GET", "/invoices", nil, "")
				var list []map[string]any
				Expect(json.NewDecoder(resp.Body).Decode(&list)).To(Succeed())
				resp.Body.Close()
				Expect(list).To(HaveLen(1))
				Expect(list[0]).To(HaveKeyWithValue("filename", "northwind.pdf"))

				By("fetching the detail")
				resp = request("GET", path, nil, "")
				var detail map[string]any
				Expect(json.NewDecoder(resp.Body).Decode(&detail)).To(Succeed())
				resp.Body.Close()
				Expect(detail).To(HaveKeyWithValue("total", "1234.56"))
				Expect(detail["extracted_text"]).To(ContainSubstring("Northwind Traders Inc"))

				By("downloading the original")
				resp = request("GET", path+"/file", nil, "")
				original, err := io.ReadAll(resp.Body)
				Expect(err).NotTo(HaveOccurred())
				resp.Body.Close()
				Expect(string(original)).To(Equal("%PDF-1.4 northwind"))

				By("exporting")
				resp = request("GET", "/invoices/export", nil, "")
				csvBody, err := io.ReadAll(resp.Body)
				Expect(err).NotTo(HaveOccurred())
				resp.Body.Close()
				Expect(string(csvBody)).To(ContainSubstring("northwind.pdf,Northwind Traders Inc,2023-03-03,1234.56"))

				By("deleting")
				resp = request("DELETE", path, nil, "")
				resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusNoContent))

				resp = request("GET", path, nil, "")
				resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			})

			It("rejects requests without the API key", func() {
				resp, err := http.Get(httpSrv.URL + "/invoices")
				Expect(err).NotTo(HaveOccurred())
				resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
			})
		})
	}
})

func jsonNumber(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}
