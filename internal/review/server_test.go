package review

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"mime/multipart"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/zombor/receipt-scanner/internal/scanning"
)

var _ = Describe("Server", func() {
	var (
		db          *mockDB
		scanner     *mockScanner
		creator     *mockCreator
		service     *Service
		auth        BasicAuth
		server      *Server
		ghttpServer *ghttp.Server
	)

	setupServer := func() {
		if ghttpServer != nil {
			ghttpServer.Close()
		}
		server = NewServerWithMux(service, auth, http.NewServeMux())
		ghttpServer = ghttp.NewServer()
		ghttpServer.AppendHandlers(server.ServeHTTP)
	}

	BeforeEach(func() {
		db = newMockDB()
		scanner = newMockScanner()
		creator = &mockCreator{}
		service = NewService(db, scanner, creator)
		auth = BasicAuth{}
		setupServer()
	})

	AfterEach(func() {
		if ghttpServer != nil {
			ghttpServer.Close()
		}
	})

	uploadReceipt := func(fieldName, filename string) *http.Response {
		var body bytes.Buffer
		writer := multipart.NewWriter(&body)
		part, err := writer.CreateFormFile(fieldName, filename)
		Expect(err).NotTo(HaveOccurred())
		_, err = part.Write([]byte("fake image bytes"))
		Expect(err).NotTo(HaveOccurred())
		Expect(writer.Close()).To(Succeed())

		resp, err := http.Post(ghttpServer.URL()+"/api/scans", writer.FormDataContentType(), &body)
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	Describe("handleUploadScan", func() {
		When("a receipt is uploaded", func() {
			It("should return status Created with the draft", func() {
				resp := uploadReceipt("file", "receipt.jpg")
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusCreated))

				var draft Draft
				Expect(json.NewDecoder(resp.Body).Decode(&draft)).To(Succeed())
				Expect(draft.Title).To(Equal("Joe's Coffee Shop"))
				Expect(draft.Amount).To(Equal("45.67"))
				Expect(draft.Confidence.Amount).To(Equal(85))
			})

			It("should save the draft for review", func() {
				resp := uploadReceipt("file", "receipt.jpg")
				resp.Body.Close()
				Expect(db.drafts).To(HaveLen(1))
			})
		})

		When("no file is provided", func() {
			It("should return status Bad Request", func() {
				resp := uploadReceipt("wrong-field", "receipt.jpg")
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			})
		})

		When("the image cannot be decoded", func() {
			BeforeEach(func() {
				scanner.err = scanning.ErrImageDecode
			})

			It("should return status Bad Request", func() {
				resp := uploadReceipt("file", "receipt.jpg")
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			})
		})

		When("recognition fails", func() {
			BeforeEach(func() {
				scanner.err = scanning.ErrRecognition
			})

			It("should return status Bad Gateway", func() {
				resp := uploadReceipt("file", "receipt.jpg")
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusBadGateway))
			})
		})
	})

	Describe("handleListDrafts", func() {
		When("drafts exist", func() {
			BeforeEach(func() {
				db.drafts["id1"] = &Draft{ID: "id1", Title: "First"}
				db.drafts["id2"] = &Draft{ID: "id2", Title: "Second"}
			})

			It("should return them as JSON", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/scans")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusOK))

				var drafts []*Draft
				Expect(json.NewDecoder(resp.Body).Decode(&drafts)).To(Succeed())
				Expect(drafts).To(HaveLen(2))
			})
		})
	})

	Describe("handleGetDraft", func() {
		BeforeEach(func() {
			db.drafts["id1"] = &Draft{ID: "id1", Title: "First"}
		})

		When("the draft exists", func() {
			It("should return it", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/scans/id1")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusOK))

				var draft Draft
				Expect(json.NewDecoder(resp.Body).Decode(&draft)).To(Succeed())
				Expect(draft.Title).To(Equal("First"))
			})
		})

		When("the draft does not exist", func() {
			It("should return status Not Found", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/scans/missing")
				Expect(err).NotTo(HaveOccurred())
				resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			})
		})
	})

	Describe("handleDeleteDraft", func() {
		BeforeEach(func() {
			db.drafts["id1"] = &Draft{ID: "id1"}
		})

		It("should discard the draft", func() {
			req, err := http.NewRequest("DELETE", ghttpServer.URL()+"/api/scans/id1", nil)
			Expect(err).NotTo(HaveOccurred())
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
			Expect(db.drafts).To(BeEmpty())
		})
	})

	Describe("handleConfirmDraft", func() {
		BeforeEach(func() {
			db.drafts["id1"] = &Draft{
				ID:       "id1",
				Title:    "Joe's Coffee Shop",
				Amount:   "45.67",
				Date:     "2024-03-14",
				Category: "food",
			}
		})

		When("confirming with corrections", func() {
			It("should create the expense and return the record", func() {
				body := bytes.NewBufferString(`{"amount": "50.00"}`)
				resp, err := http.Post(ghttpServer.URL()+"/api/scans/id1/confirm", "application/json", body)
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusOK))

				var record ExpenseRecord
				Expect(json.NewDecoder(resp.Body).Decode(&record)).To(Succeed())
				Expect(record.Amount).To(Equal(5000))
				Expect(creator.records).To(HaveLen(1))
				Expect(db.drafts).To(BeEmpty())
			})
		})

		When("the draft cannot be confirmed", func() {
			BeforeEach(func() {
				db.drafts["id1"].Amount = ""
			})

			It("should return status Bad Request without internal detail", func() {
				resp, err := http.Post(ghttpServer.URL()+"/api/scans/id1/confirm", "application/json", bytes.NewBufferString("{}"))
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				Expect(creator.records).To(BeEmpty())

				var body map[string]string
				Expect(json.NewDecoder(resp.Body).Decode(&body)).To(Succeed())
				Expect(body["error"]).To(Equal("Could not confirm the draft. Check the amount and date."))
			})
		})

		When("the corrected amount is not a finite number", func() {
			It("should return status Bad Request", func() {
				body := bytes.NewBufferString(`{"amount": "NaN"}`)
				resp, err := http.Post(ghttpServer.URL()+"/api/scans/id1/confirm", "application/json", body)
				Expect(err).NotTo(HaveOccurred())
				resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				Expect(creator.records).To(BeEmpty())
				Expect(db.drafts).To(HaveKey("id1"))
			})
		})

		When("the draft does not exist", func() {
			It("should return status Not Found", func() {
				resp, err := http.Post(ghttpServer.URL()+"/api/scans/missing/confirm", "application/json", bytes.NewBufferString("{}"))
				Expect(err).NotTo(HaveOccurred())
				resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			})
		})
	})

	Describe("basic auth", func() {
		BeforeEach(func() {
			auth = BasicAuth{Username: "user", Password: "secret"}
			setupServer()
		})

		When("no credentials are provided", func() {
			It("should return status Unauthorized", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/scans")
				Expect(err).NotTo(HaveOccurred())
				resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
			})
		})

		When("valid credentials are provided", func() {
			It("should return status OK", func() {
				req, err := http.NewRequest("GET", ghttpServer.URL()+"/api/scans", nil)
				Expect(err).NotTo(HaveOccurred())
				req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("user:secret")))
				resp, err := http.DefaultClient.Do(req)
				Expect(err).NotTo(HaveOccurred())
				resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
			})
		})

		When("invalid credentials are provided", func() {
			It("should return status Unauthorized", func() {
				req, err := http.NewRequest("GET", ghttpServer.URL()+"/api/scans", nil)
				Expect(err).NotTo(HaveOccurred())
				req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("user:wrong")))
				resp, err := http.DefaultClient.Do(req)
				Expect(err).NotTo(HaveOccurred())
				resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
			})
		})
	})
})
