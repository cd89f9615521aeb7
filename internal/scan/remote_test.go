package scan

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("parseAnalysisJSON", func() {
	var (
		jsonInput string
		analysis  *Analysis
		err       error
	)

	JustBeforeEach(func() {
		analysis, err = parseAnalysisJSON(jsonInput)
	})

	When("parsing valid JSON", func() {
		BeforeEach(func() {
			jsonInput = `{"transcription": "LEITE INTEGRAL 1L R$ 5,99", "price": 5.99, "guessedName": "Leite Integral 1L", "productCode": "7891234567895"}`
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should parse the price correctly", func() {
			Expect(analysis.Price).To(Equal(5.99))
		})

		It("should parse the guessed name correctly", func() {
			Expect(analysis.GuessedName).To(Equal("Leite Integral 1L"))
		})

		It("should parse the product code correctly", func() {
			Expect(analysis.ProductCode).To(Equal("7891234567895"))
		})
	})

	When("parsing JSON with markdown code blocks", func() {
		BeforeEach(func() {
			jsonInput = "```json\n{\"transcription\": \"CAFE 500G\", \"price\": 18.90, \"guessedName\": \"Café 500g\"}\n```"
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should parse the price correctly", func() {
			Expect(analysis.Price).To(Equal(18.90))
		})
	})

	When("the response wraps the JSON in prose", func() {
		BeforeEach(func() {
			jsonInput = `Aqui está o resultado: {"transcription": "PAO", "price": 7.50, "guessedName": "Pão Francês"} Espero ter ajudado.`
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should extract the embedded object", func() {
			Expect(analysis.GuessedName).To(Equal("Pão Francês"))
		})
	})

	When("the guessed name is empty", func() {
		BeforeEach(func() {
			jsonInput = `{"transcription": "ACUCAR CRISTAL 2KG", "price": 9.90, "guessedName": ""}`
		})

		It("falls back to the transcription", func() {
			Expect(analysis.GuessedName).To(Equal("ACUCAR CRISTAL 2KG"))
		})
	})

	When("both name and transcription are empty", func() {
		BeforeEach(func() {
			jsonInput = `{"transcription": "", "price": 9.90, "guessedName": ""}`
		})

		It("falls back to the placeholder", func() {
			Expect(analysis.GuessedName).To(Equal(PlaceholderRemote))
		})
	})

	When("the price is negative", func() {
		BeforeEach(func() {
			jsonInput = `{"transcription": "X", "price": -3.50, "guessedName": "X"}`
		})

		It("clamps the price to zero", func() {
			Expect(analysis.Price).To(Equal(0.0))
		})
	})

	When("parsing invalid JSON", func() {
		BeforeEach(func() {
			jsonInput = `not even close`
		})

		It("returns the error", func() {
			Expect(err).To(HaveOccurred())
		})
	})
})
