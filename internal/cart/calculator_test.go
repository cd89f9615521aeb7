package cart

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Calculator", func() {
	var calc *Calculator

	BeforeEach(func() {
		calc = NewCalculator()
	})

	press := func(keys string) {
		for i := 0; i < len(keys); i++ {
			switch k := keys[i]; k {
			case '.':
				calc.Decimal()
			case '+', '-', '*', '/':
				calc.Operator(k)
			case '=':
				calc.Equals()
			default:
				calc.Digit(k)
			}
		}
	}

	It("starts displaying zero", func() {
		Expect(calc.Display()).To(Equal("0"))
	})

	Describe("typing a number", func() {
		It("builds the display digit by digit", func() {
			press("12.50")
			Expect(calc.Display()).To(Equal("12.50"))
			Expect(calc.Value()).To(Equal(12.50))
		})

		It("replaces the leading zero", func() {
			press("5")
			Expect(calc.Display()).To(Equal("5"))
		})

		It("ignores a second decimal point", func() {
			press("1.2.3")
			Expect(calc.Display()).To(Equal("1.23"))
		})

		It("ignores non-digit input", func() {
			calc.Digit('x')
			Expect(calc.Display()).To(Equal("0"))
		})
	})

	Describe("arithmetic", func() {
		It("adds", func() {
			press("5.99+3.01=")
			Expect(calc.Value()).To(Equal(9.0))
		})

		It("adds money values without float drift", func() {
			press("0.1+0.2=")
			Expect(calc.Value()).To(Equal(0.3))
		})

		It("subtracts", func() {
			press("10-2.50=")
			Expect(calc.Value()).To(Equal(7.5))
		})

		It("multiplies", func() {
			press("3*4=")
			Expect(calc.Value()).To(Equal(12.0))
		})

		It("divides", func() {
			press("10/4=")
			Expect(calc.Value()).To(Equal(2.5))
		})

		It("treats division by zero as zero", func() {
			press("10/0=")
			Expect(calc.Value()).To(Equal(0.0))
		})

		It("chains operations", func() {
			press("1+2+3=")
			Expect(calc.Value()).To(Equal(6.0))
		})

		It("resolves a half-typed operation in Value", func() {
			press("2+3")
			Expect(calc.Value()).To(Equal(5.0))
		})
	})

	Describe("Backspace", func() {
		It("removes the last character", func() {
			press("123")
			calc.Backspace()
			Expect(calc.Display()).To(Equal("12"))
		})

		It("bottoms out at zero", func() {
			press("1")
			calc.Backspace()
			calc.Backspace()
			Expect(calc.Display()).To(Equal("0"))
		})
	})

	Describe("Clear", func() {
		It("resets everything", func() {
			press("12+3")
			calc.Clear()
			Expect(calc.Display()).To(Equal("0"))
			Expect(calc.Value()).To(Equal(0.0))
		})
	})

	Describe("AddTo", func() {
		var cart *Cart

		BeforeEach(func() {
			cart = NewCartWithDeps(newMockDB(), &mockIDGenerator{}, &mockTimeSource{})
		})

		When("the value is positive", func() {
			It("adds a quantity-one item with the calculated name", func() {
				press("7.50")
				item, err := calc.AddTo(cart)
				Expect(err).NotTo(HaveOccurred())
				Expect(item.Name).To(Equal(CalculatedItemName))
				Expect(item.UnitPrice).To(Equal(7.50))
				Expect(item.Quantity).To(Equal(1))
			})

			It("clears the calculator afterwards", func() {
				press("7.50")
				calc.AddTo(cart)
				Expect(calc.Display()).To(Equal("0"))
			})
		})

		When("the value is zero", func() {
			It("refuses to add", func() {
				_, err := calc.AddTo(cart)
				Expect(err).To(MatchError(ErrNothingToAdd))
				Expect(cart.Count()).To(Equal(0))
			})
		})
	})
})
