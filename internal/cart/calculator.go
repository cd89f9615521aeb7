package cart

import (
	"math"
	"strconv"
	"strings"
)

// CalculatedItemName is the name given to items added from the manual
// calculator.
const CalculatedItemName = "ITEM CALCULADO"

// Calculator is the manual entry keypad engine: type a price directly
// or compute one, then launch it into the cart. Addition and
// subtraction go through cents to avoid float drift on money values.
type Calculator struct {
	display string
	prev    float64
	hasPrev bool
	op      byte
	waiting bool
}

// NewCalculator returns a cleared calculator displaying "0".
func NewCalculator() *Calculator {
	return &Calculator{display: "0"}
}

func calculate(a, b float64, op byte) float64 {
	const precision = 100
	switch op {
	case '+':
		return (math.Round(a*precision) + math.Round(b*precision)) / precision
	case '-':
		return (math.Round(a*precision) - math.Round(b*precision)) / precision
	case '*':
		return a * b
	case '/':
		if b == 0 {
			return 0
		}
		return a / b
	default:
		return b
	}
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (c *Calculator) current() float64 {
	v, err := strconv.ParseFloat(c.display, 64)
	if err != nil {
		return 0
	}
	return v
}

// Digit appends a digit '0'-'9' to the display.
func (c *Calculator) Digit(d byte) {
	if d < '0' || d > '9' {
		return
	}
	if c.waiting {
		c.display = string(d)
		c.waiting = false
		return
	}
	if c.display == "0" {
		c.display = string(d)
		return
	}
	c.display += string(d)
}

// Decimal starts the fractional part of the displayed number.
func (c *Calculator) Decimal() {
	if c.waiting {
		c.display = "0."
		c.waiting = false
		return
	}
	if !strings.Contains(c.display, ".") {
		c.display += "."
	}
}

// Operator applies a pending operation and stages op ('+', '-', '*',
// '/') for the next operand.
func (c *Calculator) Operator(op byte) {
	cur := c.current()
	if !c.hasPrev {
		c.prev = cur
		c.hasPrev = true
	} else if c.op != 0 && !c.waiting {
		c.prev = calculate(c.prev, cur, c.op)
		c.display = formatValue(c.prev)
	}
	c.waiting = true
	c.op = op
}

// Equals resolves the pending operation.
func (c *Calculator) Equals() {
	if c.op == 0 || !c.hasPrev {
		return
	}
	c.display = formatValue(calculate(c.prev, c.current(), c.op))
	c.hasPrev = false
	c.op = 0
	c.waiting = true
}

// Backspace removes the last typed character.
func (c *Calculator) Backspace() {
	if c.waiting {
		return
	}
	if len(c.display) <= 1 {
		c.display = "0"
		return
	}
	c.display = c.display[:len(c.display)-1]
}

// Clear resets the calculator.
func (c *Calculator) Clear() {
	c.display = "0"
	c.prev = 0
	c.hasPrev = false
	c.op = 0
	c.waiting = false
}

// Display returns the current display contents.
func (c *Calculator) Display() string {
	return c.display
}

// Value returns the amount that would be launched into the cart,
// resolving any half-typed operation first.
func (c *Calculator) Value() float64 {
	cur := c.current()
	if c.op != 0 && c.hasPrev && !c.waiting {
		return calculate(c.prev, cur, c.op)
	}
	return cur
}

// AddTo launches the current value into the cart as a single
// quantity-one item and clears the calculator. Non-positive values are
// refused.
func (c *Calculator) AddTo(cart *Cart) (Item, error) {
	v := c.Value()
	if v <= 0 {
		return Item{}, ErrNothingToAdd
	}
	item, err := cart.Add(CalculatedItemName, v, 1)
	if err != nil {
		return Item{}, err
	}
	c.Clear()
	return item, nil
}
