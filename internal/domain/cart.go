package domain

// CartLine is one product entry in a cart. Name and UnitPrice are snapshotted
// when the product is first added, so later catalog edits do not change an
// open cart.
type CartLine struct {
	ProductID int64  `json:"id"`
	Name      string `json:"product"`
	UnitPrice int64  `json:"price"`
	Quantity  int    `json:"quantity"`
}

// Cart holds the pending sale for one operator session. It is purely
// in-memory and not safe for concurrent use; callers serialize access.
type Cart struct {
	Lines        []CartLine `json:"lines"`
	CustomerName string     `json:"customer_name"`
	Note         string     `json:"note"`
}

func NewCart() *Cart {
	return &Cart{}
}

// AddItem merges into an existing line for the same product, otherwise
// appends a new line with quantity 1.
func (c *Cart) AddItem(p *Product) {
	for i := range c.Lines {
		if c.Lines[i].ProductID == p.ID {
			c.Lines[i].Quantity++
			return
		}
	}
	c.Lines = append(c.Lines, CartLine{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		Quantity:  1,
	})
}

// RemoveItem deletes the line for productID. Removing an absent product is a
// no-op, not an error.
func (c *Cart) RemoveItem(productID int64) {
	for i, line := range c.Lines {
		if line.ProductID == productID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return
		}
	}
}

// SetQuantity replaces the line's quantity. Any quantity below 1 removes the
// line entirely, so a negative quantity is never observable.
func (c *Cart) SetQuantity(productID int64, quantity int) {
	if quantity < 1 {
		c.RemoveItem(productID)
		return
	}
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines[i].Quantity = quantity
			return
		}
	}
}

// Clear empties the cart and resets the customer fields. Clearing an empty
// cart is a no-op.
func (c *Cart) Clear() {
	c.Lines = nil
	c.CustomerName = ""
	c.Note = ""
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}
