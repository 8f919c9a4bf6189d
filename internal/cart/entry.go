package cart

// Product is a catalog item as served by GET /products/{id}.
type Product struct {
	ID    int     `json:"id"`
	Title string  `json:"title"`
	Price float64 `json:"price"`
	Image string  `json:"image"`
}

// Stock is the available inventory for a product as served by GET /stock/{id}.
type Stock struct {
	ID     int `json:"id"`
	Amount int `json:"amount"`
}

// Entry is one product line in the cart. Amount is always >= 1.
type Entry struct {
	ID     int     `json:"id"`
	Title  string  `json:"title"`
	Price  float64 `json:"price"`
	Image  string  `json:"image"`
	Amount int     `json:"amount"`
}

type UpdateAmount struct {
	ProductID int `json:"productId"`
	Amount    int `json:"amount"`
}

func newEntry(p Product) Entry {
	return Entry{
		ID:     p.ID,
		Title:  p.Title,
		Price:  p.Price,
		Image:  p.Image,
		Amount: 1,
	}
}

// Subtotal is price times amount for a single line.
func (e Entry) Subtotal() float64 {
	return e.Price * float64(e.Amount)
}

// Total sums the subtotals of entries.
func Total(entries []Entry) float64 {
	var total float64
	for _, e := range entries {
		total += e.Subtotal()
	}
	return total
}

func indexOf(entries []Entry, id int) int {
	for i, e := range entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}
