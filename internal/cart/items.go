package cart

// LineItem is one product entry in a cart. Quantity is always >= 1 for a
// stored line; a quantity below 1 removes the line instead.
type LineItem struct {
	ProductID string  `json:"product_id" dynamodbav:"product_id"`
	Name      string  `json:"name" dynamodbav:"name"`
	Price     float64 `json:"price" dynamodbav:"price"`
	Image     string  `json:"image,omitempty" dynamodbav:"image,omitempty"`
	Quantity  int     `json:"quantity" dynamodbav:"quantity"`
}

// Items is the in-memory line-item collection for one session. All
// operations are pure slice manipulation: they cannot fail and keep at most
// one line per product id.
type Items []LineItem

// Add merges quantity into an existing line for the product, or appends a
// new line. A quantity below 1 is treated as 1.
func (it Items) Add(p LineItem, quantity int) Items {
	if quantity < 1 {
		quantity = 1
	}
	for i := range it {
		if it[i].ProductID == p.ProductID {
			out := it.clone()
			out[i].Quantity += quantity
			return out
		}
	}
	p.Quantity = quantity
	return append(it.clone(), p)
}

// UpdateQuantity sets the line's quantity. Below 1 removes the line.
// Unknown product ids are a no-op.
func (it Items) UpdateQuantity(productID string, quantity int) Items {
	if quantity < 1 {
		return it.Remove(productID)
	}
	out := it.clone()
	for i := range out {
		if out[i].ProductID == productID {
			out[i].Quantity = quantity
			break
		}
	}
	return out
}

// Remove deletes the line if present; removing an absent id is a no-op.
func (it Items) Remove(productID string) Items {
	out := make(Items, 0, len(it))
	for _, li := range it {
		if li.ProductID != productID {
			out = append(out, li)
		}
	}
	return out
}

// Merge folds another cart into this one: quantities sum for shared product
// ids, remaining lines append in their original order.
func (it Items) Merge(other Items) Items {
	out := it.clone()
	for _, li := range other {
		found := false
		for i := range out {
			if out[i].ProductID == li.ProductID {
				out[i].Quantity += li.Quantity
				found = true
				break
			}
		}
		if !found {
			out = append(out, li)
		}
	}
	return out
}

// Total sums price*quantity over all lines. Negative prices or quantities
// count as 0; upstream data may be malformed and totals must never go wild.
func (it Items) Total() float64 {
	var total float64
	for _, li := range it {
		price := li.Price
		qty := li.Quantity
		if price < 0 {
			price = 0
		}
		if qty < 0 {
			qty = 0
		}
		total += price * float64(qty)
	}
	return total
}

// ItemCount sums quantities, not lines.
func (it Items) ItemCount() int {
	var n int
	for _, li := range it {
		if li.Quantity > 0 {
			n += li.Quantity
		}
	}
	return n
}

// Find returns the line for a product id, if present.
func (it Items) Find(productID string) (LineItem, bool) {
	for _, li := range it {
		if li.ProductID == productID {
			return li, true
		}
	}
	return LineItem{}, false
}

func (it Items) clone() Items {
	out := make(Items, len(it))
	copy(out, it)
	return out
}
