package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
)

// Quantities is a sparse productId -> quantity mapping. Absent keys read as
// zero, quantities never go below zero, and keys keep their insertion order
// (including the order they appeared in when decoded from JSON).
//
// The zero value is an empty mapping ready to use.
type Quantities struct {
	keys []string
	qty  map[string]int
}

// NewQuantities builds a mapping from alternating id/quantity pairs given in
// order. It is mostly useful in tests.
func NewQuantities(pairs ...interface{}) *Quantities {
	q := &Quantities{}
	for i := 0; i+1 < len(pairs); i += 2 {
		id := fmt.Sprint(pairs[i])
		n, _ := pairs[i+1].(int)
		q.Set(id, n)
	}
	return q
}

// Get returns the quantity for productID, zero when absent.
func (q *Quantities) Get(productID string) int {
	if q == nil || q.qty == nil {
		return 0
	}
	return q.qty[productID]
}

// Set stores n for productID. Negative values are stored as zero.
func (q *Quantities) Set(productID string, n int) {
	if q.qty == nil {
		q.qty = make(map[string]int)
	}
	if n < 0 {
		n = 0
	}
	if _, ok := q.qty[productID]; !ok {
		q.keys = append(q.keys, productID)
	}
	q.qty[productID] = n
}

// Add increments productID by one and returns the new quantity.
func (q *Quantities) Add(productID string) int {
	n := q.Get(productID) + 1
	q.Set(productID, n)
	return n
}

// Remove decrements productID by one, floored at zero, and returns the new
// quantity. It reports false when nothing changed.
func (q *Quantities) Remove(productID string) (int, bool) {
	n := q.Get(productID)
	if n <= 0 {
		return 0, false
	}
	q.Set(productID, n-1)
	return n - 1, true
}

// Keys returns the product ids in insertion order, including zero entries.
func (q *Quantities) Keys() []string {
	if q == nil {
		return nil
	}
	out := make([]string, len(q.keys))
	copy(out, q.keys)
	return out
}

// Len returns the number of keys, including zero entries.
func (q *Quantities) Len() int {
	if q == nil {
		return 0
	}
	return len(q.keys)
}

// Items returns the entries with a positive quantity in key order.
func (q *Quantities) Items() []OrderItem {
	items := make([]OrderItem, 0)
	if q == nil {
		return items
	}
	for _, id := range q.keys {
		if n := q.qty[id]; n > 0 {
			items = append(items, OrderItem{ProductID: id, Quantity: n})
		}
	}
	return items
}

// TotalItems sums the positive quantities.
func (q *Quantities) TotalItems() int {
	total := 0
	for _, item := range q.Items() {
		total += item.Quantity
	}
	return total
}

// Clone returns an independent copy.
func (q *Quantities) Clone() *Quantities {
	out := &Quantities{}
	if q == nil {
		return out
	}
	for _, id := range q.keys {
		out.Set(id, q.qty[id])
	}
	return out
}

// MarshalJSON encodes the mapping as an object with keys in order.
func (q Quantities) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range q.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		fmt.Fprintf(&buf, "%d", q.qty[id])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object of quantities keeping key order. Null
// values count as zero; fractional values are truncated.
func (q *Quantities) UnmarshalJSON(data []byte) error {
	*q = Quantities{}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("quantities: expected object, got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("quantities: expected string key, got %v", keyTok)
		}

		var value *float64
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("quantities: value for %q: %w", key, err)
		}
		n := 0
		if value != nil && !math.IsNaN(*value) {
			n = int(*value)
		}
		q.Set(key, n)
	}

	_, err = dec.Token()
	return err
}

// Value stores the mapping as JSON text.
func (q Quantities) Value() (driver.Value, error) {
	return q.MarshalJSON()
}

// Scan loads the mapping from a JSON column.
func (q *Quantities) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*q = Quantities{}
		return nil
	case []byte:
		return q.UnmarshalJSON(v)
	case string:
		return q.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("quantities: cannot scan %T", src)
	}
}

// CartSummary is the priced view of a cart.
type CartSummary struct {
	Items     []OrderItem `json:"items"`
	ItemCount int         `json:"itemCount"`
	Subtotal  float64     `json:"subtotal"`
	Shipping  float64     `json:"shipping"`
	Total     float64     `json:"total"`
	Persisted bool        `json:"persisted"`
}

// CartItemRequest is the body of /addtocart and /removefromcart.
type CartItemRequest struct {
	ItemID json.Number `json:"itemId"`
}
