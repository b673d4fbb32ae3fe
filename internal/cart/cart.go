// Package cart содержит корзину покупок текущего сеанса.
package cart

import (
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/storefront/internal/model"
)

// Entry описывает позицию корзины. Quantity всегда не меньше 1.
type Entry struct {
	Product  model.Product
	Quantity int
}

// Subtotal возвращает стоимость позиции.
func (e Entry) Subtotal() decimal.Decimal {
	return decimal.NewFromFloat(e.Product.Price).Mul(decimal.NewFromInt(int64(e.Quantity)))
}

// Cart хранит позиции корзины в памяти и безопасна для конкурентного использования.
type Cart struct {
	mu      sync.RWMutex
	entries []Entry
}

// New создаёт пустую корзину.
func New() *Cart {
	return &Cart{}
}

// Add добавляет товар: новая позиция помещается в начало, существующая увеличивается на 1.
func (c *Cart) Add(p model.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.entries {
		if c.entries[i].Product.ID == p.ID {
			c.entries[i].Quantity++
			return
		}
	}
	c.entries = append([]Entry{{Product: p, Quantity: 1}}, c.entries...)
}

// UpdateQuantity изменяет количество на delta. Позиция с количеством 0 удаляется.
// Возвращает false, если товара нет в корзине.
func (c *Cart) UpdateQuantity(productID string, delta int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.entries {
		if c.entries[i].Product.ID != productID {
			continue
		}
		q := c.entries[i].Quantity + delta
		if q <= 0 {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			return true
		}
		c.entries[i].Quantity = q
		return true
	}
	return false
}

// Remove удаляет позицию целиком.
func (c *Cart) Remove(productID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.entries {
		if c.entries[i].Product.ID == productID {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Clear очищает корзину.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
}

// Items возвращает копию позиций.
func (c *Cart) Items() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.entries) == 0 {
		return nil
	}
	dup := make([]Entry, len(c.entries))
	copy(dup, c.entries)
	return dup
}

// Quantity возвращает количество товара в корзине.
func (c *Cart) Quantity(productID string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, e := range c.entries {
		if e.Product.ID == productID {
			return e.Quantity
		}
	}
	return 0
}

// Count возвращает общее число единиц товара.
func (c *Cart) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, e := range c.entries {
		n += e.Quantity
	}
	return n
}

// Total возвращает сумму корзины.
func (c *Cart) Total() decimal.Decimal {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := decimal.Zero
	for _, e := range c.entries {
		total = total.Add(e.Subtotal())
	}
	return total
}

// FormatMNT округляет сумму до целых и разделяет разряды запятыми.
func FormatMNT(amount decimal.Decimal) string {
	s := amount.Round(0).String()

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}

	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String()
}
