package grocery

import (
	"fmt"
	"math"
	"path/filepath"
	"time"

	"github.com/elliotchance/orderedmap/v3"
	contractx "github.com/tanpawarit/Chative-Voice-Agents/agent/contract"
	"github.com/tanpawarit/Chative-Voice-Agents/agent/match"
	"github.com/tanpawarit/Chative-Voice-Agents/agent/record"
)

type Line struct {
	Item     Item
	Quantity int
	Subtotal float64
}

type View struct {
	Lines []Line
	Total float64
}

// MaxQuantity caps a single cart line.
const MaxQuantity = 99

// Cart maps catalog item id to a positive quantity, in the order items were
// first added. It belongs to exactly one call.
type Cart struct {
	catalog *Catalog
	lines   *orderedmap.OrderedMap[string, int]
}

func NewCart(catalog *Catalog) *Cart {
	if catalog == nil {
		catalog = &Catalog{}
	}
	return &Cart{
		catalog: catalog,
		lines:   orderedmap.NewOrderedMap[string, int](),
	}
}

func (c *Cart) Quantity(id string) int {
	q, _ := c.lines.Get(id)
	return q
}

func (c *Cart) Len() int {
	return c.lines.Len()
}

// Add creates or increments the line for the item matching query. The
// resulting line may not exceed MaxQuantity.
func (c *Cart) Add(query string, qty int) (Line, error) {
	if err := checkQuantity(qty); err != nil {
		return Line{}, err
	}
	item, ok := c.catalog.FindItem(query)
	if !ok {
		return Line{}, fmt.Errorf("%w: no catalog item for %q", contractx.ErrNotFound, query)
	}

	next := c.Quantity(item.ID) + qty
	if next > MaxQuantity {
		return Line{}, fmt.Errorf("%w: %s would reach %d, limit is %d", contractx.ErrInvalidArgument, item.Name, next, MaxQuantity)
	}
	c.lines.Set(item.ID, next)
	return c.line(item, next), nil
}

// Update overwrites the quantity of the matching item.
func (c *Cart) Update(query string, qty int) (Line, error) {
	if err := checkQuantity(qty); err != nil {
		return Line{}, err
	}
	item, ok := c.resolve(query)
	if !ok {
		return Line{}, fmt.Errorf("%w: no catalog item for %q", contractx.ErrNotFound, query)
	}

	c.lines.Set(item.ID, qty)
	return c.line(item, qty), nil
}

// Remove deletes the matching line entirely.
func (c *Cart) Remove(query string) (Item, error) {
	item, ok := c.inCart(query)
	if !ok {
		return Item{}, fmt.Errorf("%w: %q is not in the cart", contractx.ErrNotFound, query)
	}
	c.lines.Delete(item.ID)
	return item, nil
}

// AddRecipe adds one unit of every recipe item the catalog knows and skips the
// rest, including lines already at MaxQuantity. It fails only when nothing
// could be added.
func (c *Cart) AddRecipe(query string) (string, []Item, error) {
	name, recipe, ok := c.catalog.FindRecipe(query)
	if !ok {
		return "", nil, fmt.Errorf("%w: no recipe for %q", contractx.ErrNotFound, query)
	}

	added := make([]Item, 0, len(recipe.Items))
	for _, id := range recipe.Items {
		item, ok := c.catalog.Item(id)
		if !ok || c.Quantity(item.ID) >= MaxQuantity {
			continue
		}
		c.lines.Set(item.ID, c.Quantity(item.ID)+1)
		added = append(added, item)
	}
	if len(added) == 0 {
		return name, nil, fmt.Errorf("%w: none of the %s ingredients are stocked", contractx.ErrNotFound, name)
	}
	return name, added, nil
}

// View lists the lines in insertion order. Sums are taken in paise so the
// total carries no binary rounding noise.
func (c *Cart) View() View {
	var v View
	var total int64
	for id, qty := range c.lines.AllFromFront() {
		item, ok := c.catalog.Item(id)
		if !ok {
			continue
		}
		v.Lines = append(v.Lines, c.line(item, qty))
		total += paise(item.Price) * int64(qty)
	}
	v.Total = fromPaise(total)
	return v
}

type OrderItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Subtotal float64 `json:"subtotal"`
}

type Order struct {
	OrderID      string      `json:"order_id"`
	CustomerName string      `json:"customer_name"`
	Timestamp    string      `json:"timestamp"`
	Items        []OrderItem `json:"items"`
	Total        float64     `json:"total"`
	Status       string      `json:"status"`
}

// PlaceOrder writes dir/order_<id>.json and empties the cart. The id comes
// from the placement time. An empty cart is refused without touching disk; a
// failed write keeps the cart as it was.
func (c *Cart) PlaceOrder(dir, customer string, now time.Time) (Order, string, error) {
	view := c.View()
	if len(view.Lines) == 0 {
		return Order{}, "", contractx.ErrEmptyCart
	}

	order := Order{
		OrderID:      now.Format(record.TimestampLayout),
		CustomerName: customer,
		Timestamp:    now.Format(time.RFC3339),
		Items:        make([]OrderItem, 0, len(view.Lines)),
		Total:        view.Total,
		Status:       "placed",
	}
	if order.CustomerName == "" {
		order.CustomerName = "Guest"
	}
	for _, l := range view.Lines {
		order.Items = append(order.Items, OrderItem{
			ID:       l.Item.ID,
			Name:     l.Item.Name,
			Price:    l.Item.Price,
			Quantity: l.Quantity,
			Subtotal: l.Subtotal,
		})
	}

	path := filepath.Join(dir, "order_"+order.OrderID+".json")
	if err := record.Persist(path, order); err != nil {
		return Order{}, "", fmt.Errorf("%w: %v", contractx.ErrPersist, err)
	}

	c.lines = orderedmap.NewOrderedMap[string, int]()
	return order, path, nil
}

func (c *Cart) line(item Item, qty int) Line {
	return Line{Item: item, Quantity: qty, Subtotal: fromPaise(paise(item.Price) * int64(qty))}
}

func checkQuantity(qty int) error {
	if qty < 1 || qty > MaxQuantity {
		return fmt.Errorf("%w: quantity must be between 1 and %d, got %d", contractx.ErrInvalidArgument, MaxQuantity, qty)
	}
	return nil
}

func paise(price float64) int64 {
	return int64(math.Round(price * 100))
}

func fromPaise(p int64) float64 {
	return float64(p) / 100
}

// resolve looks among cart lines first, then the whole catalog.
func (c *Cart) resolve(query string) (Item, bool) {
	if item, ok := c.inCart(query); ok {
		return item, true
	}
	return c.catalog.FindItem(query)
}

func (c *Cart) inCart(query string) (Item, bool) {
	items := make([]Item, 0, c.lines.Len())
	for id := range c.lines.AllFromFront() {
		if item, ok := c.catalog.Item(id); ok {
			items = append(items, item)
		}
	}
	if hit, ok := match.Find(query, items, func(it Item) string { return it.Name }, match.Catalog); ok {
		return hit.Record, true
	}
	if hit, ok := match.Find(query, items, func(it Item) string { return it.ID }, match.Catalog); ok {
		return hit.Record, true
	}
	return Item{}, false
}
