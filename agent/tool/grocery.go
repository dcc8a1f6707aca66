package tool

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Voice-Agents/agent/contract"
	"github.com/tanpawarit/Chative-Voice-Agents/agent/grocery"
)

const (
	ToolAddToCart         = "add_to_cart"
	ToolUpdateQuantity    = "update_quantity"
	ToolRemoveFromCart    = "remove_from_cart"
	ToolViewCart          = "view_cart"
	ToolAddIngredientsFor = "add_ingredients_for"
	ToolSearchCatalog     = "search_catalog"
	ToolPlaceOrder        = "place_order"
)

func groceryTools(g *Gateway, cart *grocery.Cart) []entry {
	return []entry{
		{
			info: &schema.ToolInfo{
				Name: ToolAddToCart,
				Desc: "Add an item to the cart, or more of an item already in it.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"item":     {Type: schema.String, Desc: "Product name or id", Required: true},
					"quantity": {Type: schema.Integer, Desc: "How many to add, default 1, at most 99 per item"},
				}),
			},
			run: func(_ context.Context, args Args) (string, error) {
				item, err := args.String("item")
				if err != nil {
					return "", err
				}
				qty, err := args.Int("quantity", 1)
				if err != nil {
					return "", err
				}
				line, err := cart.Add(item, qty)
				if err != nil {
					return "", cartError(err, item)
				}
				return fmt.Sprintf("Added %d %s to your cart, total %d.", qty, line.Item.Name, line.Quantity), nil
			},
		},
		{
			info: &schema.ToolInfo{
				Name: ToolUpdateQuantity,
				Desc: "Set the quantity of an item to an exact number.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"item":     {Type: schema.String, Desc: "Product name or id", Required: true},
					"quantity": {Type: schema.Integer, Desc: "New quantity, 1 to 99", Required: true},
				}),
			},
			run: func(_ context.Context, args Args) (string, error) {
				item, err := args.String("item")
				if err != nil {
					return "", err
				}
				qty, err := args.Int("quantity", 0)
				if err != nil {
					return "", err
				}
				line, err := cart.Update(item, qty)
				if err != nil {
					return "", cartError(err, item)
				}
				return fmt.Sprintf("Updated %s to %d.", line.Item.Name, line.Quantity), nil
			},
		},
		{
			info: &schema.ToolInfo{
				Name: ToolRemoveFromCart,
				Desc: "Remove an item from the cart completely.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"item": {Type: schema.String, Desc: "Product name or id", Required: true},
				}),
			},
			run: func(_ context.Context, args Args) (string, error) {
				item, err := args.String("item")
				if err != nil {
					return "", err
				}
				removed, err := cart.Remove(item)
				if err != nil {
					return "", cartError(err, item)
				}
				return fmt.Sprintf("Removed %s from your cart.", removed.Name), nil
			},
		},
		{
			info: &schema.ToolInfo{
				Name: ToolViewCart,
				Desc: "Read back what is in the cart and the total.",
			},
			run: func(context.Context, Args) (string, error) {
				return describeCart(cart.View()), nil
			},
		},
		{
			info: &schema.ToolInfo{
				Name: ToolAddIngredientsFor,
				Desc: "Add one of each stocked ingredient for a dish, for example pasta or sandwich.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"recipe": {Type: schema.String, Desc: "Dish name", Required: true},
				}),
			},
			run: func(_ context.Context, args Args) (string, error) {
				recipe, err := args.String("recipe")
				if err != nil {
					return "", err
				}
				name, added, err := cart.AddRecipe(recipe)
				if err != nil {
					return "", say(err, "Sorry, I don't have the ingredients for %s.", recipe)
				}
				names := make([]string, 0, len(added))
				for _, it := range added {
					names = append(names, it.Name)
				}
				return fmt.Sprintf("For %s I added %s to your cart.", name, joinAnd(names)), nil
			},
		},
		{
			info: &schema.ToolInfo{
				Name: ToolSearchCatalog,
				Desc: "Check whether a product is stocked and what it costs.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"query": {Type: schema.String, Desc: "Product to look for", Required: true},
				}),
			},
			run: func(_ context.Context, args Args) (string, error) {
				q, err := args.String("query")
				if err != nil {
					return "", err
				}
				found := g.deps.Catalog.Search(q)
				if len(found) == 0 {
					return "", say(contractx.ErrNotFound, "Sorry, we don't stock %s.", q)
				}
				parts := make([]string, 0, len(found))
				for _, it := range found {
					parts = append(parts, fmt.Sprintf("%s at %s", it.Name, rupees(it.Price)))
				}
				return fmt.Sprintf("We have %s.", joinAnd(parts)), nil
			},
		},
		{
			info: &schema.ToolInfo{
				Name: ToolPlaceOrder,
				Desc: "Place the order for everything in the cart once the caller confirms. Ends the call.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"customer_name": {Type: schema.String, Desc: "Name for the order"},
				}),
			},
			terminal: true,
			run: func(ctx context.Context, args Args) (string, error) {
				order, path, err := cart.PlaceOrder(g.deps.OrderDir, args.OptionalString("customer_name"), g.deps.Now())
				if err != nil {
					return "", cartError(err, "")
				}
				log.Info().Str("session_id", g.sessionID).Str("path", path).Str("order_id", order.OrderID).Msg("order placed")
				g.deliver(ctx, "order", order)
				return fmt.Sprintf("Your order %s is placed: %d items, total %s. Thank you for shopping with us!",
					order.OrderID, len(order.Items), rupees(order.Total)), nil
			},
		},
	}
}

func describeCart(v grocery.View) string {
	if len(v.Lines) == 0 {
		return "Your cart is empty."
	}
	parts := make([]string, 0, len(v.Lines))
	for _, l := range v.Lines {
		parts = append(parts, fmt.Sprintf("%d %s at %s", l.Quantity, l.Item.Name, rupees(l.Subtotal)))
	}
	return fmt.Sprintf("You have %s. Total %s.", strings.Join(parts, ", "), rupees(v.Total))
}

func cartError(err error, item string) error {
	switch {
	case errors.Is(err, contractx.ErrEmptyCart):
		return say(err, "Your cart is empty, so there is nothing to order yet.")
	case errors.Is(err, contractx.ErrInvalidArgument):
		return say(err, "The quantity needs to be between 1 and %d per item.", grocery.MaxQuantity)
	case errors.Is(err, contractx.ErrNotFound):
		return say(err, "Sorry, I couldn't find %s.", item)
	case errors.Is(err, contractx.ErrPersist):
		return say(err, "Sorry, I couldn't place the order just now. Your cart is still saved.")
	default:
		return err
	}
}
