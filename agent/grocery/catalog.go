// Package grocery holds the ordering assistant: product catalog, recipes, the
// per-call cart and order placement.
package grocery

import (
	"sort"
	"strings"

	"github.com/tanpawarit/Chative-Voice-Agents/agent/match"
	"github.com/tanpawarit/Chative-Voice-Agents/agent/record"
)

const catalogSchema = `{
  "type": "object",
  "required": ["items"],
  "properties": {
    "items": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "name", "price"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "name": {"type": "string", "minLength": 1},
          "price": {"type": "number", "minimum": 0}
        }
      }
    },
    "recipes": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "required": ["items"],
        "properties": {
          "items": {"type": "array", "items": {"type": "string"}},
          "description": {"type": "string"}
        }
      }
    }
  }
}`

type Item struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type Recipe struct {
	Items       []string `json:"items"`
	Description string   `json:"description,omitempty"`
}

type Catalog struct {
	Items   []Item            `json:"items"`
	Recipes map[string]Recipe `json:"recipes,omitempty"`
}

// LoadCatalog reads the catalog file. A missing or invalid file gives an empty
// catalog in which every lookup misses.
func LoadCatalog(path string) *Catalog {
	schema := record.MustCompileSchema("catalog.schema.json", catalogSchema)
	c := record.Load[Catalog](path, schema)
	return &c
}

func (c *Catalog) Item(id string) (Item, bool) {
	for _, it := range c.Items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// FindItem resolves a spoken product reference by display name, then by id.
func (c *Catalog) FindItem(query string) (Item, bool) {
	if hit, ok := match.Find(query, c.Items, func(it Item) string { return it.Name }, match.Catalog); ok {
		return hit.Record, true
	}
	if hit, ok := match.Find(query, c.Items, func(it Item) string { return it.ID }, match.Catalog); ok {
		return hit.Record, true
	}
	return Item{}, false
}

// FindRecipe resolves a dish name. Recipes are tried in name order.
func (c *Catalog) FindRecipe(query string) (string, Recipe, bool) {
	names := make([]string, 0, len(c.Recipes))
	for name := range c.Recipes {
		names = append(names, name)
	}
	sort.Strings(names)

	hit, ok := match.Find(query, names, func(n string) string { return n }, match.Catalog)
	if !ok {
		return "", Recipe{}, false
	}
	return hit.Record, c.Recipes[hit.Record], true
}

// Search lists catalog items whose name or id contains query.
func (c *Catalog) Search(query string) []Item {
	q := match.Lower(query)
	if q == "" {
		return nil
	}
	var out []Item
	for _, it := range c.Items {
		if strings.Contains(match.Lower(it.Name), q) || strings.Contains(match.Lower(it.ID), q) {
			out = append(out, it)
		}
	}
	return out
}
