package insights

import (
	"fmt"
	"strings"

	"github.com/shopsight/shopsight/internal/product"
)

const systemPrompt = "You are a helpful e-commerce assistant. Answer questions " +
	"about products using the provided context. Be concise and factual."

// ProductContext renders one product as a context block for the model.
func ProductContext(p product.Product) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Product: %s\n", p.Name)
	fmt.Fprintf(&b, "Price: $%.2f\n", p.Price)
	fmt.Fprintf(&b, "Rating: %.1f/5\n", p.Rating)
	if p.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", p.Description)
	}
	return b.String()
}

// CatalogContext renders up to five products as a catalog summary
// context block.
func CatalogContext(products []product.Product) string {
	if len(products) == 0 {
		return ""
	}
	if len(products) > 5 {
		products = products[:5]
	}
	var b strings.Builder
	b.WriteString("Here are some products from the catalog:\n")
	for i, p := range products {
		fmt.Fprintf(&b, "%d. %s ($%.2f, rated %.1f/5)\n", i+1, p.Name, p.Price, p.Rating)
	}
	return b.String()
}
