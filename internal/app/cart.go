package app

import (
	"context"
	"fmt"

	"github.com/mmeshcher/storefront/internal/cart"
)

func (a *App) cartCommand(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.printCart()
		return nil
	}

	action := args[0]
	if action == "clear" {
		a.cart.Clear()
		a.printf("Cart cleared.\n")
		return nil
	}
	if len(args) != 2 {
		return fmt.Errorf("%w: cart %s <id>", ErrUsage, action)
	}
	id := args[1]

	switch action {
	case "add":
		p, err := a.svc.GetProduct(ctx, id)
		if err != nil {
			return err
		}
		a.cart.Add(p)
		a.printf("Added %s (x%d).\n", p.Name, a.cart.Quantity(p.ID))
	case "inc", "dec":
		delta := 1
		if action == "dec" {
			delta = -1
		}
		if !a.cart.UpdateQuantity(id, delta) {
			return fmt.Errorf("%w: product %s is not in the cart", ErrUsage, id)
		}
		a.printCart()
	case "rm":
		if !a.cart.Remove(id) {
			return fmt.Errorf("%w: product %s is not in the cart", ErrUsage, id)
		}
		a.printCart()
	default:
		return fmt.Errorf("%w: unknown cart action %q", ErrUsage, action)
	}
	return nil
}

func (a *App) printCart() {
	items := a.cart.Items()
	if len(items) == 0 {
		a.printf("Cart is empty.\n")
		return
	}
	for _, e := range items {
		a.printf("%s  %s  x%d  %s₮\n", e.Product.ID, e.Product.Name, e.Quantity, cart.FormatMNT(e.Subtotal()))
	}
	a.printf("Total: %s₮\n", cart.FormatMNT(a.cart.Total()))
}
