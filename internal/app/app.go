// Package app реализует команды витрины для командной строки: авторизацию, каталог, корзину и заказы.
package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/storefront/internal/api"
	"github.com/mmeshcher/storefront/internal/cart"
	"github.com/mmeshcher/storefront/internal/model"
	"github.com/mmeshcher/storefront/internal/storefront"
)

// ErrUsage возвращается при неизвестной команде или неверных аргументах.
var ErrUsage = errors.New("usage error")

const networkHint = "Check your network connection or the API_URL setting."

// App выполняет команды над сервисом витрины и корзиной текущего сеанса.
type App struct {
	svc       *storefront.Service
	cart      *cart.Cart
	out       io.Writer
	imageBase string
	logger    *zap.Logger
}

// New создаёт приложение. imageBase задаёт базовый адрес API, от которого строятся ссылки на изображения.
func New(svc *storefront.Service, c *cart.Cart, out io.Writer, imageBase string, logger *zap.Logger) *App {
	if c == nil {
		c = cart.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{
		svc:       svc,
		cart:      c,
		out:       out,
		imageBase: imageBase,
		logger:    logger,
	}
}

// Run выполняет одну команду. Ошибка выводится пользователю и возвращается вызывающему.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.help()
		return nil
	}

	cmd, rest := args[0], args[1:]
	a.logger.Debug("command", zap.String("name", cmd), zap.Int("args", len(rest)))

	var err error
	switch cmd {
	case "help":
		a.help()
	case "categories":
		a.categories()
	case "login":
		err = a.login(ctx, rest)
	case "register":
		err = a.register(ctx, rest)
	case "logout":
		a.svc.Logout()
		a.printf("Signed out.\n")
	case "profile":
		err = a.profile(ctx)
	case "products":
		err = a.products(ctx, rest)
	case "product":
		err = a.product(ctx, rest)
	case "order-product":
		err = a.orderProduct(ctx, rest)
	case "orders":
		err = a.orders(ctx)
	case "order":
		err = a.order(ctx, rest)
	case "cart":
		err = a.cartCommand(ctx, rest)
	case "home":
		err = a.home(ctx)
	default:
		err = fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
	}

	var reported reportedError
	if err != nil && !errors.As(err, &reported) {
		a.report(err)
	}
	return err
}

// reportedError помечает ошибку, уже выведенную пользователю.
type reportedError struct {
	error
}

func (e reportedError) Unwrap() error {
	return e.error
}

// Shell читает команды построчно до конца ввода или команды exit.
func (a *App) Shell(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	a.printf("> ")
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		args := strings.Fields(scanner.Text())
		if len(args) == 1 && (args[0] == "exit" || args[0] == "quit") {
			return nil
		}
		if len(args) > 0 {
			_ = a.Run(ctx, args)
		}
		a.printf("> ")
	}
	return scanner.Err()
}

func (a *App) report(err error) {
	if apiErr, ok := api.AsError(err); ok {
		a.printf("Error: %s\n", apiErr.Message)
		if apiErr.Status == 0 && apiErr.Kind == api.KindNetwork {
			a.printf("%s\n", networkHint)
		}
		return
	}
	a.printf("Error: %v\n", err)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) help() {
	a.printf(`Commands:
  login <phone> <password>
  register <phone> <password> <confirm> [name]
  logout
  profile
  categories
  products [category]
  product <id>
  order-product <id> <name> <phone> [quantity] [note]
  orders
  order <tracking-number> [note]
  cart
  cart add|inc|dec|rm <id>
  cart clear
  home
  help
`)
}

func (a *App) categories() {
	for _, c := range model.Categories {
		a.printf("%s\n", c)
	}
}

func (a *App) login(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: login <phone> <password>", ErrUsage)
	}

	auth, err := a.svc.Login(ctx, storefront.Credentials{Phone: args[0], Password: args[1]})
	if err != nil {
		return err
	}
	a.printf("Signed in as %s.\n", displayName(auth))
	return nil
}

func (a *App) register(ctx context.Context, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("%w: register <phone> <password> <confirm> [name]", ErrUsage)
	}

	auth, err := a.svc.Register(ctx, storefront.Credentials{
		Phone:    args[0],
		Password: args[1],
		Confirm:  args[2],
		Name:     strings.Join(args[3:], " "),
	})
	if err != nil {
		return err
	}
	a.printf("Registered and signed in as %s.\n", displayName(auth))
	return nil
}

func displayName(auth model.AuthSession) string {
	if auth.User == nil {
		return "new user"
	}
	return auth.User.DisplayName()
}

func (a *App) profile(ctx context.Context) error {
	u, err := a.svc.Profile(ctx)
	if err != nil {
		return err
	}

	a.printf("%s\n", u.DisplayName())
	a.printf("  phone: %s\n", u.Phone)
	if u.Email != nil {
		a.printf("  email: %s\n", *u.Email)
	}
	if u.Role != nil {
		a.printf("  role: %s\n", *u.Role)
	}
	return nil
}

func (a *App) products(ctx context.Context, args []string) error {
	var category *model.Category
	if len(args) > 0 {
		c, ok := model.LookupCategory(strings.Join(args, " "))
		if !ok {
			return fmt.Errorf("%w: unknown category %q", ErrUsage, strings.Join(args, " "))
		}
		category = &c
	}

	products, err := a.svc.ListProducts(ctx, category)
	if err != nil {
		return err
	}
	a.printProducts(products)
	return nil
}

func (a *App) printProducts(products []model.Product) {
	if len(products) == 0 {
		a.printf("No products.\n")
		return
	}
	for _, p := range products {
		a.printf("%s  %s  %s₮  [%s]\n", p.ID, p.Name, formatPrice(p.Price), p.Category)
	}
}

func (a *App) product(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: product <id>", ErrUsage)
	}

	p, err := a.svc.GetProduct(ctx, args[0])
	if err != nil {
		return err
	}

	a.printf("%s\n", p.Name)
	a.printf("  price: %s₮\n", formatPrice(p.Price))
	a.printf("  category: %s\n", p.Category)
	if p.Description != nil && *p.Description != "" {
		a.printf("  %s\n", *p.Description)
	}
	if p.Image != nil {
		if link := api.ImageURL(a.imageBase, *p.Image); link != "" {
			a.printf("  image: %s\n", link)
		}
	}
	if q := a.cart.Quantity(p.ID); q > 0 {
		a.printf("  in cart: %d\n", q)
	}
	return nil
}

func (a *App) orderProduct(ctx context.Context, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("%w: order-product <id> <name> <phone> [quantity] [note]", ErrUsage)
	}

	form := storefront.ProductOrderForm{
		CustomerName: args[1],
		Phone:        args[2],
		Quantity:     1,
	}
	if len(args) > 3 {
		q, err := strconv.Atoi(args[3])
		if err != nil {
			return fmt.Errorf("%w: quantity must be a number", ErrUsage)
		}
		form.Quantity = q
		form.Note = strings.Join(args[4:], " ")
	}

	receipt, err := a.svc.CreateProductOrder(ctx, args[0], form)
	if err != nil {
		return err
	}
	a.printf("Order #%s placed.\n", receipt.ShortID())
	return nil
}

func (a *App) orders(ctx context.Context) error {
	orders, err := a.svc.ListOrders(ctx)
	if err != nil {
		return err
	}
	a.printOrders(orders)
	return nil
}

func (a *App) printOrders(orders []model.Order) {
	if len(orders) == 0 {
		a.printf("No orders.\n")
		return
	}
	for _, o := range orders {
		line := fmt.Sprintf("%s  %s  %s", o.TrackingNumber, o.Status, formatPrice(o.Price))
		if o.WeightKg > 0 {
			line += fmt.Sprintf("  %gkg", o.WeightKg)
		}
		if o.Note != nil && *o.Note != "" {
			line += "  " + *o.Note
		}
		a.printf("%s\n", line)
	}
}

func (a *App) order(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: order <tracking-number> [note]", ErrUsage)
	}

	o, err := a.svc.CreateOrder(ctx, storefront.OrderForm{
		TrackingNumber: args[0],
		Note:           strings.Join(args[1:], " "),
	})
	if err != nil {
		return err
	}
	a.printf("Order %s registered (%s).\n", o.TrackingNumber, o.Status)
	return nil
}

// home загружает каталог и заказы одновременно. Ошибка одной загрузки не прерывает другую.
func (a *App) home(ctx context.Context) error {
	var (
		g          errgroup.Group
		products   []model.Product
		orders     []model.Order
		errCatalog error
		errOrders  error
	)

	g.Go(func() error {
		products, errCatalog = a.svc.ListProducts(ctx, nil)
		return nil
	})
	authenticated := a.svc.Session().Authenticated()
	if authenticated {
		g.Go(func() error {
			orders, errOrders = a.svc.ListOrders(ctx)
			return nil
		})
	}
	_ = g.Wait()

	a.printf("Catalog:\n")
	if errCatalog != nil {
		a.report(errCatalog)
	} else {
		a.printProducts(products)
	}

	if authenticated {
		a.printf("Orders:\n")
		if errOrders != nil {
			a.report(errOrders)
		} else {
			a.printOrders(orders)
		}
	}

	a.printf("Cart: %d item(s), %s₮\n", a.cart.Count(), cart.FormatMNT(a.cart.Total()))

	if err := errors.Join(errCatalog, errOrders); err != nil {
		return reportedError{err}
	}
	return nil
}

func formatPrice(price float64) string {
	return cart.FormatMNT(decimal.NewFromFloat(price))
}
