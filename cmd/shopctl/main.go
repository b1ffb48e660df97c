// Command shopctl inspects and manages storefront orders from a terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/tm-acme-shop/acme-shop-storefront/internal/auth"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/events"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/repository"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/service"
)

const usage = `usage: shopctl [flags] <command> [args]

commands:
  orders                   list all orders, newest first
  status <orderId> <status> move an order to Pending|Shipped|Delivered|Cancelled
  intents <intentId>       show a payment intent
`

func main() {
	timeout := flag.Duration("timeout", 30*time.Second, "overall command timeout")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	logger := logging.NewLogger("shopctl")
	defer logging.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	stores, err := repository.OpenStores(ctx, cfg.Database, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open stores: %v\n", err)
		os.Exit(1)
	}
	defer stores.Close()

	if err := run(ctx, cfg, stores, logger, flag.Args(), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "shopctl: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, stores *repository.Stores, logger *logging.Logger, args []string, out io.Writer) error {
	switch args[0] {
	case "orders":
		orders, err := stores.Orders.List(ctx, &models.OrderListFilter{})
		if err != nil {
			return err
		}
		return printOrders(out, orders)

	case "status":
		if len(args) != 3 {
			return fmt.Errorf("status needs <orderId> <status>")
		}
		orders := newOrderService(cfg, stores, logger)
		order, err := orders.UpdateOrderStatus(ctx, args[1], models.OrderStatus(args[2]))
		if err != nil {
			return err
		}
		return printOrders(out, []*models.Order{order})

	case "intents":
		if len(args) != 2 {
			return fmt.Errorf("intents needs <intentId>")
		}
		intent, err := stores.Intents.GetByID(ctx, args[1])
		if err != nil {
			return err
		}
		return printIntent(out, intent)

	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func newOrderService(cfg *config.Config, stores *repository.Stores, logger *logging.Logger) *service.OrderService {
	var cache repository.OrderCache = repository.NewMemoryOrderCache()
	if cfg.Features.EnableOrderCaching && stores.DB != nil {
		cache = repository.NewRedisOrderCache(cfg.Redis, logger)
	}

	var publisher service.OrderEventPublisher = events.NewLogPublisher(logger)
	if cfg.Features.EnableOrderEvents && len(cfg.Kafka.Brokers) > 0 && stores.DB != nil {
		publisher = events.NewKafkaPublisher(cfg.Kafka, logger)
	}

	return service.NewOrderService(
		stores.Orders,
		stores.Intents,
		stores.Users,
		stores.Products,
		cache,
		auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		publisher,
		cfg,
		logger,
	)
}

func printOrders(out io.Writer, orders []*models.Order) error {
	table := tablewriter.NewWriter(out)
	table.Header("Order ID", "User", "Payment", "Items", "Total", "Status", "Ordered")
	for _, o := range orders {
		items := 0
		for _, item := range o.Items {
			items += item.Quantity
		}
		if err := table.Append([]string{
			o.OrderID,
			o.UserID,
			o.PaymentID,
			strconv.Itoa(items),
			strconv.FormatFloat(o.TotalCost, 'f', 2, 64),
			string(o.Status),
			o.OrderDate.Format(time.RFC3339),
		}); err != nil {
			return err
		}
	}
	return table.Render()
}

func printIntent(out io.Writer, intent *models.PaymentIntent) error {
	table := tablewriter.NewWriter(out)
	table.Header("Field", "Value")
	rows := [][]string{
		{"intent", intent.IntentID},
		{"amount", strconv.FormatInt(intent.Amount, 10) + " " + intent.Currency},
		{"receipt", intent.Receipt},
		{"status", string(intent.Status)},
		{"payment", intent.PaymentID},
		{"created", intent.CreatedAt.Format(time.RFC3339)},
		{"updated", intent.UpdatedAt.Format(time.RFC3339)},
	}
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}
