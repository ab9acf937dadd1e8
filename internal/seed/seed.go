package seed

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	catalogdomain "github.com/smallbiznis/affinity/internal/catalog/domain"
)

// Params controls the size and shape of the generated catalog.
type Params struct {
	Products int
	Orders   int
	DaysBack int
	Seed     int64
}

func (p Params) withDefaults() Params {
	if p.Products <= 0 {
		p.Products = 200
	}
	if p.Orders <= 0 {
		p.Orders = 5000
	}
	if p.DaysBack <= 0 {
		p.DaysBack = 365
	}
	if p.Seed == 0 {
		p.Seed = 42
	}
	return p
}

var rootCategories = []string{"Electronics", "Home", "Grocery", "Sports", "Beauty"}

var brands = []string{"Acme", "Borealis", "Cirrus", "Generic", "Northwind", "Generic", ""}

var statuses = []catalogdomain.OrderStatus{
	catalogdomain.OrderStatusConfirmed,
	catalogdomain.OrderStatusShipped,
	catalogdomain.OrderStatusDelivered,
	catalogdomain.OrderStatusDelivered,
	catalogdomain.OrderStatusPending,
	catalogdomain.OrderStatusCancelled,
}

// Run fills an empty database with a synthetic catalog and order history
// spread over the configured time range. It refuses to run when orders
// already exist so repeated invocations stay idempotent.
func Run(ctx context.Context, db *gorm.DB, log *zap.Logger, params Params) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	params = params.withDefaults()
	rng := rand.New(rand.NewSource(params.Seed))
	now := time.Now().UTC()

	var existing int64
	if err := db.WithContext(ctx).Model(&catalogdomain.Order{}).Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		return fmt.Errorf("database already holds %d orders, refusing to seed", existing)
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		categories := buildCategories()
		if err := tx.CreateInBatches(categories, 100).Error; err != nil {
			return err
		}
		leaves := make([]catalogdomain.Category, 0, len(categories))
		for _, c := range categories {
			if c.ParentID != nil {
				leaves = append(leaves, c)
			}
		}

		products := buildProducts(rng, params.Products, leaves)
		if err := tx.CreateInBatches(products, 200).Error; err != nil {
			return err
		}

		orders, items := buildOrders(rng, params, products, now)
		if err := tx.CreateInBatches(orders, 500).Error; err != nil {
			return err
		}
		if err := tx.CreateInBatches(items, 500).Error; err != nil {
			return err
		}

		log.Info("seeded synthetic catalog",
			zap.Int("categories", len(categories)),
			zap.Int("products", len(products)),
			zap.Int("orders", len(orders)),
			zap.Int("line_items", len(items)),
		)
		return nil
	})
}

func buildCategories() []catalogdomain.Category {
	categories := make([]catalogdomain.Category, 0, len(rootCategories)*4)
	var id int64
	for _, root := range rootCategories {
		id++
		rootID := id
		categories = append(categories, catalogdomain.Category{ID: rootID, Name: root})
		for i := 1; i <= 3; i++ {
			id++
			parent := rootID
			categories = append(categories, catalogdomain.Category{
				ID:       id,
				ParentID: &parent,
				Name:     fmt.Sprintf("%s %d", root, i),
			})
		}
	}
	return categories
}

func buildProducts(rng *rand.Rand, count int, leaves []catalogdomain.Category) []catalogdomain.Product {
	products := make([]catalogdomain.Product, 0, count)
	for i := 1; i <= count; i++ {
		leaf := leaves[rng.Intn(len(leaves))]
		product := catalogdomain.Product{
			ID:         int64(i),
			Name:       fmt.Sprintf("Product %04d", i),
			CategoryID: leaf.ID,
			Active:     rng.Float64() > 0.05,
		}
		if brand := brands[rng.Intn(len(brands))]; brand != "" {
			product.Brand = &brand
		}
		products = append(products, product)
	}
	return products
}

func buildOrders(rng *rand.Rand, params Params, products []catalogdomain.Product, now time.Time) ([]catalogdomain.Order, []catalogdomain.OrderItem) {
	orders := make([]catalogdomain.Order, 0, params.Orders)
	items := make([]catalogdomain.OrderItem, 0, params.Orders*3)
	var itemID int64
	for i := 1; i <= params.Orders; i++ {
		placedAt := now.AddDate(0, 0, -rng.Intn(params.DaysBack)).
			Add(-time.Duration(rng.Intn(24)) * time.Hour)
		orders = append(orders, catalogdomain.Order{
			ID:       int64(i),
			PlacedAt: placedAt,
			Status:   statuses[rng.Intn(len(statuses))],
		})

		// 1-5 distinct products per order, biased toward small baskets.
		size := 1 + rng.Intn(5)
		seen := make(map[int64]bool, size)
		for j := 0; j < size; j++ {
			product := products[rng.Intn(len(products))]
			if seen[product.ID] {
				continue
			}
			seen[product.ID] = true
			itemID++
			items = append(items, catalogdomain.OrderItem{
				ID:        itemID,
				OrderID:   int64(i),
				ProductID: product.ID,
				Quantity:  1 + rng.Intn(3),
			})
		}
	}
	return orders, items
}
