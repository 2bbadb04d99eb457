// Command seed-db loads a small demo dataset: suppliers, foods, a test user
// with an address, and a couple of discount codes. It is idempotent; rows are
// upserted by their natural keys.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saeedNW/snappfood-go/internal/repository"
)

const (
	upsertSupplierSQL = `
INSERT INTO suppliers (id, store_name, city)
VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET store_name = EXCLUDED.store_name, city = EXCLUDED.city`

	upsertFoodSQL = `
INSERT INTO foods (id, name, description, price, discount, is_active, supplier_id)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name,
	description = EXCLUDED.description,
	price = EXCLUDED.price,
	discount = EXCLUDED.discount,
	is_active = EXCLUDED.is_active,
	supplier_id = EXCLUDED.supplier_id`

	upsertUserSQL = `
INSERT INTO users (id, mobile, email)
VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET mobile = EXCLUDED.mobile, email = EXCLUDED.email`

	upsertAddressSQL = `
INSERT INTO addresses (id, user_id, title, province, city, detail)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, province = EXCLUDED.province, city = EXCLUDED.city, detail = EXCLUDED.detail`

	upsertDiscountSQL = `
INSERT INTO discounts (id, code, percent, amount, "limit", usage, supplier_id, active)
VALUES ($1, $2, $3, $4, $5, 0, $6, TRUE)
ON CONFLICT (code) DO NOTHING`
)

type supplierRow struct {
	id, name, city string
}

type foodRow struct {
	id, name, description string
	price                 string
	discount              string
	active                bool
	supplierID            string
}

var suppliers = []supplierRow{
	{"sup-golden-grill", "Golden Grill", "Tehran"},
	{"sup-pizza-dar", "Pizza Dar", "Tehran"},
}

var foods = []foodRow{
	{"food-koobideh", "Koobideh Kebab", "Two skewers with rice", "185000", "0", true, "sup-golden-grill"},
	{"food-joojeh", "Joojeh Kebab", "Saffron chicken skewer", "165000", "10", true, "sup-golden-grill"},
	{"food-margherita", "Margherita", "Classic tomato and mozzarella", "210000", "0", true, "sup-pizza-dar"},
	{"food-pepperoni", "Pepperoni", "Double pepperoni, extra cheese", "245000", "15", true, "sup-pizza-dar"},
	{"food-seasonal", "Seasonal Special", "Rotating dish, currently off menu", "150000", "20", false, "sup-golden-grill"},
}

func main() {
	var databaseURL string
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedCatalog(ctx, pool); err != nil {
		return errors.Wrap(err, "seed catalog")
	}
	if err := seedUsers(ctx, pool); err != nil {
		return errors.Wrap(err, "seed users")
	}
	if err := seedDiscounts(ctx, pool); err != nil {
		return errors.Wrap(err, "seed discounts")
	}

	return nil
}

func seedCatalog(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("upserting suppliers", slog.Int("count", len(suppliers)))

	for _, s := range suppliers {
		if _, err := pool.Exec(ctx, upsertSupplierSQL, s.id, s.name, s.city); err != nil {
			return errors.Wrapf(err, "upsert supplier %s", s.id)
		}
	}

	slog.Info("upserting foods", slog.Int("count", len(foods)))

	for _, f := range foods {
		if _, err := pool.Exec(ctx, upsertFoodSQL,
			f.id, f.name, f.description, f.price, f.discount, f.active, f.supplierID,
		); err != nil {
			return errors.Wrapf(err, "upsert food %s", f.id)
		}
	}

	return nil
}

func seedUsers(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("upserting demo user")

	if _, err := pool.Exec(ctx, upsertUserSQL,
		"user-demo", "09120000000", "demo@example.com",
	); err != nil {
		return errors.Wrap(err, "upsert user")
	}

	if _, err := pool.Exec(ctx, upsertAddressSQL,
		"addr-demo-home", "user-demo", "Home", "Tehran", "Tehran", "12 Valiasr St",
	); err != nil {
		return errors.Wrap(err, "upsert address")
	}

	return nil
}

func seedDiscounts(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding discount codes")

	rows := []struct {
		id, code   string
		percent    *string
		amount     *string
		limit      *int
		supplierID *string
	}{
		{id: "disc-welcome", code: "WELCOME10", percent: ptr("10"), limit: ptrInt(1000)},
		{id: "disc-grill", code: "GRILL20", percent: ptr("20"), supplierID: ptr("sup-golden-grill")},
		{id: "disc-flat", code: "FLAT50K", amount: ptr("50000"), limit: ptrInt(100)},
	}

	for _, r := range rows {
		if _, err := pool.Exec(ctx, upsertDiscountSQL,
			r.id, r.code, r.percent, r.amount, r.limit, r.supplierID,
		); err != nil {
			return errors.Wrapf(err, "seed discount %s", r.code)
		}
		slog.Info("seeded discount", slog.String("code", r.code))
	}

	return nil
}

func ptr(s string) *string { return &s }
func ptrInt(n int) *int    { return &n }
