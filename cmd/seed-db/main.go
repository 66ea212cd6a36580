// Command seed-db prepares a fresh database for local development: schema,
// reference data, an admin account, and a handful of demo products.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/xenking/webstore-backoffice/internal/repository"
)

var referenceData = map[string][]string{
	"categories": {"Sneakers", "Boots", "Sandals", "Running", "Formal"},
	"brands":     {"Nike", "Adidas", "Puma", "New Balance", "Asics"},
	"genders":    {"Men", "Women", "Unisex", "Kids"},
	"colors":     {"Black", "White", "Red", "Blue", "Green", "Grey"},
	"sizes":      {"36", "37", "38", "39", "40", "41", "42", "43", "44", "45"},
}

type demoProduct struct {
	name     string
	price    string
	quantity int
}

var demoProducts = []demoProduct{
	{name: "Air Runner Classic", price: "129.90", quantity: 40},
	{name: "Trail Blazer Mid", price: "149.00", quantity: 25},
	{name: "Court Vision Low", price: "89.50", quantity: 60},
	{name: "Marathon Elite", price: "199.99", quantity: 15},
	{name: "Urban Walker", price: "74.90", quantity: 80},
}

func main() {
	var (
		databaseURL   string
		adminEmail    string
		adminPassword string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&adminEmail, "admin-email", "admin@example.com", "email for the seeded admin account")
	flag.StringVar(&adminPassword, "admin-password", "", "password for the seeded admin account (or STORE_SEED_ADMIN_PASSWORD env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if adminPassword == "" {
		adminPassword = os.Getenv("STORE_SEED_ADMIN_PASSWORD")
	}
	if adminPassword == "" {
		slog.Error("admin password is required: set --admin-password or STORE_SEED_ADMIN_PASSWORD")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, adminEmail, adminPassword); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, adminEmail, adminPassword string) error {
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

	if err := seedReferenceData(ctx, pool); err != nil {
		return errors.Wrap(err, "seed reference data")
	}
	if err := seedAdmin(ctx, pool, adminEmail, adminPassword); err != nil {
		return errors.Wrap(err, "seed admin user")
	}
	if err := seedProducts(ctx, pool); err != nil {
		return errors.Wrap(err, "seed products")
	}

	return nil
}

func seedReferenceData(ctx context.Context, pool *pgxpool.Pool) error {
	for table, names := range referenceData {
		for _, name := range names {
			_, err := pool.Exec(ctx,
				`INSERT INTO `+table+` (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name)
			if err != nil {
				return errors.Wrapf(err, "insert %s %q", table, name)
			}
		}
		slog.Info("seeded reference table", slog.String("table", table), slog.Int("rows", len(names)))
	}
	return nil
}

func seedAdmin(ctx context.Context, pool *pgxpool.Pool, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hash admin password")
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO users (id, username, email, password_hash, role_id, is_active)
		SELECT $1, 'admin', $2, $3, r.id, TRUE
		FROM roles r WHERE r.name = 'admin'
		ON CONFLICT (email) DO NOTHING`,
		uuid.New().String(), email, string(hash),
	)
	if err != nil {
		return errors.Wrap(err, "insert admin user")
	}

	slog.Info("seeded admin user", slog.String("email", email))
	return nil
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool) error {
	for _, p := range demoProducts {
		price, err := decimal.NewFromString(p.price)
		if err != nil {
			return errors.Wrapf(err, "parse price for %q", p.name)
		}

		var exists bool
		if err := pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM products WHERE name = $1)`, p.name,
		).Scan(&exists); err != nil {
			return errors.Wrapf(err, "check product %q", p.name)
		}
		if exists {
			continue
		}

		_, err = pool.Exec(ctx, `
			INSERT INTO products (id, name, description, price, quantity, is_active,
			                      category_id, brand_id, color_id, size_id, gender_id)
			VALUES ($1, $2, '', $3, $4, TRUE,
			        (SELECT id FROM categories ORDER BY id LIMIT 1),
			        (SELECT id FROM brands ORDER BY id LIMIT 1),
			        (SELECT id FROM colors ORDER BY id LIMIT 1),
			        (SELECT id FROM sizes ORDER BY id LIMIT 1),
			        (SELECT id FROM genders ORDER BY id LIMIT 1))`,
			uuid.New().String(), p.name, price, p.quantity,
		)
		if err != nil {
			return errors.Wrapf(err, "insert product %q", p.name)
		}

		slog.Info("seeded product", slog.String("name", p.name), slog.String("price", p.price))
	}
	return nil
}
