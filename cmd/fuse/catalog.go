package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/bryanwahyu/skinlens/internal/config"
	"github.com/bryanwahyu/skinlens/internal/domain/catalog"
	"github.com/bryanwahyu/skinlens/internal/infra/db"
)

// productRecord is one entry of a catalog import file.
type productRecord struct {
	ID        string   `yaml:"id"`
	Name      string   `yaml:"name"`
	Brand     string   `yaml:"brand"`
	Price     float64  `yaml:"price"`
	Currency  string   `yaml:"currency"`
	HeroImage string   `yaml:"hero_image"`
	Concerns  []string `yaml:"concerns"`
	SkinTypes []string `yaml:"skin_types"`
}

var (
	fileFlag = &cli.StringFlag{
		Name:     "file",
		Usage:    "YAML or JSON list of products",
		Required: true,
	}

	tenantFlag = &cli.StringFlag{
		Name:     "tenant",
		Usage:    "Tenant the products belong to",
		Required: true,
	}

	dryRunFlag = &cli.BoolFlag{
		Name:  "dry-run",
		Usage: "Validate the file without touching the database",
	}

	catalogCmd = &cli.Command{
		Name:  "catalog",
		Usage: "Manage the product catalog used for recommendations",
		Subcommands: []*cli.Command{
			{
				Name:  "import",
				Usage: "Upsert products from a file into the configured database",
				Flags: []cli.Flag{fileFlag, tenantFlag, dryRunFlag},
				Action: func(c *cli.Context) error {
					products, err := readProducts(c.String(fileFlag.Name), c.String(tenantFlag.Name))
					if err != nil {
						return cli.Exit(err.Error(), 2)
					}
					if c.Bool(dryRunFlag.Name) {
						fmt.Fprintf(c.App.Writer, "%d products valid\n", len(products))
						return nil
					}

					path := c.String(configFlag.Name)
					if path == "" {
						return cli.Exit("--config is required to import into a database", 2)
					}
					cfg, err := config.Load(path)
					if err != nil {
						return fmt.Errorf("load config: %w", err)
					}
					dsn := cfg.DSN()
					if dsn == "" {
						return cli.Exit("config has no database host", 2)
					}
					conn, err := db.Connect(c.Context, cfg.Database.Driver, dsn)
					if err != nil {
						return fmt.Errorf("%s connect: %w", cfg.Database.Driver, err)
					}
					defer conn.Close()

					_, repo := db.Repositories(cfg.Database.Driver, conn)
					n, err := importProducts(c.Context, repo, products)
					fmt.Fprintf(c.App.Writer, "%d products imported\n", n)
					return err
				},
			},
		},
	}
)

func readProducts(path, tenant string) ([]*catalog.Product, error) {
	tenant = strings.TrimSpace(tenant)
	if tenant == "" {
		return nil, fmt.Errorf("tenant is required")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var recs []productRecord
	if err := yaml.Unmarshal(b, &recs); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	out := make([]*catalog.Product, 0, len(recs))
	seen := map[string]bool{}
	for i, r := range recs {
		id := strings.TrimSpace(r.ID)
		switch {
		case id == "":
			return nil, fmt.Errorf("product %d: id is required", i)
		case strings.TrimSpace(r.Name) == "":
			return nil, fmt.Errorf("product %s: name is required", id)
		case r.Price < 0:
			return nil, fmt.Errorf("product %s: negative price", id)
		case seen[id]:
			return nil, fmt.Errorf("product %s: duplicate id", id)
		}
		seen[id] = true

		currency := strings.ToUpper(strings.TrimSpace(r.Currency))
		if currency == "" {
			currency = "IDR"
		}
		out = append(out, &catalog.Product{
			ID:        catalog.ProductID(id),
			TenantID:  tenant,
			Name:      strings.TrimSpace(r.Name),
			Brand:     strings.TrimSpace(r.Brand),
			Price:     r.Price,
			Currency:  currency,
			HeroImage: strings.TrimSpace(r.HeroImage),
			Concerns:  r.Concerns,
			SkinTypes: r.SkinTypes,
		})
	}
	return out, nil
}

// importProducts stops at the first failed write and reports how many rows were written before it.
func importProducts(ctx context.Context, w catalog.Writer, products []*catalog.Product) (int, error) {
	for i, p := range products {
		if err := w.Upsert(ctx, p); err != nil {
			return i, fmt.Errorf("upsert %s: %w", p.ID, err)
		}
	}
	return len(products), nil
}
