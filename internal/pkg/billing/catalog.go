package billing

import "github.com/bonesy512/landhub/internal/pkg/config"

type ProductKind string

const (
	ProductOneTime ProductKind = "one_time"
	ProductMonthly ProductKind = "monthly"
)

// ProductConfig maps a provider price id to local product semantics.
type ProductConfig struct {
	Kind    ProductKind
	Credits int64
}

// Catalog is the immutable price-id → product mapping. The test or live
// table is selected exactly once at construction; the two are never mixed
// at runtime.
type Catalog struct {
	products map[string]ProductConfig
}

var testProducts = map[string]ProductConfig{
	"price_credits5_test":  {Kind: ProductOneTime, Credits: 5},
	"price_credits25_test": {Kind: ProductOneTime, Credits: 25},
	"price_monthly_test":   {Kind: ProductMonthly, Credits: 50},
}

var liveProducts = map[string]ProductConfig{
	"price_credits5_live":  {Kind: ProductOneTime, Credits: 5},
	"price_credits25_live": {Kind: ProductOneTime, Credits: 25},
	"price_monthly_live":   {Kind: ProductMonthly, Credits: 50},
}

// NewCatalog selects the catalog variant for the given billing mode.
func NewCatalog(mode string) *Catalog {
	if mode == config.ModeLive {
		return &Catalog{products: liveProducts}
	}
	return &Catalog{products: testProducts}
}

// Lookup resolves a price id. An unknown id is a recoverable business miss,
// never an error.
func (c *Catalog) Lookup(priceID string) (ProductConfig, bool) {
	cfg, ok := c.products[priceID]
	return cfg, ok
}
