package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/boddenberg/fintrack-bfa-go/internal/aggregate"
	"github.com/boddenberg/fintrack-bfa-go/internal/domain"

	"gopkg.in/yaml.v3"
)

// Aliases maps raw category names to the name they are reported under.
// Matching is case-insensitive and ignores surrounding whitespace.
type Aliases struct {
	Categories map[string]string `yaml:"aliases"`

	normalized map[string]string
}

// LoadAliases reads an alias file of the form
//
//	aliases:
//	  Groceries: Food
//	  Restaurants: Food
func LoadAliases(path string) (*Aliases, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading aliases file: %w", err)
	}
	return ParseAliases(data)
}

// ParseAliases decodes alias YAML.
func ParseAliases(data []byte) (*Aliases, error) {
	var a Aliases
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parsing aliases file: %w", err)
	}
	a.normalized = make(map[string]string, len(a.Categories))
	for from, to := range a.Categories {
		to = strings.TrimSpace(to)
		if to == "" {
			return nil, fmt.Errorf("alias for %q is empty", from)
		}
		a.normalized[normalize(from)] = to
	}
	return &a, nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Resolve returns the reported name for category. Unknown names pass
// through unchanged.
func (a *Aliases) Resolve(category string) string {
	if a == nil {
		return category
	}
	if to, ok := a.normalized[normalize(category)]; ok {
		return to
	}
	return category
}

// CategoryKey groups transactions by aliased category.
func (a *Aliases) CategoryKey() func(domain.Transaction) string {
	return func(tx domain.Transaction) string {
		return a.Resolve(aggregate.ByCategory(tx))
	}
}

// Apply returns copies of txs with aliased categories.
func (a *Aliases) Apply(txs []domain.Transaction) []domain.Transaction {
	if a == nil {
		return txs
	}
	out := make([]domain.Transaction, len(txs))
	for i, tx := range txs {
		tx.Category = a.Resolve(tx.Category)
		out[i] = tx
	}
	return out
}
