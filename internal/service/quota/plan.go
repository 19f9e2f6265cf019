package quota

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/sandevgo/lifecoach/internal/core"
)

const DefaultWindow = 2 * time.Hour

// DefaultPlans mirrors the hosted service: ten messages per two hours for free users.
func DefaultPlans() []core.Plan {
	return []core.Plan{
		{Name: "free", MessageLimit: 10, Window: DefaultWindow},
		{Name: "plus", MessageLimit: 50, Window: DefaultWindow},
		{Name: "unlimited", Unbounded: true, Window: DefaultWindow},
	}
}

// Catalog is immutable after construction.
type Catalog struct {
	plans     map[string]core.Plan
	ordered   []core.Plan
	strictest core.Plan
}

func NewCatalog(plans []core.Plan) (*Catalog, error) {
	if len(plans) == 0 {
		return nil, errors.New("plan catalog is empty")
	}

	c := &Catalog{plans: make(map[string]core.Plan, len(plans))}
	for _, p := range plans {
		if err := validatePlan(p); err != nil {
			return nil, err
		}
		key := strings.ToLower(p.Name)
		if _, dup := c.plans[key]; dup {
			return nil, fmt.Errorf("duplicate plan %q", p.Name)
		}
		c.plans[key] = p
		c.ordered = append(c.ordered, p)
	}

	c.strictest = slices.MinFunc(c.ordered, compareStrictness)
	return c, nil
}

func NewDefaultCatalog() *Catalog {
	c, _ := NewCatalog(DefaultPlans())
	return c
}

// Lookup resolves a tier name. Unknown or empty tiers get the most restrictive plan.
func (c *Catalog) Lookup(tier string) core.Plan {
	if p, ok := c.plans[strings.ToLower(strings.TrimSpace(tier))]; ok {
		return p
	}
	return c.strictest
}

func (c *Catalog) Plans() []core.Plan {
	return slices.Clone(c.ordered)
}

// compareStrictness orders plans from most to least restrictive: bounded before
// unbounded, then by admitted rate, then by the smaller absolute limit.
func compareStrictness(a, b core.Plan) int {
	switch {
	case a.Unbounded && !b.Unbounded:
		return 1
	case !a.Unbounded && b.Unbounded:
		return -1
	case a.Unbounded && b.Unbounded:
		return 0
	}

	if ra, rb := a.PerHour(), b.PerHour(); ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch {
	case a.MessageLimit < b.MessageLimit:
		return -1
	case a.MessageLimit > b.MessageLimit:
		return 1
	}
	return 0
}

func validatePlan(p core.Plan) error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("plan name is empty")
	}
	if p.Window <= 0 {
		return fmt.Errorf("plan %q: window must be positive", p.Name)
	}
	if !p.Unbounded && p.MessageLimit == 0 {
		return fmt.Errorf("plan %q: bounded plan needs message_limit > 0", p.Name)
	}
	return nil
}

type plansFileSchema struct {
	Plans []planSchema `toml:"plans"`
}

type planSchema struct {
	Name         string `toml:"name"`
	MessageLimit uint   `toml:"message_limit,omitempty"`
	Unlimited    bool   `toml:"unlimited,omitempty"`
	Window       string `toml:"window"`
}

// LoadCatalog reads a TOML plan file. An empty path or a missing file yields the defaults.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return NewDefaultCatalog(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDefaultCatalog(), nil
		}
		return nil, fmt.Errorf("read plans file: %w", err)
	}
	return ParseCatalog(data)
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var file plansFileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode plans file: %w", err)
	}

	plans := make([]core.Plan, 0, len(file.Plans))
	for _, entry := range file.Plans {
		window := DefaultWindow
		if entry.Window != "" {
			d, err := time.ParseDuration(entry.Window)
			if err != nil {
				return nil, fmt.Errorf("plan %q: invalid window %q: %w", entry.Name, entry.Window, err)
			}
			window = d
		}
		plans = append(plans, core.Plan{
			Name:         entry.Name,
			MessageLimit: entry.MessageLimit,
			Unbounded:    entry.Unlimited,
			Window:       window,
		})
	}
	return NewCatalog(plans)
}

// MarshalCatalog renders plans in the format ParseCatalog reads.
func MarshalCatalog(plans []core.Plan) ([]byte, error) {
	file := plansFileSchema{Plans: make([]planSchema, 0, len(plans))}
	for _, p := range plans {
		entry := planSchema{Name: p.Name, Unlimited: p.Unbounded, Window: p.Window.String()}
		if !p.Unbounded {
			entry.MessageLimit = p.MessageLimit
		}
		file.Plans = append(file.Plans, entry)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return nil, fmt.Errorf("encode plans file: %w", err)
	}
	return data, nil
}
