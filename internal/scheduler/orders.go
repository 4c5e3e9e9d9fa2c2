package scheduler

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Order is a standing collection requirement run on a fixed cadence.
type Order struct {
	Name  string `yaml:"name"`
	Query string `yaml:"query"`
}

type ordersFile struct {
	Orders []Order `yaml:"orders"`
}

// DefaultOrders is the built-in watch list used when no orders file exists.
func DefaultOrders() []Order {
	return []Order{
		{
			Name:  "defense-modernization",
			Query: "Latest developments in India's defense modernization and military procurement",
		},
		{
			Name:  "technology-programs",
			Query: "Recent updates on India's strategic technology programs, space, and missile systems",
		},
		{
			Name:  "diplomatic-engagements",
			Query: "Current state of India's diplomatic engagements and regional security partnerships",
		},
	}
}

// LoadOrders reads standing orders from a YAML file. A missing file falls
// back to the built-in defaults; a malformed one is an error.
func LoadOrders(path string) ([]Order, error) {
	if path == "" {
		return DefaultOrders(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultOrders(), nil
		}
		return nil, eris.Wrap(err, "scheduler: read orders file")
	}

	var parsed ordersFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, eris.Wrap(err, "scheduler: parse orders file")
	}

	orders := make([]Order, 0, len(parsed.Orders))
	for _, o := range parsed.Orders {
		if o.Query == "" {
			continue
		}
		if o.Name == "" {
			o.Name = "unnamed-order"
		}
		orders = append(orders, o)
	}
	if len(orders) == 0 {
		return DefaultOrders(), nil
	}
	return orders, nil
}
