package simple

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"sudooom.tablegame/internal/card"
)

//go:embed cards.yaml
var defaultTable []byte

// Entry 权重表中的一项
type Entry struct {
	Kind   string `yaml:"kind"`
	Power  int    `yaml:"power,omitempty"`
	Weight int    `yaml:"weight"`
}

// Table 发牌权重表
type Table struct {
	Cards []Entry `yaml:"cards"`
}

// LoadTable 读取权重表，path 为空时使用内置表
func LoadTable(path string) (*Table, error) {
	if path == "" {
		return ParseTable(defaultTable)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read card table: %w", err)
	}
	return ParseTable(b)
}

// ParseTable 解析权重表
func ParseTable(b []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(b, &t); err != nil {
		return nil, fmt.Errorf("parse card table: %w", err)
	}
	if len(t.Cards) == 0 {
		return nil, card.ErrNoCards
	}
	for _, e := range t.Cards {
		if _, err := e.factory(); err != nil {
			return nil, err
		}
	}
	return &t, nil
}

// Register 将权重表注册到发牌器
func (t *Table) Register(d *card.UnlimitedDealer[Card]) error {
	for _, e := range t.Cards {
		f, err := e.factory()
		if err != nil {
			return err
		}
		if err := d.RegisterCard(f, e.Weight); err != nil {
			return fmt.Errorf("register %s: %w", e.Kind, err)
		}
	}
	return nil
}

func (e Entry) factory() (card.Factory[Card], error) {
	switch e.Kind {
	case "attack":
		if e.Power <= 0 {
			return nil, fmt.Errorf("%w: attack power %d", ErrInvalidTable, e.Power)
		}
		power := e.Power
		return func() Card { return NewAttack(power) }, nil
	case "shield":
		return func() Card { return &Shield{} }, nil
	case "angel":
		return func() Card { return &Angel{} }, nil
	case "devil":
		return func() Card { return &Devil{} }, nil
	case "clean":
		return func() Card { return &Clean{} }, nil
	case "peep":
		return func() Card { return &Peep{} }, nil
	case "clear":
		return func() Card { return &Clear{} }, nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidTable, e.Kind)
	}
}
