package asset

import (
	"github.com/BurntSushi/toml"
	"go.uber.org/zap"

	"github.com/feacur/customengine/internal/core/ecs"
)

// Config is a TOML document loaded as an asset, for tunables that should
// hot reload.
type Config struct {
	Values map[string]any
}

func RegisterConfig(s *Store) *Type[Config] {
	return RegisterType(s, TypeConfig, Hooks[Config]{
		Load: func(s *Store, ref ecs.Ref, resource string, v *Config) {
			v.Values = map[string]any{}
			data := s.ReadFile(resource)
			if len(data) == 0 {
				return
			}
			if err := toml.Unmarshal(data, &v.Values); err != nil {
				s.log.Error("config parse failed", zap.String("resource", resource), zap.Error(err))
				v.Values = map[string]any{}
			}
		},
	})
}

// lookup walks dotted keys through nested tables.
func (c *Config) lookup(key string) (any, bool) {
	var cur any = c.Values
	start := 0
	for i := 0; i <= len(key); i++ {
		if i < len(key) && key[i] != '.' {
			continue
		}
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[key[start:i]]
		if !ok {
			return nil, false
		}
		start = i + 1
	}
	return cur, true
}

func (c *Config) GetString(key, def string) string {
	if v, ok := c.lookup(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

func (c *Config) GetInt(key string, def int64) int64 {
	if v, ok := c.lookup(key); ok {
		if n, ok := v.(int64); ok {
			return n
		}
	}
	return def
}

func (c *Config) GetFloat(key string, def float64) float64 {
	if v, ok := c.lookup(key); ok {
		switch n := v.(type) {
		case float64:
			return n
		case int64:
			return float64(n)
		}
	}
	return def
}

func (c *Config) GetBool(key string, def bool) bool {
	if v, ok := c.lookup(key); ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}
