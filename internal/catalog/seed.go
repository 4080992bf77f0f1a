package catalog

import (
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/tradeforge/stratgen/internal/model"
)

// LoadSeedFile merges templates from a YAML file into the catalog as
// additional built-ins. Entries may use legacy or canonical field names.
// Entries without a name are skipped with a warning rather than failing the
// whole load.
func (c *Catalog) LoadSeedFile(path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, eris.Wrapf(err, "catalog: read seed file %s", path)
	}

	var entries []map[string]any
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return 0, eris.Wrapf(err, "catalog: parse seed file %s", path)
	}

	loaded := 0
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, entry := range entries {
		t, err := model.TemplateFromMap(entry)
		if err != nil {
			zap.L().Warn("catalog: skipping seed template",
				zap.String("file", path),
				zap.Int("index", i),
				zap.Error(err),
			)
			continue
		}
		if t.ID == "" {
			t.ID = "seed-" + slugify(t.Name)
		}
		t.Builtin = true
		c.put(t)
		loaded++
	}

	return loaded, nil
}

func slugify(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			out = append(out, r)
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		case r == ' ' || r == '-' || r == '_':
			out = append(out, '-')
		}
	}
	return string(out)
}
