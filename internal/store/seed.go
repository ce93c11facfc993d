package store

import (
	_ "embed"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/trailbeacon/sheltermap/internal/poi"
)

//go:embed seed/pois.yaml
var seedYAML []byte

// Seed returns the bundled seed dataset used when no persisted store
// exists or the persisted blob is unreadable.
func Seed() []poi.POI {
	var doc struct {
		POIs []poi.POI `yaml:"pois"`
	}
	if err := yaml.Unmarshal(seedYAML, &doc); err != nil {
		// The seed ships inside the binary; failing to parse it is a build
		// defect, not a runtime condition. Degrade to an empty store.
		zap.L().Error("seed dataset unreadable", zap.Error(err))
		return nil
	}

	out := doc.POIs[:0:0]
	for _, p := range doc.POIs {
		if err := p.Validate(); err != nil {
			zap.L().Warn("seed: dropping invalid poi", zap.Error(err))
			continue
		}
		out = append(out, p)
	}
	return out
}
