package classifier

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Keywords is the immutable keyword configuration a Classifier is built
// with. Includes are positive signals for a useful free item; Excludes
// override any positive match.
type Keywords struct {
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

// DefaultKeywords returns the built-in keyword sets, oriented at free
// household, electronics and gardening items for families in need.
func DefaultKeywords() Keywords {
	return Keywords{
		Includes: []string{
			// Electronics & consoles
			"electronics",
			"xbox series x",
			"series x",
			"xbox",
			"nintendo switch",
			"switch",
			"console",
			"playstation",
			"ps5",
			"tablet",
			"laptop",
			"computer",
			"tv",
			"television",
			"monitor",
			"printer",
			// Household essentials
			"mattress",
			"bed",
			"bunk bed",
			"crib",
			"bassinet",
			"sofa",
			"couch",
			"futon",
			"table",
			"chair",
			"dresser",
			"shelves",
			"twin bed",
			"queen bed",
			// Gardening & outdoor support
			"garden",
			"gardening",
			"planter",
			"raised bed",
			"mulch",
			"compost bin",
			"plant",
			"plants",
			"seed",
			"seeds",
			"soil",
			"greenhouse",
			"irrigation",
			"hose",
			"shovel",
			"rake",
			"wheelbarrow",
		},
		Excludes: []string{
			"moving boxes",
			"moving box",
			"free boxes",
			"cardboard boxes",
			"dirt",
			"fill dirt",
			"manure",
		},
	}
}

// LoadKeywords reads a YAML keyword configuration, replacing the built-in
// sets entirely.
func LoadKeywords(path string) (Keywords, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Keywords{}, fmt.Errorf("failed to read keywords file: %w", err)
	}

	var keywords Keywords
	if err := yaml.Unmarshal(data, &keywords); err != nil {
		return Keywords{}, fmt.Errorf("failed to parse keywords file: %w", err)
	}

	if len(keywords.Includes) == 0 {
		return Keywords{}, fmt.Errorf("keywords file %s defines no include keywords", path)
	}

	return keywords, nil
}
