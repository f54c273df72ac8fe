package rules

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// DefaultModelPattern matches compact model numbers such as DX7, JP8000 or SH101.
const DefaultModelPattern = `^[A-Z]{1,4}\d{1,4}[A-Z]*$`

// Config is the complete rule table. It is a value: callers build one,
// optionally extend it, and pass it to Apply.
type Config struct {
	// MaxTerms caps the number of returned terms.
	MaxTerms int
	// PreselectLimit is how many of the highest-priority terms start selected.
	// Core terms are always selected.
	PreselectLimit int

	Brands      []string
	ObjectTypes []string
	Materials   []string
	ModelNames  []string
	StopWords   []string

	modelPattern *regexp.Regexp
}

// DefaultConfig returns the built-in rule table.
func DefaultConfig() Config {
	return Config{
		MaxTerms:       12,
		PreselectLimit: 4,
		Brands: []string{
			"Rolex", "Omega", "Patek Philippe", "Audemars Piguet", "Cartier", "Longines",
			"Tissot", "Breitling", "TAG Heuer", "Seiko", "Heuer", "IWC",
			"Royal Copenhagen", "Bing & Grøndahl", "Rörstrand", "Gustavsberg", "Arabia",
			"Upsala-Ekeby", "Orrefors", "Kosta Boda", "Kosta", "Iittala", "Nuutajärvi",
			"Georg Jensen", "Svenskt Tenn", "Firma Svenskt Tenn", "GAB", "Herend",
			"Meissen", "Rosenthal", "Lalique", "Baccarat", "Moser",
			"Louis Vuitton", "Hermès", "Chanel", "Gucci", "Prada", "Tiffany",
			"Bang & Olufsen", "Hasselblad", "Leica", "Roland", "Yamaha", "Korg",
			"Moog", "Technics", "Fender", "Gibson", "Lego", "Märklin",
			"Carl Malmsten", "Bruno Mathsson", "Fritz Hansen", "Dux", "Lammhults",
		},
		ObjectTypes: []string{
			"skulptur", "figurin", "vas", "vaser", "skål", "fat", "tallrik", "tallrikar",
			"servis", "kanna", "kopp", "koppar", "ljusstake", "ljusstakar", "lampa",
			"bordslampa", "golvlampa", "taklampa", "ljuskrona", "tavla", "målning",
			"oljemålning", "akvarell", "litografi", "etsning", "teckning", "grafik",
			"affisch", "armbandsur", "fickur", "klocka", "golvur", "väggur", "ring",
			"halsband", "armband", "brosch", "örhängen", "collier", "byrå", "skåp",
			"stol", "stolar", "fåtölj", "soffa", "bord", "soffbord", "sekretär",
			"spegel", "matta", "synthesizer", "förstärkare", "gitarr", "kamera",
			"objektiv", "väska", "handväska", "bestick", "dosa", "skrin", "pokal",
		},
		Materials: []string{
			"brons", "silver", "sterlingsilver", "nysilver", "guld", "mässing",
			"koppar", "tenn", "järn", "gjutjärn", "stål", "porslin", "fajans",
			"stengods", "keramik", "glas", "kristall", "teak", "ek", "björk", "valnöt",
			"jakaranda", "palisander", "mahogny", "marmor", "läder", "elfenben",
		},
		ModelNames: []string{
			"Submariner", "Datejust", "Daytona", "GMT-Master", "Explorer",
			"Speedmaster", "Seamaster", "Constellation", "Calatrava", "Nautilus",
			"Royal Oak", "Santos", "Tank", "Juno-60", "Jupiter-8", "Minimoog",
			"Beolab", "Beogram", "Beomaster",
		},
		StopWords: []string{
			"och", "med", "samt", "för", "på", "av", "i", "en", "ett", "den", "det",
			"st", "cirka", "ca", "höjd", "längd", "bredd", "diameter", "signerad",
			"märkt", "stämplad", "nummer", "modell", "ref", "tillverkad",
		},
	}
}

// WithExtras returns a copy with additional dictionary entries appended.
func (c Config) WithExtras(brands, objectTypes, materials, modelNames []string) Config {
	out := c
	out.Brands = appendUnique(c.Brands, brands)
	out.ObjectTypes = appendUnique(c.ObjectTypes, objectTypes)
	out.Materials = appendUnique(c.Materials, materials)
	out.ModelNames = appendUnique(c.ModelNames, modelNames)
	return out
}

// Validate checks limits.
func (c Config) Validate() error {
	if c.MaxTerms < 1 {
		return fmt.Errorf("max terms must be at least 1, got %d", c.MaxTerms)
	}
	if c.PreselectLimit < 0 {
		return fmt.Errorf("preselect limit must not be negative, got %d", c.PreselectLimit)
	}
	if c.PreselectLimit > c.MaxTerms {
		return fmt.Errorf("preselect limit %d exceeds max terms %d", c.PreselectLimit, c.MaxTerms)
	}
	if len(c.Brands) == 0 && len(c.ObjectTypes) == 0 {
		return errors.New("rule table is empty")
	}
	return nil
}

func (c Config) pattern() *regexp.Regexp {
	if c.modelPattern != nil {
		return c.modelPattern
	}
	return defaultModelRe
}

var defaultModelRe = regexp.MustCompile(DefaultModelPattern)

// WithModelPattern overrides the model-number regex.
func (c Config) WithModelPattern(expr string) (Config, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return c, fmt.Errorf("compile model pattern: %w", err)
	}
	c.modelPattern = re
	return c, nil
}

func appendUnique(base, extra []string) []string {
	out := make([]string, 0, len(base)+len(extra))
	seen := make(map[string]struct{}, len(base)+len(extra))
	for _, list := range [][]string{base, extra} {
		for _, s := range list {
			s = strings.TrimSpace(s)
			k := strings.ToLower(s)
			if s == "" {
				continue
			}
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
