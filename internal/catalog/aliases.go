package catalog

// builtinKeywords maps common model-number fragments to canonical product
// families. Only fragments whose family actually appears in the loaded
// catalog are registered; the rest stay dormant. Extended at load time from
// CatalogRow.Keywords.
var builtinKeywords = map[string]string{
	// Compute platforms.
	"DL36":      "COMPUTE",
	"DL38":      "COMPUTE",
	"BL4":       "COMPUTE",
	"ML3":       "COMPUTE",
	"PROLIANT":  "COMPUTE",
	"SYNERGY":   "COMPUTE",
	"APOLLO":    "COMPUTE",
	"EDGELINE":  "COMPUTE",
	"SUPERDOME": "COMPUTE",

	// Storage platforms.
	"3PAR":      "STORAGE",
	"NIMBLE":    "STORAGE",
	"PRIMERA":   "STORAGE",
	"ALLETRA":   "STORAGE",
	"MSA":       "STORAGE",
	"STOREONCE": "STORAGE",
	"STOREEVER": "STORAGE",

	// Networking platforms.
	"ARUBA":    "NETWORK",
	"PROCURVE": "NETWORK",
	"CX 6":     "NETWORK",
	"INSTANT":  "NETWORK",
}
