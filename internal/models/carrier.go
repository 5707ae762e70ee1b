package models

// Mobile network codes used when building GSM cell-id lookups.
var carrierMNC = map[string]string{
	"TIM":   "04",
	"CLARO": "05",
	"VIVO":  "06",
	"OI":    "16",
}

// CarrierMNC maps a carrier name to its 2-digit mobile network code.
// Unknown carriers get "02".
func CarrierMNC(name string) string {
	if code, ok := carrierMNC[name]; ok {
		return code
	}
	return "02"
}
