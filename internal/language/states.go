package language

import "strings"

var stateLanguages = map[string]Language{
	"andhra pradesh":    Telugu,
	"arunachal pradesh": Hindi,
	"assam":             Hindi,
	"bihar":             Hindi,
	"chhattisgarh":      Hindi,
	"goa":               Hindi,
	"gujarat":           Gujarati,
	"haryana":           Hindi,
	"himachal pradesh":  Hindi,
	"jharkhand":         Hindi,
	"karnataka":         Kannada,
	"kerala":            Malayalam,
	"madhya pradesh":    Hindi,
	"maharashtra":       Marathi,
	"manipur":           Hindi,
	"meghalaya":         Hindi,
	"mizoram":           Hindi,
	"nagaland":          Hindi,
	"odisha":            Odia,
	"punjab":            Punjabi,
	"rajasthan":         Hindi,
	"sikkim":            Hindi,
	"tamil nadu":        Tamil,
	"telangana":         Telugu,
	"tripura":           Hindi,
	"uttar pradesh":     Hindi,
	"uttarakhand":       Hindi,
	"west bengal":       Bengali,
	"delhi":             Hindi,
	"puducherry":        Tamil,
	"chandigarh":        Hindi,
	"jammu and kashmir": Hindi,
	"ladakh":            Hindi,
	"lakshadweep":       Malayalam,

	"andaman and nicobar islands":              Hindi,
	"dadra and nagar haveli and daman and diu": Hindi,
}

// ForState returns the language customers in an Indian state or union
// territory are greeted in. Unknown states map to Default.
func ForState(state string) Language {
	key := strings.Join(strings.Fields(strings.ToLower(state)), " ")
	if l, ok := stateLanguages[key]; ok {
		return l
	}
	return Default
}
