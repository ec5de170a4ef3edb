package keywords

// stopwords are common Norwegian function words that carry no topical signal
var stopwords = map[string]struct{}{
	"og": {}, "i": {}, "å": {}, "det": {}, "som": {}, "på": {}, "er": {}, "av": {},
	"til": {}, "for": {}, "med": {}, "den": {}, "at": {}, "en": {}, "et": {}, "de": {},
	"skal": {}, "har": {}, "kan": {}, "var": {}, "om": {}, "ikke": {}, "bare": {},
	"være": {}, "eller": {}, "man": {}, "fra": {}, "ved": {}, "da": {}, "når": {},
	"må": {}, "ble": {}, "inn": {}, "ut": {}, "over": {}, "etter": {}, "også": {},
	"hvis": {}, "alle": {}, "dette": {}, "denne": {}, "disse": {}, "hva": {},
	"noen": {}, "noe": {}, "hvilke": {}, "hvor": {}, "sin": {}, "sitt": {},
	"sine": {}, "jeg": {}, "du": {}, "vi": {}, "meg": {}, "deg": {}, "seg": {},
}
