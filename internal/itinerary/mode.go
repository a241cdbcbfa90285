package itinerary

import "strings"

// Transport mode tags.
const (
	ModeWalk      = "WALK"
	ModeBus       = "BUS"
	ModeTrain     = "TRAIN"
	ModeSubway    = "SUBWAY"
	ModeTram      = "TRAM"
	ModeTaxi      = "TAXI"
	ModeDrive     = "DRIVE"
	ModeFerry     = "FERRY"
	ModeFly       = "FLY"
	ModeMotorbike = "MOTORBIKE"
	ModeBicycle   = "BICYCLE"
	ModeOther     = "OTHER"
)

// modeSynonyms maps lower-cased, space-separated author input to a tag.
var modeSynonyms = map[string]string{
	"walk":        ModeWalk,
	"walking":     ModeWalk,
	"on foot":     ModeWalk,
	"foot":        ModeWalk,
	"hike":        ModeWalk,
	"bus":         ModeBus,
	"coach":       ModeBus,
	"minibus":     ModeBus,
	"shuttle":     ModeBus,
	"train":       ModeTrain,
	"rail":        ModeTrain,
	"railway":     ModeTrain,
	"metro":       ModeSubway,
	"subway":      ModeSubway,
	"underground": ModeSubway,
	"tube":        ModeSubway,
	"mrt":         ModeSubway,
	"tram":        ModeTram,
	"streetcar":   ModeTram,
	"light rail":  ModeTram,
	"taxi":        ModeTaxi,
	"cab":         ModeTaxi,
	"grab":        ModeTaxi,
	"uber":        ModeTaxi,
	"rideshare":   ModeTaxi,
	"ride hail":   ModeTaxi,
	"drive":       ModeDrive,
	"driving":     ModeDrive,
	"car":         ModeDrive,
	"self drive":  ModeDrive,
	"rental car":  ModeDrive,
	"ferry":       ModeFerry,
	"boat":        ModeFerry,
	"speedboat":   ModeFerry,
	"fly":         ModeFly,
	"flight":      ModeFly,
	"plane":       ModeFly,
	"air":         ModeFly,
	"motorbike":   ModeMotorbike,
	"motorcycle":  ModeMotorbike,
	"scooter":     ModeMotorbike,
	"moto":        ModeMotorbike,
	"xe om":       ModeMotorbike,
	"bicycle":     ModeBicycle,
	"bike":        ModeBicycle,
	"cycle":       ModeBicycle,
	"cycling":     ModeBicycle,
	"other":       ModeOther,
}

// NormalizeMode maps free-text mode input to a tag. Unknown input is
// returned upper-cased; blank input is OTHER.
func NormalizeMode(raw string) string {
	key := strings.Join(strings.FieldsFunc(strings.ToLower(raw), isModeSeparator), " ")
	if key == "" {
		return ModeOther
	}
	if tag, ok := modeSynonyms[key]; ok {
		return tag
	}
	return strings.ToUpper(strings.TrimSpace(raw))
}

func isModeSeparator(r rune) bool {
	return r == ' ' || r == '_' || r == '-' || r == '\t'
}
