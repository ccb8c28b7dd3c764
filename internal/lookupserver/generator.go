package lookupserver

import (
	"hash/fnv"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/zarlcorp/zbook/internal/address"
)

// coordinate box the generated addresses fall in
const (
	minLat  = 50.80
	spanLat = 2.60
	minLon  = 3.40
	spanLon = 3.70

	// spacing between records of one response
	recordStep = 0.0021
)

// Generate returns between one and three addresses for a postcode. Output
// depends only on the arguments: streets and city come from the postcode,
// the street number nudges the coordinates so different numbers on the
// same postcode get different ids. A postcode of only zeros has no
// addresses.
func Generate(postCode, streetNumber string) []address.Raw {
	if strings.Trim(postCode, "0") == "" {
		return nil
	}

	seed := hash(postCode)
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	n := 1 + r.IntN(3)
	city := cities[r.IntN(len(cities))]
	baseLat := minLat + r.Float64()*spanLat
	baseLon := minLon + r.Float64()*spanLon
	nudge := float64(hash(streetNumber)%1000) * 0.000001

	out := make([]address.Raw, 0, n)
	for i := range n {
		street := streetNames[r.IntN(len(streetNames))] + streetSuffixes[r.IntN(len(streetSuffixes))]
		out = append(out, address.Raw{
			"street":   street,
			"city":     city,
			"postcode": postCode,
			"lat":      round6(baseLat + float64(i)*recordStep + nudge),
			"lon":      round6(baseLon + float64(i)*recordStep + nudge),
		})
	}
	return out
}

func hash(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}

func round6(f float64) float64 {
	return math.Round(f*1e6) / 1e6
}
