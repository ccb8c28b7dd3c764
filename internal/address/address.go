// Package address normalises raw lookup records into Address values with a
// stable identity.
package address

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Raw is an unprocessed address record as decoded from JSON.
type Raw map[string]any

// Address is the canonical address. FirstName and LastName stay empty until
// the entry is committed to the address book.
type Address struct {
	ID          string   `json:"id"`
	Street      string   `json:"street"`
	City        string   `json:"city"`
	PostCode    string   `json:"postCode"`
	HouseNumber string   `json:"houseNumber"`
	FirstName   string   `json:"firstName,omitempty"`
	LastName    string   `json:"lastName,omitempty"`
	Lat         *float64 `json:"lat,omitempty"`
	Lon         *float64 `json:"lon,omitempty"`
}

// namespace scopes the name-based ids of coordinate-less addresses.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://zarlcorp.dev/zbook/address"))

// Transform converts a raw record into an Address. Records carrying both
// coordinates get an id derived from them; all others get a name-based UUID
// over street, city, postcode and house number, so equivalent input always
// maps to the same id.
func Transform(raw Raw) Address {
	a := Address{
		Street:      str(raw, "street"),
		City:        str(raw, "city"),
		PostCode:    str(raw, "postCode", "postcode"),
		HouseNumber: str(raw, "houseNumber", "streetnumber"),
		FirstName:   str(raw, "firstName"),
		LastName:    str(raw, "lastName"),
	}

	lat, latOK := num(raw, "lat")
	lon, lonOK := num(raw, "lon")
	if latOK && lonOK {
		a.Lat = &lat
		a.Lon = &lon
		a.ID = CoordinateID(lat, lon)
		return a
	}

	a.ID = ContentID(a.Street, a.City, a.PostCode, a.HouseNumber)
	return a
}

// TransformAll maps every record through Transform.
func TransformAll(raws []Raw) []Address {
	out := make([]Address, len(raws))
	for i, r := range raws {
		out[i] = Transform(r)
	}
	return out
}

// CoordinateID formats a coordinate pair as an id. Shortest round-trip
// formatting keeps distinct pairs distinct.
func CoordinateID(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "_" + strconv.FormatFloat(lon, 'f', -1, 64)
}

// ContentID returns the name-based id for an address without coordinates.
func ContentID(street, city, postCode, houseNumber string) string {
	key := strings.Join([]string{
		normalize(street),
		normalize(city),
		normalize(postCode),
		normalize(houseNumber),
	}, "|")
	return uuid.NewSHA1(namespace, []byte(key)).String()
}

// WithPerson returns a copy of a with personal details attached.
func (a Address) WithPerson(firstName, lastName string) Address {
	a.FirstName = firstName
	a.LastName = lastName
	return a
}

// Name returns "first last", or "" for a candidate.
func (a Address) Name() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// Label renders the address on one line, e.g. "Main St 10, 1234 Springfield".
func (a Address) Label() string {
	street := strings.TrimSpace(a.Street + " " + a.HouseNumber)
	place := strings.TrimSpace(a.PostCode + " " + a.City)

	switch {
	case street == "":
		return place
	case place == "":
		return street
	}
	return street + ", " + place
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// str returns the first present key as a string.
func str(raw Raw, keys ...string) string {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			return t
		case json.Number:
			return t.String()
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64)
		default:
			return fmt.Sprint(t)
		}
	}
	return ""
}

// num reads a coordinate given as a JSON number or a numeric string.
func num(raw Raw, key string) (float64, bool) {
	v, ok := raw[key]
	if !ok || v == nil {
		return 0, false
	}

	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	}
	return 0, false
}
