package address

import (
	"encoding/json"
	"regexp"
	"testing"
)

var uuidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-5[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

func TestTransformFields(t *testing.T) {
	raw := Raw{
		"street":   "Test Street",
		"city":     "Test City",
		"postcode": "1234",
		"lat":      52.3702,
		"lon":      4.8952,
	}

	a := Transform(raw)

	checks := []struct {
		field     string
		got, want string
	}{
		{"Street", a.Street, "Test Street"},
		{"City", a.City, "Test City"},
		{"PostCode", a.PostCode, "1234"},
		{"HouseNumber", a.HouseNumber, ""},
		{"FirstName", a.FirstName, ""},
		{"ID", a.ID, "52.3702_4.8952"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: got %q, want %q", c.field, c.got, c.want)
		}
	}

	if a.Lat == nil || *a.Lat != 52.3702 {
		t.Errorf("Lat = %v, want 52.3702", a.Lat)
	}
}

func TestTransformSameCoordinatesSameID(t *testing.T) {
	a := Transform(Raw{"street": "A", "lat": 1.5, "lon": 2.25})
	b := Transform(Raw{"street": "B", "lat": 1.5, "lon": 2.25})

	if a.ID != b.ID {
		t.Errorf("ids differ for identical coordinates: %q vs %q", a.ID, b.ID)
	}
}

func TestTransformDistinctCoordinatesDistinctID(t *testing.T) {
	pairs := [][2]float64{
		{1, 23},
		{12, 3},
		{1.2, 3},
		{-1.2, 3},
		{0.1, 0.2},
	}

	seen := make(map[string]bool)
	for _, p := range pairs {
		id := Transform(Raw{"lat": p[0], "lon": p[1]}).ID
		if seen[id] {
			t.Fatalf("collision for %v: %q", p, id)
		}
		seen[id] = true
	}
}

func TestTransformCoordinatesAsStrings(t *testing.T) {
	a := Transform(Raw{"lat": "52.1", "lon": "5.2"})
	b := Transform(Raw{"lat": 52.1, "lon": 5.2})

	if a.ID != b.ID {
		t.Errorf("string and numeric coordinates should match: %q vs %q", a.ID, b.ID)
	}
}

func TestTransformWithoutCoordinatesIsDeterministic(t *testing.T) {
	raw := Raw{"street": "Test Street", "city": "Test City", "postcode": "1234"}

	first := Transform(raw)
	for range 10 {
		if got := Transform(raw).ID; got != first.ID {
			t.Fatalf("id changed across transforms: %q vs %q", got, first.ID)
		}
	}

	if !uuidPattern.MatchString(first.ID) {
		t.Errorf("fallback id should be a v5 uuid, got %q", first.ID)
	}
}

func TestTransformFallbackNormalisesWhitespaceAndCase(t *testing.T) {
	a := Transform(Raw{"street": "Test  Street", "city": "test city"})
	b := Transform(Raw{"street": " test street", "city": "Test City "})

	if a.ID != b.ID {
		t.Errorf("equivalent content should share id: %q vs %q", a.ID, b.ID)
	}
}

func TestTransformFallbackDistinguishesHouseNumbers(t *testing.T) {
	a := Transform(Raw{"street": "Test Street", "houseNumber": "10"})
	b := Transform(Raw{"street": "Test Street", "houseNumber": "12"})

	if a.ID == b.ID {
		t.Error("different house numbers should give different ids")
	}
}

func TestTransformHalfCoordinatesFallsBack(t *testing.T) {
	a := Transform(Raw{"street": "X", "lat": 1.0})
	if a.Lat != nil {
		t.Error("lat should be dropped when lon is missing")
	}
	if !uuidPattern.MatchString(a.ID) {
		t.Errorf("expected fallback id, got %q", a.ID)
	}
}

func TestTransformMissingFieldsAreEmpty(t *testing.T) {
	a := Transform(Raw{})
	if a.Street != "" || a.City != "" || a.PostCode != "" {
		t.Errorf("empty raw should give empty fields: %+v", a)
	}
	if a.ID == "" {
		t.Error("id should always be set")
	}
}

func TestTransformRoundTripThroughJSON(t *testing.T) {
	lat, lon := 52.0, 4.0
	want := Address{
		Street:      "Test Street",
		City:        "Test City",
		PostCode:    "1234",
		HouseNumber: "10",
		FirstName:   "John",
		LastName:    "Doe",
		Lat:         &lat,
		Lon:         &lon,
	}
	want.ID = CoordinateID(lat, lon)

	data, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var raw Raw
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	got := Transform(raw)
	if got.ID != want.ID {
		t.Errorf("ID: got %q, want %q", got.ID, want.ID)
	}
	if got.FirstName != "John" || got.LastName != "Doe" {
		t.Errorf("names lost: %+v", got)
	}
	if got.HouseNumber != "10" || got.PostCode != "1234" {
		t.Errorf("address fields lost: %+v", got)
	}
}

func TestTransformAll(t *testing.T) {
	raws := []Raw{
		{"street": "One"},
		{"street": "Two"},
	}

	got := TransformAll(raws)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Street != "One" || got[1].Street != "Two" {
		t.Errorf("order not preserved: %+v", got)
	}
}

func TestLabel(t *testing.T) {
	tests := []struct {
		name string
		a    Address
		want string
	}{
		{"full", Address{Street: "Main St", HouseNumber: "10", PostCode: "1234", City: "Springfield"}, "Main St 10, 1234 Springfield"},
		{"no street", Address{PostCode: "1234", City: "Springfield"}, "1234 Springfield"},
		{"no place", Address{Street: "Main St"}, "Main St"},
		{"empty", Address{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Label(); got != tt.want {
				t.Errorf("Label() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWithPerson(t *testing.T) {
	a := Address{ID: "x", Street: "Test Street"}
	b := a.WithPerson("John", "Doe")

	if a.FirstName != "" {
		t.Error("WithPerson should not mutate the receiver")
	}
	if b.Name() != "John Doe" {
		t.Errorf("Name() = %q, want John Doe", b.Name())
	}
	if b.ID != "x" || b.Street != "Test Street" {
		t.Errorf("address fields lost: %+v", b)
	}
}
