package lookupserver

var cities = []string{
	"Amsterdam", "Rotterdam", "Den Haag", "Utrecht", "Eindhoven",
	"Groningen", "Tilburg", "Almere", "Breda", "Nijmegen",
	"Apeldoorn", "Haarlem", "Arnhem", "Enschede", "Amersfoort",
	"Zaanstad", "Den Bosch", "Zwolle", "Leiden", "Maastricht",
	"Dordrecht", "Zoetermeer", "Ede", "Alkmaar", "Delft",
	"Deventer", "Leeuwarden", "Hilversum", "Heerlen", "Venlo",
}

var streetNames = []string{
	"Kerk", "Dorps", "School", "Molen", "Markt", "Haven", "Brink",
	"Linden", "Eiken", "Beuken", "Berken", "Wilgen", "Iepen", "Kastanje",
	"Tulp", "Rozen", "Narcissen", "Lelie", "Hyacinten", "Zonnebloem",
	"Stations", "Spoor", "Nieuwe", "Oude", "Hoofd", "Kanaal", "Dijk",
	"Polder", "Wind", "Koren", "Vlas", "Klooster", "Burg", "Slot",
	"Oranje", "Nassau", "Willems", "Juliana", "Beatrix", "Emma",
}

var streetSuffixes = []string{
	"straat", "weg", "laan", "plein", "gracht", "kade", "singel", "dreef", "pad", "hof",
}
