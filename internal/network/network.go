// Package network describes the SETRAG Transgabonais line used to bootstrap trips.
package network

// Stations are listed west to east.
var Stations = []string{
	"Libreville",
	"Owendo",
	"Ndjolé",
	"Boumango",
	"Lastoursville",
	"Moanda",
	"Franceville",
}

// Route is an origin/destination pair served daily.
type Route struct {
	Origin      string
	Destination string
}

var Routes = []Route{
	{"Libreville", "Franceville"},
	{"Franceville", "Libreville"},
	{"Libreville", "Moanda"},
	{"Moanda", "Libreville"},
	{"Libreville", "Owendo"},
	{"Owendo", "Libreville"},
	{"Owendo", "Franceville"},
	{"Ndjolé", "Lastoursville"},
}
