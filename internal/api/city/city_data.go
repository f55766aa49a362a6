package city

import "github.com/FACorreiaa/go-day-planner/internal/types"

const sameAreaMinutes = 10

func londonConfig() types.CityConfig {
	return types.CityConfig{
		Slug:     "london",
		Name:     "London",
		Country:  "United Kingdom",
		Timezone: "Europe/London",
		Center:   types.Coordinates{Latitude: 51.5074, Longitude: -0.1278},
		Areas: []types.NamedArea{
			{Name: "South Kensington", Aliases: []string{"south ken"}, Coordinates: types.Coordinates{Latitude: 51.4941, Longitude: -0.1738}},
			{Name: "Kensington", Coordinates: types.Coordinates{Latitude: 51.5008, Longitude: -0.1925}},
			{Name: "Covent Garden", Coordinates: types.Coordinates{Latitude: 51.5117, Longitude: -0.1240}},
			{Name: "Soho", Coordinates: types.Coordinates{Latitude: 51.5136, Longitude: -0.1365}},
			{Name: "Mayfair", Coordinates: types.Coordinates{Latitude: 51.5099, Longitude: -0.1478}},
			{Name: "Marylebone", Coordinates: types.Coordinates{Latitude: 51.5225, Longitude: -0.1537}},
			{Name: "Shoreditch", Coordinates: types.Coordinates{Latitude: 51.5245, Longitude: -0.0781}},
			{Name: "Camden", Aliases: []string{"camden town"}, Coordinates: types.Coordinates{Latitude: 51.5390, Longitude: -0.1426}},
			{Name: "Chelsea", Aliases: []string{"kings road", "king's road"}, Coordinates: types.Coordinates{Latitude: 51.4875, Longitude: -0.1687}},
			{Name: "Notting Hill", Aliases: []string{"portobello"}, Coordinates: types.Coordinates{Latitude: 51.5090, Longitude: -0.1964}},
			{Name: "Westminster", Coordinates: types.Coordinates{Latitude: 51.4995, Longitude: -0.1248}},
			{Name: "South Bank", Aliases: []string{"southbank"}, Coordinates: types.Coordinates{Latitude: 51.5055, Longitude: -0.1160}},
			{Name: "City of London", Aliases: []string{"square mile"}, Coordinates: types.Coordinates{Latitude: 51.5155, Longitude: -0.0922}},
			{Name: "King's Cross", Aliases: []string{"kings cross"}, Coordinates: types.Coordinates{Latitude: 51.5308, Longitude: -0.1238}},
			{Name: "Canary Wharf", Coordinates: types.Coordinates{Latitude: 51.5054, Longitude: -0.0235}},
			{Name: "Greenwich", Coordinates: types.Coordinates{Latitude: 51.4826, Longitude: 0.0077}},
			{Name: "Hackney", Coordinates: types.Coordinates{Latitude: 51.5450, Longitude: -0.0553}},
			{Name: "Brixton", Coordinates: types.Coordinates{Latitude: 51.4613, Longitude: -0.1156}},
			{Name: "Islington", Aliases: []string{"angel"}, Coordinates: types.Coordinates{Latitude: 51.5362, Longitude: -0.1033}},
		},
		CategoryVocabulary: map[types.VenueCategory][]string{
			types.CategoryRestaurant: {"restaurant", "gastropub"},
			types.CategoryCafe:       {"cafe", "coffee shop"},
			types.CategoryBar:        {"pub", "cocktail bar", "bar"},
			types.CategoryMuseum:     {"museum", "gallery"},
			types.CategoryPark:       {"park", "gardens"},
			types.CategoryShopping:   {"shops", "market"},
			types.CategoryAttraction: {"landmark"},
		},
		AddressAliases:  []string{"london"},
		TravelEstimates: symmetricEstimates(londonTravelMinutes),
	}
}

// londonTravelMinutes are door-to-door public transport estimates between central areas.
var londonTravelMinutes = []travelPair{
	{"Mayfair", "Soho", 15},
	{"Mayfair", "Covent Garden", 15},
	{"Mayfair", "Marylebone", 15},
	{"Mayfair", "Chelsea", 20},
	{"Mayfair", "South Kensington", 20},
	{"Mayfair", "Kensington", 25},
	{"Mayfair", "Notting Hill", 25},
	{"Mayfair", "Shoreditch", 30},
	{"Mayfair", "Camden", 25},
	{"Mayfair", "Westminster", 20},
	{"Mayfair", "South Bank", 20},
	{"Mayfair", "City of London", 25},
	{"Mayfair", "King's Cross", 20},
	{"Soho", "Covent Garden", 15},
	{"Soho", "Marylebone", 15},
	{"Soho", "Chelsea", 25},
	{"Soho", "South Kensington", 25},
	{"Soho", "Kensington", 25},
	{"Soho", "Notting Hill", 25},
	{"Soho", "Shoreditch", 25},
	{"Soho", "Camden", 20},
	{"Soho", "Westminster", 15},
	{"Soho", "South Bank", 15},
	{"Soho", "City of London", 20},
	{"Soho", "King's Cross", 20},
	{"Covent Garden", "Marylebone", 20},
	{"Covent Garden", "Chelsea", 25},
	{"Covent Garden", "South Kensington", 25},
	{"Covent Garden", "Kensington", 30},
	{"Covent Garden", "Notting Hill", 30},
	{"Covent Garden", "Shoreditch", 25},
	{"Covent Garden", "Camden", 25},
	{"Covent Garden", "Westminster", 15},
	{"Covent Garden", "South Bank", 15},
	{"Covent Garden", "City of London", 20},
	{"Covent Garden", "King's Cross", 20},
	{"Marylebone", "Chelsea", 25},
	{"Marylebone", "South Kensington", 25},
	{"Marylebone", "Kensington", 25},
	{"Marylebone", "Notting Hill", 25},
	{"Marylebone", "Shoreditch", 30},
	{"Marylebone", "Camden", 20},
	{"Marylebone", "Westminster", 25},
	{"Marylebone", "South Bank", 25},
	{"Marylebone", "City of London", 25},
	{"Marylebone", "King's Cross", 20},
	{"Chelsea", "South Kensington", 15},
	{"Chelsea", "Kensington", 20},
	{"Chelsea", "Notting Hill", 20},
	{"Chelsea", "Shoreditch", 40},
	{"Chelsea", "Camden", 35},
	{"Chelsea", "Westminster", 25},
	{"Chelsea", "South Bank", 25},
	{"Chelsea", "City of London", 35},
	{"Chelsea", "King's Cross", 35},
	{"South Kensington", "Kensington", 15},
	{"South Kensington", "Notting Hill", 20},
	{"South Kensington", "Shoreditch", 40},
	{"South Kensington", "Camden", 30},
	{"South Kensington", "Westminster", 25},
	{"South Kensington", "South Bank", 25},
	{"South Kensington", "City of London", 35},
	{"South Kensington", "King's Cross", 30},
	{"Kensington", "Notting Hill", 15},
	{"Kensington", "Shoreditch", 45},
	{"Kensington", "Camden", 30},
	{"Kensington", "Westminster", 30},
	{"Kensington", "South Bank", 30},
	{"Kensington", "City of London", 40},
	{"Kensington", "King's Cross", 35},
	{"Notting Hill", "Shoreditch", 45},
	{"Notting Hill", "Camden", 30},
	{"Notting Hill", "Westminster", 30},
	{"Notting Hill", "South Bank", 30},
	{"Notting Hill", "City of London", 40},
	{"Notting Hill", "King's Cross", 30},
	{"Shoreditch", "Camden", 30},
	{"Shoreditch", "Westminster", 25},
	{"Shoreditch", "South Bank", 25},
	{"Shoreditch", "City of London", 15},
	{"Shoreditch", "King's Cross", 25},
	{"Camden", "Westminster", 30},
	{"Camden", "South Bank", 25},
	{"Camden", "City of London", 25},
	{"Camden", "King's Cross", 15},
	{"Westminster", "South Bank", 15},
	{"Westminster", "City of London", 20},
	{"Westminster", "King's Cross", 25},
	{"South Bank", "City of London", 20},
	{"South Bank", "King's Cross", 20},
	{"City of London", "King's Cross", 20},
}

type travelPair struct {
	from, to string
	minutes  int
}

func symmetricEstimates(pairs []travelPair) map[string]map[string]int {
	out := make(map[string]map[string]int)
	set := func(a, b string, m int) {
		if out[a] == nil {
			out[a] = map[string]int{a: sameAreaMinutes}
		}
		out[a][b] = m
	}
	for _, p := range pairs {
		set(p.from, p.to, p.minutes)
		set(p.to, p.from, p.minutes)
	}
	return out
}

func newYorkConfig() types.CityConfig {
	return types.CityConfig{
		Slug:     "new-york",
		Name:     "New York",
		Country:  "United States",
		Timezone: "America/New_York",
		Center:   types.Coordinates{Latitude: 40.7128, Longitude: -74.0060},
		Areas: []types.NamedArea{
			{Name: "Lower East Side", Aliases: []string{"les"}, Coordinates: types.Coordinates{Latitude: 40.7150, Longitude: -73.9843}},
			{Name: "East Village", Coordinates: types.Coordinates{Latitude: 40.7265, Longitude: -73.9815}},
			{Name: "West Village", Aliases: []string{"greenwich village"}, Coordinates: types.Coordinates{Latitude: 40.7358, Longitude: -74.0036}},
			{Name: "Upper West Side", Aliases: []string{"uws"}, Coordinates: types.Coordinates{Latitude: 40.7870, Longitude: -73.9754}},
			{Name: "Upper East Side", Aliases: []string{"ues"}, Coordinates: types.Coordinates{Latitude: 40.7736, Longitude: -73.9566}},
			{Name: "Midtown", Aliases: []string{"times square"}, Coordinates: types.Coordinates{Latitude: 40.7549, Longitude: -73.9840}},
			{Name: "SoHo", Coordinates: types.Coordinates{Latitude: 40.7233, Longitude: -74.0030}},
			{Name: "Tribeca", Coordinates: types.Coordinates{Latitude: 40.7163, Longitude: -74.0086}},
			{Name: "Financial District", Aliases: []string{"fidi", "wall street"}, Coordinates: types.Coordinates{Latitude: 40.7075, Longitude: -74.0113}},
			{Name: "Chelsea", Aliases: []string{"high line"}, Coordinates: types.Coordinates{Latitude: 40.7465, Longitude: -74.0014}},
			{Name: "Harlem", Coordinates: types.Coordinates{Latitude: 40.8116, Longitude: -73.9465}},
			{Name: "Central Park", Coordinates: types.Coordinates{Latitude: 40.7829, Longitude: -73.9654}},
			{Name: "Williamsburg", Coordinates: types.Coordinates{Latitude: 40.7081, Longitude: -73.9571}},
			{Name: "DUMBO", Coordinates: types.Coordinates{Latitude: 40.7033, Longitude: -73.9881}},
			{Name: "Brooklyn Heights", Coordinates: types.Coordinates{Latitude: 40.6959, Longitude: -73.9956}},
		},
		CategoryVocabulary: map[types.VenueCategory][]string{
			types.CategoryRestaurant: {"restaurant"},
			types.CategoryCafe:       {"coffee shop"},
			types.CategoryBar:        {"bar", "cocktail lounge"},
			types.CategoryMuseum:     {"museum"},
			types.CategoryPark:       {"park"},
			types.CategoryShopping:   {"stores"},
			types.CategoryAttraction: {"landmark"},
		},
		AddressAliases: []string{"new york", ", ny", "brooklyn", "manhattan"},
	}
}

func parisConfig() types.CityConfig {
	return types.CityConfig{
		Slug:     "paris",
		Name:     "Paris",
		Country:  "France",
		Timezone: "Europe/Paris",
		Center:   types.Coordinates{Latitude: 48.8566, Longitude: 2.3522},
		Areas: []types.NamedArea{
			{Name: "Le Marais", Aliases: []string{"marais"}, Coordinates: types.Coordinates{Latitude: 48.8590, Longitude: 2.3622}},
			{Name: "Montmartre", Aliases: []string{"sacre coeur", "sacré-cœur"}, Coordinates: types.Coordinates{Latitude: 48.8867, Longitude: 2.3431}},
			{Name: "Saint-Germain-des-Prés", Aliases: []string{"saint-germain", "saint germain", "st germain"}, Coordinates: types.Coordinates{Latitude: 48.8540, Longitude: 2.3330}},
			{Name: "Latin Quarter", Aliases: []string{"quartier latin"}, Coordinates: types.Coordinates{Latitude: 48.8493, Longitude: 2.3470}},
			{Name: "Canal Saint-Martin", Aliases: []string{"canal st martin"}, Coordinates: types.Coordinates{Latitude: 48.8710, Longitude: 2.3650}},
			{Name: "Champs-Élysées", Aliases: []string{"champs elysees", "champs-elysees"}, Coordinates: types.Coordinates{Latitude: 48.8698, Longitude: 2.3078}},
			{Name: "Eiffel Tower", Aliases: []string{"tour eiffel", "trocadero"}, Coordinates: types.Coordinates{Latitude: 48.8584, Longitude: 2.2945}},
			{Name: "Louvre", Aliases: []string{"tuileries"}, Coordinates: types.Coordinates{Latitude: 48.8606, Longitude: 2.3376}},
			{Name: "Bastille", Coordinates: types.Coordinates{Latitude: 48.8532, Longitude: 2.3692}},
			{Name: "Oberkampf", Coordinates: types.Coordinates{Latitude: 48.8649, Longitude: 2.3775}},
			{Name: "Belleville", Coordinates: types.Coordinates{Latitude: 48.8722, Longitude: 2.3767}},
			{Name: "Pigalle", Coordinates: types.Coordinates{Latitude: 48.8822, Longitude: 2.3378}},
		},
		CategoryVocabulary: map[types.VenueCategory][]string{
			types.CategoryRestaurant: {"bistro", "restaurant"},
			types.CategoryCafe:       {"café"},
			types.CategoryBar:        {"bar à vin", "bar"},
			types.CategoryMuseum:     {"musée"},
			types.CategoryPark:       {"jardin", "parc"},
			types.CategoryShopping:   {"boutique"},
			types.CategoryAttraction: {"monument"},
		},
		AddressAliases: []string{"paris"},
	}
}
