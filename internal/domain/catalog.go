package domain

// Location is a named site in the catalog hazard points are generated against.
type Location struct {
	Name      string  `json:"name"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Area      string  `json:"area"`
	FloodRisk string  `json:"flood_risk"`
	Address   string  `json:"address,omitempty"`
}

// chennaiLocations covers the north, central and south wards of Chennai.
var chennaiLocations = []Location{
	{Name: "Tondiarpet", Lat: 13.121, Lng: 80.256, Area: "North", FloodRisk: "high"},
	{Name: "Royapuram", Lat: 13.111, Lng: 80.290, Area: "North", FloodRisk: "high"},
	{Name: "Washermanpet", Lat: 13.114, Lng: 80.267, Area: "North", FloodRisk: "medium"},
	{Name: "Moolakadai", Lat: 13.099, Lng: 80.247, Area: "North", FloodRisk: "low"},
	{Name: "Manali", Lat: 13.167, Lng: 80.256, Area: "North", FloodRisk: "medium"},
	{Name: "Madhavaram", Lat: 13.148, Lng: 80.230, Area: "North", FloodRisk: "low"},
	{Name: "Red Hills", Lat: 13.178, Lng: 80.181, Area: "North", FloodRisk: "medium"},
	{Name: "Korukkupet", Lat: 13.117, Lng: 80.278, Area: "North", FloodRisk: "high"},
	{Name: "MKB Nagar", Lat: 13.107, Lng: 80.285, Area: "North", FloodRisk: "medium"},
	{Name: "Vyasarapadi", Lat: 13.124, Lng: 80.261, Area: "North", FloodRisk: "low"},
	{Name: "Thiruvottiyur", Lat: 13.158, Lng: 80.299, Area: "North", FloodRisk: "high"},
	{Name: "Athipattu", Lat: 13.187, Lng: 80.220, Area: "North", FloodRisk: "medium"},
	{Name: "Kavaraipettai", Lat: 13.195, Lng: 80.195, Area: "North", FloodRisk: "low"},
	{Name: "Ponneri", Lat: 13.317, Lng: 80.194, Area: "North", FloodRisk: "medium"},
	{Name: "Minjur", Lat: 13.279, Lng: 80.258, Area: "North", FloodRisk: "low"},
	{Name: "Egmore", Lat: 13.079, Lng: 80.262, Area: "Central", FloodRisk: "medium"},
	{Name: "Nungambakkam", Lat: 13.060, Lng: 80.240, Area: "Central", FloodRisk: "low"},
	{Name: "T. Nagar", Lat: 13.042, Lng: 80.234, Area: "Central", FloodRisk: "high"},
	{Name: "Mylapore", Lat: 13.034, Lng: 80.270, Area: "Central", FloodRisk: "medium"},
	{Name: "Triplicane", Lat: 13.057, Lng: 80.277, Area: "Central", FloodRisk: "high"},
	{Name: "Chintadripet", Lat: 13.074, Lng: 80.268, Area: "Central", FloodRisk: "medium"},
	{Name: "Chepauk", Lat: 13.063, Lng: 80.287, Area: "Central", FloodRisk: "high"},
	{Name: "Kodambakkam", Lat: 13.051, Lng: 80.220, Area: "Central", FloodRisk: "low"},
	{Name: "West Mambalam", Lat: 13.034, Lng: 80.220, Area: "Central", FloodRisk: "medium"},
	{Name: "Aminjikarai", Lat: 13.067, Lng: 80.229, Area: "Central", FloodRisk: "low"},
	{Name: "Kilpauk", Lat: 13.081, Lng: 80.243, Area: "Central", FloodRisk: "medium"},
	{Name: "Purasawalkam", Lat: 13.090, Lng: 80.258, Area: "Central", FloodRisk: "high"},
	{Name: "Perambur", Lat: 13.115, Lng: 80.240, Area: "Central", FloodRisk: "medium"},
	{Name: "Vepery", Lat: 13.082, Lng: 80.259, Area: "Central", FloodRisk: "low"},
	{Name: "Park Town", Lat: 13.082, Lng: 80.274, Area: "Central", FloodRisk: "medium"},
	{Name: "Adyar", Lat: 13.007, Lng: 80.257, Area: "South", FloodRisk: "high"},
	{Name: "Besant Nagar", Lat: 12.999, Lng: 80.267, Area: "South", FloodRisk: "medium"},
	{Name: "Thiruvanmiyur", Lat: 12.985, Lng: 80.259, Area: "South", FloodRisk: "high"},
	{Name: "Indira Nagar", Lat: 13.023, Lng: 80.248, Area: "South", FloodRisk: "low"},
	{Name: "Kotturpuram", Lat: 13.015, Lng: 80.245, Area: "South", FloodRisk: "medium"},
	{Name: "Guindy", Lat: 13.008, Lng: 80.220, Area: "South", FloodRisk: "low"},
	{Name: "Saidapet", Lat: 13.021, Lng: 80.227, Area: "South", FloodRisk: "medium"},
	{Name: "Velachery", Lat: 12.979, Lng: 80.221, Area: "South", FloodRisk: "high"},
	{Name: "Perungudi", Lat: 12.971, Lng: 80.240, Area: "South", FloodRisk: "high"},
	{Name: "Taramani", Lat: 12.985, Lng: 80.240, Area: "South", FloodRisk: "medium"},
	{Name: "Medavakkam", Lat: 12.918, Lng: 80.197, Area: "South", FloodRisk: "low"},
	{Name: "Mogappair", Lat: 13.070, Lng: 80.180, Area: "South", FloodRisk: "medium"},
	{Name: "Nanganallur", Lat: 12.984, Lng: 80.191, Area: "South", FloodRisk: "low"},
	{Name: "Pallavaram", Lat: 12.968, Lng: 80.151, Area: "South", FloodRisk: "medium"},
	{Name: "Chromepet", Lat: 12.952, Lng: 80.142, Area: "South", FloodRisk: "high"},
	{Name: "Tambaram", Lat: 12.925, Lng: 80.106, Area: "South", FloodRisk: "low"},
	{Name: "Chengalpattu", Lat: 12.699, Lng: 79.977, Area: "South", FloodRisk: "medium"},
	{Name: "Maraimalai Nagar", Lat: 12.790, Lng: 80.007, Area: "South", FloodRisk: "low"},
	{Name: "Kelambakkam", Lat: 12.799, Lng: 80.231, Area: "South", FloodRisk: "high"},
	{Name: "Kovalam", Lat: 12.791, Lng: 80.253, Area: "South", FloodRisk: "medium"},
}

// Catalog returns a copy of the built-in location catalog.
func Catalog() []Location {
	out := make([]Location, len(chennaiLocations))
	copy(out, chennaiLocations)
	return out
}
