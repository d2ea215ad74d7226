package stats

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"droscher.com/SipGargoyle/pkg/model"
)

// DefaultClusterPrecision is the coordinate rounding used as grouping
// key, in decimal places. Four places is roughly a 10 m bucket. One
// tunable constant for every call site; the precision never varies
// silently between computations.
const DefaultClusterPrecision = 4

// EarthRadiusKm is the mean Earth radius used by the Haversine formula.
const EarthRadiusKm = 6371.0

// Mobility classifies how concentrated drinking locations are.
type Mobility string

const (
	MobilityHigh   Mobility = "high"
	MobilityMedium Mobility = "medium"
	MobilityLow    Mobility = "low"
)

const (
	mobilityHighShare   = 0.3
	mobilityMediumShare = 0.6
)

// LocationCluster groups the geo-tagged entries that fall into one
// rounded-coordinate bucket.
type LocationCluster struct {
	Latitude  float64 // centroid of members
	Longitude float64
	Address   string
	Count     int
	Drinks    []model.DrinkEntry

	CategoryCounts map[string]int
	HourCounts     map[int]int
	WeekdayCounts  map[string]int
	PreferredHour  int
	PreferredDay   string

	TotalVolumeCl       float64
	TotalAlcoholGrams   float64
	AverageVolumeCl     float64
	AverageAlcoholGrams float64
}

// LocationInsights is the cross-cluster summary.
type LocationInsights struct {
	Clusters []LocationCluster

	AverageDistanceKm float64
	MinDistanceKm     float64
	MaxDistanceKm     float64

	CentroidLatitude  float64
	CentroidLongitude float64

	Mobility Mobility
}

// Haversine returns the great-circle distance in kilometers between two
// points given in decimal degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)

	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func radians(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// AnalyzeLocations clusters geo-tagged entries by rounding coordinates
// to the given precision and derives per-cluster and cross-cluster
// statistics. Entries without coordinates are ignored; entries with an
// unparseable timestamp still cluster but stay out of the time-of-day
// distributions. Clusters appear in first-encountered order.
func AnalyzeLocations(entries []model.DrinkEntry, precision int) LocationInsights {
	if precision <= 0 {
		precision = DefaultClusterPrecision
	}

	var (
		order    []string
		clusters = make(map[string]*LocationCluster)
		sums     = make(map[string]*coordinateSum)
	)

	for index := range entries {
		entry := entries[index]
		if !entry.HasCoordinates() {
			continue
		}

		key := clusterKey(*entry.Latitude, *entry.Longitude, precision)

		cluster, found := clusters[key]
		if !found {
			cluster = &LocationCluster{
				CategoryCounts: make(map[string]int),
				HourCounts:     make(map[int]int),
				WeekdayCounts:  make(map[string]int),
				PreferredHour:  -1,
			}
			clusters[key] = cluster
			sums[key] = &coordinateSum{}
			order = append(order, key)
		}

		addMember(cluster, sums[key], entry)
	}

	insights := LocationInsights{Clusters: make([]LocationCluster, 0, len(order))}
	total := 0
	largest := 0

	for _, key := range order {
		cluster := clusters[key]
		sum := sums[key]

		cluster.Latitude = sum.lat / float64(cluster.Count)
		cluster.Longitude = sum.lon / float64(cluster.Count)
		cluster.AverageVolumeCl = cluster.TotalVolumeCl / float64(cluster.Count)
		cluster.AverageAlcoholGrams = cluster.TotalAlcoholGrams / float64(cluster.Count)

		total += cluster.Count
		if cluster.Count > largest {
			largest = cluster.Count
		}

		insights.Clusters = append(insights.Clusters, *cluster)
	}

	if total == 0 {
		return insights
	}

	summarizeDistances(&insights)
	insights.Mobility = classifyMobility(largest, total)

	return insights
}

type coordinateSum struct {
	lat float64
	lon float64
}

func addMember(cluster *LocationCluster, sum *coordinateSum, entry model.DrinkEntry) {
	cluster.Count++
	cluster.Drinks = append(cluster.Drinks, entry)
	cluster.TotalVolumeCl += EntryVolume(entry)
	cluster.TotalAlcoholGrams += EntryAlcoholGrams(entry)
	cluster.CategoryCounts[entry.Category.Name]++

	sum.lat += *entry.Latitude
	sum.lon += *entry.Longitude

	if cluster.Address == "" && entry.Address != nil {
		cluster.Address = *entry.Address
	}

	at, err := entry.ConsumedAt()
	if err != nil {
		return
	}

	hour := at.Hour()
	weekday := at.Weekday().String()

	cluster.HourCounts[hour]++
	cluster.WeekdayCounts[weekday]++

	// Mode of the distributions; ties keep the first-encountered value.
	if cluster.HourCounts[hour] > hourCount(cluster, cluster.PreferredHour) {
		cluster.PreferredHour = hour
	}

	if cluster.WeekdayCounts[weekday] > cluster.WeekdayCounts[cluster.PreferredDay] {
		cluster.PreferredDay = weekday
	}
}

func hourCount(cluster *LocationCluster, hour int) int {
	if hour < 0 {
		return 0
	}

	return cluster.HourCounts[hour]
}

func summarizeDistances(insights *LocationInsights) {
	var (
		distances []float64
		latSum    float64
		lonSum    float64
	)

	for index, cluster := range insights.Clusters {
		latSum += cluster.Latitude
		lonSum += cluster.Longitude

		for _, other := range insights.Clusters[index+1:] {
			distances = append(distances, Haversine(cluster.Latitude, cluster.Longitude, other.Latitude, other.Longitude))
		}
	}

	insights.CentroidLatitude = latSum / float64(len(insights.Clusters))
	insights.CentroidLongitude = lonSum / float64(len(insights.Clusters))

	if len(distances) == 0 {
		return
	}

	insights.AverageDistanceKm, _ = stats.Mean(distances)
	insights.MinDistanceKm, _ = stats.Min(distances)
	insights.MaxDistanceKm, _ = stats.Max(distances)
}

func classifyMobility(largest int, total int) Mobility {
	share := float64(largest) / float64(total)

	switch {
	case share < mobilityHighShare:
		return MobilityHigh
	case share < mobilityMediumShare:
		return MobilityMedium
	}

	return MobilityLow
}

func clusterKey(lat float64, lon float64, precision int) string {
	return fmt.Sprintf("%.*f,%.*f", precision, lat, precision, lon)
}
