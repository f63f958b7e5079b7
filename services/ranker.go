package services

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/patrickmn/go-cache"

	"trono-server/metrics"
	"trono-server/models"
	"trono-server/utils/geo"
)

// RankOptions tunes FilterAndRankWithOptions.
type RankOptions struct {
	// ImplicitGenderMatch lets a POI carrying no gender tag at all match the
	// male and female type filters. Off by default: plain tag intersection.
	ImplicitGenderMatch bool `mapstructure:"implicit_gender_match"`
}

// FilterAndRank returns the verified POIs that satisfy criteria, sorted by ascending
// distance from ref. Equal distances keep input order. With a nil ref the input order
// is kept. The input slice is never modified.
func FilterAndRank(pois []models.POI, criteria models.FilterCriteria, ref *models.Position) []models.POI {
	return FilterAndRankWithOptions(pois, criteria, ref, RankOptions{})
}

// FilterAndRankWithOptions is FilterAndRank with tunable matching rules.
func FilterAndRankWithOptions(
	pois []models.POI,
	criteria models.FilterCriteria,
	ref *models.Position,
	opts RankOptions,
) []models.POI {
	filtered := make([]models.POI, 0, len(pois))
	for _, poi := range pois {
		if matches(poi, criteria, opts) {
			filtered = append(filtered, poi)
		}
	}

	if ref == nil {
		return filtered
	}

	type ranked struct {
		poi      models.POI
		distance float64
	}
	items := make([]ranked, len(filtered))
	for i, poi := range filtered {
		items[i] = ranked{poi: poi, distance: geo.Distance(ref.Latitude, ref.Longitude, poi.Latitude, poi.Longitude)}
	}
	slices.SortStableFunc(items, func(a, b ranked) int {
		return cmp.Compare(a.distance, b.distance)
	})

	for i := range items {
		filtered[i] = items[i].poi
	}
	return filtered
}

// matches applies the rules in order and stops at the first failure.
func matches(poi models.POI, c models.FilterCriteria, opts RankOptions) bool {
	// Unverified submissions only show up in admin views, which read the raw collection.
	if !poi.Verified {
		return false
	}

	amenityRules := []struct {
		constraint models.TriState
		tag        models.Amenity
	}{
		{c.Accessible, models.AmenityAccessible},
		{c.BabyChanging, models.AmenityBabyChanging},
		{c.Paper, models.AmenityPaper},
		{c.Soap, models.AmenitySoap},
		{c.Sink, models.AmenitySink},
	}
	for _, rule := range amenityRules {
		if !rule.constraint.Allows(poi.HasAmenity(rule.tag)) {
			return false
		}
	}

	if !c.Free.Allows(poi.IsFree) {
		return false
	}

	if len(c.Types) == 0 {
		return true
	}
	for _, t := range c.Types {
		if poi.HasAmenity(t) {
			return true
		}
		if opts.ImplicitGenderMatch && (t == models.AmenityMale || t == models.AmenityFemale) && !hasGenderTag(poi) {
			return true
		}
	}
	return false
}

func hasGenderTag(poi models.POI) bool {
	for _, tag := range poi.Amenities {
		if tag.IsGender() {
			return true
		}
	}
	return false
}

// POISnapshot is an immutable view of the POI collection. Version changes whenever
// the contents change.
type POISnapshot struct {
	Version uint64
	POIs    []models.POI
}

// Ranker memoizes FilterAndRank on (snapshot version, criteria, reference position).
// Results are shared between callers and must be treated as read-only.
type Ranker struct {
	opts  RankOptions
	cache *cache.Cache
}

func NewRanker(opts RankOptions, ttl time.Duration) *Ranker {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Ranker{
		opts:  opts,
		cache: cache.New(ttl, 2*ttl),
	}
}

// Rank returns the filtered, ranked POIs for the snapshot.
func (r *Ranker) Rank(snapshot POISnapshot, criteria models.FilterCriteria, ref *models.Position) []models.POI {
	key := rankKey(snapshot.Version, criteria, ref)
	if cached, found := r.cache.Get(key); found {
		metrics.RankerRequests.WithLabelValues("hit").Inc()
		return cached.([]models.POI)
	}

	metrics.RankerRequests.WithLabelValues("miss").Inc()
	result := FilterAndRankWithOptions(snapshot.POIs, criteria, ref, r.opts)
	r.cache.Set(key, result, cache.DefaultExpiration)
	return result
}

func rankKey(version uint64, criteria models.FilterCriteria, ref *models.Position) string {
	refKey := "none"
	if ref != nil {
		// %b is exact, so distinct coordinates never share a key
		refKey = fmt.Sprintf("%b,%b", ref.Latitude, ref.Longitude)
	}
	return fmt.Sprintf("v%d|%s|%s", version, criteria.Key(), refKey)
}
