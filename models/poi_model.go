package models

type Status string

const (
	StatusOpen    Status = "open"
	StatusClosed  Status = "closed"
	StatusUnknown Status = "unknown"
)

type Category string

const (
	CategoryPublic     Category = "public"
	CategoryCommerce   Category = "commerce"
	CategoryRestaurant Category = "restaurant"
	CategoryGasStation Category = "gas_station"
	CategoryOther      Category = "other"
)

// Amenity is a facet tag. A POI's amenities are a set; order carries no meaning.
type Amenity string

const (
	AmenityAccessible   Amenity = "accessible"
	AmenityBabyChanging Amenity = "baby_changing"
	AmenityPaper        Amenity = "paper"
	AmenitySoap         Amenity = "soap"
	AmenitySink         Amenity = "sink"
	AmenityPrivate      Amenity = "private"
	AmenityUnisex       Amenity = "unisex"
	AmenityMale         Amenity = "male"
	AmenityFemale       Amenity = "female"
)

// Valid reports whether a is one of the known tags.
func (a Amenity) Valid() bool {
	switch a {
	case AmenityAccessible, AmenityBabyChanging, AmenityPaper, AmenitySoap, AmenitySink,
		AmenityPrivate, AmenityUnisex, AmenityMale, AmenityFemale:
		return true
	}
	return false
}

// IsGender reports whether the tag is one of the gender-availability tags.
func (a Amenity) IsGender() bool {
	return a == AmenityMale || a == AmenityFemale || a == AmenityUnisex
}

type POI struct {
	ID          string    `json:"id" bson:"_id,omitempty"`
	Name        string    `json:"name" bson:"name"`
	Latitude    float64   `json:"latitude" bson:"latitude"`
	Longitude   float64   `json:"longitude" bson:"longitude"`
	Address     string    `json:"address,omitempty" bson:"address,omitempty"`
	Type        Category  `json:"type" bson:"type"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Price       float64   `json:"price" bson:"price"`
	IsFree      bool      `json:"is_free" bson:"is_free"`
	Rating      float64   `json:"rating" bson:"rating"`
	VoteCount   int       `json:"vote_count" bson:"vote_count"`
	Status      Status    `json:"status" bson:"status"`
	OpeningTime string    `json:"opening_time,omitempty" bson:"opening_time,omitempty"`
	ClosingTime string    `json:"closing_time,omitempty" bson:"closing_time,omitempty"`
	Amenities   []Amenity `json:"amenities" bson:"amenities"`
	Verified    bool      `json:"verified" bson:"verified"`
	Photos      []string  `json:"photos,omitempty" bson:"photos,omitempty"`
}

// HasAmenity is a membership test over the POI's tags.
func (p POI) HasAmenity(a Amenity) bool {
	for _, tag := range p.Amenities {
		if tag == a {
			return true
		}
	}
	return false
}

// FeaturedPhoto returns the first photo URL, or "" when there are none.
func (p POI) FeaturedPhoto() string {
	if len(p.Photos) == 0 {
		return ""
	}
	return p.Photos[0]
}
