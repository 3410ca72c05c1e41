package catalog

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the layout of a canonical publication date.
const DateLayout = "2006-01-02"

// Volume is one validated catalog item.
type Volume struct {
	ID         string      `json:"id"`
	VolumeInfo VolumeInfo  `json:"volumeInfo"`
	SaleInfo   *SaleInfo   `json:"saleInfo"`
	AccessInfo *AccessInfo `json:"accessInfo"`
}

// VolumeInfo holds the descriptive fields of a volume.
type VolumeInfo struct {
	Title               string               `json:"title"`
	Subtitle            *string              `json:"subtitle"`
	Authors             []string             `json:"authors"`
	Publisher           *string              `json:"publisher"`
	PublishedDate       *Date                `json:"publishedDate"`
	IndustryIdentifiers []IndustryIdentifier `json:"industryIdentifiers"`
	PageCount           *int64               `json:"pageCount"`
	Categories          []string             `json:"categories"`
	AverageRating       *float64             `json:"averageRating"`
	RatingsCount        *int64               `json:"ratingsCount"`
	MaturityRating      *string              `json:"maturityRating"`
	Language            *string              `json:"language"`
}

// IndustryIdentifier is an external identifier such as an ISBN.
type IndustryIdentifier struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}

// SaleInfo is the marketplace snapshot of a volume.
type SaleInfo struct {
	Country     *string `json:"country"`
	Saleability *string `json:"saleability"`
	IsEbook     bool    `json:"isEbook"`
	ListPrice   *Price  `json:"listPrice"`
	RetailPrice *Price  `json:"retailPrice"`
}

// Price carries only the amount; currency is not stored.
type Price struct {
	Amount json.Number `json:"amount"`
}

// AccessInfo is the access snapshot of a volume.
type AccessInfo struct {
	Country                *string       `json:"country"`
	Viewability            *string       `json:"viewability"`
	TextToSpeechPermission *string       `json:"textToSpeechPermission"`
	Epub                   *Availability `json:"epub"`
	PDF                    *Availability `json:"pdf"`
}

// Availability reports whether a download format is offered.
type Availability struct {
	IsAvailable bool `json:"isAvailable"`
}

// Date is a calendar date without time of day.
type Date struct {
	time.Time
}

// NewDate returns the Date for the given year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a date in YYYY-MM-DD form. Years before 1 are rejected.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, err
	}
	if t.Year() < 1 {
		return Date{}, fmt.Errorf("date %q: year out of range", s)
	}
	return Date{t}, nil
}

// String returns the date in YYYY-MM-DD form.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
