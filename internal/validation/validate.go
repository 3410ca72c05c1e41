package validation

import (
	"strconv"

	"github.com/vvka-141/bookshelf/internal/catalog"
)

// Validate checks one raw item and returns either its canonical volume or
// every issue found. Fields not known to the catalog are dropped.
func Validate(raw any) Result {
	c := &checker{}
	root, ok := c.object(raw, nil)
	if !ok {
		return Result{Issues: c.issues}
	}

	volume := catalog.Volume{}
	volume.ID = c.requiredString(root, "id", 0, nil)
	if id, ok := root["id"].(string); ok && id == "" {
		c.fail(msgEmpty, []string{"id"})
	}

	if info, ok := c.requiredObject(root, "volumeInfo", nil); ok {
		volume.VolumeInfo = c.volumeInfo(info, []string{"volumeInfo"})
	}
	if sale, ok := c.optionalObject(root, "saleInfo", nil); ok {
		volume.SaleInfo = c.saleInfo(sale, []string{"saleInfo"})
	}
	if access, ok := c.optionalObject(root, "accessInfo", nil); ok {
		volume.AccessInfo = c.accessInfo(access, []string{"accessInfo"})
	}

	if len(c.issues) > 0 {
		return Result{Issues: c.issues}
	}
	return Result{Volume: &volume}
}

func (c *checker) volumeInfo(m map[string]any, loc []string) catalog.VolumeInfo {
	info := catalog.VolumeInfo{
		Title:          c.requiredString(m, "title", MaxTitleLen, loc),
		Subtitle:       c.optionalString(m, "subtitle", MaxSubtitleLen, loc),
		Authors:        c.stringList(m, "authors", MaxAuthorLen, loc),
		Publisher:      c.optionalString(m, "publisher", MaxPublisherLen, loc),
		PublishedDate:  c.publishedDate(m, "publishedDate", loc),
		PageCount:      c.optionalInt(m, "pageCount", loc),
		Categories:     c.stringList(m, "categories", MaxCategoryLen, loc),
		AverageRating:  c.optionalFloat(m, "averageRating", loc),
		RatingsCount:   c.optionalInt(m, "ratingsCount", loc),
		MaturityRating: c.optionalString(m, "maturityRating", MaxMaturityRatingLen, loc),
		Language:       c.optionalString(m, "language", MaxLanguageLen, loc),
	}
	info.IndustryIdentifiers = c.identifiers(m, "industryIdentifiers", loc)
	return info
}

func (c *checker) identifiers(m map[string]any, key string, loc []string) []catalog.IndustryIdentifier {
	v, ok := present(m, key)
	if !ok {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		c.fail(msgList, at(loc, key))
		return nil
	}

	out := make([]catalog.IndustryIdentifier, 0, len(items))
	for i, item := range items {
		itemLoc := at(at(loc, key), strconv.Itoa(i))
		entry, ok := c.object(item, itemLoc)
		if !ok {
			continue
		}
		out = append(out, catalog.IndustryIdentifier{
			Type:       c.requiredString(entry, "type", MaxIdentifierTypeLen, itemLoc),
			Identifier: c.requiredString(entry, "identifier", MaxIdentifierLen, itemLoc),
		})
	}
	return out
}

func (c *checker) saleInfo(m map[string]any, loc []string) *catalog.SaleInfo {
	sale := &catalog.SaleInfo{
		Country:     c.optionalString(m, "country", MaxCountryLen, loc),
		Saleability: c.optionalString(m, "saleability", MaxSaleabilityLen, loc),
		IsEbook:     c.requiredBool(m, "isEbook", loc),
	}
	if price, ok := c.optionalObject(m, "listPrice", loc); ok {
		sale.ListPrice = &catalog.Price{Amount: c.decimal(price, "amount", at(loc, "listPrice"))}
	}
	if price, ok := c.optionalObject(m, "retailPrice", loc); ok {
		sale.RetailPrice = &catalog.Price{Amount: c.decimal(price, "amount", at(loc, "retailPrice"))}
	}
	return sale
}

func (c *checker) accessInfo(m map[string]any, loc []string) *catalog.AccessInfo {
	access := &catalog.AccessInfo{
		Country:                c.optionalString(m, "country", MaxCountryLen, loc),
		Viewability:            c.optionalString(m, "viewability", MaxViewabilityLen, loc),
		TextToSpeechPermission: c.optionalString(m, "textToSpeechPermission", MaxTextToSpeechLen, loc),
	}
	if epub, ok := c.optionalObject(m, "epub", loc); ok {
		access.Epub = &catalog.Availability{IsAvailable: c.requiredBool(epub, "isAvailable", at(loc, "epub"))}
	}
	if pdf, ok := c.optionalObject(m, "pdf", loc); ok {
		access.PDF = &catalog.Availability{IsAvailable: c.requiredBool(pdf, "isAvailable", at(loc, "pdf"))}
	}
	return access
}
