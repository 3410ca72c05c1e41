package validation

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/bookshelf/internal/catalog"
)

// decode parses JSON the way raw pages are read.
func decode(t *testing.T, s string) any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	require.NoError(t, dec.Decode(&v))
	return v
}

const fullItem = `{
  "kind": "books#volume",
  "id": "Zs7rAwAAQBAJ",
  "etag": "x1",
  "volumeInfo": {
    "title": "Not Very Scary",
    "subtitle": "A Halloween Story",
    "authors": ["Carol Brendler"],
    "publisher": "Schwartz & Wade",
    "publishedDate": "2014-08-12",
    "industryIdentifiers": [
      {"type": "ISBN_13", "identifier": "9780385752992"},
      {"type": "ISBN_10", "identifier": "0385752997"}
    ],
    "pageCount": 40,
    "categories": ["Juvenile Fiction"],
    "averageRating": 4.5,
    "ratingsCount": 2,
    "maturityRating": "NOT_MATURE",
    "language": "en",
    "previewLink": "http://books.google.com/books?id=Zs7rAwAAQBAJ"
  },
  "saleInfo": {
    "country": "US",
    "saleability": "FOR_SALE",
    "isEbook": true,
    "listPrice": {"amount": 10.99, "currencyCode": "USD"},
    "retailPrice": {"amount": 8.99, "currencyCode": "USD"}
  },
  "accessInfo": {
    "country": "US",
    "viewability": "PARTIAL",
    "textToSpeechPermission": "ALLOWED_FOR_ACCESSIBILITY",
    "epub": {"isAvailable": true},
    "pdf": {"isAvailable": false}
  }
}`

func locs(issues []Issue) []string {
	out := make([]string, 0, len(issues))
	for _, i := range issues {
		out = append(out, i.Path())
	}
	return out
}

func TestValidate_FullItem(t *testing.T) {
	result := Validate(decode(t, fullItem))
	require.True(t, result.Valid(), "issues: %v", result.Issues)

	v := result.Volume
	assert.Equal(t, "Zs7rAwAAQBAJ", v.ID)
	assert.Equal(t, "Not Very Scary", v.VolumeInfo.Title)
	assert.Equal(t, "A Halloween Story", *v.VolumeInfo.Subtitle)
	assert.Equal(t, []string{"Carol Brendler"}, v.VolumeInfo.Authors)
	assert.Equal(t, "2014-08-12", v.VolumeInfo.PublishedDate.String())
	assert.Equal(t, int64(40), *v.VolumeInfo.PageCount)
	assert.Equal(t, 4.5, *v.VolumeInfo.AverageRating)
	assert.Len(t, v.VolumeInfo.IndustryIdentifiers, 2)
	assert.Equal(t, json.Number("10.99"), v.SaleInfo.ListPrice.Amount)
	assert.Equal(t, json.Number("8.99"), v.SaleInfo.RetailPrice.Amount)
	assert.True(t, v.SaleInfo.IsEbook)
	assert.True(t, v.AccessInfo.Epub.IsAvailable)
	assert.False(t, v.AccessInfo.PDF.IsAvailable)
}

func TestValidate_MinimalItem(t *testing.T) {
	result := Validate(decode(t, `{"id": "a", "volumeInfo": {"title": "T"}}`))
	require.True(t, result.Valid())
	assert.Nil(t, result.Volume.SaleInfo)
	assert.Nil(t, result.Volume.AccessInfo)
	assert.Nil(t, result.Volume.VolumeInfo.Authors)
	assert.Nil(t, result.Volume.VolumeInfo.PublishedDate)
}

func TestValidate_DropsUnknownFields(t *testing.T) {
	result := Validate(decode(t, fullItem))
	require.True(t, result.Valid())

	data, err := json.Marshal(result.Volume)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "etag")
	assert.NotContains(t, string(data), "previewLink")
	assert.NotContains(t, string(data), "currencyCode")
}

func TestValidate_PublishedDateNormalization(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2010", "2010-01-01"},
		{"1995-01", "1995-01-01"},
		{"2014-08-12", "2014-08-12"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			raw := decode(t, `{"id": "a", "volumeInfo": {"title": "T", "publishedDate": "`+tt.in+`"}}`)
			result := Validate(raw)
			require.True(t, result.Valid(), "issues: %v", result.Issues)
			assert.Equal(t, tt.want, result.Volume.VolumeInfo.PublishedDate.String())
		})
	}
}

func TestValidate_MalformedDates(t *testing.T) {
	for _, in := range []string{"2010-13", "20101", "2010-02-30", "circa 1900", "", "0000", "0000-05-01"} {
		t.Run(in, func(t *testing.T) {
			raw := decode(t, `{"id": "a", "volumeInfo": {"title": "T", "publishedDate": "`+in+`"}}`)
			result := Validate(raw)
			require.False(t, result.Valid())
			assert.Equal(t, []string{"volumeInfo.publishedDate"}, locs(result.Issues))
		})
	}
}

func TestValidate_MissingID(t *testing.T) {
	result := Validate(decode(t, `{"volumeInfo": {"title": "T"}}`))
	require.False(t, result.Valid())
	require.Len(t, result.Issues, 1)
	assert.Equal(t, []string{"id"}, result.Issues[0].Loc)
	assert.Equal(t, "Field required", result.Issues[0].Msg)
}

func TestValidate_EmptyID(t *testing.T) {
	result := Validate(decode(t, `{"id": "", "volumeInfo": {"title": "T"}}`))
	require.False(t, result.Valid())
	assert.Equal(t, []string{"id"}, locs(result.Issues))
}

func TestValidate_CollectsAllIssues(t *testing.T) {
	raw := decode(t, `{
		"id": 7,
		"volumeInfo": {
			"authors": ["ok", 3],
			"pageCount": "many",
			"averageRating": "high",
			"language": "english",
			"industryIdentifiers": [{"type": "ISBN_13"}, "x"]
		},
		"saleInfo": {"country": "US", "listPrice": {"amount": "ten"}},
		"accessInfo": {"epub": {}, "pdf": {"isAvailable": "yes"}}
	}`)

	result := Validate(raw)
	require.False(t, result.Valid())
	assert.ElementsMatch(t, []string{
		"id",
		"volumeInfo.title",
		"volumeInfo.authors.1",
		"volumeInfo.pageCount",
		"volumeInfo.averageRating",
		"volumeInfo.language",
		"volumeInfo.industryIdentifiers.0.identifier",
		"volumeInfo.industryIdentifiers.1",
		"saleInfo.isEbook",
		"saleInfo.listPrice.amount",
		"accessInfo.epub.isAvailable",
		"accessInfo.pdf.isAvailable",
	}, locs(result.Issues))
}

func TestValidate_MaxLengths(t *testing.T) {
	tests := []struct {
		name  string
		field string
		json  func(v string) string
		max   int
	}{
		{"title", "volumeInfo.title", func(v string) string { return `{"id":"a","volumeInfo":{"title":"` + v + `"}}` }, MaxTitleLen},
		{"subtitle", "volumeInfo.subtitle", func(v string) string {
			return `{"id":"a","volumeInfo":{"title":"T","subtitle":"` + v + `"}}`
		}, MaxSubtitleLen},
		{"publisher", "volumeInfo.publisher", func(v string) string {
			return `{"id":"a","volumeInfo":{"title":"T","publisher":"` + v + `"}}`
		}, MaxPublisherLen},
		{"author", "volumeInfo.authors.0", func(v string) string {
			return `{"id":"a","volumeInfo":{"title":"T","authors":["` + v + `"]}}`
		}, MaxAuthorLen},
		{"category", "volumeInfo.categories.0", func(v string) string {
			return `{"id":"a","volumeInfo":{"title":"T","categories":["` + v + `"]}}`
		}, MaxCategoryLen},
		{"maturity", "volumeInfo.maturityRating", func(v string) string {
			return `{"id":"a","volumeInfo":{"title":"T","maturityRating":"` + v + `"}}`
		}, MaxMaturityRatingLen},
		{"sale country", "saleInfo.country", func(v string) string {
			return `{"id":"a","volumeInfo":{"title":"T"},"saleInfo":{"isEbook":false,"country":"` + v + `"}}`
		}, MaxCountryLen},
		{"text to speech", "accessInfo.textToSpeechPermission", func(v string) string {
			return `{"id":"a","volumeInfo":{"title":"T"},"accessInfo":{"textToSpeechPermission":"` + v + `"}}`
		}, MaxTextToSpeechLen},
		{"identifier", "volumeInfo.industryIdentifiers.0.identifier", func(v string) string {
			return `{"id":"a","volumeInfo":{"title":"T","industryIdentifiers":[{"type":"OTHER","identifier":"` + v + `"}]}}`
		}, MaxIdentifierLen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			atLimit := Validate(decode(t, tt.json(strings.Repeat("é", tt.max))))
			assert.True(t, atLimit.Valid(), "value of exactly %d characters must pass: %v", tt.max, atLimit.Issues)

			over := Validate(decode(t, tt.json(strings.Repeat("x", tt.max+1))))
			require.False(t, over.Valid())
			assert.Equal(t, []string{tt.field}, locs(over.Issues))
			assert.Contains(t, over.Issues[0].Msg, "at most")
		})
	}
}

func TestValidate_NullOptionalsAreAbsent(t *testing.T) {
	raw := decode(t, `{"id":"a","volumeInfo":{"title":"T","subtitle":null,"authors":null},"saleInfo":null,"accessInfo":{"country":null,"epub":null}}`)
	result := Validate(raw)
	require.True(t, result.Valid(), "issues: %v", result.Issues)
	assert.Nil(t, result.Volume.VolumeInfo.Subtitle)
	assert.Nil(t, result.Volume.SaleInfo)
	require.NotNil(t, result.Volume.AccessInfo)
	assert.Nil(t, result.Volume.AccessInfo.Country)
	assert.Nil(t, result.Volume.AccessInfo.Epub)
}

func TestValidate_NotAnObject(t *testing.T) {
	result := Validate(decode(t, `["id"]`))
	require.False(t, result.Valid())
	assert.Equal(t, msgObject, result.Issues[0].Msg)
	assert.Empty(t, result.Issues[0].Loc)
}

func TestValidate_AmountForms(t *testing.T) {
	for _, amount := range []string{`12`, `12.50`, `"12.50"`, `0.99`} {
		raw := decode(t, `{"id":"a","volumeInfo":{"title":"T"},"saleInfo":{"isEbook":true,"listPrice":{"amount":`+amount+`}}}`)
		result := Validate(raw)
		require.True(t, result.Valid(), "amount %s: %v", amount, result.Issues)
		assert.Equal(t, json.Number(strings.Trim(amount, `"`)), result.Volume.SaleInfo.ListPrice.Amount)
	}

	raw := decode(t, `{"id":"a","volumeInfo":{"title":"T"},"saleInfo":{"isEbook":true,"listPrice":{"currencyCode":"USD"}}}`)
	result := Validate(raw)
	require.False(t, result.Valid())
	assert.Equal(t, []string{"saleInfo.listPrice.amount"}, locs(result.Issues))
}

func TestValidate_StoredColumnBounds(t *testing.T) {
	tests := []struct {
		name string
		in   string
		loc  string
		msg  string
	}{
		{"page count above int32", `"volumeInfo":{"title":"T","pageCount":3000000000}`, "volumeInfo.pageCount", msgIntMax},
		{"ratings count below int32", `"volumeInfo":{"title":"T","ratingsCount":-2147483649}`, "volumeInfo.ratingsCount", msgIntMin},
		{"list price too large", `"volumeInfo":{"title":"T"},"saleInfo":{"isEbook":true,"listPrice":{"amount":12345678}}`, "saleInfo.listPrice.amount", msgAmountSize},
		{"retail price rounds up", `"volumeInfo":{"title":"T"},"saleInfo":{"isEbook":true,"retailPrice":{"amount":"999999.996"}}`, "saleInfo.retailPrice.amount", msgAmountSize},
		{"price exponent", `"volumeInfo":{"title":"T"},"saleInfo":{"isEbook":true,"listPrice":{"amount":1e7}}`, "saleInfo.listPrice.amount", msgAmountSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(decode(t, `{"id":"a",`+tt.in+`}`))
			require.False(t, result.Valid())
			require.Len(t, result.Issues, 1)
			assert.Equal(t, tt.loc, result.Issues[0].Path())
			assert.Equal(t, tt.msg, result.Issues[0].Msg)
		})
	}

	result := Validate(decode(t, `{"id":"a","volumeInfo":{"title":"T","pageCount":2147483647},`+
		`"saleInfo":{"isEbook":true,"listPrice":{"amount":999999.99}}}`))
	require.True(t, result.Valid(), "issues: %v", result.Issues)
	assert.Equal(t, int64(2147483647), *result.Volume.VolumeInfo.PageCount)
	assert.Equal(t, json.Number("999999.99"), result.Volume.SaleInfo.ListPrice.Amount)
}

func TestValidate_IntegralFloatsAreIntegers(t *testing.T) {
	result := Validate(decode(t, `{"id":"a","volumeInfo":{"title":"T","pageCount":96.0,"ratingsCount":3}}`))
	require.True(t, result.Valid())
	assert.Equal(t, int64(96), *result.Volume.VolumeInfo.PageCount)

	result = Validate(decode(t, `{"id":"a","volumeInfo":{"title":"T","pageCount":96.5}}`))
	require.False(t, result.Valid())
	assert.Equal(t, "Input should be a valid integer", result.Issues[0].Msg)
}

func TestValidate_Idempotent(t *testing.T) {
	inputs := []string{
		fullItem,
		`{"id": "a", "volumeInfo": {"title": "T", "publishedDate": "2010"}}`,
		`{"id": "b", "volumeInfo": {"title": "T", "publishedDate": "1995-01"}, "saleInfo": {"isEbook": false}}`,
	}

	for _, in := range inputs {
		first := Validate(decode(t, in))
		require.True(t, first.Valid())

		encoded, err := catalog.MarshalVolumes([]catalog.Volume{*first.Volume})
		require.NoError(t, err)

		dec := json.NewDecoder(bytes.NewReader(encoded))
		dec.UseNumber()
		var items []any
		require.NoError(t, dec.Decode(&items))
		require.Len(t, items, 1)

		second := Validate(items[0])
		require.True(t, second.Valid(), "issues: %v", second.Issues)
		assert.Equal(t, first.Volume, second.Volume)
	}
}

func TestCompleteDate(t *testing.T) {
	assert.Equal(t, "2010-01-01", CompleteDate("2010"))
	assert.Equal(t, "1995-01-01", CompleteDate("1995-01"))
	assert.Equal(t, "2014-08-12", CompleteDate("2014-08-12"))
	assert.Equal(t, "201", CompleteDate("201"))
}
