// Package validation turns raw catalog API items into canonical volumes.
//
// Validate checks one item field by field and collects every issue before
// deciding, so a rejected item reports all of its problems at once. Manager
// applies Validate to a whole raw partition and gates the partition on the
// share of items that passed.
package validation
