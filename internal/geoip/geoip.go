// Package geoip resolves client IP addresses to a country and city
// using a MaxMind city database.
package geoip

import (
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// Locator wraps a geoip2 reader. A nil Locator is valid and resolves
// nothing, so enrichment can be disabled by configuration.
type Locator struct {
	reader *geoip2.Reader
}

// Open loads the database at path. An empty path returns a nil Locator.
func Open(path string) (*Locator, error) {
	const op = "geoip.Open"

	if path == "" {
		return nil, nil
	}

	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open geoip database: %w", op, err)
	}

	return &Locator{reader: reader}, nil
}

func (l *Locator) Close() error {
	if l == nil || l.reader == nil {
		return nil
	}
	return l.reader.Close()
}

// Locate returns the country and city for an IP address. Unknown or
// unparseable addresses yield empty strings.
func (l *Locator) Locate(ipStr string) (country, city string) {
	if l == nil || l.reader == nil {
		return "", ""
	}

	ip := net.ParseIP(ipStr)
	if ip == nil {
		return "", ""
	}

	record, err := l.reader.City(ip)
	if err != nil {
		return "", ""
	}

	if name, ok := record.Country.Names["en"]; ok {
		country = name
	} else {
		country = record.Country.IsoCode
	}
	if name, ok := record.City.Names["en"]; ok {
		city = name
	}

	return country, city
}
