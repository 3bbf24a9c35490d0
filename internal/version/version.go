// ABOUTME: Version constants
// ABOUTME: Identifies the product in logs and mDNS advertisements
package version

const (
	Product      = "WaveTap"
	Manufacturer = "WaveTap"
	Version      = "0.1.0"
)
