// Package assets embeds data files shipped inside the binaries.
package assets

import _ "embed"

// DeliveryZonesYAML is the default neighborhood delivery fee table.
//
//go:embed zones.yaml
var DeliveryZonesYAML []byte
