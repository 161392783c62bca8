package provisioner

import (
	"fmt"
	"strings"
)

// Resource naming follows pattern: appsvc_{type}_linux_{location}
// Example: appsvc_rg_linux_centralus
//
// The names are shared by every app created with the same defaults, so a
// second app lands in the plan of the first one.

const (
	DefaultSku          = "P1V2"
	DefaultLocation     = "Central US"
	DefaultLocationName = "centralus"
)

// skuTiers maps sku names to their tier names
var skuTiers = map[string]string{
	"F1":   "Free",
	"D1":   "Shared",
	"B1":   "Basic",
	"B2":   "Basic",
	"B3":   "Basic",
	"S1":   "Standard",
	"S2":   "Standard",
	"S3":   "Standard",
	"P1":   "Premium",
	"P2":   "Premium",
	"P3":   "Premium",
	"P1V2": "Premium_V2",
	"P2V2": "Premium_V2",
	"P3V2": "Premium_V2",
	"P1V3": "Premium_V3",
	"P2V3": "Premium_V3",
	"P3V3": "Premium_V3",
}

// SkuTier returns the tier name of a sku, "P1V2" -> "Premium_V2"
func SkuTier(sku string) string {
	if tier, ok := skuTiers[strings.ToUpper(sku)]; ok {
		return tier
	}
	return sku
}

// generateGroupName generates the resource group name
// Format: appsvc_rg_linux_{location}
func generateGroupName(locationName string) string {
	return fmt.Sprintf("appsvc_rg_linux_%s", locationName)
}

// generatePlanName generates the app service plan name
// Format: appsvc_asp_linux_{location}
func generatePlanName(locationName string) string {
	return fmt.Sprintf("appsvc_asp_linux_%s", locationName)
}

func (d Defaults) withFallbacks() Defaults {
	if d.Location == "" {
		d.Location = DefaultLocation
	}
	if d.LocationName == "" {
		d.LocationName = DefaultLocationName
	}
	if d.Sku == "" {
		d.Sku = DefaultSku
	}
	return d
}

// Plan composes the summary for an app name
func (d Defaults) Plan(name string) Summary {
	d = d.withFallbacks()

	group := generateGroupName(d.LocationName)
	if d.Group != "" {
		group = d.Group
	}

	return Summary{
		Name:          name,
		ServerFarm:    generatePlanName(d.LocationName),
		ResourceGroup: group,
		Sku:           SkuTier(d.Sku),
		Location:      d.Location,
	}
}
