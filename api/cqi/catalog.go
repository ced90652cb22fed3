// Package cqi implements the query-construction and result-normalization
// pipeline behind the dashboard API: the metric catalog, filter parsing,
// aggregate SQL assembly, numeric sanitization and the cluster-map resolver.
package cqi

// metricDefinition pairs an internal warehouse metric id with the display
// name the dashboard shows.
type metricDefinition struct {
	id      string
	display string
}

// defaultMetrics is the fixed allow-list of reporting-window metrics, in
// dashboard order. Every statement the builder emits is constrained to
// these ids.
var defaultMetrics = []metricDefinition{
	{"VOICE_CDR_RET_25", "Voice Retainability"},
	{"VOLTE_CDR_MOMT_ACC_25", "Voice Accessibility"},
	{"VOLTE_RAN_ACBACC_25_ALL", "RAN Accessibility"},
	{"ALLRAT_DACC_25", "Data Accessibility"},
	{"ALLRAT_DDR_25", "Data Retainability"},
	{"ALLRAT_DL_TPUT_25", "Downlink Throughput"},
	{"ALLRAT_UL_TPUT_25", "Uplink Throughput"},
	{"LTE_IQI_NS_ESO_25", "Network Signal ESO"},
	{"LTE_IQI_RSRP_25", "Signal Strength (RSRP)"},
	{"LTE_IQI_QUALITY_25", "Signal Quality"},
	{"VOLTE_WIFI_CDR_25", "WiFi Calling Retainability"},
}

// Catalog maps between internal metric ids and display names, and holds the
// ordered allow-list. Built once in main and passed to the components that
// need it.
type Catalog struct {
	forward   map[string]string
	reverse   map[string]string
	allowList []string
	displays  []string
}

// NewCatalog builds the catalog from the fixed metric definitions.
func NewCatalog() *Catalog {
	c := &Catalog{
		forward: make(map[string]string, len(defaultMetrics)),
		reverse: make(map[string]string, len(defaultMetrics)),
	}
	for _, m := range defaultMetrics {
		c.forward[m.id] = m.display
		c.reverse[m.display] = m.id
		c.allowList = append(c.allowList, m.id)
		c.displays = append(c.displays, m.display)
	}
	return c
}

// Forward resolves an internal id to its display name.
func (c *Catalog) Forward(id string) (string, bool) {
	d, ok := c.forward[id]
	return d, ok
}

// Reverse resolves a display name to its internal id.
func (c *Catalog) Reverse(display string) (string, bool) {
	id, ok := c.reverse[display]
	return id, ok
}

// AllowList returns the ordered internal ids. Callers must not mutate the
// returned slice.
func (c *Catalog) AllowList() []string {
	return c.allowList
}

// DisplayNames returns the display names in allow-list order.
func (c *Catalog) DisplayNames() []string {
	return c.displays
}

// Mapping returns a display-name-to-id map for the /filters payload.
func (c *Catalog) Mapping() map[string]string {
	m := make(map[string]string, len(c.reverse))
	for display, id := range c.reverse {
		m[display] = id
	}
	return m
}
