package coc

import "strconv"

// Section names, in classification priority order.
const (
	SectionCompanyLocation = "companyLocationInfo"
	SectionContactProject  = "contactProjectInfo"
	SectionDataDeliverable = "dataDeliverables"
	SectionContainer       = "containerInfo"
	SectionSampleData      = "collectedSampleDataInfo"
)

// SectionOrder lists the sections in priority order.
var SectionOrder = []string{
	SectionCompanyLocation,
	SectionContactProject,
	SectionDataDeliverable,
	SectionContainer,
	SectionSampleData,
}

const (
	// MaxSamples is the number of sample rows on the form.
	MaxSamples = 20
	// MaxAnalysisMethods is the number of analysis checkboxes per sample.
	MaxAnalysisMethods = 10
)

var companyLocationFields = []string{
	"company_name",
	"street_address",
	"city",
	"state",
	"zip_code",
	"city_state_zip",
	"country",
	"site_location",
	"sample_origin_state",
	"time_zone_collected",
}

var contactProjectFields = []string{
	"customer_project_name",
	"project_number",
	"project_manager",
	"report_to_contact",
	"email",
	"phone",
	"fax",
	"invoice_to",
	"invoice_email",
	"purchase_order_number",
	"quote_number",
	"site_facility_id",
	"sampler_name",
	"sampler_signature",
}

var dataDeliverableFields = []string{
	"data_deliverable_level",
	"edd_format",
	"regulatory_program",
	"reportable_compliance",
	"dw_pws_id",
	"turnaround_time",
	"rush_result_date",
	"field_filtered",
	"lab_notes",
}

var containerFields = []string{
	"container_size",
	"container_type",
	"preservative_type",
	"number_of_containers",
	"cooler_temperature",
	"custody_seal",
	"relinquished_by",
	"relinquished_date_time",
	"received_by",
	"received_date_time",
}

// Plain fields that live in the sample section but belong to no sample.
var sampleSectionPlainFields = []string{
	"sample_matrix_legend",
	"total_containers",
	"additional_comments",
}

var customerSampleSuffixes = []string{
	"",
	"_matrix",
	"_comp",
	"_start_date",
	"_start_time",
	"_end_date",
	"_end_time",
}

var labSampleSuffixes = []string{
	"_lab_id",
	"_containers",
	"_comments",
}

// sampleDataFields enumerates every recognized sample-section type, sample
// by sample, in the order the form lays them out.
func sampleDataFields() []string {
	out := make([]string, 0, MaxSamples*(len(customerSampleSuffixes)+len(labSampleSuffixes)+1+MaxAnalysisMethods)+len(sampleSectionPlainFields))
	for n := 1; n <= MaxSamples; n++ {
		id := strconv.Itoa(n)
		for _, s := range customerSampleSuffixes {
			out = append(out, "customer_sample_id_"+id+s)
		}
		for _, s := range labSampleSuffixes {
			out = append(out, "sample_id_"+id+s)
		}
		out = append(out, "analysis_request_"+id)
		for nn := 1; nn <= MaxAnalysisMethods; nn++ {
			out = append(out, AnalysisMethodType(n, nn))
		}
	}
	return append(out, sampleSectionPlainFields...)
}

// Type names emitted by older extraction models. They are still accepted
// into their section but have no slot in the canonical order.
var legacyAliases = map[string][]string{
	SectionCompanyLocation: {"address", "zip"},
	SectionContactProject:  {"project_name", "contact_name"},
	SectionContainer:       {"preservative"},
}

type sectionCatalog struct {
	name    string
	order   []string
	index   map[string]int
	allowed map[string]struct{}
}

func newSectionCatalog(name string, order []string) sectionCatalog {
	c := sectionCatalog{
		name:    name,
		order:   order,
		index:   make(map[string]int, len(order)),
		allowed: make(map[string]struct{}, len(order)),
	}
	for i, t := range order {
		if _, dup := c.index[t]; !dup {
			c.index[t] = i
		}
		c.allowed[t] = struct{}{}
	}
	for _, t := range legacyAliases[name] {
		c.allowed[t] = struct{}{}
	}
	return c
}

func (c sectionCatalog) allows(typ string) bool {
	_, ok := c.allowed[typ]
	return ok
}

// position returns the canonical index of typ, or -1 when the type is not
// listed in the section order.
func (c sectionCatalog) position(typ string) int {
	if i, ok := c.index[typ]; ok {
		return i
	}
	return -1
}

var catalogs = []sectionCatalog{
	newSectionCatalog(SectionCompanyLocation, companyLocationFields),
	newSectionCatalog(SectionContactProject, contactProjectFields),
	newSectionCatalog(SectionDataDeliverable, dataDeliverableFields),
	newSectionCatalog(SectionContainer, containerFields),
	newSectionCatalog(SectionSampleData, sampleDataFields()),
}

func catalogFor(section string) (sectionCatalog, bool) {
	for _, c := range catalogs {
		if c.name == section {
			return c, true
		}
	}
	return sectionCatalog{}, false
}

// SectionFields returns a copy of the canonical field order for a section.
func SectionFields(section string) []string {
	c, ok := catalogFor(section)
	if !ok {
		return nil
	}
	return append([]string(nil), c.order...)
}

// SectionOf returns the first section whose allow-list contains typ.
func SectionOf(typ string) (string, bool) {
	for _, c := range catalogs {
		if c.allows(typ) {
			return c.name, true
		}
	}
	return "", false
}

// IsSection reports whether name is one of the five section names.
func IsSection(name string) bool {
	for _, s := range SectionOrder {
		if s == name {
			return true
		}
	}
	return false
}
