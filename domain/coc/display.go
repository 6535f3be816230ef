package coc

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

var displayNames = map[string]string{
	"company_name":           "Company Name",
	"street_address":         "Street Address",
	"city_state_zip":         "City/State/Zip",
	"zip_code":               "ZIP Code",
	"sample_origin_state":    "Sample Origin State",
	"time_zone_collected":    "Time Zone Collected",
	"customer_project_name":  "Project Name",
	"project_number":         "Project #",
	"report_to_contact":      "Report To",
	"email":                  "Email To",
	"purchase_order_number":  "PO #",
	"quote_number":           "Quote #",
	"site_facility_id":       "Site/Facility ID #",
	"sampler_name":           "Collected By",
	"data_deliverable_level": "Data Deliverables",
	"edd_format":             "EDD Format",
	"dw_pws_id":              "DW PWS ID #",
	"turnaround_time":        "Turnaround Time",
	"rush_result_date":       "Rush Results Due",
	"cooler_temperature":     "Cooler Temp (°C)",
	"preservative_type":      "Preservative",
	"number_of_containers":   "# of Containers",
	"relinquished_date_time": "Relinquished Date/Time",
	"received_date_time":     "Received Date/Time",
}

// DisplayName maps an entity type to the label shown in the review grids.
func DisplayName(typ string) string {
	if label, ok := displayNames[typ]; ok {
		return label
	}
	words := strings.Fields(strings.ReplaceAll(typ, "_", " "))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
