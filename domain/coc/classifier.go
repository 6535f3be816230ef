package coc

import "sort"

// Sections holds the entities of one document split by section.
type Sections struct {
	CompanyLocationInfo     []Entity `json:"companyLocationInfo"`
	ContactProjectInfo      []Entity `json:"contactProjectInfo"`
	DataDeliverables        []Entity `json:"dataDeliverables"`
	ContainerInfo           []Entity `json:"containerInfo"`
	CollectedSampleDataInfo []Entity `json:"collectedSampleDataInfo"`
}

// NewSections returns Sections with every section non-nil, so the blob always
// serializes five arrays.
func NewSections() Sections {
	return Sections{
		CompanyLocationInfo:     []Entity{},
		ContactProjectInfo:      []Entity{},
		DataDeliverables:        []Entity{},
		ContainerInfo:           []Entity{},
		CollectedSampleDataInfo: []Entity{},
	}
}

// Get returns a pointer to the named section, or nil for an unknown name.
func (s *Sections) Get(name string) *[]Entity {
	switch name {
	case SectionCompanyLocation:
		return &s.CompanyLocationInfo
	case SectionContactProject:
		return &s.ContactProjectInfo
	case SectionDataDeliverable:
		return &s.DataDeliverables
	case SectionContainer:
		return &s.ContainerInfo
	case SectionSampleData:
		return &s.CollectedSampleDataInfo
	}
	return nil
}

// Len is the total number of entities across all sections.
func (s Sections) Len() int {
	return len(s.CompanyLocationInfo) + len(s.ContactProjectInfo) + len(s.DataDeliverables) +
		len(s.ContainerInfo) + len(s.CollectedSampleDataInfo)
}

// Classify splits entities into the five sections. Entities with a null value,
// an empty type, or a type no section recognizes are dropped. Each section is
// then stably sorted by canonical field order; types absent from the order
// (legacy aliases) get position -1 and therefore sort ahead of known fields.
func Classify(entities []Entity) Sections {
	out := NewSections()
	for _, e := range entities {
		if e.Type == "" || !e.HasValue() {
			continue
		}
		for _, c := range catalogs {
			if c.allows(e.Type) {
				bucket := out.Get(c.name)
				*bucket = append(*bucket, e)
				break
			}
		}
	}

	for _, c := range catalogs {
		bucket := *out.Get(c.name)
		sort.SliceStable(bucket, func(i, j int) bool {
			return c.position(bucket[i].Type) < c.position(bucket[j].Type)
		})
	}
	return out
}
