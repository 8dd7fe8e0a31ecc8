package types

// Mapping entity types. Milestone mappings hold a numeric Jira version id
// rendered as text; the rest hold Jira issue keys.
const (
	EntityCase      = "case"
	EntitySuite     = "suite"
	EntityRun       = "run"
	EntityMilestone = "milestone"
)

// MappingEntityTypes lists the entity types covered by the mapping store,
// in report order.
var MappingEntityTypes = []string{EntityCase, EntitySuite, EntityRun, EntityMilestone}

// Mapping records that the source entity (EntityType, EntityID) has been
// materialized at the destination as JiraKey. A mapping exists if and only if
// the destination artifact was confirmed created.
type Mapping struct {
	EntityType string `json:"entity_type"`
	EntityID   int    `json:"entity_id"`
	JiraKey    string `json:"jira_key"`
}

// ValidMappingEntityType reports whether t is a recognized mapping entity type.
func ValidMappingEntityType(t string) bool {
	for _, e := range MappingEntityTypes {
		if e == t {
			return true
		}
	}
	return false
}
