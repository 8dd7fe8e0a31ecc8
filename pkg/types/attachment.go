package types

// Attachment parent entity types. The parent is a tagged union: an attachment
// hangs off either a case or a result, discriminated by EntityType.
const (
	AttachmentParentCase   = "case"
	AttachmentParentResult = "result"
)

// Attachment is a staged binary. A row is only valid once the file at
// LocalPath has been downloaded and verified non-empty; rows are keyed by
// (ID, EntityType, EntityID) since the source may report the same attachment
// id under different parents.
type Attachment struct {
	ID         int    `json:"id"`
	EntityType string `json:"-"`
	EntityID   int    `json:"-"`
	Filename   string `json:"filename"`
	Size       int64  `json:"size"`
	CreatedOn  int64  `json:"created_on"`
	LocalPath  string `json:"-"`
}
