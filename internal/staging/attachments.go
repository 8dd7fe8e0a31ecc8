package staging

import (
	"database/sql"
	"fmt"

	"railbridge/pkg/types"
)

// UpsertAttachments stores attachment metadata in one transaction. LocalPath
// points at the downloaded payload on disk and is only set once the download
// produced a non-empty file.
func (s *Store) UpsertAttachments(attachments []types.Attachment) error {
	return s.batch(func(tx *sql.Tx) error {
		stmt := `INSERT OR REPLACE INTO attachments
            (id, entity_type, entity_id, filename, size, created_on, local_path)
            VALUES (?, ?, ?, ?, ?, ?, ?)`
		for _, a := range attachments {
			_, err := tx.Exec(stmt, a.ID, a.EntityType, a.EntityID,
				a.Filename, a.Size, a.CreatedOn, a.LocalPath)
			if err != nil {
				return fmt.Errorf("upserting attachment %d (%s %d): %w",
					a.ID, a.EntityType, a.EntityID, err)
			}
		}
		return nil
	})
}

// HasAttachment reports whether an attachment row already exists for the
// given parent, so an already-downloaded file is not fetched again.
func (s *Store) HasAttachment(id int, entityType string, entityID int) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM attachments
        WHERE id = ? AND entity_type = ? AND entity_id = ?`,
		id, entityType, entityID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking attachment %d: %w", id, err)
	}
	return n > 0, nil
}

// Attachments returns all staged attachments grouped by parent. Pass an empty
// entityType to get both case and result attachments.
func (s *Store) Attachments(entityType string) ([]types.Attachment, error) {
	query := `SELECT id, entity_type, entity_id, filename, size, created_on, local_path
        FROM attachments`
	var args []any
	if entityType != "" {
		query += ` WHERE entity_type = ?`
		args = append(args, entityType)
	}
	query += ` ORDER BY entity_type, entity_id, id`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying attachments: %w", err)
	}
	defer rows.Close()

	var out []types.Attachment
	for rows.Next() {
		var a types.Attachment
		err := rows.Scan(&a.ID, &a.EntityType, &a.EntityID,
			&a.Filename, &a.Size, &a.CreatedOn, &a.LocalPath)
		if err != nil {
			return nil, fmt.Errorf("scanning attachment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
