package staging

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"

	"railbridge/pkg/types"
)

// GetMapping returns the Jira key recorded for a source entity, or
// types.ErrNotFound when the entity has not been migrated yet.
func (s *Store) GetMapping(entityType string, entityID int) (string, error) {
	if !types.ValidMappingEntityType(entityType) {
		return "", fmt.Errorf("mapping %s/%d: %w", entityType, entityID, types.ErrInvalidEntityType)
	}
	var key string
	err := s.db.QueryRow(`SELECT jira_key FROM jira_mappings
        WHERE entity_type = ? AND entity_id = ?`, entityType, entityID).Scan(&key)
	if err == sql.ErrNoRows {
		return "", types.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("looking up mapping %s/%d: %w", entityType, entityID, err)
	}
	return key, nil
}

// PutMapping records a confirmed source-to-Jira correspondence. Re-recording
// the same pair overwrites, so a retried migration converges instead of
// duplicating.
func (s *Store) PutMapping(entityType string, entityID int, jiraKey string) error {
	if !types.ValidMappingEntityType(entityType) {
		return fmt.Errorf("mapping %s/%d: %w", entityType, entityID, types.ErrInvalidEntityType)
	}
	_, err := s.db.Exec(`INSERT OR REPLACE INTO jira_mappings
        (entity_type, entity_id, jira_key) VALUES (?, ?, ?)`,
		entityType, entityID, jiraKey)
	if err != nil {
		return fmt.Errorf("recording mapping %s/%d: %w", entityType, entityID, err)
	}
	return nil
}

// CountMappings returns the number of recorded mappings per entity type.
// Types with no mappings yet are present with a zero count.
func (s *Store) CountMappings() (map[string]int, error) {
	counts := make(map[string]int, len(types.MappingEntityTypes))
	for _, et := range types.MappingEntityTypes {
		counts[et] = 0
	}
	rows, err := s.db.Query(`SELECT entity_type, COUNT(*) FROM jira_mappings GROUP BY entity_type`)
	if err != nil {
		return nil, fmt.Errorf("counting mappings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var et string
		var n int
		if err := rows.Scan(&et, &n); err != nil {
			return nil, fmt.Errorf("scanning mapping count: %w", err)
		}
		counts[et] = n
	}
	return counts, rows.Err()
}

// AllMappings returns every recorded mapping ordered by type then source id.
func (s *Store) AllMappings() ([]types.Mapping, error) {
	rows, err := s.db.Query(`SELECT entity_type, entity_id, jira_key
        FROM jira_mappings ORDER BY entity_type, entity_id`)
	if err != nil {
		return nil, fmt.Errorf("querying mappings: %w", err)
	}
	defer rows.Close()

	var out []types.Mapping
	for rows.Next() {
		var m types.Mapping
		if err := rows.Scan(&m.EntityType, &m.EntityID, &m.JiraKey); err != nil {
			return nil, fmt.Errorf("scanning mapping: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ExportMappings writes every mapping to path as JSON, grouped by entity type
// with source ids as object keys. The file is a portable audit record of the
// migration and the input for ImportMappings.
func (s *Store) ExportMappings(path string) error {
	mappings, err := s.AllMappings()
	if err != nil {
		return err
	}

	grouped := make(map[string]map[string]string, len(types.MappingEntityTypes))
	for _, et := range types.MappingEntityTypes {
		grouped[et] = make(map[string]string)
	}
	for _, m := range mappings {
		if grouped[m.EntityType] == nil {
			grouped[m.EntityType] = make(map[string]string)
		}
		grouped[m.EntityType][strconv.Itoa(m.EntityID)] = m.JiraKey
	}

	data, err := json.MarshalIndent(grouped, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding mappings: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing mapping file: %w", err)
	}
	return nil
}

// ImportMappings replaces the mapping table with the contents of a previously
// exported file. Entity types not listed in the file are cleared too, so the
// table always matches the file exactly.
func (s *Store) ImportMappings(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading mapping file: %w", err)
	}
	var grouped map[string]map[string]string
	if err := json.Unmarshal(data, &grouped); err != nil {
		return fmt.Errorf("decoding mapping file: %w", err)
	}

	return s.batch(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM jira_mappings`); err != nil {
			return fmt.Errorf("clearing mappings: %w", err)
		}
		for et, entries := range grouped {
			if !types.ValidMappingEntityType(et) {
				return fmt.Errorf("mapping file entity type %q: %w", et, types.ErrInvalidEntityType)
			}
			ids := make([]string, 0, len(entries))
			for id := range entries {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				entityID, err := strconv.Atoi(id)
				if err != nil {
					return fmt.Errorf("mapping file id %q for %s: %w", id, et, err)
				}
				_, err = tx.Exec(`INSERT OR REPLACE INTO jira_mappings
                    (entity_type, entity_id, jira_key) VALUES (?, ?, ?)`,
					et, entityID, entries[id])
				if err != nil {
					return fmt.Errorf("restoring mapping %s/%d: %w", et, entityID, err)
				}
			}
		}
		return nil
	})
}
