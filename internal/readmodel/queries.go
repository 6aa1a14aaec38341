package readmodel

// SQL for the Postgres-backed read models. Tables come from internal/migrations.

const (
	queryGetProjectionVersion = `
		SELECT version
		FROM projection_versions
		WHERE name = $1
	`

	querySetProjectionVersion = `
		INSERT INTO projection_versions (name, version, rebuilt_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET
			version = EXCLUDED.version,
			rebuilt_at = EXCLUDED.rebuilt_at
	`

	queryClearProjectionVersion = `DELETE FROM projection_versions WHERE name = $1`

	queryTruncateCloneLineage = `TRUNCATE TABLE clone_lineage`

	// queryUpsertCloneLineage keeps the most recent clone event per clone id,
	// matching what forward resolution reads from the log.
	queryUpsertCloneLineage = `
		INSERT INTO clone_lineage (kind, clone_id, original_id, clone_family_id, origin_family_id, event_id, cloned_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (kind, clone_id) DO UPDATE SET
			original_id = EXCLUDED.original_id,
			clone_family_id = EXCLUDED.clone_family_id,
			origin_family_id = EXCLUDED.origin_family_id,
			event_id = EXCLUDED.event_id,
			cloned_at = EXCLUDED.cloned_at
		WHERE clone_lineage.cloned_at <= EXCLUDED.cloned_at
	`

	queryGetCloneLineage = `
		SELECT kind, clone_id, original_id, clone_family_id, origin_family_id, event_id, cloned_at
		FROM clone_lineage
		WHERE kind = $1 AND clone_id = $2
	`

	queryListDirectClones = `
		SELECT kind, clone_id, original_id, clone_family_id, origin_family_id, event_id, cloned_at
		FROM clone_lineage
		WHERE kind = $1 AND original_id = $2
		ORDER BY cloned_at ASC, clone_id ASC
	`

	queryTruncatePhotoLocations = `TRUNCATE TABLE photo_locations`

	queryUpsertPhotoLocation = `
		INSERT INTO photo_locations (photo_id, name, latitude, longitude, event_id, set_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (photo_id) DO UPDATE SET
			name = EXCLUDED.name,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			event_id = EXCLUDED.event_id,
			set_at = EXCLUDED.set_at
		WHERE photo_locations.set_at <= EXCLUDED.set_at
	`

	queryGetPhotoLocation = `
		SELECT photo_id, name, latitude, longitude, event_id, set_at
		FROM photo_locations
		WHERE photo_id = $1
	`
)
