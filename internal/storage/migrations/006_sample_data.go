package migrations

import "gorm.io/gorm"

const (
	sampleGatheringID = "770e8400-e29b-41d4-a716-446655440000"
	sampleEventID     = "880e8400-e29b-41d4-a716-446655440000"
	samplePollID      = "990e8400-e29b-41d4-a716-446655440000"
	sampleHostID      = "550e8400-e29b-41d4-a716-446655440000"
)

// migration006Up inserts a small gathering for development
func migration006Up(db *gorm.DB) error {
	queries := []string{
		`INSERT INTO gatherings (id, name, owner_id) VALUES
            ('` + sampleGatheringID + `', 'Weekend Hikers', '` + sampleHostID + `')
        ON CONFLICT (id) DO NOTHING`,

		`INSERT INTO events (id, gathering_id, title, host_id, starts_at) VALUES
            ('` + sampleEventID + `', '` + sampleGatheringID + `', 'Autumn ridge walk', '` + sampleHostID + `', '2026-11-07 08:00:00+00')
        ON CONFLICT (id) DO NOTHING`,

		`INSERT INTO event_participants (event_id, user_id) VALUES
            ('` + sampleEventID + `', '` + sampleHostID + `'),
            ('` + sampleEventID + `', '550e8400-e29b-41d4-a716-446655440001'),
            ('` + sampleEventID + `', '550e8400-e29b-41d4-a716-446655440002'),
            ('` + sampleEventID + `', '550e8400-e29b-41d4-a716-446655440003')
        ON CONFLICT (event_id, user_id) DO NOTHING`,

		`INSERT INTO polls (id, gathering_id, event_id, agenda, active) VALUES
            ('` + samplePollID + `', '` + sampleGatheringID + `', '` + sampleEventID + `', 'Where do we meet?', TRUE)
        ON CONFLICT (id) DO NOTHING`,

		`INSERT INTO poll_options (poll_id, option_index, name, vote_count) VALUES
            ('` + samplePollID + `', 0, 'Station car park', 0),
            ('` + samplePollID + `', 1, 'Trailhead', 0)
        ON CONFLICT (poll_id, option_index) DO NOTHING`,
	}

	for _, query := range queries {
		if err := db.Exec(query).Error; err != nil {
			return err
		}
	}

	return nil
}

// migration006Down removes the sample gathering
func migration006Down(db *gorm.DB) error {
	queries := []string{
		"DELETE FROM poll_votes WHERE poll_id = '" + samplePollID + "'",
		"DELETE FROM poll_options WHERE poll_id = '" + samplePollID + "'",
		"DELETE FROM polls WHERE id = '" + samplePollID + "'",
		"DELETE FROM event_participants WHERE event_id = '" + sampleEventID + "'",
		"DELETE FROM events WHERE id = '" + sampleEventID + "'",
		"DELETE FROM gatherings WHERE id = '" + sampleGatheringID + "'",
	}

	for _, query := range queries {
		if err := db.Exec(query).Error; err != nil {
			return err
		}
	}

	return nil
}
