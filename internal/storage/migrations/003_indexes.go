package migrations

import "gorm.io/gorm"

// migration003Up creates lookup indexes
func migration003Up(db *gorm.DB) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_gatherings_owner ON gatherings(owner_id)",

		"CREATE INDEX IF NOT EXISTS idx_events_gathering ON events(gathering_id)",
		"CREATE INDEX IF NOT EXISTS idx_events_host ON events(host_id)",

		"CREATE INDEX IF NOT EXISTS idx_event_participants_user ON event_participants(user_id)",

		"CREATE INDEX IF NOT EXISTS idx_polls_event_created ON polls(event_id, created_at, id)",
		"CREATE INDEX IF NOT EXISTS idx_polls_active ON polls(event_id) WHERE active",

		"CREATE INDEX IF NOT EXISTS idx_poll_votes_voter ON poll_votes(voter_id)",
		"CREATE INDEX IF NOT EXISTS idx_poll_votes_counted ON poll_votes(poll_id, selected_option) WHERE counted",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			return err
		}
	}

	return nil
}

// migration003Down drops the lookup indexes
func migration003Down(db *gorm.DB) error {
	indexes := []string{
		"idx_poll_votes_counted",
		"idx_poll_votes_voter",
		"idx_polls_active",
		"idx_polls_event_created",
		"idx_event_participants_user",
		"idx_events_host",
		"idx_events_gathering",
		"idx_gatherings_owner",
	}

	for _, index := range indexes {
		if err := db.Exec("DROP INDEX IF EXISTS " + index).Error; err != nil {
			return err
		}
	}

	return nil
}
