package migrations

import "gorm.io/gorm"

// migration005Up creates the views used for result checks
func migration005Up(db *gorm.DB) error {
	views := []string{
		`CREATE VIEW poll_counter_drift AS
        SELECT
            o.poll_id,
            o.option_index,
            o.vote_count AS stored_count,
            COALESCE(v.counted_votes, 0) AS counted_votes
        FROM poll_options o
        LEFT JOIN (
            SELECT poll_id, selected_option, COUNT(*) AS counted_votes
            FROM poll_votes
            WHERE counted
            GROUP BY poll_id, selected_option
        ) v ON v.poll_id = o.poll_id AND v.selected_option = o.option_index
        WHERE o.vote_count <> COALESCE(v.counted_votes, 0)`,

		`CREATE VIEW poll_results AS
        SELECT
            p.id AS poll_id,
            p.event_id,
            p.agenda,
            p.active,
            COALESCE(SUM(o.vote_count), 0) AS total_votes,
            COUNT(o.option_index) AS option_count
        FROM polls p
        LEFT JOIN poll_options o ON o.poll_id = p.id
        GROUP BY p.id, p.event_id, p.agenda, p.active`,
	}

	for _, view := range views {
		if err := db.Exec(view).Error; err != nil {
			return err
		}
	}

	return nil
}

// migration005Down drops the views
func migration005Down(db *gorm.DB) error {
	views := []string{"poll_results", "poll_counter_drift"}

	for _, view := range views {
		if err := db.Exec("DROP VIEW IF EXISTS " + view).Error; err != nil {
			return err
		}
	}

	return nil
}
