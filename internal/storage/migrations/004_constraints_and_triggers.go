package migrations

import "gorm.io/gorm"

// migration004Up adds the counter and vote constraints and the trigger that
// keeps a finished poll finished
func migration004Up(db *gorm.DB) error {
	constraints := []string{
		`ALTER TABLE poll_options
            ADD CONSTRAINT chk_poll_options_vote_count CHECK (vote_count >= 0),
            ADD CONSTRAINT chk_poll_options_index CHECK (option_index >= 0)`,

		`ALTER TABLE poll_votes
            ADD CONSTRAINT chk_poll_votes_selected_option CHECK (selected_option >= 0),
            ADD CONSTRAINT chk_poll_votes_version CHECK (version >= 0)`,

		`ALTER TABLE poll_votes
            ADD CONSTRAINT fk_poll_votes_option
            FOREIGN KEY (poll_id, selected_option)
            REFERENCES poll_options (poll_id, option_index)
            ON DELETE CASCADE`,

		`ALTER TABLE polls
            ADD CONSTRAINT chk_polls_agenda CHECK (length(trim(agenda)) > 0)`,
	}

	for _, constraint := range constraints {
		if err := db.Exec(constraint).Error; err != nil {
			return err
		}
	}

	if err := db.Exec(`
        CREATE OR REPLACE FUNCTION prevent_poll_reactivation()
        RETURNS TRIGGER AS $$
        BEGIN
            IF OLD.active = FALSE AND NEW.active = TRUE THEN
                RAISE EXCEPTION 'poll % is finished and cannot be reopened', OLD.id
                    USING ERRCODE = 'check_violation';
            END IF;
            RETURN NEW;
        END;
        $$ LANGUAGE plpgsql`).Error; err != nil {
		return err
	}

	return db.Exec(`
        CREATE TRIGGER trg_polls_prevent_reactivation
            BEFORE UPDATE OF active ON polls
            FOR EACH ROW EXECUTE FUNCTION prevent_poll_reactivation()`).Error
}

// migration004Down removes the constraints and the trigger
func migration004Down(db *gorm.DB) error {
	queries := []string{
		"DROP TRIGGER IF EXISTS trg_polls_prevent_reactivation ON polls",
		"DROP FUNCTION IF EXISTS prevent_poll_reactivation()",
		"ALTER TABLE polls DROP CONSTRAINT IF EXISTS chk_polls_agenda",
		"ALTER TABLE poll_votes DROP CONSTRAINT IF EXISTS fk_poll_votes_option",
		"ALTER TABLE poll_votes DROP CONSTRAINT IF EXISTS chk_poll_votes_version",
		"ALTER TABLE poll_votes DROP CONSTRAINT IF EXISTS chk_poll_votes_selected_option",
		"ALTER TABLE poll_options DROP CONSTRAINT IF EXISTS chk_poll_options_index",
		"ALTER TABLE poll_options DROP CONSTRAINT IF EXISTS chk_poll_options_vote_count",
	}

	for _, query := range queries {
		if err := db.Exec(query).Error; err != nil {
			return err
		}
	}

	return nil
}
