package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatementValidator_Validate(t *testing.T) {
	v := NewStatementValidator()

	tests := []struct {
		name       string
		sql        string
		params     int
		wantErrMsg string
	}{
		{
			name:   "grouped select with join and filters",
			sql:    "SELECT `j1`.`name` AS `marketplace`, SUM(`s`.`amount`) AS `amount` FROM `s` LEFT JOIN `m` AS `j1` ON `s`.`m_id` = `j1`.`id` WHERE `s`.`d` BETWEEN ? AND ? AND LOWER(`s`.`r`) LIKE ? ESCAPE '!' GROUP BY `s`.`m_id`, `j1`.`name` ORDER BY `j1`.`name` ASC LIMIT 10",
			params: 3,
		},
		{
			name:   "in list",
			sql:    "SELECT `s`.`r` AS `r` FROM `s` WHERE `s`.`r` IN (?, ?, ?)",
			params: 3,
		},
		{
			name:       "placeholder count mismatch",
			sql:        "SELECT `s`.`r` AS `r` FROM `s` WHERE `s`.`r` = ?",
			params:     2,
			wantErrMsg: "1 placeholders but 2 parameters",
		},
		{
			name:       "not a select",
			sql:        "DELETE FROM `s` WHERE `s`.`id` = ?",
			params:     1,
			wantErrMsg: "only SELECT",
		},
		{
			name:       "stacked statements",
			sql:        "SELECT 1; SELECT 2",
			wantErrMsg: "single statement",
		},
		{
			name:       "unparseable",
			sql:        "SELECT FROM WHERE",
			wantErrMsg: "SQL parse error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.sql, tt.params)
			if tt.wantErrMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErrMsg)
		})
	}
}
