/*

This file manages the persistent global cycle counter for the APA system.
The cycle counter is stored in the database to ensure continuity across restarts.

*/

package state

import (
	"fmt"
)

// GetCurrentCycleNumber retrieves the current cycle number from the database
func GetCurrentCycleNumber() (int, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	query := `SELECT current_cycle FROM cycle_counter WHERE id = 1;`

	var currentCycle int
	if err := DB.QueryRow(query).Scan(&currentCycle); err != nil {
		return 0, fmt.Errorf("failed to read cycle counter: %w", err)
	}
	return currentCycle, nil
}

// IncrementCycleNumber atomically increments and returns the global cycle
// counter.
func IncrementCycleNumber() (int, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	query := `
		UPDATE cycle_counter
		SET current_cycle = current_cycle + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = 1
		RETURNING current_cycle;
	`

	var cycleNumber int
	if err := DB.QueryRow(query).Scan(&cycleNumber); err != nil {
		return 0, fmt.Errorf("failed to increment cycle counter: %w", err)
	}
	return cycleNumber, nil
}
