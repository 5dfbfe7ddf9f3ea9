package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/stitts-dev/richard-sim/internal/models"
)

// LoadRosterFile reads a roster CSV from disk
func LoadRosterFile(path string) ([]models.RosterEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open roster: %w", err)
	}
	defer f.Close()

	return ParseRoster(f)
}

// ParseRoster reads "id,player_name[,participation]" rows after a header line.
// Row order is kept; it decides tie-label order.
func ParseRoster(r io.Reader) ([]models.RosterEntry, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	reader.Comment = '#'

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("roster is empty")
		}
		return nil, fmt.Errorf("failed to read roster header: %w", err)
	}
	if len(header) < 2 || strings.TrimSpace(strings.ToLower(header[0])) != "id" {
		return nil, fmt.Errorf("roster header must start with id,player_name, got %q", strings.Join(header, ","))
	}

	var roster []models.RosterEntry
	seen := make(map[int]bool)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read roster: %w", err)
		}
		line, _ := reader.FieldPos(0)

		if len(record) < 2 {
			return nil, fmt.Errorf("roster line %d: expected at least 2 columns, got %d", line, len(record))
		}

		id, err := strconv.Atoi(strings.TrimSpace(record[0]))
		if err != nil {
			return nil, fmt.Errorf("roster line %d: invalid player id %q", line, record[0])
		}
		if seen[id] {
			return nil, fmt.Errorf("roster line %d: duplicate player id %d", line, id)
		}
		seen[id] = true

		entry := models.RosterEntry{
			PlayerID: id,
			Name:     strings.TrimSpace(record[1]),
		}
		if len(record) > 2 && strings.TrimSpace(record[2]) != "" {
			p, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
			if err != nil || p < 0 || p > 1 {
				return nil, fmt.Errorf("roster line %d: participation %q must be a number in [0, 1]", line, record[2])
			}
			entry.Participation = &p
		}
		roster = append(roster, entry)
	}

	if len(roster) == 0 {
		return nil, fmt.Errorf("roster has no players")
	}
	return roster, nil
}
