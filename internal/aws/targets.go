package aws

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Target is one account and region to estimate
type Target struct {
	Account string `yaml:"account"`
	Region  string `yaml:"region"`
	RoleARN string `yaml:"role_arn"`
}

// String returns the account/region pair used in logs and file names
func (t Target) String() string {
	return fmt.Sprintf("%s/%s", t.Account, t.Region)
}

var accountIDPattern = regexp.MustCompile(`^\d{12}$`)

// LoadTargets reads an input list of account, region, and role ARN. YAML is
// used for .yaml and .yml files, CSV otherwise. Rows without a region use
// defaultRegion.
func LoadTargets(path, defaultRegion string) ([]Target, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input list: %w", err)
	}
	defer f.Close()

	var targets []Target
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		targets, err = parseTargetsYAML(f)
	default:
		targets, err = parseTargetsCSV(f)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse input list %s: %w", path, err)
	}

	return normalizeTargets(targets, defaultRegion)
}

func parseTargetsYAML(r io.Reader) ([]Target, error) {
	var targets []Target
	if err := yaml.NewDecoder(r).Decode(&targets); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	return targets, nil
}

func parseTargetsCSV(r io.Reader) ([]Target, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	accountIdx, ok := columns["account"]
	if !ok {
		return nil, fmt.Errorf("header has no account column")
	}
	regionIdx, hasRegion := columns["region"]
	roleIdx, hasRole := columns["role_arn"]

	field := func(record []string, idx int, present bool) string {
		if !present || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var targets []Target
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		targets = append(targets, Target{
			Account: field(record, accountIdx, true),
			Region:  field(record, regionIdx, hasRegion),
			RoleARN: field(record, roleIdx, hasRole),
		})
	}
	return targets, nil
}

func normalizeTargets(targets []Target, defaultRegion string) ([]Target, error) {
	seen := make(map[Target]bool)
	out := make([]Target, 0, len(targets))
	for i, t := range targets {
		if t.Account == "" && t.Region == "" && t.RoleARN == "" {
			continue
		}
		// Spreadsheet exports drop the leading zeros of account IDs
		if len(t.Account) < 12 && t.Account != "" && strings.Trim(t.Account, "0123456789") == "" {
			t.Account = strings.Repeat("0", 12-len(t.Account)) + t.Account
		}
		if !accountIDPattern.MatchString(t.Account) {
			return nil, fmt.Errorf("row %d: invalid account ID %q", i+1, t.Account)
		}
		if t.RoleARN != "" && !strings.HasPrefix(t.RoleARN, "arn:") {
			return nil, fmt.Errorf("row %d: invalid role ARN %q", i+1, t.RoleARN)
		}
		if t.Region == "" {
			t.Region = defaultRegion
		}
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out, nil
}
