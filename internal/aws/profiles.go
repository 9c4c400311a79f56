package aws

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go/aws/defaults"
	"gopkg.in/ini.v1"
)

// Profile is a named entry of the shared AWS credentials or config file
type Profile struct {
	Name   string `json:"name"`
	Region string `json:"region,omitempty"`
	SSO    bool   `json:"sso"`
}

func sharedFiles() (credsPath, configPath string) {
	credsPath = os.Getenv("AWS_SHARED_CREDENTIALS_FILE")
	if credsPath == "" {
		credsPath = defaults.SharedCredentialsFilename()
	}
	configPath = os.Getenv("AWS_CONFIG_FILE")
	if configPath == "" {
		configPath = defaults.SharedConfigFilename()
	}
	return credsPath, configPath
}

// ListProfiles returns the profiles of the shared credentials and config files, sorted by name
func ListProfiles() ([]Profile, error) {
	credsPath, configPath := sharedFiles()
	profiles := make(map[string]*Profile)

	get := func(name string) *Profile {
		if p, ok := profiles[name]; ok {
			return p
		}
		p := &Profile{Name: name}
		profiles[name] = p
		return p
	}

	if _, err := os.Stat(credsPath); err == nil {
		credsFile, err := ini.Load(credsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load credentials file: %w", err)
		}
		for _, section := range credsFile.Sections() {
			if section.Name() == ini.DefaultSection {
				continue
			}
			p := get(section.Name())
			if region := section.Key("region").String(); region != "" {
				p.Region = region
			}
		}
	}

	if _, err := os.Stat(configPath); err == nil {
		configFile, err := ini.Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
		for _, section := range configFile.Sections() {
			name := section.Name()
			if name == ini.DefaultSection || strings.HasPrefix(name, "sso-session ") {
				continue
			}
			p := get(strings.TrimPrefix(name, "profile "))
			if region := section.Key("region").String(); region != "" {
				p.Region = region
			}
			if section.HasKey("sso_start_url") || section.HasKey("sso_session") {
				p.SSO = true
			}
		}
	}

	result := make([]Profile, 0, len(profiles))
	for _, p := range profiles {
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })

	return result, nil
}

// IsValidProfile checks if a profile exists
func IsValidProfile(profile string) bool {
	profiles, err := ListProfiles()
	if err != nil {
		return false
	}
	for _, p := range profiles {
		if p.Name == profile {
			return true
		}
	}
	return false
}
