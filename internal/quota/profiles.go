package quota

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"skillbox/lib/osutil"
)

type profile struct {
	Provider  Provider `json:"provider"`
	Email     string   `json:"email"`
	Access    string   `json:"access"`
	ProjectID string   `json:"projectId"`
	AccountID string   `json:"accountId"`
	Expires   float64  `json:"expires"`
}

type profilesFile struct {
	Profiles map[string]profile `json:"profiles"`
}

// LoadProfiles reads the Antigravity and Codex accounts out of an
// auth-profiles.json file. Profiles of other providers are ignored. Accounts
// are ordered by profile key.
func LoadProfiles(path string) ([]Account, error) {
	path, err := osutil.ExpandHome(path)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read auth profiles: %w", err)
	}
	return ParseProfiles(content)
}

// ParseProfiles is LoadProfiles on the content of the file.
func ParseProfiles(content []byte) ([]Account, error) {
	var file profilesFile
	if err := json.Unmarshal(content, &file); err != nil {
		return nil, fmt.Errorf("decode auth profiles: %w", err)
	}

	keys := make([]string, 0, len(file.Profiles))
	for key := range file.Profiles {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var accounts []Account
	for _, key := range keys {
		p := file.Profiles[key]
		account := Account{
			Provider:    p.Provider,
			Key:         key,
			AccessToken: p.Access,
			Expires:     p.Expires,
		}

		switch p.Provider {
		case ProviderAntigravity:
			account.Email = p.Email
			if account.Email == "" {
				account.Email = lastSegment(key)
			}
			account.ProjectID = p.ProjectID
		case ProviderCodex:
			if strings.Contains(key, ":") {
				account.Email = lastSegment(key)
			}
			account.AccountID = p.AccountID
		default:
			continue
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}

// FilterProvider keeps the accounts of provider, an empty provider keeps all.
func FilterProvider(accounts []Account, provider Provider) []Account {
	if provider == "" {
		return accounts
	}
	out := []Account{}
	for _, a := range accounts {
		if a.Provider == provider {
			out = append(out, a)
		}
	}
	return out
}

func lastSegment(key string) string {
	idx := strings.LastIndex(key, ":")
	return key[idx+1:]
}
